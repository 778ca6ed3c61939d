package textnorm

import "testing"

func TestNormalize(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{"lowercase", "Warszawa", "warszawa"},
		{"diacritics", "Łódź", "lodz"},
		{"ogonek_and_acute", "powiat krośnieński", "powiat krosnienski"},
		{"hyphen_to_space", "Bielsko-Biała", "bielsko biala"},
		{"collapse_whitespace", "  powiat   łódzki  wschodni ", "powiat lodzki wschodni"},
		{"mixed", "Województwo Świętokrzyskie", "wojewodztwo swietokrzyskie"},
		{"empty", "", ""},
		{"slashed_l_words", "Wałbrzych", "walbrzych"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := Normalize(tc.input)
			if result != tc.expected {
				t.Errorf("Normalize(%q) = %q, want %q", tc.input, result, tc.expected)
			}
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"Łódź",
		"Bielsko-Biała",
		"  Zielona   Góra ",
		"województwo kujawsko-pomorskie",
		"Jastrzębie-Zdrój",
	}

	for _, input := range inputs {
		once := Normalize(input)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: first %q, second %q", input, once, twice)
		}
	}
}

func TestNormalize_DiacriticInsensitive(t *testing.T) {
	if Normalize("Łódź") != Normalize("lodz") {
		t.Errorf("Normalize(Łódź) = %q, Normalize(lodz) = %q; want equal",
			Normalize("Łódź"), Normalize("lodz"))
	}
	if Normalize("ŚWIĘTOKRZYSKIE") != Normalize("swietokrzyskie") {
		t.Errorf("case/diacritic variants of świętokrzyskie do not normalize equally")
	}
}
