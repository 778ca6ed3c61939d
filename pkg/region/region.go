// Package region holds the static administrative-name tables: ISO
// subdivision codes, voivodeship spelling variants, and the heuristic
// repairs for county labels as geocoders render them. All lookups key
// through textnorm.Normalize so callers may pass any spelling variant.
package region

import (
	"strings"

	"github.com/civicteam/mandat/pkg/textnorm"
)

// Voivodeships lists the 16 canonical voivodeship names, lowercase
// Polish with diacritics, no honorific.
var Voivodeships = []string{
	"dolnośląskie",
	"kujawsko-pomorskie",
	"lubelskie",
	"lubuskie",
	"łódzkie",
	"małopolskie",
	"mazowieckie",
	"opolskie",
	"podkarpackie",
	"podlaskie",
	"pomorskie",
	"śląskie",
	"świętokrzyskie",
	"warmińsko-mazurskie",
	"wielkopolskie",
	"zachodniopomorskie",
}

// isoToVoivodeship maps ISO 3166-2 subdivision codes (as returned by
// geocoders in the ISO3166_2_lvl4 field) to canonical names.
var isoToVoivodeship = map[string]string{
	"PL-02": "dolnośląskie",
	"PL-04": "kujawsko-pomorskie",
	"PL-06": "lubelskie",
	"PL-08": "lubuskie",
	"PL-10": "łódzkie",
	"PL-12": "małopolskie",
	"PL-14": "mazowieckie",
	"PL-16": "opolskie",
	"PL-18": "podkarpackie",
	"PL-20": "podlaskie",
	"PL-22": "pomorskie",
	"PL-24": "śląskie",
	"PL-26": "świętokrzyskie",
	"PL-28": "warmińsko-mazurskie",
	"PL-30": "wielkopolskie",
	"PL-32": "zachodniopomorskie",
}

// englishNames maps the English voivodeship names geocoders sometimes
// return to canonical Polish names. Keys are pre-normalized.
var englishNames = map[string]string{
	"lower silesian":      "dolnośląskie",
	"lower silesia":       "dolnośląskie",
	"kuyavian pomeranian": "kujawsko-pomorskie",
	"lublin":              "lubelskie",
	"lubusz":              "lubuskie",
	"lodz":                "łódzkie",
	"lesser poland":       "małopolskie",
	"masovian":            "mazowieckie",
	"masovia":             "mazowieckie",
	"opole":               "opolskie",
	"subcarpathian":       "podkarpackie",
	"pomeranian":          "pomorskie",
	"silesian":            "śląskie",
	"holy cross":          "świętokrzyskie",
	"warmian masurian":    "warmińsko-mazurskie",
	"greater poland":      "wielkopolskie",
	"west pomeranian":     "zachodniopomorskie",
}

// aliases is the combined alias table: normalized spelling variant to
// canonical name. Built once at init from the canonical list (which
// covers the missing-diacritic variants, since keys are normalized)
// plus the English names.
var aliases = buildAliases()

func buildAliases() map[string]string {
	table := make(map[string]string, len(Voivodeships)+len(englishNames))
	for _, canonical := range Voivodeships {
		table[textnorm.Normalize(canonical)] = canonical
	}
	for variant, canonical := range englishNames {
		table[variant] = canonical
	}
	return table
}

// VoivodeshipFromISO returns the canonical voivodeship for an ISO
// 3166-2 subdivision code such as "PL-14".
func VoivodeshipFromISO(code string) (string, bool) {
	canonical, ok := isoToVoivodeship[strings.ToUpper(strings.TrimSpace(code))]
	return canonical, ok
}

// ISOCodes returns the full subdivision code table. The returned map
// must not be mutated.
func ISOCodes() map[string]string {
	return isoToVoivodeship
}

// CanonicalizeVoivodeship strips the "województwo" honorific and the
// English "voivodeship"/"province" suffix, then resolves the remainder
// through the alias table. A genitive form ("mazowieckiego") is
// retried with its nominative ending. Unknown remainders are returned
// as given, on the assumption the caller already holds a canonical
// name. Empty input yields "".
func CanonicalizeVoivodeship(raw string) string {
	normalized := textnorm.Normalize(raw)
	if normalized == "" {
		return ""
	}

	normalized = strings.TrimPrefix(normalized, "wojewodztwo ")
	normalized = strings.TrimPrefix(normalized, "wojewodztwa ")
	normalized = strings.TrimSuffix(normalized, " voivodeship")
	normalized = strings.TrimSuffix(normalized, " province")
	normalized = strings.TrimSpace(normalized)

	if canonical, ok := aliases[normalized]; ok {
		return canonical
	}
	// Genitive of every voivodeship adjective ends in "-iego"
	// ("mazowieckiego" for "mazowieckie").
	if strings.HasSuffix(normalized, "iego") {
		if canonical, ok := aliases[strings.TrimSuffix(normalized, "go")]; ok {
			return canonical
		}
	}
	return normalized
}

// FixCountyLabel repairs the two known geocoder quirks in county
// fields and returns the label in normalized form:
//
//   - "Krosno County" style output becomes "powiat krosno"
//   - a bare adjectival root such as "krośnieński" becomes
//     "powiat krośnieński"
//
// Labels already containing "powiat" (which includes "miasto na
// prawach powiatu") pass through untouched. Both rules are pattern
// heuristics; an unmapped label degrades to a best-effort guess
// rather than an error.
func FixCountyLabel(raw string) string {
	normalized := textnorm.Normalize(raw)
	if normalized == "" {
		return ""
	}
	if strings.Contains(normalized, "powiat") {
		return normalized
	}
	if name, ok := strings.CutSuffix(normalized, " county"); ok {
		return "powiat " + name
	}
	if isAdjectivalRoot(normalized) {
		return "powiat " + normalized
	}
	return normalized
}

// isAdjectivalRoot reports whether a bare label looks like a Polish
// county adjective ("krośnieński", "łódzki wschodni", "warszawski
// zachodni"). Checked against the final word so compound labels with
// a direction suffix still match.
func isAdjectivalRoot(label string) bool {
	words := strings.Fields(label)
	for _, word := range words {
		if strings.HasSuffix(word, "ski") || strings.HasSuffix(word, "cki") || strings.HasSuffix(word, "zki") {
			return true
		}
	}
	return false
}
