package district

import "fmt"

// The official text describes four districts as a bare voivodeship
// and enumerates nothing, yet the resolver needs county and city
// granularity there to disambiguate geocoder output. supplementEntry
// hand-authors the full membership of those voivodeships; the entries
// flow through the same builder path as parsed rows so downstream
// lookups cannot tell the two sources apart.
type supplementEntry struct {
	number      int
	voivodeship string
	counties    []string // bare adjectival names; "powiat " prefix added on insert
	cities      []string
}

var wholeVoivodeshipSupplement = []supplementEntry{
	{
		number:      8,
		voivodeship: "lubuskie",
		counties: []string{
			"gorzowski", "krośnieński", "międzyrzecki", "nowosolski",
			"słubicki", "strzelecko-drezdenecki", "sulęciński",
			"świebodziński", "wschowski", "zielonogórski", "żagański",
			"żarski",
		},
		cities: []string{"Gorzów Wielkopolski", "Zielona Góra"},
	},
	{
		number:      21,
		voivodeship: "opolskie",
		counties: []string{
			"brzeski", "głubczycki", "kędzierzyńsko-kozielski",
			"kluczborski", "krapkowicki", "namysłowski", "nyski",
			"oleski", "opolski", "prudnicki", "strzelecki",
		},
		cities: []string{"Opole"},
	},
	{
		number:      24,
		voivodeship: "podlaskie",
		counties: []string{
			"augustowski", "białostocki", "bielski", "grajewski",
			"hajnowski", "kolneński", "łomżyński", "moniecki",
			"sejneński", "siemiatycki", "sokólski", "suwalski",
			"wysokomazowiecki", "zambrowski",
		},
		cities: []string{"Białystok", "Łomża", "Suwałki"},
	},
	{
		number:      33,
		voivodeship: "świętokrzyskie",
		counties: []string{
			"buski", "jędrzejowski", "kazimierski", "kielecki",
			"konecki", "opatowski", "ostrowiecki", "pińczowski",
			"sandomierski", "skarżyski", "starachowicki", "staszowski",
			"włoszczowski",
		},
		cities: []string{"Kielce"},
	},
}

// applySupplement completes the four whole-voivodeship districts with
// their enumerated membership.
func applySupplement(b *builder) error {
	for _, entry := range wholeVoivodeshipSupplement {
		descriptor, ok := b.set.Districts[entry.number]
		if !ok {
			return fmt.Errorf("supplement names district %d, absent from the parsed table", entry.number)
		}
		if !descriptor.WholeVoivodeship {
			return fmt.Errorf("supplement names district %d, but its row enumerates membership", entry.number)
		}
		if descriptor.Voivodeship != entry.voivodeship {
			return fmt.Errorf("supplement voivodeship %q for district %d disagrees with table %q",
				entry.voivodeship, entry.number, descriptor.Voivodeship)
		}

		for _, county := range entry.counties {
			label := "powiat " + county
			descriptor.Counties = append(descriptor.Counties, label)
			if err := b.addCounty(label, entry.voivodeship, entry.number); err != nil {
				return err
			}
			b.set.Stats.SupplementedLabels++
		}
		for _, city := range entry.cities {
			descriptor.Cities = append(descriptor.Cities, city)
			if err := b.addCity(city, entry.voivodeship, entry.number); err != nil {
				return err
			}
			b.set.Stats.SupplementedLabels++
		}
	}
	return nil
}
