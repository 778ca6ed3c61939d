package district

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/civicteam/mandat/pkg/region"
	"github.com/civicteam/mandat/pkg/textnorm"
)

// The official table is row oriented and semicolon delimited:
// district number; seat city; free-text boundary description. The
// description names the voivodeship and, unless the district covers a
// whole voivodeship, enumerates its counties after "powiaty:" and its
// cities with county rights after "miasta na prawach powiatu:".
var (
	voivodeshipPattern = regexp.MustCompile(`województw[oa]\s+([\p{L}][\p{L}-]*)`)
	countyListPattern  = regexp.MustCompile(`powiaty:\s*(.*?)(?:\s+oraz\s+miast|$)`)
	cityListPattern    = regexp.MustCompile(`miast[oa] na prawach powiatu:\s*(.*)$`)
)

// parseDescriptors reads the table row by row into the builder. Rows
// without a numeric district number (the header) are skipped. A row
// may carry only one of the two enumerated lists; absence of one never
// blocks extraction of the other.
func parseDescriptors(b *builder, table string) error {
	for _, line := range strings.Split(table, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		fields := strings.SplitN(line, ";", 3)
		if len(fields) < 3 {
			continue
		}
		number, err := strconv.Atoi(strings.TrimSpace(fields[0]))
		if err != nil {
			continue
		}

		seat := strings.TrimSpace(fields[1])
		description := fields[2]

		descriptor := &Descriptor{Number: number, Seat: seat}

		if match := voivodeshipPattern.FindStringSubmatch(description); match != nil {
			descriptor.Voivodeship = region.CanonicalizeVoivodeship(match[1])
		}

		counties := splitList(firstGroup(countyListPattern, description))
		cities := splitList(firstGroup(cityListPattern, description))

		if len(counties) == 0 && len(cities) == 0 {
			// Bare voivodeship description: membership arrives via
			// the supplement table.
			descriptor.WholeVoivodeship = true
			if descriptor.Voivodeship == "" {
				return fmt.Errorf("district %d: whole-voivodeship row without a voivodeship name", number)
			}
			b.set.Indexes.VoivodeshipOnly[textnorm.Normalize(descriptor.Voivodeship)] = number
			b.set.Districts[number] = descriptor
			b.set.Stats.WholeVoivodeships = append(b.set.Stats.WholeVoivodeships, number)
			continue
		}

		for _, county := range counties {
			label := "powiat " + county
			descriptor.Counties = append(descriptor.Counties, label)
			if err := b.addCounty(label, descriptor.Voivodeship, number); err != nil {
				return err
			}
		}
		for _, city := range cities {
			descriptor.Cities = append(descriptor.Cities, city)
			if err := b.addCity(city, descriptor.Voivodeship, number); err != nil {
				return err
			}
		}
		b.set.Districts[number] = descriptor
	}
	return nil
}

func firstGroup(pattern *regexp.Regexp, text string) string {
	if match := pattern.FindStringSubmatch(text); match != nil {
		return match[1]
	}
	return ""
}

func splitList(list string) []string {
	if strings.TrimSpace(list) == "" {
		return nil
	}
	parts := strings.Split(list, ",")
	names := make([]string, 0, len(parts))
	for _, part := range parts {
		if name := strings.TrimSpace(part); name != "" {
			names = append(names, name)
		}
	}
	return names
}
