// Package roster manages the representative list for a term and
// aggregates per-representative voting histories over an expanding
// time window.
package roster

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/civicteam/mandat/pkg/sejm"
	"github.com/civicteam/mandat/pkg/textnorm"
)

// Source is the slice of the API client the roster needs.
type Source interface {
	FetchMPs(ctx context.Context) ([]sejm.MP, error)
}

// FetchRoster fetches the full roster in one bulk call and sorts it.
// The result is immutable client-side; refresh re-fetches wholesale.
func FetchRoster(ctx context.Context, source Source) ([]sejm.MP, error) {
	mps, err := source.FetchMPs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch roster: %w", err)
	}
	Sort(mps)
	return mps, nil
}

// Sort orders the roster by last name then first name under Polish
// collation with base sensitivity, so diacritics do not affect order.
func Sort(mps []sejm.MP) {
	collator := collate.New(language.Polish, collate.Loose)
	sort.SliceStable(mps, func(i, j int) bool {
		if c := collator.CompareString(mps[i].LastName, mps[j].LastName); c != 0 {
			return c < 0
		}
		return collator.CompareString(mps[i].FirstName, mps[j].FirstName) < 0
	})
}

// Filter narrows a roster by district and/or name. A districtNumber
// of 0 means no district filter; an empty nameQuery means no name
// filter. The name match is substring-based over normalized names and
// accepts the query words in either order ("Jan Kowalski" and
// "Kowalski Jan" both match).
func Filter(mps []sejm.MP, districtNumber int, nameQuery string) []sejm.MP {
	query := textnorm.Normalize(nameQuery)
	filtered := make([]sejm.MP, 0, len(mps))
	for _, mp := range mps {
		if districtNumber != 0 && mp.DistrictNumber != districtNumber {
			continue
		}
		if query != "" && !matchesName(mp, query) {
			continue
		}
		filtered = append(filtered, mp)
	}
	return filtered
}

func matchesName(mp sejm.MP, normalizedQuery string) bool {
	first := textnorm.Normalize(mp.FirstName)
	last := textnorm.Normalize(mp.LastName)
	return strings.Contains(first, normalizedQuery) ||
		strings.Contains(last, normalizedQuery) ||
		strings.Contains(first+" "+last, normalizedQuery) ||
		strings.Contains(last+" "+first, normalizedQuery)
}
