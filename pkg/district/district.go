// Package district builds the electoral-district descriptor set from
// the official boundary table and derives the lookup indexes used by
// the resolver. The table is parsed once; the resulting Set is
// immutable and validated at build time.
package district

import (
	_ "embed"
	"fmt"
	"sort"

	"github.com/civicteam/mandat/pkg/textnorm"
)

// DistrictCount is the legally fixed number of electoral districts.
const DistrictCount = 41

//go:embed okregi.csv
var officialTable string

// Descriptor describes one electoral district.
type Descriptor struct {
	Number           int
	Seat             string
	Voivodeship      string // canonical name
	WholeVoivodeship bool
	Counties         []string // "powiat <name>" labels as written in the table
	Cities           []string // city-with-county-rights names
}

// Key is a voivodeship-qualified index key. Both fields are in
// textnorm.Normalize form.
type Key struct {
	Name        string
	Voivodeship string
}

// Indexes holds the five lookup maps derived from the descriptor set.
// All keys are normalized. The two unqualified maps are last-writer-
// wins fallbacks; the qualified maps are checked for uniqueness at
// build time.
type Indexes struct {
	CountyOnly           map[string]int
	CityOnly             map[string]int
	CountyAndVoivodeship map[Key]int
	CityAndVoivodeship   map[Key]int
	VoivodeshipOnly      map[string]int
}

// Collision records an unqualified index key claimed by more than one
// district. These are expected only for county names that recur
// across voivodeships.
type Collision struct {
	Name      string
	Districts []int
}

// Stats summarizes a build for diagnostics and tests.
type Stats struct {
	Counties           int
	Cities             int
	BareCollisions     []Collision
	WholeVoivodeships  []int
	SupplementedLabels int
}

// Set is the immutable product of a successful build.
type Set struct {
	Districts map[int]*Descriptor
	Indexes   *Indexes
	Stats     Stats
}

func newIndexes() *Indexes {
	return &Indexes{
		CountyOnly:           make(map[string]int),
		CityOnly:             make(map[string]int),
		CountyAndVoivodeship: make(map[Key]int),
		CityAndVoivodeship:   make(map[Key]int),
		VoivodeshipOnly:      make(map[string]int),
	}
}

// builder accumulates index entries from the parser and the
// whole-voivodeship supplement through one insertion path.
type builder struct {
	set        *Set
	collisions map[string][]int
}

func newBuilder() *builder {
	return &builder{
		set: &Set{
			Districts: make(map[int]*Descriptor),
			Indexes:   newIndexes(),
		},
		collisions: make(map[string][]int),
	}
}

func (b *builder) addCounty(label, voivodeship string, number int) error {
	name := textnorm.Normalize(label)
	voiv := textnorm.Normalize(voivodeship)

	if prev, taken := b.set.Indexes.CountyAndVoivodeship[Key{name, voiv}]; taken && prev != number {
		return fmt.Errorf("county %q in %q claimed by districts %d and %d", label, voivodeship, prev, number)
	}
	if prev, taken := b.set.Indexes.CountyOnly[name]; taken && prev != number {
		b.recordCollision(name, prev, number)
	}
	b.set.Indexes.CountyOnly[name] = number
	b.set.Indexes.CountyAndVoivodeship[Key{name, voiv}] = number
	b.set.Stats.Counties++
	return nil
}

func (b *builder) addCity(name, voivodeship string, number int) error {
	city := textnorm.Normalize(name)
	voiv := textnorm.Normalize(voivodeship)

	if prev, taken := b.set.Indexes.CityAndVoivodeship[Key{city, voiv}]; taken && prev != number {
		return fmt.Errorf("city %q in %q claimed by districts %d and %d", name, voivodeship, prev, number)
	}
	if prev, taken := b.set.Indexes.CityOnly[city]; taken && prev != number {
		b.recordCollision(city, prev, number)
	}
	b.set.Indexes.CityOnly[city] = number
	b.set.Indexes.CityAndVoivodeship[Key{city, voiv}] = number
	b.set.Stats.Cities++
	return nil
}

func (b *builder) recordCollision(name string, districts ...int) {
	b.collisions[name] = append(b.collisions[name], districts...)
}

// validate enforces the structural invariants: exactly districts
// 1..41, each with a voivodeship and non-empty membership.
func (b *builder) validate() error {
	for number := 1; number <= DistrictCount; number++ {
		descriptor, ok := b.set.Districts[number]
		if !ok {
			return fmt.Errorf("district %d missing from descriptor table", number)
		}
		if descriptor.Voivodeship == "" {
			return fmt.Errorf("district %d has no voivodeship", number)
		}
		if len(descriptor.Counties) == 0 && len(descriptor.Cities) == 0 {
			return fmt.Errorf("district %d has empty membership after supplement", number)
		}
	}
	if len(b.set.Districts) != DistrictCount {
		return fmt.Errorf("descriptor table has %d districts, want %d", len(b.set.Districts), DistrictCount)
	}
	return nil
}

func (b *builder) finish() (*Set, error) {
	if err := b.validate(); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(b.collisions))
	for name := range b.collisions {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		b.set.Stats.BareCollisions = append(b.set.Stats.BareCollisions, Collision{
			Name:      name,
			Districts: b.collisions[name],
		})
	}
	return b.set, nil
}

// Build parses the embedded official table, applies the
// whole-voivodeship supplement, validates the structural invariants,
// and returns the finished set. It fails fast on any violation so a
// bad table is caught at startup, not at lookup time.
func Build() (*Set, error) {
	return buildFrom(officialTable)
}

func buildFrom(table string) (*Set, error) {
	b := newBuilder()
	if err := parseDescriptors(b, table); err != nil {
		return nil, fmt.Errorf("parsing district table: %w", err)
	}
	if err := applySupplement(b); err != nil {
		return nil, fmt.Errorf("applying whole-voivodeship supplement: %w", err)
	}
	set, err := b.finish()
	if err != nil {
		return nil, fmt.Errorf("validating district table: %w", err)
	}
	return set, nil
}
