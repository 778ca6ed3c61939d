// Package resolve maps a citizen's postal code to an electoral
// district number through geocoding, name canonicalization, and a
// cascading probe of the district lookup indexes.
package resolve

import (
	"context"
	"errors"
	"fmt"

	"github.com/civicteam/mandat/pkg/district"
	"github.com/civicteam/mandat/pkg/geocode"
	"github.com/civicteam/mandat/pkg/region"
	"github.com/civicteam/mandat/pkg/textnorm"
)

// ErrNoMatch reports that the location geocoded but no district
// matched, or that the geocoder found nothing for the postal code.
// Callers must keep this distinct from transport failures.
var ErrNoMatch = errors.New("no electoral district matches the location")

// Geocoder resolves a postal code to administrative fields. A nil
// Location with nil error means the service found no match.
type Geocoder interface {
	Geocode(ctx context.Context, postalCode string) (*geocode.Location, error)
}

// Resolver orchestrates geocoding, alias resolution, and index
// probing. The district set is built once and read-only.
type Resolver struct {
	geocoder Geocoder
	set      *district.Set
}

// New creates a resolver over the given geocoder and district set.
func New(geocoder Geocoder, set *district.Set) *Resolver {
	return &Resolver{geocoder: geocoder, set: set}
}

// ResolveDistrict geocodes the postal code and resolves the result to
// a district number. Returns ErrNoMatch when the geocoder finds
// nothing or no lookup tier hits; any other error is a transport or
// service failure.
func (resolver *Resolver) ResolveDistrict(ctx context.Context, postalCode string) (int, error) {
	location, err := resolver.geocoder.Geocode(ctx, postalCode)
	if err != nil {
		return 0, fmt.Errorf("geocoding %q: %w", postalCode, err)
	}
	if location == nil {
		return 0, ErrNoMatch
	}
	return resolver.ResolveLocation(location)
}

// ResolveLocation resolves an already-geocoded location. The five
// tiers are probed in strict order, first hit wins:
//
//  1. city + voivodeship
//  2. county + voivodeship
//  3. city alone
//  4. county alone
//  5. voivodeship alone (whole-voivodeship districts only)
//
// The qualified pairs go first because bare county names recur across
// voivodeships; the whole-voivodeship tier goes last because it is
// the coarsest and would otherwise mask a more specific match. A tier
// whose fields are absent is skipped.
func (resolver *Resolver) ResolveLocation(location *geocode.Location) (int, error) {
	voivodeship := resolver.canonicalVoivodeship(location)
	city := textnorm.Normalize(location.City)
	county := region.FixCountyLabel(location.County)
	indexes := resolver.set.Indexes

	if city != "" && voivodeship != "" {
		if number, ok := indexes.CityAndVoivodeship[district.Key{Name: city, Voivodeship: voivodeship}]; ok {
			return number, nil
		}
	}
	if county != "" && voivodeship != "" {
		if number, ok := indexes.CountyAndVoivodeship[district.Key{Name: county, Voivodeship: voivodeship}]; ok {
			return number, nil
		}
	}
	if city != "" {
		if number, ok := indexes.CityOnly[city]; ok {
			return number, nil
		}
	}
	if county != "" {
		if number, ok := indexes.CountyOnly[county]; ok {
			return number, nil
		}
	}
	if voivodeship != "" {
		if number, ok := indexes.VoivodeshipOnly[voivodeship]; ok {
			return number, nil
		}
	}
	return 0, ErrNoMatch
}

// canonicalVoivodeship prefers the ISO subdivision code, which is
// authoritative, over the free-text region field.
func (resolver *Resolver) canonicalVoivodeship(location *geocode.Location) string {
	if location.ISOSubdivisionCode != "" {
		if canonical, ok := region.VoivodeshipFromISO(location.ISOSubdivisionCode); ok {
			return textnorm.Normalize(canonical)
		}
	}
	if location.Voivodeship != "" {
		return textnorm.Normalize(region.CanonicalizeVoivodeship(location.Voivodeship))
	}
	return ""
}
