// Package geocode looks up Polish postal codes against a
// Nominatim-style address search service and extracts the
// administrative fields the district resolver needs.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

// DefaultBaseURL is the public Nominatim search endpoint.
const DefaultBaseURL = "https://nominatim.openstreetmap.org/search"

// DefaultUserAgent identifies this client to the geocoding service,
// which requires a descriptive User-Agent.
const DefaultUserAgent = "mandat-district-resolver/1.0"

// HTTPClient matches the Do method of *http.Client so tests can
// inject fakes.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config holds client configuration.
type Config struct {
	// BaseURL is the search endpoint.
	BaseURL string

	// HTTPClient is the underlying HTTP client.
	HTTPClient HTTPClient

	// UserAgent is sent with every request.
	UserAgent string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		BaseURL:    DefaultBaseURL,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		UserAgent:  DefaultUserAgent,
	}
}

// Location is the transient result of a geocode call. Empty fields
// mean the service did not report them, not an empty value.
type Location struct {
	ISOSubdivisionCode string
	Voivodeship        string
	County             string
	City               string
}

// Client queries the address search service. Results are not cached;
// every call re-queries the service.
type Client struct {
	config Config
}

// NewClient creates a geocoding client, backfilling zero-value config
// fields with defaults.
func NewClient(config Config) *Client {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if config.UserAgent == "" {
		config.UserAgent = DefaultUserAgent
	}
	return &Client{config: config}
}

var digitsOnly = regexp.MustCompile(`^\d{5}$`)

// ReformatPostalCode rewrites a bare five-digit code into the
// national "NN-NNN" form. Anything else is returned unchanged.
func ReformatPostalCode(postalCode string) string {
	trimmed := strings.TrimSpace(postalCode)
	if digitsOnly.MatchString(trimmed) {
		return trimmed[:2] + "-" + trimmed[2:]
	}
	return trimmed
}

// Geocode resolves a postal code to a Location. The code is tried as
// given and, if that returns nothing, again in the NN-NNN form. A nil
// Location with a nil error means the service answered but found no
// match; a non-nil error means the service was unreachable or
// answered malformed data.
func (client *Client) Geocode(ctx context.Context, postalCode string) (*Location, error) {
	location, err := client.query(ctx, strings.TrimSpace(postalCode))
	if err != nil {
		return nil, err
	}
	if location != nil {
		return location, nil
	}

	reformatted := ReformatPostalCode(postalCode)
	if reformatted == strings.TrimSpace(postalCode) {
		return nil, nil
	}
	return client.query(ctx, reformatted)
}

func (client *Client) query(ctx context.Context, postalCode string) (*Location, error) {
	params := url.Values{}
	params.Set("country", "Poland")
	params.Set("postalcode", postalCode)
	params.Set("format", "json")
	params.Set("addressdetails", "1")
	params.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, client.config.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", client.config.UserAgent)

	resp, err := client.config.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocoding request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocoding service returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read geocoding response: %w", err)
	}

	var results []searchResult
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("failed to parse geocoding response: %w", err)
	}
	if len(results) == 0 {
		return nil, nil
	}

	return results[0].location(), nil
}

// searchResult mirrors the subset of the service's JSON response the
// resolver consumes.
type searchResult struct {
	Address struct {
		ISO3166Lvl4 string `json:"ISO3166-2-lvl4"`
		State       string `json:"state"`
		County      string `json:"county"`
		City        string `json:"city"`
		Town        string `json:"town"`
		Village     string `json:"village"`
	} `json:"address"`
}

func (result *searchResult) location() *Location {
	city := result.Address.City
	if city == "" {
		city = result.Address.Town
	}
	if city == "" {
		city = result.Address.Village
	}
	return &Location{
		ISOSubdivisionCode: result.Address.ISO3166Lvl4,
		Voivodeship:        result.Address.State,
		County:             result.Address.County,
		City:               city,
	}
}
