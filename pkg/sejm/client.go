// Package sejm provides a connector for the public REST API of the
// Polish parliament: the representative roster for a term, the
// chamber's sitting calendar, and a representative's votes for a
// given sitting day.
package sejm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultBaseURL is the public parliament API.
const DefaultBaseURL = "https://api.sejm.gov.pl"

// DefaultTerm is the parliamentary term queried when none is given.
const DefaultTerm = 10

// DefaultUserAgent is the User-Agent header sent with requests.
const DefaultUserAgent = "mandat-sejm-connector/1.0"

// DefaultTimeout bounds every API call.
const DefaultTimeout = 15 * time.Second

// votingPageTemplate builds the public voting-detail page for a
// (sitting, voting number) pair.
const votingPageTemplate = "https://www.sejm.gov.pl/Sejm%d.nsf/agent.xsp?symbol=glosowania&NrKadencji=%d&NrPosiedzenia=%d&NrGlosowania=%d"

// VoteValue is a representative's position in one voting.
type VoteValue string

const (
	VoteYes     VoteValue = "YES"
	VoteNo      VoteValue = "NO"
	VoteAbstain VoteValue = "ABSTAIN"
	VoteAbsent  VoteValue = "ABSENT"
)

// ParseVoteValue converts an API vote code to a VoteValue. Any
// unrecognized code maps to VoteAbsent, a safe default rather than an
// error.
func ParseVoteValue(s string) VoteValue {
	switch strings.TrimSpace(strings.ToUpper(s)) {
	case "YES":
		return VoteYes
	case "NO":
		return VoteNo
	case "ABSTAIN":
		return VoteAbstain
	default:
		return VoteAbsent
	}
}

// Label returns the Polish display label for the vote.
func (v VoteValue) Label() string {
	switch v {
	case VoteYes:
		return "Za"
	case VoteNo:
		return "Przeciw"
	case VoteAbstain:
		return "Wstrzymanie się"
	default:
		return "Nieobecność"
	}
}

// MP is one representative in the roster. The roster is fetched in a
// single bulk call and treated as immutable; refresh re-fetches it
// wholesale.
type MP struct {
	ID             int    `json:"id"`
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	Club           string `json:"club"`
	DistrictNumber int    `json:"districtNum"`
	DistrictName   string `json:"districtName"`
}

// ClubOrIndependent returns the party/caucus label, substituting
// "niezrzeszony" when the API reports none.
func (mp MP) ClubOrIndependent() string {
	if strings.TrimSpace(mp.Club) == "" {
		return "niezrzeszony"
	}
	return mp.Club
}

// Proceeding is one multi-day sitting of the chamber.
type Proceeding struct {
	Number int      `json:"number"`
	Title  string   `json:"title"`
	Dates  []string `json:"dates"` // YYYY-MM-DD
}

// VoteKey is the identity of one voting event: unique per
// representative history.
type VoteKey struct {
	Sitting      int
	VotingNumber int
}

// VoteRecord is one vote cast (or missed) by a representative.
type VoteRecord struct {
	Topic        string
	Vote         VoteValue
	Date         time.Time
	Sitting      int
	VotingNumber int
}

// Key returns the record's identity key.
func (record VoteRecord) Key() VoteKey {
	return VoteKey{Sitting: record.Sitting, VotingNumber: record.VotingNumber}
}

// HTTPClient matches the Do method of *http.Client so tests can
// inject fakes.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config holds connector configuration.
type Config struct {
	BaseURL    string
	Term       int
	HTTPClient HTTPClient
	UserAgent  string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		BaseURL:    DefaultBaseURL,
		Term:       DefaultTerm,
		HTTPClient: &http.Client{Timeout: DefaultTimeout},
		UserAgent:  DefaultUserAgent,
	}
}

// Client fetches roster and voting data for one parliamentary term.
type Client struct {
	config Config
}

// NewClient creates a connector, backfilling zero-value config fields
// with defaults.
func NewClient(config Config) *Client {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.Term == 0 {
		config.Term = DefaultTerm
	}
	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{Timeout: DefaultTimeout}
	}
	if config.UserAgent == "" {
		config.UserAgent = DefaultUserAgent
	}
	return &Client{config: config}
}

// Term returns the configured parliamentary term.
func (client *Client) Term() int {
	return client.config.Term
}

func (client *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, client.config.BaseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", client.config.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := client.config.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return body, nil
}

// FetchMPs fetches the full roster for the configured term.
func (client *Client) FetchMPs(ctx context.Context) ([]MP, error) {
	body, err := client.get(ctx, fmt.Sprintf("/sejm/term%d/MP", client.config.Term))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch roster: %w", err)
	}
	var mps []MP
	if err := json.Unmarshal(body, &mps); err != nil {
		return nil, fmt.Errorf("failed to parse roster: %w", err)
	}
	return mps, nil
}

// PhotoURL returns the URL of a representative's photo.
func (client *Client) PhotoURL(mpID int) string {
	return fmt.Sprintf("%s/sejm/term%d/MP/%d/photo", client.config.BaseURL, client.config.Term, mpID)
}

// FetchProceedings fetches the chamber's full sitting calendar.
func (client *Client) FetchProceedings(ctx context.Context) ([]Proceeding, error) {
	body, err := client.get(ctx, fmt.Sprintf("/sejm/term%d/proceedings", client.config.Term))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch proceedings: %w", err)
	}
	var proceedings []Proceeding
	if err := json.Unmarshal(body, &proceedings); err != nil {
		return nil, fmt.Errorf("failed to parse proceedings: %w", err)
	}
	return proceedings, nil
}

// wire form of one voting in the per-MP votings endpoint.
type mpVoting struct {
	Title        string `json:"title"`
	Topic        string `json:"topic"`
	Vote         string `json:"vote"`
	Date         string `json:"date"`
	Sitting      int    `json:"sitting"`
	VotingNumber int    `json:"votingNumber"`
}

// FetchMPVotes fetches a representative's votes for one sitting day.
func (client *Client) FetchMPVotes(ctx context.Context, mpID, sitting int, date time.Time) ([]VoteRecord, error) {
	path := fmt.Sprintf("/sejm/term%d/MP/%d/votings/%d/%s",
		client.config.Term, mpID, sitting, date.Format("2006-01-02"))
	body, err := client.get(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch votes for MP %d, sitting %d: %w", mpID, sitting, err)
	}

	var votings []mpVoting
	if err := json.Unmarshal(body, &votings); err != nil {
		return nil, fmt.Errorf("failed to parse votes for MP %d: %w", mpID, err)
	}

	records := make([]VoteRecord, 0, len(votings))
	for _, voting := range votings {
		topic := voting.Topic
		if topic == "" {
			topic = voting.Title
		}
		records = append(records, VoteRecord{
			Topic:        topic,
			Vote:         ParseVoteValue(voting.Vote),
			Date:         parseAPIDate(voting.Date),
			Sitting:      voting.Sitting,
			VotingNumber: voting.VotingNumber,
		})
	}
	return records, nil
}

// VotingPageURL builds the deterministic public web link to the
// voting-detail page for a (sitting, voting number) pair.
func (client *Client) VotingPageURL(sitting, votingNumber int) string {
	return fmt.Sprintf(votingPageTemplate, client.config.Term, client.config.Term, sitting, votingNumber)
}

// parseAPIDate parses the date formats the API emits. A zero time is
// returned for anything unparseable.
func parseAPIDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	formats := []string{
		"2006-01-02T15:04:05",
		"2006-01-02",
	}
	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
