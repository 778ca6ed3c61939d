package roster

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/civicteam/mandat/pkg/sejm"
)

const (
	// BaseWindowDays is the initial vote-history window.
	BaseWindowDays = 90

	// WindowStepDays is added to the window on each LoadMore.
	WindowStepDays = 90

	// MaxWindowDays caps the window; it never shrinks.
	MaxWindowDays = 400

	// PageSize caps how many new records one load may return,
	// however many were fetched.
	PageSize = 12
)

// ErrLoadInProgress reports a second load issued for a representative
// whose previous load has not finished. One load per representative
// may be in flight at a time.
var ErrLoadInProgress = errors.New("vote load already in flight for this representative")

// VotesSource is the slice of the API client the aggregator needs.
type VotesSource interface {
	FetchMPVotes(ctx context.Context, mpID, sitting int, date time.Time) ([]sejm.VoteRecord, error)
}

// AggregationState is the per-representative aggregation snapshot.
type AggregationState struct {
	WindowDays int
	Votes      []sejm.VoteRecord
	LoadedOnce bool
	Loading    bool
}

// aggregationState is the owned mutable form behind the mutex.
type aggregationState struct {
	windowDays int
	votes      []sejm.VoteRecord
	keys       map[sejm.VoteKey]bool
	loadedOnce bool
	loading    bool
}

// AggregatorConfig configures an Aggregator.
type AggregatorConfig struct {
	// Source fetches per-day vote lists.
	Source VotesSource

	// Calendar supplies the sitting calendar.
	Calendar *sejm.Calendar

	// Logger receives best-effort per-day fetch failures.
	Logger *log.Logger

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Aggregator owns all per-representative vote-aggregation state. Vote
// histories are append-only, deduplicated by (sitting, votingNumber),
// and kept sorted by date descending then voting number descending.
// State lives for the session only.
type Aggregator struct {
	source   VotesSource
	calendar *sejm.Calendar
	logger   *log.Logger
	now      func() time.Time

	mu     sync.Mutex
	states map[int]*aggregationState
}

// NewAggregator creates an aggregator, backfilling Logger and Now
// with defaults.
func NewAggregator(config AggregatorConfig) *Aggregator {
	if config.Logger == nil {
		config.Logger = log.Default()
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	return &Aggregator{
		source:   config.Source,
		calendar: config.Calendar,
		logger:   config.Logger,
		now:      config.Now,
		states:   make(map[int]*aggregationState),
	}
}

// State returns a copy of a representative's aggregation state.
func (aggregator *Aggregator) State(mpID int) AggregationState {
	aggregator.mu.Lock()
	defer aggregator.mu.Unlock()

	state, ok := aggregator.states[mpID]
	if !ok {
		return AggregationState{WindowDays: BaseWindowDays}
	}
	votes := make([]sejm.VoteRecord, len(state.votes))
	copy(votes, state.votes)
	return AggregationState{
		WindowDays: state.windowDays,
		Votes:      votes,
		LoadedOnce: state.loadedOnce,
		Loading:    state.loading,
	}
}

// Invalidate drops all aggregation state and empties the sitting
// calendar, for an explicit refresh.
func (aggregator *Aggregator) Invalidate() {
	aggregator.mu.Lock()
	aggregator.states = make(map[int]*aggregationState)
	aggregator.mu.Unlock()
	aggregator.calendar.Invalidate()
}

// LoadVotes loads a representative's votes for the current window and
// merges up to PageSize new records into their history. It returns
// the full merged history. A load already in flight for the same
// representative yields ErrLoadInProgress.
func (aggregator *Aggregator) LoadVotes(ctx context.Context, mpID int) ([]sejm.VoteRecord, error) {
	return aggregator.load(ctx, mpID, 0)
}

// LoadMore widens the representative's window by WindowStepDays
// (capped at MaxWindowDays) and loads as LoadVotes does.
func (aggregator *Aggregator) LoadMore(ctx context.Context, mpID int) ([]sejm.VoteRecord, error) {
	return aggregator.load(ctx, mpID, WindowStepDays)
}

func (aggregator *Aggregator) load(ctx context.Context, mpID, widenBy int) ([]sejm.VoteRecord, error) {
	aggregator.mu.Lock()
	state, ok := aggregator.states[mpID]
	if !ok {
		state = &aggregationState{
			windowDays: BaseWindowDays,
			keys:       make(map[sejm.VoteKey]bool),
		}
		aggregator.states[mpID] = state
	}
	if state.loading {
		aggregator.mu.Unlock()
		return nil, ErrLoadInProgress
	}
	state.loading = true
	if widenBy > 0 {
		state.windowDays = min(state.windowDays+widenBy, MaxWindowDays)
	}
	windowDays := state.windowDays
	have := make(map[sejm.VoteKey]bool, len(state.keys))
	for key := range state.keys {
		have[key] = true
	}
	aggregator.mu.Unlock()

	defer func() {
		aggregator.mu.Lock()
		state.loading = false
		aggregator.mu.Unlock()
	}()

	fresh, err := aggregator.fetchWindow(ctx, mpID, windowDays, have)
	if err != nil {
		return nil, err
	}

	aggregator.mu.Lock()
	defer aggregator.mu.Unlock()
	for _, record := range fresh {
		if state.keys[record.Key()] {
			continue
		}
		state.keys[record.Key()] = true
		state.votes = append(state.votes, record)
	}
	sortVotes(state.votes)
	state.loadedOnce = true

	merged := make([]sejm.VoteRecord, len(state.votes))
	copy(merged, state.votes)
	return merged, nil
}

// fetchWindow fetches the candidate sitting days inside the window,
// newest first, and returns at most PageSize records not already
// held. Individual day failures are logged and skipped so the caller
// sees whatever subset succeeded; only a calendar failure aborts.
func (aggregator *Aggregator) fetchWindow(ctx context.Context, mpID, windowDays int, have map[sejm.VoteKey]bool) ([]sejm.VoteRecord, error) {
	proceedings, err := aggregator.calendar.Proceedings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load sitting calendar: %w", err)
	}

	now := aggregator.now()
	days := sejm.SittingDatesWithin(proceedings, now.AddDate(0, 0, -windowDays), now)

	var fetched []sejm.VoteRecord
	for _, day := range days {
		records, err := aggregator.source.FetchMPVotes(ctx, mpID, day.Sitting, day.Date)
		if err != nil {
			aggregator.logger.Printf("skipping votes for MP %d, sitting %d on %s: %v",
				mpID, day.Sitting, day.Date.Format("2006-01-02"), err)
			continue
		}
		fetched = append(fetched, records...)
	}
	sortVotes(fetched)

	seen := make(map[sejm.VoteKey]bool)
	fresh := make([]sejm.VoteRecord, 0, PageSize)
	for _, record := range fetched {
		key := record.Key()
		if have[key] || seen[key] {
			continue
		}
		seen[key] = true
		fresh = append(fresh, record)
		if len(fresh) == PageSize {
			break
		}
	}
	return fresh, nil
}

// sortVotes orders records by date descending, tie-broken by voting
// number descending.
func sortVotes(votes []sejm.VoteRecord) {
	sort.SliceStable(votes, func(i, j int) bool {
		if !votes[i].Date.Equal(votes[j].Date) {
			return votes[i].Date.After(votes[j].Date)
		}
		return votes[i].VotingNumber > votes[j].VotingNumber
	})
}
