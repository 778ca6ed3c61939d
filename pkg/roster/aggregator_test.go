package roster

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"testing"
	"time"

	"github.com/civicteam/mandat/pkg/sejm"
)

var testNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

type fixedProceedings []sejm.Proceeding

func (fixed fixedProceedings) FetchProceedings(ctx context.Context) ([]sejm.Proceeding, error) {
	return fixed, nil
}

// fakeVotesSource serves canned vote lists keyed by sitting and day,
// with optional per-day failures and an optional gate to hold a fetch
// open.
type fakeVotesSource struct {
	votes  map[string][]sejm.VoteRecord
	failOn map[string]bool
	block  chan struct{}
}

func dayKey(sitting int, date time.Time) string {
	return fmt.Sprintf("%d|%s", sitting, date.Format("2006-01-02"))
}

func (fake *fakeVotesSource) FetchMPVotes(ctx context.Context, mpID, sitting int, date time.Time) ([]sejm.VoteRecord, error) {
	if fake.block != nil {
		<-fake.block
	}
	key := dayKey(sitting, date)
	if fake.failOn[key] {
		return nil, fmt.Errorf("day fetch failed")
	}
	return fake.votes[key], nil
}

func record(sitting, votingNumber int, date time.Time) sejm.VoteRecord {
	return sejm.VoteRecord{
		Topic:        fmt.Sprintf("Głosowanie %d/%d", sitting, votingNumber),
		Vote:         sejm.VoteYes,
		Date:         date,
		Sitting:      sitting,
		VotingNumber: votingNumber,
	}
}

// testCalendar holds sittings on 2026-05-20 (11), 2026-04-15 (10),
// and 2026-01-10 (2). The first two fall in the base 90-day window
// from testNow; the January one needs a widened window.
func testCalendar() *sejm.Calendar {
	return sejm.NewCalendar(fixedProceedings{
		{Number: 2, Dates: []string{"2026-01-10"}},
		{Number: 10, Dates: []string{"2026-04-15"}},
		{Number: 11, Dates: []string{"2026-05-20"}},
	})
}

func newTestAggregator(source VotesSource) *Aggregator {
	return NewAggregator(AggregatorConfig{
		Source:   source,
		Calendar: testCalendar(),
		Logger:   log.New(io.Discard, "", 0),
		Now:      func() time.Time { return testNow },
	})
}

func TestLoadVotes_PageCapAndOrdering(t *testing.T) {
	may := time.Date(2026, 5, 20, 0, 0, 0, 0, time.UTC)
	april := time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC)

	source := &fakeVotesSource{votes: map[string][]sejm.VoteRecord{}}
	for votingNumber := 1; votingNumber <= 9; votingNumber++ {
		key := dayKey(11, may)
		source.votes[key] = append(source.votes[key], record(11, votingNumber, may))
	}
	for votingNumber := 1; votingNumber <= 6; votingNumber++ {
		key := dayKey(10, april)
		source.votes[key] = append(source.votes[key], record(10, votingNumber, april))
	}

	aggregator := newTestAggregator(source)
	votes, err := aggregator.LoadVotes(context.Background(), 123)
	if err != nil {
		t.Fatalf("LoadVotes failed: %v", err)
	}

	if len(votes) != PageSize {
		t.Fatalf("got %d records, want the %d-record page cap", len(votes), PageSize)
	}
	for i := 1; i < len(votes); i++ {
		previous, current := votes[i-1], votes[i]
		if current.Date.After(previous.Date) {
			t.Errorf("records not date-descending at %d: %v then %v", i, previous.Date, current.Date)
		}
		if current.Date.Equal(previous.Date) && current.VotingNumber > previous.VotingNumber {
			t.Errorf("tie not votingNumber-descending at %d", i)
		}
	}
	// Newest day first, highest voting number first.
	if votes[0].Sitting != 11 || votes[0].VotingNumber != 9 {
		t.Errorf("first record = sitting %d voting %d, want 11/9", votes[0].Sitting, votes[0].VotingNumber)
	}

	state := aggregator.State(123)
	if !state.LoadedOnce || state.WindowDays != BaseWindowDays {
		t.Errorf("state = %+v, want loadedOnce at base window", state)
	}
}

func TestLoadVotes_Deduplication(t *testing.T) {
	may := time.Date(2026, 5, 20, 0, 0, 0, 0, time.UTC)
	source := &fakeVotesSource{votes: map[string][]sejm.VoteRecord{
		dayKey(11, may): {
			record(11, 12, may),
			record(11, 12, may), // duplicate within one response
			record(11, 13, may),
		},
	}}

	aggregator := newTestAggregator(source)
	votes, err := aggregator.LoadVotes(context.Background(), 7)
	if err != nil {
		t.Fatalf("LoadVotes failed: %v", err)
	}
	if len(votes) != 2 {
		t.Fatalf("got %d records, want 2 after dedup: %+v", len(votes), votes)
	}

	// A repeat load re-fetches the same keys; the history must not
	// grow.
	votes, err = aggregator.LoadVotes(context.Background(), 7)
	if err != nil {
		t.Fatalf("repeat LoadVotes failed: %v", err)
	}
	if len(votes) != 2 {
		t.Errorf("repeat load grew history to %d records, want 2", len(votes))
	}

	keys := make(map[sejm.VoteKey]int)
	for _, vote := range votes {
		keys[vote.Key()]++
	}
	for key, count := range keys {
		if count != 1 {
			t.Errorf("key %+v appears %d times, want 1", key, count)
		}
	}
}

func TestLoadMore_WidensWindowAndMerges(t *testing.T) {
	may := time.Date(2026, 5, 20, 0, 0, 0, 0, time.UTC)
	january := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	source := &fakeVotesSource{votes: map[string][]sejm.VoteRecord{
		dayKey(11, may):    {record(11, 1, may)},
		dayKey(2, january): {record(2, 4, january), record(2, 5, january)},
	}}

	aggregator := newTestAggregator(source)
	votes, err := aggregator.LoadVotes(context.Background(), 9)
	if err != nil {
		t.Fatalf("LoadVotes failed: %v", err)
	}
	if len(votes) != 1 {
		t.Fatalf("base window got %d records, want 1 (January outside 90 days)", len(votes))
	}

	votes, err = aggregator.LoadMore(context.Background(), 9)
	if err != nil {
		t.Fatalf("LoadMore failed: %v", err)
	}
	if len(votes) != 3 {
		t.Fatalf("widened window got %d records, want 3", len(votes))
	}
	if state := aggregator.State(9); state.WindowDays != BaseWindowDays+WindowStepDays {
		t.Errorf("window = %d, want %d", state.WindowDays, BaseWindowDays+WindowStepDays)
	}
	// Merged list stays ordered: May record first, then January 5, 4.
	if votes[0].Sitting != 11 || votes[1].VotingNumber != 5 || votes[2].VotingNumber != 4 {
		t.Errorf("merged order wrong: %+v", votes)
	}
}

func TestLoadMore_WindowCeiling(t *testing.T) {
	source := &fakeVotesSource{}
	aggregator := newTestAggregator(source)

	for i := 0; i < 6; i++ {
		if _, err := aggregator.LoadMore(context.Background(), 1); err != nil {
			t.Fatalf("LoadMore %d failed: %v", i, err)
		}
	}
	if state := aggregator.State(1); state.WindowDays != MaxWindowDays {
		t.Errorf("window = %d, want ceiling %d", state.WindowDays, MaxWindowDays)
	}
}

func TestLoadVotes_PerDayFailuresAreBestEffort(t *testing.T) {
	may := time.Date(2026, 5, 20, 0, 0, 0, 0, time.UTC)
	april := time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC)
	source := &fakeVotesSource{
		votes:  map[string][]sejm.VoteRecord{dayKey(10, april): {record(10, 2, april)}},
		failOn: map[string]bool{dayKey(11, may): true},
	}

	aggregator := newTestAggregator(source)
	votes, err := aggregator.LoadVotes(context.Background(), 55)
	if err != nil {
		t.Fatalf("per-day failure must not abort the load: %v", err)
	}
	if len(votes) != 1 || votes[0].Sitting != 10 {
		t.Errorf("got %+v, want the surviving April record", votes)
	}
}

func TestLoadVotes_SingleFlightPerRepresentative(t *testing.T) {
	may := time.Date(2026, 5, 20, 0, 0, 0, 0, time.UTC)
	gate := make(chan struct{})
	source := &fakeVotesSource{
		votes: map[string][]sejm.VoteRecord{dayKey(11, may): {record(11, 1, may)}},
		block: gate,
	}

	aggregator := newTestAggregator(source)

	done := make(chan error, 1)
	go func() {
		_, err := aggregator.LoadVotes(context.Background(), 42)
		done <- err
	}()

	// Wait for the first load to mark itself in flight.
	deadline := time.After(2 * time.Second)
	for {
		if aggregator.State(42).Loading {
			break
		}
		select {
		case <-deadline:
			t.Fatal("first load never started")
		case <-time.After(time.Millisecond):
		}
	}

	if _, err := aggregator.LoadVotes(context.Background(), 42); !errors.Is(err, ErrLoadInProgress) {
		t.Errorf("concurrent load got %v, want ErrLoadInProgress", err)
	}
	// A different representative is not blocked.
	go func() {
		if _, err := aggregator.LoadVotes(context.Background(), 43); err != nil && !errors.Is(err, ErrLoadInProgress) {
			t.Errorf("other representative load failed: %v", err)
		}
	}()

	close(gate)
	if err := <-done; err != nil {
		t.Fatalf("first load failed: %v", err)
	}
	if aggregator.State(42).Loading {
		t.Error("loading flag not cleared after completion")
	}
}
