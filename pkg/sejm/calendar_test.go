package sejm

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// countingSource counts fetches and can be told to fail.
type countingSource struct {
	fetches     atomic.Int64
	proceedings []Proceeding
	fail        bool
}

func (source *countingSource) FetchProceedings(ctx context.Context) ([]Proceeding, error) {
	source.fetches.Add(1)
	if source.fail {
		return nil, fmt.Errorf("proceedings unavailable")
	}
	return source.proceedings, nil
}

func TestCalendar_LazyPopulationAndInvalidate(t *testing.T) {
	source := &countingSource{proceedings: []Proceeding{{Number: 1, Dates: []string{"2026-01-07"}}}}
	calendar := NewCalendar(source)

	for i := 0; i < 3; i++ {
		proceedings, err := calendar.Proceedings(context.Background())
		if err != nil {
			t.Fatalf("Proceedings failed: %v", err)
		}
		if len(proceedings) != 1 {
			t.Fatalf("got %d proceedings, want 1", len(proceedings))
		}
	}
	if fetches := source.fetches.Load(); fetches != 1 {
		t.Errorf("source fetched %d times, want 1", fetches)
	}

	calendar.Invalidate()
	if _, err := calendar.Proceedings(context.Background()); err != nil {
		t.Fatalf("Proceedings after Invalidate failed: %v", err)
	}
	if fetches := source.fetches.Load(); fetches != 2 {
		t.Errorf("source fetched %d times after invalidate, want 2", fetches)
	}
}

func TestCalendar_ConcurrentFirstReadsCoalesce(t *testing.T) {
	source := &countingSource{proceedings: []Proceeding{{Number: 7}}}
	calendar := NewCalendar(source)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := calendar.Proceedings(context.Background()); err != nil {
				t.Errorf("Proceedings failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if fetches := source.fetches.Load(); fetches != 1 {
		t.Errorf("concurrent first reads caused %d fetches, want 1", fetches)
	}
}

func TestCalendar_ErrorNotCached(t *testing.T) {
	source := &countingSource{fail: true}
	calendar := NewCalendar(source)

	if _, err := calendar.Proceedings(context.Background()); err == nil {
		t.Fatal("expected error from failing source")
	}

	source.fail = false
	source.proceedings = []Proceeding{{Number: 2}}
	proceedings, err := calendar.Proceedings(context.Background())
	if err != nil {
		t.Fatalf("Proceedings after recovery failed: %v", err)
	}
	if len(proceedings) != 1 {
		t.Errorf("got %d proceedings, want 1", len(proceedings))
	}
}

func TestSittingDatesWithin(t *testing.T) {
	proceedings := []Proceeding{
		{Number: 3, Dates: []string{"2026-01-07", "2026-01-08", "not-a-date"}},
		{Number: 4, Dates: []string{"2026-02-11", "2026-02-12"}},
		{Number: 5, Dates: []string{"2026-06-01"}},
	}

	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	days := SittingDatesWithin(proceedings, from, to)

	if len(days) != 4 {
		t.Fatalf("got %d days, want 4 (out-of-window and malformed skipped): %v", len(days), days)
	}
	for i := 1; i < len(days); i++ {
		if days[i].Date.After(days[i-1].Date) {
			t.Errorf("days not sorted newest first: %v before %v", days[i-1], days[i])
		}
	}
	if days[0].Sitting != 4 || days[0].Date.Day() != 12 {
		t.Errorf("newest day = %+v, want sitting 4 on the 12th", days[0])
	}
}
