package sejm

import (
	"context"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// ProceedingsSource is the slice of the API client the calendar
// needs.
type ProceedingsSource interface {
	FetchProceedings(ctx context.Context) ([]Proceeding, error)
}

// Calendar is a session-lifetime cache of the chamber's sitting
// calendar. It is populated lazily on first use; concurrent first
// reads coalesce into a single fetch. Invalidate empties it so the
// next read re-fetches.
type Calendar struct {
	source ProceedingsSource
	group  singleflight.Group

	mu          sync.RWMutex
	proceedings []Proceeding
	loaded      bool
}

// NewCalendar creates a calendar over the given source.
func NewCalendar(source ProceedingsSource) *Calendar {
	return &Calendar{source: source}
}

// Proceedings returns the cached calendar, fetching it on first use.
func (calendar *Calendar) Proceedings(ctx context.Context) ([]Proceeding, error) {
	calendar.mu.RLock()
	if calendar.loaded {
		cached := calendar.proceedings
		calendar.mu.RUnlock()
		return cached, nil
	}
	calendar.mu.RUnlock()

	result, err, _ := calendar.group.Do("proceedings", func() (interface{}, error) {
		// A concurrent caller may have populated the cache while this
		// call waited its turn.
		calendar.mu.RLock()
		if calendar.loaded {
			cached := calendar.proceedings
			calendar.mu.RUnlock()
			return cached, nil
		}
		calendar.mu.RUnlock()

		proceedings, err := calendar.source.FetchProceedings(ctx)
		if err != nil {
			return nil, err
		}
		calendar.mu.Lock()
		calendar.proceedings = proceedings
		calendar.loaded = true
		calendar.mu.Unlock()
		return proceedings, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]Proceeding), nil
}

// Invalidate empties the cache. The next Proceedings call re-fetches.
func (calendar *Calendar) Invalidate() {
	calendar.mu.Lock()
	calendar.proceedings = nil
	calendar.loaded = false
	calendar.mu.Unlock()
}

// SittingDate is one dated day of one sitting.
type SittingDate struct {
	Sitting int
	Date    time.Time
}

// SittingDatesWithin flattens a calendar into the sitting days that
// fall inside [from, to], newest first. Malformed dates are skipped.
func SittingDatesWithin(proceedings []Proceeding, from, to time.Time) []SittingDate {
	var days []SittingDate
	for _, proceeding := range proceedings {
		for _, raw := range proceeding.Dates {
			date, err := time.Parse("2006-01-02", raw)
			if err != nil {
				continue
			}
			if date.Before(from) || date.After(to) {
				continue
			}
			days = append(days, SittingDate{Sitting: proceeding.Number, Date: date})
		}
	}
	sort.Slice(days, func(i, j int) bool {
		if !days[i].Date.Equal(days[j].Date) {
			return days[i].Date.After(days[j].Date)
		}
		return days[i].Sitting > days[j].Sitting
	})
	return days
}
