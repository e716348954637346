package lending

import (
	"context"
	"sort"
	"time"

	"lendhub/internal/domain"
)

// Ledger derives committed capacity from the approved-request set. Nothing
// is cached: every query re-reads the approved requests, so the answer can
// never drift from storage.
type Ledger struct {
	requests RequestRepository
}

func NewLedger(requests RequestRepository) *Ledger {
	return &Ledger{requests: requests}
}

type capacityEvent struct {
	day   time.Time
	delta int
}

// PeakOverlap returns the maximum number of units simultaneously committed
// on any single day within [start, end] by approved, unreturned requests
// for the equipment.
//
// Sweep-line over day boundaries: each approved request contributes +1 on
// its start day and -1 on the day after its end day. Intervals are clamped
// to the queried window first, so the running maximum over the events is
// the peak within the window. On equal days decrements are applied before
// increments: a unit returning the day another borrow begins frees its
// capacity first.
func (l *Ledger) PeakOverlap(ctx context.Context, equipmentID int64, start, end time.Time) (int, error) {
	approved, err := l.requests.ListApprovedForEquipment(ctx, equipmentID)
	if err != nil {
		return 0, err
	}

	start = domain.Day(start)
	end = domain.Day(end)

	events := make([]capacityEvent, 0, 2*len(approved))
	for _, req := range approved {
		s := domain.Day(req.StartDate)
		e := domain.Day(req.EndDate)

		if e.Before(start) || s.After(end) {
			continue
		}
		if s.Before(start) {
			s = start
		}
		if e.After(end) {
			e = end
		}

		events = append(events,
			capacityEvent{day: s, delta: +1},
			capacityEvent{day: e.AddDate(0, 0, 1), delta: -1},
		)
	}

	sort.Slice(events, func(i, j int) bool {
		if !events[i].day.Equal(events[j].day) {
			return events[i].day.Before(events[j].day)
		}
		return events[i].delta < events[j].delta
	})

	peak, current := 0, 0
	for _, ev := range events {
		current += ev.delta
		if current > peak {
			peak = current
		}
	}
	return peak, nil
}

// CanApprove reports whether committing one more unit over [start, end]
// stays within the equipment's quantity.
func (l *Ledger) CanApprove(ctx context.Context, e *domain.Equipment, start, end time.Time) (bool, error) {
	peak, err := l.PeakOverlap(ctx, e.ID, start, end)
	if err != nil {
		return false, err
	}
	return peak+1 <= e.Quantity, nil
}
