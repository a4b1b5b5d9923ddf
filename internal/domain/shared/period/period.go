package period

import (
	"time"

	"github.com/ezoooooooooo/rentalWebsiteBack-end/internal/domain/shared/errs"
)

var ErrInvalidPeriod = errs.Validation("period: start date must not be after end date")

// Period is a closed interval [Start, End]; both bounds belong to the rental.
type Period struct {
	Start time.Time
	End   time.Time
}

func New(start, end time.Time) (Period, error) {
	p := Period{Start: start.UTC(), End: end.UTC()}
	if err := p.Validate(); err != nil {
		return Period{}, err
	}
	return p, nil
}

// ForDays starts at start and spans the given number of days.
func ForDays(start time.Time, days int) Period {
	if days < 1 {
		days = 1
	}
	start = start.UTC()
	return Period{Start: start, End: start.AddDate(0, 0, days)}
}

func (p Period) Validate() error {
	if p.Start.IsZero() || p.End.IsZero() {
		return ErrInvalidPeriod
	}
	if p.Start.After(p.End) {
		return ErrInvalidPeriod
	}
	return nil
}

// Overlaps reports inclusive overlap: s1 <= e2 && e1 >= s2.
func (p Period) Overlaps(other Period) bool {
	return !p.Start.After(other.End) && !p.End.Before(other.Start)
}

func (p Period) Contains(t time.Time) bool {
	t = t.UTC()
	return !t.Before(p.Start) && !t.After(p.End)
}

// Days counts started days between the bounds, never less than one.
func (p Period) Days() int {
	d := int(p.End.Sub(p.Start).Hours() / 24)
	if p.End.Sub(p.Start) > time.Duration(d)*24*time.Hour {
		d++
	}
	if d < 1 {
		return 1
	}
	return d
}
