package universe

import (
	"fmt"
	"time"

	"github.com/aristath/frontier/internal/domain"
)

// DateLayout is the calendar date format accepted at the caller boundary.
const DateLayout = "2006-01-02"

// DateRange is an inclusive range of calendar days, both ends at UTC midnight.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// ParseDateRange builds a range from two YYYY-MM-DD strings.
func ParseDateRange(start, end string) (DateRange, error) {
	s, err := time.Parse(DateLayout, start)
	if err != nil {
		return DateRange{}, fmt.Errorf("%w: invalid start date %q", domain.ErrConfiguration, start)
	}
	e, err := time.Parse(DateLayout, end)
	if err != nil {
		return DateRange{}, fmt.Errorf("%w: invalid end date %q", domain.ErrConfiguration, end)
	}
	return DateRange{Start: s, End: e}, nil
}

// DefaultRange returns the range ending today and starting lookbackDays earlier.
func DefaultRange(now time.Time, lookbackDays int) DateRange {
	end := truncateDay(now)
	return DateRange{
		Start: end.AddDate(0, 0, -lookbackDays),
		End:   end,
	}
}

// Validate rejects unset, inverted and future-dated ranges.
func (r DateRange) Validate(now time.Time) error {
	if r.Start.IsZero() || r.End.IsZero() {
		return fmt.Errorf("%w: date range must have both start and end", domain.ErrConfiguration)
	}
	if !r.Start.Before(r.End) {
		return fmt.Errorf("%w: start %s must be before end %s", domain.ErrConfiguration,
			r.Start.Format(DateLayout), r.End.Format(DateLayout))
	}
	if r.End.After(truncateDay(now)) {
		return fmt.Errorf("%w: end %s is in the future", domain.ErrConfiguration, r.End.Format(DateLayout))
	}
	return nil
}

func (r DateRange) String() string {
	return r.Start.Format(DateLayout) + ".." + r.End.Format(DateLayout)
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
