package series

import (
	"fmt"
	"time"
)

// Range is an inclusive span of UTC calendar dates bucketed at Granularity.
type Range struct {
	Start       time.Time
	End         time.Time
	Granularity Granularity
}

// NewRange truncates start and end to their UTC dates and validates the span.
func NewRange(start, end time.Time, g Granularity) (Range, error) {
	if !g.Valid() {
		return Range{}, fmt.Errorf("%w: %q", ErrUnknownGranularity, g)
	}
	r := Range{Start: Date(start), End: Date(end), Granularity: g}
	if r.Start.After(r.End) {
		return Range{}, fmt.Errorf("%w: %s > %s", ErrInvalidRange, r.Start.Format(dateLayout), r.End.Format(dateLayout))
	}
	return r, nil
}

// Periods enumerates every bucket the range touches, in chronological order.
// Weekly and monthly buckets are whole: a range starting on a Wednesday still
// yields the full Monday to Sunday week.
func (r Range) Periods() []Period {
	end := Date(r.End)
	var (
		out []Period
		cur = PeriodOf(r.Start, r.Granularity)
	)
	for !cur.Start.After(end) {
		out = append(out, cur)
		switch r.Granularity {
		case Weekly:
			cur = PeriodOf(cur.Start.AddDate(0, 0, 7), Weekly)
		case Monthly:
			cur = PeriodOf(cur.Start.AddDate(0, 1, 0), Monthly)
		default:
			cur = PeriodOf(cur.Start.AddDate(0, 0, 1), Daily)
		}
	}
	return out
}

// Bounds returns the half-open instant interval [from, to) covering the
// requested dates. Stores filter raw events with it.
func (r Range) Bounds() (from, to time.Time) {
	return Date(r.Start), Date(r.End).AddDate(0, 0, 1)
}

func (r Range) String() string {
	return fmt.Sprintf("%s..%s/%s", r.Start.Format(dateLayout), r.End.Format(dateLayout), r.Granularity)
}
