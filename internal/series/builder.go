package series

import "errors"

var ErrNegativeCount = errors.New("negative count")

// DataPoint is one sparse aggregate row: a canonical period key and the number
// of events in that period.
type DataPoint struct {
	Label string
	Count int64
}

// Point is one bucket of a dense series. Date is the display label.
type Point struct {
	Key   string `json:"-"`
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// Slot pairs an enumerated period with the value found for it, or the zero
// value of T when the sparse input had nothing for that period.
type Slot[T any] struct {
	Period Period
	Value  T
	Found  bool
}

// Collect indexes items by their canonical period key. Every key must parse
// for granularity g; the first one that does not aborts with a *KeyError.
// Later items win over earlier ones with the same key.
func Collect[T any](items []T, keyOf func(T) string, g Granularity) (map[string]T, error) {
	out := make(map[string]T, len(items))
	for _, item := range items {
		p, err := ParseKey(keyOf(item), g)
		if err != nil {
			return nil, err
		}
		out[p.Key] = item
	}
	return out, nil
}

// Fill walks every period of r and looks it up in values. Keys in values that
// fall outside r are ignored.
func Fill[T any](values map[string]T, r Range) []Slot[T] {
	periods := r.Periods()
	out := make([]Slot[T], 0, len(periods))
	for _, p := range periods {
		v, ok := values[p.Key]
		out = append(out, Slot[T]{Period: p, Value: v, Found: ok})
	}
	return out
}

// Build turns a sparse, unordered set of counts into a dense series over r.
// With cumulative set every count becomes the running total up to and
// including its period.
func Build(sparse []DataPoint, r Range, cumulative bool) ([]Point, error) {
	for _, dp := range sparse {
		if dp.Count < 0 {
			return nil, &KeyError{Key: dp.Label, Granularity: r.Granularity, Err: ErrNegativeCount}
		}
	}

	index, err := Collect(sparse, func(dp DataPoint) string { return dp.Label }, r.Granularity)
	if err != nil {
		return nil, err
	}

	slots := Fill(index, r)
	points := make([]Point, len(slots))
	for i, s := range slots {
		points[i] = Point{Key: s.Period.Key, Date: s.Period.Label(), Count: s.Value.Count}
	}

	if cumulative {
		return Accumulate(points), nil
	}
	return points, nil
}

// Accumulate returns a copy of points with running totals in place of the
// per-period counts. points must be in chronological order, which Build
// guarantees.
func Accumulate(points []Point) []Point {
	out := make([]Point, len(points))
	var running int64
	for i, p := range points {
		running += p.Count
		p.Count = running
		out[i] = p
	}
	return out
}

// Total sums the counts of a non-cumulative series.
func Total(points []Point) int64 {
	var sum int64
	for _, p := range points {
		sum += p.Count
	}
	return sum
}
