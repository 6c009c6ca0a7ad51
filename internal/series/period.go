package series

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Granularity is the size of a single bucket in a series.
type Granularity string

const (
	Daily   Granularity = "daily"
	Weekly  Granularity = "weekly"
	Monthly Granularity = "monthly"
)

const dateLayout = "2006-01-02"

var (
	ErrUnknownGranularity = errors.New("unknown granularity")
	ErrInvalidRange       = errors.New("start date is after end date")
	ErrInvalidDate        = errors.New("invalid date")
	ErrMalformedKey       = errors.New("malformed period key")
)

// ParseGranularity accepts "daily", "weekly" or "monthly" (case-insensitive).
func ParseGranularity(s string) (Granularity, error) {
	g := Granularity(strings.ToLower(strings.TrimSpace(s)))
	if !g.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownGranularity, s)
	}
	return g, nil
}

func (g Granularity) Valid() bool {
	switch g {
	case Daily, Weekly, Monthly:
		return true
	}
	return false
}

// Period is one bucket: its canonical key and the first and last calendar
// day it covers.
type Period struct {
	Key         string
	Granularity Granularity
	Start       time.Time
	End         time.Time
}

// Label is the display form. Daily buckets show the bare key, weekly and
// monthly buckets append the covered dates.
func (p Period) Label() string {
	if p.Granularity == Daily {
		return p.Key
	}
	return fmt.Sprintf("%s (%s to %s)", p.Key, p.Start.Format(dateLayout), p.End.Format(dateLayout))
}

// Date truncates t to midnight UTC of its UTC calendar day.
func Date(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate reads a YYYY-MM-DD date. An RFC 3339 timestamp is accepted too and
// only its date part is kept.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, 'T'); i != -1 {
		s = s[:i]
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t, nil
}

// PeriodOf returns the bucket of granularity g containing the UTC date of t.
func PeriodOf(t time.Time, g Granularity) Period {
	d := Date(t)
	switch g {
	case Weekly:
		start := isoMonday(d)
		year, week := start.ISOWeek()
		return Period{
			Key:         weekKey(year, week),
			Granularity: Weekly,
			Start:       start,
			End:         start.AddDate(0, 0, 6),
		}
	case Monthly:
		start := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
		return Period{
			Key:         start.Format("2006-01"),
			Granularity: Monthly,
			Start:       start,
			End:         start.AddDate(0, 1, -1),
		}
	default:
		return Period{Key: d.Format(dateLayout), Granularity: Daily, Start: d, End: d}
	}
}

// KeyOf is shorthand for PeriodOf(t, g).Key.
func KeyOf(t time.Time, g Granularity) string {
	return PeriodOf(t, g).Key
}

// ParseKey parses a canonical key for granularity g. Anything that does not
// round-trip to the same key is rejected.
func ParseKey(key string, g Granularity) (Period, error) {
	var (
		t   time.Time
		err error
	)
	switch g {
	case Daily:
		t, err = time.Parse(dateLayout, key)
	case Monthly:
		t, err = time.Parse("2006-01", key)
	case Weekly:
		t, err = parseWeekKey(key)
	default:
		return Period{}, fmt.Errorf("%w: %q", ErrUnknownGranularity, g)
	}
	if err != nil {
		return Period{}, &KeyError{Key: key, Granularity: g, Err: ErrMalformedKey}
	}
	p := PeriodOf(t, g)
	if p.Key != key {
		return Period{}, &KeyError{Key: key, Granularity: g, Err: ErrMalformedKey}
	}
	return p, nil
}

// KeyError identifies a sparse data point whose key could not be used.
type KeyError struct {
	Key         string
	Granularity Granularity
	Err         error
}

func (e *KeyError) Error() string {
	return fmt.Sprintf("%v %q for %s series", e.Err, e.Key, e.Granularity)
}

func (e *KeyError) Unwrap() error {
	return e.Err
}

func weekKey(year, week int) string {
	return fmt.Sprintf("%04d-W%02d", year, week)
}

// parseWeekKey returns the Monday of ISO week YYYY-Www.
func parseWeekKey(key string) (time.Time, error) {
	if len(key) != 8 || key[4:6] != "-W" {
		return time.Time{}, ErrMalformedKey
	}
	year, err := strconv.Atoi(key[:4])
	if err != nil {
		return time.Time{}, err
	}
	week, err := strconv.Atoi(key[6:])
	if err != nil || week < 1 || week > 53 {
		return time.Time{}, ErrMalformedKey
	}
	return isoWeekStart(year, week), nil
}

// isoWeekStart is the Monday of the given ISO week. January 4th always falls
// in week 1.
func isoWeekStart(year, week int) time.Time {
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	return isoMonday(jan4).AddDate(0, 0, (week-1)*7)
}

func isoMonday(d time.Time) time.Time {
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}
