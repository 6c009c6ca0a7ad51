package series

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	displaySuffix = regexp.MustCompile(`^(\S+) \(\d{4}-\d{2}-\d{2} to \d{4}-\d{2}-\d{2}\)$`)
	legacyWeek    = regexp.MustCompile(`^Week\s+(\d{1,2})[-\s](\d{4})$`)
	looseWeek     = regexp.MustCompile(`^(\d{4})-W(\d{1,2})$`)
	dayFirstDate  = regexp.MustCompile(`^(\d{2})-(\d{2})-(\d{4})$`)
	monthFirst    = regexp.MustCompile(`^(\d{2})-(\d{4})$`)
)

// Normalize maps a period label produced by some aggregate source onto the
// canonical key for g. Accepted inputs, besides the canonical key itself:
//
//	display labels      "2025-W19 (2025-05-05 to 2025-05-11)"
//	legacy weeks        "Week 19-2025", "Week 19 2025", "2025-W9"
//	day-first dates     "05-05-2025" (daily)
//	month-first months  "05-2025" (monthly)
//	bucket dates        "2025-05-07" maps to the week or month containing it
//
// Normalize belongs at the edge where rows enter the service; Build only ever
// sees canonical keys.
func Normalize(label string, g Granularity) (string, error) {
	label = strings.TrimSpace(label)
	if m := displaySuffix.FindStringSubmatch(label); m != nil {
		label = m[1]
	}

	if p, err := ParseKey(label, g); err == nil {
		return p.Key, nil
	}

	switch g {
	case Weekly:
		if m := legacyWeek.FindStringSubmatch(label); m != nil {
			return weekFromParts(label, m[2], m[1])
		}
		if m := looseWeek.FindStringSubmatch(label); m != nil {
			return weekFromParts(label, m[1], m[2])
		}
		if t, err := time.Parse(dateLayout, label); err == nil {
			return KeyOf(t, Weekly), nil
		}
	case Monthly:
		if m := monthFirst.FindStringSubmatch(label); m != nil {
			if p, err := ParseKey(m[2]+"-"+m[1], Monthly); err == nil {
				return p.Key, nil
			}
		}
		if t, err := time.Parse(dateLayout, label); err == nil {
			return KeyOf(t, Monthly), nil
		}
	case Daily:
		if m := dayFirstDate.FindStringSubmatch(label); m != nil {
			if p, err := ParseKey(m[3]+"-"+m[2]+"-"+m[1], Daily); err == nil {
				return p.Key, nil
			}
		}
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownGranularity, g)
	}

	return "", &KeyError{Key: label, Granularity: g, Err: ErrMalformedKey}
}

// NormalizeAll rewrites every label of points to its canonical key. The input
// slice is left untouched.
func NormalizeAll(points []DataPoint, g Granularity) ([]DataPoint, error) {
	out := make([]DataPoint, len(points))
	for i, dp := range points {
		key, err := Normalize(dp.Label, g)
		if err != nil {
			return nil, err
		}
		out[i] = DataPoint{Label: key, Count: dp.Count}
	}
	return out, nil
}

func weekFromParts(label, yearStr, weekStr string) (string, error) {
	year, _ := strconv.Atoi(yearStr)
	week, _ := strconv.Atoi(weekStr)
	p, err := ParseKey(weekKey(year, week), Weekly)
	if err != nil {
		return "", &KeyError{Key: label, Granularity: Weekly, Err: ErrMalformedKey}
	}
	return p.Key, nil
}
