package series

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestPeriodOf_ISOWeeks(t *testing.T) {
	tests := []struct {
		date      string
		wantKey   string
		wantStart string
		wantEnd   string
	}{
		{"2023-01-02", "2023-W01", "2023-01-02", "2023-01-08"},
		{"2023-01-01", "2022-W52", "2022-12-26", "2023-01-01"},
		{"2020-12-31", "2020-W53", "2020-12-28", "2021-01-03"},
		{"2021-01-03", "2020-W53", "2020-12-28", "2021-01-03"},
		{"2024-12-30", "2025-W01", "2024-12-30", "2025-01-05"},
		{"2025-05-07", "2025-W19", "2025-05-05", "2025-05-11"},
	}

	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			p := PeriodOf(day(tt.date), Weekly)
			assert.Equal(t, tt.wantKey, p.Key)
			assert.Equal(t, tt.wantStart, p.Start.Format(dateLayout))
			assert.Equal(t, tt.wantEnd, p.End.Format(dateLayout))
			assert.Equal(t, time.Monday, p.Start.Weekday())
		})
	}
}

func TestPeriodOf_MonthEnds(t *testing.T) {
	tests := []struct {
		date    string
		wantKey string
		wantEnd string
	}{
		{"2023-02-14", "2023-02", "2023-02-28"},
		{"2024-02-01", "2024-02", "2024-02-29"},
		{"2023-01-31", "2023-01", "2023-01-31"},
		{"2023-04-30", "2023-04", "2023-04-30"},
		{"2023-12-05", "2023-12", "2023-12-31"},
	}

	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			p := PeriodOf(day(tt.date), Monthly)
			assert.Equal(t, tt.wantKey, p.Key)
			assert.Equal(t, 1, p.Start.Day())
			assert.Equal(t, tt.wantEnd, p.End.Format(dateLayout))
		})
	}
}

func TestPeriodOf_UsesUTCDate(t *testing.T) {
	// 23:30 on Jan 1st in UTC-5 is already Jan 2nd in UTC.
	loc := time.FixedZone("EST", -5*60*60)
	local := time.Date(2023, 1, 1, 23, 30, 0, 0, loc)

	assert.Equal(t, "2023-01-02", KeyOf(local, Daily))
	assert.Equal(t, "2023-W01", KeyOf(local, Weekly))
}

func TestPeriod_Label(t *testing.T) {
	assert.Equal(t, "2023-01-05", PeriodOf(day("2023-01-05"), Daily).Label())
	assert.Equal(t, "2023-W01 (2023-01-02 to 2023-01-08)", PeriodOf(day("2023-01-05"), Weekly).Label())
	assert.Equal(t, "2023-01 (2023-01-01 to 2023-01-31)", PeriodOf(day("2023-01-05"), Monthly).Label())
}

func TestParseKey(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		g       Granularity
		wantErr bool
	}{
		{"daily", "2023-01-05", Daily, false},
		{"daily invalid day", "2023-02-30", Daily, true},
		{"daily wrong shape", "05-01-2023", Daily, true},
		{"weekly", "2023-W01", Weekly, false},
		{"weekly 53 in long year", "2020-W53", Weekly, false},
		{"weekly 53 in short year", "2023-W53", Weekly, true},
		{"weekly unpadded", "2023-W1", Weekly, true},
		{"weekly zero", "2023-W00", Weekly, true},
		{"weekly legacy", "Week 1-2023", Weekly, true},
		{"monthly", "2023-12", Monthly, false},
		{"monthly thirteen", "2023-13", Monthly, true},
		{"monthly with day", "2023-12-01", Monthly, true},
		{"empty", "", Daily, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ParseKey(tt.key, tt.g)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrMalformedKey))

				var keyErr *KeyError
				require.ErrorAs(t, err, &keyErr)
				assert.Equal(t, tt.key, keyErr.Key)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.key, p.Key)
		})
	}
}

func TestParseGranularity(t *testing.T) {
	g, err := ParseGranularity(" Weekly ")
	require.NoError(t, err)
	assert.Equal(t, Weekly, g)

	_, err = ParseGranularity("hourly")
	assert.ErrorIs(t, err, ErrUnknownGranularity)
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2023-01-05")
	require.NoError(t, err)
	assert.Equal(t, day("2023-01-05"), d)

	d, err = ParseDate("2023-01-05T18:22:00.000Z")
	require.NoError(t, err)
	assert.Equal(t, day("2023-01-05"), d)

	_, err = ParseDate("05/01/2023")
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestNewRange(t *testing.T) {
	r, err := NewRange(day("2023-01-01").Add(15*time.Hour), day("2023-01-03"), Daily)
	require.NoError(t, err)
	assert.Equal(t, day("2023-01-01"), r.Start)

	_, err = NewRange(day("2023-01-04"), day("2023-01-03"), Daily)
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = NewRange(day("2023-01-01"), day("2023-01-03"), Granularity("yearly"))
	assert.ErrorIs(t, err, ErrUnknownGranularity)
}

func TestRange_Bounds(t *testing.T) {
	r, err := NewRange(day("2023-01-01"), day("2023-01-31"), Monthly)
	require.NoError(t, err)

	from, to := r.Bounds()
	assert.Equal(t, day("2023-01-01"), from)
	assert.Equal(t, day("2023-02-01"), to)
}
