package v1

import (
	"errors"
	"time"

	"github.com/nulzo/analytics-api/internal/series"
	"github.com/nulzo/analytics-api/pkg/api"
)

// DefaultWindowDays is how far back a request without startDate reaches.
const DefaultWindowDays = 30

// statsQuery is shared by every analytics route. range and period are older
// spellings of interval, start_date and end_date of startDate and endDate.
type statsQuery struct {
	Interval    string `form:"interval" binding:"omitempty,oneof=daily weekly monthly"`
	Range       string `form:"range" binding:"omitempty,oneof=daily weekly monthly"`
	Period      string `form:"period" binding:"omitempty,oneof=daily weekly monthly"`
	StartDate   string `form:"startDate" binding:"omitempty,isodate"`
	EndDate     string `form:"endDate" binding:"omitempty,isodate"`
	LegacyStart string `form:"start_date" binding:"omitempty,isodate"`
	LegacyEnd   string `form:"end_date" binding:"omitempty,isodate"`
	Cumulative  *bool  `form:"cumulative"`
	Limit       *int   `form:"limit" binding:"omitempty,min=1,max=10"`
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// resolve applies the defaults (daily, the last DefaultWindowDays days up
// to today) and builds the range.
func (q statsQuery) resolve(now time.Time) (series.Range, error) {
	g, err := series.ParseGranularity(firstNonEmpty(q.Interval, q.Range, q.Period, string(series.Daily)))
	if err != nil {
		return series.Range{}, api.ValidationError(map[string]string{"interval": err.Error()})
	}

	end := series.Date(now)
	if s := firstNonEmpty(q.EndDate, q.LegacyEnd); s != "" {
		if end, err = series.ParseDate(s); err != nil {
			return series.Range{}, api.ValidationError(map[string]string{"endDate": err.Error()})
		}
	}

	start := end.AddDate(0, 0, -DefaultWindowDays)
	if s := firstNonEmpty(q.StartDate, q.LegacyStart); s != "" {
		if start, err = series.ParseDate(s); err != nil {
			return series.Range{}, api.ValidationError(map[string]string{"startDate": err.Error()})
		}
	}

	r, err := series.NewRange(start, end, g)
	if errors.Is(err, series.ErrInvalidRange) {
		return series.Range{}, api.ValidationError(map[string]string{"startDate": "must not be after endDate"})
	}
	if err != nil {
		return series.Range{}, api.BadRequestError(err.Error())
	}
	return r, nil
}
