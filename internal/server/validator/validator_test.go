package validator

import (
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Interval  string `form:"interval" binding:"omitempty,oneof=daily weekly monthly"`
	StartDate string `form:"startDate" binding:"omitempty,isodate"`
	Limit     int    `form:"limit" binding:"omitempty,min=1,max=10"`
}

func TestParseValidationError(t *testing.T) {
	InitValidator()

	err := binding.Validator.ValidateStruct(&sample{Interval: "hourly", StartDate: "01/02/2023", Limit: 11})
	require.Error(t, err)

	fields := ParseValidationError(err)
	assert.Equal(t, "must be one of [daily, weekly, monthly]", fields["interval"])
	assert.Equal(t, "startDate must be a date in YYYY-MM-DD format", fields["startDate"])
	assert.Contains(t, fields["limit"], "10")
}

func TestIsoDateAcceptsTimestamps(t *testing.T) {
	InitValidator()

	assert.NoError(t, binding.Validator.ValidateStruct(&sample{StartDate: "2023-01-02"}))
	assert.NoError(t, binding.Validator.ValidateStruct(&sample{StartDate: "2023-01-02T10:00:00Z"}))
}

func TestParseValidationError_NonValidation(t *testing.T) {
	fields := ParseValidationError(assert.AnError)
	assert.Contains(t, fields["query"], "Malformed query parameters")
}
