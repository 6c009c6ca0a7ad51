package series

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		label   string
		g       Granularity
		want    string
		wantErr bool
	}{
		{"canonical daily", "2025-05-07", Daily, "2025-05-07", false},
		{"day first daily", "07-05-2025", Daily, "2025-05-07", false},
		{"day first impossible", "31-02-2025", Daily, "", true},
		{"canonical weekly", "2025-W19", Weekly, "2025-W19", false},
		{"legacy dash", "Week 19-2025", Weekly, "2025-W19", false},
		{"legacy space", "Week 19 2025", Weekly, "2025-W19", false},
		{"legacy single digit", "Week 3-2023", Weekly, "2023-W03", false},
		{"unpadded", "2025-W9", Weekly, "2025-W09", false},
		{"weekly display label", "2025-W19 (2025-05-05 to 2025-05-11)", Weekly, "2025-W19", false},
		{"weekly bucket date", "2025-05-07", Weekly, "2025-W19", false},
		{"weekly out of range", "Week 60 2025", Weekly, "", true},
		{"canonical monthly", "2025-05", Monthly, "2025-05", false},
		{"month first", "05-2025", Monthly, "2025-05", false},
		{"monthly display label", "2025-05 (2025-05-01 to 2025-05-31)", Monthly, "2025-05", false},
		{"monthly bucket date", "2025-05-31", Monthly, "2025-05", false},
		{"garbage", "last tuesday", Monthly, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.label, tt.g)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMalformedKey)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeAll_FeedsBuild(t *testing.T) {
	raw := []DataPoint{{"Week 1-2023", 2}, {"2023-01-10", 5}}

	points, err := NormalizeAll(raw, Weekly)
	require.NoError(t, err)
	assert.Equal(t, "Week 1-2023", raw[0].Label)

	series, err := Build(points, mustRange(t, "2023-01-02", "2023-01-15", Weekly), false)
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 5}, counts(series))
}

func TestNormalizeAll_StopsOnFirstBadLabel(t *testing.T) {
	_, err := NormalizeAll([]DataPoint{{"2023-01", 1}, {"2023/02", 1}}, Monthly)

	var keyErr *KeyError
	require.ErrorAs(t, err, &keyErr)
	assert.Equal(t, "2023/02", keyErr.Key)
}
