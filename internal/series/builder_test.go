package series

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustRange(t *testing.T, start, end string, g Granularity) Range {
	t.Helper()
	r, err := NewRange(day(start), day(end), g)
	require.NoError(t, err)
	return r
}

func counts(points []Point) []int64 {
	out := make([]int64, len(points))
	for i, p := range points {
		out[i] = p.Count
	}
	return out
}

func dates(points []Point) []string {
	out := make([]string, len(points))
	for i, p := range points {
		out[i] = p.Date
	}
	return out
}

func TestBuild_DailyGapFill(t *testing.T) {
	sparse := []DataPoint{{"2023-01-01", 5}, {"2023-01-03", 3}}
	r := mustRange(t, "2023-01-01", "2023-01-03", Daily)

	points, err := Build(sparse, r, false)
	require.NoError(t, err)

	assert.Equal(t, []string{"2023-01-01", "2023-01-02", "2023-01-03"}, dates(points))
	assert.Equal(t, []int64{5, 0, 3}, counts(points))
	assert.EqualValues(t, 8, Total(points))
}

func TestBuild_DailyCumulative(t *testing.T) {
	sparse := []DataPoint{{"2023-01-03", 3}, {"2023-01-01", 5}}
	r := mustRange(t, "2023-01-01", "2023-01-03", Daily)

	points, err := Build(sparse, r, true)
	require.NoError(t, err)

	assert.Equal(t, []int64{5, 5, 8}, counts(points))
}

func TestBuild_MonthlyCumulative(t *testing.T) {
	sparse := []DataPoint{{"2023-03", 20}, {"2023-01", 10}, {"2023-02", 15}}
	r := mustRange(t, "2023-01-01", "2023-03-31", Monthly)

	points, err := Build(sparse, r, true)
	require.NoError(t, err)

	assert.Equal(t, []int64{10, 25, 45}, counts(points))
	assert.Equal(t, []string{
		"2023-01 (2023-01-01 to 2023-01-31)",
		"2023-02 (2023-02-01 to 2023-02-28)",
		"2023-03 (2023-03-01 to 2023-03-31)",
	}, dates(points))
}

func TestBuild_WeeklyAcrossYearBoundary(t *testing.T) {
	sparse := []DataPoint{{"2021-W01", 4}}
	r := mustRange(t, "2020-12-30", "2021-01-10", Weekly)

	points, err := Build(sparse, r, false)
	require.NoError(t, err)

	require.Len(t, points, 2)
	assert.Equal(t, "2020-W53 (2020-12-28 to 2021-01-03)", points[0].Date)
	assert.Equal(t, "2021-W01 (2021-01-04 to 2021-01-10)", points[1].Date)
	assert.Equal(t, []int64{0, 4}, counts(points))
}

func TestBuild_WeekStartsOnMonday(t *testing.T) {
	// Sunday then Monday: two distinct ISO weeks.
	r := mustRange(t, "2023-01-01", "2023-01-02", Weekly)

	points, err := Build(nil, r, false)
	require.NoError(t, err)

	require.Len(t, points, 2)
	assert.Equal(t, "2022-W52", points[0].Key)
	assert.Equal(t, "2023-W01", points[1].Key)
}

func TestBuild_SingleDayRange(t *testing.T) {
	for _, g := range []Granularity{Daily, Weekly, Monthly} {
		t.Run(string(g), func(t *testing.T) {
			points, err := Build(nil, mustRange(t, "2023-06-15", "2023-06-15", g), false)
			require.NoError(t, err)
			assert.Len(t, points, 1)
		})
	}
}

func TestBuild_EmptyInput(t *testing.T) {
	points, err := Build(nil, mustRange(t, "2023-01-01", "2023-01-31", Daily), true)
	require.NoError(t, err)

	assert.Len(t, points, 31)
	for _, p := range points {
		assert.Zero(t, p.Count)
	}
	assert.Zero(t, Total(points))
}

func TestBuild_DuplicateKeysLastWriteWins(t *testing.T) {
	sparse := []DataPoint{{"2023-01-01", 5}, {"2023-01-01", 7}}

	points, err := Build(sparse, mustRange(t, "2023-01-01", "2023-01-01", Daily), false)
	require.NoError(t, err)
	assert.Equal(t, []int64{7}, counts(points))
}

func TestBuild_IgnoresKeysOutsideRange(t *testing.T) {
	sparse := []DataPoint{{"2022-12-31", 100}, {"2023-01-02", 1}, {"2023-02-01", 100}}

	points, err := Build(sparse, mustRange(t, "2023-01-01", "2023-01-03", Daily), false)
	require.NoError(t, err)
	assert.Equal(t, []int64{0, 1, 0}, counts(points))
	assert.EqualValues(t, 1, Total(points))
}

func TestBuild_RejectsMalformedKey(t *testing.T) {
	sparse := []DataPoint{{"2023-W01", 5}, {"Week 2-2023", 3}}

	points, err := Build(sparse, mustRange(t, "2023-01-01", "2023-01-31", Weekly), false)
	assert.Nil(t, points)
	require.ErrorIs(t, err, ErrMalformedKey)
	assert.Contains(t, err.Error(), "Week 2-2023")
}

func TestBuild_RejectsNegativeCount(t *testing.T) {
	_, err := Build([]DataPoint{{"2023-01-01", -1}}, mustRange(t, "2023-01-01", "2023-01-01", Daily), false)
	assert.ErrorIs(t, err, ErrNegativeCount)
}

func TestBuild_IsPure(t *testing.T) {
	sparse := []DataPoint{{"2023-02", 2}, {"2023-01", 1}}
	snapshot := append([]DataPoint(nil), sparse...)
	r := mustRange(t, "2023-01-10", "2023-04-02", Monthly)

	first, err := Build(sparse, r, true)
	require.NoError(t, err)
	second, err := Build(sparse, r, true)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, snapshot, sparse)
}

func TestBuild_Density(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	base := day("2019-06-01")

	for i := 0; i < 200; i++ {
		start := base.AddDate(0, 0, rng.Intn(1500))
		end := start.AddDate(0, 0, rng.Intn(400))

		for _, g := range []Granularity{Daily, Weekly, Monthly} {
			r, err := NewRange(start, end, g)
			require.NoError(t, err)

			seen := map[string]bool{}
			for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
				seen[KeyOf(d, g)] = true
			}

			points, err := Build(nil, r, false)
			require.NoError(t, err)
			require.Len(t, points, len(seen), "%s", r)

			for j, p := range points {
				assert.True(t, seen[p.Key], "%s: unexpected period %s", r, p.Key)
				if j > 0 {
					assert.Less(t, points[j-1].Key, p.Key, "%s: out of order", r)
				}
			}
		}
	}
}

func TestAccumulate_MatchesPrefixSums(t *testing.T) {
	points := []Point{{Count: 3}, {Count: 0}, {Count: 4}, {Count: 1}}

	acc := Accumulate(points)

	var sum int64
	for i := range points {
		sum += points[i].Count
		assert.Equal(t, sum, acc[i].Count)
	}
	assert.EqualValues(t, 3, points[0].Count, "input must not change")
}

func TestFill_GenericValues(t *testing.T) {
	values := map[string][]string{"2023-W02": {"a", "b"}}
	r := mustRange(t, "2023-01-02", "2023-01-20", Weekly)

	slots := Fill(values, r)

	require.Len(t, slots, 3)
	assert.False(t, slots[0].Found)
	assert.Nil(t, slots[0].Value)
	assert.True(t, slots[1].Found)
	assert.Equal(t, []string{"a", "b"}, slots[1].Value)
	assert.Equal(t, time.Monday, slots[2].Period.Start.Weekday())
}

func TestCollect_ValidatesKeys(t *testing.T) {
	type row struct{ key string }

	index, err := Collect([]row{{"2023-01"}, {"2023-02"}}, func(r row) string { return r.key }, Monthly)
	require.NoError(t, err)
	assert.Len(t, index, 2)

	_, err = Collect([]row{{"01-2023"}}, func(r row) string { return r.key }, Monthly)
	assert.ErrorIs(t, err, ErrMalformedKey)
}
