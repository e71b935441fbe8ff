package service

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/domain/entity"
)

func reviewsWith(ratings ...int) []entity.Review {
	out := make([]entity.Review, 0, len(ratings))
	for _, r := range ratings {
		out = append(out, entity.Review{Rating: r})
	}
	return out
}

func TestAverageRatingEmpty(t *testing.T) {
	assert.Equal(t, 0.0, AverageRating(nil))
	assert.Equal(t, "0.0", FormatAverage(AverageRating(nil)))
	assert.Equal(t, "0.0", Summarize([]entity.Review{}).Display)
}

func TestAverageRatingWithinBounds(t *testing.T) {
	sets := [][]int{{1}, {5}, {1, 5}, {2, 3, 4}, {5, 5, 5, 4}, {1, 1, 2}}

	for _, set := range sets {
		avg := AverageRating(reviewsWith(set...))
		assert.GreaterOrEqual(t, avg, 1.0)
		assert.LessOrEqual(t, avg, 5.0)
	}
}

func TestStarSlotsBoundaries(t *testing.T) {
	tests := []struct {
		avg               float64
		full, half, empty int
	}{
		{0, 0, 0, 5},
		{0.5, 0, 1, 4},
		{3.0, 3, 0, 2},
		{3.3, 3, 0, 2},
		{3.5, 3, 1, 1},
		{3.9, 3, 1, 1},
		{4.0, 4, 0, 1},
		{5.0, 5, 0, 0},
	}

	for _, tt := range tests {
		full, half, empty := CountStars(StarSlots(tt.avg))
		assert.Equal(t, tt.full, full, "full stars for %v", tt.avg)
		assert.Equal(t, tt.half, half, "half stars for %v", tt.avg)
		assert.Equal(t, tt.empty, empty, "empty stars for %v", tt.avg)
	}
}

func TestStarSlotsOrder(t *testing.T) {
	slots := StarSlots(3.5)

	assert.Equal(t, [MaxStars]Star{StarFull, StarFull, StarFull, StarHalf, StarEmpty}, slots)
}

func TestStarSlotsMonotonic(t *testing.T) {
	prev := StarSlots(0)
	for avg := 0.1; avg <= 5.0; avg += 0.1 {
		cur := StarSlots(avg)
		for i := range cur {
			assert.GreaterOrEqual(t, cur[i], prev[i], "slot %d regressed at %v", i+1, avg)
		}
		prev = cur
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(reviewsWith(3, 4))

	assert.Equal(t, 3.5, s.Average)
	assert.Equal(t, 2, s.SampleCount)
	assert.Equal(t, "3.5", s.Display)
	assert.Equal(t, StarHalf, s.Stars[3])
}

func TestFormatAverageRounds(t *testing.T) {
	assert.Equal(t, "4.3", FormatAverage(13.0/3.0))
	assert.Equal(t, "5.0", FormatAverage(5))

	ties := []struct {
		ratings []int
		want    string
	}{
		{[]int{1, 1, 1, 2}, "1.3"},
		{[]int{2, 2, 2, 3}, "2.3"},
		{[]int{3, 3, 3, 4}, "3.3"},
		{[]int{4, 4, 4, 5}, "4.3"},
		{[]int{1, 2, 2, 2}, "1.8"},
	}
	for _, tt := range ties {
		assert.Equal(t, tt.want, Summarize(reviewsWith(tt.ratings...)).Display, "ratings %v", tt.ratings)
	}
}

func TestRatingStars(t *testing.T) {
	assert.Equal(t, [MaxStars]bool{true, true, false, false, false}, RatingStars(2))
	assert.Equal(t, [MaxStars]bool{}, RatingStars(0))
}

func TestSummaryJSON(t *testing.T) {
	raw, err := json.Marshal(Summarize(reviewsWith(5)))
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"average": 5,
		"sampleCount": 1,
		"stars": ["full","full","full","full","full"],
		"display": "5.0"
	}`, string(raw))
}
