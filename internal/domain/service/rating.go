package service

import (
	"fmt"
	"math"
	"strconv"

	"storefront/internal/domain/entity"
)

// MaxStars is the number of slots in every star row.
const MaxStars = 5

type Star int

const (
	StarEmpty Star = iota
	StarHalf
	StarFull
)

func (s Star) String() string {
	switch s {
	case StarFull:
		return "full"
	case StarHalf:
		return "half"
	default:
		return "empty"
	}
}

func (s Star) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Star) UnmarshalText(text []byte) error {
	switch string(text) {
	case "full":
		*s = StarFull
	case "half":
		*s = StarHalf
	case "empty":
		*s = StarEmpty
	default:
		return fmt.Errorf("unknown star %q", text)
	}
	return nil
}

// AverageRating is the arithmetic mean of the ratings, or 0 for no reviews.
func AverageRating(reviews []entity.Review) float64 {
	if len(reviews) == 0 {
		return 0
	}

	sum := 0
	for _, r := range reviews {
		sum += r.Rating
	}
	return float64(sum) / float64(len(reviews))
}

// StarSlots renders an average into five slots: slot i is full when
// avg >= i and half when avg >= i-0.5.
func StarSlots(avg float64) [MaxStars]Star {
	var slots [MaxStars]Star
	for i := range slots {
		n := float64(i + 1)
		switch {
		case avg >= n:
			slots[i] = StarFull
		case avg >= n-0.5:
			slots[i] = StarHalf
		default:
			slots[i] = StarEmpty
		}
	}
	return slots
}

// RatingStars is the filled/unfilled row shown next to a single review.
func RatingStars(rating int) [MaxStars]bool {
	var slots [MaxStars]bool
	for i := range slots {
		slots[i] = i+1 <= rating
	}
	return slots
}

// FormatAverage renders one decimal place, ties rounded up (2.25 reads
// "2.3"); no reviews reads "0.0".
func FormatAverage(avg float64) string {
	if avg == 0 {
		return "0.0"
	}
	return strconv.FormatFloat(math.Floor(avg*10+0.5)/10, 'f', 1, 64)
}

func Aggregate(reviews []entity.Review) entity.AggregateRating {
	return entity.AggregateRating{
		Average:     AverageRating(reviews),
		SampleCount: len(reviews),
	}
}

// RatingSummary bundles everything a rating badge needs.
type RatingSummary struct {
	entity.AggregateRating
	Stars   [MaxStars]Star `json:"stars"`
	Display string         `json:"display"`
}

func Summarize(reviews []entity.Review) RatingSummary {
	agg := Aggregate(reviews)
	return RatingSummary{
		AggregateRating: agg,
		Stars:           StarSlots(agg.Average),
		Display:         FormatAverage(agg.Average),
	}
}

// CountStars tallies full, half and empty slots.
func CountStars(slots [MaxStars]Star) (full, half, empty int) {
	for _, s := range slots {
		switch s {
		case StarFull:
			full++
		case StarHalf:
			half++
		default:
			empty++
		}
	}
	return full, half, empty
}
