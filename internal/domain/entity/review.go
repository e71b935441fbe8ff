package entity

import (
	"time"
)

// Review is one user's star rating and comment on a product. It lives at
// reviews/{productId}/{id}; the store assigns the id on push.
type Review struct {
	ID          string          `json:"id,omitempty"`
	ProductID   string          `json:"productId,omitempty"`
	UserID      string          `json:"userId"`
	DisplayName string          `json:"displayName"`
	Rating      int             `json:"rating"` // 1-5
	Text        string          `json:"text"`
	CreatedAt   string          `json:"createdAt"` // RFC 3339
	LovedBy     map[string]bool `json:"lovedBy,omitempty"`
}

func (r *Review) CreatedTime() (time.Time, error) {
	return time.Parse(time.RFC3339Nano, r.CreatedAt)
}

// AggregateRating is derived from the current review collection and never stored.
type AggregateRating struct {
	Average     float64 `json:"average"`
	SampleCount int     `json:"sampleCount"`
}
