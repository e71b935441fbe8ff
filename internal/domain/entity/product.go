package entity

import (
	"time"
)

type Product struct {
	ID                 string                 `json:"id" firestore:"id"`
	SellerID           string                 `json:"sellerId,omitempty" firestore:"sellerId,omitempty"`
	Title              string                 `json:"title" firestore:"title"`
	Price              float64                `json:"price" firestore:"price"`
	DiscountPercentage float64                `json:"discountPercentage" firestore:"discountPercentage"`
	Stock              *int                   `json:"stock,omitempty" firestore:"stock,omitempty"`
	Brand              string                 `json:"brand" firestore:"brand"`
	Type               string                 `json:"type" firestore:"type"`
	Condition          string                 `json:"condition" firestore:"condition"`
	UsedDuration       string                 `json:"usedDuration,omitempty" firestore:"usedDuration,omitempty"`
	DynamicValues      map[string]interface{} `json:"dynamicValues,omitempty" firestore:"dynamicValues,omitempty"`
	Description        string                 `json:"description" firestore:"description"`
	ImageURL           string                 `json:"imageUrl" firestore:"imageUrl"`
	CreatedAt          time.Time              `json:"createdAt" firestore:"createdAt"`
	UpdatedAt          time.Time              `json:"updatedAt" firestore:"updatedAt"`
}

const ConditionUsed = "Used"

// InStock treats an undefined stock as available.
func (p *Product) InStock() bool {
	return p.Stock == nil || *p.Stock > 0
}
