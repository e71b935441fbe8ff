package view

import (
	"fmt"
	"sort"
	"strconv"

	"storefront/internal/domain/entity"
	"storefront/internal/domain/service"
)

const (
	buyNowLabel     = "Buy now"
	outOfStockLabel = "Out of stock"
)

type Specification struct {
	Name  string      `json:"name"`
	Value interface{} `json:"value"`
}

// ProductDetails is a product with its display labels worked out.
type ProductDetails struct {
	ID                 string          `json:"id"`
	Title              string          `json:"title"`
	Price              float64         `json:"price"`
	DiscountPercentage float64         `json:"discountPercentage"`
	DiscountLabel      string          `json:"discountLabel,omitempty"`
	StockLabel         string          `json:"stockLabel,omitempty"`
	InStock            bool            `json:"inStock"`
	BuyLabel           string          `json:"buyLabel"`
	Brand              string          `json:"brand"`
	Type               string          `json:"type"`
	Condition          string          `json:"condition"`
	Age                string          `json:"age,omitempty"`
	Specifications     []Specification `json:"specifications,omitempty"`
	Description        string          `json:"description,omitempty"`
	ImageURL           string          `json:"imageUrl"`
}

func BuildDetails(p *entity.Product) ProductDetails {
	d := ProductDetails{
		ID:                 p.ID,
		Title:              p.Title,
		Price:              p.Price,
		DiscountPercentage: p.DiscountPercentage,
		InStock:            p.InStock(),
		Brand:              p.Brand,
		Type:               p.Type,
		Condition:          p.Condition,
		Description:        p.Description,
		ImageURL:           p.ImageURL,
		BuyLabel:           buyNowLabel,
	}

	if p.DiscountPercentage > 0 {
		d.DiscountLabel = formatNumber(p.DiscountPercentage) + "% OFF"
	}

	if p.Stock != nil {
		if *p.Stock > 0 {
			d.StockLabel = fmt.Sprintf("In Stock: %d", *p.Stock)
		} else {
			d.StockLabel = outOfStockLabel
		}
	}
	if !d.InStock {
		d.BuyLabel = outOfStockLabel
	}

	if p.Condition == entity.ConditionUsed && p.UsedDuration != "" {
		d.Age = p.UsedDuration
	}

	if len(p.DynamicValues) > 0 {
		names := make([]string, 0, len(p.DynamicValues))
		for name := range p.DynamicValues {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			d.Specifications = append(d.Specifications, Specification{Name: name, Value: p.DynamicValues[name]})
		}
	}

	return d
}

type FormMode string

const (
	FormOpen            FormMode = "form"
	FormAlreadyReviewed FormMode = "already_reviewed"
	FormLoginRequired   FormMode = "login_required"
)

// ReviewFormMode shows the form only to signed-in users without a review.
func ReviewFormMode(session *entity.UserSession, reviews []entity.Review) FormMode {
	if session == nil {
		return FormLoginRequired
	}
	for _, r := range reviews {
		if r.UserID == session.UID {
			return FormAlreadyReviewed
		}
	}
	return FormOpen
}

type ReviewRow struct {
	entity.Review
	Stars     [service.MaxStars]bool `json:"stars"`
	Deletable bool                   `json:"deletable"`
}

func ReviewRows(reviews []entity.Review, session *entity.UserSession) []ReviewRow {
	rows := make([]ReviewRow, 0, len(reviews))
	for _, r := range reviews {
		rows = append(rows, ReviewRow{
			Review:    r,
			Stars:     service.RatingStars(r.Rating),
			Deletable: session != nil && session.UID == r.UserID,
		})
	}
	return rows
}

// Draft is the unsent review form.
type Draft struct {
	Rating int    `json:"rating"`
	Text   string `json:"text"`
}

type ProductState struct {
	Product     ProductDetails        `json:"product"`
	Rating      service.RatingSummary `json:"rating"`
	Reviews     []ReviewRow           `json:"reviews"`
	ReviewCount int                   `json:"reviewCount"`
	Form        FormMode              `json:"form"`
	Draft       Draft                 `json:"draft"`
	Overlay     OverlayStatus         `json:"overlay"`
	Session     *entity.UserSession   `json:"session,omitempty"`
}

// BuildProductState derives everything a product page shows from its inputs.
func BuildProductState(product *entity.Product, reviews []entity.Review, session *entity.UserSession, draft Draft, overlay OverlayStatus) ProductState {
	return ProductState{
		Product:     BuildDetails(product),
		Rating:      service.Summarize(reviews),
		Reviews:     ReviewRows(reviews, session),
		ReviewCount: len(reviews),
		Form:        ReviewFormMode(session, reviews),
		Draft:       draft,
		Overlay:     overlay,
		Session:     session,
	}
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
