package view

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"storefront/internal/domain/entity"
	"storefront/internal/domain/service"
)

const (
	unknownTitle = "Unknown Product"
	unknownType  = "Unknown"
	noPrice      = "N/A"
)

// ProductRoute is the detail page route for a product.
func ProductRoute(id string) string {
	return "/product/" + id
}

// CardState is a grid tile: display labels plus the live rating badge.
type CardState struct {
	ID            string                `json:"id"`
	Title         string                `json:"title"`
	Price         float64               `json:"price"`
	PriceLabel    string                `json:"priceLabel"`
	DiscountLabel string                `json:"discountLabel,omitempty"`
	Type          string                `json:"type"`
	ImageURL      string                `json:"imageUrl"`
	Rating        service.RatingSummary `json:"rating"`
	ReviewCount   int                   `json:"reviewCount"`
	Route         string                `json:"route"`
}

func BuildCard(p *entity.Product, reviews []entity.Review) CardState {
	c := CardState{
		ID:          p.ID,
		Title:       p.Title,
		Price:       p.Price,
		PriceLabel:  noPrice,
		Type:        p.Type,
		ImageURL:    p.ImageURL,
		Rating:      service.Summarize(reviews),
		ReviewCount: len(reviews),
		Route:       ProductRoute(p.ID),
	}

	if strings.TrimSpace(c.Title) == "" {
		c.Title = unknownTitle
	}
	if strings.TrimSpace(c.Type) == "" {
		c.Type = unknownType
	}
	if p.Price > 0 {
		c.PriceLabel = fmt.Sprintf("$%.2f", p.Price)
	}
	if p.DiscountPercentage > 0 {
		c.DiscountLabel = formatNumber(p.DiscountPercentage) + "% Off"
	}
	return c
}

// ProductCard follows one product's reviews and re-emits its card on change.
type ProductCard struct {
	product *entity.Product
	emit    func(CardState)

	emitMu sync.Mutex

	mu          sync.Mutex
	reviews     []entity.Review
	unsubscribe func()
	closed      bool
}

func NewProductCard(ctx context.Context, product *entity.Product, reviews ReviewService, emit func(CardState)) (*ProductCard, error) {
	c := &ProductCard{
		product: product,
		emit:    emit,
		reviews: []entity.Review{},
	}

	unsubscribe, err := reviews.SubscribeReviews(ctx, product.ID, c.onReviews)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.unsubscribe = unsubscribe
	c.mu.Unlock()
	return c, nil
}

func (c *ProductCard) onReviews(reviews []entity.Review) {
	c.emitMu.Lock()
	defer c.emitMu.Unlock()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.reviews = reviews
	state := BuildCard(c.product, reviews)
	c.mu.Unlock()

	if c.emit != nil {
		c.emit(state)
	}
}

func (c *ProductCard) Product() *entity.Product {
	return c.product
}

func (c *ProductCard) State() CardState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return BuildCard(c.product, c.reviews)
}

// Select returns the navigation to the product's detail page.
func (c *ProductCard) Select() Navigation {
	return Navigation{Route: ProductRoute(c.product.ID), Product: c.product}
}

// Close releases the review subscription. No card is emitted after it returns.
func (c *ProductCard) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	unsubscribe := c.unsubscribe
	c.unsubscribe = nil
	c.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}

	c.emitMu.Lock()
	c.emitMu.Unlock()
}
