package view

import (
	"context"
	"sync"

	"storefront/internal/domain/entity"
	"storefront/pkg/errors"
)

const emptyGridMessage = "No products available."

type GridState struct {
	Cards    []CardState `json:"cards"`
	Empty    bool        `json:"empty"`
	Message  string      `json:"message,omitempty"`
	Selected string      `json:"selected,omitempty"`
}

// ProductGrid is a set of live cards, one per product, in listing order.
type ProductGrid struct {
	cards []*ProductCard
	index map[string]*ProductCard

	mu       sync.Mutex
	selected string
	closed   bool
}

// NewProductGrid mounts a card for every product. emitCard receives each
// card update; updates from different cards may interleave.
func NewProductGrid(ctx context.Context, products []*entity.Product, reviews ReviewService, emitCard func(CardState)) (*ProductGrid, error) {
	g := &ProductGrid{index: make(map[string]*ProductCard, len(products))}

	for _, p := range products {
		if p == nil {
			continue
		}
		if _, dup := g.index[p.ID]; dup {
			continue
		}
		card, err := NewProductCard(ctx, p, reviews, emitCard)
		if err != nil {
			g.Close()
			return nil, err
		}
		g.cards = append(g.cards, card)
		g.index[p.ID] = card
	}

	return g, nil
}

func (g *ProductGrid) State() GridState {
	state := GridState{Cards: make([]CardState, 0, len(g.cards))}
	for _, c := range g.cards {
		state.Cards = append(state.Cards, c.State())
	}
	if len(state.Cards) == 0 {
		state.Empty = true
		state.Message = emptyGridMessage
	}

	g.mu.Lock()
	state.Selected = g.selected
	g.mu.Unlock()
	return state
}

// Select records the product as selected and returns its navigation.
func (g *ProductGrid) Select(productID string) (Navigation, error) {
	card, ok := g.index[productID]
	if !ok {
		return Navigation{}, errors.NotFound("Product", nil)
	}

	g.mu.Lock()
	g.selected = productID
	g.mu.Unlock()

	return card.Select(), nil
}

func (g *ProductGrid) Selected() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.selected
}

// Close releases every card subscription.
func (g *ProductGrid) Close() {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return
	}
	g.closed = true
	g.mu.Unlock()

	for _, c := range g.cards {
		c.Close()
	}
}
