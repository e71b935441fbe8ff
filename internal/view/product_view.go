// Package view keeps the live state of the storefront screens. Each view is
// bound to one client connection: it subscribes to the review feed, recomputes
// derived state on every change and pushes the result through an emit func.
package view

import (
	"context"
	"sync"
	"time"

	"storefront/internal/domain/entity"
	"storefront/internal/infrastructure/ratelimit"
	"storefront/internal/usecase"
	"storefront/pkg/errors"
	"storefront/pkg/logger"
)

// ReviewService is the part of the review use case the views drive.
type ReviewService interface {
	SubscribeReviews(ctx context.Context, productID string, onChange func([]entity.Review)) (func(), error)
	SubmitReview(ctx context.Context, session *entity.UserSession, productID string, input usecase.SubmitReviewInput, existing *entity.Review) (*entity.Review, error)
	DeleteReview(ctx context.Context, session *entity.UserSession, productID, reviewID string) error
}

type ProductViewConfig struct {
	Reviews      ReviewService
	Limiter      usecase.ActionLimiter
	OverlayDelay time.Duration
	// Emit receives every new state, one call at a time and in order.
	Emit func(ProductState)
	// Navigate receives checkout navigation when a purchase overlay completes.
	Navigate func(Navigation)
}

type ProductView struct {
	ctx     context.Context
	reviews ReviewService
	limiter usecase.ActionLimiter
	emit    func(ProductState)
	overlay *PurchaseOverlay

	emitMu sync.Mutex

	mu          sync.Mutex
	product     *entity.Product
	session     *entity.UserSession
	items       []entity.Review
	draft       Draft
	unsubscribe func()
	feed        uint64
	closed      bool
}

// NewProductView mounts a product page and starts following its reviews.
func NewProductView(ctx context.Context, product *entity.Product, session *entity.UserSession, cfg ProductViewConfig) (*ProductView, error) {
	v := &ProductView{
		ctx:     ctx,
		reviews: cfg.Reviews,
		limiter: cfg.Limiter,
		emit:    cfg.Emit,
		product: product,
		session: session,
		items:   []entity.Review{},
	}

	navigate := cfg.Navigate
	v.overlay = NewPurchaseOverlay(cfg.OverlayDelay, func(nav Navigation) {
		if navigate != nil {
			navigate(nav)
		}
		go v.publish()
	})

	if err := v.subscribe(product.ID); err != nil {
		v.overlay.Close()
		return nil, err
	}
	return v, nil
}

func (v *ProductView) subscribe(productID string) error {
	v.mu.Lock()
	v.feed++
	feed := v.feed
	v.mu.Unlock()

	unsubscribe, err := v.reviews.SubscribeReviews(v.ctx, productID, func(reviews []entity.Review) {
		v.onReviews(feed, reviews)
	})
	if err != nil {
		return err
	}

	v.mu.Lock()
	if v.closed || feed != v.feed {
		v.mu.Unlock()
		unsubscribe()
		return nil
	}
	v.unsubscribe = unsubscribe
	v.mu.Unlock()
	return nil
}

func (v *ProductView) onReviews(feed uint64, reviews []entity.Review) {
	v.emitMu.Lock()
	defer v.emitMu.Unlock()

	v.mu.Lock()
	if v.closed || feed != v.feed {
		v.mu.Unlock()
		return
	}
	v.items = reviews
	state := v.stateLocked()
	v.mu.Unlock()

	v.send(state)
}

// State returns the current derived state.
func (v *ProductView) State() ProductState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.stateLocked()
}

func (v *ProductView) stateLocked() ProductState {
	return BuildProductState(v.product, v.items, v.session, v.draft, v.overlay.Status())
}

// SetSession applies a sign-in or sign-out.
func (v *ProductView) SetSession(session *entity.UserSession) {
	v.mu.Lock()
	v.session = session
	v.mu.Unlock()
	v.publish()
}

// SetProduct switches the page to another product. The review feed is
// replaced and a running purchase overlay is cancelled.
func (v *ProductView) SetProduct(product *entity.Product) error {
	v.overlay.Cancel()

	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return nil
	}
	old := v.unsubscribe
	v.unsubscribe = nil
	v.product = product
	v.items = []entity.Review{}
	v.draft = Draft{}
	v.mu.Unlock()

	if old != nil {
		old()
	}
	if err := v.subscribe(product.ID); err != nil {
		return err
	}
	v.publish()
	return nil
}

func (v *ProductView) SetRating(rating int) error {
	if rating < 0 || rating > usecase.MaxRating {
		return errors.Validation("rating out of range")
	}
	v.mu.Lock()
	v.draft.Rating = rating
	v.mu.Unlock()
	v.publish()
	return nil
}

func (v *ProductView) SetText(text string) {
	v.mu.Lock()
	v.draft.Text = text
	v.mu.Unlock()
	v.publish()
}

// SubmitReview sends the draft. The draft is cleared on success and kept on failure.
func (v *ProductView) SubmitReview() (*entity.Review, error) {
	v.mu.Lock()
	session := v.session
	productID := v.product.ID
	draft := v.draft
	var existing *entity.Review
	if session != nil {
		existing = usecase.FindUserReview(v.items, session.UID)
	}
	v.mu.Unlock()

	review, err := v.reviews.SubmitReview(v.ctx, session, productID, usecase.SubmitReviewInput{
		Rating: draft.Rating,
		Text:   draft.Text,
	}, existing)
	if err != nil {
		return nil, err
	}

	v.mu.Lock()
	if v.product.ID == productID {
		v.draft = Draft{}
	}
	v.mu.Unlock()
	v.publish()

	return review, nil
}

// DeleteReview removes one of the session user's reviews. Store failures are
// only logged; the review then stays in the feed.
func (v *ProductView) DeleteReview(reviewID string) error {
	v.mu.Lock()
	session := v.session
	productID := v.product.ID
	v.mu.Unlock()

	err := v.reviews.DeleteReview(v.ctx, session, productID, reviewID)
	if err == nil {
		return nil
	}

	switch errors.CodeOf(err) {
	case errors.CodeStore, errors.CodeInternal:
		logger.Error("Failed to delete review %s/%s: %v", productID, reviewID, err)
		return nil
	default:
		return err
	}
}

// BuyNow starts the purchase overlay; see PurchaseOverlay.BuyNow.
func (v *ProductView) BuyNow() (bool, error) {
	v.mu.Lock()
	product := v.product
	session := v.session
	v.mu.Unlock()

	if v.limiter != nil && session != nil {
		if ok, _ := v.limiter.Allow(session.UID, ratelimit.ActionBuyNow); !ok {
			return false, errors.TooManyRequests("Too many requests, try again later")
		}
	}

	started := v.overlay.BuyNow(product)
	if started {
		v.publish()
	}
	return started, nil
}

// Close unmounts the view. No navigation or state is emitted after it returns.
func (v *ProductView) Close() {
	v.overlay.Close()

	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.closed = true
	unsubscribe := v.unsubscribe
	v.unsubscribe = nil
	v.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}

	v.emitMu.Lock()
	v.emitMu.Unlock()
}

func (v *ProductView) publish() {
	v.emitMu.Lock()
	defer v.emitMu.Unlock()

	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	state := v.stateLocked()
	v.mu.Unlock()

	v.send(state)
}

func (v *ProductView) send(state ProductState) {
	if v.emit != nil {
		v.emit(state)
	}
}
