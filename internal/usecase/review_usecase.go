package usecase

import (
	"context"
	"strings"
	"sync"
	"time"

	"storefront/internal/domain/entity"
	"storefront/internal/domain/repository"
	"storefront/internal/infrastructure/ratelimit"
	"storefront/pkg/errors"
	"storefront/pkg/logger"
	"storefront/pkg/metrics"
)

const (
	MinRating = 1
	MaxRating = 5

	anonymousName = "Anonymous"
)

type ReviewUseCase struct {
	reviewRepo repository.ReviewRepository
	limiter    ActionLimiter
	locks      *keyedMutex
	now        func() time.Time
}

// NewReviewUseCase builds the review feed and submission guard. limiter may be nil.
func NewReviewUseCase(reviewRepo repository.ReviewRepository, limiter ActionLimiter) *ReviewUseCase {
	return &ReviewUseCase{
		reviewRepo: reviewRepo,
		limiter:    limiter,
		locks:      newKeyedMutex(),
		now:        time.Now,
	}
}

type SubmitReviewInput struct {
	Rating int    `json:"rating"`
	Text   string `json:"text"`
}

// SubscribeReviews delivers the product's complete review list now and after
// every change until the returned func is called.
func (uc *ReviewUseCase) SubscribeReviews(ctx context.Context, productID string, onChange func([]entity.Review)) (func(), error) {
	unsubscribe, err := uc.reviewRepo.Subscribe(ctx, productID, onChange)
	if err != nil {
		return nil, err
	}
	metrics.FeedSubscriptions.Inc()

	var once sync.Once
	return func() {
		once.Do(func() {
			unsubscribe()
			metrics.FeedSubscriptions.Dec()
		})
	}, nil
}

func (uc *ReviewUseCase) ListReviews(ctx context.Context, productID string) ([]entity.Review, error) {
	return uc.reviewRepo.ListByProduct(ctx, productID)
}

// FindUserReview returns the review written by uid, if any.
func FindUserReview(reviews []entity.Review, uid string) *entity.Review {
	if uid == "" {
		return nil
	}
	for i := range reviews {
		if reviews[i].UserID == uid {
			return &reviews[i]
		}
	}
	return nil
}

// SubmitReview validates and stores a new review. existing is the caller's
// view of the user's current review for the product. The store is re-read
// under a per-user lock before the write.
func (uc *ReviewUseCase) SubmitReview(ctx context.Context, session *entity.UserSession, productID string, input SubmitReviewInput, existing *entity.Review) (*entity.Review, error) {
	review, err := uc.submit(ctx, session, productID, input, existing)
	if err != nil {
		metrics.ReviewSubmissions.WithLabelValues(errors.CodeOf(err)).Inc()
		return nil, err
	}
	metrics.ReviewSubmissions.WithLabelValues("ok").Inc()
	return review, nil
}

func (uc *ReviewUseCase) submit(ctx context.Context, session *entity.UserSession, productID string, input SubmitReviewInput, existing *entity.Review) (*entity.Review, error) {
	if session == nil {
		return nil, errors.Unauthenticated("not authenticated")
	}
	if input.Rating == 0 {
		return nil, errors.Validation("no rating")
	}
	if input.Rating < MinRating || input.Rating > MaxRating {
		return nil, errors.Validation("rating out of range")
	}
	if existing != nil {
		return nil, errors.Validation("duplicate")
	}
	text := strings.TrimSpace(input.Text)
	if text == "" {
		return nil, errors.Validation("empty text")
	}

	if err := uc.allow(session.UID, ratelimit.ActionSubmitReview); err != nil {
		return nil, err
	}

	unlock := uc.locks.Lock(productID + "/" + session.UID)
	defer unlock()

	current, err := uc.reviewRepo.ListByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if FindUserReview(current, session.UID) != nil {
		return nil, errors.Validation("duplicate")
	}

	displayName := strings.TrimSpace(session.DisplayName)
	if displayName == "" {
		displayName = anonymousName
	}

	review := &entity.Review{
		ProductID:   productID,
		UserID:      session.UID,
		DisplayName: displayName,
		Rating:      input.Rating,
		Text:        text,
		CreatedAt:   uc.now().UTC().Format(time.RFC3339),
		LovedBy:     map[string]bool{},
	}

	if err := uc.reviewRepo.Create(ctx, review); err != nil {
		return nil, err
	}

	logger.Debug("Review %s stored for product %s by %s", review.ID, productID, session.UID)
	return review, nil
}

// DeleteReview removes a review owned by the session user.
func (uc *ReviewUseCase) DeleteReview(ctx context.Context, session *entity.UserSession, productID, reviewID string) error {
	err := uc.remove(ctx, session, productID, reviewID)
	if err != nil {
		metrics.ReviewDeletions.WithLabelValues(errors.CodeOf(err)).Inc()
		return err
	}
	metrics.ReviewDeletions.WithLabelValues("ok").Inc()
	return nil
}

func (uc *ReviewUseCase) remove(ctx context.Context, session *entity.UserSession, productID, reviewID string) error {
	if session == nil {
		return errors.Forbidden("not authorized", nil)
	}

	if err := uc.allow(session.UID, ratelimit.ActionDeleteReview); err != nil {
		return err
	}

	review, err := uc.reviewRepo.GetByID(ctx, productID, reviewID)
	if err != nil {
		return err
	}
	if review.UserID != session.UID {
		return errors.Forbidden("not authorized", nil)
	}

	return uc.reviewRepo.Delete(ctx, productID, reviewID)
}

func (uc *ReviewUseCase) allow(uid, action string) error {
	if uc.limiter == nil {
		return nil
	}
	if ok, wait := uc.limiter.Allow(uid, action); !ok {
		logger.Warn("Rate limit hit: user=%s action=%s retry_in=%v", uid, action, wait)
		return errors.TooManyRequests("Too many requests, try again later")
	}
	return nil
}

// keyedMutex serializes work per key and forgets keys nobody holds.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*keyedLock)}
}

func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &keyedLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()

	return func() {
		l.mu.Unlock()

		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
