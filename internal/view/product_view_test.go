package view

import (
	"bytes"
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/adapter/repository"
	"storefront/internal/domain/entity"
	"storefront/internal/infrastructure/realtime"
	"storefront/internal/usecase"
	apperrors "storefront/pkg/errors"
	"storefront/pkg/logger"
)

type stateRecorder struct {
	mu     sync.Mutex
	states []ProductState
}

func (r *stateRecorder) emit(s ProductState) {
	r.mu.Lock()
	r.states = append(r.states, s)
	r.mu.Unlock()
}

func (r *stateRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.states)
}

func (r *stateRecorder) waitFor(t *testing.T, match func(ProductState) bool) ProductState {
	t.Helper()
	var got ProductState
	require.Eventually(t, func() bool {
		r.mu.Lock()
		defer r.mu.Unlock()
		if len(r.states) == 0 {
			return false
		}
		last := r.states[len(r.states)-1]
		if !match(last) {
			return false
		}
		got = last
		return true
	}, 2*time.Second, 5*time.Millisecond)
	return got
}

func newReviewService() (*usecase.ReviewUseCase, *realtime.MemoryStore) {
	store := realtime.NewMemoryStore()
	return usecase.NewReviewUseCase(repository.NewRealtimeReviewRepository(store), nil), store
}

func mountView(t *testing.T, reviews ReviewService, product *entity.Product, session *entity.UserSession, delay time.Duration, nav func(Navigation)) (*ProductView, *stateRecorder) {
	t.Helper()
	rec := &stateRecorder{}
	v, err := NewProductView(context.Background(), product, session, ProductViewConfig{
		Reviews:      reviews,
		OverlayDelay: delay,
		Emit:         rec.emit,
		Navigate:     nav,
	})
	require.NoError(t, err)
	t.Cleanup(v.Close)

	rec.waitFor(t, func(ProductState) bool { return true })
	return v, rec
}

func TestProductViewSubmitRoundTrip(t *testing.T) {
	reviews, _ := newReviewService()
	session := &entity.UserSession{UID: "u1", DisplayName: "Ana"}
	v, rec := mountView(t, reviews, &entity.Product{ID: "p1", Title: "Lamp"}, session, 0, nil)

	assert.Equal(t, FormOpen, v.State().Form)

	require.NoError(t, v.SetRating(4))
	v.SetText("  Works well  ")

	created, err := v.SubmitReview()
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	state := rec.waitFor(t, func(s ProductState) bool {
		return s.ReviewCount == 1 && s.Draft == (Draft{})
	})

	got := state.Reviews[0]
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, 4, got.Rating)
	assert.Equal(t, "Works well", got.Text)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, "Ana", got.DisplayName)
	_, err = got.CreatedTime()
	assert.NoError(t, err)

	assert.True(t, got.Deletable)
	assert.Equal(t, FormAlreadyReviewed, state.Form)
	assert.Equal(t, "4.0", state.Rating.Display)
}

func TestProductViewKeepsDraftOnFailedSubmit(t *testing.T) {
	reviews, _ := newReviewService()
	session := &entity.UserSession{UID: "u1", DisplayName: "Ana"}
	v, _ := mountView(t, reviews, &entity.Product{ID: "p1"}, session, 0, nil)

	v.SetText("no stars yet")

	_, err := v.SubmitReview()
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.CodeValidation))
	assert.Equal(t, Draft{Text: "no stars yet"}, v.State().Draft)
}

func TestProductViewSetRatingRange(t *testing.T) {
	reviews, _ := newReviewService()
	v, _ := mountView(t, reviews, &entity.Product{ID: "p1"}, nil, 0, nil)

	assert.Error(t, v.SetRating(6))
	assert.Error(t, v.SetRating(-1))
	require.NoError(t, v.SetRating(0))
	require.NoError(t, v.SetRating(5))
	assert.Equal(t, 5, v.State().Draft.Rating)
}

func TestProductViewSubmitWithoutSession(t *testing.T) {
	reviews, _ := newReviewService()
	v, _ := mountView(t, reviews, &entity.Product{ID: "p1"}, nil, 0, nil)

	assert.Equal(t, FormLoginRequired, v.State().Form)

	require.NoError(t, v.SetRating(3))
	v.SetText("hello")
	_, err := v.SubmitReview()
	assert.True(t, apperrors.Is(err, apperrors.CodeUnauthenticated))

	v.SetSession(&entity.UserSession{UID: "u1"})
	assert.Equal(t, FormOpen, v.State().Form)
}

func TestProductViewDeleteOnlyOwnReview(t *testing.T) {
	reviews, _ := newReviewService()
	owner := &entity.UserSession{UID: "u1", DisplayName: "Ana"}
	other := &entity.UserSession{UID: "u2", DisplayName: "Ben"}

	ownerView, ownerRec := mountView(t, reviews, &entity.Product{ID: "p1"}, owner, 0, nil)
	otherView, otherRec := mountView(t, reviews, &entity.Product{ID: "p1"}, other, 0, nil)

	require.NoError(t, ownerView.SetRating(5))
	ownerView.SetText("mine")
	created, err := ownerView.SubmitReview()
	require.NoError(t, err)

	state := otherRec.waitFor(t, func(s ProductState) bool { return s.ReviewCount == 1 })
	assert.False(t, state.Reviews[0].Deletable)

	err = otherView.DeleteReview(created.ID)
	assert.True(t, apperrors.Is(err, apperrors.CodeForbidden))

	require.NoError(t, ownerView.DeleteReview(created.ID))
	ownerRec.waitFor(t, func(s ProductState) bool { return s.ReviewCount == 0 })
	otherRec.waitFor(t, func(s ProductState) bool { return s.ReviewCount == 0 })
}

func TestProductViewDeleteMissingReview(t *testing.T) {
	reviews, _ := newReviewService()
	v, _ := mountView(t, reviews, &entity.Product{ID: "p1"}, &entity.UserSession{UID: "u1"}, 0, nil)

	err := v.DeleteReview("missing")
	assert.True(t, apperrors.Is(err, apperrors.CodeNotFound))
}

func TestProductViewDeleteIsolatedToItsProduct(t *testing.T) {
	reviews, store := newReviewService()
	ctx := context.Background()
	session := &entity.UserSession{UID: "u1", DisplayName: "Ana"}

	_, err := store.Push(ctx, "reviews/p2", map[string]interface{}{
		"userId": "u1", "displayName": "Ana", "rating": 2, "text": "other", "createdAt": "2024-01-01T00:00:00Z",
	})
	require.NoError(t, err)

	v1, rec1 := mountView(t, reviews, &entity.Product{ID: "p1"}, session, 0, nil)
	_, rec2 := mountView(t, reviews, &entity.Product{ID: "p2"}, session, 0, nil)
	rec2.waitFor(t, func(s ProductState) bool { return s.ReviewCount == 1 })

	require.NoError(t, v1.SetRating(4))
	v1.SetText("first")
	created, err := v1.SubmitReview()
	require.NoError(t, err)
	rec1.waitFor(t, func(s ProductState) bool { return s.ReviewCount == 1 })

	require.NoError(t, v1.DeleteReview(created.ID))
	rec1.waitFor(t, func(s ProductState) bool { return s.ReviewCount == 0 })

	time.Sleep(30 * time.Millisecond)
	state := rec2.waitFor(t, func(ProductState) bool { return true })
	assert.Equal(t, 1, state.ReviewCount)
	assert.Equal(t, "other", state.Reviews[0].Text)
}

func TestProductViewSetProductResubscribes(t *testing.T) {
	reviews, store := newReviewService()
	ctx := context.Background()

	_, err := store.Push(ctx, "reviews/p2", map[string]interface{}{
		"userId": "u9", "displayName": "Zed", "rating": 5, "text": "great", "createdAt": "2024-01-01T00:00:00Z",
	})
	require.NoError(t, err)

	v, rec := mountView(t, reviews, &entity.Product{ID: "p1"}, nil, 0, nil)
	v.SetText("draft")

	require.NoError(t, v.SetProduct(&entity.Product{ID: "p2"}))
	state := rec.waitFor(t, func(s ProductState) bool { return s.Product.ID == "p2" && s.ReviewCount == 1 })
	assert.Equal(t, Draft{}, state.Draft)
	assert.Equal(t, 1, store.Subscribers())

	_, err = store.Push(ctx, "reviews/p1", map[string]interface{}{
		"userId": "u8", "displayName": "Yan", "rating": 1, "text": "stale", "createdAt": "2024-01-01T00:00:00Z",
	})
	require.NoError(t, err)
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 1, v.State().ReviewCount)
}

func TestProductViewBuyNowNavigatesToCheckout(t *testing.T) {
	reviews, _ := newReviewService()
	navs := make(chan Navigation, 1)
	product := &entity.Product{ID: "p1", Stock: intPtr(2)}

	v, rec := mountView(t, reviews, product, nil, 20*time.Millisecond, func(nav Navigation) { navs <- nav })

	started, err := v.BuyNow()
	require.NoError(t, err)
	require.True(t, started)
	rec.waitFor(t, func(s ProductState) bool { return s.Overlay.State == OverlayShowing })

	select {
	case nav := <-navs:
		assert.Equal(t, CheckoutRoute, nav.Route)
		assert.Equal(t, "p1", nav.Product.ID)
	case <-time.After(time.Second):
		t.Fatal("no navigation")
	}
	rec.waitFor(t, func(s ProductState) bool { return s.Overlay.State == OverlayIdle })
}

func TestProductViewCloseStopsEverything(t *testing.T) {
	reviews, store := newReviewService()
	navs := make(chan Navigation, 1)

	v, rec := mountView(t, reviews, &entity.Product{ID: "p1"}, nil, 30*time.Millisecond, func(nav Navigation) { navs <- nav })

	started, err := v.BuyNow()
	require.NoError(t, err)
	require.True(t, started)

	v.Close()
	assert.Equal(t, 0, store.Subscribers())
	emitted := rec.count()

	_, err = store.Push(context.Background(), "reviews/p1", map[string]interface{}{
		"userId": "u1", "displayName": "Ana", "rating": 3, "text": "late", "createdAt": "2024-01-01T00:00:00Z",
	})
	require.NoError(t, err)

	select {
	case <-navs:
		t.Fatal("navigation fired after close")
	case <-time.After(100 * time.Millisecond):
	}
	assert.Equal(t, emitted, rec.count())
}

// failingDeletes serves the feed from a real use case but cannot remove.
type failingDeletes struct {
	*usecase.ReviewUseCase
	err error
}

func (f *failingDeletes) DeleteReview(ctx context.Context, session *entity.UserSession, productID, reviewID string) error {
	return f.err
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestProductViewDeleteStoreFailureKeepsReview(t *testing.T) {
	out := &syncBuffer{}
	logger.SetOutput(out)
	t.Cleanup(func() { logger.SetOutput(os.Stdout) })

	reviews, _ := newReviewService()
	session := &entity.UserSession{UID: "u1", DisplayName: "Ana"}
	product := &entity.Product{ID: "p1", Title: "Lamp"}

	created, err := reviews.SubmitReview(context.Background(), session, "p1", usecase.SubmitReviewInput{Rating: 3, Text: "ok"}, nil)
	require.NoError(t, err)

	svc := &failingDeletes{
		ReviewUseCase: reviews,
		err:           apperrors.Store("Failed to delete review", errors.New("connection reset")),
	}
	v, rec := mountView(t, svc, product, session, 0, nil)
	rec.waitFor(t, func(s ProductState) bool { return len(s.Reviews) == 1 })

	assert.NoError(t, v.DeleteReview(created.ID))

	state := v.State()
	require.Len(t, state.Reviews, 1)
	assert.Equal(t, created.ID, state.Reviews[0].ID)
	assert.Contains(t, out.String(), "Failed to delete review p1/"+created.ID)
}

func TestProductViewDeleteSurfacesAuthorizationErrors(t *testing.T) {
	reviews, _ := newReviewService()
	svc := &failingDeletes{
		ReviewUseCase: reviews,
		err:           apperrors.Forbidden("You can only delete your own reviews", nil),
	}
	v, _ := mountView(t, svc, &entity.Product{ID: "p1"}, &entity.UserSession{UID: "u1"}, 0, nil)

	err := v.DeleteReview("r1")
	assert.Equal(t, apperrors.CodeForbidden, apperrors.CodeOf(err))
}
