package view

import (
	"sync"
	"time"

	"storefront/internal/domain/entity"
	"storefront/pkg/metrics"
)

const (
	DefaultOverlayDelay = 3 * time.Second

	CheckoutRoute  = "/buy"
	overlayMessage = "Preparing for order..."
)

// DeferredTask runs at most one scheduled func. Scheduling again or
// cancelling discards the pending one.
type DeferredTask struct {
	mu    sync.Mutex
	timer *time.Timer
	gen   uint64
}

func (t *DeferredTask) Schedule(delay time.Duration, fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.timer != nil {
		t.timer.Stop()
	}
	t.gen++
	gen := t.gen

	t.timer = time.AfterFunc(delay, func() {
		t.mu.Lock()
		if gen != t.gen {
			t.mu.Unlock()
			return
		}
		t.timer = nil
		t.mu.Unlock()

		fn()
	})
}

// Cancel reports whether a pending func was discarded.
func (t *DeferredTask) Cancel() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.timer == nil {
		return false
	}
	t.timer.Stop()
	t.timer = nil
	t.gen++
	return true
}

func (t *DeferredTask) Pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.timer != nil
}

type OverlayState string

const (
	OverlayIdle    OverlayState = "idle"
	OverlayShowing OverlayState = "showing"
)

type OverlayStatus struct {
	State     OverlayState `json:"state"`
	StartedAt *time.Time   `json:"startedAt,omitempty"`
	Message   string       `json:"message,omitempty"`
}

// Navigation asks the client to move to another route.
type Navigation struct {
	Route   string          `json:"route"`
	Product *entity.Product `json:"product,omitempty"`
}

// PurchaseOverlay is the buy-now countdown. Showing returns to Idle after the
// delay and then navigates to checkout. navigate runs with the overlay locked,
// so once Close returns it never runs again; it must not call back into the overlay.
type PurchaseOverlay struct {
	delay    time.Duration
	navigate func(Navigation)
	now      func() time.Time

	mu        sync.Mutex
	task      DeferredTask
	state     OverlayState
	startedAt time.Time
	product   *entity.Product
	episode   uint64
	closed    bool
}

func NewPurchaseOverlay(delay time.Duration, navigate func(Navigation)) *PurchaseOverlay {
	if delay <= 0 {
		delay = DefaultOverlayDelay
	}
	return &PurchaseOverlay{
		delay:    delay,
		navigate: navigate,
		now:      time.Now,
		state:    OverlayIdle,
	}
}

// BuyNow starts an episode. Out-of-stock products, a running episode and a
// closed overlay make it a no-op; it reports whether an episode started.
func (o *PurchaseOverlay) BuyNow(product *entity.Product) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed || product == nil || !product.InStock() || o.state == OverlayShowing {
		return false
	}

	o.episode++
	episode := o.episode
	o.state = OverlayShowing
	o.startedAt = o.now()
	o.product = product

	o.task.Schedule(o.delay, func() { o.fire(episode) })
	metrics.PurchaseOverlays.WithLabelValues("shown").Inc()
	return true
}

func (o *PurchaseOverlay) fire(episode uint64) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed || episode != o.episode || o.state != OverlayShowing {
		return
	}

	product := o.product
	o.state = OverlayIdle
	o.product = nil

	metrics.PurchaseOverlays.WithLabelValues("navigated").Inc()
	if o.navigate != nil {
		o.navigate(Navigation{Route: CheckoutRoute, Product: product})
	}
}

// Cancel ends a running episode without navigating.
func (o *PurchaseOverlay) Cancel() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.cancelLocked()
}

// Close cancels any running episode and disables the overlay for good.
func (o *PurchaseOverlay) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.cancelLocked()
	o.closed = true
}

func (o *PurchaseOverlay) cancelLocked() {
	if o.state != OverlayShowing {
		return
	}
	o.task.Cancel()
	o.episode++
	o.state = OverlayIdle
	o.product = nil
	metrics.PurchaseOverlays.WithLabelValues("cancelled").Inc()
}

func (o *PurchaseOverlay) Status() OverlayStatus {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state != OverlayShowing {
		return OverlayStatus{State: OverlayIdle}
	}
	started := o.startedAt
	return OverlayStatus{
		State:     OverlayShowing,
		StartedAt: &started,
		Message:   overlayMessage,
	}
}
