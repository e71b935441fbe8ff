package firebase

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"firebase.google.com/go/v4/db"

	"storefront/internal/infrastructure/realtime"
	"storefront/pkg/logger"
)

// RTDBStore is the realtime.DocumentStore backed by Firebase Realtime Database.
// The Admin SDK has no streaming listener, so every watched path is polled
// with an ETag-conditional read. All subscribers of a path share one poller.
type RTDBStore struct {
	client   *db.Client
	interval time.Duration
	refs     func(path string) versionedRef

	mu      sync.Mutex
	watches map[string]*watch
}

type watch struct {
	listeners map[*realtime.Listener]struct{}
	latest    *realtime.Snapshot
	cancel    context.CancelFunc
}

// versionedRef is the ETag-aware read side of a *db.Ref.
type versionedRef interface {
	GetWithETag(ctx context.Context, v interface{}) (string, error)
	GetIfChanged(ctx context.Context, etag string, v interface{}) (bool, string, error)
}

func NewRTDBStore(client *db.Client, interval time.Duration) *RTDBStore {
	return newPolledStore(client, interval, func(path string) versionedRef {
		return client.NewRef(path)
	})
}

func newPolledStore(client *db.Client, interval time.Duration, refs func(string) versionedRef) *RTDBStore {
	if interval <= 0 {
		interval = time.Second
	}
	return &RTDBStore{
		client:   client,
		interval: interval,
		refs:     refs,
		watches:  make(map[string]*watch),
	}
}

func (s *RTDBStore) Write(ctx context.Context, path string, value interface{}) error {
	ref := s.client.NewRef(path)
	if value == nil {
		return ref.Delete(ctx)
	}
	return ref.Set(ctx, value)
}

func (s *RTDBStore) Update(ctx context.Context, path string, fields map[string]interface{}) error {
	return s.client.NewRef(path).Update(ctx, fields)
}

func (s *RTDBStore) Read(ctx context.Context, path string) (realtime.Snapshot, error) {
	var raw json.RawMessage
	if err := s.client.NewRef(path).Get(ctx, &raw); err != nil {
		return realtime.Snapshot{}, err
	}
	return realtime.NewSnapshot(path, nullIfEmpty(raw)), nil
}

func (s *RTDBStore) Push(ctx context.Context, path string, value interface{}) (string, error) {
	ref, err := s.client.NewRef(path).Push(ctx, value)
	if err != nil {
		return "", err
	}
	return ref.Key, nil
}

func (s *RTDBStore) Remove(ctx context.Context, path string) error {
	return s.client.NewRef(path).Delete(ctx)
}

func (s *RTDBStore) Subscribe(ctx context.Context, path string, onChange func(realtime.Snapshot)) (func(), error) {
	path = strings.Trim(path, "/")
	l := realtime.NewListener(path, onChange)

	s.mu.Lock()
	w, ok := s.watches[path]
	if !ok {
		pollCtx, cancel := context.WithCancel(context.Background())
		w = &watch{
			listeners: make(map[*realtime.Listener]struct{}),
			cancel:    cancel,
		}
		s.watches[path] = w
		go s.poll(pollCtx, path, w)
	}
	w.listeners[l] = struct{}{}
	if w.latest != nil {
		l.Offer(*w.latest)
	}
	s.mu.Unlock()

	go l.Run()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.release(path, l)
			l.Stop()
		})
	}, nil
}

// Watches reports how many paths are being polled.
func (s *RTDBStore) Watches() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.watches)
}

func (s *RTDBStore) release(path string, l *realtime.Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.watches[path]
	if !ok {
		return
	}
	delete(w.listeners, l)
	if len(w.listeners) == 0 {
		w.cancel()
		delete(s.watches, path)
	}
}

func (s *RTDBStore) poll(ctx context.Context, path string, w *watch) {
	ref := s.refs(path)

	var raw json.RawMessage
	etag, err := ref.GetWithETag(ctx, &raw)
	if err != nil {
		if ctx.Err() == nil {
			logger.Error("Failed initial read of %s: %v", path, err)
		}
	} else {
		s.publish(path, w, raw)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		var next json.RawMessage
		var changed bool
		if etag == "" {
			etag, err = ref.GetWithETag(ctx, &next)
			changed = err == nil
		} else {
			var newTag string
			changed, newTag, err = ref.GetIfChanged(ctx, etag, &next)
			if err == nil {
				etag = newTag
			}
		}
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Warn("Polling %s failed: %v", path, err)
			continue
		}
		if changed {
			s.publish(path, w, next)
		}
	}
}

func (s *RTDBStore) publish(path string, w *watch, raw json.RawMessage) {
	snap := realtime.NewSnapshot(path, nullIfEmpty(raw))

	s.mu.Lock()
	defer s.mu.Unlock()

	w.latest = &snap
	for l := range w.listeners {
		l.Offer(snap)
	}
}

func nullIfEmpty(raw json.RawMessage) []byte {
	if len(raw) == 0 {
		return []byte("null")
	}
	return raw
}
