package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// MemoryStore keeps the whole tree in process and notifies subscribers on
// every mutation that touches their path. It backs development runs and tests.
type MemoryStore struct {
	mu        sync.Mutex
	root      map[string]interface{}
	listeners map[*Listener][]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		root:      make(map[string]interface{}),
		listeners: make(map[*Listener][]string),
	}
}

type mutation struct {
	segs  []string
	value interface{}
}

func (s *MemoryStore) Write(ctx context.Context, path string, value interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	segs, err := splitPath(path)
	if err != nil {
		return err
	}
	normalized, err := normalize(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	s.apply([]mutation{{segs: segs, value: normalized}})
	return nil
}

func (s *MemoryStore) Update(ctx context.Context, path string, fields map[string]interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	base, err := splitPath(path)
	if err != nil {
		return err
	}

	muts := make([]mutation, 0, len(fields))
	for key, value := range fields {
		rel, err := splitPath(key)
		if err != nil {
			return err
		}
		if len(rel) == 0 {
			return fmt.Errorf("%w: empty update key", ErrInvalidPath)
		}
		normalized, err := normalize(value)
		if err != nil {
			return fmt.Errorf("encode %s/%s: %w", path, key, err)
		}
		segs := append(append([]string{}, base...), rel...)
		muts = append(muts, mutation{segs: segs, value: normalized})
	}

	s.apply(muts)
	return nil
}

func (s *MemoryStore) Read(ctx context.Context, path string) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}
	segs, err := splitPath(path)
	if err != nil {
		return Snapshot{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return NewSnapshot(path, encode(lookup(s.root, segs))), nil
}

func (s *MemoryStore) Push(ctx context.Context, path string, value interface{}) (string, error) {
	key := NewPushKey()
	child := key
	if path != "" {
		child = path + "/" + key
	}
	if err := s.Write(ctx, child, value); err != nil {
		return "", err
	}
	return key, nil
}

func (s *MemoryStore) Remove(ctx context.Context, path string) error {
	return s.Write(ctx, path, nil)
}

func (s *MemoryStore) Subscribe(ctx context.Context, path string, onChange func(Snapshot)) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	segs, err := splitPath(path)
	if err != nil {
		return nil, err
	}

	l := NewListener(path, onChange)

	s.mu.Lock()
	s.listeners[l] = segs
	l.Offer(NewSnapshot(path, encode(lookup(s.root, segs))))
	s.mu.Unlock()

	go l.Run()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, l)
			s.mu.Unlock()
			l.Stop()
		})
	}, nil
}

// Subscribers reports how many live subscriptions exist.
func (s *MemoryStore) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.listeners)
}

func (s *MemoryStore) apply(muts []mutation) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range muts {
		if len(m.segs) == 0 {
			root, _ := m.value.(map[string]interface{})
			if root == nil {
				root = make(map[string]interface{})
			}
			s.root = root
			continue
		}
		setPath(s.root, m.segs, m.value)
	}

	for l, segs := range s.listeners {
		for _, m := range muts {
			if overlaps(segs, m.segs) {
				l.Offer(NewSnapshot(l.Path(), encode(lookup(s.root, segs))))
				break
			}
		}
	}
}

func setPath(node map[string]interface{}, segs []string, value interface{}) {
	key := segs[0]
	if len(segs) == 1 {
		if value == nil {
			delete(node, key)
		} else {
			node[key] = value
		}
		return
	}

	child, ok := node[key].(map[string]interface{})
	if !ok {
		if value == nil {
			return
		}
		child = make(map[string]interface{})
		node[key] = child
	}

	setPath(child, segs[1:], value)
	if len(child) == 0 {
		delete(node, key)
	}
}

func lookup(node interface{}, segs []string) interface{} {
	for _, seg := range segs {
		m, ok := node.(map[string]interface{})
		if !ok {
			return nil
		}
		node, ok = m[seg]
		if !ok {
			return nil
		}
	}
	return node
}

func encode(node interface{}) []byte {
	if m, ok := node.(map[string]interface{}); node == nil || (ok && len(m) == 0) {
		return []byte("null")
	}
	raw, err := json.Marshal(node)
	if err != nil {
		return []byte("null")
	}
	return raw
}

// normalize turns any value into its JSON data model and drops null and
// empty children, which the store does not keep.
func normalize(value interface{}) (interface{}, error) {
	if value == nil {
		return nil, nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	var out interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return prune(out), nil
}

func prune(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		for k, child := range t {
			if pruned := prune(child); pruned == nil {
				delete(t, k)
			} else {
				t[k] = pruned
			}
		}
		if len(t) == 0 {
			return nil
		}
		return t
	case []interface{}:
		if len(t) == 0 {
			return nil
		}
		return t
	default:
		return v
	}
}
