// Package realtime defines the path-addressed document store the storefront
// runs on and an in-process implementation of it.
//
// Paths are slash-delimited ("reviews/p1/r9"). A node is either a leaf value
// or a map of child keys; absent and empty nodes read as JSON null.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidPath = errors.New("invalid store path")

// DocumentStore is the realtime document database contract.
type DocumentStore interface {
	// Write replaces the node at path. A nil value removes it.
	Write(ctx context.Context, path string, value interface{}) error
	// Update merges fields into the node at path. Keys may be relative paths.
	Update(ctx context.Context, path string, fields map[string]interface{}) error
	Read(ctx context.Context, path string) (Snapshot, error)
	// Push stores value under a new time-ordered child key and returns the key.
	Push(ctx context.Context, path string, value interface{}) (string, error)
	Remove(ctx context.Context, path string) error
	// Subscribe delivers the current value and every later change of path.
	// Deliveries to one subscriber are serialized; a slow subscriber only
	// sees the latest pending value. The returned func releases the subscription.
	Subscribe(ctx context.Context, path string, onChange func(Snapshot)) (func(), error)
}

// Snapshot is an immutable JSON rendering of one node.
type Snapshot struct {
	path string
	raw  []byte
}

func NewSnapshot(path string, raw []byte) Snapshot {
	return Snapshot{path: path, raw: raw}
}

func (s Snapshot) Path() string {
	return s.path
}

// Key is the last path segment.
func (s Snapshot) Key() string {
	if i := strings.LastIndex(s.path, "/"); i >= 0 {
		return s.path[i+1:]
	}
	return s.path
}

func (s Snapshot) Exists() bool {
	raw := strings.TrimSpace(string(s.raw))
	return raw != "" && raw != "null"
}

func (s Snapshot) Raw() []byte {
	return s.raw
}

func (s Snapshot) Unmarshal(v interface{}) error {
	if !s.Exists() {
		return nil
	}
	return json.Unmarshal(s.raw, v)
}

// Join builds a path from keys, rejecting keys the store cannot address.
func Join(keys ...string) (string, error) {
	for _, k := range keys {
		if !ValidKey(k) {
			return "", fmt.Errorf("%w: key %q", ErrInvalidPath, k)
		}
	}
	return strings.Join(keys, "/"), nil
}

// ValidKey follows the Realtime Database key rules.
func ValidKey(key string) bool {
	if key == "" || len(key) > 768 {
		return false
	}
	return !strings.ContainsAny(key, "/.#$[]")
}

func splitPath(path string) ([]string, error) {
	var segs []string
	for _, seg := range strings.Split(path, "/") {
		if seg == "" {
			continue
		}
		if !ValidKey(seg) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPath, path)
		}
		segs = append(segs, seg)
	}
	return segs, nil
}

// overlaps reports whether a change at one path can alter the other.
func overlaps(a, b []string) bool {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
