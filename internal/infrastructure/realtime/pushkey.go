package realtime

import (
	"github.com/google/uuid"
)

// NewPushKey returns a child key that sorts after every key generated before it.
// UUIDv7 strings are millisecond-timestamp prefixed and monotonic within a process.
func NewPushKey() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
