package storage

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestObjectNameExtensions(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := map[string]string{
		"image/jpeg":      ".jpg",
		"image/png":       ".png",
		"image/webp":      ".webp",
		"application/zip": ".bin",
	}

	for contentType, ext := range tests {
		name := ObjectName("products/p1", contentType, now)
		assert.True(t, strings.HasPrefix(name, "products/p1/"), name)
		assert.True(t, strings.HasSuffix(name, "-20260102030405"+ext), name)
	}
}

func TestObjectNameUnique(t *testing.T) {
	now := time.Now()
	assert.NotEqual(t, ObjectName("a", "image/png", now), ObjectName("a", "image/png", now))
}
