// Package covers stores book cover images keyed by catalog book ID.
package covers

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned when no cover is stored under a key.
var ErrNotFound = errors.New("cover not found")

// Store persists cover images.
type Store interface {
	Put(ctx context.Context, key, contentType string, r io.Reader) error
	Get(ctx context.Context, key string) (io.ReadCloser, string, error)
	Delete(ctx context.Context, key string) error
}
