package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotExist is returned by Get when the key is absent.
var ErrNotExist = errors.New("blob not found")

// BlobStore is read-only content storage holding one document per key.
type BlobStore interface {
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	// List returns the keys ending in suffix, sorted.
	List(ctx context.Context, suffix string) ([]string, error)
	// Location describes where content is read from, for diagnostics.
	Location() string
}
