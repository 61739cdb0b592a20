package core

import (
	"context"
	"io"

	"github.com/pkg/errors"
)

// ErrFileTooLarge is returned by upload readers past their size limit. Stores never retry it.
var ErrFileTooLarge = errors.New("file is too large")

// FileStorage is any service that can store uploaded files under a key.
type FileStorage interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
	// URL returns the public URL of the file stored under key.
	URL(key string) string
}
