package icloud

import (
	"context"
	"io"
	"time"
)

// Photo is one item in the source library listing.
type Photo struct {
	ID      string
	Name    string
	Size    int64
	Created time.Time
}

// Cursor walks the library listing in pages. Next returns nil, nil once the
// sequence is exhausted; obtaining a fresh cursor restarts from the
// beginning, which picks up items added since the previous pass.
type Cursor interface {
	Next(ctx context.Context) (*Photo, error)
}

// Library is the source-service contract the download stage consumes.
type Library interface {
	Photos(ctx context.Context) (Cursor, error)
	Download(ctx context.Context, photo Photo, w io.Writer) error
}
