package gphotos

import (
	"context"
	"io"
)

// Album is a destination-side grouping of media items.
type Album struct {
	ID    string
	Title string
}

// NewMediaItem is one entry in a batch append request. Ref is a caller-chosen
// correlation id echoed back in the matching AppendResult, so callers never
// have to round-trip upload tokens to pair results with requests.
type NewMediaItem struct {
	Ref         string
	Token       string
	Description string
}

// AppendResult reports the per-item outcome of a batch append.
type AppendResult struct {
	Ref    string
	Status string
	OK     bool
}

// Uploader pushes raw photo bytes and returns the service's opaque token.
type Uploader interface {
	Upload(ctx context.Context, r io.Reader, name string) (string, error)
}

// Albums manages destination albums and their contents.
type Albums interface {
	ListAlbums(ctx context.Context) ([]Album, error)
	CreateAlbum(ctx context.Context, title string) (Album, error)
	Append(ctx context.Context, albumID string, items []NewMediaItem) ([]AppendResult, error)
}

// Service combines everything the pipeline needs from the destination.
type Service interface {
	Uploader
	Albums
}
