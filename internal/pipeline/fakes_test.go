package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"photoshuttle/internal/artifact"
	"photoshuttle/internal/config"
	"photoshuttle/internal/services/gphotos"
	"photoshuttle/internal/services/icloud"
	"photoshuttle/internal/testsupport"
)

func newTestStore(t *testing.T) *artifact.Store {
	t.Helper()
	return testsupport.MustOpenStore(t, testsupport.NewConfig(t))
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return testsupport.NewConfig(t)
}

// fakeLibrary serves a fixed photo listing from memory.
type fakeLibrary struct {
	photos       []icloud.Photo
	data         map[string][]byte
	failDownload map[string]bool
	listErr      error
}

func newFakeLibrary(names ...string) *fakeLibrary {
	lib := &fakeLibrary{data: make(map[string][]byte), failDownload: make(map[string]bool)}
	for i, name := range names {
		id := fmt.Sprintf("remote-%d", i+1)
		body := []byte("bytes of " + name)
		lib.photos = append(lib.photos, icloud.Photo{
			ID:      id,
			Name:    name,
			Size:    int64(len(body)),
			Created: time.Date(2023, time.March, i+1, 0, 0, 0, 0, time.UTC),
		})
		lib.data[id] = body
	}
	return lib
}

func (l *fakeLibrary) Photos(ctx context.Context) (icloud.Cursor, error) {
	if l.listErr != nil {
		return nil, l.listErr
	}
	return &sliceCursor{photos: l.photos}, nil
}

func (l *fakeLibrary) Download(ctx context.Context, photo icloud.Photo, w io.Writer) error {
	if l.failDownload[photo.ID] {
		return fmt.Errorf("download %s: connection reset", photo.ID)
	}
	_, err := w.Write(l.data[photo.ID])
	return err
}

type sliceCursor struct {
	photos []icloud.Photo
	next   int
}

func (c *sliceCursor) Next(ctx context.Context) (*icloud.Photo, error) {
	if c.next >= len(c.photos) {
		return nil, nil
	}
	photo := c.photos[c.next]
	c.next++
	return &photo, nil
}

// fakeService records uploads and album membership in memory.
type fakeService struct {
	mu           sync.Mutex
	uploads      map[string][]byte
	uploadErr    map[string]error
	albums       []gphotos.Album
	appended     map[string][]string
	rejectTokens map[string]bool
	appendErr    error
	listCalls    int
	createCalls  int
	nextToken    int
}

func newFakeService() *fakeService {
	return &fakeService{
		uploads:      make(map[string][]byte),
		uploadErr:    make(map[string]error),
		appended:     make(map[string][]string),
		rejectTokens: make(map[string]bool),
	}
}

func (s *fakeService) Upload(ctx context.Context, r io.Reader, name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.uploadErr[name]; err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return "", err
	}
	s.nextToken++
	token := fmt.Sprintf("token-%d", s.nextToken)
	s.uploads[token] = buf.Bytes()
	return token, nil
}

func (s *fakeService) ListAlbums(ctx context.Context) ([]gphotos.Album, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listCalls++
	return append([]gphotos.Album(nil), s.albums...), nil
}

func (s *fakeService) CreateAlbum(ctx context.Context, title string) (gphotos.Album, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.createCalls++
	album := gphotos.Album{ID: fmt.Sprintf("album-%d", len(s.albums)+1), Title: title}
	s.albums = append(s.albums, album)
	return album, nil
}

func (s *fakeService) Append(ctx context.Context, albumID string, items []gphotos.NewMediaItem) ([]gphotos.AppendResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.appendErr != nil {
		return nil, s.appendErr
	}
	results := make([]gphotos.AppendResult, 0, len(items))
	for _, item := range items {
		if s.rejectTokens[item.Token] {
			results = append(results, gphotos.AppendResult{Ref: item.Ref, Status: "Invalid media item", OK: false})
			continue
		}
		s.appended[albumID] = append(s.appended[albumID], item.Token)
		results = append(results, gphotos.AppendResult{Ref: item.Ref, Status: "OK", OK: true})
	}
	return results, nil
}

func (s *fakeService) albumContents(albumID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.appended[albumID]...)
}

func seedArtifact(t *testing.T, store *artifact.Store, remoteID, name string) *artifact.Artifact {
	t.Helper()
	record, _, err := store.EnsureArtifact(context.Background(), remoteID, name, 64, time.Now().UTC())
	if err != nil {
		t.Fatalf("seed artifact %s: %v", remoteID, err)
	}
	return record
}

func mustGet(t *testing.T, store *artifact.Store, remoteID string) *artifact.Artifact {
	t.Helper()
	record, err := store.GetByRemoteID(context.Background(), remoteID)
	if err != nil {
		t.Fatalf("get artifact %s: %v", remoteID, err)
	}
	return record
}
