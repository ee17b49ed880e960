package testsupport

import (
	"context"
	"testing"
	"time"

	"photoshuttle/internal/artifact"
	"photoshuttle/internal/config"
)

// MustOpenStore opens an artifact.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *artifact.Store {
	t.Helper()

	store, err := artifact.Open(cfg.DatabasePath)
	if err != nil {
		t.Fatalf("artifact.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewArtifact registers a fresh artifact for tests using the provided store.
func NewArtifact(t testing.TB, store *artifact.Store, remoteID, name string) *artifact.Artifact {
	t.Helper()

	record, _, err := store.EnsureArtifact(context.Background(), remoteID, name, 64, time.Now().UTC())
	if err != nil {
		t.Fatalf("store.EnsureArtifact: %v", err)
	}
	return record
}
