package icloud

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"photoshuttle/internal/services"
)

func newListingServer(t *testing.T, total int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/library/photos":
			offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
			limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
			fmt.Fprint(w, `{"items":[`)
			wrote := false
			for i := offset; i < total && i < offset+limit; i++ {
				if wrote {
					fmt.Fprint(w, ",")
				}
				fmt.Fprintf(w, `{"id":"photo-%d","filename":"IMG_%04d.jpg","size":%d,"created":1600000000}`, i, i, 100+i)
				wrote = true
			}
			fmt.Fprint(w, `]}`)
		default:
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
	}))
}

func TestCursorWalksAllPages(t *testing.T) {
	server := newListingServer(t, 5)
	defer server.Close()

	client := NewClientWithDoer(server.URL, 2, server.Client())
	cursor, err := client.Photos(context.Background())
	if err != nil {
		t.Fatalf("Photos: %v", err)
	}

	var ids []string
	for {
		photo, err := cursor.Next(context.Background())
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if photo == nil {
			break
		}
		ids = append(ids, photo.ID)
	}
	if len(ids) != 5 {
		t.Fatalf("expected 5 photos, got %d: %v", len(ids), ids)
	}
	if ids[0] != "photo-0" || ids[4] != "photo-4" {
		t.Fatalf("unexpected ordering: %v", ids)
	}

	// A fresh cursor restarts from the beginning.
	restarted, err := client.Photos(context.Background())
	if err != nil {
		t.Fatalf("Photos restart: %v", err)
	}
	photo, err := restarted.Next(context.Background())
	if err != nil {
		t.Fatalf("Next after restart: %v", err)
	}
	if photo == nil || photo.ID != "photo-0" {
		t.Fatalf("restarted cursor returned %#v", photo)
	}
}

func TestCursorEmptyLibrary(t *testing.T) {
	server := newListingServer(t, 0)
	defer server.Close()

	client := NewClientWithDoer(server.URL, 10, server.Client())
	cursor, _ := client.Photos(context.Background())
	photo, err := cursor.Next(context.Background())
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if photo != nil {
		t.Fatalf("expected nil photo, got %#v", photo)
	}
}

func TestDownloadStreamsBytes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/library/photos/photo-1/download" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		w.Write([]byte("jpeg payload"))
	}))
	defer server.Close()

	client := NewClientWithDoer(server.URL, 10, server.Client())
	var buf bytes.Buffer
	err := client.Download(context.Background(), Photo{ID: "photo-1"}, &buf)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if buf.String() != "jpeg payload" {
		t.Fatalf("downloaded %q", buf.String())
	}
}

func TestDownloadNonSuccessIsTransient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClientWithDoer(server.URL, 10, server.Client())
	err := client.Download(context.Background(), Photo{ID: "photo-1"}, &bytes.Buffer{})
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
}

func TestListFailureSurfacesFromCursor(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClientWithDoer(server.URL, 10, server.Client())
	cursor, _ := client.Photos(context.Background())
	if _, err := cursor.Next(context.Background()); err == nil {
		t.Fatal("expected listing error")
	}
}
