package storage

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	cfg "github.com/cherryfit/cherryfit/internal/config"
)

// fakeS3 accepts every request and records method and path.
type fakeS3 struct {
	*httptest.Server
	mu       sync.Mutex
	requests []string
}

func newFakeS3(t *testing.T) *fakeS3 {
	t.Helper()
	f := &fakeS3{}
	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.requests = append(f.requests, r.Method+" "+r.URL.Path)
		f.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(f.Close)
	return f
}

func TestNewWithoutBucketIsUnconfigured(t *testing.T) {
	s, err := New(context.Background(), &cfg.Config{})
	if err != nil || s != nil {
		t.Fatalf("expected (nil, nil), got (%v, %v)", s, err)
	}
}

func TestS3StorageSaveAndURL(t *testing.T) {
	fake := newFakeS3(t)
	ctx := context.Background()

	s, err := NewS3Storage(ctx, S3Config{
		Region:    "us-east-1",
		Bucket:    "photos",
		AccessKey: "key",
		SecretKey: "secret",
		Endpoint:  fake.URL,
	})
	if err != nil {
		t.Fatalf("NewS3Storage: %v", err)
	}

	key := "photos/owner/abc.png"
	if err := s.Save(ctx, key, bytes.NewReader([]byte("png")), "image/png"); err != nil {
		t.Fatalf("Save: %v", err)
	}

	url, err := s.URL(ctx, key)
	if err != nil {
		t.Fatalf("URL: %v", err)
	}
	if url != fake.URL+"/photos/"+key {
		t.Fatalf("unexpected url %q", url)
	}

	fake.mu.Lock()
	defer fake.mu.Unlock()
	var put bool
	for _, r := range fake.requests {
		if r == "PUT /photos/"+key {
			put = true
		}
	}
	if !put {
		t.Fatalf("expected a PUT for the object, got %v", fake.requests)
	}
}

func TestS3StoragePresignedURL(t *testing.T) {
	fake := newFakeS3(t)

	s, err := NewS3Storage(context.Background(), S3Config{
		Region:        "us-east-1",
		Bucket:        "photos",
		AccessKey:     "key",
		SecretKey:     "secret",
		Endpoint:      fake.URL,
		PresignExpiry: time.Hour,
	})
	if err != nil {
		t.Fatalf("NewS3Storage: %v", err)
	}

	url, err := s.URL(context.Background(), "photos/owner/abc.png")
	if err != nil {
		t.Fatalf("URL: %v", err)
	}
	if !strings.Contains(url, "X-Amz-Signature=") || !strings.Contains(url, "X-Amz-Expires=3600") {
		t.Fatalf("expected presigned url, got %q", url)
	}
}
