package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

type memStorage struct {
	objects map[string]string
	types   map[string]string
}

func (m *memStorage) Save(ctx context.Context, path string, body io.Reader, contentType string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.objects[path] = string(data)
	m.types[path] = contentType
	return nil
}

func (m *memStorage) Delete(ctx context.Context, path string) error {
	delete(m.objects, path)
	return nil
}

func (m *memStorage) URL(ctx context.Context, path string) (string, error) {
	return "https://photos.example/" + path, nil
}

func TestPhotoUpload(t *testing.T) {
	store := &memStorage{objects: map[string]string{}, types: map[string]string{}}
	svc := NewPhotoService(store)

	url, err := svc.Upload(context.Background(), testOwner, "Lunch.JPG", "image/jpeg", strings.NewReader("jpeg-bytes"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if !strings.HasPrefix(url, "https://photos.example/photos/"+testOwner+"/") || !strings.HasSuffix(url, ".jpg") {
		t.Errorf("url = %s", url)
	}
	if len(store.objects) != 1 {
		t.Fatalf("stored %d objects", len(store.objects))
	}
	for path, body := range store.objects {
		if body != "jpeg-bytes" || store.types[path] != "image/jpeg" {
			t.Errorf("object %s = %q (%s)", path, body, store.types[path])
		}
	}
}

func TestPhotoUploadWithoutStorage(t *testing.T) {
	svc := NewPhotoService(nil)
	if _, err := svc.Upload(context.Background(), testOwner, "a.png", "image/png", strings.NewReader("x")); !errors.Is(err, ErrStorageNotConfigured) {
		t.Errorf("err = %v, want ErrStorageNotConfigured", err)
	}
}
