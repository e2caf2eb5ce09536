package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"path/filepath"
	"strings"

	"github.com/cherryfit/cherryfit/internal/storage"
	"github.com/google/uuid"
)

var ErrStorageNotConfigured = errors.New("photo storage is not configured")

// PhotoService stores meal photos and hands back the reference a food log
// carries in photo_url.
type PhotoService struct {
	storage storage.Storage
}

func NewPhotoService(storage storage.Storage) *PhotoService {
	return &PhotoService{storage: storage}
}

// Upload saves a photo under the owner's prefix and returns its URL.
// Content validation is the caller's job.
func (s *PhotoService) Upload(ctx context.Context, ownerID, filename, contentType string, body io.Reader) (string, error) {
	if s.storage == nil {
		return "", ErrStorageNotConfigured
	}

	ext := strings.ToLower(filepath.Ext(filename))
	key := path.Join("photos", ownerID, uuid.New().String()+ext)

	if err := s.storage.Save(ctx, key, body, contentType); err != nil {
		return "", fmt.Errorf("failed to save photo: %w", err)
	}

	url, err := s.storage.URL(ctx, key)
	if err != nil {
		if delErr := s.storage.Delete(ctx, key); delErr != nil {
			slog.Error("failed to delete photo during cleanup", "error", delErr, "path", key)
		}
		return "", err
	}

	return url, nil
}
