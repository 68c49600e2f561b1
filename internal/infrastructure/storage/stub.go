package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	outworkapp "github.com/shopfloor/backend/internal/application/outwork"
)

var _ outworkapp.ObjectStorageService = (*StubObjectStorage)(nil)

// StubObjectStorage satisfies ObjectStorageService without a real backend.
// Wired in when storage.provider is "stub" so the document endpoints stay
// usable in development. URLs it hands out are not fetchable.
type StubObjectStorage struct {
	BaseURL string
}

// NewStubObjectStorage returns a stub rooted at a placeholder base URL.
func NewStubObjectStorage() *StubObjectStorage {
	return &StubObjectStorage{
		BaseURL: "https://storage.example.com",
	}
}

func (s *StubObjectStorage) presign(kind, storageKey string, expiresIn time.Duration) (string, time.Time, error) {
	if storageKey == "" {
		return "", time.Time{}, errors.New("storage key is required")
	}
	expiresAt := time.Now().Add(expiresIn)
	url := fmt.Sprintf("%s/%s/%s?expires=%s", s.BaseURL, kind, storageKey, expiresAt.Format(time.RFC3339))
	return url, expiresAt, nil
}

// GenerateUploadURL returns a placeholder upload URL.
func (s *StubObjectStorage) GenerateUploadURL(
	ctx context.Context,
	storageKey, contentType string,
	expiresIn time.Duration,
) (string, time.Time, error) {
	return s.presign("upload", storageKey, expiresIn)
}

// GenerateDownloadURL returns a placeholder download URL.
func (s *StubObjectStorage) GenerateDownloadURL(
	ctx context.Context,
	storageKey string,
	expiresIn time.Duration,
) (string, time.Time, error) {
	return s.presign("download", storageKey, expiresIn)
}

// DeleteObject validates the key and discards the request.
func (s *StubObjectStorage) DeleteObject(ctx context.Context, storageKey string) error {
	if storageKey == "" {
		return errors.New("storage key is required")
	}
	return nil
}

// ObjectExists reports every valid key as present so the upload
// confirmation flow completes in development.
func (s *StubObjectStorage) ObjectExists(ctx context.Context, storageKey string) (bool, error) {
	if storageKey == "" {
		return false, errors.New("storage key is required")
	}
	return true, nil
}
