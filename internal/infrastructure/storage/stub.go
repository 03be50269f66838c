package storage

import (
	"context"
	"errors"
	"time"
)

// StubFileStorage is a placeholder FileStorage for development and tests.
// It fabricates download URLs without touching any backend.
type StubFileStorage struct {
	// BaseURL is the base URL for generated download URLs
	BaseURL string
}

// NewStubFileStorage creates a new StubFileStorage
func NewStubFileStorage() *StubFileStorage {
	return &StubFileStorage{
		BaseURL: "https://storage.example.com",
	}
}

// Ensure StubFileStorage implements FileStorage
var _ FileStorage = (*StubFileStorage)(nil)

// GenerateDownloadURL generates a stub download URL
func (s *StubFileStorage) GenerateDownloadURL(_ context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error) {
	if storageKey == "" {
		return "", time.Time{}, errors.New("storage key is required")
	}

	expiresAt := time.Now().Add(expiresIn)
	url := s.BaseURL + "/download/" + storageKey + "?expires=" + expiresAt.Format(time.RFC3339)

	return url, expiresAt, nil
}

// ObjectExists always returns true so download flows work in stub mode
func (s *StubFileStorage) ObjectExists(_ context.Context, storageKey string) (bool, error) {
	if storageKey == "" {
		return false, errors.New("storage key is required")
	}
	return true, nil
}
