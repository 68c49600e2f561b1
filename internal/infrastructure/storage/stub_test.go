package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStubObjectStorage_PresignedURLs(t *testing.T) {
	s := NewStubObjectStorage()
	require.Equal(t, "https://storage.example.com", s.BaseURL)
	ctx := context.Background()

	t.Run("upload URL embeds key and expiry", func(t *testing.T) {
		url, expiresAt, err := s.GenerateUploadURL(ctx, "moves/2026/challan-0042.pdf", "application/pdf", 15*time.Minute)
		require.NoError(t, err)
		assert.Contains(t, url, "https://storage.example.com/upload/moves/2026/challan-0042.pdf")
		assert.True(t, expiresAt.After(time.Now()))
	})

	t.Run("download URL embeds key and expiry", func(t *testing.T) {
		url, expiresAt, err := s.GenerateDownloadURL(ctx, "moves/2026/challan-0042.pdf", 1*time.Hour)
		require.NoError(t, err)
		assert.Contains(t, url, "https://storage.example.com/download/moves/2026/challan-0042.pdf")
		assert.True(t, expiresAt.After(time.Now()))
	})

	t.Run("empty key rejected", func(t *testing.T) {
		_, _, err := s.GenerateUploadURL(ctx, "", "application/pdf", 15*time.Minute)
		require.Error(t, err)
		_, _, err = s.GenerateDownloadURL(ctx, "", 1*time.Hour)
		require.Error(t, err)
	})
}

func TestStubObjectStorage_DeleteObject(t *testing.T) {
	s := NewStubObjectStorage()
	ctx := context.Background()

	require.NoError(t, s.DeleteObject(ctx, "moves/2026/challan-0042.pdf"))

	err := s.DeleteObject(ctx, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage key is required")
}

func TestStubObjectStorage_ObjectExists(t *testing.T) {
	s := NewStubObjectStorage()
	ctx := context.Background()

	exists, err := s.ObjectExists(ctx, "moves/2026/challan-0042.pdf")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = s.ObjectExists(ctx, "")
	require.Error(t, err)
	assert.False(t, exists)
}
