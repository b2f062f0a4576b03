package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageWriteRead(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStorage(LocalConfig{BasePath: t.TempDir()})
	require.NoError(t, err)

	ok, err := s.Exists(ctx, "history/log.json")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Write(ctx, "history/log.json", strings.NewReader("[]"), 2, "application/json"))

	ok, err = s.Exists(ctx, "history/log.json")
	require.NoError(t, err)
	assert.True(t, ok)

	rc, err := s.Read(ctx, "history/log.json")
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))

	// Overwrite replaces the content and leaves no temp files behind.
	require.NoError(t, s.Write(ctx, "history/log.json", strings.NewReader(`[{"id":"1"}]`), -1, ""))
	entries, err := os.ReadDir(filepath.Join(s.basePath, "history"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestLocalStorageReadMissing(t *testing.T) {
	s, err := NewLocalStorage(LocalConfig{BasePath: t.TempDir()})
	require.NoError(t, err)

	_, err = s.Read(context.Background(), "nope.json")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestLocalStorageKeysStayInsideBase(t *testing.T) {
	base := t.TempDir()
	s, err := NewLocalStorage(LocalConfig{BasePath: base})
	require.NoError(t, err)

	assert.Equal(t, s.basePath, s.fullPath(".."))
	assert.True(t, strings.HasPrefix(s.fullPath("../../etc/passwd"), s.basePath))
}

func TestNewRejectsUnknownType(t *testing.T) {
	_, err := New(context.Background(), Config{Type: "ftp"})
	assert.Error(t, err)
}
