package main

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingUploader struct {
	mu   sync.Mutex
	keys map[string]string
	fail string
}

func (u *recordingUploader) Upload(_ context.Context, key, contentType string, body io.Reader) (string, error) {
	if _, err := io.ReadAll(body); err != nil {
		return "", err
	}
	if key == u.fail {
		return "", errors.New("access denied")
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	u.keys[key] = contentType
	return "https://bucket/" + key, nil
}

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, n := range names {
		p := filepath.Join(dir, n)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte("img"), 0o644))
	}
}

func TestCollectImages_FiltersByExtension(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "b.png", "a.JPG", "notes.txt", "day2/c.webp")

	files, err := collectImages(dir)
	require.NoError(t, err)

	var names []string
	for _, f := range files {
		names = append(names, filepath.Base(f))
	}
	sort.Strings(names)
	assert.Equal(t, []string{"a.JPG", "b.png", "c.webp"}, names)
}

func TestUploadAll(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "one.png", "two.jpg")
	files, err := collectImages(dir)
	require.NoError(t, err)

	up := &recordingUploader{keys: map[string]string{}}
	require.NoError(t, uploadAll(context.Background(), up, "gallery", files, 2, zap.NewNop()))

	assert.Equal(t, map[string]string{
		"gallery/one.png": "image/png",
		"gallery/two.jpg": "image/jpeg",
	}, up.keys)
}

func TestUploadAll_ReportsFailure(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "one.png", "two.png")
	files, err := collectImages(dir)
	require.NoError(t, err)

	up := &recordingUploader{keys: map[string]string{}, fail: "gallery/two.png"}
	err = uploadAll(context.Background(), up, "gallery", files, 1, zap.NewNop())
	assert.ErrorContains(t, err, "access denied")
}
