package corpus

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contextwindows/ctxlab/pkg/errors"
)

func TestLoadDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("alpha document"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "finance"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "finance", "b.txt"), []byte("beta document"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.md"), []byte("not loaded"), 0o644))

	docs, err := LoadDirectory(dir)
	require.NoError(t, err)
	require.Len(t, docs, 2)

	byContent := map[string]Document{}
	for _, d := range docs {
		byContent[d.Content] = d
	}

	assert.Empty(t, byContent["alpha document"].Category)
	assert.Equal(t, "finance", byContent["beta document"].Category)
}

func TestLoadDirectoryNormalizesNFC(t *testing.T) {
	dir := t.TempDir()
	// "é" as combining sequence e + U+0301.
	decomposed := "café"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "nfc.txt"), []byte(decomposed), 0o644))

	docs, err := LoadDirectory(dir)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "café", docs[0].Content)
}

func TestLoadDirectoryErrors(t *testing.T) {
	_, err := LoadDirectory(filepath.Join(t.TempDir(), "does-not-exist"))
	require.Error(t, err)
	assert.Equal(t, errors.ResourceNotFound, errors.CodeOf(err))

	empty := t.TempDir()
	_, err = LoadDirectory(empty)
	require.Error(t, err)
	assert.Equal(t, errors.ResourceNotFound, errors.CodeOf(err))

	f := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(f, []byte("x"), 0o644))
	_, err = LoadDirectory(f)
	require.Error(t, err)
	assert.Equal(t, errors.InvalidParameter, errors.CodeOf(err))
}
