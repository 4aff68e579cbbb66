package jsonfile

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type doc struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestWriteAtomicRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.json")

	require.NoError(t, WriteAtomic(path, doc{Name: "first", Count: 1}))
	require.NoError(t, WriteAtomic(path, doc{Name: "second", Count: 2}))

	var got doc
	require.NoError(t, Read(path, &got))
	assert.Equal(t, doc{Name: "second", Count: 2}, got)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestWriteAtomicKeepsOldFileOnEncodeError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	require.NoError(t, WriteAtomic(path, doc{Name: "kept"}))

	err := WriteAtomic(path, map[string]any{"bad": make(chan int)})
	require.Error(t, err)

	var got doc
	require.NoError(t, Read(path, &got))
	assert.Equal(t, "kept", got.Name)
}

func TestReadMissingFile(t *testing.T) {
	err := Read(filepath.Join(t.TempDir(), "missing.json"), &doc{})
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestReadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"name":`), 0o644))

	err := Read(path, &doc{})
	require.Error(t, err)
	assert.False(t, errors.Is(err, fs.ErrNotExist))
}
