package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestJSONFile_LoadMissingReturnsZero(t *testing.T) {
	f, err := NewJSONFile[map[string]record](t.TempDir(), "records.json")
	require.NoError(t, err)

	assert.False(t, f.Exists())
	data, err := f.Load()
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestJSONFile_SaveAndLoad(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	f, err := NewJSONFile[map[string]record](dir, "records.json")
	require.NoError(t, err)

	in := map[string]record{"a": {Name: "a", Count: 2}}
	require.NoError(t, f.Save(in))
	assert.True(t, f.Exists())

	_, err = os.Stat(f.Path() + ".tmp")
	assert.True(t, os.IsNotExist(err))

	out, err := f.Load()
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestJSONFile_LoadCorrupt(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{not json"), 0o644))

	f, err := NewJSONFile[[]record](dir, "bad.json")
	require.NoError(t, err)

	_, err = f.Load()
	assert.Error(t, err)
}
