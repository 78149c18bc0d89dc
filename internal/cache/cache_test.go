package cache_test

import (
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tiliavir/fichajes/internal/cache"
)

func TestFileStoreMissingSlot(t *testing.T) {
	s, err := cache.NewFileStore(afero.NewMemMapFs(), "/data")
	require.NoError(t, err)

	_, err = s.Load(cache.SlotEntries)
	assert.ErrorIs(t, err, cache.ErrNotFound)
}

func TestFileStoreSaveAndLoad(t *testing.T) {
	fs := afero.NewMemMapFs()
	s, err := cache.NewFileStore(fs, "/data")
	require.NoError(t, err)

	require.NoError(t, s.Save(cache.SlotEmployees, []byte(`[{"id":1,"name":"Ana"}]`)))
	require.NoError(t, s.Save(cache.SlotEmployees, []byte(`[{"id":1,"name":"Ana María"}]`)))

	got, err := s.Load(cache.SlotEmployees)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":1,"name":"Ana María"}]`, string(got))

	exists, err := afero.Exists(fs, "/data/employees.json.tmp")
	require.NoError(t, err)
	assert.False(t, exists, "temp file must not survive a save")
}

func TestFileStoreCorruptSlotIsBackedUp(t *testing.T) {
	fs := afero.NewMemMapFs()
	s, err := cache.NewFileStore(fs, "/data")
	require.NoError(t, err)
	require.NoError(t, afero.WriteFile(fs, "/data/entries.json", []byte("{bad json"), 0o600))

	_, err = s.Load(cache.SlotEntries)
	assert.ErrorIs(t, err, cache.ErrCorrupt)

	exists, err := afero.Exists(fs, "/data/entries.json.corrupt")
	require.NoError(t, err)
	assert.True(t, exists, "expected backup file after corrupt JSON")

	_, err = s.Load(cache.SlotEntries)
	assert.ErrorIs(t, err, cache.ErrNotFound)
}

func TestSQLiteStore(t *testing.T) {
	s, err := cache.NewSQLiteStore(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Load(cache.SlotEntries)
	assert.ErrorIs(t, err, cache.ErrNotFound)

	require.NoError(t, s.Save(cache.SlotEntries, []byte(`{"2026-03-03-1":{"type":"Presencial"}}`)))
	require.NoError(t, s.Save(cache.SlotEntries, []byte(`{}`)))
	got, err := s.Load(cache.SlotEntries)
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(got))
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	s, err := cache.Open(cache.Options{Backend: "file", Dir: dir})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = cache.Open(cache.Options{Backend: "sqlite", Dir: dir})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = cache.Open(cache.Options{Backend: "redis", Dir: dir})
	assert.Error(t, err)
}
