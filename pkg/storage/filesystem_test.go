package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageSaveReadDelete(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStorage(dir)
	require.NoError(t, err)

	path, err := s.Save("db-backup-1.json", []byte(`{"users":[]}`))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "db-backup-1.json"), path)

	data, err := s.Read("db-backup-1.json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"users":[]}`, string(data))

	require.NoError(t, s.Delete("db-backup-1.json"))
	require.NoError(t, s.Delete("db-backup-1.json"))
	_, err = s.Read("db-backup-1.json")
	assert.Error(t, err)
}

func TestLocalStorageListNewestFirst(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStorage(dir)
	require.NoError(t, err)

	_, err = s.Save("db-backup-old.json", []byte("{}"))
	require.NoError(t, err)
	_, err = s.Save("db-backup-new.json", []byte("{}"))
	require.NoError(t, err)
	_, err = s.Save("notes.txt", []byte("x"))
	require.NoError(t, err)

	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(s.Path("db-backup-old.json"), old, old))

	objects, err := s.List("db-backup-")
	require.NoError(t, err)
	require.Len(t, objects, 2)
	assert.Equal(t, "db-backup-new.json", objects[0].Name)
	assert.Equal(t, "db-backup-old.json", objects[1].Name)
}

func TestLocalStorageCleanupOlderThan(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStorage(dir)
	require.NoError(t, err)

	_, err = s.Save("stale.json", []byte("{}"))
	require.NoError(t, err)
	_, err = s.Save("fresh.json", []byte("{}"))
	require.NoError(t, err)

	old := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(s.Path("stale.json"), old, old))

	deleted, err := s.CleanupOlderThan(24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, []string{"stale.json"}, deleted)

	_, err = s.Read("fresh.json")
	assert.NoError(t, err)
}
