package client

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStorage_RoundTrip(t *testing.T) {
	// Arrange
	dir := filepath.Join(t.TempDir(), "state")
	fs := NewFileStorage(dir)

	// Act
	require.NoError(t, fs.Save(KeyPhone, []byte(`{"phoneNumber":"+256781234567"}`)))
	data, err := fs.Load(KeyPhone)

	// Assert
	require.NoError(t, err)
	assert.JSONEq(t, `{"phoneNumber":"+256781234567"}`, string(data))

	info, err := os.Stat(filepath.Join(dir, KeyPhone+".json"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	entries, _ := os.ReadDir(dir)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestFileStorage_MissingAndDelete(t *testing.T) {
	fs := NewFileStorage(t.TempDir())

	_, err := fs.Load(KeyAuth)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, fs.Delete(KeyAuth), "deleting a missing key is fine")

	require.NoError(t, fs.Save(KeyAuth, []byte(`{}`)))
	require.NoError(t, fs.Delete(KeyAuth))
	_, err = fs.Load(KeyAuth)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileStorage_RejectsPathKeys(t *testing.T) {
	fs := NewFileStorage(t.TempDir())

	for _, key := range []string{"../escape", "a/b", "", "UPPER"} {
		assert.Error(t, fs.Save(key, []byte("x")), key)
	}
}

func TestMemoryStorage_CopiesData(t *testing.T) {
	m := NewMemoryStorage()
	buf := []byte("abc")
	require.NoError(t, m.Save("k", buf))
	buf[0] = 'z'

	got, err := m.Load("k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}
