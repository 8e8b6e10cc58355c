package storage

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageSaveOpenDelete(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	name, err := store.Save("u1/COSMOS-1.pdf", []byte("%PDF"))
	require.NoError(t, err)
	assert.Equal(t, "u1/COSMOS-1.pdf", name)
	assert.True(t, store.Exists(name))

	f, err := store.Open(name)
	require.NoError(t, err)
	data, err := io.ReadAll(f)
	require.NoError(t, f.Close())
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(data))

	require.NoError(t, store.Delete(name))
	assert.False(t, store.Exists(name))
	require.NoError(t, store.Delete(name))
}

func TestLocalStorageRejectsEscapingPaths(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	_, err = store.Save("../outside.pdf", []byte("x"))
	assert.ErrorIs(t, err, ErrInvalidPath)
	_, err = store.Save("/etc/passwd", []byte("x"))
	assert.ErrorIs(t, err, ErrInvalidPath)
	assert.False(t, store.Exists("../x"))
}
