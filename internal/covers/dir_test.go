package covers

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

func TestDirStore(t *testing.T) {
	ctx := context.Background()
	store, err := NewDirStore(t.TempDir())
	require.NoError(t, err)

	_, _, err = store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Put(ctx, "book-1", "image/png", bytes.NewReader(pngHeader)))
	rc, contentType, err := store.Get(ctx, "book-1")
	require.NoError(t, err)
	defer rc.Close()
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, pngHeader, body)
	assert.Equal(t, "image/png", contentType)

	require.NoError(t, store.Delete(ctx, "book-1"))
	assert.ErrorIs(t, store.Delete(ctx, "book-1"), ErrNotFound)
}

func TestDirStoreRejectsPathKeys(t *testing.T) {
	store, err := NewDirStore(t.TempDir())
	require.NoError(t, err)
	err = store.Put(context.Background(), "../escape", "image/png", bytes.NewReader(pngHeader))
	assert.Error(t, err)
}
