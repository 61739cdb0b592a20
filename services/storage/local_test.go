package storagesvc

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage(t *testing.T) {
	root := t.TempDir()
	store, err := NewLocalStorage(root, "http://test.local/media")
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "images/2026/10/a.txt", strings.NewReader("hello"), 5, "text/plain"))
	data, err := os.ReadFile(filepath.Join(root, "images", "2026", "10", "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
	assert.Equal(t, "http://test.local/media/images/2026/10/a.txt", store.URL("images/2026/10/a.txt"))
	assert.Equal(t, "", store.URL(""))

	require.NoError(t, store.Delete(ctx, "images/2026/10/a.txt"))
	_, err = os.Stat(filepath.Join(root, "images", "2026", "10", "a.txt"))
	assert.True(t, os.IsNotExist(err))

	// deleting a missing file is a no-op
	assert.NoError(t, store.Delete(ctx, "images/2026/10/a.txt"))
}

func TestLocalStorageCancelledContext(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir(), "")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, store.Put(ctx, "a.txt", strings.NewReader("hello"), 5, "text/plain"), context.Canceled)
	_, err = os.Stat(filepath.Join(store.Root(), "a.txt"))
	assert.True(t, os.IsNotExist(err))
}

func TestCleanKey(t *testing.T) {
	tests := []struct {
		key     string
		want    string
		wantErr bool
	}{
		{key: "images/a.png", want: "images/a.png"},
		{key: "/images//a.png", want: "images/a.png"},
		{key: "../../etc/passwd", want: "etc/passwd"},
		{key: "", wantErr: true},
		{key: "/", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, err := cleanKey(tt.key)
			if tt.wantErr {
				assert.ErrorIs(t, err, errInvalidKey)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
