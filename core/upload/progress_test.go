package upload

import (
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgressTracker(t *testing.T) {
	now := time.Date(2026, 10, 15, 10, 0, 0, 0, time.UTC)
	pt := NewProgressTracker(time.Minute)
	pt.nowFunc = func() time.Time { return now }

	require.NoError(t, pt.Start("a", 200))
	assert.ErrorIs(t, pt.Start("a", 200), errUploadIDInUse)

	pt.add("a", 50)
	p, ok := pt.Get("a")
	require.True(t, ok)
	assert.Equal(t, Progress{ID: "a", Bytes: 50, Total: 200, Percent: 25}, p)

	pt.Finish("a", nil)
	p, _ = pt.Get("a")
	assert.True(t, p.Done)
	assert.Equal(t, 100.0, p.Percent)

	// a finished id can be reused
	require.NoError(t, pt.Start("a", 10))
	pt.Finish("a", io.ErrUnexpectedEOF)
	p, _ = pt.Get("a")
	assert.Equal(t, io.ErrUnexpectedEOF.Error(), p.Error)

	// finished entries expire
	now = now.Add(2 * time.Minute)
	_, ok = pt.Get("a")
	assert.False(t, ok)
}

func TestProgressUnknownTotal(t *testing.T) {
	pt := NewProgressTracker(time.Minute)
	require.NoError(t, pt.Start("b", 0))
	pt.add("b", 30)
	p, _ := pt.Get("b")
	assert.Zero(t, p.Percent)

	pt.Finish("b", nil)
	p, _ = pt.Get("b")
	assert.Equal(t, int64(30), p.Total)
	assert.Equal(t, 100.0, p.Percent)
}

func TestProgressReaderRewind(t *testing.T) {
	pt := NewProgressTracker(time.Minute)
	require.NoError(t, pt.Start("c", 4))
	pr := &progressReader{r: bytes.NewReader([]byte("abcd")), id: "c", tracker: pt}

	_, err := io.ReadAll(pr)
	require.NoError(t, err)
	p, _ := pt.Get("c")
	assert.Equal(t, int64(4), p.Bytes)

	_, err = pr.Seek(0, io.SeekStart)
	require.NoError(t, err)
	p, _ = pt.Get("c")
	assert.Zero(t, p.Bytes)

	data, err := io.ReadAll(pr)
	require.NoError(t, err)
	assert.Equal(t, "abcd", string(data))

	_, err = pr.Seek(1, io.SeekStart)
	assert.Error(t, err)
}
