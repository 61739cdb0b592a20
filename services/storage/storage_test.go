package storagesvc

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/nyumba/core"
)

// flakySeeker rewinds until it has been rewound okSeeks times.
type flakySeeker struct {
	*bytes.Reader
	okSeeks int
}

func (fs *flakySeeker) Seek(offset int64, whence int) (int64, error) {
	if fs.okSeeks == 0 {
		return 0, errors.New("seek failed")
	}
	fs.okSeeks--
	return fs.Reader.Seek(offset, whence)
}

func Test_retryPut(t *testing.T) {
	orig := putRetryDelay
	putRetryDelay = time.Millisecond
	t.Cleanup(func() { putRetryDelay = orig })

	errDown := errors.New("s3 is down")

	tests := []struct {
		name      string
		reader    io.Reader
		failures  int   // put fails this many times before succeeding
		putErr    error // returned on failures, errDown by default
		wantCalls int
		wantErr   string
	}{
		{name: "success", reader: strings.NewReader("hello"), wantCalls: 1},
		{name: "retried after rewinding", reader: strings.NewReader("hello"), failures: 2, wantCalls: 3},
		{name: "gives up", reader: strings.NewReader("hello"), failures: 5, wantCalls: putAttempts, wantErr: "s3 is down"},
		{name: "reader cannot seek", reader: io.MultiReader(strings.NewReader("hello")), failures: 1, wantCalls: 1, wantErr: "s3 is down"},
		{name: "reader cannot rewind", reader: &flakySeeker{Reader: bytes.NewReader([]byte("hello"))}, failures: 1, wantCalls: 1, wantErr: "s3 is down"},
		{
			name: "rewind fails on retry", reader: &flakySeeker{Reader: bytes.NewReader([]byte("hello")), okSeeks: 1},
			failures: 1, wantCalls: 1, wantErr: "rewinding upload: seek failed",
		},
		{
			name: "too large is not retried", reader: strings.NewReader("hello"), failures: 5,
			putErr: errors.Wrap(core.ErrFileTooLarge, "uploading to s3"), wantCalls: 1, wantErr: "uploading to s3: file is too large",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			putErr := tt.putErr
			if putErr == nil {
				putErr = errDown
			}
			var calls int
			err := retryPut(context.Background(), tt.reader, func(uint, error) {}, func() error {
				calls++
				data, err := io.ReadAll(tt.reader)
				if err != nil {
					return err
				}
				if calls > tt.failures {
					assert.Equal(t, "hello", string(data), "partial body on attempt %d", calls)
					return nil
				}
				return putErr
			})
			assert.Equal(t, tt.wantCalls, calls)
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.EqualError(t, err, tt.wantErr)
			}
		})
	}
}
