package storagesvc

import (
	"context"
	"io"
	"path"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/nyumba/core"
)

const putAttempts = 3

var (
	putRetryDelay = time.Second // mockable

	errInvalidKey = errors.New("invalid storage key")
)

// New returns the FileStorage selected by conf.Storage.Driver.
func New(ctx context.Context, conf *core.Config, logger core.Logger) (core.FileStorage, error) {
	switch conf.Storage.Driver {
	case "s3":
		return NewS3Storage(ctx, conf.Storage, logger)
	case "local", "":
		return NewLocalStorage(conf.Storage.LocalDir, conf.Storage.PublicBaseURL)
	default:
		return nil, errors.Errorf("unknown storage driver %q", conf.Storage.Driver)
	}
}

// cleanKey rejects keys escaping the storage root.
func cleanKey(key string) (string, error) {
	key = strings.TrimPrefix(path.Clean("/"+strings.TrimSpace(key)), "/")
	if key == "" || key == "." || strings.HasPrefix(key, "..") {
		return "", errInvalidKey
	}
	return key, nil
}

func rewind(s io.Seeker) error {
	_, err := s.Seek(0, io.SeekStart)
	return err
}

// retryPut runs put, and retries it when it fails and r can be rewound.
// Oversized files are never retried, and a failed rewind aborts.
func retryPut(ctx context.Context, r io.Reader, onRetry retry.OnRetryFunc, put func() error) error {
	seeker, canRetry := r.(io.Seeker)
	if canRetry {
		canRetry = rewind(seeker) == nil
	}
	attempts := uint(1)
	if canRetry {
		attempts = putAttempts
	}

	var attempt int
	return retry.Do(
		func() error {
			if attempt++; attempt > 1 {
				if err := rewind(seeker); err != nil {
					return retry.Unrecoverable(errors.Wrap(err, "rewinding upload"))
				}
			}
			return put()
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(putRetryDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return retry.IsRecoverable(err) && !errors.Is(err, core.ErrFileTooLarge)
		}),
		retry.OnRetry(onRetry),
	)
}
