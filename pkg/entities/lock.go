package entities

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/sethvargo/go-retry"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

const (
	lockRetryInitial = 10 * time.Millisecond
	lockRetryCap     = 250 * time.Millisecond
)

var errLockBusy = errors.New("lock held by another process")

// locker serializes access to a data file across processes.
type locker interface {
	Lock(ctx context.Context) (unlock func(), err error)
	RLock(ctx context.Context) (unlock func(), err error)
}

// newLocker returns a lock file based locker for the OS filesystem. Other
// filesystems live in process memory only and need no cross-process lock.
func newLocker(fs afero.Fs, path string, timeout time.Duration, logger *zap.Logger) locker {
	if _, ok := fs.(*afero.OsFs); !ok {
		return nopLocker{}
	}
	dir, base := filepath.Split(path)
	return &fileLocker{
		path:    filepath.Join(dir, "."+base+".lock"),
		timeout: timeout,
		logger:  logger,
	}
}

type nopLocker struct{}

func (nopLocker) Lock(context.Context) (func(), error)  { return func() {}, nil }
func (nopLocker) RLock(context.Context) (func(), error) { return func() {}, nil }

type fileLocker struct {
	path    string
	timeout time.Duration
	logger  *zap.Logger
}

// Lock acquires the exclusive lock, retrying until the timeout expires.
func (l *fileLocker) Lock(ctx context.Context) (func(), error) {
	return l.acquire(ctx, false)
}

// RLock acquires the shared lock, retrying until the timeout expires.
func (l *fileLocker) RLock(ctx context.Context) (func(), error) {
	return l.acquire(ctx, true)
}

func (l *fileLocker) acquire(ctx context.Context, shared bool) (func(), error) {
	if err := afero.NewOsFs().MkdirAll(filepath.Dir(l.path), DirPermissions); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	// Each acquisition opens its own descriptor so goroutines of this process
	// exclude each other as well.
	lock := flock.New(l.path)
	lockCtx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()
	backoff := retry.WithCappedDuration(lockRetryCap, retry.NewExponential(lockRetryInitial))
	err := retry.Do(lockCtx, backoff, func(context.Context) error {
		var locked bool
		var err error
		if shared {
			locked, err = lock.TryRLock()
		} else {
			locked, err = lock.TryLock()
		}
		if err != nil {
			return err
		}
		if !locked {
			return retry.RetryableError(errLockBusy)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", l.path, err)
	}
	return func() {
		if err := lock.Unlock(); err != nil {
			l.logger.Warn("failed to release lock", zap.String("path", l.path), zap.Error(err))
		}
	}, nil
}
