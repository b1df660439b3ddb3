package entities

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/HumanPrinter/enkoni-sub003/pkg/extensions"
	"github.com/google/uuid"
	"github.com/spf13/afero"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"golang.org/x/text/encoding"
)

// SourceChangedArgs describes a change of the data file made outside of
// SaveChanges or by it.
type SourceChangedArgs struct {
	FileName string
	Kind     ChangeKind
}

// fileSource is a Source backed by a single file.
type fileSource[T any] struct {
	fs      afero.Fs
	info    FileSourceInfo
	format  FileFormat[T]
	enc     encoding.Encoding
	lock    locker
	logger  *zap.Logger
	changed extensions.Event[SourceChangedArgs]
	sender  any
	loads   singleflight.Group

	mu         sync.Mutex
	cache      []T
	cached     bool
	generation uint64

	watcher   Watcher
	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

func newFileSource[T any](info FileSourceInfo, format FileFormat[T], s *settings) (*fileSource[T], error) {
	if format == nil {
		return nil, errors.New("file format cannot be nil")
	}
	if err := info.Validate(); err != nil {
		return nil, fmt.Errorf("invalid file source: %w", err)
	}
	enc, err := lookupEncoding(info.Encoding)
	if err != nil {
		return nil, err
	}
	logger := s.logger.With(zap.String("source", info.Name))
	return &fileSource[T]{
		fs:     s.fs,
		info:   info,
		format: format,
		enc:    enc,
		lock:   newLocker(s.fs, info.FileName, info.LockTimeout, logger),
		logger: logger,
	}, nil
}

// start begins monitoring the file when the source info asks for it. sender
// is passed to SourceChanged handlers.
func (s *fileSource[T]) start(sender any, factory WatcherFactory) error {
	s.sender = sender
	if !s.info.MonitorSourceFile || factory == nil {
		return nil
	}
	// The watcher needs the parent directory to exist.
	if err := s.fs.MkdirAll(filepath.Dir(s.info.FileName), DirPermissions); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	w, err := factory(s.info.FileName)
	if err != nil {
		return fmt.Errorf("monitor %s: %w", s.info.FileName, err)
	}
	s.watcher = w
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go s.watch()
	s.logger.Debug("monitoring data file", zap.String("file", s.info.FileName))
	return nil
}

// Load implements Source. Without monitoring every call reads the file.
func (s *fileSource[T]) Load(ctx context.Context) ([]T, error) {
	if !s.info.MonitorSourceFile {
		return s.readShared(ctx)
	}
	s.mu.Lock()
	if s.cached {
		items := s.cache
		s.mu.Unlock()
		return items, nil
	}
	s.mu.Unlock()
	v, err, _ := s.loads.Do("load", func() (any, error) {
		s.mu.Lock()
		gen := s.generation
		s.mu.Unlock()
		items, err := s.readShared(ctx)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		// A change seen while reading makes this result stale.
		if s.generation == gen {
			s.cache = items
			s.cached = true
		}
		s.mu.Unlock()
		return items, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]T), nil
}

// Store implements Source.
func (s *fileSource[T]) Store(ctx context.Context, mutate func(current []T) ([]T, error)) error {
	unlock, err := s.lock.Lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()
	current, err := s.read()
	if err != nil {
		return err
	}
	next, err := mutate(current)
	if err != nil {
		return err
	}
	if err := s.write(next); err != nil {
		return err
	}
	s.mu.Lock()
	s.generation++
	s.cache = next
	s.cached = s.info.MonitorSourceFile
	s.mu.Unlock()
	s.logger.Debug("data file written", zap.String("file", s.info.FileName), zap.Int("records", len(next)))
	return nil
}

func (s *fileSource[T]) readShared(ctx context.Context) ([]T, error) {
	unlock, err := s.lock.RLock(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()
	return s.read()
}

// read parses the file. A missing or empty file holds no entities.
func (s *fileSource[T]) read() ([]T, error) {
	f, err := s.fs.Open(s.info.FileName)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", s.info.FileName, err)
	}
	defer f.Close()
	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", s.info.FileName, err)
	}
	if stat.Size() == 0 {
		return nil, nil
	}
	items, err := s.format.Read(decodingReader(f, s.enc))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.info.FileName, err)
	}
	return items, nil
}

// write replaces the file atomically through a temporary file in the same
// directory.
func (s *fileSource[T]) write(items []T) error {
	if err := s.fs.MkdirAll(filepath.Dir(s.info.FileName), DirPermissions); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	tmp := s.info.FileName + ".tmp-" + uuid.NewString()
	f, err := s.fs.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, FilePermissions)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	w := encodingWriter(f, s.enc)
	err = s.format.Write(w, items)
	if closeErr := w.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = f.Sync()
	}
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		s.removeTemp(tmp)
		return fmt.Errorf("write %s: %w", s.info.FileName, err)
	}
	if err := s.fs.Rename(tmp, s.info.FileName); err != nil {
		s.removeTemp(tmp)
		return fmt.Errorf("replace %s: %w", s.info.FileName, err)
	}
	return nil
}

func (s *fileSource[T]) removeTemp(path string) {
	if err := s.fs.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.logger.Warn("failed to remove temp file", zap.String("file", path), zap.Error(err))
	}
}

// invalidate drops the cached content so the next Load reads the file.
func (s *fileSource[T]) invalidate() {
	s.mu.Lock()
	s.generation++
	s.cache = nil
	s.cached = false
	s.mu.Unlock()
}

func (s *fileSource[T]) watch() {
	defer close(s.done)
	events := s.watcher.Events()
	errs := s.watcher.Errors()
	for {
		select {
		case <-s.stop:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			s.invalidate()
			s.logger.Debug("data file changed", zap.String("file", ev.Path), zap.String("kind", string(ev.Kind)))
			s.changed.Fire(s.sender, SourceChangedArgs{FileName: s.info.FileName, Kind: ev.Kind})
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			s.logger.Warn("data file watcher failed", zap.Error(err))
		}
	}
}

// Close implements Source.
func (s *fileSource[T]) Close() error {
	var err error
	s.closeOnce.Do(func() {
		if s.watcher == nil {
			return
		}
		close(s.stop)
		err = s.watcher.Close()
		<-s.done
	})
	return err
}
