package entities

import (
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

type settings struct {
	fs             afero.Fs
	logger         *zap.Logger
	watcherFactory WatcherFactory
}

// Option configures a file repository.
type Option func(*settings)

// WithFs sets the filesystem. The default is the OS filesystem.
func WithFs(fs afero.Fs) Option {
	return func(s *settings) { s.fs = fs }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(s *settings) { s.logger = logger }
}

// WithWatcherFactory replaces the watcher used when the source file is
// monitored. The default uses fsnotify on the OS filesystem and no watcher on
// other filesystems.
func WithWatcherFactory(factory WatcherFactory) Option {
	return func(s *settings) { s.watcherFactory = factory }
}

func newSettings(opts []Option) *settings {
	s := &settings{}
	for _, opt := range opts {
		opt(s)
	}
	if s.fs == nil {
		s.fs = afero.NewOsFs()
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.watcherFactory == nil {
		if _, ok := s.fs.(*afero.OsFs); ok {
			s.watcherFactory = NewFSWatcher
		}
	}
	return s
}
