package entities

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

const (
	// DefaultEncoding is used when FileSourceInfo.Encoding is empty.
	DefaultEncoding = "utf-8"
	// DefaultLockTimeout bounds how long a save waits for the lock file.
	DefaultLockTimeout = 30 * time.Second
	// FilePermissions is used for data files written by a repository.
	FilePermissions = 0o644
	// DirPermissions is used when the data file directory must be created.
	DirPermissions = 0o755
)

// DataSourceInfo holds settings shared by every kind of data source.
type DataSourceInfo struct {
	// Name identifies the source in log output. Defaults to the file name.
	Name string
}

// FileSourceInfo describes the file a repository reads and writes.
type FileSourceInfo struct {
	DataSourceInfo
	// FileName is the path of the data file.
	FileName string
	// Encoding is a WHATWG encoding label such as "utf-8" or "windows-1252".
	Encoding string
	// MonitorSourceFile keeps the parsed file in memory and watches the file
	// so external changes invalidate that cache.
	MonitorSourceFile bool
	// LockTimeout bounds lock file acquisition.
	LockTimeout time.Duration
}

// NewFileSourceInfo returns a FileSourceInfo for fileName with defaults.
func NewFileSourceInfo(fileName string) *FileSourceInfo {
	return &FileSourceInfo{
		DataSourceInfo: DataSourceInfo{Name: filepath.Base(fileName)},
		FileName:       fileName,
		Encoding:       DefaultEncoding,
		LockTimeout:    DefaultLockTimeout,
	}
}

// Validate checks the settings and fills in defaults.
func (i *FileSourceInfo) Validate() error {
	if strings.TrimSpace(i.FileName) == "" {
		return fmt.Errorf("file name cannot be empty")
	}
	if strings.HasSuffix(i.FileName, string(filepath.Separator)) {
		return fmt.Errorf("file name %q refers to a directory", i.FileName)
	}
	if i.Encoding == "" {
		i.Encoding = DefaultEncoding
	}
	if i.LockTimeout <= 0 {
		i.LockTimeout = DefaultLockTimeout
	}
	if i.Name == "" {
		i.Name = filepath.Base(i.FileName)
	}
	if _, err := lookupEncoding(i.Encoding); err != nil {
		return err
	}
	return nil
}
