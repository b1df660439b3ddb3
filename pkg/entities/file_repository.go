package entities

import (
	"github.com/HumanPrinter/enkoni-sub003/pkg/extensions"
	"github.com/HumanPrinter/enkoni-sub003/pkg/serialization"
)

// FileRepository is a staging repository persisted in a single file.
type FileRepository[T Entity[T]] struct {
	*StagingRepository[T]
	source *fileSource[T]
}

// NewFileRepository opens a repository on the file described by info, stored
// in format.
func NewFileRepository[T Entity[T]](info *FileSourceInfo, format FileFormat[T], opts ...Option) (*FileRepository[T], error) {
	if info == nil {
		info = &FileSourceInfo{}
	}
	s := newSettings(opts)
	source, err := newFileSource(*info, format, s)
	if err != nil {
		return nil, err
	}
	repo := &FileRepository[T]{
		StagingRepository: NewStagingRepository[T](source, s.logger),
		source:            source,
	}
	if err := source.start(repo, s.watcherFactory); err != nil {
		return nil, err
	}
	return repo, nil
}

// NewCSVFileRepository opens a repository on a delimited text file.
func NewCSVFileRepository[T Entity[T]](info *FileSourceInfo, csv serialization.Options, opts ...Option) (*FileRepository[T], error) {
	format, err := NewCSVFormat[T](csv)
	if err != nil {
		return nil, err
	}
	return NewFileRepository[T](info, format, opts...)
}

// NewXMLFileRepository opens a repository on an XML file with the given root
// and item element names. The XML declaration names the file encoding.
func NewXMLFileRepository[T Entity[T]](info *FileSourceInfo, root, item string, opts ...Option) (*FileRepository[T], error) {
	format := NewXMLFormat[T](root, item)
	if info != nil {
		format.Encoding = info.Encoding
	}
	return NewFileRepository[T](info, format, opts...)
}

// NewJSONFileRepository opens a repository on a JSON document.
func NewJSONFileRepository[T Entity[T]](info *FileSourceInfo, opts ...Option) (*FileRepository[T], error) {
	return NewFileRepository[T](info, NewJSONFormat[T](), opts...)
}

// SourceChanged fires when the monitored file changes. The sender is the
// repository.
func (r *FileRepository[T]) SourceChanged() *extensions.Event[SourceChangedArgs] {
	return &r.source.changed
}

// FileName returns the path of the data file.
func (r *FileRepository[T]) FileName() string {
	return r.source.info.FileName
}

// Invalidate drops the cached file content so the next read goes to disk.
func (r *FileRepository[T]) Invalidate() {
	r.source.invalidate()
}
