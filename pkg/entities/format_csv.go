package entities

import (
	"io"

	"github.com/HumanPrinter/enkoni-sub003/pkg/serialization"
)

// CSVFormat stores entities as delimited text using the csv struct tags of T.
type CSVFormat[T any] struct {
	serializer *serialization.Serializer[T]
}

// NewCSVFormat compiles T with opts.
func NewCSVFormat[T any](opts serialization.Options) (*CSVFormat[T], error) {
	s, err := serialization.NewSerializer[T](opts)
	if err != nil {
		return nil, err
	}
	return &CSVFormat[T]{serializer: s}, nil
}

// Read implements FileFormat.
func (f *CSVFormat[T]) Read(r io.Reader) ([]T, error) {
	return f.serializer.Deserialize(r)
}

// Write implements FileFormat.
func (f *CSVFormat[T]) Write(w io.Writer, items []T) error {
	return f.serializer.Serialize(w, items)
}
