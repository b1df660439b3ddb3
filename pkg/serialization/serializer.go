package serialization

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Options controls the document layout of a Serializer.
type Options struct {
	// Separator between fields, ',' when zero.
	Separator rune
	// HasHeader writes and expects a header line with the column names.
	HasHeader bool
	// Culture is the default culture name, e.g. "nl-NL". Empty means invariant.
	Culture string
	// Comment marks lines to skip while reading. Zero disables comments.
	Comment rune
}

// DefaultOptions returns comma separated documents with a header.
func DefaultOptions() Options {
	return Options{Separator: ',', HasHeader: true}
}

// Serializer reads and writes documents of T records.
type Serializer[T any] struct {
	opts        Options
	transformer *Transformer[T]
}

// NewSerializer compiles T with opts.
func NewSerializer[T any](opts Options) (*Serializer[T], error) {
	if opts.Separator == 0 {
		opts.Separator = ','
	}
	if opts.Separator == '"' || opts.Separator == '\r' || opts.Separator == '\n' {
		return nil, fmt.Errorf("invalid separator %q", opts.Separator)
	}
	culture, err := ParseCulture(opts.Culture)
	if err != nil {
		return nil, err
	}
	tr, err := NewTransformer[T](culture)
	if err != nil {
		return nil, err
	}
	return &Serializer[T]{opts: opts, transformer: tr}, nil
}

// Transformer returns the record transformer used by the serializer.
func (s *Serializer[T]) Transformer() *Transformer[T] {
	return s.transformer
}

// Serialize writes items to w.
func (s *Serializer[T]) Serialize(w io.Writer, items []T) error {
	cw := csv.NewWriter(w)
	cw.Comma = s.opts.Separator
	if s.opts.HasHeader {
		if err := cw.Write(s.transformer.Header()); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}
	for i, item := range items {
		record, err := s.transformer.ToRecord(item)
		if err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write item %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Deserialize reads every record from r.
func (s *Serializer[T]) Deserialize(r io.Reader) ([]T, error) {
	cr := csv.NewReader(r)
	cr.Comma = s.opts.Separator
	cr.Comment = s.opts.Comment
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true
	var mapping []int
	var items []T
	first := true
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		if first && len(record) > 0 {
			record[0] = strings.TrimPrefix(record[0], "\ufeff")
		}
		if first && s.opts.HasHeader {
			first = false
			mapping = s.transformer.Bind(record)
			continue
		}
		first = false
		if isEmptyRecord(record) {
			continue
		}
		line, _ := cr.FieldPos(0)
		item, err := s.transformer.decode(record, mapping, line)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func isEmptyRecord(record []string) bool {
	return len(record) == 1 && strings.TrimSpace(record[0]) == ""
}
