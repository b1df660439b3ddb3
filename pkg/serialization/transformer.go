package serialization

import (
	"fmt"
	"reflect"
	"strings"
)

// Transformer converts between values of T and delimited-text records. T must
// be a struct or a pointer to a struct.
type Transformer[T any] struct {
	typ     reflect.Type
	pointer bool
	columns []*column
}

// NewTransformer compiles the csv tags of T. culture is the default culture for
// columns without a csvculture tag.
func NewTransformer[T any](culture Culture) (*Transformer[T], error) {
	t := reflect.TypeFor[T]()
	pointer := false
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
		pointer = true
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %s is not a struct", ErrUnsupportedType, t)
	}
	if culture.Decimal == "" {
		culture = Invariant
	}
	cols, err := columnsOf(t, culture)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", t, err)
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("compile %s: no exported fields", t)
	}
	return &Transformer[T]{typ: t, pointer: pointer, columns: cols}, nil
}

// Header returns the column names in record order.
func (t *Transformer[T]) Header() []string {
	out := make([]string, len(t.columns))
	for i, c := range t.columns {
		out[i] = c.name
	}
	return out
}

// ToRecord formats item as a record.
func (t *Transformer[T]) ToRecord(item T) ([]string, error) {
	v := reflect.ValueOf(&item).Elem()
	if t.pointer {
		if v.IsNil() {
			return nil, fmt.Errorf("cannot transform a nil %s", t.typ)
		}
		v = v.Elem()
	}
	record := make([]string, len(t.columns))
	for i, c := range t.columns {
		s, err := c.formatValue(v)
		if err != nil {
			return nil, &FieldError{Column: c.name, Err: err}
		}
		record[i] = s
	}
	return record, nil
}

// FromRecord parses a record whose fields are in Header order.
func (t *Transformer[T]) FromRecord(record []string) (T, error) {
	return t.decode(record, nil, 0)
}

// Bind maps the columns of T onto a header read from a document. Columns are
// matched by name ignoring case. An unmatched column reads the field at its own
// position only when that header cell is blank and no other column claimed it;
// otherwise it reads as empty and the mapping holds -1.
func (t *Transformer[T]) Bind(header []string) []int {
	positions := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		if key == "" {
			continue
		}
		if _, dup := positions[key]; !dup {
			positions[key] = i
		}
	}
	mapping := make([]int, len(t.columns))
	claimed := make(map[int]bool, len(t.columns))
	for i, c := range t.columns {
		if pos, ok := positions[strings.ToLower(c.name)]; ok {
			mapping[i] = pos
			claimed[pos] = true
		} else {
			mapping[i] = -1
		}
	}
	for i := range t.columns {
		if mapping[i] >= 0 || i >= len(header) || claimed[i] {
			continue
		}
		if strings.TrimSpace(header[i]) == "" {
			mapping[i] = i
			claimed[i] = true
		}
	}
	return mapping
}

// decode builds a T from record. mapping[i] is the record position of column
// i; nil means identity and -1 means absent. Missing fields read as empty.
func (t *Transformer[T]) decode(record []string, mapping []int, line int) (T, error) {
	var zero T
	ptr := reflect.New(t.typ)
	v := ptr.Elem()
	for i, c := range t.columns {
		pos := i
		if mapping != nil {
			pos = mapping[i]
		}
		s := ""
		if pos >= 0 && pos < len(record) {
			s = record[pos]
		}
		if err := c.parseValue(v, s); err != nil {
			return zero, &FieldError{Line: line, Column: c.name, Value: s, Err: err}
		}
	}
	if t.pointer {
		return ptr.Interface().(T), nil
	}
	return v.Interface().(T), nil
}
