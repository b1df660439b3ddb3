package serialization

import (
	"encoding"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"
)

var (
	timeType            = reflect.TypeFor[time.Time]()
	durationType        = reflect.TypeFor[time.Duration]()
	textMarshalerType   = reflect.TypeFor[encoding.TextMarshaler]()
	textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()
)

// column is the compiled mapping of one struct field.
type column struct {
	name      string
	index     int
	hasIndex  bool
	path      []int
	typ       reflect.Type // field type, pointer stripped
	nullable  bool
	format    string
	nullValue string
	culture   Culture
	number    numberFormat
	layout    string
	boolTrue  string
	boolFalse string
}

// columnsOf walks the exported fields of struct type t and returns its
// columns in record order.
func columnsOf(t reflect.Type, culture Culture) ([]*column, error) {
	var cols []*column
	if err := collect(t, nil, culture, &cols); err != nil {
		return nil, err
	}
	seen := make(map[int]string)
	for _, c := range cols {
		if !c.hasIndex {
			continue
		}
		if prev, dup := seen[c.index]; dup {
			return nil, fmt.Errorf("columns %s and %s share index %d", prev, c.name, c.index)
		}
		seen[c.index] = c.name
	}
	// Indexed columns first by index, the rest in declaration order.
	sort.SliceStable(cols, func(i, j int) bool {
		a, b := cols[i], cols[j]
		if a.hasIndex != b.hasIndex {
			return a.hasIndex
		}
		if a.hasIndex {
			return a.index < b.index
		}
		return false
	})
	return cols, nil
}

func collect(t reflect.Type, parent []int, culture Culture, cols *[]*column) error {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag, tagged := f.Tag.Lookup("csv")
		if tag == "-" {
			continue
		}
		path := append(append([]int(nil), parent...), i)
		if f.Anonymous && !tagged {
			ft := f.Type
			if ft.Kind() == reflect.Pointer {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct && ft != timeType && !implementsText(ft) {
				if f.Type.Kind() == reflect.Pointer {
					return fmt.Errorf("embedded pointer %s is not supported", f.Name)
				}
				if err := collect(ft, path, culture, cols); err != nil {
					return err
				}
				continue
			}
		}
		if !f.IsExported() {
			continue
		}
		c, err := newColumn(f, path, culture)
		if err != nil {
			return err
		}
		*cols = append(*cols, c)
	}
	return nil
}

func newColumn(f reflect.StructField, path []int, culture Culture) (*column, error) {
	c := &column{
		name:      f.Name,
		path:      path,
		typ:       f.Type,
		format:    f.Tag.Get("csvformat"),
		nullValue: f.Tag.Get("csvnull"),
		culture:   culture,
	}
	if name := f.Tag.Get("csv"); name != "" {
		c.name = name
	}
	if c.typ.Kind() == reflect.Pointer {
		c.typ = c.typ.Elem()
		c.nullable = true
	}
	if idx, ok := f.Tag.Lookup("csvindex"); ok {
		n, err := strconv.Atoi(idx)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("field %s: invalid csvindex %q", f.Name, idx)
		}
		c.index, c.hasIndex = n, true
	}
	if name, ok := f.Tag.Lookup("csvculture"); ok {
		cul, err := ParseCulture(name)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f.Name, err)
		}
		c.culture = cul
	}
	if err := c.compile(); err != nil {
		return nil, fmt.Errorf("field %s: %w", f.Name, err)
	}
	return c, nil
}

func implementsText(t reflect.Type) bool {
	pt := reflect.PointerTo(t)
	return (t.Implements(textMarshalerType) || pt.Implements(textMarshalerType)) &&
		pt.Implements(textUnmarshalerType)
}

func (c *column) compile() error {
	switch {
	case c.typ == timeType:
		layout, err := dateLayout(c.format)
		if err != nil {
			return err
		}
		c.layout = layout
		return nil
	case c.typ == durationType, implementsText(c.typ):
		return nil
	}
	switch c.typ.Kind() {
	case reflect.String:
		return nil
	case reflect.Bool:
		if c.format != "" {
			t, f, ok := strings.Cut(c.format, "|")
			if !ok || t == "" || f == "" || strings.EqualFold(t, f) {
				return fmt.Errorf("boolean format %q must look like \"true|false\"", c.format)
			}
			c.boolTrue, c.boolFalse = t, f
		}
		return nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		nf, err := compileNumberFormat(c.format)
		if err != nil {
			return err
		}
		c.number = nf
		return nil
	}
	return fmt.Errorf("%w: %s", ErrUnsupportedType, c.typ)
}

// field returns the settable field of struct v this column maps to.
func (c *column) field(v reflect.Value) reflect.Value {
	return v.FieldByIndex(c.path)
}

// formatValue renders the field of struct v.
func (c *column) formatValue(v reflect.Value) (string, error) {
	fv := c.field(v)
	if c.nullable {
		if fv.IsNil() {
			return c.nullValue, nil
		}
		fv = fv.Elem()
	}
	if c.typ.Kind() == reflect.String && c.nullValue != "" && fv.String() == "" {
		return c.nullValue, nil
	}
	switch {
	case c.typ == timeType:
		t := fv.Interface().(time.Time)
		if t.IsZero() && c.nullValue != "" {
			return c.nullValue, nil
		}
		return t.Format(c.layout), nil
	case c.typ == durationType:
		return time.Duration(fv.Int()).String(), nil
	case implementsText(c.typ):
		var m encoding.TextMarshaler
		if fv.Type().Implements(textMarshalerType) {
			m = fv.Interface().(encoding.TextMarshaler)
		} else {
			ptr := reflect.New(c.typ)
			ptr.Elem().Set(fv)
			m = ptr.Interface().(encoding.TextMarshaler)
		}
		b, err := m.MarshalText()
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	switch c.typ.Kind() {
	case reflect.String:
		return fv.String(), nil
	case reflect.Bool:
		if c.boolTrue != "" {
			if fv.Bool() {
				return c.boolTrue, nil
			}
			return c.boolFalse, nil
		}
		return strconv.FormatBool(fv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return c.number.formatInt(fv.Int(), c.culture, c.typ.Bits()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return c.number.formatUint(fv.Uint(), c.culture), nil
	case reflect.Float32, reflect.Float64:
		return c.number.formatFloat(fv.Float(), c.culture)
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedType, c.typ)
}

// parseValue converts s and stores it in the field of struct v.
func (c *column) parseValue(v reflect.Value, s string) error {
	fv := c.field(v)
	if s == c.nullValue || s == "" {
		fv.Set(reflect.Zero(fv.Type()))
		return nil
	}
	target := fv
	if c.nullable {
		target = reflect.New(c.typ).Elem()
	}
	if err := c.parseInto(target, s); err != nil {
		return err
	}
	if c.nullable {
		ptr := reflect.New(c.typ)
		ptr.Elem().Set(target)
		fv.Set(ptr)
	}
	return nil
}

func (c *column) parseInto(target reflect.Value, s string) error {
	switch {
	case c.typ == timeType:
		t, err := time.Parse(c.layout, strings.TrimSpace(s))
		if err != nil {
			return err
		}
		target.Set(reflect.ValueOf(t))
		return nil
	case c.typ == durationType:
		d, err := time.ParseDuration(strings.TrimSpace(s))
		if err != nil {
			return err
		}
		target.SetInt(int64(d))
		return nil
	case implementsText(c.typ):
		return target.Addr().Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(s))
	}
	switch c.typ.Kind() {
	case reflect.String:
		target.SetString(s)
	case reflect.Bool:
		b, err := c.parseBool(s)
		if err != nil {
			return err
		}
		target.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := c.number.parseInt(s, c.culture, c.typ.Bits())
		if err != nil {
			return err
		}
		if target.OverflowInt(n) {
			return fmt.Errorf("value %d overflows %s", n, c.typ)
		}
		target.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := c.number.parseUint(s, c.culture, c.typ.Bits())
		if err != nil {
			return err
		}
		if target.OverflowUint(n) {
			return fmt.Errorf("value %d overflows %s", n, c.typ)
		}
		target.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := c.number.parseFloat(s, c.culture, c.typ.Bits())
		if err != nil {
			return err
		}
		target.SetFloat(f)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedType, c.typ)
	}
	return nil
}

func (c *column) parseBool(s string) (bool, error) {
	s = strings.TrimSpace(s)
	if c.boolTrue != "" {
		switch {
		case strings.EqualFold(s, c.boolTrue):
			return true, nil
		case strings.EqualFold(s, c.boolFalse):
			return false, nil
		}
		return false, fmt.Errorf("expected %q or %q", c.boolTrue, c.boolFalse)
	}
	return strconv.ParseBool(s)
}
