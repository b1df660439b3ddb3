package entities

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
)

const (
	defaultXMLRoot = "Entities"
	defaultXMLItem = "Entity"
)

// XMLFormat stores entities as child elements of a single root element. The
// root carries the format version in its version attribute.
type XMLFormat[T any] struct {
	// Root is the name of the document element.
	Root string
	// Item is the element name of each entity.
	Item string
	// Version is written to the root element and checked on read.
	Version string
	// Encoding is declared in the XML declaration. Empty omits it.
	Encoding string
}

// NewXMLFormat returns a format using root and item as element names. Empty
// names fall back to "Entities" and "Entity".
func NewXMLFormat[T any](root, item string) *XMLFormat[T] {
	if root == "" {
		root = defaultXMLRoot
	}
	if item == "" {
		item = defaultXMLItem
	}
	return &XMLFormat[T]{Root: root, Item: item, Version: DefaultFormatVersion}
}

func (f *XMLFormat[T]) version() string {
	if f.Version == "" {
		return DefaultFormatVersion
	}
	return f.Version
}

// Read implements FileFormat. Elements other than the item element are
// skipped.
func (f *XMLFormat[T]) Read(r io.Reader) ([]T, error) {
	dec := xml.NewDecoder(r)
	// The input is already UTF-8 whatever the declaration says.
	dec.CharsetReader = func(_ string, input io.Reader) (io.Reader, error) { return input, nil }
	root, err := f.findRoot(dec)
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := checkVersion(f.version(), attr(root, "version")); err != nil {
		return nil, err
	}
	var items []T
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("read xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if !strings.EqualFold(t.Name.Local, f.Item) {
				if err := dec.Skip(); err != nil {
					return nil, fmt.Errorf("read xml: %w", err)
				}
				continue
			}
			item, err := f.decodeItem(dec, &t)
			if err != nil {
				line, _ := dec.InputPos()
				return nil, fmt.Errorf("decode %s at line %d: %w", f.Item, line, err)
			}
			items = append(items, item)
		case xml.EndElement:
			return items, nil
		}
	}
}

func (f *XMLFormat[T]) findRoot(dec *xml.Decoder) (xml.StartElement, error) {
	for {
		tok, err := dec.Token()
		if err != nil {
			return xml.StartElement{}, err
		}
		if se, ok := tok.(xml.StartElement); ok {
			if !strings.EqualFold(se.Name.Local, f.Root) {
				return xml.StartElement{}, fmt.Errorf("unexpected root element %q, expected %q", se.Name.Local, f.Root)
			}
			return se, nil
		}
	}
}

func (f *XMLFormat[T]) decodeItem(dec *xml.Decoder, start *xml.StartElement) (T, error) {
	var item T
	typ := reflect.TypeFor[T]()
	if typ.Kind() == reflect.Pointer {
		item = reflect.New(typ.Elem()).Interface().(T)
		err := dec.DecodeElement(item, start)
		return item, err
	}
	err := dec.DecodeElement(&item, start)
	return item, err
}

// Write implements FileFormat.
func (f *XMLFormat[T]) Write(w io.Writer, items []T) error {
	decl := `version="1.0"`
	if f.Encoding != "" {
		decl += fmt.Sprintf(` encoding="%s"`, f.Encoding)
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.EncodeToken(xml.ProcInst{Target: "xml", Inst: []byte(decl)}); err != nil {
		return fmt.Errorf("write xml declaration: %w", err)
	}
	root := xml.StartElement{
		Name: xml.Name{Local: f.Root},
		Attr: []xml.Attr{{Name: xml.Name{Local: "version"}, Value: f.version()}},
	}
	if err := enc.EncodeToken(root); err != nil {
		return fmt.Errorf("write xml: %w", err)
	}
	itemStart := xml.StartElement{Name: xml.Name{Local: f.Item}}
	for i, item := range items {
		if err := enc.EncodeElement(item, itemStart); err != nil {
			return fmt.Errorf("encode item %d: %w", i, err)
		}
	}
	if err := enc.EncodeToken(root.End()); err != nil {
		return fmt.Errorf("write xml: %w", err)
	}
	if err := enc.Flush(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

func attr(se xml.StartElement, name string) string {
	for _, a := range se.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}
