package entities

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"
)

// ErrChecksumMismatch is returned when the items of a JSON document do not
// match the checksum stored with them.
var ErrChecksumMismatch = errors.New("checksum mismatch")

// jsonDocument wraps the items with metadata used to detect corruption.
type jsonDocument struct {
	SchemaVersion string          `json:"schema_version"`
	Checksum      string          `json:"checksum"`
	UpdatedAt     time.Time       `json:"updated_at"`
	Count         int             `json:"count"`
	Items         json.RawMessage `json:"items"`
}

// JSONFormat stores entities as a JSON document with a schema version and a
// SHA-256 checksum over the items.
type JSONFormat[T any] struct {
	// Version is written as schema_version and checked on read.
	Version string
	now     func() time.Time
}

// NewJSONFormat returns a JSON format at DefaultFormatVersion.
func NewJSONFormat[T any]() *JSONFormat[T] {
	return &JSONFormat[T]{Version: DefaultFormatVersion, now: time.Now}
}

// Read implements FileFormat.
func (f *JSONFormat[T]) Read(r io.Reader) ([]T, error) {
	var doc jsonDocument
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("decode json document: %w", err)
	}
	version := f.Version
	if version == "" {
		version = DefaultFormatVersion
	}
	if err := checkVersion(version, doc.SchemaVersion); err != nil {
		return nil, err
	}
	if len(doc.Items) == 0 {
		return nil, nil
	}
	// Checksums are computed over the compact form.
	var compact bytes.Buffer
	if err := json.Compact(&compact, doc.Items); err != nil {
		return nil, fmt.Errorf("decode json items: %w", err)
	}
	if doc.Checksum != "" && doc.Checksum != checksum(compact.Bytes()) {
		return nil, ErrChecksumMismatch
	}
	var items []T
	if err := json.Unmarshal(compact.Bytes(), &items); err != nil {
		return nil, fmt.Errorf("decode json items: %w", err)
	}
	if doc.Count != len(items) {
		return nil, fmt.Errorf("document declares %d items but holds %d", doc.Count, len(items))
	}
	return items, nil
}

// Write implements FileFormat.
func (f *JSONFormat[T]) Write(w io.Writer, items []T) error {
	if items == nil {
		items = []T{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshal items: %w", err)
	}
	version := f.Version
	if version == "" {
		version = DefaultFormatVersion
	}
	now := time.Now
	if f.now != nil {
		now = f.now
	}
	doc := jsonDocument{
		SchemaVersion: version,
		Checksum:      checksum(data),
		UpdatedAt:     now().UTC(),
		Count:         len(items),
		Items:         data,
	}
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json document: %w", err)
	}
	out = append(out, '\n')
	_, err = w.Write(out)
	return err
}

func checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
