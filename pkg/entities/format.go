package entities

import (
	"errors"
	"fmt"
	"io"

	"github.com/Masterminds/semver/v3"
)

// DefaultFormatVersion is written to XML and JSON documents that do not set a
// version of their own.
const DefaultFormatVersion = "1.0.0"

// ErrIncompatibleVersion is returned when a document was written with a
// format version this program cannot read.
var ErrIncompatibleVersion = errors.New("incompatible document version")

// FileFormat reads and writes a complete document of entities. Both sides
// work on UTF-8 text; the file source converts from and to the configured
// encoding.
type FileFormat[T any] interface {
	Read(r io.Reader) ([]T, error)
	Write(w io.Writer, items []T) error
}

// checkVersion accepts found when it has the same major version as current
// and is not older. An empty found version is accepted.
func checkVersion(current, found string) error {
	if found == "" {
		return nil
	}
	v, err := semver.NewVersion(found)
	if err != nil {
		return fmt.Errorf("%w: %q is not a version: %v", ErrIncompatibleVersion, found, err)
	}
	c, err := semver.NewConstraint("^" + current)
	if err != nil {
		return fmt.Errorf("invalid format version %q: %w", current, err)
	}
	if !c.Check(v) {
		return fmt.Errorf("%w: document has %s, expected %s", ErrIncompatibleVersion, found, c)
	}
	return nil
}
