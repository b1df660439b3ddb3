package entities

import (
	"errors"
	"reflect"

	"github.com/HumanPrinter/enkoni-sub003/pkg/specification"
)

var (
	// ErrEntityNotFound is returned when an update or delete refers to a record
	// that is neither in the source nor staged.
	ErrEntityNotFound = errors.New("entity not found")
	// ErrMultipleResults is returned by FindSingle when more than one entity
	// matches.
	ErrMultipleResults = errors.New("more than one entity matches")
	// ErrConcurrencyConflict is returned by SaveChanges when a record that was
	// updated or deleted disappeared from the source in the meantime.
	ErrConcurrencyConflict = errors.New("record changed in the data source")
	// ErrNilEntity is returned when a nil entity is passed in.
	ErrNilEntity = errors.New("entity is nil")
	// ErrClosed is returned by operations on a closed repository.
	ErrClosed = errors.New("repository is closed")
)

// Entity is a record stored by a repository. T is the entity type itself,
// usually a pointer such as *Contact. Record ids above zero are persisted ids,
// ids below zero are temporary ids of staged additions.
type Entity[T any] interface {
	RecordID() int64
	SetRecordID(id int64)
	Clone() T
}

// ByRecordID matches the entity with the given record id.
func ByRecordID[T Entity[T]](id int64) specification.Specification[T] {
	return specification.Predicate[T](func(e T) bool { return e.RecordID() == id })
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
		return rv.IsNil()
	}
	return false
}
