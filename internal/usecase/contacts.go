package usecase

import (
	"errors"

	"github.com/HumanPrinter/enkoni-sub003/internal/domain"
	"github.com/HumanPrinter/enkoni-sub003/pkg/entities"
	"github.com/HumanPrinter/enkoni-sub003/pkg/specification"
)

// ErrContactNotFound is returned when no contact has the requested id.
var ErrContactNotFound = errors.New("contact not found")

// ContactRepository is the repository the contact use cases work on.
type ContactRepository = entities.Repository[*domain.Contact]

// StructValidator validates a struct against its validate tags.
type StructValidator interface {
	Struct(s any) error
}

func byID(id int64) specification.Specification[*domain.Contact] {
	return specification.Predicate[*domain.Contact](func(c *domain.Contact) bool {
		return c.ID == id
	})
}

var (
	byName   = specification.By(func(c *domain.Contact) string { return c.Name })
	byRecord = specification.By(func(c *domain.Contact) int64 { return c.ID })
)
