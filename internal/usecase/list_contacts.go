package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/HumanPrinter/enkoni-sub003/internal/domain"
	"github.com/HumanPrinter/enkoni-sub003/pkg/specification"
)

// ListContactsInput filters the listing.
type ListContactsInput struct {
	// NameContains matches names case-insensitively. Empty matches all.
	NameContains string
	// Limit caps the number of results. Zero means unlimited.
	Limit int
}

// ListContactsUseCase returns contacts ordered by name.
type ListContactsUseCase struct {
	Repo ContactRepository
}

// Execute runs the use case.
func (uc *ListContactsUseCase) Execute(ctx context.Context, in ListContactsInput) ([]*domain.Contact, error) {
	var spec specification.Specification[*domain.Contact]
	if needle := strings.ToLower(strings.TrimSpace(in.NameContains)); needle != "" {
		spec = specification.Predicate[*domain.Contact](func(c *domain.Contact) bool {
			return strings.Contains(strings.ToLower(c.Name), needle)
		})
	}
	query := specification.NewQuery(spec).
		OrderBy(byName).
		OrderBy(byRecord).
		Take(in.Limit)
	contacts, err := uc.Repo.FindAll(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	return contacts, nil
}
