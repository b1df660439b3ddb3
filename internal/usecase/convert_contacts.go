package usecase

import (
	"context"
	"fmt"

	"github.com/HumanPrinter/enkoni-sub003/internal/domain"
	"github.com/HumanPrinter/enkoni-sub003/pkg/specification"
)

// ConvertContactsUseCase copies every contact from one repository into
// another, replacing what the target held. Record ids are assigned by the
// target.
type ConvertContactsUseCase struct {
	Source ContactRepository
	Target ContactRepository
}

// Execute runs the use case and returns the number of contacts written.
func (uc *ConvertContactsUseCase) Execute(ctx context.Context) (int, error) {
	ordered := specification.NewQuery[*domain.Contact](nil).
		OrderBy(byRecord)
	contacts, err := uc.Source.FindAll(ctx, ordered)
	if err != nil {
		return 0, fmt.Errorf("failed to read source contacts: %w", err)
	}
	existing, err := uc.Target.FindAll(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to read target contacts: %w", err)
	}
	if err := uc.Target.DeleteRange(ctx, existing); err != nil {
		uc.Target.Reset()
		return 0, fmt.Errorf("failed to clear target: %w", err)
	}
	if _, err := uc.Target.AddRange(ctx, contacts); err != nil {
		uc.Target.Reset()
		return 0, fmt.Errorf("failed to stage contacts: %w", err)
	}
	if err := uc.Target.SaveChanges(ctx); err != nil {
		uc.Target.Reset()
		return 0, fmt.Errorf("failed to save target: %w", err)
	}
	return len(contacts), nil
}
