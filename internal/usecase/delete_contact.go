package usecase

import (
	"context"
	"fmt"
)

// DeleteContactUseCase removes a contact by id.
type DeleteContactUseCase struct {
	Repo ContactRepository
}

// Execute runs the use case.
func (uc *DeleteContactUseCase) Execute(ctx context.Context, id int64) error {
	contact, err := uc.Repo.FindSingle(ctx, byID(id), nil)
	if err != nil {
		return fmt.Errorf("failed to find contact %d: %w", id, err)
	}
	if contact == nil {
		return fmt.Errorf("%w: id %d", ErrContactNotFound, id)
	}
	if err := uc.Repo.Delete(ctx, contact); err != nil {
		return fmt.Errorf("failed to delete contact: %w", err)
	}
	if err := uc.Repo.SaveChanges(ctx); err != nil {
		uc.Repo.Reset()
		return fmt.Errorf("failed to save contacts: %w", err)
	}
	return nil
}
