package usecase

import (
	"context"
	"fmt"

	"github.com/HumanPrinter/enkoni-sub003/internal/domain"
	"github.com/HumanPrinter/enkoni-sub003/pkg/specification"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

// AddContactUseCase validates a new contact and saves it.
type AddContactUseCase struct {
	Repo      ContactRepository
	Validator StructValidator
	Culture   language.Tag
	Logger    *zap.Logger
}

// Execute normalizes and validates contact, saves it and returns the stored
// contact with its final id.
func (uc *AddContactUseCase) Execute(ctx context.Context, contact *domain.Contact) (*domain.Contact, error) {
	contact.Normalize(uc.Culture)
	if err := uc.Validator.Struct(contact); err != nil {
		return nil, fmt.Errorf("invalid contact: %w", err)
	}
	if _, err := uc.Repo.Add(ctx, contact); err != nil {
		return nil, fmt.Errorf("failed to add contact: %w", err)
	}
	if err := uc.Repo.SaveChanges(ctx); err != nil {
		uc.Repo.Reset()
		return nil, fmt.Errorf("failed to save contacts: %w", err)
	}
	newest := specification.NewQuery[*domain.Contact](nil).
		OrderByDescending(byRecord).
		Take(1)
	saved, err := uc.Repo.FindFirst(ctx, newest, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to read back contact: %w", err)
	}
	if saved == nil {
		return nil, ErrContactNotFound
	}
	if uc.Logger != nil {
		uc.Logger.Info("contact added", zap.Int64("id", saved.ID), zap.String("name", saved.Name))
	}
	return saved, nil
}
