package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/HumanPrinter/enkoni-sub003/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

// UpdateContactInput patches a contact. Nil fields are left unchanged.
type UpdateContactInput struct {
	ID       int64
	Name     *string
	Email    *string
	Phone    *string
	IBAN     *string
	Birthday *time.Time
	Balance  *float64
}

func (in UpdateContactInput) apply(c *domain.Contact) {
	if in.Name != nil {
		c.Name = *in.Name
	}
	if in.Email != nil {
		c.Email = *in.Email
	}
	if in.Phone != nil {
		c.Phone = *in.Phone
	}
	if in.IBAN != nil {
		c.IBAN = *in.IBAN
	}
	if in.Birthday != nil {
		b := *in.Birthday
		c.Birthday = &b
	}
	if in.Balance != nil {
		c.Balance = *in.Balance
	}
}

// UpdateContactUseCase changes an existing contact.
type UpdateContactUseCase struct {
	Repo      ContactRepository
	Validator StructValidator
	Culture   language.Tag
	Logger    *zap.Logger
}

// Execute runs the use case and returns the updated contact.
func (uc *UpdateContactUseCase) Execute(ctx context.Context, in UpdateContactInput) (*domain.Contact, error) {
	contact, err := uc.Repo.FindSingle(ctx, byID(in.ID), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to find contact %d: %w", in.ID, err)
	}
	if contact == nil {
		return nil, fmt.Errorf("%w: id %d", ErrContactNotFound, in.ID)
	}
	in.apply(contact)
	contact.Normalize(uc.Culture)
	if err := uc.Validator.Struct(contact); err != nil {
		return nil, fmt.Errorf("invalid contact: %w", err)
	}
	updated, err := uc.Repo.Update(ctx, contact)
	if err != nil {
		return nil, fmt.Errorf("failed to update contact: %w", err)
	}
	if err := uc.Repo.SaveChanges(ctx); err != nil {
		uc.Repo.Reset()
		return nil, fmt.Errorf("failed to save contacts: %w", err)
	}
	if uc.Logger != nil {
		uc.Logger.Info("contact updated", zap.Int64("id", updated.ID))
	}
	return updated, nil
}
