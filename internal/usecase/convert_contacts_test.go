package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/HumanPrinter/enkoni-sub003/internal/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestConvertContactsUseCase_Execute(t *testing.T) {
	t.Run("Should replace the target content and renumber", func(t *testing.T) {
		source := seededRepository(
			&domain.Contact{ID: 10, Name: "Pieter"},
			&domain.Contact{ID: 4, Name: "Anna", Email: "anna@example.com"},
		)
		target := seededRepository(&domain.Contact{ID: 1, Name: "Old"})
		uc := &ConvertContactsUseCase{Source: source, Target: target}
		n, err := uc.Execute(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		got, err := target.FindAll(context.Background(), nil)
		require.NoError(t, err)
		want := []*domain.Contact{
			{ID: 2, Name: "Anna", Email: "anna@example.com"},
			{ID: 3, Name: "Pieter"},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("target mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Should leave the target untouched when saving fails", func(t *testing.T) {
		target := new(mockContactRepository)
		target.On("FindAll", mock.Anything, mock.Anything).Return([]*domain.Contact{}, nil)
		target.On("DeleteRange", mock.Anything, mock.Anything).Return(nil)
		target.On("AddRange", mock.Anything, mock.Anything).Return([]*domain.Contact{}, nil)
		target.On("SaveChanges", mock.Anything).Return(errors.New("read-only"))
		target.On("Reset").Return()
		uc := &ConvertContactsUseCase{Source: seededRepository(), Target: target}
		_, err := uc.Execute(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to save target")
		target.AssertExpectations(t)
	})
}
