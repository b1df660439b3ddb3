package usecase

import (
	"context"
	"testing"

	"github.com/HumanPrinter/enkoni-sub003/internal/domain"
	"github.com/HumanPrinter/enkoni-sub003/pkg/entities"
	"github.com/HumanPrinter/enkoni-sub003/pkg/specification"
	"github.com/HumanPrinter/enkoni-sub003/pkg/validation"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// Mock for ContactRepository
type mockContactRepository struct {
	mock.Mock
}

func (m *mockContactRepository) FindAll(
	ctx context.Context,
	spec specification.Specification[*domain.Contact],
) ([]*domain.Contact, error) {
	args := m.Called(ctx, spec)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Contact), args.Error(1)
}

func (m *mockContactRepository) FindSingle(
	ctx context.Context,
	spec specification.Specification[*domain.Contact],
	defaultValue *domain.Contact,
) (*domain.Contact, error) {
	args := m.Called(ctx, spec, defaultValue)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Contact), args.Error(1)
}

func (m *mockContactRepository) FindFirst(
	ctx context.Context,
	spec specification.Specification[*domain.Contact],
	defaultValue *domain.Contact,
) (*domain.Contact, error) {
	args := m.Called(ctx, spec, defaultValue)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Contact), args.Error(1)
}

func (m *mockContactRepository) Add(ctx context.Context, c *domain.Contact) (*domain.Contact, error) {
	args := m.Called(ctx, c)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Contact), args.Error(1)
}

func (m *mockContactRepository) AddRange(ctx context.Context, cs []*domain.Contact) ([]*domain.Contact, error) {
	args := m.Called(ctx, cs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Contact), args.Error(1)
}

func (m *mockContactRepository) Update(ctx context.Context, c *domain.Contact) (*domain.Contact, error) {
	args := m.Called(ctx, c)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Contact), args.Error(1)
}

func (m *mockContactRepository) Delete(ctx context.Context, c *domain.Contact) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *mockContactRepository) DeleteRange(ctx context.Context, cs []*domain.Contact) error {
	args := m.Called(ctx, cs)
	return args.Error(0)
}

func (m *mockContactRepository) SaveChanges(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *mockContactRepository) Reset() {
	m.Called()
}

func (m *mockContactRepository) HasChanges() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *mockContactRepository) Close() error {
	args := m.Called()
	return args.Error(0)
}

// Mock for Publisher
type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, msg domain.ContactsChanged) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

var _ ContactRepository = (*mockContactRepository)(nil)

func newValidator(t *testing.T) *validator.Validate {
	t.Helper()
	v := validator.New(validator.WithRequiredStructEnabled())
	require.NoError(t, validation.RegisterValidations(v))
	return v
}

func seededRepository(contacts ...*domain.Contact) *entities.StagingRepository[*domain.Contact] {
	return entities.NewMemoryRepository(zap.NewNop(), contacts...)
}

func names(contacts []*domain.Contact) []string {
	out := make([]string, 0, len(contacts))
	for _, c := range contacts {
		out = append(out, c.Name)
	}
	return out
}
