package mvvm

import (
	"context"
	"errors"

	"github.com/HumanPrinter/enkoni-sub003/pkg/extensions"
)

// ErrCannotExecute is returned by Execute when the command's guard refuses
// the parameter.
var ErrCannotExecute = errors.New("command cannot execute")

// RelayCommand forwards Execute and CanExecute to functions.
type RelayCommand[T any] struct {
	execute    func(ctx context.Context, param T) error
	canExecute func(param T) bool

	// CanExecuteChanged fires when the result of CanExecute may have changed.
	CanExecuteChanged extensions.Event[struct{}]
}

// NewRelayCommand creates a command. canExecute may be nil, in which case the
// command can always execute.
func NewRelayCommand[T any](execute func(ctx context.Context, param T) error, canExecute func(param T) bool) *RelayCommand[T] {
	if execute == nil {
		panic("mvvm: nil execute func")
	}
	return &RelayCommand[T]{execute: execute, canExecute: canExecute}
}

// CanExecute reports whether the command accepts param.
func (c *RelayCommand[T]) CanExecute(param T) bool {
	return c.canExecute == nil || c.canExecute(param)
}

// Execute runs the command with param after checking CanExecute.
func (c *RelayCommand[T]) Execute(ctx context.Context, param T) error {
	if !c.CanExecute(param) {
		return ErrCannotExecute
	}
	return c.execute(ctx, param)
}

// RaiseCanExecuteChanged notifies subscribers that CanExecute may return a
// different result.
func (c *RelayCommand[T]) RaiseCanExecuteChanged() {
	c.CanExecuteChanged.Fire(c, struct{}{})
}
