// Package viewmodel holds the view models of the enkoni CLI.
package viewmodel

import (
	"context"
	"fmt"
	"sync"

	"github.com/HumanPrinter/enkoni-sub003/internal/domain"
	"github.com/HumanPrinter/enkoni-sub003/internal/usecase"
	"github.com/HumanPrinter/enkoni-sub003/pkg/mvvm"
	"go.uber.org/zap"
)

// Property names raised by ContactsViewModel.
const (
	PropContacts   = "Contacts"
	PropCount      = "Count"
	PropFilter     = "Filter"
	PropLastChange = "LastChange"
	PropBusy       = "Busy"
)

// ContactsViewModel presents the contact list and reloads it whenever a
// domain.ContactsChanged message arrives. Change messages may arrive on any
// goroutine and are handled one at a time; everything else must be called
// from a single goroutine.
type ContactsViewModel struct {
	*mvvm.ViewModel

	list    *usecase.ListContactsUseCase
	logger  *zap.Logger
	changes sync.Mutex

	contacts   []*domain.Contact
	count      int
	filter     string
	lastChange string
	busy       bool

	// Refresh reloads the contacts. The parameter replaces the name filter.
	Refresh *mvvm.RelayCommand[string]
}

// NewContactsViewModel creates the view model and registers it for change
// notifications on messenger.
func NewContactsViewModel(list *usecase.ListContactsUseCase, messenger *mvvm.Messenger, logger *zap.Logger) *ContactsViewModel {
	if logger == nil {
		logger = zap.NewNop()
	}
	vm := &ContactsViewModel{list: list, logger: logger}
	vm.ViewModel = mvvm.NewViewModel(vm, messenger)
	vm.Refresh = mvvm.NewRelayCommand(vm.refresh, func(string) bool { return !vm.busy })
	mvvm.Register(vm.Messenger(), vm, func(vm *ContactsViewModel, msg domain.ContactsChanged) {
		vm.onContactsChanged(msg)
	})
	return vm
}

// Contacts returns the loaded contacts.
func (vm *ContactsViewModel) Contacts() []*domain.Contact { return vm.contacts }

// Count returns the number of loaded contacts.
func (vm *ContactsViewModel) Count() int { return vm.count }

// Filter returns the current name filter.
func (vm *ContactsViewModel) Filter() string { return vm.filter }

// LastChange describes the last data file change seen.
func (vm *ContactsViewModel) LastChange() string { return vm.lastChange }

func (vm *ContactsViewModel) setBusy(busy bool) {
	if mvvm.SetProperty(vm.ViewModel, &vm.busy, busy, PropBusy) {
		vm.Refresh.RaiseCanExecuteChanged()
	}
}

func (vm *ContactsViewModel) refresh(ctx context.Context, filter string) error {
	vm.setBusy(true)
	defer vm.setBusy(false)
	mvvm.SetProperty(vm.ViewModel, &vm.filter, filter, PropFilter)
	contacts, err := vm.list.Execute(ctx, usecase.ListContactsInput{NameContains: filter})
	if err != nil {
		return err
	}
	vm.contacts = contacts
	vm.RaisePropertyChanged(PropContacts)
	mvvm.SetPropertyBroadcast(vm.ViewModel, &vm.count, len(contacts), PropCount)
	return nil
}

func (vm *ContactsViewModel) onContactsChanged(msg domain.ContactsChanged) {
	vm.changes.Lock()
	defer vm.changes.Unlock()
	change := fmt.Sprintf("%s %s at %s", msg.FileName, msg.Kind, msg.At.Format("15:04:05"))
	mvvm.SetProperty(vm.ViewModel, &vm.lastChange, change, PropLastChange)
	if err := vm.Refresh.Execute(context.Background(), vm.filter); err != nil {
		vm.logger.Warn("failed to refresh contacts", zap.Error(err))
	}
}
