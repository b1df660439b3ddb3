package mvvm

import (
	"github.com/HumanPrinter/enkoni-sub003/pkg/extensions"
)

// PropertyChangedArgs names the property that changed.
type PropertyChangedArgs struct {
	PropertyName string
}

// PropertyChangedMessage is broadcast over the messenger when a property set
// with SetPropertyBroadcast changes.
type PropertyChangedMessage[T any] struct {
	Sender       any
	PropertyName string
	OldValue     T
	NewValue     T
}

// ViewModel is embedded by view models to get property change notification
// and access to a messenger.
//
//	type ContactViewModel struct {
//		*mvvm.ViewModel
//		name string
//	}
//
//	func NewContactViewModel(m *mvvm.Messenger) *ContactViewModel {
//		vm := &ContactViewModel{}
//		vm.ViewModel = mvvm.NewViewModel(vm, m)
//		return vm
//	}
type ViewModel struct {
	// PropertyChanged fires after a property changed. The sender is the
	// owning view model.
	PropertyChanged extensions.Event[PropertyChangedArgs]

	owner     any
	messenger *Messenger
}

// NewViewModel creates the base for owner. A nil messenger means Default().
func NewViewModel(owner any, messenger *Messenger) *ViewModel {
	if messenger == nil {
		messenger = Default()
	}
	vm := &ViewModel{owner: owner, messenger: messenger}
	if owner == nil {
		vm.owner = vm
	}
	return vm
}

// Messenger returns the messenger used for broadcasts.
func (vm *ViewModel) Messenger() *Messenger {
	return vm.messenger
}

// RaisePropertyChanged fires PropertyChanged for name.
func (vm *ViewModel) RaisePropertyChanged(name string) {
	vm.PropertyChanged.Fire(vm.owner, PropertyChangedArgs{PropertyName: name})
}

// Cleanup unregisters the owner from the messenger.
func (vm *ViewModel) Cleanup() {
	vm.messenger.Unregister(vm.owner)
}

// SetProperty stores value in field and raises PropertyChanged when it
// differs from the current value. It reports whether the value changed.
func SetProperty[T comparable](vm *ViewModel, field *T, value T, name string) bool {
	if *field == value {
		return false
	}
	*field = value
	vm.RaisePropertyChanged(name)
	return true
}

// SetPropertyBroadcast works like SetProperty and also sends a
// PropertyChangedMessage[T] over the messenger.
func SetPropertyBroadcast[T comparable](vm *ViewModel, field *T, value T, name string) bool {
	old := *field
	if !SetProperty(vm, field, value, name) {
		return false
	}
	Send(vm.messenger, PropertyChangedMessage[T]{
		Sender:       vm.owner,
		PropertyName: name,
		OldValue:     old,
		NewValue:     value,
	})
	return true
}
