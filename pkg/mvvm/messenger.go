package mvvm

import (
	"reflect"
	"sync"
	"sync/atomic"
	"weak"
)

// registration binds an action to a message type for one recipient. The
// recipient is only referenced weakly; deliver reports false once it has
// been collected.
type registration struct {
	msgType reflect.Type
	token   any
	derived bool
	deliver func(msg any) (alive bool)
	isAlive func() bool
	owns    func(recipient any) bool
}

// Messenger delivers messages to registered recipients. Recipients are held
// through weak pointers, so registering does not keep a recipient alive.
// Actions receive the recipient as an argument and should not capture it.
type Messenger struct {
	mu   sync.RWMutex
	regs []*registration
}

// NewMessenger returns an empty messenger.
func NewMessenger() *Messenger {
	return &Messenger{}
}

var defaultMessenger atomic.Pointer[Messenger]

// Default returns the process wide messenger, creating it on first use.
func Default() *Messenger {
	if m := defaultMessenger.Load(); m != nil {
		return m
	}
	defaultMessenger.CompareAndSwap(nil, NewMessenger())
	return defaultMessenger.Load()
}

// OverrideDefault replaces the process wide messenger, mostly for tests.
func OverrideDefault(m *Messenger) {
	defaultMessenger.Store(m)
}

// ResetDefault drops the process wide messenger; the next Default call
// creates a new one.
func ResetDefault() {
	defaultMessenger.Store(nil)
}

// Register subscribes recipient to messages of exactly type M sent without
// a token.
func Register[M, R any](m *Messenger, recipient *R, action func(recipient *R, msg M)) {
	register(m, recipient, nil, false, action)
}

// RegisterToken subscribes recipient to messages of type M sent with token.
// Tokens are compared with ==.
func RegisterToken[M, R any](m *Messenger, recipient *R, token any, action func(recipient *R, msg M)) {
	register(m, recipient, token, false, action)
}

// RegisterDerived subscribes recipient to every message assignable to M,
// which is usually an interface type.
func RegisterDerived[M, R any](m *Messenger, recipient *R, action func(recipient *R, msg M)) {
	register(m, recipient, nil, true, action)
}

func register[M, R any](m *Messenger, recipient *R, token any, derived bool, action func(*R, M)) {
	if recipient == nil || action == nil {
		return
	}
	wp := weak.Make(recipient)
	reg := &registration{
		msgType: reflect.TypeFor[M](),
		token:   token,
		derived: derived,
		deliver: func(msg any) bool {
			r := wp.Value()
			if r == nil {
				return false
			}
			typed, ok := msg.(M)
			if !ok {
				return true
			}
			action(r, typed)
			return true
		},
		isAlive: func() bool { return wp.Value() != nil },
		owns: func(x any) bool {
			p, ok := x.(*R)
			return ok && p != nil && weak.Make(p) == wp
		},
	}
	m.mu.Lock()
	m.regs = append(m.regs, reg)
	m.mu.Unlock()
}

// Send delivers msg to the recipients registered for M without a token and
// returns how many received it.
func Send[M any](m *Messenger, msg M) int {
	return m.send(reflect.TypeFor[M](), msg, nil)
}

// SendToken delivers msg to the recipients registered for M with token.
func SendToken[M any](m *Messenger, msg M, token any) int {
	return m.send(reflect.TypeFor[M](), msg, token)
}

func (m *Messenger) send(static reflect.Type, msg, token any) int {
	dynamic := reflect.TypeOf(msg)
	m.mu.RLock()
	targets := make([]*registration, 0, len(m.regs))
	for _, reg := range m.regs {
		if reg.token != token {
			continue
		}
		if reg.msgType == static || (reg.derived && dynamic != nil && dynamic.AssignableTo(reg.msgType)) {
			targets = append(targets, reg)
		}
	}
	m.mu.RUnlock()
	delivered, dead := 0, false
	for _, reg := range targets {
		if reg.deliver(msg) {
			delivered++
		} else {
			dead = true
		}
	}
	if dead {
		m.Cleanup()
	}
	return delivered
}

// Unregister removes every registration of recipient.
func (m *Messenger) Unregister(recipient any) {
	m.remove(func(reg *registration) bool { return reg.owns(recipient) })
}

// UnregisterMessage removes the registrations of recipient for message type
// M, with or without a token.
func UnregisterMessage[M any](m *Messenger, recipient any) {
	t := reflect.TypeFor[M]()
	m.remove(func(reg *registration) bool { return reg.msgType == t && reg.owns(recipient) })
}

// UnregisterToken removes the registrations of recipient for message type M
// and token.
func UnregisterToken[M any](m *Messenger, recipient, token any) {
	t := reflect.TypeFor[M]()
	m.remove(func(reg *registration) bool {
		return reg.msgType == t && reg.token == token && reg.owns(recipient)
	})
}

// Cleanup drops registrations whose recipient has been collected.
func (m *Messenger) Cleanup() {
	m.remove(func(reg *registration) bool { return !reg.isAlive() })
}

// Len returns the number of registrations, including those whose recipient
// was collected since the last cleanup.
func (m *Messenger) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.regs)
}

func (m *Messenger) remove(match func(*registration) bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.regs[:0]
	for _, reg := range m.regs {
		if !match(reg) {
			kept = append(kept, reg)
		}
	}
	clear(m.regs[len(kept):])
	m.regs = kept
}
