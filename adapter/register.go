package adapter

import (
	"context"
	"sync"

	"github.com/wippyai/hostbridge/errors"
)

var (
	regMu      sync.Mutex
	registered *Module
)

// Register creates the process-wide module. It fails if one is already
// registered.
func Register(h Handler, opts ...Option) (*Module, error) {
	regMu.Lock()
	defer regMu.Unlock()

	if registered != nil {
		return nil, errors.New(errors.PhaseRegister, errors.KindRegistration).
			Detail("module already registered").
			Build()
	}
	if h == nil {
		return nil, errors.InvalidInput(errors.PhaseRegister, "nil handler")
	}
	registered = New(h, opts...)
	return registered, nil
}

// Registered returns the process-wide module, or nil.
func Registered() *Module {
	regMu.Lock()
	defer regMu.Unlock()
	return registered
}

// Unregister closes and forgets the process-wide module.
func Unregister(ctx context.Context) error {
	regMu.Lock()
	m := registered
	registered = nil
	regMu.Unlock()

	if m == nil {
		return errors.New(errors.PhaseRegister, errors.KindNotRegistered).
			Detail("no module registered").
			Build()
	}
	return m.Close(ctx)
}
