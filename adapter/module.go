package adapter

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/wippyai/hostbridge/errors"
	"github.com/wippyai/hostbridge/host"
)

// Handler is the request callback.
type Handler interface {
	ServeMapPath(c *Context) host.Disposition
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(c *Context) host.Disposition

func (f HandlerFunc) ServeMapPath(c *Context) host.Disposition { return f(c) }

// Option configures a Module.
type Option func(*Module)

// WithLogger sets the module logger. The package Logger is used otherwise.
func WithLogger(l *zap.Logger) Option {
	return func(m *Module) {
		if l != nil {
			m.log = l
		}
	}
}

// WithObserver adds an observer. It may be given more than once.
func WithObserver(o Observer) Option {
	return func(m *Module) {
		if o != nil {
			m.observers = append(m.observers, o)
		}
	}
}

// Module runs a Handler for each mapping notification.
type Module struct {
	handler   Handler
	log       *zap.Logger
	observers observers
	closed    atomic.Bool
}

// New creates a module around h.
func New(h Handler, opts ...Option) *Module {
	m := &Module{handler: h}
	for _, opt := range opts {
		opt(m)
	}
	if m.log == nil {
		m.log = Logger()
	}
	return m
}

// OnMapPath handles one URL-to-physical-path mapping notification and returns
// the callback's disposition. A callback panic, or a notification arriving
// after Close, produces an error response and host.FinishRequest.
func (m *Module) OnMapPath(req host.Request, resp host.Response, ev host.MapPathEvent) (d host.Disposition) {
	start := time.Now()
	c := acquireContext(m, req, resp, ev)
	c.notify(Event{Type: EventBound, Name: req.Method(), URL: ev.URL()})

	defer func() {
		c.state = Disposed
		c.notify(Event{Type: EventDisposed, Disposition: d, Duration: time.Since(start)})
		c.log.Debug("request disposed",
			zap.Stringer("disposition", d),
			zap.Duration("duration", time.Since(start)))
		releaseContext(c)
	}()

	if m.closed.Load() {
		return c.Fail(errors.Allocation(errors.PhaseBind, "request context", errModuleClosed))
	}

	defer func() {
		if r := recover(); r != nil {
			d = c.Fail(errors.New(errors.PhaseMapPath, errors.KindTrap).
				Value(r).
				Detail("callback panicked: %v", r).
				Build())
		}
	}()

	c.state = InCallback
	return m.handler.ServeMapPath(c)
}

var errModuleClosed = fmt.Errorf("module closed")

// Close stops the module. Later notifications fail with 503. If the handler
// has a Close(context.Context) error method it is called.
func (m *Module) Close(ctx context.Context) error {
	if !m.closed.CompareAndSwap(false, true) {
		return nil
	}
	if cl, ok := m.handler.(interface{ Close(context.Context) error }); ok {
		return cl.Close(ctx)
	}
	return nil
}

func (m *Module) notify(e Event) {
	if len(m.observers) > 0 {
		m.observers.Observe(e)
	}
}
