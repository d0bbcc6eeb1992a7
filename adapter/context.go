package adapter

import (
	"context"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wippyai/hostbridge/errors"
	"github.com/wippyai/hostbridge/host"
)

// Context is the per-request handle passed to a Handler. It borrows the host
// objects for one notification and must not be retained after the callback
// returns.
type Context struct {
	req  host.Request
	resp host.Response
	ev   host.MapPathEvent
	mod  *Module
	log  *zap.Logger
	id   string

	// staged body bytes; cuts marks the end offset of each appended chunk
	stage  []byte
	cuts   []int
	chunks [][]byte

	state     State
	bodyDone  bool
	finalized bool
}

var contextPool = sync.Pool{
	New: func() any { return new(Context) },
}

func acquireContext(m *Module, req host.Request, resp host.Response, ev host.MapPathEvent) *Context {
	c := contextPool.Get().(*Context)
	c.req, c.resp, c.ev, c.mod = req, resp, ev, m
	c.id = uuid.NewString()
	c.log = m.log.With(zap.String("request_id", c.id))
	c.state = Bound
	return c
}

func releaseContext(c *Context) {
	c.req, c.resp, c.ev, c.mod, c.log = nil, nil, nil, nil, nil
	c.id = ""
	c.resetStage()
	c.bodyDone = false
	c.finalized = false
	c.state = Unbound
	contextPool.Put(c)
}

// ID is the request's correlation id.
func (c *Context) ID() string { return c.id }

// State reports the lifecycle position of c.
func (c *Context) State() State { return c.state }

// Context returns the host request context. It is done once the host tears
// the request down.
func (c *Context) Context() context.Context {
	if ctx := c.req.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// Logger returns a logger tagged with the request id.
func (c *Context) Logger() *zap.Logger { return c.log }

// Fail replaces the response with an error status and returns
// host.FinishRequest. Allocation failures map to 503, everything else to 500.
func (c *Context) Fail(err error) host.Disposition {
	code := http.StatusInternalServerError
	if errors.KindOf(err) == errors.KindAllocation {
		code = http.StatusServiceUnavailable
	}

	c.log.Error("request failed", zap.Error(err), zap.Int("status", code))
	c.mod.notify(Event{Type: EventFailed, RequestID: c.id, Err: err})

	c.resetStage()
	c.resp.Clear()
	if serr := c.resp.SetStatus(code, http.StatusText(code)); serr != nil {
		c.log.Debug("error status not applied", zap.Error(serr))
	}
	return host.FinishRequest
}

func (c *Context) notify(e Event) {
	e.RequestID = c.id
	c.mod.notify(e)
}
