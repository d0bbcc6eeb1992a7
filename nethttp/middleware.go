package nethttp

import (
	"context"
	"net/http"
	"path"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/wippyai/hostbridge/adapter"
	"github.com/wippyai/hostbridge/host"
)

// Options configures Middleware.
type Options struct {
	// DocumentRoot is the directory URL paths are mapped under. Without it
	// the initial physical path is empty.
	DocumentRoot string

	// ServerName overrides SERVER_NAME, which otherwise comes from the Host
	// header.
	ServerName string

	Logger *zap.Logger
}

type physicalPathKey struct{}

// PhysicalPath returns the physical path mapped for r by Middleware.
func PhysicalPath(r *http.Request) string {
	p, _ := r.Context().Value(physicalPathKey{}).(string)
	return p
}

// mapPathEvent adapts the URL mapping of one request to host.MapPathEvent.
type mapPathEvent struct {
	url      string
	physical string
}

var _ host.MapPathEvent = (*mapPathEvent)(nil)

func (e *mapPathEvent) URL() string          { return e.url }
func (e *mapPathEvent) PhysicalPath() string { return e.physical }

func (e *mapPathEvent) SetPhysicalPath(p string) error {
	e.physical = p
	return nil
}

// Map joins a URL path onto root. Dot segments cannot climb above root.
func Map(root, urlPath string) string {
	if root == "" {
		return ""
	}
	return filepath.Join(root, filepath.FromSlash(path.Clean("/"+urlPath)))
}

type middleware struct {
	m    *adapter.Module
	next http.Handler
	opts Options
}

// Middleware runs m for every request before next.
//
// host.Continue passes the request to next with the staged response headers
// applied and the mapped path available through PhysicalPath, unless the
// callback already started the response body. host.FinishRequest and
// host.Pending end the request; a status and headers that were never
// committed are sent with an empty body.
func Middleware(m *adapter.Module, next http.Handler, opts Options) http.Handler {
	if opts.Logger == nil {
		opts.Logger = adapter.Logger()
	}
	return &middleware{m: m, next: next, opts: opts}
}

func (h *middleware) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ev := &mapPathEvent{
		url:      r.URL.RequestURI(),
		physical: Map(h.opts.DocumentRoot, r.URL.Path),
	}
	req := newRequest(r, ev, &h.opts)
	resp := newResponse(w)

	d := h.m.OnMapPath(req, resp, ev)

	switch d {
	case host.Continue:
		if resp.committed {
			return
		}
		resp.applyHeaders()
		if h.next == nil {
			http.NotFound(w, r)
			return
		}
		ctx := context.WithValue(r.Context(), physicalPathKey{}, ev.physical)
		h.next.ServeHTTP(w, r.WithContext(ctx))
	case host.FinishRequest, host.Pending:
		resp.commit()
	default:
		h.opts.Logger.Warn("unknown disposition",
			zap.Int32("disposition", int32(d)),
			zap.String("url", ev.url))
		if !resp.committed {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
	}
}

// FileServer serves the file at the mapped physical path of each request.
func FileServer() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := PhysicalPath(r)
		if p == "" {
			http.NotFound(w, r)
			return
		}
		http.ServeFile(w, r, p)
	})
}
