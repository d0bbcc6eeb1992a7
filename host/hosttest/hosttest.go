// Package hosttest provides in-memory host objects for testing callbacks and
// hosts against the adapter.
package hosttest

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/wippyai/hostbridge/errors"
	"github.com/wippyai/hostbridge/host"
)

// Request is an in-memory host.Request.
type Request struct {
	Ctx       context.Context
	Headers   http.Header
	Variables map[string]string
	ReadErr   error
	RawFields host.RawRequest
	method    string
	query     string
	body      []byte
	hasQuery  bool
}

// NewRequest builds a request for method and target ("/x?y=1").
func NewRequest(method, target string, body []byte) *Request {
	r := &Request{
		Ctx:       context.Background(),
		Headers:   make(http.Header),
		Variables: make(map[string]string),
		method:    method,
		body:      body,
		RawFields: host.RawRequest{
			Target:     target,
			Version:    "HTTP/1.1",
			RemoteAddr: "192.0.2.1:54321",
		},
	}
	if u, err := url.ParseRequestURI(target); err == nil {
		r.query = u.RawQuery
		r.hasQuery = u.ForceQuery || u.RawQuery != ""
	}
	return r
}

func (r *Request) Context() context.Context { return r.Ctx }
func (r *Request) Method() string           { return r.method }
func (r *Request) Raw() host.RawRequest     { return r.RawFields }

func (r *Request) QueryString() (string, bool) {
	return r.query, r.hasQuery
}

func (r *Request) Header(name string) (string, bool) {
	vs, ok := r.Headers[http.CanonicalHeaderKey(name)]
	if !ok || len(vs) == 0 {
		return "", false
	}
	return strings.Join(vs, ", "), true
}

func (r *Request) ServerVariable(name string) (string, bool) {
	v, ok := r.Variables[name]
	return v, ok
}

// ReadEntityBody fills p and reports whether bytes remain.
func (r *Request) ReadEntityBody(p []byte) (int, bool, error) {
	if r.ReadErr != nil {
		return 0, false, r.ReadErr
	}
	n := copy(p, r.body)
	r.body = r.body[n:]
	return n, len(r.body) > 0, nil
}

// Response records everything written through host.Response.
type Response struct {
	Headers http.Header
	Body    bytes.Buffer

	// AcceptLimit caps the bytes accepted per WriteEntityChunks call.
	// Zero means unlimited.
	AcceptLimit int
	WriteErr    error

	Status    int
	Reason    string
	Clears    int
	Writes    int
	Committed bool
	Finalized bool
}

// NewResponse returns an empty response with status 200.
func NewResponse() *Response {
	return &Response{Headers: make(http.Header), Status: http.StatusOK, Reason: "OK"}
}

func (w *Response) Clear() {
	w.Clears++
	if w.Committed {
		return
	}
	w.Headers = make(http.Header)
	w.Body.Reset()
}

func (w *Response) SetStatus(code int, reason string) error {
	if w.Committed {
		return errors.Committed(errors.PhaseStatus, "status")
	}
	w.Status, w.Reason = code, reason
	return nil
}

func (w *Response) SetHeader(name, value string, replace bool) error {
	if w.Committed {
		return errors.Committed(errors.PhaseHeader, name)
	}
	if replace {
		w.Headers.Set(name, value)
	} else {
		w.Headers.Add(name, value)
	}
	return nil
}

func (w *Response) DeleteHeader(name string) error {
	if w.Committed {
		return errors.Committed(errors.PhaseHeader, name)
	}
	w.Headers.Del(name)
	return nil
}

func (w *Response) WriteEntityChunks(chunks [][]byte, moreData bool) (int, error) {
	w.Writes++
	if w.Finalized {
		return 0, errors.Finalized(errors.PhaseFlush)
	}
	if w.WriteErr != nil {
		return 0, w.WriteErr
	}
	w.Committed = true

	total, sent := 0, 0
	for _, c := range chunks {
		total += len(c)
		n := len(c)
		if w.AcceptLimit > 0 && sent+n > w.AcceptLimit {
			n = w.AcceptLimit - sent
		}
		w.Body.Write(c[:n])
		sent += n
	}
	if !moreData && sent == total {
		w.Finalized = true
	}
	return sent, nil
}

// Event is an in-memory host.MapPathEvent.
type Event struct {
	url  string
	path string
}

// NewEvent builds a mapping event for url with the given physical path.
func NewEvent(url, physicalPath string) *Event {
	return &Event{url: url, path: physicalPath}
}

func (e *Event) URL() string          { return e.url }
func (e *Event) PhysicalPath() string { return e.path }

func (e *Event) SetPhysicalPath(path string) error {
	e.path = path
	return nil
}
