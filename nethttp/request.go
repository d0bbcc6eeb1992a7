package nethttp

import (
	"bufio"
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/wippyai/hostbridge/host"
)

// request adapts *http.Request to host.Request.
type request struct {
	r    *http.Request
	ev   *mapPathEvent
	body *bufio.Reader
	opts *Options
	eof  bool

	// bytes left per Content-Length, -1 when unknown
	remaining int64
}

var _ host.Request = (*request)(nil)

func newRequest(r *http.Request, ev *mapPathEvent, opts *Options) *request {
	return &request{r: r, ev: ev, opts: opts, remaining: r.ContentLength}
}

func (q *request) Context() context.Context { return q.r.Context() }
func (q *request) Method() string           { return q.r.Method }

func (q *request) QueryString() (string, bool) {
	return q.r.URL.RawQuery, q.r.URL.RawQuery != "" || q.r.URL.ForceQuery
}

func (q *request) Header(name string) (string, bool) {
	key := http.CanonicalHeaderKey(name)
	if key == "Host" {
		return q.r.Host, q.r.Host != ""
	}
	vs, ok := q.r.Header[key]
	if !ok || len(vs) == 0 {
		return "", false
	}
	if key == "Cookie" {
		return strings.Join(vs, "; "), true
	}
	return strings.Join(vs, ", "), true
}

func (q *request) ServerVariable(name string) (string, bool) {
	return q.variable(name)
}

func (q *request) Raw() host.RawRequest {
	return host.RawRequest{
		Target:     q.r.RequestURI,
		Version:    q.r.Proto,
		RemoteAddr: q.r.RemoteAddr,
	}
}

// ReadEntityBody blocks until at least one byte is available or the body
// ends, then tops p up from bytes already buffered. more comes from the
// remaining Content-Length; a body of unknown length peeks one byte ahead.
func (q *request) ReadEntityBody(p []byte) (int, bool, error) {
	if q.eof || q.r.Body == nil || q.r.Body == http.NoBody || q.remaining == 0 {
		q.eof = true
		return 0, false, nil
	}
	if len(p) == 0 {
		return 0, true, nil
	}
	if q.body == nil {
		q.body = bufio.NewReader(q.r.Body)
	}
	if q.remaining > 0 && int64(len(p)) > q.remaining {
		p = p[:q.remaining]
	}

	var (
		n   int
		err error
	)
	for n == 0 && err == nil {
		n, err = q.body.Read(p)
	}
	for err == nil && n < len(p) && q.body.Buffered() > 0 {
		var m int
		m, err = q.body.Read(p[n:])
		n += m
	}
	if q.remaining > 0 {
		q.remaining -= int64(n)
	}

	switch {
	case err == io.EOF:
		q.eof = true
		return n, false, nil
	case err != nil:
		return n, false, err
	case q.remaining == 0:
		q.eof = true
		return n, false, nil
	case q.remaining > 0:
		return n, true, nil
	}

	if _, err := q.body.Peek(1); err != nil {
		q.eof = true
		if err != io.EOF {
			return n, false, err
		}
		return n, false, nil
	}
	return n, true, nil
}
