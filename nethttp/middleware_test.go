package nethttp

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/wippyai/hostbridge/adapter"
	"github.com/wippyai/hostbridge/attr"
	"github.com/wippyai/hostbridge/errors"
	"github.com/wippyai/hostbridge/host"
)

func serve(t *testing.T, fn adapter.HandlerFunc, next http.Handler, opts Options, r *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	h := Middleware(adapter.New(fn), next, opts)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	return rec
}

func TestMiddleware_EndToEnd(t *testing.T) {
	r := httptest.NewRequest("GET", "/x?y=1", nil)
	r.Header.Set("Content-Type", "text/plain")

	rec := serve(t, func(c *adapter.Context) host.Disposition {
		for id, want := range map[attr.ID]string{
			attr.Method:      "GET",
			attr.URL:         "/x?y=1",
			attr.QueryString: "y=1",
			attr.ContentType: "text/plain",
		} {
			if v, ok := c.Resolve(id); !ok || string(v) != want {
				t.Errorf("Resolve(%s) = %q, %v; want %q", id, v, ok, want)
			}
		}
		c.SetStatus(200, "OK")
		c.SetHeader("X-Test", "1")
		if _, err := c.WriteAndFlush([]byte("ok"), false); err != nil {
			t.Errorf("WriteAndFlush: %v", err)
		}
		return host.FinishRequest
	}, nil, Options{}, r)

	if rec.Code != 200 {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if got := rec.Header().Get("X-Test"); got != "1" {
		t.Errorf("X-Test = %q", got)
	}
	if got := rec.Header().Get("Content-Length"); got != "2" {
		t.Errorf("Content-Length = %q, want 2", got)
	}
	if rec.Body.String() != "ok" {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestMiddleware_Streaming(t *testing.T) {
	r := httptest.NewRequest("GET", "/stream", nil)

	rec := serve(t, func(c *adapter.Context) host.Disposition {
		c.WriteAndFlush([]byte("a"), true)
		c.WriteAndFlush([]byte("b"), false)
		if _, err := c.WriteAndFlush([]byte("c"), false); errors.KindOf(err) != errors.KindFinalized {
			t.Errorf("write after final kind = %q, want finalized", errors.KindOf(err))
		}
		if err := c.SetStatus(500, "late"); errors.KindOf(err) != errors.KindCommitted {
			t.Errorf("SetStatus after commit kind = %q, want committed", errors.KindOf(err))
		}
		return host.FinishRequest
	}, nil, Options{}, r)

	if rec.Body.String() != "ab" {
		t.Errorf("body = %q, want ab", rec.Body.String())
	}
	if !rec.Flushed {
		t.Error("expected intermediate flush")
	}
	if rec.Header().Get("Content-Length") != "" {
		t.Error("streamed response must not carry Content-Length")
	}
	if rec.Code != 200 {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestMiddleware_DeleteHeaderAfterCommit(t *testing.T) {
	r := httptest.NewRequest("GET", "/late", nil)

	rec := serve(t, func(c *adapter.Context) host.Disposition {
		c.SetHeader("X-A", "1")
		c.WriteAndFlush([]byte("x"), true)
		if err := c.SetHeader("X-A", ""); errors.KindOf(err) != errors.KindCommitted {
			t.Errorf("delete after commit: err = %v, want committed", err)
		}
		c.WriteAndFlush(nil, false)
		return host.FinishRequest
	}, nil, Options{}, r)

	if got := rec.Header().Get("X-A"); got != "1" {
		t.Errorf("X-A = %q, want the committed value", got)
	}
}

func TestMiddleware_FinishWithoutBody(t *testing.T) {
	r := httptest.NewRequest("GET", "/missing", nil)

	rec := serve(t, func(c *adapter.Context) host.Disposition {
		c.SetStatus(404, "Nope")
		c.SetHeader("X-Reason", "gone")
		return host.FinishRequest
	}, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("next handler ran after FinishRequest")
	}), Options{}, r)

	if rec.Code != 404 {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	if rec.Header().Get("X-Reason") != "gone" {
		t.Errorf("X-Reason = %q", rec.Header().Get("X-Reason"))
	}
	if rec.Body.Len() != 0 {
		t.Errorf("body = %q, want empty", rec.Body.String())
	}
}

func TestMiddleware_Continue(t *testing.T) {
	root := t.TempDir()
	r := httptest.NewRequest("GET", "/docs/../a.txt", nil)
	var seen string

	rec := serve(t, func(c *adapter.Context) host.Disposition {
		p, _ := c.Resolve(attr.PhysicalPath)
		if string(p) != filepath.Join(root, "a.txt") {
			t.Errorf("physical path = %q", p)
		}
		c.SetHeader("X-Mapped", "yes")
		c.SetPhysicalPath(filepath.Join(root, "b.txt"))
		return host.Continue
	}, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = PhysicalPath(r)
		io.WriteString(w, "next")
	}), Options{DocumentRoot: root}, r)

	if seen != filepath.Join(root, "b.txt") {
		t.Errorf("next saw path %q", seen)
	}
	if rec.Header().Get("X-Mapped") != "yes" {
		t.Error("staged header not applied before next")
	}
	if rec.Body.String() != "next" {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestMiddleware_ContinueAfterCommit(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)

	rec := serve(t, func(c *adapter.Context) host.Disposition {
		c.WriteAndFlush([]byte("mine"), false)
		return host.Continue
	}, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("next handler ran after the callback responded")
	}), Options{}, r)

	if rec.Body.String() != "mine" {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestMiddleware_Panic(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)

	rec := serve(t, func(c *adapter.Context) host.Disposition {
		panic("boom")
	}, nil, Options{}, r)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestMiddleware_UnknownDisposition(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)

	rec := serve(t, func(c *adapter.Context) host.Disposition {
		return host.Disposition(42)
	}, nil, Options{}, r)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestMiddleware_EchoBody(t *testing.T) {
	payload := strings.Repeat("0123456789", 10)
	r := httptest.NewRequest("POST", "/echo", strings.NewReader(payload))

	rec := serve(t, func(c *adapter.Context) host.Disposition {
		buf := make([]byte, 16)
		for {
			n, more, err := c.ReadBody(buf)
			if err != nil {
				t.Fatalf("ReadBody: %v", err)
			}
			c.AppendChunk(buf[:n])
			if !more {
				break
			}
		}
		c.Flush(false)
		return host.FinishRequest
	}, nil, Options{}, r)

	if rec.Body.String() != payload {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestMiddleware_ReadBodyReturnsAvailable(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	r := httptest.NewRequest("POST", "/upload", pr)
	r.ContentLength = 16
	go pw.Write([]byte("abc"))

	serve(t, func(c *adapter.Context) host.Disposition {
		got := make(chan int, 1)
		go func() {
			n, _, _ := c.ReadBody(make([]byte, 16))
			got <- n
		}()
		select {
		case n := <-got:
			if n != 3 {
				t.Errorf("ReadBody = %d bytes, want 3", n)
			}
		case <-time.After(2 * time.Second):
			t.Error("ReadBody blocked with 3 bytes available")
			pw.CloseWithError(io.ErrClosedPipe)
			<-got
		}
		return host.FinishRequest
	}, nil, Options{}, r)
}

func TestFileServer(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "hello.txt"), []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}
	pass := adapter.HandlerFunc(func(*adapter.Context) host.Disposition { return host.Continue })

	tests := []struct {
		name   string
		target string
		root   string
		code   int
		body   string
	}{
		{"existing file", "/hello.txt", root, 200, "hello"},
		{"missing file", "/nope.txt", root, 404, ""},
		{"no document root", "/hello.txt", "", 404, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, pass, FileServer(), Options{DocumentRoot: tt.root}, httptest.NewRequest("GET", tt.target, nil))
			if rec.Code != tt.code {
				t.Errorf("status = %d, want %d", rec.Code, tt.code)
			}
			if tt.body != "" && rec.Body.String() != tt.body {
				t.Errorf("body = %q, want %q", rec.Body.String(), tt.body)
			}
		})
	}
}

func TestMap(t *testing.T) {
	tests := []struct {
		root, url, want string
	}{
		{"/srv", "/a/b.txt", filepath.Join("/srv", "a", "b.txt")},
		{"/srv", "/../../etc/passwd", filepath.Join("/srv", "etc", "passwd")},
		{"/srv", "", "/srv"},
		{"", "/a", ""},
	}
	for _, tt := range tests {
		if got := Map(tt.root, tt.url); got != tt.want {
			t.Errorf("Map(%q, %q) = %q, want %q", tt.root, tt.url, got, tt.want)
		}
	}
}
