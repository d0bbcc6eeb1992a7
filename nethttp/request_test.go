package nethttp

import (
	"crypto/tls"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestRequest_ServerVariables(t *testing.T) {
	r := httptest.NewRequest("POST", "http://example.com:8080/app/run?q=1", strings.NewReader("abc"))
	r.RemoteAddr = "192.0.2.7:40000"
	r.Header.Set("User-Agent", "test/1.0")
	r.Header.Set("Content-Type", "text/plain")
	r.Header.Add("Cookie", "a=1")
	r.Header.Add("Cookie", "b=2")
	r.Header.Add("Accept", "text/html")
	r.Header.Add("Accept", "*/*")

	ev := &mapPathEvent{url: "/app/run?q=1", physical: "/srv/app/run"}
	q := newRequest(r, ev, &Options{DocumentRoot: "/srv"})

	tests := []struct {
		name string
		want string
		ok   bool
	}{
		{"REQUEST_METHOD", "POST", true},
		{"URL", "/app/run", true},
		{"PATH_INFO", "/app/run", true},
		{"SCRIPT_NAME", "/app/run", true},
		{"QUERY_STRING", "q=1", true},
		{"PATH_TRANSLATED", "/srv/app/run", true},
		{"DOCUMENT_ROOT", "/srv", true},
		{"SERVER_PROTOCOL", "HTTP/1.1", true},
		{"REMOTE_ADDR", "192.0.2.7", true},
		{"REMOTE_HOST", "192.0.2.7", true},
		{"REMOTE_PORT", "40000", true},
		{"SERVER_NAME", "example.com", true},
		{"SERVER_PORT", "8080", true},
		{"HTTPS", "off", true},
		{"REQUEST_SCHEME", "http", true},
		{"CONTENT_TYPE", "text/plain", true},
		{"CONTENT_LENGTH", "3", true},
		{"HTTP_USER_AGENT", "test/1.0", true},
		{"HTTP_HOST", "example.com:8080", true},
		{"HTTP_COOKIE", "a=1; b=2", true},
		{"HTTP_ACCEPT", "text/html, */*", true},
		{"HTTP_REFERER", "", false},
		{"NOT_A_VARIABLE", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := q.ServerVariable(tt.name)
			if ok != tt.ok || got != tt.want {
				t.Errorf("ServerVariable(%s) = %q, %v; want %q, %v", tt.name, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestRequest_ServerNameOverrideAndTLS(t *testing.T) {
	r := httptest.NewRequest("GET", "https://example.com/", nil)
	r.TLS = &tls.ConnectionState{}
	q := newRequest(r, &mapPathEvent{}, &Options{ServerName: "front.example"})

	for name, want := range map[string]string{
		"SERVER_NAME":    "front.example",
		"HTTPS":          "on",
		"REQUEST_SCHEME": "https",
		"SERVER_PORT":    "443",
	} {
		if got, _ := q.ServerVariable(name); got != want {
			t.Errorf("%s = %q, want %q", name, got, want)
		}
	}
	if _, ok := q.ServerVariable("PATH_TRANSLATED"); ok {
		t.Error("PATH_TRANSLATED present without a mapped path")
	}
}

func TestRequest_QueryAndRaw(t *testing.T) {
	r := httptest.NewRequest("GET", "/a%20b?x=1", nil)
	q := newRequest(r, &mapPathEvent{}, &Options{})

	if v, ok := q.QueryString(); !ok || v != "x=1" {
		t.Errorf("QueryString = %q, %v", v, ok)
	}
	raw := q.Raw()
	if raw.Target != "/a%20b?x=1" || raw.Version != "HTTP/1.1" {
		t.Errorf("Raw = %+v", raw)
	}

	q = newRequest(httptest.NewRequest("GET", "/", nil), &mapPathEvent{}, &Options{})
	if _, ok := q.QueryString(); ok {
		t.Error("expected no query string")
	}
}

func TestRequest_ReadEntityBody(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		capacity int
		want     []int
	}{
		{"exact multiple", "abcdefgh", 4, []int{4, 4}},
		{"remainder", "abcdefghij", 4, []int{4, 4, 2}},
		{"single read", "ab", 4, []int{2}},
		{"empty", "", 4, []int{0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("POST", "/", strings.NewReader(tt.body))
			q := newRequest(r, &mapPathEvent{}, &Options{})
			buf := make([]byte, tt.capacity)

			var got strings.Builder
			for i, want := range tt.want {
				n, more, err := q.ReadEntityBody(buf)
				if err != nil {
					t.Fatalf("read %d: %v", i, err)
				}
				if n != want {
					t.Errorf("read %d: n = %d, want %d", i, n, want)
				}
				if wantMore := i < len(tt.want)-1; more != wantMore {
					t.Errorf("read %d: more = %v, want %v", i, more, wantMore)
				}
				got.Write(buf[:n])
			}
			if got.String() != tt.body {
				t.Errorf("body = %q", got.String())
			}

			n, more, err := q.ReadEntityBody(buf)
			if n != 0 || more || err != nil {
				t.Errorf("after end: %d, %v, %v", n, more, err)
			}
		})
	}
}

func TestRequest_ReadEntityBodyReturnsAvailable(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	r := httptest.NewRequest("POST", "/", pr)
	r.ContentLength = 8
	q := newRequest(r, &mapPathEvent{}, &Options{})

	type result struct {
		n    int
		more bool
		err  error
	}
	buf := make([]byte, 16)
	read := func() <-chan result {
		ch := make(chan result, 1)
		go func() {
			n, more, err := q.ReadEntityBody(buf)
			ch <- result{n, more, err}
		}()
		return ch
	}

	go pw.Write([]byte("abc"))
	select {
	case res := <-read():
		if res.err != nil || res.n != 3 || !res.more {
			t.Errorf("first read = %d, %v, %v; want 3, true, nil", res.n, res.more, res.err)
		}
		if string(buf[:res.n]) != "abc" {
			t.Errorf("first read bytes = %q", buf[:res.n])
		}
	case <-time.After(2 * time.Second):
		pw.CloseWithError(io.ErrClosedPipe)
		t.Fatal("read blocked with 3 bytes available")
	}

	go pw.Write([]byte("defgh"))
	select {
	case res := <-read():
		if res.err != nil || res.n != 5 || res.more {
			t.Errorf("second read = %d, %v, %v; want 5, false, nil", res.n, res.more, res.err)
		}
	case <-time.After(2 * time.Second):
		pw.CloseWithError(io.ErrClosedPipe)
		t.Fatal("read blocked on the final bytes")
	}

	n, more, err := q.ReadEntityBody(buf)
	if n != 0 || more || err != nil {
		t.Errorf("after end: %d, %v, %v", n, more, err)
	}
}

func TestRequest_ReadEntityBodyUnknownLength(t *testing.T) {
	r := httptest.NewRequest("POST", "/", io.NopCloser(strings.NewReader("abcdef")))
	r.ContentLength = -1
	q := newRequest(r, &mapPathEvent{}, &Options{})
	buf := make([]byte, 4)

	n, more, err := q.ReadEntityBody(buf)
	if n != 4 || !more || err != nil {
		t.Errorf("first read = %d, %v, %v; want 4, true, nil", n, more, err)
	}
	n, more, err = q.ReadEntityBody(buf)
	if n != 2 || more || err != nil {
		t.Errorf("second read = %d, %v, %v; want 2, false, nil", n, more, err)
	}
}
