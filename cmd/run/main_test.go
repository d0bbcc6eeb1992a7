package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/wippyai/hostbridge/adapter"
	"github.com/wippyai/hostbridge/attr"
	"github.com/wippyai/hostbridge/config"
	herrors "github.com/wippyai/hostbridge/errors"
	"github.com/wippyai/hostbridge/host"
)

func TestLoadConfig_Precedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hostbridge.yaml")
	yaml := "listen: \":7000\"\nlog_level: warn\nguest:\n  pool_size: 3\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("HOSTBRIDGE_LOG_LEVEL", "error")

	cfg, err := loadConfig(flags{
		config:  path,
		envFile: filepath.Join(dir, ".env"),
		listen:  ":9000",
		set:     map[string]bool{"config": true, "listen": true},
	})
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Listen != ":9000" {
		t.Errorf("Listen = %q, want flag value", cfg.Listen)
	}
	if cfg.LogLevel != "error" {
		t.Errorf("LogLevel = %q, want env value", cfg.LogLevel)
	}
	if cfg.Guest.PoolSize != 3 {
		t.Errorf("PoolSize = %d, want file value", cfg.Guest.PoolSize)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "absent.yaml")

	cfg, err := loadConfig(flags{config: missing, envFile: filepath.Join(dir, ".env"), set: map[string]bool{}})
	if err != nil {
		t.Fatalf("default config path: %v", err)
	}
	if cfg.Listen != ":8080" {
		t.Errorf("Listen = %q, want default", cfg.Listen)
	}

	_, err = loadConfig(flags{config: missing, envFile: filepath.Join(dir, ".env"), set: map[string]bool{"config": true}})
	if herrors.KindOf(err) != herrors.KindNotFound {
		t.Errorf("explicit config path: err = %v, want not_found", err)
	}
}

func TestRequestFeed(t *testing.T) {
	f := newRequestFeed()

	f.Observe(adapter.Event{Type: adapter.EventChunkFlushed, RequestID: "unknown", Bytes: 9})
	f.Observe(adapter.Event{Type: adapter.EventBound, RequestID: "r1", Name: "GET", URL: "/a"})
	f.Observe(adapter.Event{Type: adapter.EventChunkFlushed, RequestID: "r1", Bytes: 5})
	f.Observe(adapter.Event{Type: adapter.EventChunkFlushed, RequestID: "r1", Bytes: 2})
	f.Observe(adapter.Event{Type: adapter.EventResolveMiss, RequestID: "r1", Attr: attr.HTTPReferer})
	f.Observe(adapter.Event{Type: adapter.EventDisposed, RequestID: "r1", Disposition: host.FinishRequest, Duration: time.Millisecond})

	select {
	case r := <-f.out:
		if r.method != "GET" || r.url != "/a" {
			t.Errorf("row = %s %s, want GET /a", r.method, r.url)
		}
		if r.bytes != 7 || r.misses != 1 {
			t.Errorf("bytes=%d misses=%d, want 7 and 1", r.bytes, r.misses)
		}
		if r.disposition != host.FinishRequest.String() {
			t.Errorf("disposition = %q", r.disposition)
		}
	default:
		t.Fatal("no row emitted")
	}

	if len(f.pending) != 0 {
		t.Errorf("pending = %d, want 0", len(f.pending))
	}
	select {
	case r := <-f.out:
		t.Errorf("unexpected row %+v", r)
	default:
	}
}

func TestRequestFeed_Failure(t *testing.T) {
	f := newRequestFeed()
	f.Observe(adapter.Event{Type: adapter.EventBound, RequestID: "r1", Name: "POST", URL: "/b"})
	f.Observe(adapter.Event{Type: adapter.EventFailed, RequestID: "r1", Err: errors.New("boom")})
	f.Observe(adapter.Event{Type: adapter.EventDisposed, RequestID: "r1", Disposition: host.FinishRequest})

	r := <-f.out
	if r.err != "boom" {
		t.Errorf("err = %q, want boom", r.err)
	}
	if got := r.cells()[3]; got != "boom" {
		t.Errorf("result cell = %q, want the error", got)
	}
}

func TestAttrTable(t *testing.T) {
	out := attrTable()
	for _, want := range []string{"http_referer", "HTTP_REFERER", "Content-Type", "unsupported", "request target"} {
		if !strings.Contains(out, want) {
			t.Errorf("attribute table missing %q", want)
		}
	}
}

type closingHandler struct{ closed bool }

func (h *closingHandler) ServeMapPath(*adapter.Context) host.Disposition { return host.Continue }

func (h *closingHandler) Close(context.Context) error {
	h.closed = true
	return nil
}

func TestCloseHandler(t *testing.T) {
	h := &closingHandler{}
	cause := errors.New("setup failed")

	if err := closeHandler(context.Background(), h, cause); !errors.Is(err, cause) {
		t.Errorf("err = %v, want the setup error", err)
	}
	if !h.closed {
		t.Error("handler not closed")
	}

	passthrough := adapter.HandlerFunc(func(*adapter.Context) host.Disposition { return host.Continue })
	if err := closeHandler(context.Background(), passthrough, cause); err != cause {
		t.Errorf("err = %v, want the setup error unchanged", err)
	}
}

func TestNewServer_AlreadyRegistered(t *testing.T) {
	if _, err := adapter.Register(&closingHandler{}); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { adapter.Unregister(context.Background()) })

	_, err := newServer(context.Background(), &config.Config{Listen: ":0"}, zap.NewNop())
	if herrors.KindOf(err) != herrors.KindRegistration {
		t.Errorf("err = %v, want registration", err)
	}
}
