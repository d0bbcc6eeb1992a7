package main

import (
	"context"
	stderrors "errors"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/wippyai/hostbridge/adapter"
	"github.com/wippyai/hostbridge/config"
	"github.com/wippyai/hostbridge/errors"
	"github.com/wippyai/hostbridge/guest"
	"github.com/wippyai/hostbridge/host"
	"github.com/wippyai/hostbridge/metrics"
	"github.com/wippyai/hostbridge/nethttp"
)

type server struct {
	http    *http.Server
	metrics *http.Server
	log     *zap.Logger
}

// newServer compiles the configured guest, registers the process-wide
// module and prepares the listeners. Nothing is bound until start.
func newServer(ctx context.Context, cfg *config.Config, log *zap.Logger, observers ...adapter.Observer) (*server, error) {
	h, err := newHandler(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	collector := metrics.New("hostbridge")
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	if err := collector.Register(reg); err != nil {
		return nil, closeHandler(ctx, h, err)
	}

	opts := []adapter.Option{adapter.WithLogger(log.Named("adapter")), adapter.WithObserver(collector)}
	for _, o := range observers {
		opts = append(opts, adapter.WithObserver(o))
	}
	mod, err := adapter.Register(h, opts...)
	if err != nil {
		return nil, closeHandler(ctx, h, err)
	}

	s := &server{log: log}
	s.http = &http.Server{
		Addr: cfg.Listen,
		Handler: nethttp.Middleware(mod, nethttp.FileServer(), nethttp.Options{
			DocumentRoot: cfg.DocumentRoot,
			ServerName:   cfg.ServerName,
			Logger:       log.Named("http"),
		}),
		ReadTimeout: cfg.ReadTimeout.Duration(),
	}
	if cfg.MetricsListen != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		s.metrics = &http.Server{Addr: cfg.MetricsListen, Handler: mux}
	}
	return s, nil
}

func newHandler(ctx context.Context, cfg *config.Config, log *zap.Logger) (adapter.Handler, error) {
	if cfg.Guest.Path == "" {
		log.Info("no guest configured, passing requests through")
		return adapter.HandlerFunc(func(c *adapter.Context) host.Disposition {
			return host.Continue
		}), nil
	}

	wasm, err := os.ReadFile(cfg.Guest.Path)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindHostIO, err, "read guest "+cfg.Guest.Path)
	}
	h, err := guest.Compile(ctx, wasm,
		guest.WithPoolSize(cfg.Guest.PoolSize),
		guest.WithMemoryLimitPages(cfg.Guest.MemoryLimitPages()),
		guest.WithLogger(log.Named("guest")),
	)
	if err != nil {
		return nil, err
	}
	log.Info("guest loaded", zap.String("path", cfg.Guest.Path), zap.Int("pool_size", cfg.Guest.PoolSize))
	return h, nil
}

// closeHandler releases h after a failed setup step and returns err.
func closeHandler(ctx context.Context, h adapter.Handler, err error) error {
	if cl, ok := h.(interface{ Close(context.Context) error }); ok {
		if cerr := cl.Close(ctx); cerr != nil {
			return stderrors.Join(err, cerr)
		}
	}
	return err
}

// start begins serving. The returned channel receives the first listener
// failure.
func (s *server) start() <-chan error {
	errCh := make(chan error, 2)
	serve := func(srv *http.Server) {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}
	s.log.Info("listening", zap.String("addr", s.http.Addr))
	go serve(s.http)
	if s.metrics != nil {
		s.log.Info("metrics listening", zap.String("addr", s.metrics.Addr))
		go serve(s.metrics)
	}
	return errCh
}

// shutdown drains in-flight requests, then closes the module and its guest.
func (s *server) shutdown(ctx context.Context) error {
	err := s.http.Shutdown(ctx)
	if s.metrics != nil {
		if merr := s.metrics.Shutdown(ctx); merr != nil && err == nil {
			err = merr
		}
	}
	if uerr := adapter.Unregister(ctx); uerr != nil && err == nil {
		err = uerr
	}
	return err
}
