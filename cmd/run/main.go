package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/hostbridge/attr"
	"github.com/wippyai/hostbridge/config"
	"github.com/wippyai/hostbridge/errors"
)

type flags struct {
	config   string
	envFile  string
	guest    string
	listen   string
	root     string
	metrics  string
	logLevel string
	set      map[string]bool
}

func main() {
	var (
		f           flags
		listAttrs   = flag.Bool("attrs", false, "List request attributes and exit")
		interactive = flag.Bool("i", false, "Interactive request monitor (TUI)")
	)
	flag.StringVar(&f.config, "config", "hostbridge.yaml", "Path to config file")
	flag.StringVar(&f.envFile, "env", ".env", "Path to .env file")
	flag.StringVar(&f.guest, "guest", "", "Path to guest wasm module (omit to pass every request through)")
	flag.StringVar(&f.listen, "listen", "", "HTTP listen address")
	flag.StringVar(&f.root, "root", "", "Document root for static files")
	flag.StringVar(&f.metrics, "metrics", "", "Metrics listen address (/metrics)")
	flag.StringVar(&f.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flag.Parse()

	f.set = make(map[string]bool)
	flag.Visit(func(fl *flag.Flag) { f.set[fl.Name] = true })

	if *listAttrs {
		fmt.Println(attrTable())
		return
	}

	cfg, err := loadConfig(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *interactive {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			fmt.Fprintln(os.Stderr, "Error: -i requires a terminal")
			os.Exit(1)
		}
		if err := runInteractive(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig layers .env, the config file, HOSTBRIDGE_* variables and
// explicitly set flags, in that order.
func loadConfig(f flags) (*config.Config, error) {
	if err := config.LoadEnvFile(f.envFile); err != nil {
		return nil, err
	}

	cfg, err := config.Load(f.config)
	switch {
	case err == nil:
	case errors.KindOf(err) == errors.KindNotFound && !f.set["config"]:
		cfg = &config.Config{}
	default:
		return nil, err
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	override := map[string]*string{
		"guest":     &cfg.Guest.Path,
		"listen":    &cfg.Listen,
		"root":      &cfg.DocumentRoot,
		"metrics":   &cfg.MetricsListen,
		"log-level": &cfg.LogLevel,
	}
	values := map[string]string{
		"guest":     f.guest,
		"listen":    f.listen,
		"root":      f.root,
		"metrics":   f.metrics,
		"log-level": f.logLevel,
	}
	for name, dst := range override {
		if f.set[name] {
			*dst = values[name]
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if cfg.Level() < zap.InfoLevel {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(cfg.Level())
	return zc.Build()
}

func run(cfg *config.Config) error {
	log, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, err := newServer(ctx, cfg, log)
	if err != nil {
		return err
	}
	log.Info("starting", zap.Stringer("config", cfg))
	errCh := srv.start()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err = <-errCh:
		log.Error("server stopped", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if serr := srv.shutdown(shutdownCtx); serr != nil && err == nil {
		err = serr
	}
	return err
}

var (
	headerCell = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4")).Padding(0, 1)
	cell       = lipgloss.NewStyle().Padding(0, 1)
)

// attrTable renders the attribute resolution table.
func attrTable() string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "NAME", "STRATEGY", "SOURCE").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerCell
			}
			return cell
		})

	for _, e := range attr.All() {
		source := e.Variable
		switch {
		case e.Header != "":
			source = e.Header
		case e.Field == attr.FieldTarget:
			source = "request target"
		case e.Field == attr.FieldVersion:
			source = "request version"
		case e.ID == attr.PhysicalPath:
			source = "mapped path"
		case e.Strategy == attr.Unsupported:
			source = "-"
		}
		t.Row(strconv.Itoa(int(e.ID)), e.Name, e.Strategy.String(), source)
	}
	return t.String()
}
