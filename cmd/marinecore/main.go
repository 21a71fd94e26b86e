// Command marinecore serves the marine species and taxonomy call surface
// over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"marinecore/internal/adapters/httpapi"
	"marinecore/internal/config"
	"marinecore/internal/core"
	"marinecore/internal/dispatch"
	"marinecore/pkg/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const shutdownTimeout = 10 * time.Second

var (
	exitFunc    = os.Exit
	openStore   = core.OpenPersistentStore
	newRegistry = func() *prometheus.Registry {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		return reg
	}
)

func main() {
	code := cli(os.Args[1:], os.Stderr)
	exitFunc(code)
}

func cli(args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("marinecore", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var configPath string
	fs.StringVar(&configPath, "config", "", "path to YAML config (optional)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "marinecore: %v\n", err)
		return 1
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, cfg, stderr); err != nil {
		_, _ = fmt.Fprintf(stderr, "marinecore: %v\n", err)
		return 1
	}
	return 0
}

func run(ctx context.Context, cfg *config.Config, logOut io.Writer) (err error) {
	logger, err := newLogger(cfg, logOut)
	if err != nil {
		return err
	}
	a, err := build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.close(); cerr != nil && err == nil {
			err = fmt.Errorf("close store: %w", cerr)
		}
	}()
	ln, err := net.Listen("tcp", cfg.HTTP.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.HTTP.Addr, err)
	}
	logger.Info("listening", "addr", ln.Addr().String(), "storage", cfg.Storage.Driver)
	return serve(ctx, &http.Server{Handler: a.handler, ReadHeaderTimeout: 5 * time.Second}, ln)
}

func newLogger(cfg *config.Config, w io.Writer) (*slog.Logger, error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Log.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

type app struct {
	handler http.Handler
	store   domain.PersistentStore
}

func (a *app) close() error { return closeStore(a.store) }

func closeStore(store domain.PersistentStore) error {
	if c, ok := store.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	store, err := openStore(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}
	opts := []core.Option{
		core.WithLogger(logger),
		core.WithAuditRecorder(core.NewSlogAuditRecorder(logger)),
	}
	var gatherer prometheus.Gatherer
	if cfg.Metrics.Enabled {
		reg := newRegistry()
		prom, err := core.NewPrometheusMetricsRecorder(reg)
		if err != nil {
			if cerr := closeStore(store); cerr != nil {
				err = errors.Join(err, fmt.Errorf("close store: %w", cerr))
			}
			return nil, err
		}
		opts = append(opts, core.WithMetricsRecorder(core.MultiMetricsRecorder{prom, core.NewExpvarMetricsRecorder("")}))
		gatherer = reg
	}
	taxonomies := core.NewTaxonomyService(store, opts...)
	species := core.NewSpeciesService(taxonomies, opts...)
	return &app{
		handler: httpapi.NewHandler(dispatch.New(taxonomies, species), logger, gatherer),
		store:   store,
	}, nil
}

func serve(ctx context.Context, srv *http.Server, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
