package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"launchpad/config"
	"launchpad/core/events"
	"launchpad/crypto"
	"launchpad/gateway/middleware"
	"launchpad/native/sale"
	"launchpad/native/vesting"
	"launchpad/observability"
	"launchpad/observability/logging"
	"launchpad/rpc"
	"launchpad/storage"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "launchpadd: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("launchpadd", flag.ContinueOnError)
	fs.SetOutput(stderr)
	cfgPath := fs.String("config", "launchpad.toml", "path to launchpad configuration (.toml or .yaml)")
	initPath := fs.String("init", "", "write a default configuration to this path and exit")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *initPath != "" {
		if _, err := os.Stat(*initPath); err == nil {
			return fmt.Errorf("refusing to overwrite existing config %s", *initPath)
		}
		if err := config.Save(*initPath, config.Default()); err != nil {
			return fmt.Errorf("write default config: %w", err)
		}
		fmt.Fprintf(stderr, "wrote default configuration to %s; set sale.controller before starting\n", *initPath)
		return nil
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	env := cfg.Environment
	if override := strings.TrimSpace(os.Getenv("LAUNCHPAD_ENV")); override != "" {
		env = override
	}
	logger := logging.Setup(cfg.Service, env, cfg.LogOptions())

	app, err := bootstrap(cfg, logger, time.Now().Unix())
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("close storage", "error", err)
		}
	}()

	srv := &http.Server{
		Addr:              cfg.RPC.Listen,
		Handler:           app.server.Router(),
		ReadHeaderTimeout: time.Duration(cfg.RPC.ReadHeaderTimeoutSeconds) * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("launchpadd listening", "addr", cfg.RPC.Listen, "storage", cfg.Storage.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err, ok := <-errCh:
		if ok && err != nil {
			return fmt.Errorf("serve rpc: %w", err)
		}
	}

	logger.Info("launchpadd shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.RPC.ShutdownTimeoutSeconds)*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown rpc: %w", err)
	}
	return nil
}

type application struct {
	db      storage.Database
	sale    *sale.Engine
	vesting *vesting.Engine
	server  *rpc.Server
}

func (a *application) Close() error {
	if a == nil || a.db == nil {
		return nil
	}
	return a.db.Close()
}

// bootstrap opens storage, restores both engines, installs configuration,
// seeds absent vesting grants and builds the RPC server.
func bootstrap(cfg *config.Config, logger *slog.Logger, now int64) (*application, error) {
	db, err := storage.Open(cfg.Storage.Backend, cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	app := &application{db: db}
	ok := false
	defer func() {
		if !ok {
			_ = db.Close()
		}
	}()

	emitter := events.Fanout{observability.Events(), logEmitter{logger: logger}}

	app.sale = sale.NewEngine()
	app.sale.SetState(sale.NewKVState(db))
	app.sale.SetEmitter(emitter)
	saleParams, err := cfg.SaleParams()
	if err != nil {
		return nil, err
	}
	switch err := app.sale.Configure(saleParams); {
	case errors.Is(err, sale.ErrConfigLocked):
		logger.Info("sale already started; keeping persisted parameters")
	case err != nil:
		return nil, fmt.Errorf("configure sale: %w", err)
	}

	app.vesting = vesting.NewEngine()
	app.vesting.SetState(vesting.NewKVState(db))
	app.vesting.SetEmitter(emitter)
	vestingParams, err := cfg.VestingParams()
	if err != nil {
		return nil, err
	}
	if err := app.vesting.Configure(vestingParams); err != nil {
		return nil, fmt.Errorf("configure vesting: %w", err)
	}
	if err := seedGrants(app.vesting, vestingParams.Controller, cfg, logger, now); err != nil {
		return nil, err
	}

	if err := rpc.PublishSaleMetrics(app.sale); err != nil {
		return nil, err
	}
	if err := rpc.PublishVestingMetrics(app.vesting); err != nil {
		return nil, err
	}

	skew, err := cfg.ClockSkew()
	if err != nil {
		return nil, err
	}
	app.server = rpc.NewServer(app.sale, app.vesting, rpc.ServerConfig{
		Auth: middleware.AuthConfig{
			Enabled:        cfg.Auth.Enabled,
			HMACSecret:     cfg.Auth.HMACSecret,
			Issuer:         cfg.Auth.Issuer,
			Audience:       cfg.Auth.Audience,
			OptionalPaths:  []string{"/healthz", "/metrics"},
			AllowAnonymous: cfg.Auth.AllowAnonymous,
			ClockSkew:      skew,
		},
		RateLimit: middleware.RateLimit{
			RequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
			Burst:             cfg.RateLimit.Burst,
		},
		Pauses: cfg.Pauses,
		Logger: logger,
	})
	ok = true
	return app, nil
}

// seedGrants creates each configured grant whose beneficiary has no schedule
// yet. Existing schedules are left untouched.
func seedGrants(engine *vesting.Engine, controller [20]byte, cfg *config.Config, logger *slog.Logger, now int64) error {
	grants, err := cfg.VestingGrants()
	if err != nil {
		return err
	}
	for _, grant := range grants {
		_, err := engine.Schedule(grant.Beneficiary)
		if err == nil {
			continue
		}
		if !errors.Is(err, vesting.ErrNoSchedule) {
			return fmt.Errorf("lookup grant %s: %w", crypto.FormatIdentity(grant.Beneficiary), err)
		}
		start := grant.Start
		if start == 0 {
			start = now
		}
		if _, err := engine.CreateSchedule(controller, grant.Beneficiary, grant.Amount, grant.Cliff, grant.Duration, grant.Revocable, start); err != nil {
			return fmt.Errorf("seed grant %s: %w", crypto.FormatIdentity(grant.Beneficiary), err)
		}
		logger.Info("seeded vesting grant", "beneficiary", crypto.FormatIdentity(grant.Beneficiary), "amount", grant.Amount.String())
	}
	return nil
}

// logEmitter writes every engine event as a structured log line.
type logEmitter struct {
	logger *slog.Logger
}

func (l logEmitter) Emit(evt events.Event) {
	rendered := events.Render(evt)
	if rendered == nil {
		return
	}
	attrs := make([]any, 0, 2+2*len(rendered.Attributes))
	attrs = append(attrs, "event", rendered.Type)
	for key, value := range rendered.Attributes {
		attrs = append(attrs, key, value)
	}
	l.logger.Info("engine event", attrs...)
}
