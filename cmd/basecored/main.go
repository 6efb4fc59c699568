// Command basecored wires the framework's components into a running
// HTTP service (spec SPEC_FULL.md §10.5): Registry, Bus, ActionRegistry,
// LifecycleCoordinator, Config, Logger, the example Modules, and the HTTP
// Listener.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/basecore/basecore/action"
	"github.com/basecore/basecore/bus"
	"github.com/basecore/basecore/config"
	"github.com/basecore/basecore/httpx"
	"github.com/basecore/basecore/lifecycle"
	"github.com/basecore/basecore/logging"
	"github.com/basecore/basecore/modules/health"
	"github.com/basecore/basecore/modules/staticfiles"
	"github.com/basecore/basecore/registry"
	"github.com/basecore/basecore/runtime"
	"github.com/spf13/viper"
)

// bootstrapSettings are the handful of process-startup values basecored
// needs before the config.Source (C7) can even be built — which env we're
// in and where to find things. These are distinct from the layered
// Config.{namespace} values served at runtime by config.Source: config.Load
// reads config.yaml itself and applies its own BASECORE_{NAMESPACE}_{KEY}
// override rule (config/merge.go), which needs two different separator
// widths at different tree depths that viper's single global replacer
// can't express. Bootstrap settings have no such nesting, so viper's
// ordinary env-binding covers them directly.
func bootstrapSettings() (env, configDir, assetsDir string) {
	v := viper.New()
	v.SetDefault("env", logging.EnvDevelopment)
	v.SetDefault("config_dir", "configs")
	v.SetDefault("assets_dir", "assets")

	v.SetEnvPrefix("basecore")
	v.AutomaticEnv()
	_ = v.BindEnv("env", "APP_ENV")
	_ = v.BindEnv("config_dir", "BASECORE_CONFIG_DIR")
	_ = v.BindEnv("assets_dir", "BASECORE_ASSETS_DIR")

	return v.GetString("env"), v.GetString("config_dir"), v.GetString("assets_dir")
}

func main() {
	os.Exit(run())
}

func run() int {
	env, configDir, assetsRoot := bootstrapSettings()

	log, err := logging.New(env, "basecored")
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to build logger:", err)
		return 1
	}
	defer log.Sync() //nolint:errcheck

	reg := registry.New()
	reg.Use(registry.FuncHook{
		After: func(_ context.Context, key string, err error) {
			if err != nil {
				log.Errorw("registry resolve failed", "key", key, "error", err)
			}
		},
	})
	b := bus.New(log)
	actions := action.New()
	coordinator := lifecycle.New(reg, log)

	cfg, err := config.Load(configDir, env, reg)
	if err != nil {
		log.Errorw("failed to load configuration", "error", err)
		return 1
	}

	httpNS, err := cfg.Namespace("http")
	if err != nil {
		log.Errorw("failed to resolve http config", "error", err)
		return 1
	}
	addr := stringOr(httpNS["addr"], ":8080")
	timeout := durationOr(httpNS["timeout_seconds"], 30*time.Second)

	sf := staticfiles.New(assetsRoot, b, actions, logging.ForModule(log, "StaticFiles"))
	if _, err := sf.RegisterSelf(reg, sf, 100); err != nil {
		log.Errorw("failed to register StaticFiles module", "error", err)
		return 1
	}

	hc := health.New(b, actions, reg, logging.ForModule(log, "Health"))
	if _, err := hc.RegisterSelf(reg, hc, 100); err != nil {
		log.Errorw("failed to register Health module", "error", err)
		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 1. Registry-managed singleton setup, ascending phase.
	if err := coordinator.Startup(ctx); err != nil {
		log.Errorw("startup failed", "error", err)
		return 1
	}

	// 2. The InitContext: runs every @init action by phase. The HTTP
	// listener does not start accepting connections until this
	// completes (spec.md §2's control-flow summary).
	initCtx := runtime.NewInit(b, actions, log)
	if err := initCtx.Run(ctx); err != nil {
		log.Errorw("init actions failed", "error", err)
		return 1
	}

	router := httpx.NewRouter([]httpx.Route{
		{Method: "GET", Pattern: "/assets/*"},
		{Method: "GET", Pattern: "/healthz"},
	})
	listener := httpx.NewListener(addr, timeout, router, b, actions, log)

	// 3. Start accepting connections, now that init has completed.
	if err := listener.Setup(ctx); err != nil {
		log.Errorw("failed to start http listener", "error", err)
		return 1
	}
	log.Infow("basecored started", "addr", addr, "env", env)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Infow("shutting down")

	if err := listener.Teardown(ctx); err != nil {
		log.Errorw("error stopping http listener", "error", err)
	}

	teardownCtx, teardownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer teardownCancel()
	if err := coordinator.Teardown(teardownCtx); err != nil {
		log.Errorw("error during teardown", "error", err)
		return 1
	}

	log.Infow("basecored stopped")
	return 0
}

func stringOr(v any, fallback string) string {
	if s, ok := v.(string); ok && s != "" {
		return s
	}
	return fallback
}

func durationOr(v any, fallback time.Duration) time.Duration {
	switch n := v.(type) {
	case int:
		return time.Duration(n) * time.Second
	case float64:
		return time.Duration(n) * time.Second
	default:
		return fallback
	}
}
