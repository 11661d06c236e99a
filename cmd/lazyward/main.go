// Command lazyward is a lazy-start reverse proxy for a Minecraft Java Edition
// server: it answers the handshake/status exchange itself while the backend
// is asleep, spawns it on the first real join attempt, and puts it back to
// sleep after it has sat idle past its configured timeout.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"lazyward/internal/config"
	"lazyward/internal/lifecycle"
	"lazyward/internal/logging"
	"lazyward/internal/server"
	"lazyward/internal/sleepproxy"
	"lazyward/internal/telemetry"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "lazyward:", err)
		os.Exit(1)
	}
}

func run() error {
	configFlag := flag.String("config", "", "path to config file (overrides LAZYWARD_CONFIG and auto-discovery)")
	flag.Parse()

	_ = godotenv.Load()

	resolved, err := config.ResolveConfigPath(*configFlag)
	if err != nil {
		return fmt.Errorf("resolve config path: %w", err)
	}
	if created, err := config.EnsureConfigFile(resolved.Path); err != nil {
		return fmt.Errorf("ensure config file: %w", err)
	} else if created {
		fmt.Fprintf(os.Stderr, "lazyward: wrote default config to %s\n", resolved.Path)
	}

	provider := config.NewFileConfigProvider(resolved.Path)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := provider.Load(ctx)
	if err != nil {
		return fmt.Errorf("load config %s: %w", resolved.Path, err)
	}

	logrt, err := logging.NewRuntime(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer func() { _ = logrt.Close() }()
	slog.SetDefault(logrt.Logger())
	logger := slog.Default()

	logger.Info("lazyward: starting",
		"config", resolved.Path,
		"config_source", resolved.Source,
		"public_addr", cfg.Public.Address,
		"server_addr", cfg.Server.Address,
		"admin_addr", cfg.AdminAddr,
	)

	cm := config.NewManager(provider, config.ManagerOptions{PollInterval: cfg.Reload.PollInterval})
	cm.SetCurrent(cfg)
	cm.Subscribe(func(oldCfg, newCfg *config.Config) {
		if logrt.NeedsRestart(newCfg.Logging) {
			logger.Warn("logging config changed (restart required for format/output/buffer)")
		}
		if err := logrt.Apply(newCfg.Logging); err != nil {
			logger.Warn("apply logging config failed", "err", err)
		}
		if oldCfg.Public.Address != newCfg.Public.Address {
			logger.Warn("public.address changed (restart required)")
		}
		if oldCfg.AdminAddr != newCfg.AdminAddr {
			logger.Warn("admin_addr changed (restart required)")
		}
	})
	if cfg.Reload.Enabled {
		cm.Start(ctx)
	}

	metrics := telemetry.NewMetricsCollector()
	state := lifecycle.NewServerState()
	controller := &lifecycle.Controller{Logger: logger}
	stoppers := []lifecycle.Stopper{
		&lifecycle.RCONStopper{Logger: logger},
		&lifecycle.SignalStopper{Logger: logger},
	}

	monitor := &lifecycle.Monitor{Logger: logger}
	go monitor.Run(ctx, cm.Current(), state, stoppers...)

	dispatcher := &sleepproxy.Dispatcher{
		Config:  cm.Current(),
		State:   state,
		Runner:  controller,
		Cache:   sleepproxy.NewStatusCache(time.Second),
		Metrics: metrics,
		Logger:  logger,
	}

	tcpServer := server.NewTCPServer(cfg.Public.Address, dispatcher, metrics, logger)

	admin := telemetry.NewAdminServer(telemetry.AdminServerOptions{
		Addr:    cfg.AdminAddr,
		Metrics: metrics,
		State:   state.Snapshot,
		Logs:    logrt.Store(),
		Reload: func(ctx context.Context) error {
			return cm.ReloadNow(ctx)
		},
		Health: func() bool {
			return tcpServer.IsListening()
		},
	})

	go func() {
		if err := admin.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("admin server error", "err", err)
			stop()
		}
	}()

	go func() {
		if err := tcpServer.ListenAndServe(ctx); err != nil {
			logger.Error("tcp server error", "err", err)
			stop()
		}
	}()

	go watchSignals(ctx, stop, cm, state, stoppers, logger)

	<-ctx.Done()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := admin.Shutdown(shutdownCtx); err != nil {
		logger.Warn("admin shutdown", "err", err)
	}
	if err := tcpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("tcp shutdown", "err", err)
	}

	logger.Info("lazyward exited")
	return nil
}

// watchSignals implements the two-stage shutdown: the first interrupt asks
// the backend to stop gracefully (if one is running) before the process
// exits; a second interrupt exits immediately regardless of backend state.
func watchSignals(ctx context.Context, stop context.CancelFunc, cm *config.Manager, state *lifecycle.ServerState, stoppers []lifecycle.Stopper, logger *slog.Logger) {
	<-ctx.Done()

	second, stopSecond := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSecond()

	killed := state.KillServer(context.Background(), cm.Current(), stoppers...)
	if !killed {
		logger.Info("lazyward: no backend process to stop, exiting")
		os.Exit(1)
	}

	go func() {
		<-second.Done()
		logger.Warn("lazyward: second interrupt received, exiting immediately")
		os.Exit(1)
	}()

	stop()
}
