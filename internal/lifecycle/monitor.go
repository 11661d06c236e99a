package lifecycle

import (
	"context"
	"log/slog"
	"time"

	"lazyward/internal/config"
	"lazyward/internal/mcstatus"
)

// Monitor periodically probes the backend and drives the idle-sleep
// decision. It owns no state of its own beyond the interval/timeout it was
// configured with; ServerState is the single source of truth.
type Monitor struct {
	Logger *slog.Logger
}

// Run probes cfg.Server.Address every cfg.Monitor.ProbeInterval until ctx is
// canceled. After each probe it folds the result into state and, if the
// idle-sleep window has elapsed, asks stoppers to stop the backend.
func (m *Monitor) Run(ctx context.Context, cfg *config.Config, state *ServerState, stoppers ...Stopper) {
	logger := m.Logger
	if logger == nil {
		logger = slog.Default()
	}

	interval := cfg.Monitor.ProbeInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.tick(ctx, cfg, state, stoppers, logger)
		}
	}
}

func (m *Monitor) tick(ctx context.Context, cfg *config.Config, state *ServerState, stoppers []Stopper, logger *slog.Logger) {
	timeout := cfg.Monitor.ProbeTimeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}

	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	status, err := mcstatus.Ping(probeCtx, cfg.Server.Address)
	if err != nil {
		logger.Debug("lifecycle: probe failed", slog.Any("error", err))
		state.UpdateStatus(cfg, nil)
	} else {
		state.UpdateStatus(cfg, &status)
	}

	if state.ShouldSleep(cfg) {
		if state.KillServer(ctx, cfg, stoppers...) {
			logger.Info("lifecycle: idle timeout reached, stopping server")
		}
	}
}
