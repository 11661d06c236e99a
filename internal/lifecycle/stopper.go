package lifecycle

import (
	"context"
	"log/slog"
	"net"

	"lazyward/internal/config"
	"lazyward/internal/rcon"
)

// RCONStopper stops the backend over RCON: a best-effort "save-all" followed
// by a required "stop". It never touches pid directly, so KillServer's pid
// argument is accepted only to satisfy the Stopper interface.
type RCONStopper struct {
	Logger *slog.Logger
}

func (r *RCONStopper) Stop(ctx context.Context, cfg *config.Config, pid int) bool {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if !cfg.RCON.Enabled {
		return false
	}

	host, _, err := net.SplitHostPort(cfg.Server.Address)
	if err != nil {
		host = cfg.Server.Address
	}

	client := rcon.New(host, cfg.RCON.Port, cfg.RCON.Password)

	if err := client.Command("save-all"); err != nil {
		logger.Warn("lifecycle: rcon save-all failed", slog.Any("error", err))
	}

	if err := client.Command("stop"); err != nil {
		logger.Warn("lifecycle: rcon stop failed", slog.Any("error", err))
		return false
	}
	return true
}
