//go:build !windows

package lifecycle

import (
	"context"
	"log/slog"
	"syscall"

	"lazyward/internal/config"
)

// SignalStopper sends SIGTERM to the tracked process. It is the fallback
// strategy when RCON is disabled or unreachable.
type SignalStopper struct {
	Logger *slog.Logger
}

func (s *SignalStopper) Stop(_ context.Context, _ *config.Config, pid int) bool {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if err := syscall.Kill(pid, syscall.SIGTERM); err != nil {
		logger.Warn("lifecycle: sigterm failed", slog.Int("pid", pid), slog.Any("error", err))
		return false
	}
	return true
}
