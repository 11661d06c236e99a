//go:build windows

package lifecycle

import (
	"context"
	"log/slog"

	"golang.org/x/sys/windows"

	"lazyward/internal/config"
)

// SignalStopper sends CTRL_BREAK_EVENT to the tracked process group. It is
// the fallback strategy when RCON is disabled or unreachable.
type SignalStopper struct {
	Logger *slog.Logger
}

func (s *SignalStopper) Stop(_ context.Context, _ *config.Config, pid int) bool {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if err := windows.GenerateConsoleCtrlEvent(windows.CTRL_BREAK_EVENT, uint32(pid)); err != nil {
		logger.Warn("lifecycle: ctrl-break failed", slog.Int("pid", pid), slog.Any("error", err))
		return false
	}
	return true
}
