package lifecycle

import (
	"context"
	"log/slog"
	"time"

	"lazyward/internal/config"
)

// ProcessRunner launches and supervises the backend process. The only
// implementation is Controller; it is an interface so tests can substitute a
// fake without spawning a real process.
type ProcessRunner interface {
	Run(ctx context.Context, cfg *config.Config, state *ServerState)
}

// Stopper is one strategy for asking the backend process to exit gracefully.
// It returns true iff it believes the stop was delivered.
type Stopper interface {
	Stop(ctx context.Context, cfg *config.Config, pid int) bool
}

// Start is the CAS-guarded admission test for spawning the backend process.
// Only the caller that wins the starting=false->true transition refreshes
// lastActive and launches the process controller; concurrent callers
// (multiple clients joining at once) are no-ops.
func (s *ServerState) Start(ctx context.Context, cfg *config.Config, runner ProcessRunner) {
	if !s.starting.CompareAndSwap(false, true) {
		return
	}

	s.mu.Lock()
	now := time.Now()
	s.lastActive = &now
	s.mu.Unlock()

	go runner.Run(ctx, cfg, s)
}

// KillServer attempts each stopper in order until one reports success,
// setting stopping=true and clearing the keep-online window on the first
// success. It returns false immediately if no process is currently tracked.
func (s *ServerState) KillServer(ctx context.Context, cfg *config.Config, stoppers ...Stopper) bool {
	pid, ok := s.Pid()
	if !ok {
		return false
	}

	for _, stopper := range stoppers {
		if stopper == nil {
			continue
		}
		if stopper.Stop(ctx, cfg, pid) {
			s.stopping.Store(true)
			s.MarkOffline()
			return true
		}
	}

	slog.Default().Warn("lifecycle: all stop strategies failed", slog.Int("pid", pid))
	return false
}
