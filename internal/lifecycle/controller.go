package lifecycle

import (
	"context"
	"log/slog"
	"os/exec"
	"strings"

	"lazyward/internal/config"
)

// Controller spawns and supervises the backend server process. It owns the
// child for its entire lifetime: cancelling the context it is run with kills
// the child, and the child exiting on its own resets ServerState to a clean
// slate.
type Controller struct {
	Logger *slog.Logger
}

// Run tokenizes cfg.Server.Command by whitespace (quoted arguments are not
// supported), spawns it with cfg.Server.Directory as its working directory
// when set, and blocks until it exits. It resets pid/online/starting/stopping
// once the child is reaped, so the next join attempt can start a fresh one.
func (c *Controller) Run(ctx context.Context, cfg *config.Config, state *ServerState) {
	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}

	defer func() {
		state.SetPid(nil)
		state.online.Store(false)
		state.starting.Store(false)
		state.stopping.Store(false)
	}()

	args := strings.Fields(cfg.Server.Command)
	if len(args) == 0 {
		logger.Error("lifecycle: server.command is empty")
		return
	}

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	if cfg.Server.Directory != "" {
		cmd.Dir = cfg.Server.Directory
	}
	cmd.Stdout = nil
	cmd.Stderr = nil

	if err := cmd.Start(); err != nil {
		logger.Error("lifecycle: failed to start server process", slog.Any("error", err))
		return
	}

	pid := cmd.Process.Pid
	state.SetPid(&pid)
	logger.Info("lifecycle: server process started", slog.Int("pid", pid))

	err := cmd.Wait()
	if err != nil {
		logger.Info("lifecycle: server process exited", slog.Int("pid", pid), slog.Any("error", err))
	} else {
		logger.Info("lifecycle: server process exited", slog.Int("pid", pid))
	}
}
