package sleepproxy

import (
	"context"
	"log/slog"
	"net"

	"lazyward/internal/config"
	"lazyward/internal/lifecycle"
)

// Dispatcher is the public listener's connection handler: it decides, once
// per accepted connection, whether to run the status hijack handler or the
// transparent proxy. It implements internal/server.ConnectionHandler.
type Dispatcher struct {
	Config  *config.Config
	State   *lifecycle.ServerState
	Runner  lifecycle.ProcessRunner
	Cache   *StatusCache
	Metrics ByteCounter
	Logger  *slog.Logger
}

func (d *Dispatcher) Handle(ctx context.Context, conn net.Conn) {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if d.State.Online() {
		if err := Proxy(ctx, conn, d.Config.Server.Address, d.Metrics); err != nil {
			logger.Debug("sleepproxy: proxy session ended", slog.Any("error", err))
		}
		return
	}

	h := &StatusHandler{
		Config: d.Config,
		State:  d.State,
		Runner: d.Runner,
		Cache:  d.Cache,
		Logger: logger,
	}
	h.Handle(ctx, conn)
}
