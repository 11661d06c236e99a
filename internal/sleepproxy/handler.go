package sleepproxy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"

	"golang.org/x/time/rate"

	"lazyward/internal/config"
	"lazyward/internal/lifecycle"
	"lazyward/internal/mcproto"
	"lazyward/internal/mcstatus"
)

type chatText struct {
	Text string `json:"text"`
}

// loginDisconnect is the Login-state Disconnect packet body (packet id
// 0x00): a single JSON chat component.
type loginDisconnect struct {
	Reason string
}

func (d loginDisconnect) encode() []byte {
	payload, _ := json.Marshal(chatText{Text: d.Reason})
	return mcproto.WriteString(string(payload))
}

// StatusHandler answers the handshake/status/login exchange while the
// backend is not online, hijacking Login Start to spawn it. Grounded on
// original_source/src/main.rs's status_server loop.
type StatusHandler struct {
	Config  *config.Config
	State   *lifecycle.ServerState
	Runner  lifecycle.ProcessRunner
	Cache   *StatusCache
	Logger  *slog.Logger
	Limiter func() *rate.Limiter
}

// Handle runs the hijack loop for one connection until the client
// disconnects, a framing error occurs, or Login Start is hijacked.
func (h *StatusHandler) Handle(ctx context.Context, conn net.Conn) {
	defer shutdownWrite(conn)

	logger := h.Logger
	if logger == nil {
		logger = slog.Default()
	}

	session := mcproto.NewSession()
	buf := &bytes.Buffer{}
	limiter := rate.NewLimiter(rate.Limit(20), 20)
	if h.Limiter != nil {
		limiter = h.Limiter()
	}

	for {
		packet, raw, err := mcproto.ReadPacket(buf, conn)
		if err != nil {
			logger.Debug("sleepproxy: framing error", slog.Any("error", err))
			return
		}
		if packet == nil {
			return
		}

		switch {
		case session.State() == mcproto.StateLogin && packet.ID == mcproto.LoginStartPacketID:
			h.hijackLogin(ctx, conn)
			return

		case session.State() == mcproto.StateHandshake && packet.ID == mcproto.HandshakePacketID:
			hs, err := mcproto.DecodeHandshake(packet.Data)
			if err != nil {
				logger.Debug("sleepproxy: bad handshake", slog.Any("error", err))
				return
			}
			next, ok := mcproto.ClientStateFromID(hs.NextState)
			if !ok {
				logger.Debug("sleepproxy: unknown next_state", slog.Int64("next_state", int64(hs.NextState)))
				return
			}
			session.SetState(next)

		case session.State() == mcproto.StateStatus && packet.ID == mcproto.StatusRequestPacketID:
			if err := h.hijackStatusRequest(conn); err != nil {
				logger.Debug("sleepproxy: status request failed", slog.Any("error", err))
				return
			}

		case session.State() == mcproto.StateStatus && packet.ID == mcproto.StatusPingPacketID:
			_ = limiter.Wait(ctx)
			if _, err := conn.Write(raw); err != nil {
				return
			}

		default:
			logger.Debug("sleepproxy: unhandled packet", slog.Int64("id", int64(packet.ID)), slog.String("state", session.State().String()))
		}
	}
}

func (h *StatusHandler) hijackLogin(ctx context.Context, conn net.Conn) {
	resp := mcproto.RawPacket{
		ID:   0,
		Data: loginDisconnect{Reason: h.Config.Messages.LoginStarting}.encode(),
	}
	_, _ = conn.Write(resp.Encode())
	h.State.Start(ctx, h.Config, h.Runner)
}

func (h *StatusHandler) hijackStatusRequest(conn net.Conn) error {
	starting := h.State.Starting()
	last := h.State.Status()

	version := mcstatus.Version{
		Name:     h.Config.Messages.DefaultVersionName,
		Protocol: h.Config.Messages.DefaultProtocol,
	}
	var max int32
	if last != nil {
		version = last.Version
		max = last.Players.Max
	}

	description := h.Config.Messages.MOTDSleeping
	if starting {
		description = h.Config.Messages.MOTDStarting
	}

	status := mcstatus.ServerStatus{
		Version:     version,
		Description: mcstatus.Chat{Text: description},
		Players:     mcstatus.Players{Online: 0, Max: max},
	}

	payload, err := h.Cache.GetOrBuild(statusCacheKey{starting: starting, max: max}, func() ([]byte, error) {
		return status.Encode()
	})
	if err != nil {
		return err
	}

	resp := mcproto.RawPacket{ID: 0, Data: mcproto.WriteString(string(payload))}
	_, err = conn.Write(resp.Encode())
	return err
}

func shutdownWrite(conn net.Conn) {
	if hc, ok := conn.(halfCloser); ok {
		if err := hc.CloseWrite(); err != nil && !errors.Is(err, net.ErrClosed) {
			slog.Default().Debug("sleepproxy: shutdown write failed", slog.Any("error", err))
		}
		return
	}
	_ = conn.Close()
}
