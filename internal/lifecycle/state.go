// Package lifecycle owns the shared state of the backend Minecraft server
// process: whether it is online, starting, or stopping, its last known
// status, and the idle-sleep decision that drives when it gets stopped again.
package lifecycle

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"lazyward/internal/config"
	"lazyward/internal/mcstatus"
)

// ServerState is the single process-wide, shared-by-pointer record of the
// backend server's lifecycle. Online/Starting/Stopping are lock-free so that
// the listener's hot accept path never blocks on the monitor or the process
// controller; the remaining fields change together and share one mutex with
// deliberately short critical sections.
type ServerState struct {
	online   atomic.Bool
	starting atomic.Bool
	stopping atomic.Bool

	mu              sync.Mutex
	pid             *int
	status          *mcstatus.ServerStatus
	lastActive      *time.Time
	keepOnlineUntil *time.Time
}

func NewServerState() *ServerState {
	return &ServerState{}
}

func (s *ServerState) Online() bool   { return s.online.Load() }
func (s *ServerState) Starting() bool { return s.starting.Load() }
func (s *ServerState) Stopping() bool { return s.stopping.Load() }

// Pid returns the backend process id and whether one is currently recorded.
func (s *ServerState) Pid() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pid == nil {
		return 0, false
	}
	return *s.pid, true
}

// SetPid records the backend process id, or clears it when pid is nil.
func (s *ServerState) SetPid(pid *int) {
	s.mu.Lock()
	s.pid = pid
	s.mu.Unlock()
}

// Status returns the last successful probe result, if any.
func (s *ServerState) Status() *mcstatus.ServerStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Snapshot is a point-in-time, JSON-friendly view of ServerState for the
// admin surface.
type Snapshot struct {
	Online     bool                    `json:"online"`
	Starting   bool                    `json:"starting"`
	Stopping   bool                    `json:"stopping"`
	PID        *int                    `json:"pid,omitempty"`
	Status     *mcstatus.ServerStatus  `json:"status,omitempty"`
	LastActive *time.Time              `json:"last_active,omitempty"`
}

func (s *ServerState) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	var pid *int
	if s.pid != nil {
		p := *s.pid
		pid = &p
	}
	return Snapshot{
		Online:     s.online.Load(),
		Starting:   s.starting.Load(),
		Stopping:   s.stopping.Load(),
		PID:        pid,
		Status:     s.status,
		LastActive: s.lastActive,
	}
}

// UpdateStatus folds one monitor probe result into the shared state. A nil
// status means the probe failed or timed out.
func (s *ServerState) UpdateStatus(cfg *config.Config, status *mcstatus.ServerStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wasOnline := s.online.Load()
	nowOnline := status != nil && !s.stopping.Load()
	s.online.Store(nowOnline)

	now := time.Now()
	if nowOnline && !wasOnline {
		s.lastActive = &now
		until := now.Add(cfg.Time.MinOnlineTime)
		s.keepOnlineUntil = &until
		slog.Default().Info("lifecycle: server is now online")
	}
	if status != nil {
		if status.Players.Online > 0 {
			s.lastActive = &now
		}
		s.status = status
	}
}

// MarkOffline is called synchronously by KillServer once a stopper reports
// success, so Dispatcher stops routing new connections to the backend
// immediately instead of waiting for the next monitor probe to catch up.
func (s *ServerState) MarkOffline() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.online.Store(false)
	s.keepOnlineUntil = nil
}

// ShouldSleep reports whether the idle-sleep window has elapsed. It returns
// false while the server is starting, offline, hosting at least one player,
// or within its keep-online window.
func (s *ServerState) ShouldSleep(cfg *config.Config) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.keepOnlineUntil != nil && time.Now().Before(*s.keepOnlineUntil) {
		return false
	}
	if !s.online.Load() {
		return false
	}
	if s.starting.Load() {
		return false
	}
	if s.status == nil || s.status.Players.Online > 0 {
		return false
	}
	if s.lastActive == nil {
		return false
	}
	return time.Since(*s.lastActive) >= cfg.Time.SleepAfter
}
