package sleepproxy

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"lazyward/internal/config"
	"lazyward/internal/lifecycle"
	"lazyward/internal/mcproto"
	"lazyward/internal/mcstatus"
)

func testHandlerConfig() *config.Config {
	return &config.Config{
		Messages: config.MessagesConfig{
			LoginStarting:      "starting, hang tight",
			MOTDStarting:       "starting...",
			MOTDSleeping:       "sleeping",
			DefaultVersionName: "1.20.1",
			DefaultProtocol:    763,
		},
	}
}

type recordingRunner struct {
	starts atomic.Int32
}

func (r *recordingRunner) Run(ctx context.Context, cfg *config.Config, state *lifecycle.ServerState) {
	r.starts.Add(1)
}

func dialHandshake(t *testing.T, conn net.Conn, nextState int32) {
	t.Helper()
	hs := mcproto.Handshake{ProtocolVersion: 763, ServerAddress: "localhost", ServerPort: 25565, NextState: nextState}
	p := mcproto.RawPacket{ID: mcproto.HandshakePacketID, Data: hs.Encode()}
	if _, err := conn.Write(p.Encode()); err != nil {
		t.Fatalf("write handshake: %v", err)
	}
}

func TestStatusHandlerRespondsToStatusRequest(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()

	h := &StatusHandler{
		Config: testHandlerConfig(),
		State:  lifecycle.NewServerState(),
		Runner: &recordingRunner{},
		Cache:  NewStatusCache(time.Minute),
	}

	go h.Handle(context.Background(), server)

	dialHandshake(t, client, 1) // -> Status
	req := mcproto.RawPacket{ID: mcproto.StatusRequestPacketID}
	if _, err := client.Write(req.Encode()); err != nil {
		t.Fatalf("write status request: %v", err)
	}

	buf := &bytes.Buffer{}
	packet, _, err := mcproto.ReadPacket(buf, client)
	if err != nil {
		t.Fatalf("ReadPacket: %v", err)
	}
	if packet == nil {
		t.Fatalf("expected a status response packet")
	}

	_, payload, err := mcproto.ReadString(packet.Data)
	if err != nil {
		t.Fatalf("ReadString: %v", err)
	}
	var status mcstatus.ServerStatus
	if err := json.Unmarshal([]byte(payload), &status); err != nil {
		t.Fatalf("unmarshal status: %v", err)
	}
	if status.Description.Text != "sleeping" {
		t.Fatalf("description=%q want=%q", status.Description.Text, "sleeping")
	}
	if status.Version.Name != "1.20.1" {
		t.Fatalf("version=%q want=%q", status.Version.Name, "1.20.1")
	}
}

func TestStatusHandlerEchoesPing(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()

	h := &StatusHandler{
		Config: testHandlerConfig(),
		State:  lifecycle.NewServerState(),
		Runner: &recordingRunner{},
		Cache:  NewStatusCache(time.Minute),
	}
	go h.Handle(context.Background(), server)

	dialHandshake(t, client, 1)
	ping := mcproto.RawPacket{ID: mcproto.StatusPingPacketID, Data: mcproto.WriteVarInt(424242)}
	pingBytes := ping.Encode()
	if _, err := client.Write(pingBytes); err != nil {
		t.Fatalf("write ping: %v", err)
	}

	buf := &bytes.Buffer{}
	_, raw, err := mcproto.ReadPacket(buf, client)
	if err != nil {
		t.Fatalf("ReadPacket: %v", err)
	}
	if !bytes.Equal(raw, pingBytes) {
		t.Fatalf("ping not echoed verbatim")
	}
}

func TestStatusHandlerHijacksLoginAndStartsServer(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()

	runner := &recordingRunner{}
	state := lifecycle.NewServerState()
	h := &StatusHandler{
		Config: testHandlerConfig(),
		State:  state,
		Runner: runner,
		Cache:  NewStatusCache(time.Minute),
	}

	handleDone := make(chan struct{})
	go func() {
		h.Handle(context.Background(), server)
		close(handleDone)
	}()

	dialHandshake(t, client, 2) // -> Login
	loginStart := mcproto.RawPacket{ID: mcproto.LoginStartPacketID, Data: []byte("player")}
	if _, err := client.Write(loginStart.Encode()); err != nil {
		t.Fatalf("write login start: %v", err)
	}

	buf := &bytes.Buffer{}
	packet, _, err := mcproto.ReadPacket(buf, client)
	if err != nil {
		t.Fatalf("ReadPacket: %v", err)
	}
	if packet == nil {
		t.Fatalf("expected a disconnect packet")
	}

	select {
	case <-handleDone:
	case <-time.After(time.Second):
		t.Fatalf("handler did not return after hijacking login")
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if runner.starts.Load() == 1 {
			break
		}
		time.Sleep(time.Millisecond)
	}
	if n := runner.starts.Load(); n != 1 {
		t.Fatalf("runner.starts=%d want=1", n)
	}
}

// TestConcurrentJoinsSpawnExactlyOnce exercises the lifecycle/handler seam
// together: many simultaneous Login Start hijacks against the same
// ServerState must start the backend exactly once.
func TestConcurrentJoinsSpawnExactlyOnce(t *testing.T) {
	state := lifecycle.NewServerState()
	runner := &recordingRunner{}
	cfg := testHandlerConfig()

	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			client, server := net.Pipe()
			defer client.Close()

			h := &StatusHandler{Config: cfg, State: state, Runner: runner, Cache: NewStatusCache(time.Minute)}
			go h.Handle(context.Background(), server)

			dialHandshake(t, client, 2)
			loginStart := mcproto.RawPacket{ID: mcproto.LoginStartPacketID, Data: []byte("p")}
			_, _ = client.Write(loginStart.Encode())

			buf := &bytes.Buffer{}
			_, _, _ = mcproto.ReadPacket(buf, client)
		}()
	}
	wg.Wait()

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) && runner.starts.Load() == 0 {
		time.Sleep(time.Millisecond)
	}
	if n := runner.starts.Load(); n != 1 {
		t.Fatalf("starts=%d want=1 (exactly-once spawn under concurrent joiners)", n)
	}
}
