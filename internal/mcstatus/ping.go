package mcstatus

import (
	"bytes"
	"context"
	"fmt"
	"net"

	"lazyward/internal/mcproto"
)

// Ping performs a Minecraft Server List Ping against addr and returns the
// decoded status. The context bounds both the dial and the read; callers
// (the idle-sleep monitor) typically wrap this with a few seconds of
// timeout.
func Ping(ctx context.Context, addr string) (ServerStatus, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return ServerStatus{}, fmt.Errorf("mcstatus: dial %s: %w", addr, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		host, portStr = addr, "25565"
	}
	var port uint16
	if _, serr := fmt.Sscanf(portStr, "%d", &port); serr != nil {
		port = 25565
	}

	handshake := mcproto.Handshake{
		ProtocolVersion: -1,
		ServerAddress:   host,
		ServerPort:      port,
		NextState:       1, // Status
	}
	handshakePacket := mcproto.RawPacket{ID: mcproto.HandshakePacketID, Data: handshake.Encode()}
	statusRequest := mcproto.RawPacket{ID: mcproto.StatusRequestPacketID}

	if _, err := conn.Write(handshakePacket.Encode()); err != nil {
		return ServerStatus{}, fmt.Errorf("mcstatus: write handshake: %w", err)
	}
	if _, err := conn.Write(statusRequest.Encode()); err != nil {
		return ServerStatus{}, fmt.Errorf("mcstatus: write status request: %w", err)
	}

	buf := &bytes.Buffer{}
	packet, _, err := mcproto.ReadPacket(buf, conn)
	if err != nil {
		return ServerStatus{}, fmt.Errorf("mcstatus: read status response: %w", err)
	}
	if packet == nil {
		return ServerStatus{}, fmt.Errorf("mcstatus: connection closed before status response")
	}

	_, payload, err := mcproto.ReadString(packet.Data)
	if err != nil {
		return ServerStatus{}, fmt.Errorf("mcstatus: read status response body: %w", err)
	}

	status, err := Decode([]byte(payload))
	if err != nil {
		return ServerStatus{}, fmt.Errorf("mcstatus: decode status response: %w", err)
	}
	return status, nil
}
