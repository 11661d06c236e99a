// Package rcon wraps git.tobler.codes/minecraft/go-rcon behind the small
// connect-and-run-a-command contract the lifecycle package needs; none of
// the RCON wire framing lives here.
package rcon

import (
	"fmt"

	"git.tobler.codes/minecraft/go-rcon/conn"
	"git.tobler.codes/minecraft/go-rcon/packet"
)

// Client dials a fresh RCON session per command. Sessions are not kept open
// across calls since the backend may be mid-stop or briefly unreachable
// between attempts.
type Client struct {
	Host     string
	Port     uint16
	Password string
}

func New(host string, port uint16, password string) *Client {
	return &Client{Host: host, Port: port, Password: password}
}

// Command connects, logs in, sends cmd, and waits for its response before
// closing the connection.
func (c *Client) Command(cmd string) error {
	session, err := conn.New(c.Host, c.Port, c.Password)
	if err != nil {
		return fmt.Errorf("rcon: connect %s:%d: %w", c.Host, c.Port, err)
	}
	defer session.Close()

	req := packet.New(packet.Command, cmd)
	if err := session.WritePacket(req); err != nil {
		return fmt.Errorf("rcon: write command %q: %w", cmd, err)
	}
	if _, err := session.ReadPackets(); err != nil {
		return fmt.Errorf("rcon: read response to %q: %w", cmd, err)
	}
	return nil
}
