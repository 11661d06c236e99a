package mcproto

import "fmt"

// ClientState is the protocol phase of one client connection.
type ClientState int

const (
	StateHandshake ClientState = iota
	StateStatus
	StateLogin
	StatePlay
)

func (s ClientState) String() string {
	switch s {
	case StateHandshake:
		return "handshake"
	case StateStatus:
		return "status"
	case StateLogin:
		return "login"
	case StatePlay:
		return "play"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ClientStateFromID maps a Handshake packet's next_state field to a
// ClientState. Only Status (1) and Login (2) are valid next states.
func ClientStateFromID(id int32) (ClientState, bool) {
	switch id {
	case 1:
		return StateStatus, true
	case 2:
		return StateLogin, true
	default:
		return 0, false
	}
}

// Session tracks the protocol phase of a single connection. It is owned
// exclusively by the goroutine handling that connection and is never shared,
// so it needs no synchronization.
type Session struct {
	state ClientState
}

// NewSession returns a session starting in the Handshake state.
func NewSession() *Session {
	return &Session{state: StateHandshake}
}

func (s *Session) State() ClientState { return s.state }

// SetState transitions the session. It is expected to be called at most
// once, immediately after decoding a Handshake packet.
func (s *Session) SetState(state ClientState) { s.state = state }

// Handshake is the single inbound packet of the Handshake state (packet id
// 0x00).
type Handshake struct {
	ProtocolVersion int32
	ServerAddress   string
	ServerPort      uint16
	NextState       int32
}

// DecodeHandshake parses a Handshake packet body.
func DecodeHandshake(data []byte) (Handshake, error) {
	var h Handshake

	n, v, err := ReadVarInt(data)
	if err != nil {
		return Handshake{}, fmt.Errorf("mcproto: decode handshake protocol_version: %w", err)
	}
	h.ProtocolVersion = v
	data = data[n:]

	n, addr, err := ReadString(data)
	if err != nil {
		return Handshake{}, fmt.Errorf("mcproto: decode handshake server_address: %w", err)
	}
	h.ServerAddress = addr
	data = data[n:]

	n, port, err := ReadUShort(data)
	if err != nil {
		return Handshake{}, fmt.Errorf("mcproto: decode handshake server_port: %w", err)
	}
	h.ServerPort = port
	data = data[n:]

	_, next, err := ReadVarInt(data)
	if err != nil {
		return Handshake{}, fmt.Errorf("mcproto: decode handshake next_state: %w", err)
	}
	h.NextState = next

	return h, nil
}

// Encode serializes a Handshake packet body (used only by tests, which act
// as a client).
func (h Handshake) Encode() []byte {
	out := WriteVarInt(h.ProtocolVersion)
	out = append(out, WriteString(h.ServerAddress)...)
	out = append(out, WriteUShort(h.ServerPort)...)
	out = append(out, WriteVarInt(h.NextState)...)
	return out
}

const (
	// HandshakePacketID is the single Handshake-state packet id.
	HandshakePacketID int32 = 0x00
	// StatusRequestPacketID is the Status Request packet id (Status state).
	StatusRequestPacketID int32 = 0x00
	// StatusPingPacketID is the Ping packet id (Status state).
	StatusPingPacketID int32 = 0x01
	// LoginStartPacketID is the Login Start packet id (Login state).
	LoginStartPacketID int32 = 0x00
)
