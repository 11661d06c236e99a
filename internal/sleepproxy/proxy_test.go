package sleepproxy

import (
	"bytes"
	"context"
	"crypto/rand"
	"io"
	"net"
	"sync/atomic"
	"testing"
	"time"
)

type countingMetrics struct {
	ingress atomic.Int64
	egress  atomic.Int64
}

func (m *countingMetrics) AddIngress(n int64) { m.ingress.Add(n) }
func (m *countingMetrics) AddEgress(n int64)  { m.egress.Add(n) }

// TestProxyForwardsBothDirections exercises a full 1 MiB round trip through
// Proxy with half-close propagation, using real TCP sockets on both sides so
// CloseWrite behaves as it would for an accepted client connection.
func TestProxyForwardsBothDirections(t *testing.T) {
	backendLn, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen backend: %v", err)
	}
	defer backendLn.Close()

	payload := make([]byte, 1<<20)
	if _, err := rand.Read(payload); err != nil {
		t.Fatalf("rand: %v", err)
	}

	go func() {
		conn, err := backendLn.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		got, _ := io.ReadAll(conn)
		_, _ = conn.Write(got) // echo back what the client sent
	}()

	frontLn, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen front: %v", err)
	}
	defer frontLn.Close()

	metrics := &countingMetrics{}
	proxyDone := make(chan error, 1)
	go func() {
		accepted, err := frontLn.Accept()
		if err != nil {
			proxyDone <- err
			return
		}
		proxyDone <- Proxy(context.Background(), accepted, backendLn.Addr().String(), metrics)
	}()

	client, err := net.Dial("tcp", frontLn.Addr().String())
	if err != nil {
		t.Fatalf("dial front: %v", err)
	}
	defer client.Close()

	if _, err := client.Write(payload); err != nil {
		t.Fatalf("write payload: %v", err)
	}
	if err := client.(*net.TCPConn).CloseWrite(); err != nil {
		t.Fatalf("close write: %v", err)
	}

	echoed, err := io.ReadAll(client)
	if err != nil {
		t.Fatalf("read echo: %v", err)
	}
	if !bytes.Equal(echoed, payload) {
		t.Fatalf("echoed payload mismatch: got %d bytes want %d", len(echoed), len(payload))
	}

	select {
	case err := <-proxyDone:
		if err != nil {
			t.Fatalf("Proxy: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("proxy did not finish")
	}

	if metrics.ingress.Load() != int64(len(payload)) {
		t.Fatalf("ingress=%d want=%d", metrics.ingress.Load(), len(payload))
	}
	if metrics.egress.Load() != int64(len(payload)) {
		t.Fatalf("egress=%d want=%d", metrics.egress.Load(), len(payload))
	}
}

func TestProxyDialFailure(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	if err := Proxy(context.Background(), server, "127.0.0.1:1", nil); err == nil {
		t.Fatalf("expected dial error against a closed port")
	}
}
