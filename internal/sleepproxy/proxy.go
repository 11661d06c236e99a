package sleepproxy

import (
	"context"
	"errors"
	"io"
	"net"

	"golang.org/x/sync/errgroup"
)

// halfCloser is implemented by *net.TCPConn; it lets one copy direction
// finish without tearing down the other.
type halfCloser interface {
	CloseWrite() error
}

// ByteCounter receives byte totals for one proxied connection, matching the
// teacher's BridgeMetrics contract.
type ByteCounter interface {
	AddIngress(n int64)
	AddEgress(n int64)
}

// Proxy dials backendAddr and forwards client's bytes to it and back,
// bidirectionally, until both directions finish. It is the generalization of
// the teacher's hand-rolled ProxyBridge (WaitGroup + error channel) onto
// errgroup, which the teacher's own go.mod already depends on. metrics may be
// nil.
func Proxy(ctx context.Context, client net.Conn, backendAddr string, metrics ByteCounter) error {
	var d net.Dialer
	backend, err := d.DialContext(ctx, "tcp", backendAddr)
	if err != nil {
		return err
	}
	defer backend.Close()

	g, _ := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer halfClose(backend)
		buf := defaultBufferPool.Get()
		defer defaultBufferPool.Put(buf)
		n, err := io.CopyBuffer(backend, client, buf)
		if metrics != nil {
			metrics.AddIngress(n)
		}
		return ignoreClosed(err)
	})
	g.Go(func() error {
		defer halfClose(client)
		buf := defaultBufferPool.Get()
		defer defaultBufferPool.Put(buf)
		n, err := io.CopyBuffer(client, backend, buf)
		if metrics != nil {
			metrics.AddEgress(n)
		}
		return ignoreClosed(err)
	})

	return g.Wait()
}

func halfClose(conn net.Conn) {
	if hc, ok := conn.(halfCloser); ok {
		_ = hc.CloseWrite()
		return
	}
	_ = conn.Close()
}

func ignoreClosed(err error) error {
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}
