// Package transport maintains the persistent framed TCP connection to the
// collector.
//
// A Transport lazily connects on first send and reconnects on the send after
// a failure. It is not safe for concurrent use; the worker owns one, and each
// retry task owns its own.
package transport

import (
	"encoding/binary"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tell-rs/tell-go/pkg/tell/errs"
)

// Sender is the send surface the worker depends on, so tests can substitute
// a capturing fake.
type Sender interface {
	SendFrame(frame []byte) bool
	Close()
}

// Transport is a lazily-connected TCP client writing length-prefixed frames.
type Transport struct {
	endpoint string
	host     string
	port     int
	timeout  time.Duration
	conn     net.Conn
	log      zerolog.Logger
}

// New parses the endpoint eagerly and returns an unconnected transport. The
// rightmost colon separates host from a decimal port in [1, 65535].
func New(endpoint string, timeout time.Duration, log zerolog.Logger) (*Transport, error) {
	colon := strings.LastIndexByte(endpoint, ':')
	if colon < 0 {
		return nil, errs.Configuration("endpoint must be host:port, got %q", endpoint)
	}
	port, err := strconv.Atoi(endpoint[colon+1:])
	if err != nil {
		return nil, errs.Configuration("endpoint port is not a valid number: %q", endpoint)
	}
	if port < 1 || port > 65535 {
		return nil, errs.Configuration("endpoint port must be 1-65535, got %d", port)
	}
	return &Transport{
		endpoint: endpoint,
		host:     endpoint[:colon],
		port:     port,
		timeout:  timeout,
		log:      log,
	}, nil
}

// Endpoint returns the host:port this transport connects to.
func (t *Transport) Endpoint() string { return t.endpoint }

// SendFrame writes one <u32 big-endian length><payload> frame, connecting
// first if needed. On any failure the connection is dropped and false is
// returned; the next call reconnects.
func (t *Transport) SendFrame(frame []byte) bool {
	if t.conn == nil {
		if !t.connect() {
			return false
		}
	}

	var header [4]byte
	binary.BigEndian.PutUint32(header[:], uint32(len(frame)))

	if err := t.conn.SetWriteDeadline(time.Now().Add(t.timeout)); err != nil {
		t.drop(err)
		return false
	}
	if _, err := t.conn.Write(header[:]); err != nil {
		t.drop(err)
		return false
	}
	if _, err := t.conn.Write(frame); err != nil {
		t.drop(err)
		return false
	}
	return true
}

// Close drops the connection. Safe to call when not connected.
func (t *Transport) Close() {
	if t.conn != nil {
		t.conn.Close()
		t.conn = nil
	}
}

// connect resolves the host and tries each returned address within the
// network timeout. net.Dialer iterates the AF_UNSPEC result set for us and
// enables keepalive; TCP_NODELAY is the Go default for TCP connections.
func (t *Transport) connect() bool {
	dialer := net.Dialer{
		Timeout:   t.timeout,
		KeepAlive: 15 * time.Second,
	}
	conn, err := dialer.Dial("tcp", t.endpoint)
	if err != nil {
		t.log.Debug().Err(err).Str("endpoint", t.endpoint).Msg("connect failed")
		return false
	}
	t.conn = conn
	t.log.Debug().Str("endpoint", t.endpoint).Msg("connected")
	return true
}

func (t *Transport) drop(err error) {
	t.log.Debug().Err(err).Str("endpoint", t.endpoint).Msg("send failed, dropping connection")
	t.conn.Close()
	t.conn = nil
}
