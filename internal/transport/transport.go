// Package transport owns the bidirectional byte stream a session runs over
// (§5). It is a thin wrapper around net.Conn: a single mutex serializes
// writes so that an application message and a heartbeat generated on a
// different goroutine never interleave on the wire.
package transport

import (
	"bufio"
	"log"
	"net"
	"sync"
	"time"

	"github.com/primefix/fix-engine/internal/fxerr"
)

// Stream is a mutex-guarded net.Conn with line-delimited framing, where each
// line is one complete FIX message. Lines are carried as written; the session
// sends them in SOH-separated wire form and converts received lines back to
// the '|' placeholder form itself (§4.2).
type Stream struct {
	conn net.Conn
	mu   sync.Mutex
	r    *bufio.Reader
}

// NewStream wraps an already-established connection.
func NewStream(conn net.Conn) *Stream {
	return &Stream{conn: conn, r: bufio.NewReader(conn)}
}

// Connect dials addr as an initiator (§6 connection_type=initiator).
func Connect(addr string, timeout time.Duration) (*Stream, error) {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, &fxerr.IoError{Detail: "connecting to " + addr, Cause: err}
	}
	log.Printf("transport: connected to %s", addr)
	return NewStream(conn), nil
}

// Listener accepts inbound connections as an acceptor (§6 connection_type=acceptor).
type Listener struct {
	ln net.Listener
}

// Listen binds addr and returns a Listener ready to Accept.
func Listen(addr string) (*Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, &fxerr.IoError{Detail: "listening on " + addr, Cause: err}
	}
	log.Printf("transport: listening on %s", addr)
	return &Listener{ln: ln}, nil
}

// Accept blocks until a peer connects, returning a Stream for it.
func (l *Listener) Accept() (*Stream, error) {
	conn, err := l.ln.Accept()
	if err != nil {
		return nil, &fxerr.IoError{Detail: "accepting connection", Cause: err}
	}
	log.Printf("transport: accepted connection from %s", conn.RemoteAddr())
	return NewStream(conn), nil
}

// Close stops accepting new connections.
func (l *Listener) Close() error {
	return l.ln.Close()
}

// Send writes one line-delimited message, holding the mutex for the
// duration so concurrently-generated messages (application traffic,
// heartbeats) never interleave.
func (s *Stream) Send(line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.conn.Write([]byte(line + "\n")); err != nil {
		return &fxerr.IoError{Detail: "writing to peer", Cause: err}
	}
	return nil
}

// Receive blocks until one complete line-delimited message arrives, or the
// deadline set by SetReadDeadline expires.
func (s *Stream) Receive() (string, error) {
	line, err := s.r.ReadString('\n')
	if err != nil {
		return "", &fxerr.IoError{Detail: "reading from peer", Cause: err}
	}
	return line[:len(line)-1], nil
}

// SetReadDeadline bounds the next Receive call, so the session's reader
// loop can notice a silent peer even without traffic (§12.2 peer-idle
// timeout, 2 x heart_bt_int).
func (s *Stream) SetReadDeadline(d time.Duration) error {
	return s.conn.SetReadDeadline(time.Now().Add(d))
}

// Close releases the underlying connection.
func (s *Stream) Close() error {
	return s.conn.Close()
}
