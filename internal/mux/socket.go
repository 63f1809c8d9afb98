package mux

import (
	"errors"
	"net"
	"time"
)

// The multiplexor is poll driven and never blocks, so every socket
// operation is a single bounded attempt. Reads and writes that merely
// found the peer unready report (0, nil) rather than an error; an error
// return means the connection is gone.

// pollDeadline bounds each socket attempt. Long enough to complete I/O
// that is already possible, short enough not to stall the host tick.
const pollDeadline = time.Millisecond

// Socket is one established connection, as consumed by the multiplexor.
type Socket interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Peer() string
	Close() error
}

// Listener hands out pending inbound connections. Accept returns
// (nil, nil) when no connection is waiting.
type Listener interface {
	Accept() (Socket, error)
	Addr() string
	Close() error
}

type tcpListener struct {
	ln *net.TCPListener
}

// ListenTCP opens a listening socket on the given TCP port. Port 0 binds
// an ephemeral port, which the tests rely on.
func ListenTCP(port int) (Listener, error) {
	ln, err := net.ListenTCP("tcp", &net.TCPAddr{Port: port})
	if err != nil {
		return nil, err
	}
	return &tcpListener{ln: ln}, nil
}

func (l *tcpListener) Accept() (Socket, error) {
	l.ln.SetDeadline(time.Now().Add(pollDeadline))
	conn, err := l.ln.Accept()
	if err != nil {
		if isTimeout(err) {
			return nil, nil
		}
		return nil, err
	}
	return &tcpSocket{conn: conn}, nil
}

func (l *tcpListener) Addr() string {
	return l.ln.Addr().String()
}

func (l *tcpListener) Close() error {
	return l.ln.Close()
}

type tcpSocket struct {
	conn net.Conn
}

func (s *tcpSocket) Read(p []byte) (int, error) {
	s.conn.SetReadDeadline(time.Now().Add(pollDeadline))
	n, err := s.conn.Read(p)
	if err != nil && isTimeout(err) {
		return n, nil
	}
	return n, err
}

func (s *tcpSocket) Write(p []byte) (int, error) {
	s.conn.SetWriteDeadline(time.Now().Add(pollDeadline))
	n, err := s.conn.Write(p)
	if err != nil && isTimeout(err) {
		// Partial write; the rest stays queued for the next cycle.
		return n, nil
	}
	return n, err
}

// Peer returns the remote address without the port, the dotted form the
// status report wants.
func (s *tcpSocket) Peer() string {
	addr := s.conn.RemoteAddr().String()
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}

func (s *tcpSocket) Close() error {
	return s.conn.Close()
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
