package mux

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"telmux/internal/telnet"
)

var (
	// ErrInvalidPort reports a port specification that is not an integer
	// in 1..65535.
	ErrInvalidPort = errors.New("port must be an integer between 1 and 65535")

	// ErrListen reports that the listening socket could not be opened.
	ErrListen = errors.New("cannot open listener")

	// ErrNoLine reports a line index outside the multiplexor.
	ErrNoLine = errors.New("no such line")
)

// mantra is the fixed option offer sent verbatim on every accepted
// connection: linemode off, suppress go-ahead, server echo, binary both
// ways. Nothing beyond this initial offer is ever volunteered.
var mantra = []byte{
	telnet.IAC, telnet.WILL, telnet.Linemode,
	telnet.IAC, telnet.WILL, telnet.SGA,
	telnet.IAC, telnet.WILL, telnet.Echo,
	telnet.IAC, telnet.WILL, telnet.TransmitBinary,
	telnet.IAC, telnet.DO, telnet.TransmitBinary,
}

// Multiplexor owns a fixed set of Lines and the listening socket that
// feeds them. It has no internal concurrency: all methods are meant to be
// called from the host's single device-service loop.
type Multiplexor struct {
	lines    []*Line
	listener Listener
	port     int
	spec     string

	welcome []byte
	goodbye []byte

	log *slog.Logger

	// listen is swapped out by tests to inject in-memory sockets.
	listen func(port int) (Listener, error)
}

// New creates a multiplexor with the given number of free lines. name
// appears in the default welcome and disconnect banners.
func New(lines int, name string, log *slog.Logger) *Multiplexor {
	if lines <= 0 {
		lines = 4
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	m := &Multiplexor{
		welcome: []byte("\n\r\nConnected to the " + name + " multiplexor\r\n\n"),
		goodbye: []byte("\r\nDisconnected from the " + name + " multiplexor\r\n\n"),
		log:     log,
		listen:  ListenTCP,
	}
	for i := 0; i < lines; i++ {
		m.lines = append(m.lines, &Line{num: i, xmte: true, rcve: true})
	}
	return m
}

// SetBanners overrides the welcome and disconnect notices.
func (m *Multiplexor) SetBanners(welcome, goodbye string) {
	m.welcome = []byte(welcome)
	m.goodbye = []byte(goodbye)
}

// Attach parses the textual port specification, opens the listener and
// resets every line to the free state. Only configuration errors surface
// here; everything later is self-healing.
func (m *Multiplexor) Attach(portSpec string) error {
	port, err := strconv.Atoi(strings.TrimSpace(portSpec))
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("%w: %q", ErrInvalidPort, portSpec)
	}
	ln, err := m.listen(port)
	if err != nil {
		return fmt.Errorf("%w on port %d: %v", ErrListen, port, err)
	}
	m.listener = ln
	m.port = port
	m.spec = portSpec
	for _, l := range m.lines {
		l.reset()
		l.rxTotal, l.txTotal = 0, 0
		l.rcve = true
	}
	m.log.Info("multiplexor listening", "addr", ln.Addr(), "lines", len(m.lines))
	return nil
}

// Attached reports whether a listener is currently open.
func (m *Multiplexor) Attached() bool {
	return m.listener != nil
}

// Port returns the attached port, 0 when detached.
func (m *Multiplexor) Port() int {
	return m.port
}

// NumLines returns the number of lines the multiplexor owns.
func (m *Multiplexor) NumLines() int {
	return len(m.lines)
}

// Line returns line i, or nil when out of range.
func (m *Multiplexor) Line(i int) *Line {
	if i < 0 || i >= len(m.lines) {
		return nil
	}
	return m.lines[i]
}

// PollAccept makes one non-blocking check for a pending inbound
// connection and binds it to the first free line. A connection with no
// line free gets a busy notice and is closed. Returns the bound line
// number, or -1 when nothing happened.
func (m *Multiplexor) PollAccept() int {
	if m.listener == nil {
		return -1
	}
	sock, err := m.listener.Accept()
	if err != nil {
		m.log.Error("accept failed", "err", err)
		return -1
	}
	if sock == nil {
		return -1
	}
	for i, l := range m.lines {
		if l.conn != nil {
			continue
		}
		l.bind(sock)
		// Banner writes are best effort; the peer may already be gone
		// and the line reset will catch that on the next poll.
		sock.Write(mantra)
		sock.Write(m.welcome)
		m.log.Info("connection accepted", "line", i, "peer", l.peer)
		return i
	}
	m.log.Warn("connection rejected, all lines busy", "peer", sock.Peer())
	sock.Write([]byte("All connections busy\r\n"))
	sock.Close()
	return -1
}

// ResetLine returns line i to the free state, closing any connection.
// Safe to call on an already-free line.
func (m *Multiplexor) ResetLine(i int) error {
	l := m.Line(i)
	if l == nil {
		return fmt.Errorf("%w: %d", ErrNoLine, i)
	}
	if l.conn != nil {
		m.log.Info("line reset", "line", i, "peer", l.peer)
	}
	l.reset()
	return nil
}

// DisconnectLine is the administrative disconnect: the peer gets a
// notice before the line is reset.
func (m *Multiplexor) DisconnectLine(i int) error {
	l := m.Line(i)
	if l == nil {
		return fmt.Errorf("%w: %d", ErrNoLine, i)
	}
	if l.conn != nil {
		l.conn.Write([]byte("\r\nOperator disconnected line\r\n\n"))
		m.log.Info("line disconnected by operator", "line", i, "peer", l.peer)
		l.reset()
	}
	return nil
}

// Detach notifies every connected peer, resets all lines and closes the
// listener. The multiplexor can be re-attached afterwards.
func (m *Multiplexor) Detach() {
	if m.listener == nil {
		return
	}
	for _, l := range m.lines {
		if l.conn != nil {
			l.conn.Write(m.goodbye)
			l.reset()
		}
	}
	m.listener.Close()
	m.listener = nil
	m.port = 0
	m.log.Info("multiplexor detached")
}
