package mux

import (
	"time"

	"telmux/internal/telnet"
)

const (
	// bufSize is the capacity of each line's receive and transmit buffer.
	bufSize = 256

	// bufGuard is reserved space: on receive it absorbs a Telnet escape
	// sequence that arrived mid-parse, on transmit it gives the caller
	// warning before the buffer can actually overflow.
	bufGuard = 12
)

// Line is one virtual serial endpoint, bound to at most one connection.
// All index arithmetic maintains 0 <= read <= write <= bufSize, and both
// indices drop back to 0 whenever a buffer goes logically empty.
type Line struct {
	num         int
	conn        Socket
	peer        string
	connectedAt time.Time

	rxb     [bufSize]byte // receive buffer
	rbr     [bufSize]bool // break flag per buffered receive byte
	rxIn    int           // receive write index
	rxOut   int           // receive read index
	rxTotal int

	txb     [bufSize]byte // transmit buffer
	txIn    int           // transmit write index
	txOut   int           // transmit read index
	txTotal int

	state  parserState
	binary bool // CR passes through untouched when set
	rcve   bool // receive enabled, host controlled
	xmte   bool // transmit enabled, cleared when the buffer nears full
}

// Connected reports whether a connection currently occupies the line.
func (l *Line) Connected() bool {
	return l.conn != nil
}

// Num returns the line's index within its multiplexor.
func (l *Line) Num() int {
	return l.num
}

// Peer returns the remote address, or "" when disconnected.
func (l *Line) Peer() string {
	return l.peer
}

// Getc returns the next buffered input byte and whether it carries a
// break flag. ok is false when the line is unconnected, receive is
// disabled, or nothing is buffered.
func (l *Line) Getc() (b byte, brk bool, ok bool) {
	if l.conn != nil && l.rcve && l.rxIn > l.rxOut {
		b = l.rxb[l.rxOut]
		brk = l.rbr[l.rxOut]
		l.rxOut++
		ok = true
	}
	if l.rxIn == l.rxOut {
		l.rxIn, l.rxOut = 0, 0
	}
	return b, brk, ok
}

// Putc queues one output byte. IAC is doubled on the way out so the peer
// does not take it for a command prefix. A byte that does not fit is
// silently dropped; in either case transmit is disabled once the buffer
// is within the guard margin of capacity, and re-enabled by the transmit
// poll when the buffer drains.
func (l *Line) Putc(b byte) {
	if l.conn == nil {
		return
	}
	if l.txIn >= bufSize {
		l.xmte = false
		return
	}
	l.txb[l.txIn] = b
	l.txIn++
	if b == telnet.IAC && l.txIn < bufSize {
		l.txb[l.txIn] = b
		l.txIn++
	}
	if l.txIn > bufSize-bufGuard {
		l.xmte = false
	}
}

// InQueued returns the number of received bytes waiting for Getc.
func (l *Line) InQueued() int {
	return l.rxIn - l.rxOut
}

// OutQueued returns the number of queued bytes not yet written to the
// socket.
func (l *Line) OutQueued() int {
	return l.txIn - l.txOut
}

// TotalReceived returns the raw byte count read from the socket since
// the connection was bound, protocol bytes included.
func (l *Line) TotalReceived() int {
	return l.rxTotal
}

// TotalTransmitted returns the byte count actually accepted by the
// socket since the connection was bound.
func (l *Line) TotalTransmitted() int {
	return l.txTotal
}

// TransmitEnabled reports whether the line will accept more output
// without risk of dropping it.
func (l *Line) TransmitEnabled() bool {
	return l.xmte
}

// ReceiveEnabled reports whether the host has input enabled on the line.
func (l *Line) ReceiveEnabled() bool {
	return l.rcve
}

// SetReceiveEnabled lets the host gate input delivery, the way a device
// front-end masks its receive side.
func (l *Line) SetReceiveEnabled(on bool) {
	l.rcve = on
}

// BinaryMode reports whether binary transmission was negotiated.
func (l *Line) BinaryMode() bool {
	return l.binary
}

// reset returns the line to the free state. Closing an already-closed
// connection is a no-op, so reset is idempotent. Traffic totals survive
// until the line is reused or the listener reopened, mirroring what the
// statistics report shows.
func (l *Line) reset() {
	if l.conn != nil {
		l.conn.Close()
		l.conn = nil
	}
	l.peer = ""
	l.state = stateNormal
	l.rxIn, l.rxOut = 0, 0
	l.txIn, l.txOut = 0, 0
	l.xmte = true
	l.binary = false
}

// bind attaches an accepted socket and re-arms all per-connection state.
func (l *Line) bind(sock Socket) {
	l.conn = sock
	l.peer = sock.Peer()
	l.connectedAt = time.Now()
	l.rxIn, l.rxOut = 0, 0
	l.txIn, l.txOut = 0, 0
	l.rxTotal, l.txTotal = 0, 0
	l.state = stateNormal
	l.xmte = true
	l.rcve = true
	l.binary = false
}
