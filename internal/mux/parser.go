package mux

import "telmux/internal/telnet"

// The receive-side protocol parser. Escape sequences may arrive split
// across any number of socket reads, so the state lives on the Line and
// each scrub call picks up exactly where the previous one stopped.

type parserState uint8

const (
	stateNormal parserState = iota // passing data through
	stateIAC                       // IAC seen
	stateWill                      // IAC WILL seen
	stateWont                      // IAC WONT seen
	stateSkip                      // discard the next byte
)

const cr = '\r'

// scrub runs the Telnet state machine over the receive-buffer span that
// starts at from, which must cover only newly arrived bytes. Protocol
// bytes are compacted out of the stream in a single pass, so the
// application never sees them; payload order and break flags are
// preserved. A received BREAK shows up as a NUL with its break flag set.
func (l *Line) scrub(from int) {
	k := from
	for j := from; j < l.rxIn; j++ {
		b := l.rxb[j]
		keep := false
		brk := false
		switch l.state {
		case stateNormal:
			if b == telnet.IAC {
				l.state = stateIAC
				break
			}
			if b == cr && !l.binary {
				// Text mode: a NUL or LF trails every CR, drop it.
				l.state = stateSkip
			}
			keep = true
		case stateIAC:
			switch {
			case b == telnet.IAC && l.binary:
				// Escaped data byte, keep a single IAC.
				l.state = stateNormal
				keep = true
			case b == telnet.BRK:
				l.state = stateNormal
				b = 0
				brk = true
				keep = true
			case b == telnet.WILL:
				l.state = stateWill
			case b == telnet.WONT:
				l.state = stateWont
			default:
				// Two-byte command we don't care about: eat its option.
				l.state = stateSkip
			}
		case stateWill, stateWont:
			if b == telnet.TransmitBinary {
				l.binary = l.state == stateWill
			}
			l.state = stateNormal
		case stateSkip:
			l.state = stateNormal
		}
		if keep {
			l.rxb[k] = b
			l.rbr[k] = brk
			k++
		}
	}
	l.rxIn = k
}
