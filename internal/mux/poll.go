package mux

// The per-tick poll procedures. Both walk the lines in fixed index order,
// make at most one socket attempt per line, and never block; the host
// calls them once per scheduling tick.

// PollReceive pulls newly arrived bytes into each connected,
// receive-enabled line and strips Telnet protocol bytes from them.
//
// The read size is dual mode: an empty buffer reads only up to the guard
// limit, leaving room for an escape sequence that straddles the read
// boundary; a line parked mid-sequence reads up to full capacity so a
// fragmented sequence can still complete. A read error resets the line
// and the rest of the multiplexor carries on.
func (m *Multiplexor) PollReceive() {
	for _, l := range m.lines {
		if l.conn == nil || !l.rcve {
			continue
		}
		var n int
		var err error
		switch {
		case l.rxIn == 0:
			n, err = l.conn.Read(l.rxb[0 : bufSize-bufGuard])
		case l.state != stateNormal:
			n, err = l.conn.Read(l.rxb[l.rxIn:bufSize])
		}
		if err != nil {
			m.log.Info("line dropped", "line", l.num, "peer", l.peer, "err", err)
			l.reset()
			continue
		}
		if n == 0 {
			continue
		}
		from := l.rxIn
		for j := from; j < from+n; j++ {
			l.rbr[j] = false
		}
		l.rxIn += n
		l.rxTotal += n
		l.scrub(from)
	}
	for _, l := range m.lines {
		if l.rxIn == l.rxOut {
			l.rxIn, l.rxOut = 0, 0
		}
	}
}

// PollTransmit drains each connected line's transmit buffer with one
// write attempt. Partial writes are normal; whatever the socket did not
// take stays queued for the next cycle. A fully drained buffer re-enables
// transmit and compacts the indices.
func (m *Multiplexor) PollTransmit() {
	for _, l := range m.lines {
		if l.conn == nil {
			continue
		}
		pending := l.txIn - l.txOut
		if pending > 0 {
			n, err := l.conn.Write(l.txb[l.txOut:l.txIn])
			if err != nil {
				m.log.Info("line dropped", "line", l.num, "peer", l.peer, "err", err)
				l.reset()
				continue
			}
			l.txOut += n
			l.txTotal += n
			pending -= n
		}
		if pending == 0 {
			l.xmte = true
			l.txIn, l.txOut = 0, 0
		}
	}
}
