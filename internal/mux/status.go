package mux

import (
	"fmt"
	"time"
)

// Human-readable summaries for a "show connections" / "show statistics"
// style surface. Derived from line state only; nothing here consumes data.

// ConnectionStatus describes who is on line i and for how long.
func (m *Multiplexor) ConnectionStatus(i int) string {
	l := m.Line(i)
	if l == nil {
		return ""
	}
	if l.conn == nil {
		return fmt.Sprintf("line %d: line disconnected", i)
	}
	elapsed := int(time.Since(l.connectedAt).Seconds())
	hr := elapsed / 3600
	mn := (elapsed / 60) % 60
	sc := elapsed % 60
	return fmt.Sprintf("line %d: IP address %s, connected %02d:%02d:%02d", i, l.peer, hr, mn, sc)
}

// TrafficStatus describes line i's queued and total byte counts in both
// directions, with the enabled state of each.
func (m *Multiplexor) TrafficStatus(i int) string {
	l := m.Line(i)
	if l == nil {
		return ""
	}
	if l.conn == nil {
		return fmt.Sprintf("line %d: line disconnected", i)
	}
	return fmt.Sprintf("line %d: input (%s) queued/total = %d/%d, output (%s) queued/total = %d/%d",
		i, onOff(l.rcve), l.rxIn-l.rxOut, l.rxTotal, onOff(l.xmte), l.txIn-l.txOut, l.txTotal)
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
