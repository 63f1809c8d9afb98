package console

import (
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"

	"telmux/internal/mux"
)

// Host stands in for the device front-ends that normally sit on a
// multiplexor: it drives the accept/receive/transmit polls from a
// scheduling tick and echoes every received character back to its line,
// which makes each line behave like a console wired to itself.
type Host struct {
	mux         *mux.Multiplexor
	log         *slog.Logger
	interval    time.Duration
	statusEvery time.Duration

	stop chan struct{}
	done chan struct{}
}

func New(m *mux.Multiplexor, interval, statusEvery time.Duration, log *slog.Logger) *Host {
	return &Host{
		mux:         m,
		log:         log,
		interval:    interval,
		statusEvery: statusEvery,
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
	}
}

// Run drives the poll cycle until Stop is called. This is the single
// control thread the multiplexor expects; nothing else may touch it
// while Run is going.
func (h *Host) Run() {
	defer close(h.done)

	tick := time.NewTicker(h.interval)
	defer tick.Stop()
	status := time.NewTicker(h.statusEvery)
	defer status.Stop()

	h.log.Info("console host running", "interval", h.interval)

	for {
		select {
		case <-h.stop:
			return
		case <-status.C:
			h.reportStatus()
		case <-tick.C:
			h.tick()
		}
	}
}

// Stop halts the poll loop and waits for it to finish.
func (h *Host) Stop() {
	close(h.stop)
	<-h.done
}

func (h *Host) tick() {
	if n := h.mux.PollAccept(); n >= 0 {
		h.log.Debug("line activated", "line", n)
	}
	h.mux.PollReceive()

	for i := 0; i < h.mux.NumLines(); i++ {
		line := h.mux.Line(i)
		for {
			b, brk, ok := line.Getc()
			if !ok {
				break
			}
			if brk {
				h.log.Info("break received", "line", i)
				continue
			}
			line.Putc(b)
			if b == '\r' && !line.BinaryMode() {
				line.Putc('\n')
			}
		}
	}

	h.mux.PollTransmit()
}

func (h *Host) reportStatus() {
	var connected int
	var rx, tx uint64
	for i := 0; i < h.mux.NumLines(); i++ {
		line := h.mux.Line(i)
		if !line.Connected() {
			continue
		}
		connected++
		rx += uint64(line.TotalReceived())
		tx += uint64(line.TotalTransmitted())
		h.log.Debug("line status",
			"connections", h.mux.ConnectionStatus(i),
			"traffic", h.mux.TrafficStatus(i),
		)
	}
	h.log.Info("multiplexor status",
		"connected", connected,
		"lines", h.mux.NumLines(),
		"received", humanize.Bytes(rx),
		"transmitted", humanize.Bytes(tx),
	)
}
