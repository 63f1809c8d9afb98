package mux

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"telmux/internal/telnet"
)

var _ = Describe("Status Reporting", func() {
	var (
		m    *Multiplexor
		fl   *fakeListener
		sock *fakeSocket
	)

	BeforeEach(func() {
		m = New(2, "test", testLogger())
		fl = attachFake(m)
		sock, _ = dialFake(m, fl, 1)
	})

	Describe("ConnectionStatus", func() {
		It("shows the peer address and elapsed time", func() {
			m.Line(0).connectedAt = time.Now().Add(-(time.Hour + 2*time.Minute + 3*time.Second))
			Expect(m.ConnectionStatus(0)).To(Equal("line 0: IP address 10.0.0.1, connected 01:02:03"))
		})

		It("reports a free line as disconnected", func() {
			Expect(m.ConnectionStatus(1)).To(Equal("line 1: line disconnected"))
		})

		It("returns nothing for an out-of-range line", func() {
			Expect(m.ConnectionStatus(9)).To(BeEmpty())
		})
	})

	Describe("TrafficStatus", func() {
		It("shows queued and total counts with the enable flags", func() {
			recv(m, sock, []byte("abcd"))
			m.Line(0).Getc()
			m.Line(0).Putc('x')
			m.Line(0).Putc('y')
			Expect(m.TrafficStatus(0)).To(Equal(
				"line 0: input (on) queued/total = 3/4, output (on) queued/total = 2/0"))
			m.PollTransmit()
			Expect(m.TrafficStatus(0)).To(ContainSubstring("output (on) queued/total = 0/2"))
		})

		It("reflects disabled directions", func() {
			line := m.Line(0)
			line.SetReceiveEnabled(false)
			for i := 0; i < bufSize; i++ {
				line.Putc('x')
			}
			Expect(m.TrafficStatus(0)).To(ContainSubstring("input (off)"))
			Expect(m.TrafficStatus(0)).To(ContainSubstring("output (off)"))
		})

		It("reports a free line as disconnected", func() {
			Expect(m.TrafficStatus(1)).To(Equal("line 1: line disconnected"))
		})
	})

	It("keeps totals across a full drain", func() {
		recv(m, sock, []byte{telnet.IAC, telnet.WILL, telnet.TransmitBinary, 'A'})
		drain(m.Line(0))
		Expect(m.TrafficStatus(0)).To(ContainSubstring("input (on) queued/total = 0/4"))
	})
})
