package mux

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Connection Manager", func() {
	Describe("Attach", func() {
		It("rejects a non-numeric port spec", func() {
			m := New(4, "test", testLogger())
			err := m.Attach("nope")
			Expect(err).To(MatchError(ErrInvalidPort))
		})

		It("rejects port zero and out-of-range ports", func() {
			m := New(4, "test", testLogger())
			Expect(m.Attach("0")).To(MatchError(ErrInvalidPort))
			Expect(m.Attach("65536")).To(MatchError(ErrInvalidPort))
			Expect(m.Attach("-1")).To(MatchError(ErrInvalidPort))
		})

		It("wraps a bind failure", func() {
			m := New(4, "test", testLogger())
			m.listen = func(int) (Listener, error) {
				return nil, errors.New("address already in use")
			}
			err := m.Attach("4000")
			Expect(err).To(MatchError(ErrListen))
			Expect(m.Attached()).To(BeFalse())
		})

		It("resets every line and clears the counters", func() {
			m := New(2, "test", testLogger())
			fl := attachFake(m)
			sock, _ := dialFake(m, fl, 1)
			recv(m, sock, []byte("abc"))
			Expect(m.Line(0).rxTotal).To(Equal(3))

			Expect(m.Attach("4000")).To(Succeed())
			Expect(m.Line(0).Connected()).To(BeFalse())
			Expect(m.Line(0).rxTotal).To(BeZero())
			Expect(m.Line(0).TransmitEnabled()).To(BeTrue())
		})
	})

	Describe("PollAccept", func() {
		var (
			m  *Multiplexor
			fl *fakeListener
		)

		BeforeEach(func() {
			m = New(4, "test", testLogger())
			fl = attachFake(m)
		})

		It("returns -1 when nothing is pending", func() {
			Expect(m.PollAccept()).To(Equal(-1))
		})

		It("assigns the first free line and initializes it", func() {
			sock, n := dialFake(m, fl, 1)
			Expect(n).To(Equal(0))
			line := m.Line(0)
			Expect(line.Connected()).To(BeTrue())
			Expect(line.Peer()).To(Equal("10.0.0.1"))
			Expect(line.TransmitEnabled()).To(BeTrue())
			Expect(line.BinaryMode()).To(BeFalse())
			Expect(line.state).To(Equal(stateNormal))

			// The fixed 15-byte offer goes out first, then the banner.
			Expect(sock.out.Len()).To(BeNumerically(">", len(mantra)))
			Expect(sock.out.Bytes()[:len(mantra)]).To(Equal(mantra))
			Expect(sock.out.String()).To(ContainSubstring("Connected to the test multiplexor"))
		})

		It("fills all lines then turns the next connection away busy", func() {
			for want := 0; want < 4; want++ {
				_, n := dialFake(m, fl, want+1)
				Expect(n).To(Equal(want))
				Expect(m.Line(want).TransmitEnabled()).To(BeTrue())
			}
			fifth, n := dialFake(m, fl, 5)
			Expect(n).To(Equal(-1))
			Expect(fifth.closed).To(BeTrue())
			Expect(fifth.out.String()).To(Equal("All connections busy\r\n"))
		})

		It("reuses a line freed by reset", func() {
			dialFake(m, fl, 1)
			dialFake(m, fl, 2)
			Expect(m.ResetLine(0)).To(Succeed())
			_, n := dialFake(m, fl, 3)
			Expect(n).To(Equal(0))
			Expect(m.Line(0).Peer()).To(Equal("10.0.0.3"))
		})
	})

	Describe("ResetLine", func() {
		It("is idempotent on an already-free line", func() {
			m := New(2, "test", testLogger())
			attachFake(m)
			Expect(m.ResetLine(0)).To(Succeed())
			Expect(m.ResetLine(0)).To(Succeed())
		})

		It("rejects an out-of-range index", func() {
			m := New(2, "test", testLogger())
			Expect(m.ResetLine(7)).To(MatchError(ErrNoLine))
			Expect(m.ResetLine(-1)).To(MatchError(ErrNoLine))
		})

		It("closes the socket and clears per-connection state", func() {
			m := New(2, "test", testLogger())
			fl := attachFake(m)
			sock, _ := dialFake(m, fl, 1)
			recv(m, sock, []byte("abc"))
			m.Line(0).Putc('z')

			Expect(m.ResetLine(0)).To(Succeed())
			Expect(sock.closed).To(BeTrue())
			line := m.Line(0)
			Expect(line.Connected()).To(BeFalse())
			Expect(line.InQueued()).To(BeZero())
			Expect(line.OutQueued()).To(BeZero())
			Expect(line.TransmitEnabled()).To(BeTrue())
			Expect(line.BinaryMode()).To(BeFalse())
		})
	})

	Describe("DisconnectLine", func() {
		It("sends the operator notice before dropping the peer", func() {
			m := New(2, "test", testLogger())
			fl := attachFake(m)
			sock, _ := dialFake(m, fl, 1)
			Expect(m.DisconnectLine(0)).To(Succeed())
			Expect(sock.out.String()).To(ContainSubstring("Operator disconnected line"))
			Expect(sock.closed).To(BeTrue())
			Expect(m.Line(0).Connected()).To(BeFalse())
		})
	})

	Describe("Detach", func() {
		It("notifies connected peers and closes the listener", func() {
			m := New(2, "test", testLogger())
			fl := attachFake(m)
			sock, _ := dialFake(m, fl, 1)
			m.Detach()
			Expect(sock.out.String()).To(ContainSubstring("Disconnected from the test multiplexor"))
			Expect(sock.closed).To(BeTrue())
			Expect(fl.closed).To(BeTrue())
			Expect(m.Attached()).To(BeFalse())
			Expect(m.Port()).To(BeZero())
		})

		It("does nothing when already detached", func() {
			m := New(2, "test", testLogger())
			m.Detach()
			Expect(m.PollAccept()).To(Equal(-1))
		})
	})
})
