package banner_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"telmux/internal/banner"
	"telmux/internal/config"
)

var _ = Describe("Banner", func() {
	data := banner.Data{SystemName: "pdp-11", Version: "1.2.3", Port: 2323, Lines: 8}

	It("renders the default welcome banner", func() {
		out, err := banner.Render(config.DefaultWelcomeBanner, data)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal("\n\r\nConnected to the pdp-11 multiplexor\r\n\n"))
	})

	It("exposes sprig functions to operator templates", func() {
		out, err := banner.Render("{{.SystemName | upper}} ({{.Lines}} lines)\r\n", data)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal("PDP-11 (8 lines)\r\n"))
	})

	It("reports a broken template", func() {
		_, err := banner.Render("{{.Nope", data)
		Expect(err).To(HaveOccurred())
	})
})
