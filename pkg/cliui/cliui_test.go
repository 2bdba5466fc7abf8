package cliui_test

import (
	"bytes"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/medibot/pkg/cliui"
)

var _ = Describe("FormatDuration", func() {
	It("uses milliseconds below a second", func() {
		Expect(cliui.FormatDuration(12 * time.Millisecond)).To(Equal("12ms"))
	})

	It("uses seconds with one decimal above a second", func() {
		Expect(cliui.FormatDuration(3200 * time.Millisecond)).To(Equal("3.2s"))
	})
})

var _ = Describe("Mark", func() {
	It("distinguishes success from failure", func() {
		Expect(cliui.Mark(nil)).To(Equal(cliui.SuccessMark))
		Expect(cliui.Mark(errors.New("x"))).To(Equal(cliui.FailMark))
	})
})

var _ = Describe("Step", func() {
	It("returns the step error and prints the message", func() {
		var buf bytes.Buffer
		stepErr := errors.New("boom")

		err := cliui.Step(&buf, "Loading PDFs", func() error { return stepErr })
		Expect(err).To(Equal(stepErr))
		Expect(buf.String()).To(ContainSubstring("Loading PDFs"))
	})
})

var _ = Describe("PrintAnswer", func() {
	It("writes the answer text", func() {
		var buf bytes.Buffer
		cliui.PrintAnswer(&buf, "Aspirin reduces **fever**.")
		Expect(buf.String()).To(ContainSubstring("fever"))
	})
})
