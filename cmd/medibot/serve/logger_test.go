package servecmder

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("serve logger", func() {
	var (
		stderr  bytes.Buffer
		logFile string
	)

	BeforeEach(func() {
		stderr.Reset()
		logFile = filepath.Join(GinkgoT().TempDir(), "medibot.log")
	})

	readFile := func() map[string]any {
		b, err := os.ReadFile(logFile)
		Expect(err).NotTo(HaveOccurred())
		var parsed map[string]any
		Expect(json.Unmarshal([]byte(strings.TrimSpace(string(b))), &parsed)).To(Succeed())
		return parsed
	}

	It("writes the same JSON record to stderr and the file", func() {
		c := &serveCommander{stderr: &stderr, logJSON: true, logFile: logFile}
		l, err := c.newLogger()
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(c.logSink.Close)

		l.Info("answer sent", "chars", 42)

		Expect(readFile()["msg"]).To(Equal("answer sent"))
		var term map[string]any
		Expect(json.Unmarshal([]byte(strings.TrimSpace(stderr.String())), &term)).To(Succeed())
		Expect(term["chars"]).To(BeNumerically("==", 42))
	})

	It("adds source locations to file records in debug mode", func() {
		c := &serveCommander{stderr: &stderr, debug: true, logFile: logFile}
		l, err := c.newLogger()
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(c.logSink.Close)

		l.Debug("retrieved chunks")

		Expect(readFile()).To(HaveKey("source"))
		Expect(stderr.String()).To(ContainSubstring("retrieved chunks"))
	})

	It("leaves source locations out otherwise", func() {
		c := &serveCommander{stderr: &stderr, logFile: logFile}
		l, err := c.newLogger()
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(c.logSink.Close)

		l.Info("model loaded")

		Expect(readFile()).NotTo(HaveKey("source"))
	})

	It("logs to stderr only without a log file", func() {
		c := &serveCommander{stderr: &stderr}
		l, err := c.newLogger()
		Expect(err).NotTo(HaveOccurred())
		Expect(c.logSink).To(BeNil())

		l.Info("listening")
		Expect(stderr.String()).To(ContainSubstring("listening"))
	})
})
