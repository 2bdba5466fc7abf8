package ingest_test

import (
	"context"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/medibot/pkg/document"
	"github.com/papercomputeco/medibot/pkg/ingest"
	testutils "github.com/papercomputeco/medibot/pkg/utils/test"
)

var _ = Describe("Watch", func() {
	It("re-ingests pdfs written to the corpus dir", func() {
		dir := GinkgoT().TempDir()
		driver := testutils.NewMockVectorDriver()

		p, err := ingest.New(&ingest.Config{
			Loader:   document.NewLoader(dir),
			Embedder: testutils.NewMockEmbedder(),
			Driver:   driver,
		})
		Expect(err).NotTo(HaveOccurred())

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		runs := make(chan *ingest.Result, 4)
		done := make(chan error, 1)
		go func() {
			done <- p.Watch(ctx, dir, 50*time.Millisecond, func(res *ingest.Result, err error) {
				if err == nil {
					runs <- res
				}
			})
		}()

		// Give the watcher time to register the directory.
		time.Sleep(100 * time.Millisecond)

		Expect(testutils.WritePDF(filepath.Join(dir, "new.pdf"), "Measles is a contagious viral disease.")).To(Succeed())
		Expect(testutils.WritePDF(filepath.Join(dir, "notes.txt"), "ignored")).To(Succeed())

		var res *ingest.Result
		Eventually(runs, 5*time.Second).Should(Receive(&res))
		Expect(res.Files).To(Equal(1))
		Expect(res.Chunks).To(Equal(1))
		Expect(driver.Entries()[0].Text).To(ContainSubstring("Measles"))

		cancel()
		Eventually(done, 2*time.Second).Should(Receive(MatchError(context.Canceled)))
	})

	It("fails for a missing directory", func() {
		p, err := ingest.New(&ingest.Config{
			Loader: document.NewLoader("does-not-exist"),
			DryRun: true,
		})
		Expect(err).NotTo(HaveOccurred())

		err = p.Watch(context.Background(), filepath.Join(GinkgoT().TempDir(), "missing"), 0, nil)
		Expect(err).To(HaveOccurred())
	})
})
