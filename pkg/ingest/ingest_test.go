package ingest_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/medibot/pkg/document"
	"github.com/papercomputeco/medibot/pkg/errdefs"
	"github.com/papercomputeco/medibot/pkg/eventstream"
	"github.com/papercomputeco/medibot/pkg/ingest"
	"github.com/papercomputeco/medibot/pkg/rag"
	"github.com/papercomputeco/medibot/pkg/textsplit"
	testutils "github.com/papercomputeco/medibot/pkg/utils/test"
	"github.com/papercomputeco/medibot/pkg/vector"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []*eventstream.ChunksIndexedEvent
	err    error
}

func (r *recordingPublisher) PublishChunksIndexed(_ context.Context, e *eventstream.ChunksIndexedEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return r.err
}

func (r *recordingPublisher) Events() []*eventstream.ChunksIndexedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*eventstream.ChunksIndexedEvent(nil), r.events...)
}

func (r *recordingPublisher) Close() error { return nil }

type failingEmbedder struct{}

func (failingEmbedder) Embed(context.Context, string) ([]float32, error) {
	return nil, vector.ErrEmbedding
}

func (failingEmbedder) EmbedBatch(context.Context, []string) ([][]float32, error) {
	return nil, vector.ErrEmbedding
}

func (failingEmbedder) Close() error { return nil }

var _ = Describe("Pipeline", func() {
	var (
		ctx       context.Context
		dir       string
		embedder  *testutils.MockEmbedder
		driver    *testutils.MockVectorDriver
		publisher *recordingPublisher
	)

	index := eventstream.IndexMeta{Provider: "memory", Name: vector.DefaultIndex, Dimensions: vector.DefaultDimensions}

	newPipeline := func(mutate ...func(*ingest.Config)) *ingest.Pipeline {
		c := &ingest.Config{
			Loader:    document.NewLoader(dir),
			Embedder:  embedder,
			Driver:    driver,
			Publisher: publisher,
			Index:     index,
		}
		for _, m := range mutate {
			m(c)
		}
		p, err := ingest.New(c)
		Expect(err).NotTo(HaveOccurred())
		return p
	}

	BeforeEach(func() {
		ctx = context.Background()
		dir = GinkgoT().TempDir()
		embedder = testutils.NewMockEmbedder()
		driver = testutils.NewMockVectorDriver()
		publisher = &recordingPublisher{}

		Expect(testutils.WritePDF(filepath.Join(dir, "medical.pdf"),
			"Aspirin is used to reduce fever and relieve mild pain.",
			"Eczema is an inflammatory skin condition that causes itching.",
		)).To(Succeed())
		Expect(testutils.WritePDF(filepath.Join(dir, "endocrine.pdf"),
			"Insulin regulates blood glucose levels in the body.",
		)).To(Succeed())
	})

	Describe("New", func() {
		It("requires a loader", func() {
			_, err := ingest.New(&ingest.Config{Driver: driver, Embedder: embedder})
			Expect(err).To(MatchError(errdefs.ErrConfiguration))
		})

		It("requires a driver unless dry running", func() {
			_, err := ingest.New(&ingest.Config{Loader: document.NewLoader(dir), Embedder: embedder})
			Expect(err).To(MatchError(errdefs.ErrConfiguration))

			_, err = ingest.New(&ingest.Config{Loader: document.NewLoader(dir), DryRun: true})
			Expect(err).NotTo(HaveOccurred())
		})

		It("requires an embedder", func() {
			_, err := ingest.New(&ingest.Config{Loader: document.NewLoader(dir), Driver: driver})
			Expect(err).To(MatchError(errdefs.ErrConfiguration))
		})
	})

	Describe("Run", func() {
		It("indexes every page of every pdf", func() {
			res, err := newPipeline().Run(ctx)
			Expect(err).NotTo(HaveOccurred())

			Expect(res.Index).To(Equal(vector.DefaultIndex))
			Expect(res.Files).To(Equal(2))
			Expect(res.Pages).To(Equal(3))
			Expect(res.Chunks).To(Equal(3))
			Expect(res.Batches).To(Equal(1))

			entries := driver.Entries()
			Expect(entries).To(HaveLen(3))
			for _, e := range entries {
				Expect(e.Embedding).To(HaveLen(testutils.MockEmbedderDimensions))
				Expect(e.Source).To(HavePrefix(dir))
				Expect(e.Text).NotTo(BeEmpty())
			}
		})

		It("answers questions over the ingested corpus", func() {
			_, err := newPipeline().Run(ctx)
			Expect(err).NotTo(HaveOccurred())

			generator := testutils.NewMockGenerator("Aspirin is used to reduce fever and relieve mild pain.")
			qa := rag.New(embedder, driver, generator)

			answer, err := qa.Ask(ctx, "What is aspirin used for?")
			Expect(err).NotTo(HaveOccurred())
			Expect(answer.Text).To(ContainSubstring("fever"))
			Expect(answer.Sources).To(HaveLen(2))
			Expect(answer.Sources[0].Text).To(ContainSubstring("Aspirin"))
			Expect(generator.LastPrompt()).To(ContainSubstring("reduce fever"))
		})

		It("converges when run twice", func() {
			p := newPipeline()
			_, err := p.Run(ctx)
			Expect(err).NotTo(HaveOccurred())
			first := driver.Entries()

			_, err = p.Run(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(driver.Entries()).To(Equal(first))
		})

		It("upserts in batches and publishes one event per batch", func() {
			long := strings.Repeat("fever headache nausea fatigue ", 200)
			Expect(testutils.WritePDF(filepath.Join(dir, "long.pdf"), long)).To(Succeed())

			res, err := newPipeline(func(c *ingest.Config) {
				c.BatchSize = 4
			}).Run(ctx)
			Expect(err).NotTo(HaveOccurred())

			Expect(res.Chunks).To(BeNumerically(">", 4))
			Expect(res.Batches).To(Equal((res.Chunks + 3) / 4))
			Expect(driver.Batches()).To(Equal(res.Batches))

			events := publisher.Events()
			Expect(events).To(HaveLen(res.Batches))

			total := 0
			for _, e := range events {
				Expect(e.EventType).To(Equal(eventstream.EventTypeChunksIndexed))
				Expect(e.Index).To(Equal(index))
				Expect(e.Batch.EntryIDs).To(HaveLen(e.Batch.ChunkCount))
				Expect(e.Batch.Sources).NotTo(BeEmpty())
				total += e.Batch.ChunkCount
			}
			Expect(total).To(Equal(res.Chunks))
		})

		It("keeps going when publishing fails", func() {
			publisher.err = errors.New("broker down")

			res, err := newPipeline().Run(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Batches).To(Equal(1))
		})

		It("honors the splitter settings", func() {
			s, err := textsplit.New(textsplit.WithChunkSize(20), textsplit.WithChunkOverlap(5))
			Expect(err).NotTo(HaveOccurred())

			res, err := newPipeline(func(c *ingest.Config) {
				c.Splitter = s
			}).Run(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Chunks).To(BeNumerically(">", 3))

			for _, e := range driver.Entries() {
				Expect(len([]rune(e.Text))).To(BeNumerically("<=", 20))
			}
		})

		It("loads and splits only on a dry run", func() {
			res, err := newPipeline(func(c *ingest.Config) {
				c.DryRun = true
			}).Run(ctx)
			Expect(err).NotTo(HaveOccurred())

			Expect(res.DryRun).To(BeTrue())
			Expect(res.Chunks).To(Equal(3))
			Expect(res.Batches).To(Equal(0))
			Expect(embedder.Calls()).To(Equal(0))
			Expect(driver.UpsertCalls).To(Equal(0))
			Expect(publisher.Events()).To(BeEmpty())
		})

		It("writes nothing for an empty corpus", func() {
			dir = filepath.Join(dir, "missing")

			res, err := newPipeline().Run(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Files).To(Equal(0))
			Expect(res.Chunks).To(Equal(0))
			Expect(driver.UpsertCalls).To(Equal(0))
		})

		It("creates the index even when the corpus is empty", func() {
			dir = filepath.Join(dir, "missing")

			_, err := newPipeline().Run(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(driver.EnsureIndexCalls).To(Equal(1))
		})

		It("fails before writing when the index cannot be prepared", func() {
			driver.EnsureIndexErr = fmt.Errorf("%w: index unavailable", errdefs.ErrService)

			_, err := newPipeline().Run(ctx)
			Expect(err).To(MatchError(errdefs.ErrService))
			Expect(driver.UpsertCalls).To(Equal(0))
		})

		It("fails the run on a malformed pdf", func() {
			Expect(os.WriteFile(filepath.Join(dir, "broken.pdf"), []byte("not a pdf"), 0o644)).To(Succeed())

			_, err := newPipeline().Run(ctx)
			Expect(err).To(MatchError(errdefs.ErrIngestion))
			Expect(driver.UpsertCalls).To(Equal(0))
		})

		It("skips a malformed pdf when asked to", func() {
			Expect(os.WriteFile(filepath.Join(dir, "broken.pdf"), []byte("not a pdf"), 0o644)).To(Succeed())

			res, err := newPipeline(func(c *ingest.Config) {
				c.Loader = document.NewLoader(dir, document.WithSkipInvalid(true))
			}).Run(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Chunks).To(Equal(3))
		})

		It("returns vector store errors", func() {
			driver.UpsertErrs = []error{fmt.Errorf("%w: index unavailable", vector.ErrConnection)}

			_, err := newPipeline().Run(ctx)
			Expect(err).To(MatchError(errdefs.ErrService))
			Expect(publisher.Events()).To(BeEmpty())
		})

		It("returns embedding errors before writing", func() {
			_, err := newPipeline(func(c *ingest.Config) {
				c.Embedder = failingEmbedder{}
			}).Run(ctx)
			Expect(err).To(MatchError(errdefs.ErrInference))
			Expect(driver.UpsertCalls).To(Equal(0))
		})
	})

	Describe("RunFiles", func() {
		It("indexes only the given files", func() {
			res, err := newPipeline().RunFiles(ctx, []string{filepath.Join(dir, "endocrine.pdf")})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Files).To(Equal(1))
			Expect(res.Chunks).To(Equal(1))
			Expect(driver.Entries()[0].Text).To(ContainSubstring("Insulin"))
		})

		It("fails on a malformed pdf by default", func() {
			broken := filepath.Join(dir, "broken.pdf")
			Expect(os.WriteFile(broken, []byte("not a pdf"), 0o644)).To(Succeed())

			_, err := newPipeline().RunFiles(ctx, []string{broken, filepath.Join(dir, "endocrine.pdf")})
			Expect(err).To(MatchError(errdefs.ErrIngestion))
			Expect(driver.UpsertCalls).To(Equal(0))
		})

		It("skips a malformed pdf when the loader skips invalid files", func() {
			broken := filepath.Join(dir, "broken.pdf")
			Expect(os.WriteFile(broken, []byte("not a pdf"), 0o644)).To(Succeed())

			res, err := newPipeline(func(c *ingest.Config) {
				c.Loader = document.NewLoader(dir, document.WithSkipInvalid(true))
			}).RunFiles(ctx, []string{broken, filepath.Join(dir, "endocrine.pdf")})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Files).To(Equal(2))
			Expect(res.Chunks).To(Equal(1))
		})
	})

	Describe("EntryID", func() {
		It("is deterministic", func() {
			Expect(ingest.EntryID("data/a.pdf", 0, "text")).To(Equal(ingest.EntryID("data/a.pdf", 0, "text")))
		})

		It("differs by source, ordinal, and text", func() {
			base := ingest.EntryID("data/a.pdf", 0, "text")
			Expect(ingest.EntryID("data/b.pdf", 0, "text")).NotTo(Equal(base))
			Expect(ingest.EntryID("data/a.pdf", 1, "text")).NotTo(Equal(base))
			Expect(ingest.EntryID("data/a.pdf", 0, "other")).NotTo(Equal(base))
		})
	})

	Describe("NewEntries", func() {
		It("numbers chunks per source", func() {
			chunks := []document.Document{
				{PageContent: "one", Metadata: map[string]any{document.MetaSource: "a.pdf"}},
				{PageContent: "two", Metadata: map[string]any{document.MetaSource: "b.pdf"}},
				{PageContent: "three", Metadata: map[string]any{document.MetaSource: "a.pdf"}},
			}
			embs := [][]float32{{1}, {2}, {3}}

			entries := ingest.NewEntries(chunks, embs)
			Expect(entries).To(HaveLen(3))
			Expect(entries[0].ID).To(Equal(ingest.EntryID("a.pdf", 0, "one")))
			Expect(entries[1].ID).To(Equal(ingest.EntryID("b.pdf", 0, "two")))
			Expect(entries[2].ID).To(Equal(ingest.EntryID("a.pdf", 1, "three")))
			Expect(entries[2].Embedding).To(Equal([]float32{3}))
		})
	})
})
