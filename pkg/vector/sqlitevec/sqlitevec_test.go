package sqlitevec_test

import (
	"context"
	"log/slog"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/medibot/pkg/errdefs"
	"github.com/papercomputeco/medibot/pkg/logger"
	"github.com/papercomputeco/medibot/pkg/vector"
	"github.com/papercomputeco/medibot/pkg/vector/sqlitevec"
)

var _ = Describe("Driver", func() {
	var (
		log *slog.Logger
		ctx context.Context
	)

	BeforeEach(func() {
		log = logger.Nop()
		ctx = context.Background()
	})

	Describe("NewDriver", func() {
		It("should return a configuration error when DBPath is empty", func() {
			_, err := sqlitevec.NewDriver(sqlitevec.Config{DBPath: ""}, log)
			Expect(err).To(MatchError(errdefs.ErrConfiguration))
			Expect(err.Error()).To(ContainSubstring("database path is required"))
		})

		It("should error when dimension not specified", func() {
			_, err := sqlitevec.NewDriver(sqlitevec.Config{DBPath: ":memory:"}, log)
			Expect(err).To(MatchError(errdefs.ErrConfiguration))
		})

		It("should create a driver with an in-memory database", func() {
			driver, err := sqlitevec.NewDriver(sqlitevec.Config{DBPath: ":memory:", Dimensions: 4}, log)
			Expect(err).NotTo(HaveOccurred())
			Expect(driver.Close()).To(Succeed())
		})
	})

	Describe("Upsert and Query", func() {
		var driver *sqlitevec.Driver

		BeforeEach(func() {
			var err error
			driver, err = sqlitevec.NewDriver(sqlitevec.Config{DBPath: ":memory:", Dimensions: 4}, log)
			Expect(err).NotTo(HaveOccurred())

			Expect(driver.Upsert(ctx, []vector.Entry{
				{ID: "fever", Embedding: []float32{1, 0, 0, 0}, Text: "Aspirin reduces fever.", Source: "data/a.pdf"},
				{ID: "pain", Embedding: []float32{0.7, 0.7, 0, 0}, Text: "Aspirin relieves pain.", Source: "data/a.pdf"},
				{ID: "skin", Embedding: []float32{0, 0, 1, 0}, Text: "Eczema is a skin condition.", Source: "data/b.pdf"},
			})).To(Succeed())
		})

		AfterEach(func() {
			driver.Close()
		})

		It("should do nothing when given no entries", func() {
			Expect(driver.Upsert(ctx, nil)).To(Succeed())
		})

		It("should return an entry's own embedding first with score near 1", func() {
			results, err := driver.Query(ctx, []float32{1, 0, 0, 0}, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(2))
			Expect(results[0].ID).To(Equal("fever"))
			Expect(results[0].Text).To(Equal("Aspirin reduces fever."))
			Expect(results[0].Source).To(Equal("data/a.pdf"))
			Expect(results[0].Score).To(BeNumerically("~", 1.0, 1e-4))
			Expect(results[1].ID).To(Equal("pain"))
			Expect(results[0].Score).To(BeNumerically(">", results[1].Score))
		})

		It("should default topK to 2 when zero or negative", func() {
			results, err := driver.Query(ctx, []float32{1, 0, 0, 0}, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(2))
		})

		It("should replace an entry with the same ID", func() {
			Expect(driver.Upsert(ctx, []vector.Entry{
				{ID: "skin", Embedding: []float32{1, 0, 0, 0}, Text: "Updated text.", Source: "data/c.pdf"},
			})).To(Succeed())

			n, err := driver.Count(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(3))

			results, err := driver.Query(ctx, []float32{0, 0, 1, 0}, 3)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).NotTo(ContainElement(HaveField("Entry.Text", "Eczema is a skin condition.")))
		})

		It("should reject entries with the wrong dimension", func() {
			err := driver.Upsert(ctx, []vector.Entry{{ID: "bad", Embedding: []float32{1, 0}}})
			Expect(err).To(MatchError(vector.ErrDimension))
		})
	})

	Describe("persistence", func() {
		It("should keep entries across reopen", func() {
			path := filepath.Join(GinkgoT().TempDir(), "vectors.db")

			driver, err := sqlitevec.NewDriver(sqlitevec.Config{DBPath: path, Dimensions: 2}, log)
			Expect(err).NotTo(HaveOccurred())
			Expect(driver.Upsert(ctx, []vector.Entry{{ID: "a", Embedding: []float32{1, 0}, Text: "kept"}})).To(Succeed())
			Expect(driver.Close()).To(Succeed())

			driver, err = sqlitevec.NewDriver(sqlitevec.Config{DBPath: path, Dimensions: 2}, log)
			Expect(err).NotTo(HaveOccurred())
			defer driver.Close()

			results, err := driver.Query(ctx, []float32{1, 0}, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(1))
			Expect(results[0].Text).To(Equal("kept"))
		})
	})
})
