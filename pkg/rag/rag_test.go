package rag_test

import (
	"context"
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/medibot/pkg/errdefs"
	"github.com/papercomputeco/medibot/pkg/llm"
	"github.com/papercomputeco/medibot/pkg/rag"
	testutils "github.com/papercomputeco/medibot/pkg/utils/test"
	"github.com/papercomputeco/medibot/pkg/vector"
)

var _ = Describe("QA", func() {
	var (
		ctx       context.Context
		embedder  *testutils.MockEmbedder
		driver    *testutils.MockVectorDriver
		generator *testutils.MockGenerator
		qa        *rag.QA
	)

	BeforeEach(func() {
		ctx = context.Background()
		embedder = testutils.NewMockEmbedder()
		driver = testutils.NewMockVectorDriver()
		generator = testutils.NewMockGenerator("Aspirin is used to reduce fever and relieve mild pain.")

		texts := []string{
			"Aspirin is used to reduce fever and relieve mild pain.",
			"Eczema is an inflammatory skin condition.",
			"Insulin regulates blood glucose.",
		}
		var entries []vector.Entry
		for i, t := range texts {
			emb, err := embedder.Embed(ctx, t)
			Expect(err).NotTo(HaveOccurred())
			entries = append(entries, vector.Entry{ID: fmt.Sprint(i), Embedding: emb, Text: t, Source: "data/medical.pdf"})
		}
		Expect(driver.Upsert(ctx, entries)).To(Succeed())

		qa = rag.New(embedder, driver, generator)
	})

	It("answers from the two closest chunks", func() {
		answer, err := qa.Ask(ctx, "What is aspirin used for?")
		Expect(err).NotTo(HaveOccurred())
		Expect(answer.Text).To(ContainSubstring("fever"))
		Expect(answer.Sources).To(HaveLen(2))
		Expect(answer.Sources[0].Text).To(ContainSubstring("Aspirin is used to reduce fever"))

		p := generator.LastPrompt()
		Expect(p).To(ContainSubstring("Context: Aspirin is used to reduce fever and relieve mild pain.\n\n"))
		Expect(p).To(ContainSubstring("Question: What is aspirin used for?"))
		Expect(generator.Options[0]).To(Equal(llm.Options{MaxTokens: 512, Temperature: 0.8}))
	})

	It("honors a configured k", func() {
		qa = rag.New(embedder, driver, generator, rag.WithTopK(1))
		answer, err := qa.Ask(ctx, "aspirin")
		Expect(err).NotTo(HaveOccurred())
		Expect(answer.Sources).To(HaveLen(1))
	})

	It("rejects a blank question without calling any component", func() {
		_, err := qa.Ask(ctx, "   ")
		Expect(err).To(MatchError(rag.ErrEmptyQuestion))
		Expect(embedder.Calls()).To(Equal(3))
		Expect(generator.Prompts).To(BeEmpty())
	})

	It("propagates retrieval failures with their kind", func() {
		driver.QueryErrs = []error{fmt.Errorf("%w: unavailable", errdefs.ErrService)}
		_, err := qa.Ask(ctx, "aspirin")
		Expect(err).To(MatchError(errdefs.ErrService))
		Expect(generator.Prompts).To(BeEmpty())
	})

	It("propagates generation failures", func() {
		generator.Err = fmt.Errorf("%w: model crashed", errdefs.ErrInference)
		_, err := qa.Ask(ctx, "aspirin")
		Expect(err).To(MatchError(errdefs.ErrInference))
	})

	It("searches without generating", func() {
		results, err := qa.Search(ctx, "skin condition", 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(results[0].Text).To(ContainSubstring("Eczema"))
		Expect(generator.Prompts).To(BeEmpty())
	})

	It("preloads generators that support it", func() {
		Expect(qa.Load(ctx)).To(Succeed())
		Expect(generator.Loaded).To(BeTrue())
	})
})
