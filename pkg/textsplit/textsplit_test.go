package textsplit_test

import (
	"fmt"
	"strings"
	"unicode/utf8"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/medibot/pkg/document"
	"github.com/papercomputeco/medibot/pkg/errdefs"
	"github.com/papercomputeco/medibot/pkg/textsplit"
)

func numberedWords(n int) []string {
	words := make([]string, n)
	for i := range words {
		words[i] = fmt.Sprintf("word%03d", i)
	}
	return words
}

var _ = Describe("RecursiveSplitter", func() {
	Describe("New", func() {
		It("uses the 500/20 defaults", func() {
			s, err := textsplit.New()
			Expect(err).NotTo(HaveOccurred())

			long := strings.Repeat("a", 1200)
			chunks := s.SplitText(long)
			Expect(chunks).To(HaveLen(3))
			Expect(utf8.RuneCountInString(chunks[0])).To(Equal(500))
		})

		It("rejects an overlap larger than the chunk size", func() {
			_, err := textsplit.New(textsplit.WithChunkSize(10), textsplit.WithChunkOverlap(20))
			Expect(err).To(MatchError(errdefs.ErrConfiguration))
		})

		It("rejects a non-positive chunk size", func() {
			_, err := textsplit.New(textsplit.WithChunkSize(0))
			Expect(err).To(MatchError(errdefs.ErrConfiguration))
		})
	})

	Describe("SplitText", func() {
		var s *textsplit.RecursiveSplitter

		BeforeEach(func() {
			var err error
			s, err = textsplit.New(textsplit.WithChunkSize(50), textsplit.WithChunkOverlap(20))
			Expect(err).NotTo(HaveOccurred())
		})

		It("returns short text as a single trimmed chunk", func() {
			Expect(s.SplitText("  Aspirin reduces fever.  ")).To(Equal([]string{"Aspirin reduces fever."}))
		})

		It("returns nothing for empty or blank text", func() {
			Expect(s.SplitText("")).To(BeEmpty())
			Expect(s.SplitText(" \n\n ")).To(BeEmpty())
		})

		It("keeps every chunk within the size limit", func() {
			text := strings.Join(numberedWords(200), " ")
			for _, c := range s.SplitText(text) {
				Expect(utf8.RuneCountInString(c)).To(BeNumerically("<=", 50))
				Expect(c).NotTo(BeEmpty())
			}
		})

		It("counts multi-byte characters as one", func() {
			text := strings.Repeat("é", 120)
			chunks := s.SplitText(text)
			for _, c := range chunks {
				Expect(utf8.RuneCountInString(c)).To(BeNumerically("<=", 50))
			}
			Expect(utf8.RuneCountInString(chunks[0])).To(Equal(50))
		})

		It("carries trailing words into the next chunk", func() {
			chunks := s.SplitText(strings.Join(numberedWords(40), " "))
			Expect(len(chunks)).To(BeNumerically(">", 1))

			for i := 1; i < len(chunks); i++ {
				first := strings.Fields(chunks[i])[0]
				Expect(strings.Fields(chunks[i-1])).To(ContainElement(first))
			}
		})

		It("covers every word of the input in order", func() {
			words := numberedWords(120)
			chunks := s.SplitText(strings.Join(words, " "))

			var seen []string
			index := map[string]bool{}
			for _, c := range chunks {
				for _, w := range strings.Fields(c) {
					if !index[w] {
						index[w] = true
						seen = append(seen, w)
					}
				}
			}
			Expect(seen).To(Equal(words))
		})

		It("prefers paragraph boundaries", func() {
			para1 := "Aspirin is used to reduce fever."
			para2 := "Ibuprofen relieves inflammation."
			Expect(s.SplitText(para1 + "\n\n" + para2)).To(Equal([]string{para1, para2}))
		})

		It("is deterministic", func() {
			text := strings.Join(numberedWords(90), "\n")
			Expect(s.SplitText(text)).To(Equal(s.SplitText(text)))
		})
	})

	Describe("SplitDocuments", func() {
		It("preserves order and copies the parent's source", func() {
			s, err := textsplit.New(textsplit.WithChunkSize(50), textsplit.WithChunkOverlap(0))
			Expect(err).NotTo(HaveOccurred())

			docs := []document.Document{
				{PageContent: strings.Join(numberedWords(20), " "), Metadata: map[string]any{"source": "a.pdf"}},
				{PageContent: "short page", Metadata: map[string]any{"source": "b.pdf"}},
			}

			chunks := s.SplitDocuments(docs)
			Expect(len(chunks)).To(BeNumerically(">", 2))
			Expect(chunks[0].Source()).To(Equal("a.pdf"))
			Expect(chunks[len(chunks)-1].Source()).To(Equal("b.pdf"))
			Expect(chunks[len(chunks)-1].PageContent).To(Equal("short page"))

			chunks[0].Metadata["source"] = "changed"
			Expect(docs[0].Metadata["source"]).To(Equal("a.pdf"))
		})
	})
})
