package document_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/medibot/pkg/document"
)

var _ = Describe("FilterMinimal", func() {
	It("keeps content and only the source key", func() {
		docs := []document.Document{
			{PageContent: "page one", Metadata: map[string]any{"source": "a.pdf", "page": 0, "total_pages": 2}},
			{PageContent: "page two", Metadata: map[string]any{"source": "a.pdf", "page": 1, "author": "x"}},
		}

		out := document.FilterMinimal(docs)
		Expect(out).To(HaveLen(2))
		for i, d := range out {
			Expect(d.PageContent).To(Equal(docs[i].PageContent))
			Expect(d.Metadata).To(HaveLen(1))
			Expect(d.Metadata).To(HaveKeyWithValue("source", "a.pdf"))
		}
	})

	It("sets source to nil when absent", func() {
		out := document.FilterMinimal([]document.Document{
			{PageContent: "orphan", Metadata: map[string]any{"page": 3}},
			{PageContent: "no metadata"},
		})
		Expect(out).To(HaveLen(2))
		for _, d := range out {
			Expect(d.Metadata).To(HaveLen(1))
			Expect(d.Metadata).To(HaveKey("source"))
			Expect(d.Metadata["source"]).To(BeNil())
			Expect(d.Source()).To(BeEmpty())
		}
	})

	It("does not mutate the input", func() {
		in := []document.Document{{PageContent: "x", Metadata: map[string]any{"source": "s", "page": 1}}}
		_ = document.FilterMinimal(in)
		Expect(in[0].Metadata).To(HaveLen(2))
	})

	It("returns an empty slice for empty input", func() {
		Expect(document.FilterMinimal(nil)).To(BeEmpty())
	})
})
