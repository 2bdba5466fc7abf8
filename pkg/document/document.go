// Package document loads PDF pages from a corpus directory and reduces their
// metadata to what the index stores.
package document

// Metadata keys set by the Loader.
const (
	MetaSource     = "source"
	MetaPage       = "page"
	MetaTotalPages = "total_pages"
)

// Document is a unit of text with attached metadata. The Loader yields one
// Document per PDF page; the splitter yields one per chunk.
type Document struct {
	PageContent string
	Metadata    map[string]any
}

// Source returns the document's source path, or "" when it has none.
func (d Document) Source() string {
	s, _ := d.Metadata[MetaSource].(string)
	return s
}

// FilterMinimal returns a new slice of documents carrying the original page
// content and metadata containing only the source key. The source is nil when
// the input document had none. The input is not modified.
func FilterMinimal(docs []Document) []Document {
	out := make([]Document, 0, len(docs))
	for _, d := range docs {
		var src any
		if d.Metadata != nil {
			src = d.Metadata[MetaSource]
		}
		out = append(out, Document{
			PageContent: d.PageContent,
			Metadata:    map[string]any{MetaSource: src},
		})
	}
	return out
}
