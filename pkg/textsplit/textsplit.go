// Package textsplit splits documents into overlapping chunks by recursively
// trying coarser to finer separators.
package textsplit

import (
	"errors"
	"fmt"
	"maps"
	"strings"
	"unicode/utf8"

	"github.com/papercomputeco/medibot/pkg/document"
	"github.com/papercomputeco/medibot/pkg/errdefs"
)

const (
	// DefaultChunkSize is the maximum chunk length in characters.
	DefaultChunkSize = 500

	// DefaultChunkOverlap is the overlap carried between consecutive chunks.
	DefaultChunkOverlap = 20
)

// DefaultSeparators are tried in order: paragraphs, lines, words, characters.
var DefaultSeparators = []string{"\n\n", "\n", " ", ""}

// RecursiveSplitter splits text into chunks of at most chunkSize characters.
// Lengths are counted in runes.
type RecursiveSplitter struct {
	chunkSize    int
	chunkOverlap int
	separators   []string
}

// Option configures a RecursiveSplitter.
type Option func(*RecursiveSplitter)

func WithChunkSize(n int) Option {
	return func(s *RecursiveSplitter) {
		s.chunkSize = n
	}
}

func WithChunkOverlap(n int) Option {
	return func(s *RecursiveSplitter) {
		s.chunkOverlap = n
	}
}

func WithSeparators(seps []string) Option {
	return func(s *RecursiveSplitter) {
		s.separators = seps
	}
}

// New creates a RecursiveSplitter. It returns a configuration error when the
// overlap exceeds the chunk size or the size is not positive.
func New(opts ...Option) (*RecursiveSplitter, error) {
	s := &RecursiveSplitter{
		chunkSize:    DefaultChunkSize,
		chunkOverlap: DefaultChunkOverlap,
		separators:   DefaultSeparators,
	}
	for _, opt := range opts {
		opt(s)
	}

	switch {
	case s.chunkSize <= 0:
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", errdefs.ErrConfiguration, s.chunkSize)
	case s.chunkOverlap < 0:
		return nil, fmt.Errorf("%w: chunk overlap must not be negative, got %d", errdefs.ErrConfiguration, s.chunkOverlap)
	case s.chunkOverlap > s.chunkSize:
		return nil, fmt.Errorf("%w: chunk overlap %d is larger than chunk size %d", errdefs.ErrConfiguration, s.chunkOverlap, s.chunkSize)
	case len(s.separators) == 0:
		return nil, errors.Join(errdefs.ErrConfiguration, errors.New("at least one separator is required"))
	}

	return s, nil
}

// SplitDocuments splits every document and returns the chunks in order. Each
// chunk carries a copy of its parent's metadata.
func (s *RecursiveSplitter) SplitDocuments(docs []document.Document) []document.Document {
	var out []document.Document
	for _, d := range docs {
		for _, chunk := range s.SplitText(d.PageContent) {
			out = append(out, document.Document{
				PageContent: chunk,
				Metadata:    maps.Clone(d.Metadata),
			})
		}
	}
	return out
}

// SplitText splits text into trimmed, non-empty chunks.
func (s *RecursiveSplitter) SplitText(text string) []string {
	return s.split(text, s.separators)
}

func (s *RecursiveSplitter) split(text string, separators []string) []string {
	separator := separators[len(separators)-1]
	var rest []string
	for i, sep := range separators {
		if sep == "" {
			separator = sep
			break
		}
		if strings.Contains(text, sep) {
			separator = sep
			rest = separators[i+1:]
			break
		}
	}

	var (
		chunks []string
		good   []string
	)
	for _, piece := range splitKeepSeparator(text, separator) {
		if runeLen(piece) < s.chunkSize {
			good = append(good, piece)
			continue
		}

		if len(good) > 0 {
			chunks = append(chunks, s.merge(good)...)
			good = nil
		}
		if len(rest) == 0 {
			if t := strings.TrimSpace(piece); t != "" {
				chunks = append(chunks, t)
			}
		} else {
			chunks = append(chunks, s.split(piece, rest)...)
		}
	}
	if len(good) > 0 {
		chunks = append(chunks, s.merge(good)...)
	}

	return chunks
}

// merge greedily packs pieces into chunks no longer than chunkSize, carrying
// up to chunkOverlap characters of trailing pieces into the next chunk.
// Pieces already hold their leading separator so they join with "".
func (s *RecursiveSplitter) merge(pieces []string) []string {
	var (
		chunks  []string
		current []string
		total   int
	)

	for _, p := range pieces {
		n := runeLen(p)
		if total+n > s.chunkSize && len(current) > 0 {
			if chunk := strings.TrimSpace(strings.Join(current, "")); chunk != "" {
				chunks = append(chunks, chunk)
			}
			for total > s.chunkOverlap || (total+n > s.chunkSize && total > 0) {
				total -= runeLen(current[0])
				current = current[1:]
			}
		}
		current = append(current, p)
		total += n
	}

	if chunk := strings.TrimSpace(strings.Join(current, "")); chunk != "" {
		chunks = append(chunks, chunk)
	}

	return chunks
}

// splitKeepSeparator splits text on sep, keeping sep at the start of every
// piece after the first. Empty pieces are dropped. An empty sep splits into
// runes.
func splitKeepSeparator(text, sep string) []string {
	var pieces []string
	if sep == "" {
		for _, r := range text {
			pieces = append(pieces, string(r))
		}
		return pieces
	}

	parts := strings.Split(text, sep)
	if parts[0] != "" {
		pieces = append(pieces, parts[0])
	}
	for _, p := range parts[1:] {
		pieces = append(pieces, sep+p)
	}
	return pieces
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
