package document

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/papercomputeco/medibot/pkg/errdefs"
	"github.com/papercomputeco/medibot/pkg/logger"
)

// Loader reads every *.pdf file directly inside a directory.
type Loader struct {
	dir         string
	skipInvalid bool
	logger      *slog.Logger
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithSkipInvalid makes the loader log and skip PDFs it cannot parse instead
// of failing the whole load.
func WithSkipInvalid(skip bool) LoaderOption {
	return func(l *Loader) {
		l.skipInvalid = skip
	}
}

// WithLogger sets the loader's logger.
func WithLogger(log *slog.Logger) LoaderOption {
	return func(l *Loader) {
		l.logger = log
	}
}

// NewLoader creates a Loader over dir.
func NewLoader(dir string, opts ...LoaderOption) *Loader {
	l := &Loader{
		dir:    dir,
		logger: logger.Nop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Files returns the sorted PDF paths the loader will read. A missing
// directory yields no files.
func (l *Loader) Files() ([]string, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: reading corpus directory %s: %w", errdefs.ErrIngestion, l.dir, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !IsPDF(e.Name()) {
			continue
		}
		files = append(files, filepath.Join(l.dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// Load extracts one Document per page from every PDF in the directory.
func (l *Loader) Load(ctx context.Context) ([]Document, error) {
	files, err := l.Files()
	if err != nil {
		return nil, err
	}
	return l.LoadFiles(ctx, files)
}

// LoadFiles extracts the pages of the given PDFs under the loader's
// skip-invalid policy.
func (l *Loader) LoadFiles(ctx context.Context, files []string) ([]Document, error) {
	docs := []Document{}
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		pages, err := LoadFile(path)
		if err != nil {
			if l.skipInvalid {
				l.logger.Warn("skipping unreadable pdf", "path", path, logger.Err(err))
				continue
			}
			return nil, err
		}

		l.logger.Debug("loaded pdf", "path", path, "pages", len(pages))
		docs = append(docs, pages...)
	}

	return docs, nil
}

// LoadFile extracts the pages of a single PDF. Null page objects are skipped.
func LoadFile(path string) (docs []Document, err error) {
	// The pdf reader panics on some malformed cross reference tables.
	defer func() {
		if r := recover(); r != nil {
			docs = nil
			err = fmt.Errorf("%w: parsing %s: %v", errdefs.ErrIngestion, path, r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %w", errdefs.ErrIngestion, path, err)
	}
	defer f.Close()

	total := r.NumPage()
	for i := 1; i <= total; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}

		text, err := p.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("%w: extracting page %d of %s: %w", errdefs.ErrIngestion, i, path, err)
		}

		docs = append(docs, Document{
			PageContent: text,
			Metadata: map[string]any{
				MetaSource:     path,
				MetaPage:       i - 1,
				MetaTotalPages: total,
			},
		})
	}

	return docs, nil
}

// IsPDF reports whether name has a .pdf extension, ignoring case.
func IsPDF(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".pdf")
}
