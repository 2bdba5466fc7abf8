package ingest

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/papercomputeco/medibot/pkg/document"
	"github.com/papercomputeco/medibot/pkg/logger"
)

// DefaultDebounce is how long the watcher waits for writes to settle before
// re-ingesting changed files.
const DefaultDebounce = 500 * time.Millisecond

// Watch re-ingests PDFs in dir as they are created or written, until ctx is
// done. onRun, when set, is called after every re-ingestion.
func (p *Pipeline) Watch(ctx context.Context, dir string, debounce time.Duration, onRun func(*Result, error)) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating corpus watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watching corpus dir: %w", err)
	}

	p.logger.Info("watching corpus", "dir", dir)

	pending := map[string]bool{}
	timer := time.NewTimer(debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !document.IsPDF(event.Name) {
				continue
			}
			if event.Op.Has(fsnotify.Remove) || event.Op.Has(fsnotify.Rename) {
				p.logger.Warn("pdf removed, its chunks stay in the index", "file", event.Name)
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			pending[filepath.Clean(event.Name)] = true
			timer.Reset(debounce)

		case <-timer.C:
			files := make([]string, 0, len(pending))
			for f := range pending {
				files = append(files, f)
			}
			clear(pending)
			sort.Strings(files)

			res, err := p.RunFiles(ctx, files)
			if err != nil {
				p.logger.Error("re-ingestion failed", "files", files, logger.Err(err))
			}
			if onRun != nil {
				onRun(res, err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("corpus watcher error: %w", err)
		}
	}
}

// RunFiles indexes the given PDF files. Unreadable files are skipped when
// the pipeline's loader skips invalid PDFs.
func (p *Pipeline) RunFiles(ctx context.Context, files []string) (*Result, error) {
	docs, err := p.config.Loader.LoadFiles(ctx, files)
	if err != nil {
		return nil, err
	}

	res, err := p.RunDocuments(ctx, docs)
	if err != nil {
		return nil, err
	}
	res.Files = len(files)
	return res, nil
}
