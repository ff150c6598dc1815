// Package watcher ingests files dropped into an uploads directory.
//
// A file created or rewritten in the directory is ingested under its base
// name once writes have settled; a file deleted or moved away is removed
// from the index. Subdirectories and hidden files are ignored.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/docsync/internal/core/domain"
	"github.com/custodia-labs/docsync/internal/core/ports/driving"
	"github.com/custodia-labs/docsync/internal/logger"
)

// DefaultDebounce is the quiet period after the last write before a file
// is ingested.
const DefaultDebounce = 500 * time.Millisecond

type action int

const (
	actionNone action = iota
	actionIngest
	actionRemove
)

// Watcher feeds an uploads directory into the index.
type Watcher struct {
	dir      string
	ingestor driving.Ingestor
	docs     driving.DocumentIndex
	log      *logger.Logger

	// Debounce overrides DefaultDebounce when positive.
	Debounce time.Duration

	// IngestExisting ingests files already present when Run starts.
	IngestExisting bool
}

// New creates a watcher for dir. docs may be nil, in which case deleted
// files stay indexed.
func New(dir string, ingestor driving.Ingestor, docs driving.DocumentIndex, log *logger.Logger) *Watcher {
	if log == nil {
		log = logger.Discard()
	}
	return &Watcher{
		dir:      dir,
		ingestor: ingestor,
		docs:     docs,
		log:      log.With("watch"),
	}
}

// Run watches until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	info, err := os.Stat(w.dir)
	if err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("watch %s: %w: not a directory", w.dir, domain.ErrInvalidInput)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	w.log.Info("watching %s", w.dir)

	if w.IngestExisting {
		w.ingestExisting(ctx)
	}

	debounce := w.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	ready := make(chan string)
	pending := make(map[string]*time.Timer)
	defer func() {
		for _, t := range pending {
			t.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			switch w.handleFsEvent(event) {
			case actionIngest:
				if t, ok := pending[event.Name]; ok {
					t.Reset(debounce)
					continue
				}
				path := event.Name
				pending[path] = time.AfterFunc(debounce, func() {
					select {
					case ready <- path:
					case <-ctx.Done():
					}
				})
			case actionRemove:
				if t, ok := pending[event.Name]; ok {
					t.Stop()
					delete(pending, event.Name)
				}
				w.remove(ctx, event.Name)
			}

		case path := <-ready:
			delete(pending, path)
			w.ingest(ctx, path)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error: %v", err)
		}
	}
}

// handleFsEvent decides what an event means for the index.
func (w *Watcher) handleFsEvent(event fsnotify.Event) action {
	if isHidden(event.Name) {
		return actionNone
	}
	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		return actionRemove
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		info, err := os.Stat(event.Name)
		if err != nil || !info.Mode().IsRegular() {
			return actionNone
		}
		return actionIngest
	default:
		return actionNone
	}
}

func (w *Watcher) ingestExisting(ctx context.Context) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		w.log.Warn("list %s: %v", w.dir, err)
		return
	}
	for _, e := range entries {
		if e.Type().IsRegular() && !isHidden(e.Name()) {
			w.ingest(ctx, filepath.Join(w.dir, e.Name()))
		}
	}
}

func (w *Watcher) ingest(ctx context.Context, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		w.log.Warn("read %s: %v", path, err)
		return
	}
	msg, err := w.ingestor.IngestUpload(ctx, data, filepath.Base(path))
	switch {
	case errors.Is(err, domain.ErrUnsupportedType):
		w.log.Debug("skipping %s: unsupported type", filepath.Base(path))
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrNoText):
		w.log.Warn("skipping %s: %v", filepath.Base(path), err)
	case err != nil:
		w.log.Error("ingest %s: %v", filepath.Base(path), err)
	default:
		w.log.Info("%s", msg)
	}
}

func (w *Watcher) remove(ctx context.Context, path string) {
	if w.docs == nil {
		return
	}
	docID := filepath.Base(path)
	if err := w.docs.Remove(ctx, docID); err != nil {
		w.log.Error("remove %s: %v", docID, err)
		return
	}
	w.log.Info("removed %s", docID)
}

// isHidden reports dotfiles and editor backups.
func isHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~")
}
