package importer

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/ziadkadry99/zoomdeck/internal/deck"
	"github.com/ziadkadry99/zoomdeck/internal/progress"
)

// Saver persists a presentation on behalf of owner.
type Saver interface {
	Save(ctx context.Context, p *deck.Presentation, owner string) (*deck.Presentation, error)
}

// Result reports what an import did.
type Result struct {
	Imported []*deck.Presentation
	Failed   map[string]error
}

// Importer loads deck files into a store.
type Importer struct {
	store    Saver
	owner    string
	reporter progress.Reporter
	logger   *slog.Logger
}

// New creates an importer saving decks as owner. A nil reporter or logger
// discards output.
func New(store Saver, owner string, reporter progress.Reporter, logger *slog.Logger) *Importer {
	if reporter == nil {
		reporter = progress.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{store: store, owner: owner, reporter: reporter, logger: logger}
}

// Import loads every file in paths. A bad file is recorded in
// Result.Failed and does not stop the others.
func (im *Importer) Import(ctx context.Context, paths []string) (*Result, error) {
	if im.owner == "" {
		return nil, fmt.Errorf("an owner is required to import decks: %w", deck.ErrUnauthorized)
	}

	res := &Result{Failed: make(map[string]error)}
	im.reporter.Start(len(paths))
	defer im.reporter.Finish()

	for i, path := range paths {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		im.reporter.Update(i, filepath.Base(path))

		p, err := im.importFile(ctx, path)
		if err != nil {
			im.logger.Warn("deck import failed", "path", path, "err", err)
			res.Failed[path] = err
			continue
		}
		im.logger.Info("deck imported", "path", path, "presentation", p.ID, "slides", len(p.Slides))
		res.Imported = append(res.Imported, p)
	}
	im.reporter.Update(len(paths), "done")
	return res, nil
}

func (im *Importer) importFile(ctx context.Context, path string) (*deck.Presentation, error) {
	f, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	p, err := f.Presentation()
	if err != nil {
		return nil, err
	}
	return im.store.Save(ctx, p, im.owner)
}
