package backup

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dotolabs/doto/internal/clock"
	"github.com/dotolabs/doto/internal/models"
)

// Apply installs a validated collection, replacing the current one.
type Apply func(notes []models.Note)

// Watch monitors dir for dropped backup files until ctx is cancelled.
// Every *.json file that appears is validated and, when valid, imported
// through apply. Processed files are renamed to *.imported, rejected ones
// to *.rejected, so a file is only ever consumed once.
//
// Events are debounced before scanning: editors and file managers emit
// several writes while a file lands.
func Watch(ctx context.Context, dir string, clk clock.Clock, apply Apply, logger *slog.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return err
	}
	logger.Info("import watcher: started", slog.String("dir", dir))

	var scanTimer *time.Timer
	var scanCh <-chan time.Time

	scheduleScan := func() {
		if scanTimer == nil {
			scanTimer = time.NewTimer(300 * time.Millisecond)
			scanCh = scanTimer.C
		} else {
			scanTimer.Reset(300 * time.Millisecond)
		}
	}

	// Pick up files that were already waiting when we started.
	scanDir(dir, clk, apply, logger)

	for {
		select {
		case <-ctx.Done():
			if scanTimer != nil {
				scanTimer.Stop()
			}
			logger.Info("import watcher: stopped")
			return nil

		case <-scanCh:
			scanDir(dir, clk, apply, logger)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			if strings.EqualFold(filepath.Ext(ev.Name), ".json") {
				scheduleScan()
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("import watcher: error", slog.String("error", err.Error()))
		}
	}
}

// scanDir imports every pending *.json file in dir.
func scanDir(dir string, clk clock.Clock, apply Apply, logger *slog.Logger) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		logger.Warn("import watcher: read dir failed", slog.String("error", err.Error()))
		return
	}
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".json") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		importFile(path, clk, apply, logger)
	}
}

func importFile(path string, clk clock.Clock, apply Apply, logger *slog.Logger) {
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("import watcher: read failed",
			slog.String("path", path), slog.String("error", err.Error()))
		return
	}

	notes, err := Decode(data, clk.Now())
	if err != nil {
		logger.Warn("import watcher: rejected backup",
			slog.String("path", path), slog.String("error", err.Error()))
		markDone(path, ".rejected", logger)
		return
	}

	apply(notes)
	logger.Info("import watcher: imported backup",
		slog.String("path", path), slog.Int("notes", len(notes)))
	markDone(path, ".imported", logger)
}

func markDone(path, suffix string, logger *slog.Logger) {
	if err := os.Rename(path, path+suffix); err != nil {
		logger.Warn("import watcher: rename failed",
			slog.String("path", path), slog.String("error", err.Error()))
	}
}
