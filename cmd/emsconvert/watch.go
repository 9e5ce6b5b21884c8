package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/nerrad567/emsconvert/internal/convert"
	"github.com/nerrad567/emsconvert/internal/infrastructure/logging"
)

// watchDebounce collapses the burst of events an editor produces on save.
const watchDebounce = 500 * time.Millisecond

// watch converts input once, then again after every change, until ctx is
// cancelled. The parent directory is watched so that editors which
// replace the file on save are followed.
func watch(ctx context.Context, conv *convert.Converter, input string, out io.Writer, log *logging.Logger) error {
	target, err := filepath.Abs(input)
	if err != nil {
		return fmt.Errorf("resolving input path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(target), err)
	}

	convertOnce := func() {
		res, _ := conv.ConvertFile(ctx, input)
		printSummary(out, res, "")
	}
	convertOnce()
	log.Info("watching for changes", "input", target)

	var (
		timer   *time.Timer
		pending <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			log.Info("watch stopped")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target || !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			log.Debug("input changed", "op", event.Op.String())
			if timer == nil {
				timer = time.NewTimer(watchDebounce)
			} else {
				timer.Reset(watchDebounce)
			}
			pending = timer.C

		case <-pending:
			pending = nil
			convertOnce()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("watch error", "error", err)
		}
	}
}
