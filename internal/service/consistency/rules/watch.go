package rules

import (
	"context"
	"log/slog"
	"path/filepath"

	"dossier/internal/service/consistency"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the rule configuration whenever the override file changes
// and re-registers the rules on the engine. Re-registration is
// last-write-wins by rule id, so a reload swaps rule parameters without
// restarting the server or reshuffling issue ordering. Watch blocks until
// ctx is cancelled; run it in its own goroutine.
//
// The parent directory is watched rather than the file itself because many
// editors and config mounts replace the file via rename, which drops a
// watch placed directly on the path.
func Watch(ctx context.Context, path string, engine *consistency.Engine, logger *slog.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return err
	}

	target := filepath.Clean(path)
	logger.Info("watching rule config", "path", target)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			rs, err := LoadFile(target)
			if err != nil {
				// Keep running with the previous rule set; a half-written
				// file shows up as a parse error and resolves on the next write
				logger.Error("rule config reload failed", "path", target, "error", err)
				continue
			}

			Register(engine, rs)
			logger.Info("rule config reloaded", "path", target, "rules", engine.RuleIDs())

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("rule config watcher error", "error", err)
		}
	}
}
