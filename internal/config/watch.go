// apps/go-server/internal/config/watch.go
//
// Hot reload of the rules file.
//   - Watches the file's directory, so editors that save by rename or
//     replace the inode keep triggering reloads.
//   - Bursts of events for one save are collapsed into a single reload.
//   - A reload re-applies log_level before handing the new Config to the
//     caller; game rules and insults are the caller's to swap.
//   - A broken file is logged and skipped; the running config stays.

package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// reloadDelay is how long the file must be quiet before it is re-read.
const reloadDelay = 50 * time.Millisecond

// Watch reloads path whenever it changes and calls onChange with the result.
// It blocks until ctx is cancelled.
func Watch(ctx context.Context, path string, onChange func(*Config)) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("config: resolve %s: %w", path, err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config: new watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(abs)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("config: watch %s: %w", dir, err)
	}
	log.Info().Str("path", abs).Msg("config: watching rules file")

	var settle <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			settle = time.After(reloadDelay)

		case <-settle:
			settle = nil
			reload(abs, onChange)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Error().Err(err).Msg("config: watcher error")
		}
	}
}

func reload(path string, onChange func(*Config)) {
	cfg, err := Load(path)
	if err != nil {
		log.Error().Err(err).Str("path", path).Msg("config: reload failed, keeping previous config")
		return
	}
	cfg.ApplyLogLevel()
	log.Info().
		Str("path", path).
		Str("logLevel", cfg.LogLevel).
		Int("rounds", cfg.Game.Rounds).
		Int("passScore", cfg.Game.PassScore).
		Msg("config: reloaded")
	onChange(cfg)
}
