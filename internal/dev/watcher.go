package dev

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debouncer runs fn once events stop arriving for delay
type debouncer struct {
	mu    sync.Mutex
	delay time.Duration
	timer *time.Timer
	fn    func()
}

func newDebouncer(delay time.Duration, fn func()) *debouncer {
	if delay <= 0 {
		delay = 300 * time.Millisecond
	}
	return &debouncer{delay: delay, fn: fn}
}

func (d *debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.fn)
}

func (d *debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
}

// watchTargets lists the directories to watch recursively and the single
// files whose parent directory is watched.
func (o *DevOrchestrator) watchTargets() (dirs []string, files []string) {
	cfg := o.Config()

	dirs = append(dirs, cfg.ScriptsRoot())
	for _, target := range cfg.Scripts.Aliases {
		if dir := cfg.Resolve(target); !slices.Contains(dirs, dir) {
			dirs = append(dirs, dir)
		}
	}
	slices.Sort(dirs[1:])

	if cfg.Path() != "" {
		files = append(files, cfg.Path())
	}
	if cfg.Tampermonkey.MenuTemplate != "" {
		files = append(files, cfg.Resolve(cfg.Tampermonkey.MenuTemplate))
	}
	return dirs, files
}

func (o *DevOrchestrator) setupFileWatcher() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	o.fileWatcher = watcher

	dirs, files := o.watchTargets()
	for _, dir := range dirs {
		if err := o.addDirectoryRecursively(dir); err != nil {
			o.logger.Warn("⚠️  Could not watch directory", slog.String("dir", dir), slog.Any("err", err))
		}
	}
	for _, file := range files {
		if err := o.fileWatcher.Add(filepath.Dir(file)); err != nil {
			o.logger.Warn("⚠️  Could not watch file", slog.String("file", file), slog.Any("err", err))
		}
	}
	return nil
}

// addDirectoryRecursively adds root and its subdirectories, skipping the
// build output and scratch directories.
func (o *DevOrchestrator) addDirectoryRecursively(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if o.ignored(path) {
			return filepath.SkipDir
		}

		if err := o.fileWatcher.Add(path); err != nil {
			o.logger.Warn("⚠️  Could not watch directory", slog.String("dir", path), slog.Any("err", err))
		} else {
			o.logger.Debug("👁️  Watching directory", slog.String("dir", path))
		}
		return nil
	})
}

func (o *DevOrchestrator) ignored(path string) bool {
	cfg := o.Config()
	for _, dir := range []string{cfg.OutputDir(), cfg.Resolve(cfg.Build.ScratchDir)} {
		if path == dir || strings.HasPrefix(path, dir+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// eventKind classifies a watcher event
type eventKind int

const (
	eventIgnore eventKind = iota
	eventSource
	eventConfig
)

func (o *DevOrchestrator) classify(event fsnotify.Event) eventKind {
	if event.Op == fsnotify.Chmod || o.ignored(event.Name) {
		return eventIgnore
	}

	cfg := o.Config()
	if event.Name == cfg.Path() {
		return eventConfig
	}
	if cfg.Tampermonkey.MenuTemplate != "" && event.Name == cfg.Resolve(cfg.Tampermonkey.MenuTemplate) {
		return eventSource
	}

	base := filepath.Base(event.Name)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~") {
		return eventIgnore
	}

	dirs, _ := o.watchTargets()
	for _, dir := range dirs {
		if strings.HasPrefix(event.Name, dir+string(filepath.Separator)) {
			return eventSource
		}
	}
	return eventIgnore
}

func (o *DevOrchestrator) handleFileEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-o.fileWatcher.Events:
			if !ok {
				return
			}

			switch o.classify(event) {
			case eventConfig:
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				o.logger.Info("⚙️  Configuration changed, reloading...")
				if err := o.reloadConfig(); err != nil {
					o.logger.Error("❌ Failed to reload config", slog.Any("err", err))
					continue
				}
				o.debounce.Trigger()

			case eventSource:
				// new directories under a watched root need their own watch
				if event.Op&fsnotify.Create != 0 {
					if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
						if err := o.addDirectoryRecursively(event.Name); err != nil {
							o.logger.Warn("⚠️  Could not watch directory", slog.String("dir", event.Name), slog.Any("err", err))
						}
					}
				}
				o.logger.Info("📝 File changed, rebuilding...", slog.String("file", filepath.Base(event.Name)))
				o.debounce.Trigger()
			}

		case err, ok := <-o.fileWatcher.Errors:
			if !ok {
				return
			}
			o.logger.Debug("file watcher error", slog.Any("err", err))
		}
	}
}
