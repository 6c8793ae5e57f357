// Package dev implements watch mode: rebuild on change and serve the output
package dev

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/lineasoftware/boredom/config"
	"github.com/lineasoftware/boredom/internal/build"
	"github.com/lineasoftware/boredom/internal/devserver"
	"github.com/lineasoftware/boredom/internal/scripts/types"
)

// Options configure dev mode
type Options struct {
	Adapter string
	Port    int // overrides dev.port when set
	Debug   bool
}

// DevOrchestrator owns the watcher, the rebuild worker and the HTTP server
type DevOrchestrator struct {
	opts   Options
	logger *slog.Logger

	configMu sync.RWMutex
	config   *config.ProjectConfig
	builder  *build.Orchestrator

	// serializes builds across builder swaps; they share the scratch dir
	buildMu sync.Mutex

	fileWatcher *fsnotify.Watcher
	debounce    *debouncer
	rebuilds    chan struct{}
}

// NewDevOrchestrator prepares dev mode for cfg
func NewDevOrchestrator(cfg *config.ProjectConfig, logger *slog.Logger, opts Options) *DevOrchestrator {
	o := &DevOrchestrator{
		opts:     opts,
		logger:   logger,
		config:   cfg,
		builder:  build.NewOrchestrator(cfg, logger),
		rebuilds: make(chan struct{}, 1),
	}
	o.debounce = newDebouncer(cfg.Dev.Debounce, o.requestRebuild)
	return o
}

// Config returns the current configuration
func (o *DevOrchestrator) Config() *config.ProjectConfig {
	o.configMu.RLock()
	defer o.configMu.RUnlock()
	return o.config
}

func (o *DevOrchestrator) currentBuilder() *build.Orchestrator {
	o.configMu.RLock()
	defer o.configMu.RUnlock()
	return o.builder
}

// Build runs a build with the current configuration
func (o *DevOrchestrator) Build(ctx context.Context, opts build.Options) (*build.Result, error) {
	o.buildMu.Lock()
	defer o.buildMu.Unlock()
	return o.currentBuilder().Build(ctx, opts)
}

// Status returns the status of the last build
func (o *DevOrchestrator) Status() build.Status {
	return o.currentBuilder().Status()
}

// Analyze analyzes the scripts with the current configuration
func (o *DevOrchestrator) Analyze() (*types.Analysis, error) {
	return o.currentBuilder().Analyze()
}

// Start builds once, then watches and serves until ctx is cancelled
func (o *DevOrchestrator) Start(ctx context.Context) error {
	cfg := o.Config()
	o.logger.Info("🚀 Starting dev mode...", slog.String("project", cfg.Name))

	o.rebuild(ctx)

	if err := o.setupFileWatcher(); err != nil {
		return err
	}
	defer o.fileWatcher.Close() //nolint:errcheck
	defer o.debounce.Stop()

	go o.handleFileEvents(ctx)
	go o.rebuildWorker(ctx)

	port := cfg.Dev.Port
	if o.opts.Port != 0 {
		port = o.opts.Port
	}

	server := devserver.New(o, devserver.Options{
		Name:      cfg.Name,
		Version:   cfg.Version,
		OutputDir: cfg.OutputDir(),
		Adapter:   o.opts.Adapter,
		Logger:    o.logger,
	})
	o.logger.Info("📜 Install the userscript from",
		slog.String("url", fmt.Sprintf("http://localhost:%d/%s", port, cfg.Tampermonkey.Output)))

	err := server.ListenAndServe(ctx, fmt.Sprintf(":%d", port))
	o.logger.Info("👋 Dev mode stopped")
	return err
}

func (o *DevOrchestrator) requestRebuild() {
	select {
	case o.rebuilds <- struct{}{}:
	default:
	}
}

func (o *DevOrchestrator) rebuildWorker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-o.rebuilds:
			o.rebuild(ctx)
		}
	}
}

func (o *DevOrchestrator) rebuild(ctx context.Context) {
	cfg := o.Config()
	if cfg.Dev.TypecheckCmd != "" {
		if err := o.runTypecheck(ctx, cfg.Dev.TypecheckCmd, cfg.ProjectDir()); err != nil {
			o.logger.Warn("⚠️  Typecheck failed, building anyway", slog.Any("err", err))
		}
	}

	if _, err := o.Build(ctx, build.Options{Adapter: o.opts.Adapter}); err != nil {
		o.logger.Error("❌ Build failed", slog.Any("err", err))
		o.logger.Info("🔧 Fix the errors and save the file again to retry")
	}
}

// reloadConfig swaps in a freshly loaded configuration. Watched paths are
// not updated; a changed scripts root needs a restart.
func (o *DevOrchestrator) reloadConfig() error {
	current := o.Config()

	cm := config.NewConfigManager(config.ConfigLoadOptions{
		Path:              current.Path(),
		ValidateStructure: true,
		ApplyDefaults:     true,
		LoadEnv:           true,
		Quiet:             true,
	})
	next, err := cm.LoadConfig()
	if err != nil {
		return err
	}

	if next.ScriptsRoot() != current.ScriptsRoot() || next.Dev.Port != current.Dev.Port {
		o.logger.Warn("⚠️  Scripts root or port changed, restart dev mode to apply")
	}

	o.configMu.Lock()
	o.config = next
	o.builder = build.NewOrchestrator(next, o.logger)
	o.configMu.Unlock()

	o.logger.Info("✅ Configuration reloaded")
	return nil
}
