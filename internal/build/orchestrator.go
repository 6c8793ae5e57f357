// Package build turns a project's scripts into distributable userscripts
package build

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/lineasoftware/boredom/config"
	"github.com/lineasoftware/boredom/internal/bundler"
	"github.com/lineasoftware/boredom/internal/scripts/analyzer"
	"github.com/lineasoftware/boredom/internal/scripts/types"
)

// Adapter produces the artifacts of one output flavour from an analysis
type Adapter interface {
	Name() string
	Build(ctx context.Context, o *Orchestrator, analysis *types.Analysis) ([]string, error)
}

// DefaultAdapter is used when no adapter is requested
const DefaultAdapter = "tampermonkey"

var adapters = map[string]Adapter{
	"tampermonkey": tampermonkeyAdapter{},
	"plain":        plainAdapter{},
}

// Adapters lists the registered adapter names
func Adapters() []string {
	names := make([]string, 0, len(adapters))
	for name := range adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ErrUnknownAdapter is returned for an adapter name that is not registered
var ErrUnknownAdapter = errors.New("unknown build adapter")

// Options control a single build run
type Options struct {
	Adapter string
	Clean   bool // remove the output directory first
}

// Result describes a finished build
type Result struct {
	Adapter  string        `json:"adapter"`
	Site     int           `json:"site"`
	Generic  int           `json:"generic"`
	Outputs  []string      `json:"outputs"`
	Duration time.Duration `json:"duration"`
}

// Status is the outcome of the most recent build
type Status struct {
	Building   bool      `json:"building"`
	Success    bool      `json:"success"`
	Error      string    `json:"error,omitempty"`
	FinishedAt time.Time `json:"finishedAt,omitempty"`
	Result     *Result   `json:"result,omitempty"`
}

// Orchestrator runs builds for one project. Build calls are serialized.
type Orchestrator struct {
	config  *config.ProjectConfig
	logger  *slog.Logger
	bundler bundler.Bundler

	buildMu  sync.Mutex
	statusMu sync.RWMutex
	status   Status
}

// NewOrchestrator returns an orchestrator bundling with esbuild
func NewOrchestrator(cfg *config.ProjectConfig, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		config:  cfg,
		logger:  logger,
		bundler: bundler.New(),
	}
}

// Config returns the project configuration
func (o *Orchestrator) Config() *config.ProjectConfig {
	return o.config
}

// Status returns a copy of the last build status
func (o *Orchestrator) Status() Status {
	o.statusMu.RLock()
	defer o.statusMu.RUnlock()
	return o.status
}

func (o *Orchestrator) setStatus(fn func(s *Status)) {
	o.statusMu.Lock()
	defer o.statusMu.Unlock()
	fn(&o.status)
}

// Analyze discovers and analyzes the project's scripts
func (o *Orchestrator) Analyze() (*types.Analysis, error) {
	return analyzer.AnalyzeProject(analyzer.DiscoverOptions{
		Root:       o.config.ScriptsRoot(),
		Extensions: o.config.Scripts.Extensions,
		Exclude:    o.config.Scripts.Exclude,
	}, o.logger)
}

// Build analyzes the project and runs the requested adapter
func (o *Orchestrator) Build(ctx context.Context, opts Options) (*Result, error) {
	o.buildMu.Lock()
	defer o.buildMu.Unlock()

	o.setStatus(func(s *Status) { s.Building = true })

	result, err := o.build(ctx, opts)

	o.setStatus(func(s *Status) {
		s.Building = false
		s.Success = err == nil
		s.FinishedAt = time.Now()
		s.Error = ""
		s.Result = result
		if err != nil {
			s.Error = err.Error()
			s.Result = nil
		}
	})
	return result, err
}

func (o *Orchestrator) build(ctx context.Context, opts Options) (*Result, error) {
	start := time.Now()

	name := opts.Adapter
	if name == "" {
		name = DefaultAdapter
	}
	adapter, ok := adapters[name]
	if !ok {
		return nil, fmt.Errorf("%w %q (expected one of %v)", ErrUnknownAdapter, name, Adapters())
	}

	o.logger.Info("🚀 Building userscripts...", slog.String("adapter", name))

	if opts.Clean {
		if err := o.clean(); err != nil {
			return nil, err
		}
	}

	analysis, err := o.Analyze()
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(o.config.OutputDir(), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	outputs, err := adapter.Build(ctx, o, analysis)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Adapter:  name,
		Outputs:  slices.Clone(outputs),
		Duration: time.Since(start),
	}
	result.Site, result.Generic = analysis.Counts()

	o.logger.Info("✅ Build completed",
		slog.Int("site", result.Site),
		slog.Int("generic", result.Generic),
		slog.Int("outputs", len(result.Outputs)),
		slog.Duration("elapsed", result.Duration),
	)
	return result, nil
}

func (o *Orchestrator) clean() error {
	o.logger.Info("🧹 Cleaning build artifacts...")

	for _, dir := range []string{o.config.OutputDir(), o.scratchDir()} {
		if err := os.RemoveAll(dir); err != nil {
			o.logger.Warn("⚠️  Could not clean directory", slog.String("dir", dir), slog.Any("err", err))
		}
	}
	return nil
}

func (o *Orchestrator) scratchDir() string {
	return o.config.Resolve(o.config.Build.ScratchDir)
}

// aliases resolves the configured import aliases against the project dir
func (o *Orchestrator) aliases() map[string]string {
	if len(o.config.Scripts.Aliases) == 0 {
		return nil
	}
	out := make(map[string]string, len(o.config.Scripts.Aliases))
	for alias, target := range o.config.Scripts.Aliases {
		out[alias] = o.config.Resolve(target)
	}
	return out
}
