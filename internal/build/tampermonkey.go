package build

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/lineasoftware/boredom/internal/bundler"
	"github.com/lineasoftware/boredom/internal/client"
	"github.com/lineasoftware/boredom/internal/scripts/analyzer"
	"github.com/lineasoftware/boredom/internal/scripts/generator"
	"github.com/lineasoftware/boredom/internal/scripts/transformer"
	"github.com/lineasoftware/boredom/internal/scripts/types"
)

// tampermonkeyAdapter bundles every script and the client runtime into a
// single userscript with a manifest header.
type tampermonkeyAdapter struct{}

func (tampermonkeyAdapter) Name() string { return "tampermonkey" }

func (tampermonkeyAdapter) Build(ctx context.Context, o *Orchestrator, analysis *types.Analysis) ([]string, error) {
	cfg := o.config
	scratch := o.scratchDir()

	// a crashed earlier run may have left files behind
	if err := os.RemoveAll(scratch); err != nil {
		return nil, fmt.Errorf("failed to remove stale scratch directory: %w", err)
	}
	if err := os.MkdirAll(scratch, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create scratch directory: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(scratch); err != nil {
			o.logger.Warn("⚠️  Could not remove scratch directory", slog.String("dir", scratch), slog.Any("err", err))
		}
	}()

	o.logger.Info("🔧 Transforming scripts...", slog.Int("count", len(analysis.Scripts)))
	modules := generator.NewModuleFiles(analysis.Scripts)
	if err := writeModules(ctx, scratch, modules); err != nil {
		return nil, err
	}

	if err := os.WriteFile(filepath.Join(scratch, generator.ClientFileName), []byte(client.Source()), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write client runtime: %w", err)
	}

	menu, err := client.LoadMenu(cfg.Resolve(cfg.Tampermonkey.MenuTemplate))
	if err != nil {
		return nil, err
	}
	menu, err = client.PrepareMenu(menu, cfg.Build.MinifyEnabled())
	if err != nil {
		return nil, err
	}

	entry, err := generator.GenerateEntry(modules, menu, generator.MenuOptions{
		Title:   cfg.Name,
		Version: cfg.Version,
	})
	if err != nil {
		return nil, err
	}
	entryPath := filepath.Join(scratch, generator.EntryFileName)
	if err := os.WriteFile(entryPath, []byte(entry), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write entry point: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	o.logger.Info("📦 Bundling userscript...", slog.String("target", cfg.Build.Target))
	outputs, err := o.bundler.Bundle(bundler.Options{
		EntryPoints: []string{entryPath},
		WorkingDir:  scratch,
		Target:      cfg.Build.Target,
		Minify:      cfg.Build.MinifyEnabled(),
		Aliases:     o.aliases(),
	})
	if err != nil {
		return nil, err
	}

	header, err := generator.GenerateHeader(generator.HeaderOptions{
		Name:        cfg.Name,
		Namespace:   cfg.Namespace,
		Version:     cfg.Version,
		Description: cfg.Description,
		Author:      cfg.Author,
		Match:       cfg.Tampermonkey.Match,
		Grants:      cfg.Tampermonkey.Grants,
		RunAt:       cfg.Tampermonkey.RunAt,
		UpdateURL:   cfg.Tampermonkey.UpdateURL,
	})
	if err != nil {
		return nil, err
	}

	out := cfg.UserScriptPath()
	data := append([]byte(header), outputs[0].Contents...)
	if err := writeFileAtomic(out, data); err != nil {
		return nil, err
	}

	o.logger.Info("📝 Wrote userscript", slog.String("path", out), slog.Int("bytes", len(data)))
	return []string{out}, nil
}

// writeModules transforms every script concurrently into dir
func writeModules(ctx context.Context, dir string, modules []generator.ModuleFile) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)

	for _, m := range modules {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			src, err := transformer.Transform(m.Script, analyzer.MatchExpression(m.Script.Match, "host"))
			if err != nil {
				return err
			}
			if err := os.WriteFile(filepath.Join(dir, m.FileName), []byte(src), 0o644); err != nil {
				return fmt.Errorf("failed to write module %s: %w", m.FileName, err)
			}
			return nil
		})
	}

	return g.Wait()
}
