package build

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/lineasoftware/boredom/internal/bundler"
	"github.com/lineasoftware/boredom/internal/scripts/generator"
	"github.com/lineasoftware/boredom/internal/scripts/types"
)

// plainAdapter bundles each script on its own, mirroring the scripts tree,
// and writes the site data sidecar describing them.
type plainAdapter struct{}

func (plainAdapter) Name() string { return "plain" }

func (plainAdapter) Build(ctx context.Context, o *Orchestrator, analysis *types.Analysis) ([]string, error) {
	cfg := o.config

	data, err := generator.BuildSiteData(cfg.Name, cfg.License, analysis.Scripts)
	if err != nil {
		return nil, err
	}

	var written []string
	if len(analysis.Scripts) > 0 {
		entries := make([]string, len(analysis.Scripts))
		for i, s := range analysis.Scripts {
			entries[i] = s.Source.AbsPath
		}

		o.logger.Info("📦 Bundling scripts...", slog.Int("count", len(entries)))
		outputs, err := o.bundler.Bundle(bundler.Options{
			EntryPoints: entries,
			WorkingDir:  cfg.ProjectDir(),
			Target:      cfg.Build.Target,
			Minify:      cfg.Build.MinifyEnabled(),
			Aliases:     o.aliases(),
			OutDir:      cfg.OutputDir(),
			OutBase:     cfg.ScriptsRoot(),
		})
		if err != nil {
			return nil, err
		}

		for _, out := range outputs {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if err := writeFileAtomic(out.Path, out.Contents); err != nil {
				return nil, err
			}
			written = append(written, out.Path)
		}
	}

	sidecar, err := data.Marshal()
	if err != nil {
		return nil, fmt.Errorf("failed to encode site data: %w", err)
	}
	sidecarPath := filepath.Join(cfg.OutputDir(), cfg.Plain.DataFile)
	if err := writeFileAtomic(sidecarPath, sidecar); err != nil {
		return nil, err
	}

	o.logger.Info("📝 Wrote site data", slog.String("path", sidecarPath))
	return append(written, sidecarPath), nil
}
