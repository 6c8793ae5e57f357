package analyzer

import (
	"errors"
	"log/slog"
	"time"

	"github.com/lineasoftware/boredom/internal/scripts/types"
)

// AnalyzeProject discovers every script under opts.Root and resolves its
// metadata, host predicate and registry id. All metadata problems are
// collected so a single run reports every offending file.
func AnalyzeProject(opts DiscoverOptions, logger *slog.Logger) (*types.Analysis, error) {
	start := time.Now()

	sources, err := Discover(opts)
	if err != nil {
		return nil, err
	}

	analysis := &types.Analysis{Root: opts.Root}
	seen := make(map[string]string, len(sources))

	var errs []error
	for _, src := range sources {
		script, err := AnalyzeSource(src)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		if first, ok := seen[script.ID]; ok {
			errs = append(errs, &types.DuplicateIDError{ID: script.ID, First: first, Second: src.RelPath})
			continue
		}
		seen[script.ID] = src.RelPath

		logger.Debug("analyzed script",
			slog.String("id", script.ID),
			slog.String("type", string(script.Type)),
			slog.String("host", script.Match.Host),
		)
		analysis.Scripts = append(analysis.Scripts, script)
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	logger.Info("🔍 Discovered scripts",
		slog.Int("site", countType(analysis, types.ScriptTypeSite)),
		slog.Int("generic", countType(analysis, types.ScriptTypeGeneric)),
		slog.Duration("elapsed", time.Since(start)),
	)

	return analysis, nil
}

// AnalyzeSource resolves a single source. The registry id is the relative
// path, which is unique by construction within one scripts root.
func AnalyzeSource(src types.ScriptSource) (types.Script, error) {
	scriptType, match, err := CompileHostMatch(src.RelPath)
	if err != nil {
		return types.Script{}, err
	}

	meta, err := ExtractMetadata(src.RelPath, src.Content)
	if err != nil {
		return types.Script{}, err
	}

	return types.Script{
		ID:       src.RelPath,
		Type:     scriptType,
		Source:   src,
		Metadata: meta,
		Match:    match,
	}, nil
}

func countType(a *types.Analysis, t types.ScriptType) int {
	n := 0
	for _, s := range a.Scripts {
		if s.Type == t {
			n++
		}
	}
	return n
}
