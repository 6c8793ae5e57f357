package analyzer

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/lineasoftware/boredom/internal/scripts/types"
)

// DiscoverOptions controls which files under Root count as scripts
type DiscoverOptions struct {
	Root       string
	Extensions []string
	Exclude    []string // doublestar patterns matched against the slash-separated relative path
}

// DefaultExcludes keeps tests and shared helper modules out of the registry
var DefaultExcludes = []string{
	"**/*.spec.*",
	"**/*.test.*",
	"**/shared/**",
}

// Discover walks opts.Root and returns every eligible script in lexical path order
func Discover(opts DiscoverOptions) ([]types.ScriptSource, error) {
	info, err := os.Stat(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("scripts root %s: %w", opts.Root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("scripts root %s is not a directory", opts.Root)
	}

	for _, pattern := range opts.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid exclude pattern %q", pattern)
		}
	}

	var sources []types.ScriptSource
	err = filepath.WalkDir(opts.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		if !slices.Contains(opts.Extensions, filepath.Ext(path)) {
			return nil
		}

		rel, err := filepath.Rel(opts.Root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if excluded(opts.Exclude, rel) {
			return nil
		}

		if !strings.Contains(rel, "/") {
			return fmt.Errorf("%s: %w", rel, types.ErrNoHostSegments)
		}

		abs, err := filepath.Abs(path)
		if err != nil {
			return err
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read script %s: %w", rel, err)
		}

		sources = append(sources, types.ScriptSource{
			RelPath: rel,
			AbsPath: abs,
			Content: string(content),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	return sources, nil
}

func excluded(patterns []string, rel string) bool {
	for _, pattern := range patterns {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}
