// Package bundler wraps the esbuild Go API for the build pipeline
package bundler

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
)

// DefaultTarget is used when no target is configured
const DefaultTarget = "es2020"

var targets = map[string]api.Target{
	"es2015": api.ES2015,
	"es2016": api.ES2016,
	"es2017": api.ES2017,
	"es2018": api.ES2018,
	"es2019": api.ES2019,
	"es2020": api.ES2020,
	"es2021": api.ES2021,
	"es2022": api.ES2022,
	"es2023": api.ES2023,
	"esnext": api.ESNext,
}

// Targets lists the accepted target names
func Targets() []string {
	names := make([]string, 0, len(targets))
	for name := range targets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParseTarget maps a target name such as es2020 to esbuild's constant
func ParseTarget(name string) (api.Target, error) {
	if name == "" {
		name = DefaultTarget
	}
	t, ok := targets[strings.ToLower(name)]
	if !ok {
		return 0, fmt.Errorf("unknown target %q (expected one of %s)", name, strings.Join(Targets(), ", "))
	}
	return t, nil
}

// Options describes one bundling run
type Options struct {
	EntryPoints []string
	WorkingDir  string // absolute; relative entry points and aliases resolve from it
	Target      string
	Minify      bool
	Aliases     map[string]string
	OutDir      string // set for multi-entry builds
	OutBase     string
}

// Output is one generated file. Path is empty for single-entry builds.
type Output struct {
	Path     string
	Contents []byte
}

// BundleError carries the formatted esbuild diagnostics of a failed run
type BundleError struct {
	Messages []string
}

func (e *BundleError) Error() string {
	if len(e.Messages) == 1 {
		return "bundle failed: " + e.Messages[0]
	}
	return fmt.Sprintf("bundle failed with %d errors:\n%s", len(e.Messages), strings.Join(e.Messages, "\n"))
}

// Bundler turns entry points into browser-ready IIFE bundles
type Bundler interface {
	Bundle(opts Options) ([]Output, error)
}

// Esbuild is the Bundler backed by the esbuild Go API
type Esbuild struct{}

// New returns the default bundler
func New() Bundler {
	return Esbuild{}
}

// Bundle runs esbuild without touching the filesystem
func (Esbuild) Bundle(opts Options) ([]Output, error) {
	if len(opts.EntryPoints) == 0 {
		return nil, fmt.Errorf("no entry points to bundle")
	}
	target, err := ParseTarget(opts.Target)
	if err != nil {
		return nil, err
	}

	buildOpts := api.BuildOptions{
		EntryPoints:       opts.EntryPoints,
		AbsWorkingDir:     opts.WorkingDir,
		Bundle:            true,
		Write:             false,
		Platform:          api.PlatformBrowser,
		Format:            api.FormatIIFE,
		Target:            target,
		Charset:           api.CharsetUTF8,
		MinifyWhitespace:  opts.Minify,
		MinifyIdentifiers: opts.Minify,
		MinifySyntax:      opts.Minify,
		Alias:             opts.Aliases,
		LogLevel:          api.LogLevelSilent,
	}
	if opts.OutDir != "" {
		buildOpts.Outdir = opts.OutDir
		buildOpts.Outbase = opts.OutBase
	}

	result := api.Build(buildOpts)
	if len(result.Errors) > 0 {
		return nil, &BundleError{Messages: formatMessages(result.Errors)}
	}

	outputs := make([]Output, 0, len(result.OutputFiles))
	for _, f := range result.OutputFiles {
		out := Output{Contents: f.Contents}
		if opts.OutDir != "" {
			out.Path = f.Path
		}
		outputs = append(outputs, out)
	}
	return outputs, nil
}

// MinifyCSS minifies a stylesheet
func MinifyCSS(css string) (string, error) {
	result := api.Transform(css, api.TransformOptions{
		Loader:           api.LoaderCSS,
		MinifyWhitespace: true,
		MinifySyntax:     true,
		LogLevel:         api.LogLevelSilent,
	})
	if len(result.Errors) > 0 {
		return "", &BundleError{Messages: formatMessages(result.Errors)}
	}
	return strings.TrimSpace(string(result.Code)), nil
}

func formatMessages(msgs []api.Message) []string {
	out := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		if loc := msg.Location; loc != nil {
			out = append(out, fmt.Sprintf("%s:%d:%d: %s", filepath.ToSlash(loc.File), loc.Line, loc.Column, msg.Text))
			continue
		}
		out = append(out, msg.Text)
	}
	return out
}
