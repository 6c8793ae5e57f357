// Package openapi renders the description of a huma API
package openapi

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/danielgtaylor/huma/v2"
)

// Format is an output encoding for the description
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts json, yaml or yml
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unsupported format: %s (use 'json' or 'yaml')", s)
}

// FormatForPath picks the format from a file extension, JSON by default
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatJSON
}

// Marshal encodes the API description
func Marshal(api huma.API, format Format) ([]byte, error) {
	var (
		out []byte
		err error
	)
	switch format {
	case FormatYAML:
		out, err = api.OpenAPI().YAML()
	default:
		out, err = api.OpenAPI().MarshalJSON()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to generate OpenAPI %s: %w", format, err)
	}
	return out, nil
}

// WriteFile saves the API description to path, creating parent directories
func WriteFile(api huma.API, path string, format Format) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	spec, err := Marshal(api, format)
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, spec, 0644); err != nil {
		return fmt.Errorf("failed to save OpenAPI spec to %s: %w", path, err)
	}
	return nil
}

// Operations lists every registered route as "METHOD /path", sorted
func Operations(api huma.API) []string {
	spec := api.OpenAPI()
	if spec == nil {
		return nil
	}

	var ops []string
	for path, item := range spec.Paths {
		if item == nil {
			continue
		}
		for method, op := range map[string]*huma.Operation{
			http.MethodGet:     item.Get,
			http.MethodPost:    item.Post,
			http.MethodPut:     item.Put,
			http.MethodDelete:  item.Delete,
			http.MethodPatch:   item.Patch,
			http.MethodHead:    item.Head,
			http.MethodOptions: item.Options,
		} {
			if op != nil {
				ops = append(ops, method+" "+path)
			}
		}
	}
	sort.Strings(ops)
	return ops
}
