// Package client embeds the browser runtime bundled into every userscript
// and prepares the settings menu template it renders.
package client

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-shiori/dom"
	"golang.org/x/net/html"

	"github.com/lineasoftware/boredom/internal/bundler"
)

//go:embed client.js
var runtimeSource string

//go:embed menu.html
var defaultMenu string

// StorageKey is the localStorage item holding the per-script enablement map
const StorageKey = "be_enabled_scripts"

// ErrNoStyles is returned for a menu template without a <style> element
var ErrNoStyles = errors.New("menu template has no <style> element")

// Source returns the runtime as an ES module exporting main
func Source() string {
	return runtimeSource
}

// DefaultMenu returns the built-in menu template
func DefaultMenu() string {
	return defaultMenu
}

// LoadMenu reads the menu template at path, or the default one when path is empty
func LoadMenu(path string) (string, error) {
	if path == "" {
		return defaultMenu, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read menu template: %w", err)
	}
	return string(data), nil
}

// PrepareMenu reduces a menu template to what the runtime consumes: its
// stylesheets, minified into a single <style> element.
func PrepareMenu(template string, minify bool) (string, error) {
	doc, err := html.Parse(strings.NewReader(template))
	if err != nil {
		return "", fmt.Errorf("failed to parse menu template: %w", err)
	}

	styles := dom.GetElementsByTagName(doc, "style")
	if len(styles) == 0 {
		return "", ErrNoStyles
	}

	var css []string
	for _, style := range styles {
		text := strings.TrimSpace(dom.TextContent(style))
		if text == "" {
			continue
		}
		if minify {
			if text, err = bundler.MinifyCSS(text); err != nil {
				return "", fmt.Errorf("failed to minify menu styles: %w", err)
			}
		}
		css = append(css, text)
	}

	return "<style>" + strings.Join(css, "\n") + "</style>", nil
}
