// Package generator produces the source text the build feeds to the
// bundler: the synthesized entry module, the userscript header and the
// scripts-data sidecar of the plain adapter.
package generator

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"path"
	"regexp"
	"strings"
	"text/template"

	"github.com/lineasoftware/boredom/internal/scripts/types"
)

//go:embed templates/entry.js.tmpl
var entryTemplate string

//go:embed templates/header.tmpl
var headerTemplate string

// EntryFileName is the synthesized entry module inside the scratch directory
const EntryFileName = "entry.js"

// ClientFileName is the client runtime copy inside the scratch directory
const ClientFileName = "client.js"

var templateFuncs = template.FuncMap{
	"json": toJSON,
	"line": singleLine,
}

var (
	entryTmpl  = template.Must(template.New("entry").Funcs(templateFuncs).Parse(entryTemplate))
	headerTmpl = template.Must(template.New("header").Funcs(templateFuncs).Parse(headerTemplate))
)

// ModuleFile pairs a script with the file its transformed module is written to
type ModuleFile struct {
	Script   types.Script
	FileName string
}

// NewModuleFiles assigns scratch file names in discovery order
func NewModuleFiles(scripts []types.Script) []ModuleFile {
	files := make([]ModuleFile, len(scripts))
	for i, script := range scripts {
		files[i] = ModuleFile{Script: script, FileName: ModuleFileName(i, script.Source.RelPath)}
	}
	return files
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_]+`)

// ModuleFileName derives a collision-free scratch file name from the script
// index and its path, e.g. 3 and com/reddit/hide.ts give s003_com_reddit_hide.ts.
func ModuleFileName(index int, relPath string) string {
	ext := path.Ext(relPath)
	stem := strings.TrimSuffix(relPath, ext)
	stem = strings.Trim(unsafeChars.ReplaceAllString(stem, "_"), "_")
	if ext == "" {
		ext = ".js"
	}
	return fmt.Sprintf("s%03d_%s%s", index, stem, ext)
}

// MenuOptions are passed to the client runtime next to the menu template
type MenuOptions struct {
	Title   string `json:"title,omitempty"`
	Version string `json:"version,omitempty"`
}

type entryData struct {
	Modules      []ModuleFile
	MenuTemplate string
	Menu         MenuOptions
}

// GenerateEntry renders the entry module that imports the client runtime and
// every transformed script and hands the registry to main.
func GenerateEntry(modules []ModuleFile, menuTemplate string, menu MenuOptions) (string, error) {
	var b strings.Builder
	data := entryData{Modules: modules, MenuTemplate: menuTemplate, Menu: menu}
	if err := entryTmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("failed to render entry module: %w", err)
	}
	return b.String(), nil
}

// HeaderOptions are the userscript manifest directives
type HeaderOptions struct {
	Name        string
	Namespace   string
	Version     string
	Description string
	Author      string
	Match       []string
	Grants      []string
	RunAt       string
	UpdateURL   string
}

// GenerateHeader renders the ==UserScript== block, terminated by a newline
func GenerateHeader(opts HeaderOptions) (string, error) {
	if opts.RunAt == "" {
		opts.RunAt = "document-start"
	}

	var b strings.Builder
	if err := headerTmpl.Execute(&b, opts); err != nil {
		return "", fmt.Errorf("failed to render userscript header: %w", err)
	}
	return strings.TrimRight(b.String(), "\n") + "\n", nil
}

func toJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// singleLine keeps a directive value on its own line
func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
