// Package templates scaffolds projects and scripts from embedded templates
package templates

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"text/template"
)

//go:embed files
var filesFS embed.FS

// ErrExists is returned when a scaffold would overwrite a file
var ErrExists = errors.New("file already exists")

// ScriptData is passed to the script templates
type ScriptData struct {
	Name        string
	Description string
	Version     string
	Host        string // empty for generic scripts
}

// Generic reports whether the script is a generic one
func (d ScriptData) Generic() bool {
	return d.Host == ""
}

var slugChars = regexp.MustCompile(`[^a-z0-9]+`)

// Slug is the kebab-case form of Name
func (d ScriptData) Slug() string {
	return strings.Trim(slugChars.ReplaceAllString(strings.ToLower(d.Name), "-"), "-")
}

// FileName is the script file name derived from Name
func (d ScriptData) FileName(ext string) string {
	slug := d.Slug()
	if slug == "" {
		slug = "script"
	}
	return slug + ext
}

// RenderScript renders a new effect script
func RenderScript(data ScriptData) (string, error) {
	name := "files/scripts/site.ts.tmpl"
	if data.Generic() {
		name = "files/scripts/generic.ts.tmpl"
	}
	if data.Version == "" {
		data.Version = "1.0.0"
	}
	return render(name, data)
}

// ProjectData is passed to the project templates
type ProjectData struct {
	ProjectName string
	CommonDir   string // $common alias target, relative to the project
	SitesDir    string // $sites alias target, omitted when empty
	OutputDir   string
	ScratchDir  string
}

// GenerateProject writes the project skeleton under projectPath. Existing
// files are kept unless force is set. It returns the files written.
func GenerateProject(projectPath string, data ProjectData, force bool) ([]string, error) {
	var written []string

	err := fs.WalkDir(filesFS, "files/project", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(p, ".tmpl") {
			return nil
		}

		rel := strings.TrimSuffix(strings.TrimPrefix(p, "files/project/"), ".tmpl")
		if path.Base(rel) == "gitignore" {
			rel = path.Join(path.Dir(rel), ".gitignore")
		}
		if strings.HasPrefix(rel, "src/common/") && data.CommonDir != "" {
			rel = path.Join(data.CommonDir, strings.TrimPrefix(rel, "src/common/"))
		}
		out := filepath.Join(projectPath, filepath.FromSlash(rel))

		if !force {
			if _, err := os.Stat(out); err == nil {
				return nil
			}
		}

		content, err := render(p, data)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", filepath.Dir(out), err)
		}
		if err := os.WriteFile(out, []byte(content), 0644); err != nil {
			return fmt.Errorf("failed to create file %s: %w", out, err)
		}

		written = append(written, rel)
		return nil
	})

	return written, err
}

// WriteScript renders data into dir, refusing to overwrite an existing file
func WriteScript(dir string, data ScriptData, ext string) (string, error) {
	content, err := RenderScript(data)
	if err != nil {
		return "", err
	}

	out := filepath.Join(dir, data.FileName(ext))
	if _, err := os.Stat(out); err == nil {
		return "", fmt.Errorf("%s: %w", out, ErrExists)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	if err := os.WriteFile(out, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("failed to create file %s: %w", out, err)
	}
	return out, nil
}

// ListTemplates returns all embedded template files
func ListTemplates() ([]string, error) {
	var files []string
	err := fs.WalkDir(filesFS, "files", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".tmpl") {
			files = append(files, strings.TrimPrefix(p, "files/"))
		}
		return nil
	})
	return files, err
}

func render(name string, data any) (string, error) {
	content, err := filesFS.ReadFile(name)
	if err != nil {
		return "", fmt.Errorf("failed to read template %s: %w", name, err)
	}

	tmpl, err := template.New(path.Base(name)).Parse(string(content))
	if err != nil {
		return "", fmt.Errorf("failed to parse template %s: %w", name, err)
	}

	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", name, err)
	}
	return b.String(), nil
}
