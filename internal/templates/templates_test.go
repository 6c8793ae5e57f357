package templates

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lineasoftware/boredom/internal/scripts/analyzer"
	"github.com/lineasoftware/boredom/internal/scripts/transformer"
	"github.com/lineasoftware/boredom/internal/scripts/types"
)

func TestScriptData(t *testing.T) {
	d := ScriptData{Name: "Hide Promoted Posts!", Host: "reddit.com"}
	assert.Equal(t, "hide-promoted-posts", d.Slug())
	assert.Equal(t, "hide-promoted-posts.ts", d.FileName(".ts"))
	assert.False(t, d.Generic())

	assert.Equal(t, "script.js", ScriptData{Name: "!!"}.FileName(".js"))
	assert.True(t, ScriptData{}.Generic())
}

func TestRenderScript(t *testing.T) {
	tests := []struct {
		name  string
		data  ScriptData
		async bool
	}{
		{"site", ScriptData{Name: "Hide Promoted", Description: "Hides promoted posts", Host: "reddit.com"}, true},
		{"generic", ScriptData{Name: "Grayscale", Description: "Grayscale media", Version: "0.2.0"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := RenderScript(tt.data)
			require.NoError(t, err)

			meta, err := analyzer.ExtractMetadata("x.ts", src)
			require.NoError(t, err)
			assert.Equal(t, tt.data.Name, meta.Name)
			assert.Equal(t, tt.data.Description, meta.Description)
			if tt.data.Version == "" {
				assert.Equal(t, "1.0.0", meta.Version)
			} else {
				assert.Equal(t, tt.data.Version, meta.Version)
			}

			m, err := transformer.Split("x.ts", src, "")
			require.NoError(t, err)
			assert.Equal(t, tt.async, m.Async)
			assert.Contains(t, m.Body, "data-boredom-"+tt.data.Slug())
		})
	}
}

func TestGenerateProject(t *testing.T) {
	dir := t.TempDir()
	data := ProjectData{ProjectName: "Fixture", CommonDir: "lib/common", SitesDir: "src/sites", OutputDir: "dist", ScratchDir: ".boredom"}

	written, err := GenerateProject(dir, data, false)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{".gitignore", "tsconfig.json", "src/boredom.d.ts", "lib/common/dom.ts"}, written)

	tsconfig, err := os.ReadFile(filepath.Join(dir, "tsconfig.json"))
	require.NoError(t, err)
	assert.Contains(t, string(tsconfig), `"$common/*": ["lib/common/*"],`)
	assert.Contains(t, string(tsconfig), `"$sites/*": ["src/sites/*"]`)

	gitignore, err := os.ReadFile(filepath.Join(dir, ".gitignore"))
	require.NoError(t, err)
	assert.Equal(t, "dist/\n.boredom/\nnode_modules/\n.env\n", string(gitignore))

	// existing files are kept
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tsconfig.json"), []byte("{}"), 0o644))
	written, err = GenerateProject(dir, data, false)
	require.NoError(t, err)
	assert.Empty(t, written)

	written, err = GenerateProject(dir, data, true)
	require.NoError(t, err)
	assert.Len(t, written, 4)
}

func TestWriteScript(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "com", "reddit")
	data := ScriptData{Name: "Hide", Description: "Hides things", Host: "reddit.com"}

	path, err := WriteScript(dir, data, ".ts")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "hide.ts"), path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	script, err := analyzer.AnalyzeSource(types.ScriptSource{RelPath: "com/reddit/hide.ts", Content: string(content)})
	require.NoError(t, err)
	assert.Equal(t, "reddit.com", script.Match.Host)

	_, err = WriteScript(dir, data, ".ts")
	assert.ErrorIs(t, err, ErrExists)
}

func TestListTemplates(t *testing.T) {
	files, err := ListTemplates()
	require.NoError(t, err)
	assert.Contains(t, files, "scripts/site.ts.tmpl")
	assert.Contains(t, files, "scripts/generic.ts.tmpl")
	assert.Contains(t, files, "project/gitignore.tmpl")
}
