package bundler

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestParseTarget(t *testing.T) {
	target, err := ParseTarget("")
	require.NoError(t, err)
	assert.Equal(t, api.ES2020, target)

	target, err = ParseTarget("ESNext")
	require.NoError(t, err)
	assert.Equal(t, api.ESNext, target)

	_, err = ParseTarget("es3")
	assert.ErrorContains(t, err, "unknown target")
}

func TestBundleResolvesAliases(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "common", "index.ts"), "export const greet = (n: string): string => `hi ${n}`;\n")
	writeFile(t, filepath.Join(dir, "scratch", "entry.js"), "import { greet } from \"$common\";\nglobalThis.result = greet(\"x\");\n")

	outputs, err := New().Bundle(Options{
		EntryPoints: []string{filepath.Join(dir, "scratch", "entry.js")},
		WorkingDir:  dir,
		Aliases:     map[string]string{"$common": filepath.Join(dir, "common", "index.ts")},
	})
	require.NoError(t, err)
	require.Len(t, outputs, 1)

	code := string(outputs[0].Contents)
	assert.Contains(t, code, "hi ${n}")
	assert.Contains(t, code, "globalThis.result")
	assert.Empty(t, outputs[0].Path)
}

func TestBundleReportsErrors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "entry.js"), "import { missing } from \"./nowhere\";\nmissing();\n")

	_, err := New().Bundle(Options{
		EntryPoints: []string{filepath.Join(dir, "entry.js")},
		WorkingDir:  dir,
	})

	var bundleErr *BundleError
	require.ErrorAs(t, err, &bundleErr)
	require.NotEmpty(t, bundleErr.Messages)
	assert.Contains(t, bundleErr.Messages[0], "nowhere")
}

func TestBundleMultipleEntries(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	writeFile(t, filepath.Join(src, "com", "reddit", "a.ts"), "console.log('a');\n")
	writeFile(t, filepath.Join(src, "generic", "b.ts"), "console.log('b');\n")

	outputs, err := New().Bundle(Options{
		EntryPoints: []string{filepath.Join(src, "com", "reddit", "a.ts"), filepath.Join(src, "generic", "b.ts")},
		WorkingDir:  dir,
		OutDir:      filepath.Join(dir, "dist"),
		OutBase:     src,
		Minify:      true,
	})
	require.NoError(t, err)
	require.Len(t, outputs, 2)

	paths := []string{outputs[0].Path, outputs[1].Path}
	assert.ElementsMatch(t, []string{
		filepath.Join(dir, "dist", "com", "reddit", "a.js"),
		filepath.Join(dir, "dist", "generic", "b.js"),
	}, paths)
}

func TestBundleWithoutEntryPoints(t *testing.T) {
	_, err := New().Bundle(Options{})
	assert.Error(t, err)
}

func TestMinifyCSS(t *testing.T) {
	out, err := MinifyCSS(".be-panel {\n  display: none;\n}\n\n.be-panel.open {\n  display: block;\n}\n")
	require.NoError(t, err)
	assert.Equal(t, ".be-panel{display:none}.be-panel.open{display:block}", out)
}
