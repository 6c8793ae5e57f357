package client

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrepareMenu(t *testing.T) {
	template := `<style>
  .be-panel { display: none; }
</style>
<div class="be-container"><p>preview</p></div>
<style>.be-fab { color: #ffffff; }</style>`

	out, err := PrepareMenu(template, true)
	require.NoError(t, err)
	assert.Equal(t, "<style>.be-panel{display:none}\n.be-fab{color:#fff}</style>", out)

	out, err = PrepareMenu(template, false)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "<style>.be-panel { display: none; }\n"))
	assert.NotContains(t, out, "preview")
}

func TestPrepareMenuRequiresStyles(t *testing.T) {
	_, err := PrepareMenu("<div>no styles</div>", true)
	assert.ErrorIs(t, err, ErrNoStyles)
}

func TestPrepareDefaultMenu(t *testing.T) {
	out, err := PrepareMenu(DefaultMenu(), true)
	require.NoError(t, err)

	for _, class := range []string{".be-panel", ".be-fab", ".be-tab", ".be-item", ".be-switch", ".be-slider", ".be-empty", ".be-btn"} {
		assert.Contains(t, out, class)
	}
	assert.NotContains(t, out, "<div")
}

func TestLoadMenu(t *testing.T) {
	menu, err := LoadMenu("")
	require.NoError(t, err)
	assert.Equal(t, DefaultMenu(), menu)

	path := filepath.Join(t.TempDir(), "menu.html")
	require.NoError(t, os.WriteFile(path, []byte("<style>a{}</style>"), 0644))
	menu, err = LoadMenu(path)
	require.NoError(t, err)
	assert.Equal(t, "<style>a{}</style>", menu)

	_, err = LoadMenu(filepath.Join(t.TempDir(), "missing.html"))
	assert.ErrorContains(t, err, "failed to read menu template")
}

func TestSource(t *testing.T) {
	assert.Contains(t, Source(), "export function main(registry, menuHtml, options)")
	assert.Contains(t, Source(), `"be_enabled_scripts"`)
}

func TestStorageKey(t *testing.T) {
	assert.Contains(t, Source(), `export const STORAGE_KEY = "`+StorageKey+`";`)
}
