package generator

import (
	"strings"
	"testing"

	"github.com/kinbiko/jsonassert"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lineasoftware/boredom/internal/scripts/types"
)

func script(rel string, typ types.ScriptType, name string) types.Script {
	return types.Script{
		ID:       rel,
		Type:     typ,
		Source:   types.ScriptSource{RelPath: rel},
		Metadata: types.Metadata{Name: name, Description: name + " description", Version: "1.0.0"},
	}
}

func TestModuleFileName(t *testing.T) {
	tests := []struct {
		index int
		rel   string
		want  string
	}{
		{0, "com/reddit/hide.ts", "s000_com_reddit_hide.ts"},
		{12, "generic/media-grayscale.js", "s012_generic_media_grayscale.js"},
		{3, "com/google/maps/x.y.ts", "s003_com_google_maps_x_y.ts"},
		{4, "tv/twitch/noext", "s004_tv_twitch_noext.js"},
	}

	for _, tt := range tests {
		t.Run(tt.rel, func(t *testing.T) {
			assert.Equal(t, tt.want, ModuleFileName(tt.index, tt.rel))
		})
	}
}

func TestModuleFileNamesDoNotCollide(t *testing.T) {
	files := NewModuleFiles([]types.Script{
		script("com/a-b/x.ts", types.ScriptTypeSite, "one"),
		script("com/a_b/x.ts", types.ScriptTypeSite, "two"),
	})

	require.Len(t, files, 2)
	assert.NotEqual(t, files[0].FileName, files[1].FileName)
}

func TestGenerateEntry(t *testing.T) {
	modules := NewModuleFiles([]types.Script{
		script("com/reddit/hide.ts", types.ScriptTypeSite, "Hide"),
		script("generic/gray.ts", types.ScriptTypeGeneric, "Gray"),
	})

	out, err := GenerateEntry(modules, "<style>.x{}</style>", MenuOptions{Title: "Boredom Engine", Version: "0.3.0"})
	require.NoError(t, err)

	expected := `import { main } from "./client.js";
import * as s0 from "./s000_com_reddit_hide.ts";
import * as s1 from "./s001_generic_gray.ts";

const registry = [
	{
		id: "com/reddit/hide.ts",
		type: "site",
		name: s0.metadata.name,
		description: s0.metadata.description,
		version: s0.metadata.version,
		matches: s0.matchCondition,
		execute: s0.default,
	},
	{
		id: "generic/gray.ts",
		type: "generic",
		name: s1.metadata.name,
		description: s1.metadata.description,
		version: s1.metadata.version,
		matches: s1.matchCondition,
		execute: s1.default,
	},
];

main(registry, "\u003cstyle\u003e.x{}\u003c/style\u003e", {"title":"Boredom Engine","version":"0.3.0"});
`
	assert.Equal(t, expected, out)
}

func TestGenerateEntryIsDeterministic(t *testing.T) {
	modules := NewModuleFiles([]types.Script{script("com/reddit/hide.ts", types.ScriptTypeSite, "Hide")})

	first, err := GenerateEntry(modules, "menu", MenuOptions{})
	require.NoError(t, err)
	second, err := GenerateEntry(modules, "menu", MenuOptions{})
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestGenerateEntryEscapesMenuTemplate(t *testing.T) {
	out, err := GenerateEntry(nil, "a `b` ${c} \"d\"\n", MenuOptions{})
	require.NoError(t, err)

	assert.Contains(t, out, "const registry = [\n];")
	assert.Contains(t, out, "main(registry, \"a `b` ${c} \\\"d\\\"\\n\", {});")
}

func TestGenerateHeader(t *testing.T) {
	out, err := GenerateHeader(HeaderOptions{
		Name:        "Boredom Engine",
		Namespace:   "http://tampermonkey.net/",
		Version:     "0.3.0",
		Description: "Boredom Engine Scripts",
		Author:      "LineaSoftware",
		Match:       []string{"*://*/*"},
		Grants:      []string{"GM_addStyle", "GM_getValue"},
	})
	require.NoError(t, err)

	expected := `// ==UserScript==
// @name         Boredom Engine
// @namespace    http://tampermonkey.net/
// @version      0.3.0
// @description  Boredom Engine Scripts
// @author       LineaSoftware
// @match        *://*/*
// @grant        GM_addStyle
// @grant        GM_getValue
// @run-at       document-start
// ==/UserScript==
`
	assert.Equal(t, expected, out)
}

func TestGenerateHeaderKeepsDirectivesOnOneLine(t *testing.T) {
	out, err := GenerateHeader(HeaderOptions{
		Name:        "Evil\n// @grant unsafeWindow",
		Version:     "1.0.0",
		Description: "multi\r\nline",
		UpdateURL:   "http://localhost:3000/boredom.user.js",
	})
	require.NoError(t, err)

	assert.Contains(t, out, "// @name         Evil // @grant unsafeWindow\n")
	assert.Contains(t, out, "// @description  multi line\n")
	assert.Contains(t, out, "// @updateURL    http://localhost:3000/boredom.user.js\n")
	assert.Contains(t, out, "// @downloadURL  http://localhost:3000/boredom.user.js\n")
	assert.NotContains(t, out, "@author")
	assert.Equal(t, 1, strings.Count(out, "@grant"))
}

func TestBuildSiteData(t *testing.T) {
	data, err := BuildSiteData("boredom-engine", "", []types.Script{
		script("com/reddit/hide.ts", types.ScriptTypeSite, "Hide"),
		script("com/google/maps/pin.ts", types.ScriptTypeSite, "Pin"),
		script("com/google/alpha.ts", types.ScriptTypeSite, "Alpha"),
		script("generic/gray.ts", types.ScriptTypeGeneric, "Gray"),
	})
	require.NoError(t, err)

	out, err := data.Marshal()
	require.NoError(t, err)

	jsonassert.New(t).Assertf(string(out), `{
		"projectName": "boredom-engine",
		"license": "MIT",
		"sites": {
			"com": {
				"scripts": [],
				"children": {
					"reddit": {
						"scripts": [{"path": "com/reddit/hide.js", "name": "Hide", "description": "Hide description", "version": "1.0.0"}],
						"children": {}
					},
					"google": {
						"scripts": [{"path": "com/google/alpha.js", "name": "Alpha", "description": "Alpha description", "version": "1.0.0"}],
						"children": {
							"maps": {
								"scripts": [{"path": "com/google/maps/pin.js", "name": "Pin", "description": "Pin description", "version": "1.0.0"}],
								"children": {}
							}
						}
					}
				}
			},
			"generic": {
				"scripts": [{"path": "generic/gray.js", "name": "Gray", "description": "Gray description", "version": "1.0.0"}],
				"children": {}
			}
		}
	}`)
}

func TestBuildSiteDataRejectsRootScripts(t *testing.T) {
	_, err := BuildSiteData("p", "MIT", []types.Script{script("loose.ts", types.ScriptTypeSite, "Loose")})
	assert.ErrorIs(t, err, types.ErrNoHostSegments)
}
