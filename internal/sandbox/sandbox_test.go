package sandbox

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lineasoftware/boredom/internal/client"
)

const registrySource = `
var spy1 = 0, spy2 = 0;
var registry = [
	{id: "reddit1", type: "site", name: "Reddit", description: "Hides things", version: "1.0.0",
		matches: function (h) { return h.endsWith("reddit.com"); }, execute: function () { spy1++; }},
	{id: "gen1", type: "generic", name: "Gray", description: "Grayscale", version: "1.0.0",
		matches: function () { return false; }, execute: function () { spy2++; }},
];
`

// compileClient turns the runtime module into a script defining BoredomClient
func compileClient() (string, error) {
	result := api.Transform(client.Source(), api.TransformOptions{
		Loader:     api.LoaderJS,
		Format:     api.FormatIIFE,
		GlobalName: "BoredomClient",
		Target:     api.ES2020,
		LogLevel:   api.LogLevelSilent,
	})
	if len(result.Errors) > 0 {
		return "", fmt.Errorf("compile client runtime: %s", result.Errors[0].Text)
	}
	return string(result.Code), nil
}

const menuTemplate = "<style>.be-panel{display:none}</style>"

func loadClient(t *testing.T, opts Options) *Page {
	t.Helper()

	script, err := compileClient()
	require.NoError(t, err)

	page, err := NewPage(opts)
	require.NoError(t, err)
	t.Cleanup(page.Close)

	require.NoError(t, page.Exec("client.js", script))
	return page
}

func runMain(t *testing.T, page *Page) {
	t.Helper()
	require.NoError(t, page.Exec("registry.js", registrySource))
	require.NoError(t, page.Exec("main.js", `var handle = BoredomClient.main(registry, "`+menuTemplate+`", {version: "0.3.0"});`))
}

func eval(t *testing.T, page *Page, expr string) any {
	t.Helper()
	v, err := page.Eval(expr)
	require.NoError(t, err)
	return v
}

func shadow(expr string) string {
	return `document.getElementById("boredom-menu-host").shadowRoot.` + expr
}

func TestDefaultEnablement(t *testing.T) {
	page := loadClient(t, Options{Host: "www.reddit.com", BodyReady: true})
	runMain(t, page)

	assert.EqualValues(t, 1, eval(t, page, "spy1"))
	assert.EqualValues(t, 0, eval(t, page, "spy2"))

	report, err := page.Report()
	require.NoError(t, err)
	assert.Equal(t, []string{"reddit1"}, report.Executed)
	assert.Empty(t, report.Failed)
	assert.Equal(t, 1, report.MenuHosts)
	assert.Equal(t, "injected", report.MenuState)
	assert.Equal(t, "site", report.MenuTab)

	// one site row, enabled
	assert.EqualValues(t, 1, eval(t, page, shadow(`querySelectorAll(".be-item").length`)))
	assert.Equal(t, "Reddit", eval(t, page, shadow(`querySelector(".be-item-name").textContent`)))
	assert.Equal(t, true, eval(t, page, shadow(`querySelector("input").checked`)))

	// the generic tab lists the generic script switched off
	require.NoError(t, page.Exec("tab.js", shadow(`querySelectorAll(".be-tab")[1].click()`)))
	assert.EqualValues(t, 1, eval(t, page, shadow(`querySelectorAll(".be-item").length`)))
	assert.Equal(t, "Gray", eval(t, page, shadow(`querySelector(".be-item-name").textContent`)))
	assert.Equal(t, false, eval(t, page, shadow(`querySelector("input").checked`)))
	assert.Equal(t, true, eval(t, page, shadow(`querySelectorAll(".be-tab")[1].classList.contains("active")`)))

	report, err = page.Report()
	require.NoError(t, err)
	assert.Equal(t, "generic", report.MenuTab)
}

func TestExplicitOverride(t *testing.T) {
	page := loadClient(t, Options{
		Host:      "www.reddit.com",
		BodyReady: true,
		Storage:   map[string]string{"be_enabled_scripts": `{"reddit1": false, "gen1": true}`},
	})
	runMain(t, page)

	assert.EqualValues(t, 0, eval(t, page, "spy1"))
	assert.EqualValues(t, 1, eval(t, page, "spy2"))

	report, err := page.Report()
	require.NoError(t, err)
	assert.Equal(t, []string{"gen1"}, report.Executed)
	assert.Equal(t, false, eval(t, page, shadow(`querySelector("input").checked`)))
}

func TestNothingApplicable(t *testing.T) {
	page := loadClient(t, Options{Host: "example.org", BodyReady: true})
	require.NoError(t, page.Exec("main.js", `
		var ran = 0;
		var handle = BoredomClient.main([{id: "r", type: "site", name: "R", description: "", version: "1.0.0",
			matches: function (h) { return h === "reddit.com"; }, execute: function () { ran++; }}], "");
	`))

	assert.EqualValues(t, 0, eval(t, page, "ran"))
	assert.Nil(t, eval(t, page, "handle"))

	report, err := page.Report()
	require.NoError(t, err)
	assert.Zero(t, report.MenuHosts)
	assert.Equal(t, "uninjected", report.MenuState)
}

func TestCorruptStorageFallsBackToDefaults(t *testing.T) {
	page := loadClient(t, Options{
		Host:      "reddit.com",
		BodyReady: true,
		Storage:   map[string]string{"be_enabled_scripts": "{not json"},
	})
	runMain(t, page)

	assert.EqualValues(t, 1, eval(t, page, "spy1"))
	assert.EqualValues(t, 0, eval(t, page, "spy2"))

	report, err := page.Report()
	require.NoError(t, err)
	var errorsLogged int
	for _, entry := range report.Logs {
		if entry.Level == "error" {
			errorsLogged++
		}
	}
	assert.Equal(t, 1, errorsLogged)
}

func TestFailingScriptDoesNotStopOthers(t *testing.T) {
	page := loadClient(t, Options{Host: "reddit.com", BodyReady: true})
	require.NoError(t, page.Exec("main.js", `
		var order = [];
		var site = function (id, fn) {
			return {id: id, type: "site", name: id, description: "", version: "1.0.0",
				matches: function () { return true; }, execute: fn};
		};
		BoredomClient.main([
			site("boom", function () { order.push("boom"); throw new Error("kaput"); }),
			site("async", function () { order.push("async"); return Promise.reject(new Error("later")); }),
			site("ok", function () { order.push("ok"); }),
		], "");
	`))

	assert.Equal(t, []any{"boom", "async", "ok"}, eval(t, page, "order"))

	report, err := page.Report()
	require.NoError(t, err)
	assert.Equal(t, []string{"async", "ok"}, report.Executed)
	assert.ElementsMatch(t, []string{"boom", "async"}, report.Failed)
	assert.Equal(t, 1, report.MenuHosts)
}

func TestExecutionFollowsRegistryOrder(t *testing.T) {
	page := loadClient(t, Options{
		Host:      "www.reddit.com",
		BodyReady: true,
		Storage:   map[string]string{"be_enabled_scripts": `{"gen-a": true, "gen-b": true}`},
	})
	require.NoError(t, page.Exec("main.js", `
		var order = [];
		var script = function (id, type, host) {
			return {id: id, type: type, name: id, description: "", version: "1.0.0",
				matches: function (h) { return h === host; },
				execute: function () { order.push(id); }};
		};
		BoredomClient.main([
			script("gen-a", "generic", ""),
			script("site-a", "site", "www.reddit.com"),
			script("site-skip", "site", "twitch.tv"),
			script("gen-b", "generic", ""),
			script("site-b", "site", "www.reddit.com"),
		], "");
	`))

	assert.Equal(t, []any{"gen-a", "site-a", "gen-b", "site-b"}, eval(t, page, "order"))

	report, err := page.Report()
	require.NoError(t, err)
	assert.Equal(t, []string{"gen-a", "site-a", "gen-b", "site-b"}, report.Executed)
}

func TestMenuInjectionIsIdempotent(t *testing.T) {
	page := loadClient(t, Options{Host: "reddit.com", BodyReady: true})
	runMain(t, page)

	assert.Equal(t, false, eval(t, page, "handle.menu.inject()"))

	// a second runtime on the same page leaves the existing menu alone
	require.NoError(t, page.Exec("again.js", `var second = BoredomClient.main(registry, "");`))
	assert.Equal(t, false, eval(t, page, "second.menu.inject()"))

	report, err := page.Report()
	require.NoError(t, err)
	assert.Equal(t, 1, report.MenuHosts)
}

func TestMenuWaitsForBody(t *testing.T) {
	page := loadClient(t, Options{Host: "reddit.com"})
	runMain(t, page)

	assert.EqualValues(t, 1, eval(t, page, "spy1"))
	assert.Equal(t, "uninjected", eval(t, page, "handle.menu.state"))

	report, err := page.Report()
	require.NoError(t, err)
	assert.Zero(t, report.MenuHosts)

	require.NoError(t, page.Ready())

	report, err = page.Report()
	require.NoError(t, err)
	assert.Equal(t, 1, report.MenuHosts)
	assert.Equal(t, "injected", report.MenuState)
	assert.EqualValues(t, 1, eval(t, page, "spy1"))
}

func TestSaveAndReload(t *testing.T) {
	page := loadClient(t, Options{Host: "reddit.com", BodyReady: true})
	runMain(t, page)

	require.NoError(t, page.Exec("toggle.js", shadow(`querySelector("input").click()`)))

	report, err := page.Report()
	require.NoError(t, err)
	assert.Empty(t, report.Storage, "toggling must not persist")
	assert.Zero(t, report.Reloads)

	require.NoError(t, page.Exec("save.js", shadow(`getElementById("save-btn").click()`)))

	report, err = page.Report()
	require.NoError(t, err)
	assert.JSONEq(t, `{"reddit1": false}`, report.Storage["be_enabled_scripts"])
	assert.Equal(t, 1, report.Reloads)
}

func TestTabsHiddenWithSinglePartition(t *testing.T) {
	page := loadClient(t, Options{Host: "reddit.com", BodyReady: true})
	require.NoError(t, page.Exec("main.js", `
		BoredomClient.main([{id: "g", type: "generic", name: "G", description: "", version: "1.0.0",
			matches: function () { return false; }, execute: function () {}}], "");
	`))

	assert.Equal(t, true, eval(t, page, shadow(`querySelector(".be-tabs").hidden`)))

	report, err := page.Report()
	require.NoError(t, err)
	assert.Equal(t, "generic", report.MenuTab)
}

func TestContextFlags(t *testing.T) {
	page := loadClient(t, Options{Host: "reddit.com", BodyReady: true})

	assert.Equal(t, []any{true, false, true, true}, eval(t, page, `(function () {
		var ctx = BoredomClient.createContext();
		var first = ctx.claim("captchaActive");
		var second = ctx.claim("captchaActive");
		var active = ctx.isActive("captchaActive");
		ctx.release("captchaActive");
		return [first, second, active, ctx.claim("captchaActive")];
	})()`))

	_, err := page.Eval(`BoredomClient.createContext().claim("nope")`)
	assert.ErrorContains(t, err, "unknown context flag")
}

func TestContextWaitFor(t *testing.T) {
	page := loadClient(t, Options{Host: "reddit.com", BodyReady: true})

	require.NoError(t, page.Exec("wait.js", `
		var found = "pending", exhausted = "pending";
		var ctx = BoredomClient.createContext();
		setTimeout(function () {
			var el = document.createElement("div");
			el.id = "late";
			document.body.appendChild(el);
		}, 15);
		ctx.waitFor("#late", {maxAttempts: 20, delayMs: 5}).then(function (el) { found = el && el.id; });
		ctx.waitFor("#never", {maxAttempts: 3, delayMs: 1}).then(function (el) { exhausted = el; });
	`))

	require.NoError(t, page.Settle(context.Background(), 300*time.Millisecond))

	assert.Equal(t, "late", eval(t, page, "found"))
	assert.Nil(t, eval(t, page, "exhausted"))
}

func TestScriptsReceiveSharedContext(t *testing.T) {
	page := loadClient(t, Options{Host: "reddit.com", BodyReady: true})
	require.NoError(t, page.Exec("main.js", `
		var seen = [];
		var site = function (id) {
			return {id: id, type: "site", name: id, description: "", version: "1.0.0",
				matches: function () { return true; },
				execute: function (ctx) { seen.push(ctx.claim("bufferingActive")); }};
		};
		BoredomClient.main([site("a"), site("b")], "");
	`))

	assert.Equal(t, []any{true, false}, eval(t, page, "seen"))
}

func TestSimulate(t *testing.T) {
	script, err := compileClient()
	require.NoError(t, err)

	bundle := script + registrySource + `BoredomClient.main(registry, "");`

	report, err := Simulate(context.Background(), bundle, Options{Host: "old.reddit.com"}, 10*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, []string{"reddit1"}, report.Executed)
	assert.Equal(t, 1, report.MenuHosts)

	_, err = Simulate(context.Background(), "throw new Error('bad bundle')", Options{Host: "reddit.com"}, 0)
	assert.ErrorContains(t, err, "bad bundle")
}

func TestNewPageRequiresHost(t *testing.T) {
	_, err := NewPage(Options{})
	assert.Error(t, err)
}

func TestClosedPage(t *testing.T) {
	page, err := NewPage(Options{Host: "reddit.com"})
	require.NoError(t, err)
	page.Close()
	page.Close()

	assert.ErrorIs(t, page.Exec("x.js", "1"), ErrClosed)
}
