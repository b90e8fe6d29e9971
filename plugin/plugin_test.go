package plugin

import (
	"io"
	"log/slog"
	"testing"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DarrenDanielDay/esbuild-plugin-global-api/proxy"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testSession(t *testing.T, cfg proxy.Config, fs billy.Filesystem, platform string) *session {
	t.Helper()
	cfg.Logger = discardLogger()
	sess, err := newSession(cfg, settings{
		fs:        fs,
		logger:    cfg.Logger,
		cacheSize: 8,
	}, platform)
	require.NoError(t, err)
	return sess
}

func writeFile(t *testing.T, fs billy.Filesystem, path, contents string) {
	t.Helper()
	require.NoError(t, util.WriteFile(fs, path, []byte(contents), 0o644))
}

func TestLoaderForPath(t *testing.T) {
	cases := []struct {
		path   string
		loader api.Loader
		ok     bool
	}{
		{"/src/app.js", api.LoaderJS, true},
		{"/src/app.mjs", api.LoaderJS, true},
		{"/src/app.cjs", api.LoaderJS, true},
		{"/src/view.jsx", api.LoaderJSX, true},
		{"/src/app.ts", api.LoaderTS, true},
		{"/src/app.mts", api.LoaderTS, true},
		{"/src/app.cts", api.LoaderTS, true},
		{"/src/view.tsx", api.LoaderTSX, true},
		{"/src/data.json", api.LoaderNone, false},
		{"/src/style.css", api.LoaderNone, false},
		{"/src/logo.svg", api.LoaderNone, false},
		{"/src/Makefile", api.LoaderNone, false},
	}
	for _, tc := range cases {
		loader, ok := loaderForPath(tc.path)
		assert.Equal(t, tc.ok, ok, tc.path)
		assert.Equal(t, tc.loader, loader, tc.path)
	}
}

func TestPlatformName(t *testing.T) {
	assert.Equal(t, "browser", platformName(api.PlatformBrowser))
	assert.Equal(t, "node", platformName(api.PlatformNode))
	assert.Equal(t, "node", platformName(api.PlatformNeutral))
	assert.Equal(t, "node", platformName(api.PlatformDefault))
}

func TestNew_FailsFastOnConfigError(t *testing.T) {
	cfg := proxy.Config{
		Logger: discardLogger(),
		Lib:    map[string]proxy.NamespaceConfig{"mystery": {}},
	}
	_, err := New(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mystery")
}

func TestResolveProxy_ReclassifiesIntoNamespace(t *testing.T) {
	sess := testSession(t, proxy.Config{Vars: proxy.Group{Names: []string{"console"}}}, memfs.New(), "node")
	result, err := sess.resolveProxy(api.OnResolveArgs{Path: proxy.Prefix + "console"})
	require.NoError(t, err)
	assert.Equal(t, proxy.Prefix+"console", result.Path)
	assert.Equal(t, Namespace, result.Namespace)
}

func TestLoadProxy_ServesSynthesizedModule(t *testing.T) {
	sess := testSession(t, proxy.Config{Vars: proxy.Group{Names: []string{"console"}}}, memfs.New(), "node")
	result, err := sess.loadProxy(api.OnLoadArgs{Path: proxy.Prefix + "console", Namespace: Namespace})
	require.NoError(t, err)
	require.NotNil(t, result.Contents)
	assert.Equal(t, api.LoaderJS, result.Loader)
	assert.Contains(t, *result.Contents, "console.log.bind(console)")
}

func TestLoadProxy_MissIsFatal(t *testing.T) {
	sess := testSession(t, proxy.Config{Vars: proxy.Group{Names: []string{"console"}}}, memfs.New(), "node")
	_, err := sess.loadProxy(api.OnLoadArgs{Path: proxy.Prefix + "document", Namespace: Namespace})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "document")
}

func TestLoadFile_PrependsImports(t *testing.T) {
	fs := memfs.New()
	source := "console.log(\"a\");\nconsole.log(\"b\");\n"
	writeFile(t, fs, "/src/app.js", source)

	sess := testSession(t, proxy.Config{Vars: proxy.Group{Names: []string{"console"}}}, fs, "node")
	result, err := sess.loadFile(api.OnLoadArgs{Path: "/src/app.js"})
	require.NoError(t, err)
	require.NotNil(t, result.Contents)
	assert.Equal(t, api.LoaderJS, result.Loader)

	want := `import * as console from "global-api-proxy:console";` + "\n" + source
	assert.Equal(t, want, *result.Contents)
}

func TestLoadFile_SelectsLoaderByExtension(t *testing.T) {
	fs := memfs.New()
	writeFile(t, fs, "/src/view.tsx", "console.log(1);\n")

	sess := testSession(t, proxy.Config{Vars: proxy.Group{Names: []string{"console"}}}, fs, "node")
	result, err := sess.loadFile(api.OnLoadArgs{Path: "/src/view.tsx"})
	require.NoError(t, err)
	require.NotNil(t, result.Contents)
	assert.Equal(t, api.LoaderTSX, result.Loader)
}

// Files no namespace applies to pass through untouched: a nil Contents
// result tells esbuild to use its default handling.
func TestLoadFile_DeclinesUnmatchedPath(t *testing.T) {
	fs := memfs.New()
	writeFile(t, fs, "/src/node_modules/dep/index.js", "module.exports = 1;\n")

	sess := testSession(t, proxy.Config{Vars: proxy.Group{Names: []string{"console"}}}, fs, "node")
	result, err := sess.loadFile(api.OnLoadArgs{Path: "/src/node_modules/dep/index.js"})
	require.NoError(t, err)
	assert.Nil(t, result.Contents)
}

// Non-script assets are never transformed even when a namespace
// matches the path: prepending imports would corrupt them.
func TestLoadFile_DeclinesNonScriptAssets(t *testing.T) {
	fs := memfs.New()
	writeFile(t, fs, "/src/data.json", "{\"a\": 1}\n")

	sess := testSession(t, proxy.Config{Vars: proxy.Group{Names: []string{"console"}}}, fs, "node")
	result, err := sess.loadFile(api.OnLoadArgs{Path: "/src/data.json"})
	require.NoError(t, err)
	assert.Nil(t, result.Contents)
}

func TestLoadFile_MissingFileFails(t *testing.T) {
	sess := testSession(t, proxy.Config{Vars: proxy.Group{Names: []string{"console"}}}, memfs.New(), "node")
	_, err := sess.loadFile(api.OnLoadArgs{Path: "/src/gone.js"})
	require.Error(t, err)
}

func TestTransform_CacheInvalidatesOnChange(t *testing.T) {
	fs := memfs.New()
	writeFile(t, fs, "/src/app.js", "console.log(1);\n")

	sess := testSession(t, proxy.Config{Vars: proxy.Group{Names: []string{"console"}}}, fs, "node")

	first, err := sess.loadFile(api.OnLoadArgs{Path: "/src/app.js"})
	require.NoError(t, err)
	again, err := sess.loadFile(api.OnLoadArgs{Path: "/src/app.js"})
	require.NoError(t, err)
	assert.Equal(t, *first.Contents, *again.Contents)

	writeFile(t, fs, "/src/app.js", "console.log(1);console.log(2);\n")
	changed, err := sess.loadFile(api.OnLoadArgs{Path: "/src/app.js"})
	require.NoError(t, err)
	assert.Contains(t, *changed.Contents, "console.log(2)")
}

// Platform variants flow from the build options into synthesis: under
// browser, a node-only global collapses to its variable-only proxy.
func TestSession_PlatformConditionalGlobal(t *testing.T) {
	cfg := proxy.Config{Vars: proxy.Group{Names: []string{"process"}}}

	node := testSession(t, cfg, memfs.New(), "node")
	result, err := node.loadProxy(api.OnLoadArgs{Path: proxy.Prefix + "process", Namespace: Namespace})
	require.NoError(t, err)
	assert.Contains(t, *result.Contents, "process.cwd.bind(process)")

	browser := testSession(t, cfg, memfs.New(), "browser")
	result, err = browser.loadProxy(api.OnLoadArgs{Path: proxy.Prefix + "process", Namespace: Namespace})
	require.NoError(t, err)
	assert.Equal(t, "export const process = process;\n", *result.Contents)
}

func TestNew_BuildsPlugin(t *testing.T) {
	plug, err := New(proxy.Config{
		Vars:   proxy.Group{Names: []string{"console"}},
		Logger: discardLogger(),
	}, WithFS(memfs.New()), WithCacheSize(4))
	require.NoError(t, err)
	assert.Equal(t, Name, plug.Name)
	require.NotNil(t, plug.Setup)
}
