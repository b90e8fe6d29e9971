package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DarrenDanielDay/esbuild-plugin-global-api/globals"
	"github.com/DarrenDanielDay/esbuild-plugin-global-api/proxy"
)

func TestParse_ListForm(t *testing.T) {
	cfg, platform, err := Parse([]byte(`
platform: browser
constructors: [Promise, Object]
vars: [console]
`))
	require.NoError(t, err)
	assert.Equal(t, "browser", platform)
	assert.Equal(t, []string{"Promise", "Object"}, cfg.Constructors.Names)
	assert.Equal(t, []string{"console"}, cfg.Vars.Names)
	assert.Nil(t, cfg.Pure)
	assert.Nil(t, cfg.Bind)
}

func TestParse_Toggles(t *testing.T) {
	cfg, _, err := Parse([]byte("pure: false\nbind: false\n"))
	require.NoError(t, err)
	require.NotNil(t, cfg.Pure)
	require.NotNil(t, cfg.Bind)
	assert.False(t, *cfg.Pure)
	assert.False(t, *cfg.Bind)
}

func TestParse_MappingForm(t *testing.T) {
	cfg, _, err := Parse([]byte(`
vars:
  console:
    code: "// shim"
    applyTo:
      include: ["*src*"]
      exclude: ["*generated*"]
`))
	require.NoError(t, err)
	require.Contains(t, cfg.Vars.Entries, "console")

	entry := cfg.Vars.Entries["console"]
	assert.Equal(t, "// shim", entry.Code)
	require.NotNil(t, entry.ApplyTo)
	assert.True(t, entry.ApplyTo("/project/src/app.js"))
	assert.False(t, entry.ApplyTo("/project/src/generated/app.js"))
	assert.False(t, entry.ApplyTo("/project/vendor/app.js"))
}

func TestParse_RuleNoop(t *testing.T) {
	cfg, _, err := Parse([]byte(`
vars:
  console:
    rule: noop
`))
	require.NoError(t, err)
	assert.Equal(t, globals.Rule(globals.Noop{}), cfg.Vars.Entries["console"].Rule)
}

func TestParse_RuleObjectPreservesMemberOrder(t *testing.T) {
	cfg, _, err := Parse([]byte(`
lib:
  logger:
    rule:
      type: object
      members:
        warn: func-bind
        info: func-bind
        level: property
        NAME: constant
`))
	require.NoError(t, err)

	rule := cfg.Lib["logger"].Rule
	direct, ok := rule.(globals.Direct)
	require.True(t, ok)
	assert.Equal(t, globals.ObjectNode, direct.Node.Kind)
	assert.Equal(t, []globals.Member{
		{Name: "warn", Kind: globals.FuncBind},
		{Name: "info", Kind: globals.FuncBind},
		{Name: "level", Kind: globals.Property},
		{Name: "NAME", Kind: globals.Constant},
	}, direct.Node.Members)
}

func TestParse_RuleFunc(t *testing.T) {
	cfg, _, err := Parse([]byte(`
lib:
  track:
    rule:
      type: func
`))
	require.NoError(t, err)
	direct := cfg.Lib["track"].Rule.(globals.Direct)
	assert.Equal(t, globals.FuncNode, direct.Node.Kind)
}

func TestParse_RulePlatform(t *testing.T) {
	cfg, _, err := Parse([]byte(`
lib:
  bridge:
    rule:
      type: platform
      diffs:
        node:
          type: object
          members:
            send: func-bind
        browser: noop
`))
	require.NoError(t, err)

	diff, ok := cfg.Lib["bridge"].Rule.(globals.PlatformDiff)
	require.True(t, ok)
	_, isNoop := diff.Diffs["browser"].(globals.Noop)
	assert.True(t, isNoop)
	node := diff.Diffs["node"].(globals.Direct).Node
	assert.Equal(t, []globals.Member{{Name: "send", Kind: globals.FuncBind}}, node.Members)
}

func TestParse_RuleErrors(t *testing.T) {
	_, _, err := Parse([]byte("lib:\n  x:\n    rule: bogus\n"))
	assert.Error(t, err)

	_, _, err = Parse([]byte(`
lib:
  x:
    rule:
      type: spaceship
`))
	assert.Error(t, err)

	_, _, err = Parse([]byte(`
lib:
  x:
    rule:
      type: object
      members:
        a: sometimes
`))
	assert.Error(t, err)

	_, _, err = Parse([]byte(`
lib:
  x:
    rule:
      type: platform
      diffs:
        node:
          type: platform
          diffs: {}
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nest")
}

func TestParse_InvalidGlobFails(t *testing.T) {
	_, _, err := Parse([]byte(`
vars:
  console:
    applyTo:
      include: ["[unclosed"]
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "glob")
}

// A parsed file must flow end to end: into resolution and synthesis.
func TestParse_IntoMapping(t *testing.T) {
	cfg, platform, err := Parse([]byte(`
platform: node
vars: [console]
lib:
  logger:
    code: "const tag = \"[app]\";"
    rule:
      type: object
      members:
        print: func-bind
`))
	require.NoError(t, err)

	m, err := proxy.NewMapping(cfg, platform)
	require.NoError(t, err)
	assert.Equal(t, []string{"console", "logger"}, m.Names())

	entry, ok := m.Get("logger")
	require.True(t, ok)
	assert.Contains(t, entry.ExportsScript, "const tag = \"[app]\";")
	assert.Contains(t, entry.ExportsScript, "logger.print.bind(logger)")
}

func TestLoad_MissingFile(t *testing.T) {
	_, _, err := Load("/does/not/exist.yml")
	assert.Error(t, err)
}
