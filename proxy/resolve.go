// Package proxy resolves plugin configuration into one normalized rule
// per global namespace and synthesizes the proxy-module script
// fragments for each. Resolution and synthesis are pure: the same
// configuration and platform always produce the same mapping, and a
// mapping never changes after it is built.
package proxy

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/DarrenDanielDay/esbuild-plugin-global-api/globals"
	"github.com/gobwas/glob"
)

// ApplyTo decides whether a real file path receives a namespace's
// proxy import.
type ApplyTo func(path string) bool

var depDirs = glob.MustCompile("*node_modules*")

// DefaultApplyTo accepts every path outside dependency directories.
// Third-party code is built against the real globals and must not have
// its member accesses rewritten.
func DefaultApplyTo(path string) bool {
	return !depDirs.Match(path)
}

// NamespaceConfig is a per-namespace override used by the mapping form
// of a group and by the lib set.
type NamespaceConfig struct {
	// Rule replaces the catalog default. Required for lib namespaces
	// the catalog does not recognize.
	Rule globals.Rule
	// Code is extra script text prepended to the generated proxy
	// module body.
	Code string
	// ApplyTo limits which files receive this namespace's import.
	// Defaults to DefaultApplyTo.
	ApplyTo ApplyTo
}

// Group configures one namespace group. Names is the plain-list form:
// catalog defaults apply and unrecognized names are skipped with a
// warning. Entries is the explicit mapping form: the catalog rule
// applies unless overridden, and an unrecognized name without a Rule
// aborts setup. The two strictness levels are deliberate and part of
// the contract. Entries shadow Names on collision.
type Group struct {
	Names   []string
	Entries map[string]NamespaceConfig
}

// Config is the full plugin configuration.
type Config struct {
	// Constructors and Vars select cataloged globals; Lib declares
	// fully custom namespaces. On name collision the later group wins:
	// lib over vars over constructors.
	Constructors Group
	Vars         Group
	Lib          map[string]NamespaceConfig

	// Pure controls pure-hint emission; nil means enabled.
	Pure *bool
	// Bind controls whether FuncBind members are pre-bound to their
	// namespace; nil means enabled.
	Bind *bool

	// Logger receives non-fatal diagnostics. Defaults to slog.Default().
	Logger *slog.Logger
}

func (c Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

// Rule is the fully resolved configuration for one namespace.
type Rule struct {
	Handle  globals.Rule
	Code    string
	ApplyTo ApplyTo
}

// Resolve merges cfg over the catalog and returns one rule per
// configured namespace. The only failure is an explicit mapping entry
// naming an unrecognized namespace without supplying a rule.
func Resolve(cfg Config) (map[string]Rule, error) {
	logger := cfg.logger()
	resolved := make(map[string]Rule)
	if err := resolveGroup(resolved, cfg.Constructors, "constructors", globals.CtorRule, logger); err != nil {
		return nil, err
	}
	if err := resolveGroup(resolved, cfg.Vars, "vars", globals.VarRule, logger); err != nil {
		return nil, err
	}
	if err := resolveEntries(resolved, cfg.Lib, "lib", globals.Lookup); err != nil {
		return nil, err
	}
	return resolved, nil
}

func resolveGroup(dst map[string]Rule, g Group, group string, lookup func(string) (globals.Rule, bool), logger *slog.Logger) error {
	for _, name := range g.Names {
		if _, shadowed := g.Entries[name]; shadowed {
			continue
		}
		def, ok := lookup(name)
		if !ok {
			logger.Warn("skipping unknown global namespace", "group", group, "name", name)
			continue
		}
		dst[name] = Rule{Handle: def, ApplyTo: DefaultApplyTo}
	}
	return resolveEntries(dst, g.Entries, group, lookup)
}

func resolveEntries(dst map[string]Rule, entries map[string]NamespaceConfig, group string, lookup func(string) (globals.Rule, bool)) error {
	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		nc := entries[name]
		handle := nc.Rule
		if handle == nil {
			def, ok := lookup(name)
			if !ok {
				return fmt.Errorf("%s: unknown global namespace %q and no rule supplied", group, name)
			}
			handle = def
		}
		applyTo := nc.ApplyTo
		if applyTo == nil {
			applyTo = DefaultApplyTo
		}
		dst[name] = Rule{Handle: handle, Code: nc.Code, ApplyTo: applyTo}
	}
	return nil
}
