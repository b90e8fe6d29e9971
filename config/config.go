// Package config loads the CLI's YAML configuration file and converts
// it into plugin configuration. Glob patterns and rule literals are
// validated while parsing, so a bad file fails before a build starts.
package config

import (
	"fmt"
	"os"

	"github.com/DarrenDanielDay/esbuild-plugin-global-api/globals"
	"github.com/DarrenDanielDay/esbuild-plugin-global-api/proxy"
	"github.com/gobwas/glob"
	"github.com/goccy/go-yaml"
)

// File is the on-disk configuration shape.
type File struct {
	Platform     string           `yaml:"platform"`
	Pure         *bool            `yaml:"pure"`
	Bind         *bool            `yaml:"bind"`
	Constructors GroupValue       `yaml:"constructors"`
	Vars         GroupValue       `yaml:"vars"`
	Lib          map[string]Entry `yaml:"lib"`
}

// GroupValue accepts either a plain list of namespace names or a
// name → entry mapping, the two configuration forms of a group.
type GroupValue struct {
	Names   []string
	Entries map[string]Entry
}

func (g *GroupValue) UnmarshalYAML(b []byte) error {
	var names []string
	if err := yaml.Unmarshal(b, &names); err == nil {
		g.Names = names
		return nil
	}
	var entries map[string]Entry
	if err := yaml.Unmarshal(b, &entries); err != nil {
		return fmt.Errorf("group must be a name list or a name mapping: %w", err)
	}
	g.Entries = entries
	return nil
}

// Entry is one namespace override.
type Entry struct {
	Code    string     `yaml:"code"`
	Rule    *RuleValue `yaml:"rule"`
	ApplyTo *Patterns  `yaml:"applyTo"`
}

// Patterns pairs include and exclude globs for an applyTo predicate.
// An empty include list accepts every path; excludes always win.
type Patterns struct {
	Include []string `yaml:"include"`
	Exclude []string `yaml:"exclude"`
}

// Predicate compiles the patterns into an applyTo predicate.
func (p *Patterns) Predicate() (proxy.ApplyTo, error) {
	include, err := compileGlobs(p.Include)
	if err != nil {
		return nil, err
	}
	exclude, err := compileGlobs(p.Exclude)
	if err != nil {
		return nil, err
	}
	return func(path string) bool {
		if len(include) > 0 && !matchAny(include, path) {
			return false
		}
		return !matchAny(exclude, path)
	}, nil
}

func compileGlobs(patterns []string) ([]glob.Glob, error) {
	globs := make([]glob.Glob, 0, len(patterns))
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid glob %q: %w", pattern, err)
		}
		globs = append(globs, g)
	}
	return globs, nil
}

func matchAny(globs []glob.Glob, path string) bool {
	for _, g := range globs {
		if g.Match(path) {
			return true
		}
	}
	return false
}

// RuleValue is a handle-rule literal: the string "noop", a node
// ({type: object|constructor|func, members: {name: kind}}), or a
// platform rule ({type: platform, diffs: {node: ..., browser: ...}}).
// Member order in the file is the declaration order of the generated
// module.
type RuleValue struct {
	Rule globals.Rule
}

func (r *RuleValue) UnmarshalYAML(b []byte) error {
	var s string
	if err := yaml.Unmarshal(b, &s); err == nil {
		if s != "noop" {
			return fmt.Errorf("unknown rule %q (expected \"noop\" or a rule object)", s)
		}
		r.Rule = globals.Noop{}
		return nil
	}

	var node struct {
		Type    string               `yaml:"type"`
		Members yaml.MapSlice        `yaml:"members"`
		Diffs   map[string]RuleValue `yaml:"diffs"`
	}
	if err := yaml.Unmarshal(b, &node); err != nil {
		return fmt.Errorf("parse rule: %w", err)
	}

	switch node.Type {
	case "object", "constructor":
		members, err := parseMembers(node.Members)
		if err != nil {
			return err
		}
		kind := globals.ObjectNode
		if node.Type == "constructor" {
			kind = globals.ConstructorNode
		}
		r.Rule = globals.Direct{Node: globals.Node{Kind: kind, Members: members}}
	case "func":
		r.Rule = globals.Direct{Node: globals.Node{Kind: globals.FuncNode}}
	case "platform":
		diffs := make(map[string]globals.Rule, len(node.Diffs))
		for name, diff := range node.Diffs {
			if _, nested := diff.Rule.(globals.PlatformDiff); nested {
				return fmt.Errorf("platform diff %q: diffs cannot nest", name)
			}
			diffs[name] = diff.Rule
		}
		r.Rule = globals.PlatformDiff{Diffs: diffs}
	default:
		return fmt.Errorf("unknown rule type %q", node.Type)
	}
	return nil
}

func parseMembers(items yaml.MapSlice) ([]globals.Member, error) {
	members := make([]globals.Member, 0, len(items))
	for _, item := range items {
		name, ok := item.Key.(string)
		if !ok {
			return nil, fmt.Errorf("member name must be a string, got %v", item.Key)
		}
		kindName, ok := item.Value.(string)
		if !ok {
			return nil, fmt.Errorf("member %q: kind must be a string", name)
		}
		kind, err := memberKind(kindName)
		if err != nil {
			return nil, fmt.Errorf("member %q: %w", name, err)
		}
		members = append(members, globals.Member{Name: name, Kind: kind})
	}
	return members, nil
}

func memberKind(s string) (globals.MemberKind, error) {
	switch s {
	case "constant":
		return globals.Constant, nil
	case "func":
		return globals.Func, nil
	case "func-bind":
		return globals.FuncBind, nil
	case "property":
		return globals.Property, nil
	}
	return 0, fmt.Errorf("unknown member kind %q", s)
}

// Load reads path and returns the plugin configuration plus the
// platform name the file selects (empty when unset).
func Load(path string) (proxy.Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return proxy.Config{}, "", err
	}
	return Parse(data)
}

// Parse converts YAML bytes into plugin configuration.
func Parse(data []byte) (proxy.Config, string, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return proxy.Config{}, "", fmt.Errorf("parse config: %w", err)
	}

	cfg := proxy.Config{Pure: f.Pure, Bind: f.Bind}
	var err error
	if cfg.Constructors, err = convertGroup(f.Constructors); err != nil {
		return proxy.Config{}, "", err
	}
	if cfg.Vars, err = convertGroup(f.Vars); err != nil {
		return proxy.Config{}, "", err
	}
	if cfg.Lib, err = convertEntries(f.Lib); err != nil {
		return proxy.Config{}, "", err
	}
	return cfg, f.Platform, nil
}

func convertGroup(g GroupValue) (proxy.Group, error) {
	entries, err := convertEntries(g.Entries)
	if err != nil {
		return proxy.Group{}, err
	}
	return proxy.Group{Names: g.Names, Entries: entries}, nil
}

func convertEntries(entries map[string]Entry) (map[string]proxy.NamespaceConfig, error) {
	if entries == nil {
		return nil, nil
	}
	out := make(map[string]proxy.NamespaceConfig, len(entries))
	for name, e := range entries {
		nc := proxy.NamespaceConfig{Code: e.Code}
		if e.Rule != nil {
			nc.Rule = e.Rule.Rule
		}
		if e.ApplyTo != nil {
			pred, err := e.ApplyTo.Predicate()
			if err != nil {
				return nil, fmt.Errorf("namespace %q: %w", name, err)
			}
			nc.ApplyTo = pred
		}
		out[name] = nc
	}
	return out, nil
}
