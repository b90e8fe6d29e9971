package proxy

import (
	"sort"
	"strings"
)

// Prefix namespaces every synthetic proxy-module path so it can never
// collide with a real file path.
const Prefix = "global-api-proxy:"

// Entry is the synthesized artifact for one namespace.
type Entry struct {
	// URL is the synthetic module path, Prefix + namespace name.
	URL string
	// ImportsScript is the single-line import a matched file prepends.
	ImportsScript string
	// ExportsScript is the proxy module body served for URL.
	ExportsScript string
}

type mappingEntry struct {
	Entry
	applyTo ApplyTo
}

// Mapping is the immutable namespace → artifact table for one build
// session. It is built once at setup, before any load handler runs,
// and only read afterwards, so concurrent handlers need no locking.
type Mapping struct {
	entries map[string]mappingEntry
	names   []string
}

// NewMapping resolves cfg and synthesizes every configured namespace
// for the given platform.
func NewMapping(cfg Config, platform string) (*Mapping, error) {
	rules, err := Resolve(cfg)
	if err != nil {
		return nil, err
	}

	opts := Options{Platform: platform, Pure: true, Bind: true}
	if cfg.Pure != nil {
		opts.Pure = *cfg.Pure
	}
	if cfg.Bind != nil {
		opts.Bind = *cfg.Bind
	}

	m := &Mapping{entries: make(map[string]mappingEntry, len(rules))}
	for name, rule := range rules {
		imports, exports := Synthesize(name, rule, opts)
		m.entries[name] = mappingEntry{
			Entry: Entry{
				URL:           Prefix + name,
				ImportsScript: imports,
				ExportsScript: exports,
			},
			applyTo: rule.ApplyTo,
		}
		m.names = append(m.names, name)
	}
	sort.Strings(m.names)
	return m, nil
}

// Get returns the artifact for a namespace name.
func (m *Mapping) Get(name string) (Entry, bool) {
	e, ok := m.entries[name]
	return e.Entry, ok
}

// ByURL resolves a synthetic module path back to its artifact.
func (m *Mapping) ByURL(url string) (Entry, bool) {
	name, ok := strings.CutPrefix(url, Prefix)
	if !ok {
		return Entry{}, false
	}
	return m.Get(name)
}

// Names returns the configured namespaces in lexicographic order.
func (m *Mapping) Names() []string {
	return m.names
}

// ImportsFor concatenates the import fragments of every namespace
// whose applyTo predicate accepts path, one per line in lexicographic
// namespace order. An empty result means the file is not transformed.
func (m *Mapping) ImportsFor(path string) string {
	var sb strings.Builder
	for _, name := range m.names {
		e := m.entries[name]
		if !e.applyTo(path) {
			continue
		}
		sb.WriteString(e.ImportsScript)
		sb.WriteByte('\n')
	}
	return sb.String()
}
