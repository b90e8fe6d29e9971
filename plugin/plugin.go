// Package plugin surfaces the proxy engine as an esbuild plugin. It
// reclassifies synthetic proxy-module specifiers into a private
// namespace, serves their synthesized bodies, and prepends proxy
// imports to every real script file the configuration matches.
package plugin

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/DarrenDanielDay/esbuild-plugin-global-api/proxy"
	"github.com/evanw/esbuild/pkg/api"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
)

// Name is the plugin name reported to esbuild.
const Name = "global-api"

// Namespace is the private esbuild namespace holding synthesized proxy
// modules, keeping them away from filesystem resolution.
const Namespace = "global-api-proxy"

// Option adjusts plugin construction.
type Option func(*settings)

type settings struct {
	fs        billy.Filesystem
	logger    *slog.Logger
	cacheSize int
}

// WithFS overrides the filesystem files are read from. Tests use an
// in-memory filesystem.
func WithFS(fs billy.Filesystem) Option {
	return func(s *settings) { s.fs = fs }
}

// WithLogger overrides the diagnostics logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) { s.logger = logger }
}

// WithCacheSize bounds the per-build transform cache.
func WithCacheSize(n int) Option {
	return func(s *settings) { s.cacheSize = n }
}

// New validates cfg and returns the esbuild plugin. Configuration
// errors surface here, before a build ever starts; everything after
// this point is pure synthesis plus file reads.
func New(cfg proxy.Config, opts ...Option) (api.Plugin, error) {
	s := settings{
		fs:        osfs.New("/"),
		logger:    slog.Default(),
		cacheSize: 256,
	}
	for _, opt := range opts {
		opt(&s)
	}
	if cfg.Logger == nil {
		cfg.Logger = s.logger
	}

	if _, err := proxy.Resolve(cfg); err != nil {
		return api.Plugin{}, err
	}

	return api.Plugin{
		Name: Name,
		Setup: func(build api.PluginBuild) {
			platform := api.PlatformDefault
			if build.InitialOptions != nil {
				platform = build.InitialOptions.Platform
			}
			sess, err := newSession(cfg, s, platformName(platform))
			if err != nil {
				// Resolve succeeded in New, so this cannot happen; if
				// it somehow does, fail the build rather than panic.
				build.OnStart(func() (api.OnStartResult, error) {
					return api.OnStartResult{}, err
				})
				return
			}

			// The mapping is fully built before any handler below is
			// registered; handlers only ever read it.
			build.OnResolve(api.OnResolveOptions{Filter: "^" + proxy.Prefix}, sess.resolveProxy)
			build.OnLoad(api.OnLoadOptions{Filter: ".*", Namespace: Namespace}, sess.loadProxy)
			build.OnLoad(api.OnLoadOptions{Filter: ".*"}, sess.loadFile)
		},
	}, nil
}

// platformName maps the host pipeline's platform to a diff key.
// Browser is the only recognized variant; default and neutral behave
// as node.
func platformName(p api.Platform) string {
	if p == api.PlatformBrowser {
		return "browser"
	}
	return "node"
}

// resolveProxy reclassifies a synthetic specifier into the private
// namespace so esbuild never looks for it on disk.
func (s *session) resolveProxy(args api.OnResolveArgs) (api.OnResolveResult, error) {
	return api.OnResolveResult{Path: args.Path, Namespace: Namespace}, nil
}

// loadProxy serves the synthesized body of a proxy module. A lookup
// miss means resolution produced a path synthesis never populated,
// which is an internal bug, not a user error.
func (s *session) loadProxy(args api.OnLoadArgs) (api.OnLoadResult, error) {
	entry, ok := s.mapping.ByURL(args.Path)
	if !ok {
		return api.OnLoadResult{}, fmt.Errorf("no proxy module synthesized for %q", args.Path)
	}
	contents := entry.ExportsScript
	return api.OnLoadResult{Contents: &contents, Loader: api.LoaderJS}, nil
}

// loadFile prepends the matched namespaces' import fragments to a real
// script file. Files no namespace applies to, and files that are not
// scripts at all, are declined so esbuild handles them normally.
func (s *session) loadFile(args api.OnLoadArgs) (api.OnLoadResult, error) {
	imports := s.mapping.ImportsFor(args.Path)
	if imports == "" {
		return api.OnLoadResult{}, nil
	}
	loader, ok := loaderForPath(args.Path)
	if !ok {
		return api.OnLoadResult{}, nil
	}
	contents, err := s.transform(args.Path, imports)
	if err != nil {
		return api.OnLoadResult{}, err
	}
	s.logger.Debug("prepended proxy imports", "path", args.Path)
	return api.OnLoadResult{Contents: &contents, Loader: loader}, nil
}

// loaderForPath gates transformation on recognized script extensions
// and picks the loader variant: extensions carrying the "ts" marker
// parse as typed, extensions carrying the "x" marker parse with
// embedded markup. Everything else (json, css, images...) must not
// have import statements prepended.
func loaderForPath(path string) (api.Loader, bool) {
	ext := filepath.Ext(path)
	switch ext {
	case ".js", ".mjs", ".cjs", ".jsx", ".ts", ".mts", ".cts", ".tsx":
	default:
		return api.LoaderNone, false
	}
	typed := strings.Contains(ext, "ts")
	markup := strings.Contains(ext, "x")
	switch {
	case typed && markup:
		return api.LoaderTSX, true
	case typed:
		return api.LoaderTS, true
	case markup:
		return api.LoaderJSX, true
	default:
		return api.LoaderJS, true
	}
}
