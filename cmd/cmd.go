package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/DarrenDanielDay/esbuild-plugin-global-api/config"
	"github.com/DarrenDanielDay/esbuild-plugin-global-api/globals"
	"github.com/DarrenDanielDay/esbuild-plugin-global-api/plugin"
	"github.com/DarrenDanielDay/esbuild-plugin-global-api/proxy"
	"github.com/evanw/esbuild/pkg/api"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"
)

// Execute runs the globapi CLI with the given version string.
func Execute(version string) {
	cmd := &cli.Command{
		Name:                   "globapi",
		Usage:                  "Hoist global namespace members into minifier-friendly local bindings",
		Version:                version,
		UseShortOptionHandling: true,
		Commands: []*cli.Command{
			{
				Name:      "build",
				Usage:     "Bundle an entry point with the global-api plugin installed",
				ArgsUsage: "<entry>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output bundle path (stdout if omitted)",
					},
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Configuration file",
						Value:   "globapi.yml",
					},
					&cli.StringFlag{
						Name:  "platform",
						Usage: "Target platform: node, browser or neutral",
					},
					&cli.BoolFlag{
						Name:  "minify",
						Usage: "Minify the output bundle",
					},
				},
				Action: buildAction,
			},
			{
				Name:      "emit",
				Usage:     "Print the synthesized proxy module for a namespace",
				ArgsUsage: "<namespace>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "platform",
						Usage: "Target platform: node, browser or neutral",
					},
					&cli.BoolFlag{
						Name:  "imports",
						Usage: "Print the import fragment instead of the module body",
					},
				},
				Action: emitAction,
			},
			{
				Name:   "list",
				Usage:  "List the cataloged global namespaces",
				Action: listAction,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func buildAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.NArg() < 1 {
		return fmt.Errorf("usage: globapi build [-o output] <entry>")
	}

	cfg, platform, err := loadConfig(cmd.String("config"))
	if err != nil {
		return err
	}
	if p := cmd.String("platform"); p != "" {
		platform = p
	}

	plug, err := plugin.New(cfg)
	if err != nil {
		return err
	}

	outfile := cmd.String("output")
	opts := api.BuildOptions{
		EntryPoints: []string{cmd.Args().First()},
		Bundle:      true,
		Outfile:     outfile,
		Write:       outfile != "",
		Platform:    apiPlatform(platform),
		Plugins:     []api.Plugin{plug},
		LogLevel:    api.LogLevelInfo,
	}
	if cmd.Bool("minify") {
		opts.MinifyWhitespace = true
		opts.MinifyIdentifiers = true
		opts.MinifySyntax = true
	}

	result := api.Build(opts)
	if len(result.Errors) > 0 {
		return fmt.Errorf("build failed with %d error(s)", len(result.Errors))
	}
	if outfile == "" {
		for _, out := range result.OutputFiles {
			os.Stdout.Write(out.Contents)
		}
	}
	return nil
}

// loadConfig reads the configuration file if it exists. A missing
// default file just means empty configuration; a missing file the user
// named explicitly is an error surfaced by Load.
func loadConfig(path string) (proxy.Config, string, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) && path == "globapi.yml" {
		return proxy.Config{}, "", nil
	}
	return config.Load(path)
}

func emitAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.NArg() < 1 {
		return fmt.Errorf("usage: globapi emit <namespace>")
	}
	name := cmd.Args().First()

	var cfg proxy.Config
	switch {
	case globals.IsGlobalCtor(name):
		cfg.Constructors.Names = []string{name}
	case globals.IsGlobalVar(name):
		cfg.Vars.Names = []string{name}
	default:
		return fmt.Errorf("unknown global namespace %q", name)
	}

	mapping, err := proxy.NewMapping(cfg, cmd.String("platform"))
	if err != nil {
		return err
	}
	entry, _ := mapping.Get(name)
	if cmd.Bool("imports") {
		fmt.Println(entry.ImportsScript)
		return nil
	}
	fmt.Print(entry.ExportsScript)
	return nil
}

func listAction(ctx context.Context, cmd *cli.Command) error {
	color := term.IsTerminal(int(os.Stdout.Fd())) && os.Getenv("NO_COLOR") == ""
	heading := func(s string) string {
		if color {
			return "\x1b[1m" + s + "\x1b[0m"
		}
		return s
	}

	fmt.Println(heading("constructors:"))
	for _, name := range globals.CtorNames() {
		fmt.Printf("  %s\n", name)
	}
	fmt.Println(heading("vars:"))
	for _, name := range globals.VarNames() {
		fmt.Printf("  %s\n", name)
	}
	return nil
}

func apiPlatform(name string) api.Platform {
	switch name {
	case "browser":
		return api.PlatformBrowser
	case "neutral":
		return api.PlatformNeutral
	case "":
		return api.PlatformDefault
	default:
		// Unrecognized names behave like the primary platform.
		return api.PlatformNode
	}
}
