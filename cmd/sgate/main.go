package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/snippetgate/internal/analyzer"
	"github.com/standardbeagle/snippetgate/internal/config"
	"github.com/standardbeagle/snippetgate/internal/csharp"
	"github.com/standardbeagle/snippetgate/internal/debug"
	"github.com/standardbeagle/snippetgate/internal/metadata"
	"github.com/standardbeagle/snippetgate/internal/version"
)

// Exit codes
const (
	exitPass      = 0
	exitViolation = 1
	exitError     = 2
)

// errViolation marks a run that completed but found offending names
var errViolation = cli.Exit("", exitViolation)

func main() {
	app := newApp(os.Stdout, os.Stderr)
	err := app.Run(os.Args)
	if err != nil {
		if msg := err.Error(); msg != "" {
			fmt.Fprintf(os.Stderr, "sgate: %s\n", msg)
		}
	}
	_ = debug.CloseDebugLog()
	os.Exit(exitCode(err))
}

// exitCode maps a command error onto the process exit status. Anything that
// is not an explicit exit is an input or config failure.
func exitCode(err error) int {
	if err == nil {
		return exitPass
	}
	var ec cli.ExitCoder
	if errors.As(err, &ec) {
		return ec.ExitCode()
	}
	return exitError
}

func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:                   "sgate",
		Usage:                  "Gate C# snippets against allow lists of variable types and method signatures",
		Version:                version.Info(),
		UseShortOptionHandling: true,
		Writer:                 stdout,
		ErrWriter:              stderr,
		// main owns the exit status
		ExitErrHandler: func(*cli.Context, error) {},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Config file path (default: " + config.FileName + " in the project root)",
			},
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "Project root directory",
			},
			&cli.StringFlag{
				Name:    "policy",
				Aliases: []string{"p"},
				Usage:   "Policy TOML file; its lists replace the configured ones",
			},
			&cli.BoolFlag{
				Name:    "json",
				Aliases: []string{"j"},
				Usage:   "Output as JSON",
			},
			&cli.BoolFlag{
				Name:  "compact",
				Usage: "One line per snippet in text output",
			},
			&cli.BoolFlag{
				Name:  "distinct",
				Usage: "Report each offending name once",
			},
			&cli.BoolFlag{
				Name:  "debug-log",
				Usage: "Write debug output to a log file",
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool("debug-log") {
				path, err := debug.InitDebugLogFile()
				if err != nil {
					return err
				}
				fmt.Fprintf(c.App.ErrWriter, "debug log: %s\n", path)
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:      "check",
				Usage:     "Check one snippet (a file, or stdin when no file is given)",
				ArgsUsage: "[file|-]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "source",
						Aliases: []string{"e"},
						Usage:   "Snippet text to check instead of a file",
					},
				},
				Action: checkCommand,
			},
			{
				Name:      "inspect",
				Usage:     "List the canonical names a snippet uses",
				ArgsUsage: "[file|-]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "source",
						Aliases: []string{"e"},
						Usage:   "Snippet text to inspect instead of a file",
					},
					&cli.BoolFlag{
						Name:  "emit-policy",
						Usage: "Print a policy TOML allowing exactly the names used",
					},
				},
				Action: inspectCommand,
			},
			{
				Name:      "batch",
				Usage:     "Check every matching file under the project root, or the files given",
				ArgsUsage: "[file...]",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "workers",
						Aliases: []string{"w"},
						Usage:   "Files analyzed at once (0 = config or auto)",
					},
				},
				Action: batchCommand,
			},
			{
				Name:   "watch",
				Usage:  "Re-check matching files as they change",
				Action: watchCommand,
			},
			{
				Name:   "mcp",
				Usage:  "Serve analyze_snippet and inspect_snippet as MCP tools over stdio",
				Action: mcpCommand,
			},
			{
				Name:  "version",
				Usage: "Print version information",
				Action: func(c *cli.Context) error {
					fmt.Fprintln(c.App.Writer, version.FullInfo())
					return nil
				},
			},
		},
	}
}

// loadConfig loads and validates configuration, then applies --policy
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.LoadWithRoot(c.String("config"), c.String("root"))
	if err != nil {
		return nil, err
	}
	if path := c.String("policy"); path != "" {
		p, err := config.LoadPolicyFile(path)
		if err != nil {
			return nil, err
		}
		cfg.Policy = cfg.Policy.Merge(p)
	}
	if c.Bool("distinct") {
		cfg.Report.Distinct = true
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newAnalyzer builds the C# analyzer the config describes
func newAnalyzer(cfg *config.Config) (*analyzer.Analyzer, error) {
	opts := csharp.Options{
		ImplicitUsings:   cfg.Frontend.Usings,
		NoImplicitUsings: !cfg.Frontend.ImplicitUsings,
		MaxSourceBytes:   int(cfg.Frontend.MaxSourceBytes),
		MaxDepth:         cfg.Frontend.MaxDepth,
	}
	if len(cfg.Catalogs) == 0 {
		return analyzer.NewCSharp(nil, opts)
	}

	base, err := metadata.DefaultManifest()
	if err != nil {
		return nil, err
	}
	manifests := []*metadata.Manifest{base}
	for _, path := range cfg.Catalogs {
		m, err := metadata.LoadManifest(cfg.Resolve(path))
		if err != nil {
			return nil, err
		}
		manifests = append(manifests, m)
	}
	catalog, err := csharp.LoadCatalog(manifests...)
	if err != nil {
		return nil, err
	}
	debug.LogAnalysis("sgate: catalog %s with %d types\n", catalog.Name(), catalog.Len())
	return analyzer.NewCSharp(catalog, opts)
}
