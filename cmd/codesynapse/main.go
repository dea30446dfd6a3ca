package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/synapse-labs/codesynapse/internal/config"
	"github.com/synapse-labs/codesynapse/internal/export"
	"github.com/synapse-labs/codesynapse/internal/graph"
)

// CLI flags parsed from command line.
type cliFlags struct {
	Output   string
	Format   string
	Exclude  string
	Workers  int
	Verbose  bool
	NoCache  bool
	Persist  bool
	ServeMCP bool
	Version  bool
}

// version is set by goreleaser at build time.
var version = "dev"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var flags cliFlags

	fs := flag.NewFlagSet("codesynapse", flag.ContinueOnError)
	fs.StringVar(&flags.Output, "o", "", "output file path (default derived from format)")
	fs.StringVar(&flags.Format, "format", "", "output format: html, json or mermaid (default html)")
	fs.StringVar(&flags.Exclude, "exclude", "", "comma-separated directory names to skip")
	fs.IntVar(&flags.Workers, "workers", 0, "parallel parse workers (default GOMAXPROCS)")
	fs.BoolVar(&flags.Verbose, "verbose", false, "enable verbose output")
	fs.BoolVar(&flags.NoCache, "no-cache", false, "disable the parse cache")
	fs.BoolVar(&flags.Persist, "persist", false, "save the graph database under <project>/.codesynapse")
	fs.BoolVar(&flags.ServeMCP, "serve-mcp", false, "run as MCP server for agent integration")
	fs.BoolVar(&flags.Version, "version", false, "print version and exit")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: codesynapse [flags] <project_path>\n\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if flags.Version {
		fmt.Println(version)
		return nil
	}

	if flags.ServeMCP {
		return runServeMCP(context.Background())
	}

	projectRoot := fs.Arg(0)
	if projectRoot == "" {
		fs.Usage()
		return fmt.Errorf("project path is required")
	}

	cfg, err := config.Load(projectRoot)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyFlags(cfg, &flags)

	return runAnalyze(context.Background(), projectRoot, cfg, flags.Persist)
}

// applyFlags overlays command-line flags onto the project config. Flags win.
func applyFlags(cfg *config.ProjectConfig, flags *cliFlags) {
	if flags.Output != "" {
		cfg.Output = flags.Output
	}
	if flags.Format != "" {
		cfg.Format = flags.Format
	}
	if flags.Exclude != "" {
		for _, d := range strings.Split(flags.Exclude, ",") {
			if d = strings.TrimSpace(d); d != "" {
				cfg.ExcludeDirs = append(cfg.ExcludeDirs, d)
			}
		}
	}
	if flags.Workers > 0 {
		cfg.Workers = flags.Workers
	}
	if flags.Verbose {
		cfg.Verbose = true
	}
	if flags.NoCache {
		cfg.NoCache = true
	}
	if cfg.Format == "" {
		cfg.Format = "html"
	}
}

func runAnalyze(ctx context.Context, projectRoot string, cfg *config.ProjectConfig, persist bool) error {
	switch cfg.Format {
	case "html", "json", "mermaid":
	default:
		return fmt.Errorf("unknown format %q (expected html, json or mermaid)", cfg.Format)
	}

	logger := newLogger(cfg.Verbose)

	parser := graph.NewTreeSitterParser()
	defer parser.Close()

	store := graph.NewMemStore()
	defer store.Close()

	var cache *graph.ParseCache
	if !cfg.NoCache {
		c, err := graph.OpenParseCache("")
		if err != nil {
			logger.Warn("parse cache unavailable", "err", err)
		} else {
			cache = c
		}
	}

	builder := graph.NewBuilder(projectRoot, parser, store, graph.BuildOptions{
		ExcludeDirs: cfg.ExcludeDirs,
		Workers:     cfg.Workers,
		Cache:       cache,
		Logger:      logger,
	})

	result, err := builder.Build(ctx)
	if err != nil {
		return err
	}

	for _, w := range result.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s: %s\n", w.File, w.Message)
	}

	outPath := cfg.Output
	if outPath == "" {
		outPath = defaultOutput(cfg.Format)
	}

	if err := writeOutput(ctx, store, projectRoot, cfg.Format, outPath); err != nil {
		return err
	}

	if persist {
		if err := persistGraph(ctx, store, projectRoot); err != nil {
			return fmt.Errorf("persist graph: %w", err)
		}
	}

	fmt.Printf("analyzed %d files: %d entities, %d edges -> %s\n",
		result.FilesParsed, result.Stats.EntityCount(), result.Stats.EdgeCount, outPath)
	return nil
}

func defaultOutput(format string) string {
	switch format {
	case "json":
		return "codesynapse_graph.json"
	case "mermaid":
		return "codesynapse_graph.mmd"
	default:
		return "codesynapse_graph.html"
	}
}

// writeOutput renders the graph in the requested format. "-" writes to
// stdout.
func writeOutput(ctx context.Context, store graph.Store, projectRoot, format, outPath string) error {
	var w io.Writer
	if outPath == "-" {
		w = os.Stdout
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		w = f
	}

	switch format {
	case "json":
		return export.WriteJSON(ctx, store, projectRoot, w)
	case "mermaid":
		mermaid, err := export.GenerateMermaid(ctx, store)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, mermaid)
		return err
	default:
		title := filepath.Base(projectRoot)
		return export.WriteHTML(ctx, store, title, w)
	}
}

func newLogger(verbose bool) *log.Logger {
	level := log.WarnLevel
	if verbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Level:           level,
	})
}
