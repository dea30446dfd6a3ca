package graph

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/charmbracelet/log"
	ignore "github.com/sabhiram/go-gitignore"
	"golang.org/x/sync/errgroup"
)

// Builder orchestrates the extraction pipeline for one project: deterministic
// discovery of source files under the root, per-file parsing (parallel), and
// strictly sequential aggregation and resolution into the store. Each Build
// call owns fresh state; graphs are rebuilt from scratch every invocation.
type Builder struct {
	root    string
	parser  Parser
	store   Store
	cache   *ParseCache
	logger  *log.Logger
	exclude map[string]bool
	workers int
}

// BuildOptions configures a Builder beyond its required collaborators.
type BuildOptions struct {
	// ExcludeDirs are directory names skipped during discovery, in addition
	// to dot-directories and __pycache__.
	ExcludeDirs []string

	// Workers caps parallel file parsing. Defaults to GOMAXPROCS.
	Workers int

	// Cache, when non-nil, is consulted before parsing and updated after.
	Cache *ParseCache

	// Logger receives per-file debug lines and warning summaries. Defaults
	// to a discarding logger.
	Logger *log.Logger
}

// BuildResult is the outcome of a successful build: summary statistics plus
// every non-fatal condition recovered along the way. The graph itself lives
// in the store the Builder was constructed with.
type BuildResult struct {
	Stats           GraphStats `json:"stats"`
	Warnings        []Warning  `json:"warnings,omitempty"`
	FilesDiscovered int        `json:"filesDiscovered"`
	FilesParsed     int        `json:"filesParsed"`
}

// NewBuilder creates a Builder for the project rooted at root.
func NewBuilder(root string, parser Parser, store Store, opts BuildOptions) *Builder {
	exclude := map[string]bool{"__pycache__": true}
	for _, d := range opts.ExcludeDirs {
		exclude[d] = true
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	return &Builder{
		root:    root,
		parser:  parser,
		store:   store,
		cache:   opts.Cache,
		logger:  logger,
		exclude: exclude,
		workers: workers,
	}
}

// sourceFile is one discovered file, in discovery order.
type sourceFile struct {
	absPath    string
	relPath    string // slash-separated, project-relative
	modulePath string // dotted qualified name
	isInit     bool
}

// parseOutcome pairs a discovery slot with its parse result or warning, so
// that parallel parsing cannot perturb output order.
type parseOutcome struct {
	rec  *FileRecord
	warn *Warning
}

// Build runs the full pipeline. Only root-level access failures are fatal;
// every per-file and per-relationship condition is absorbed into the
// returned warnings.
func (b *Builder) Build(ctx context.Context) (*BuildResult, error) {
	info, err := os.Stat(b.root)
	if err != nil {
		return nil, fmt.Errorf("project root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("project root is not a directory: %s", b.root)
	}

	files, err := b.discover()
	if err != nil {
		return nil, fmt.Errorf("enumerate project root: %w", err)
	}
	b.logger.Debug("discovered source files", "count", len(files))

	outcomes := b.parseAll(ctx, files)

	if err := b.store.InitSchema(ctx); err != nil {
		return nil, fmt.Errorf("init schema: %w", err)
	}

	result := &BuildResult{FilesDiscovered: len(files)}
	var records []*FileRecord
	for _, out := range outcomes {
		if out.warn != nil {
			result.Warnings = append(result.Warnings, *out.warn)
			b.logger.Warn(out.warn.Message, "file", out.warn.File, "kind", out.warn.Kind)
			continue
		}
		records = append(records, out.rec)
	}
	result.FilesParsed = len(records)

	if err := b.aggregate(ctx, records, result); err != nil {
		return nil, err
	}

	if b.cache != nil {
		if err := b.cache.Save(); err != nil {
			b.logger.Warn("failed to persist parse cache", "err", err)
		}
	}

	stats, err := b.store.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}
	result.Stats = *stats

	b.logger.Info("graph built",
		"entities", stats.EntityCount(),
		"edges", stats.EdgeCount,
		"warnings", len(result.Warnings))
	return result, nil
}

// discover enumerates .py files under the root in lexicographic path order,
// honoring .gitignore and the exclude set, and derives each file's dotted
// module path.
func (b *Builder) discover() ([]sourceFile, error) {
	var matcher *ignore.GitIgnore
	if gi, err := ignore.CompileIgnoreFile(filepath.Join(b.root, ".gitignore")); err == nil {
		matcher = gi
	}

	var files []sourceFile
	walkErr := filepath.WalkDir(b.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == b.root {
				return err
			}
			return nil // skip inaccessible subtrees
		}

		name := d.Name()
		if d.IsDir() {
			if path == b.root {
				return nil
			}
			if strings.HasPrefix(name, ".") || b.exclude[name] {
				return filepath.SkipDir
			}
			return nil
		}

		if !strings.HasSuffix(name, ".py") {
			return nil
		}

		rel, err := filepath.Rel(b.root, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if matcher != nil && matcher.MatchesPath(rel) {
			return nil
		}

		modulePath, isInit := b.modulePathFor(rel)
		files = append(files, sourceFile{
			absPath:    path,
			relPath:    rel,
			modulePath: modulePath,
			isInit:     isInit,
		})
		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}
	return files, nil
}

// modulePathFor converts a project-relative source path into its dotted
// qualified name. A package initializer names the directory itself; an
// initializer at the project root names the root directory.
func (b *Builder) modulePathFor(relPath string) (modulePath string, isInit bool) {
	trimmed := strings.TrimSuffix(relPath, ".py")
	parts := strings.Split(trimmed, "/")

	if parts[len(parts)-1] == "__init__" {
		isInit = true
		parts = parts[:len(parts)-1]
	}
	if len(parts) == 0 {
		return filepath.Base(b.root), true
	}
	return strings.Join(parts, "."), isInit
}

// parseAll parses every discovered file, fanning out across workers. The
// outcome slice is indexed by discovery order so aggregation stays
// deterministic regardless of scheduling.
func (b *Builder) parseAll(ctx context.Context, files []sourceFile) []parseOutcome {
	outcomes := make([]parseOutcome, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)

	for i, f := range files {
		g.Go(func() error {
			outcomes[i] = b.parseOne(gctx, f)
			return nil
		})
	}
	// Workers never return errors; per-file failures become warnings.
	_ = g.Wait()

	return outcomes
}

func (b *Builder) parseOne(ctx context.Context, f sourceFile) parseOutcome {
	fi, err := os.Stat(f.absPath)
	if err != nil {
		return parseOutcome{warn: &Warning{
			File:    f.relPath,
			Kind:    WarnUnreadableFile,
			Message: fmt.Sprintf("stat failed: %v", err),
		}}
	}

	if b.cache != nil {
		if rec := b.cache.Get(f.absPath, fi, f.modulePath); rec != nil {
			b.logger.Debug("parse cache hit", "file", f.relPath)
			return parseOutcome{rec: rec}
		}
	}

	source, err := os.ReadFile(f.absPath)
	if err != nil {
		return parseOutcome{warn: &Warning{
			File:    f.relPath,
			Kind:    WarnUnreadableFile,
			Message: fmt.Sprintf("read failed: %v", err),
		}}
	}

	rec, err := b.parser.ParseModule(ctx, FileInput{
		Path:          f.relPath,
		ModulePath:    f.modulePath,
		IsPackageInit: f.isInit,
		Source:        source,
	})
	if err != nil {
		return parseOutcome{warn: &Warning{
			File:    f.relPath,
			Kind:    WarnParseFailure,
			Message: err.Error(),
		}}
	}

	b.logger.Debug("parsed", "file", f.relPath, "entities", len(rec.Entities))
	if b.cache != nil {
		b.cache.Put(f.absPath, fi, f.modulePath, rec)
	}
	return parseOutcome{rec: rec}
}

// aggregate is the sequential second phase: all entities and containment
// edges first (so every file's declarations are visible project-wide), then
// inheritance and import resolution per file in discovery order.
func (b *Builder) aggregate(ctx context.Context, records []*FileRecord, result *BuildResult) error {
	packages := make(map[string]bool)
	rootPackage := ""
	for _, rec := range records {
		if rec.IsPackageInit {
			packages[rec.ModulePath] = true
			// A root-level initializer makes the project root itself a
			// package; its name is not a prefix of the other qualified
			// names, so it parents every top-level entry explicitly.
			if rec.Path == "__init__.py" {
				rootPackage = rec.ModulePath
			}
		}
	}

	// All entities first, so every edge's endpoints exist before it is
	// added. A module can sort ahead of its package's initializer in
	// discovery order.
	for _, rec := range records {
		for _, ent := range rec.Entities {
			if err := b.store.AddEntity(ctx, ent); err != nil {
				return fmt.Errorf("add entity %s: %w", ent.QualifiedName, err)
			}
		}
	}

	for _, rec := range records {
		for _, rel := range rec.Contains {
			if err := b.store.AddEdge(ctx, rel); err != nil {
				return fmt.Errorf("add edge %s->%s: %w", rel.Source, rel.Target, err)
			}
		}
		// Structural parent discovered from the directory tree: the nearest
		// enclosing package, when one exists. Modules under bare directories
		// stay forest roots.
		parent := parentPath(rec.ModulePath)
		if parent == "" && rootPackage != "" && rec.ModulePath != rootPackage {
			parent = rootPackage
		}
		if parent != "" && packages[parent] {
			rel := Relation{Source: parent, Target: rec.ModulePath, Kind: EdgeKindContains}
			if err := b.store.AddEdge(ctx, rel); err != nil {
				return fmt.Errorf("add edge %s->%s: %w", rel.Source, rel.Target, err)
			}
		}
	}

	resolver := NewResolver(records)

	for _, rec := range records {
		for _, ref := range rec.Imports {
			t := resolver.ResolveImport(rec, ref)
			if t.Warning != nil {
				result.Warnings = append(result.Warnings, *t.Warning)
				b.logger.Warn(t.Warning.Message, "file", t.Warning.File)
			}
			if err := b.addResolved(ctx, rec.ModulePath, t, EdgeKindImports); err != nil {
				return err
			}
		}
		for _, ref := range rec.Inherits {
			t := resolver.ResolveBase(rec, ref)
			if err := b.addResolved(ctx, ref.Class, t, EdgeKindInherits); err != nil {
				return err
			}
		}
	}
	return nil
}

// addResolved materializes one resolved observation as an edge, lazily
// synthesizing the external library node when needed.
func (b *Builder) addResolved(ctx context.Context, source string, t ResolvedTarget, kind EdgeKind) error {
	if t.External {
		ent := Entity{
			QualifiedName: t.Target,
			DisplayName:   DisplayName(t.Target),
			Kind:          KindExternal,
		}
		if err := b.store.AddEntity(ctx, ent); err != nil {
			return fmt.Errorf("add external %s: %w", t.Target, err)
		}
	}
	rel := Relation{Source: source, Target: t.Target, Kind: kind}
	if err := b.store.AddEdge(ctx, rel); err != nil {
		return fmt.Errorf("add edge %s->%s: %w", rel.Source, rel.Target, err)
	}
	return nil
}
