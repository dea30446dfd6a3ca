package graph

import (
	"fmt"
	"strings"
)

// Resolver is the project-wide second phase of the pipeline: it matches the
// parser's raw inheritance and import observations against the full set of
// discovered entities. It is built once per build, after every file has been
// parsed, so that later files' declarations are visible to earlier files'
// references. Anything that cannot be matched degrades to an external
// library target; no observation is ever dropped.
type Resolver struct {
	kinds map[string]EntityKind // internal entities by qualified name
}

// NewResolver indexes the entities of all successfully parsed files.
func NewResolver(records []*FileRecord) *Resolver {
	r := &Resolver{kinds: make(map[string]EntityKind)}
	for _, rec := range records {
		for _, ent := range rec.Entities {
			r.kinds[ent.QualifiedName] = ent.Kind
		}
	}
	return r
}

// ResolvedTarget is the outcome of resolving one raw observation. External
// targets name the ExternalLibrary node to synthesize or reuse. Warning is
// set for degraded relative imports.
type ResolvedTarget struct {
	Target   string
	External bool
	Warning  *Warning
}

// ResolveImport resolves a raw import observation from the given file to an
// in-project entity or an external library name. Relative levels walk up
// from the importing module's package path; walking past the project root
// records a warning and degrades to an external target.
func (r *Resolver) ResolveImport(rec *FileRecord, ref ImportRef) ResolvedTarget {
	modPath := ref.Module
	if ref.Level > 0 {
		base, ok := r.relativeBase(rec, ref.Level)
		if !ok {
			return ResolvedTarget{
				Target:   externalImportName(ref),
				External: true,
				Warning: &Warning{
					File:    rec.Path,
					Kind:    WarnUnresolvedRelative,
					Message: fmt.Sprintf("relative import level %d escapes the project root", ref.Level),
				},
			}
		}
		modPath = joinDotted(base, ref.Module)
	}

	if ref.Name != "" && ref.Name != "*" {
		if candidate := joinDotted(modPath, ref.Name); r.exists(candidate) {
			return ResolvedTarget{Target: candidate}
		}
	}
	if r.exists(modPath) {
		return ResolvedTarget{Target: modPath}
	}

	return ResolvedTarget{Target: externalImportName(ref), External: true}
}

// ResolveBase resolves a raw inheritance observation. Resolution order:
// classes in the same module, names bound by this module's imports, then an
// external library node named after the base's root identifier.
func (r *Resolver) ResolveBase(rec *FileRecord, ref InheritRef) ResolvedTarget {
	base := ref.Base

	// Same module (including nested classes referenced by their local path).
	if candidate := joinDotted(rec.ModulePath, base); r.exists(candidate) {
		return ResolvedTarget{Target: candidate}
	}

	// Fully qualified in-project name written out.
	if r.exists(base) {
		return ResolvedTarget{Target: base}
	}

	if strings.Contains(base, ".") {
		if target, ok := r.resolveDottedBase(rec, base); ok {
			return ResolvedTarget{Target: target}
		}
	} else {
		if target, ok := r.resolveImportedBase(rec, base); ok {
			return ResolvedTarget{Target: target}
		}
	}

	return ResolvedTarget{Target: RootName(base), External: true}
}

// resolveImportedBase matches a plain base identifier against the names this
// module imports: "from m import Base" binds Base directly, and wildcard
// imports expose every class of the imported module.
func (r *Resolver) resolveImportedBase(rec *FileRecord, base string) (string, bool) {
	for _, imp := range rec.Imports {
		if imp.Name == base {
			if t := r.ResolveImport(rec, imp); !t.External {
				return t.Target, true
			}
		}
	}
	for _, imp := range rec.Imports {
		if imp.Name != "*" {
			continue
		}
		module := imp
		module.Name = ""
		if t := r.ResolveImport(rec, module); !t.External {
			if candidate := joinDotted(t.Target, base); r.exists(candidate) {
				return candidate, true
			}
		}
	}
	return "", false
}

// resolveDottedBase matches "m.Base" by resolving the root identifier
// through this module's imports ("from p import m" binds m) and appending
// the remainder.
func (r *Resolver) resolveDottedBase(rec *FileRecord, base string) (string, bool) {
	root := RootName(base)
	rest := strings.TrimPrefix(base, root)

	for _, imp := range rec.Imports {
		if imp.Name != root {
			continue
		}
		if t := r.ResolveImport(rec, imp); !t.External {
			if candidate := t.Target + rest; r.exists(candidate) {
				return candidate, true
			}
		}
	}
	return "", false
}

// relativeBase computes the dotted path that a relative import of the given
// level is anchored at. Level 1 is the importing module's own package; each
// additional level walks one package up. Returns false when the walk
// escapes the project root.
func (r *Resolver) relativeBase(rec *FileRecord, level int) (string, bool) {
	base := rec.ModulePath
	if !rec.IsPackageInit {
		base = parentPath(base)
	}
	for i := 1; i < level; i++ {
		if base == "" {
			return "", false
		}
		base = parentPath(base)
	}
	if base == "" {
		return "", false
	}
	return base, true
}

func (r *Resolver) exists(qualifiedName string) bool {
	_, ok := r.kinds[qualifiedName]
	return ok
}

// externalImportName is the identity of the ExternalLibrary node synthesized
// for an unmatched import: the root identifier of the imported path.
func externalImportName(ref ImportRef) string {
	if ref.Module != "" {
		return RootName(ref.Module)
	}
	if ref.Name != "" && ref.Name != "*" {
		return RootName(ref.Name)
	}
	return "unknown"
}

// parentPath strips the last dotted segment; empty when none remain.
func parentPath(path string) string {
	if i := strings.LastIndexByte(path, '.'); i >= 0 {
		return path[:i]
	}
	return ""
}

// joinDotted joins two dotted path fragments, tolerating empty sides.
func joinDotted(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	default:
		return a + "." + b
	}
}
