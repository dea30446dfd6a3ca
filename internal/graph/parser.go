package graph

import (
	"context"
	"fmt"
)

// FileInput describes one source file handed to the parser. ModulePath is
// the dotted qualified name pre-computed from the file's location relative
// to the project root; the parser itself never looks at the filesystem.
type FileInput struct {
	// Path is the project-relative source path, used as SourceLocation.
	Path string `json:"path"`

	// ModulePath is the dotted qualified name of the module or, for a
	// package initializer, of the package itself.
	ModulePath string `json:"modulePath"`

	// IsPackageInit marks a package-initializer file: the declared entity
	// is a Package at the directory's qualified name rather than a Module.
	IsPackageInit bool `json:"isPackageInit"`

	// Source is the file content.
	Source []byte `json:"-"`
}

// InheritRef is a raw inheritance observation: the base name is recorded
// exactly as written (possibly dotted) and resolved later with project-wide
// knowledge.
type InheritRef struct {
	Class string `json:"class"` // qualified name of the subclass
	Base  string `json:"base"`  // literal base name or dotted name
}

// ImportRef is a raw import observation. One ImportRef is produced per
// imported target, so "from m import a, b" fans out into two refs.
type ImportRef struct {
	// Module is the dotted module path as written, without leading dots.
	// Empty for the bare-relative form "from . import x".
	Module string `json:"module"`

	// Name is the specific name imported from Module ("from m import n"),
	// or "*" for wildcard imports. Empty for whole-module imports.
	Name string `json:"name,omitempty"`

	// Level is the number of leading dots for relative imports; zero for
	// absolute imports.
	Level int `json:"level,omitempty"`
}

// FileRecord holds everything the parser can determine from a single file
// without looking at the rest of the project: declared entities in
// declaration order (the module or package entity first) plus the raw
// relationship observations that the builder resolves project-wide.
type FileRecord struct {
	Path          string       `json:"path"`
	ModulePath    string       `json:"modulePath"`
	IsPackageInit bool         `json:"isPackageInit"`
	Entities      []Entity     `json:"entities"`
	Contains      []Relation   `json:"contains"`
	Inherits      []InheritRef `json:"inherits,omitempty"`
	Imports       []ImportRef  `json:"imports,omitempty"`
}

// ParseError reports that a file could not be parsed as valid structural
// code. The build skips the file and records a warning; the error never
// propagates past the builder.
type ParseError struct {
	Path string
	Line int
	Col  int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d:%d: syntax error", e.Path, e.Line, e.Col)
}

// Parser extracts structural information from a single source file. It is a
// pure transformation of text into a FileRecord; resolution against the
// rest of the project is the builder's job.
// Implementations: TreeSitterParser (production), stub parsers in tests.
type Parser interface {
	// ParseModule extracts the declared entities and raw relationship
	// observations from one file. A *ParseError is returned for malformed
	// source; the input contributes nothing in that case.
	ParseModule(ctx context.Context, in FileInput) (*FileRecord, error)

	// SupportedLanguages returns the languages this parser can handle.
	SupportedLanguages() []Language

	// Close releases parser resources (tree-sitter C memory).
	Close() error
}
