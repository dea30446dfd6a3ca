package graph

import (
	"context"
	"fmt"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
)

// extractor walks a parsed tree-sitter CST and fills a FileRecord.
type extractor interface {
	Extract(root *tree_sitter.Node, source []byte, in FileInput, rec *FileRecord)
}

// TreeSitterParser implements the Parser interface using tree-sitter
// grammars. A new tree-sitter parser is created per ParseModule call, so
// this type is safe for concurrent use across goroutines.
type TreeSitterParser struct {
	languages  map[Language]*tree_sitter.Language
	extractors map[Language]extractor
}

// NewTreeSitterParser creates a TreeSitterParser with the Python grammar
// registered.
func NewTreeSitterParser() *TreeSitterParser {
	return &TreeSitterParser{
		languages: map[Language]*tree_sitter.Language{
			LangPython: tree_sitter.NewLanguage(tree_sitter_python.Language()),
		},
		extractors: map[Language]extractor{
			LangPython: &pyExtractor{},
		},
	}
}

// ParseModule extracts declared entities and raw relationship observations
// from a single file.
func (p *TreeSitterParser) ParseModule(_ context.Context, in FileInput) (*FileRecord, error) {
	lang := LangPython
	tsLang, ok := p.languages[lang]
	if !ok {
		return nil, fmt.Errorf("unsupported language: %s", lang)
	}
	ext := p.extractors[lang]

	parser := tree_sitter.NewParser()
	defer parser.Close()

	if err := parser.SetLanguage(tsLang); err != nil {
		return nil, fmt.Errorf("set language %s: %w", lang, err)
	}

	tree := parser.Parse(in.Source, nil)
	if tree == nil {
		return nil, fmt.Errorf("tree-sitter returned nil tree for %s", in.Path)
	}
	defer tree.Close()

	root := tree.RootNode()

	// Tree-sitter never refuses input; malformed source surfaces as ERROR
	// or MISSING nodes in the tree. Treat any of those as a parse failure
	// so the file contributes nothing.
	if root.HasError() {
		line, col := firstErrorPosition(root)
		return nil, &ParseError{Path: in.Path, Line: line, Col: col}
	}

	kind := KindModule
	if in.IsPackageInit {
		kind = KindPackage
	}

	rec := &FileRecord{
		Path:          in.Path,
		ModulePath:    in.ModulePath,
		IsPackageInit: in.IsPackageInit,
		Entities: []Entity{{
			QualifiedName:  in.ModulePath,
			DisplayName:    DisplayName(in.ModulePath),
			Kind:           kind,
			SourceLocation: in.Path,
			StartLine:      1,
			EndLine:        int(root.EndPosition().Row) + 1,
		}},
	}

	ext.Extract(root, in.Source, in, rec)
	return rec, nil
}

// SupportedLanguages returns the languages this parser can handle.
func (p *TreeSitterParser) SupportedLanguages() []Language {
	langs := make([]Language, 0, len(p.languages))
	for l := range p.languages {
		langs = append(langs, l)
	}
	return langs
}

// Close is a no-op because parsers are created per ParseModule call.
func (p *TreeSitterParser) Close() error {
	return nil
}

// firstErrorPosition locates the first ERROR or MISSING node in the tree
// and returns its 1-based line and column.
func firstErrorPosition(root *tree_sitter.Node) (line, col int) {
	cursor := root.Walk()
	defer cursor.Close()

	var find func() *tree_sitter.Node
	find = func() *tree_sitter.Node {
		node := cursor.Node()
		if node.IsError() || node.IsMissing() {
			return node
		}
		if cursor.GotoFirstChild() {
			for {
				if found := find(); found != nil {
					return found
				}
				if !cursor.GotoNextSibling() {
					break
				}
			}
			cursor.GotoParent()
		}
		return nil
	}

	if node := find(); node != nil {
		pos := node.StartPosition()
		return int(pos.Row) + 1, int(pos.Column) + 1
	}
	return 1, 1
}
