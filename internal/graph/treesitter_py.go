package graph

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// pyExtractor extracts declared entities and raw relationship observations
// from Python source files. Scope is tracked as the dotted qualified name of
// the enclosing declaration, so nested classes and functions get fully
// nested qualified names.
type pyExtractor struct{}

func (e *pyExtractor) Extract(root *tree_sitter.Node, source []byte, in FileInput, rec *FileRecord) {
	e.walk(root, source, in.ModulePath, rec)
}

// walk visits node's named children in document order. scope is the
// qualified name of the entity that structurally encloses declarations found
// at this level.
func (e *pyExtractor) walk(node *tree_sitter.Node, source []byte, scope string, rec *FileRecord) {
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if child == nil {
			continue
		}

		switch child.Kind() {
		case "class_definition":
			e.extractClass(child, source, scope, rec)

		case "function_definition":
			e.extractFunction(child, source, scope, rec)

		case "decorated_definition":
			if def := child.ChildByFieldName("definition"); def != nil {
				switch def.Kind() {
				case "class_definition":
					e.extractClass(def, source, scope, rec)
				case "function_definition":
					e.extractFunction(def, source, scope, rec)
				}
			}

		case "import_statement":
			e.extractImport(child, source, rec)

		case "import_from_statement":
			e.extractFromImport(child, source, rec)

		default:
			// Declarations can hide inside if/try/with blocks; imports can
			// appear anywhere. Keep walking with the same scope.
			e.walk(child, source, scope, rec)
		}
	}
}

func (e *pyExtractor) extractClass(node *tree_sitter.Node, source []byte, scope string, rec *FileRecord) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := nameNode.Utf8Text(source)
	qn := scope + "." + name

	rec.Entities = append(rec.Entities, Entity{
		QualifiedName:  qn,
		DisplayName:    name,
		Kind:           KindClass,
		SourceLocation: rec.Path,
		StartLine:      int(node.StartPosition().Row) + 1,
		EndLine:        int(node.EndPosition().Row) + 1,
	})
	rec.Contains = append(rec.Contains, Relation{Source: scope, Target: qn, Kind: EdgeKindContains})

	if supers := node.ChildByFieldName("superclasses"); supers != nil {
		for i := uint(0); i < supers.NamedChildCount(); i++ {
			arg := supers.NamedChild(i)
			if base, ok := baseName(arg, source); ok {
				rec.Inherits = append(rec.Inherits, InheritRef{Class: qn, Base: base})
			}
		}
	}

	if body := node.ChildByFieldName("body"); body != nil {
		e.walk(body, source, qn, rec)
	}
}

func (e *pyExtractor) extractFunction(node *tree_sitter.Node, source []byte, scope string, rec *FileRecord) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := nameNode.Utf8Text(source)
	qn := scope + "." + name

	rec.Entities = append(rec.Entities, Entity{
		QualifiedName:  qn,
		DisplayName:    name,
		Kind:           KindFunction,
		SourceLocation: rec.Path,
		StartLine:      int(node.StartPosition().Row) + 1,
		EndLine:        int(node.EndPosition().Row) + 1,
		Complexity:     cyclomaticComplexity(node),
	})
	rec.Contains = append(rec.Contains, Relation{Source: scope, Target: qn, Kind: EdgeKindContains})

	if body := node.ChildByFieldName("body"); body != nil {
		e.walk(body, source, qn, rec)
	}
}

// baseName extracts the literal base-class name from one superclass
// argument. Identifiers and dotted attributes are taken verbatim;
// subscripted generics fall back to their value expression. Keyword
// arguments (metaclass=...) and anything else are skipped.
func baseName(node *tree_sitter.Node, source []byte) (string, bool) {
	if node == nil {
		return "", false
	}
	switch node.Kind() {
	case "identifier", "attribute", "dotted_name":
		return node.Utf8Text(source), true
	case "subscript":
		return baseName(node.ChildByFieldName("value"), source)
	default:
		return "", false
	}
}

// extractImport handles "import a.b" and "import a.b as x" forms. Each
// listed module yields one ImportRef.
func (e *pyExtractor) extractImport(node *tree_sitter.Node, source []byte, rec *FileRecord) {
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "dotted_name":
			if mod := child.Utf8Text(source); mod != "" {
				rec.Imports = append(rec.Imports, ImportRef{Module: mod})
			}
		case "aliased_import":
			if nameNode := child.ChildByFieldName("name"); nameNode != nil {
				if mod := nameNode.Utf8Text(source); mod != "" {
					rec.Imports = append(rec.Imports, ImportRef{Module: mod})
				}
			}
		}
	}
}

// extractFromImport handles "from m import a, b", "from . import x",
// "from ..p import y" and "from m import *". One ImportRef is produced per
// imported name.
func (e *pyExtractor) extractFromImport(node *tree_sitter.Node, source []byte, rec *FileRecord) {
	module, level := fromImportModule(node, source)

	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if child == nil {
			continue
		}
		// The module_name field also matches dotted_name; skip it.
		if moduleNode := node.ChildByFieldName("module_name"); moduleNode != nil && child.Id() == moduleNode.Id() {
			continue
		}

		switch child.Kind() {
		case "dotted_name":
			if name := child.Utf8Text(source); name != "" {
				rec.Imports = append(rec.Imports, ImportRef{Module: module, Name: name, Level: level})
			}
		case "aliased_import":
			if nameNode := child.ChildByFieldName("name"); nameNode != nil {
				if name := nameNode.Utf8Text(source); name != "" {
					rec.Imports = append(rec.Imports, ImportRef{Module: module, Name: name, Level: level})
				}
			}
		case "wildcard_import":
			rec.Imports = append(rec.Imports, ImportRef{Module: module, Name: "*", Level: level})
		}
	}
}

// fromImportModule reads the module_name field of an import_from_statement:
// either a plain dotted_name (absolute import, level 0) or a
// relative_import whose leading dots encode the relative level.
func fromImportModule(node *tree_sitter.Node, source []byte) (module string, level int) {
	moduleNode := node.ChildByFieldName("module_name")
	if moduleNode == nil {
		return "", 0
	}

	switch moduleNode.Kind() {
	case "dotted_name":
		return moduleNode.Utf8Text(source), 0
	case "relative_import":
		text := moduleNode.Utf8Text(source)
		trimmed := strings.TrimLeft(text, ".")
		return trimmed, len(text) - len(trimmed)
	default:
		return moduleNode.Utf8Text(source), 0
	}
}
