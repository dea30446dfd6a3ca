package graph

// --- Enums ---

// EntityKind classifies nodes in the project structure graph.
type EntityKind string

const (
	KindPackage  EntityKind = "package"
	KindModule   EntityKind = "module"
	KindClass    EntityKind = "class"
	KindFunction EntityKind = "function"
	KindExternal EntityKind = "external"
)

// EdgeKind classifies relationships between entities.
type EdgeKind string

const (
	EdgeKindContains EdgeKind = "CONTAINS"
	EdgeKindInherits EdgeKind = "INHERITS"
	EdgeKindImports  EdgeKind = "IMPORTS"
)

// Language identifies a programming language for parsing.
type Language string

const (
	LangPython Language = "python"
)

// --- Models ---

// Entity is a named structural element of the analyzed project. The
// qualified name is the dotted path derived from file location and syntactic
// nesting (e.g. "pkg.mod.Class.method") and serves as graph node identity.
// External library nodes carry no source location.
type Entity struct {
	QualifiedName  string     `json:"qualifiedName"`
	DisplayName    string     `json:"displayName"`
	Kind           EntityKind `json:"kind"`
	SourceLocation string     `json:"sourceLocation,omitempty"`
	StartLine      int        `json:"startLine,omitempty"`
	EndLine        int        `json:"endLine,omitempty"`
	Complexity     int        `json:"complexity,omitempty"`
}

// Relation is a directed, typed edge between two entity identities.
type Relation struct {
	Source string   `json:"source"`
	Target string   `json:"target"`
	Kind   EdgeKind `json:"kind"`
}

// WarningKind classifies non-fatal conditions recorded during a build.
type WarningKind string

const (
	WarnParseFailure       WarningKind = "parse_failure"
	WarnUnreadableFile     WarningKind = "unreadable_file"
	WarnUnresolvedRelative WarningKind = "unresolved_relative"
)

// Warning records a recovered per-file or per-relationship condition.
// Warnings never abort a build.
type Warning struct {
	File    string      `json:"file"`
	Kind    WarningKind `json:"kind"`
	Message string      `json:"message"`
}

// GraphStats summarizes a built project graph.
type GraphStats struct {
	PackageCount  int `json:"packageCount"`
	ModuleCount   int `json:"moduleCount"`
	ClassCount    int `json:"classCount"`
	FunctionCount int `json:"functionCount"`
	ExternalCount int `json:"externalCount"`
	EdgeCount     int `json:"edgeCount"`
}

// EntityCount is the total number of nodes, external libraries included.
func (s GraphStats) EntityCount() int {
	return s.PackageCount + s.ModuleCount + s.ClassCount + s.FunctionCount + s.ExternalCount
}

// DependencyChain is an ordered sequence of entity identities forming a
// relationship path through the graph.
type DependencyChain struct {
	Nodes []string `json:"nodes"` // qualified names in order
	Depth int      `json:"depth"`
}

// DisplayName derives the short human-readable label from a qualified name:
// the last dotted segment.
func DisplayName(qualifiedName string) string {
	for i := len(qualifiedName) - 1; i >= 0; i-- {
		if qualifiedName[i] == '.' {
			return qualifiedName[i+1:]
		}
	}
	return qualifiedName
}

// RootName returns the first dotted segment of a name. External library
// nodes are keyed by the root identifier of the imported path, so that all
// references to the same library collapse onto one node.
func RootName(name string) string {
	for i := 0; i < len(name); i++ {
		if name[i] == '.' {
			return name[:i]
		}
	}
	return name
}
