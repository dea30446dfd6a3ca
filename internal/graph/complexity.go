package graph

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// cyclomaticComplexity computes McCabe's cyclomatic complexity for a
// function definition: one plus the number of decision points in its
// subtree. Branch statements, exception handlers, boolean operators,
// conditional expressions and comprehension clauses each add a path.
func cyclomaticComplexity(fn *tree_sitter.Node) int {
	return 1 + countDecisionPoints(fn)
}

func countDecisionPoints(node *tree_sitter.Node) int {
	count := 0
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "if_statement", "elif_clause", "while_statement", "for_statement",
			"except_clause", "boolean_operator", "conditional_expression",
			"if_clause", "for_in_clause", "case_clause":
			count++
		}
		count += countDecisionPoints(child)
	}
	return count
}
