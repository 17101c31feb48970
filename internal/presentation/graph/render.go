// Package graph renders the pipeline step graph for humans: plain text for
// terminals, Mermaid flowchart syntax for docs, Graphviz dot for tooling.
package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/scribe/pkg/flow"
)

// Format selects a rendering syntax.
type Format string

const (
	FormatText    Format = "text"
	FormatMermaid Format = "mermaid"
	FormatDot     Format = "dot"
)

// Render formats edges in the requested syntax. An empty format means text.
func Render(edges []flow.Edge, format Format) (string, error) {
	switch format {
	case "", FormatText:
		return Text(edges), nil
	case FormatMermaid:
		return Mermaid(edges), nil
	case FormatDot:
		return Dot(edges), nil
	}
	return "", fmt.Errorf("unknown graph format %q", format)
}

// Text renders one edge per line. Non-default actions label the arrow.
func Text(edges []flow.Edge) string {
	var sb strings.Builder
	for _, e := range edges {
		if e.On == flow.ActionDefault {
			fmt.Fprintf(&sb, "%s -> %s\n", e.From, e.To)
		} else {
			fmt.Fprintf(&sb, "%s -[%s]-> %s\n", e.From, e.On, e.To)
		}
	}
	return sb.String()
}

// Mermaid produces Mermaid flowchart syntax. The start node (no incoming
// edges) is drawn as a circle, sinks (no outgoing edges) as subroutines.
func Mermaid(edges []flow.Edge) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	incoming, outgoing := degrees(edges)
	for _, name := range nodeOrder(edges) {
		safeID := sanitizeID(name)

		opener, closer := "[", "]"
		switch {
		case incoming[name] == 0:
			opener, closer = "((", "))" // Circle
		case outgoing[name] == 0:
			opener, closer = "[[", "]]" // Subroutine
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", safeID, opener, name, closer)
	}

	for _, e := range edges {
		arrow := "-->"
		if e.On != flow.ActionDefault {
			// Escape double quotes in the action for the Mermaid label.
			safeAction := strings.ReplaceAll(string(e.On), "\"", "'")
			arrow = fmt.Sprintf("-- \"%s\" -->", safeAction)
		}
		fmt.Fprintf(&sb, "    %s %s %s\n", sanitizeID(e.From), arrow, sanitizeID(e.To))
	}
	return sb.String()
}

// Dot produces Graphviz dot syntax.
func Dot(edges []flow.Edge) string {
	var sb strings.Builder
	sb.WriteString("digraph pipeline {\n")
	sb.WriteString("    rankdir=TB;\n")

	incoming, outgoing := degrees(edges)
	for _, name := range nodeOrder(edges) {
		shape := "box"
		switch {
		case incoming[name] == 0:
			shape = "circle"
		case outgoing[name] == 0:
			shape = "doubleoctagon"
		}
		fmt.Fprintf(&sb, "    %q [shape=%s];\n", name, shape)
	}

	for _, e := range edges {
		if e.On == flow.ActionDefault {
			fmt.Fprintf(&sb, "    %q -> %q;\n", e.From, e.To)
		} else {
			fmt.Fprintf(&sb, "    %q -> %q [label=%q];\n", e.From, e.To, string(e.On))
		}
	}
	sb.WriteString("}\n")
	return sb.String()
}

// nodeOrder lists node names in first-appearance order, so output stays
// stable across runs.
func nodeOrder(edges []flow.Edge) []string {
	var order []string
	seen := make(map[string]bool)
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			order = append(order, name)
		}
	}
	for _, e := range edges {
		add(e.From)
		add(e.To)
	}
	return order
}

func degrees(edges []flow.Edge) (incoming, outgoing map[string]int) {
	incoming = make(map[string]int)
	outgoing = make(map[string]int)
	for _, e := range edges {
		outgoing[e.From]++
		incoming[e.To]++
	}
	return incoming, outgoing
}

// sanitizeID makes a node name a valid Mermaid identifier.
func sanitizeID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	return s
}
