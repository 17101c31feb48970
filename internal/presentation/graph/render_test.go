package graph_test

import (
	"strings"
	"testing"

	"github.com/aretw0/scribe/internal/pipeline"
	"github.com/aretw0/scribe/internal/presentation/graph"
	"github.com/aretw0/scribe/pkg/flow"
)

func TestMermaid(t *testing.T) {
	tests := []struct {
		name     string
		edges    []flow.Edge
		contains []string
	}{
		{
			name:  "parallel pipeline shapes",
			edges: pipeline.Edges(false),
			contains: []string{
				"graph TD",
				`prepare(("prepare"))`,
				`write[["write"]]`,
				`merge["merge"]`,
				"prepare --> outline",
				"prepare --> research",
				"research --> merge",
				"merge --> write",
			},
		},
		{
			name: "id sanitization",
			edges: []flow.Edge{
				{From: "path/to.step", On: flow.ActionDefault, To: "hyphen-ated"},
			},
			contains: []string{
				`path_to_step(("path/to.step"))`,
				`hyphen_ated[["hyphen-ated"]]`,
				"path_to_step --> hyphen_ated",
			},
		},
		{
			name: "action label escaping",
			edges: []flow.Edge{
				{From: "gate", On: flow.ActionOf(`say "yes"`), To: "accept"},
			},
			contains: []string{
				`-- "say 'yes'" -->`,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := graph.Mermaid(tt.edges)
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("Mermaid() = \n%v\nWant substring: %v", got, want)
				}
			}
		})
	}
}

func TestDot(t *testing.T) {
	got := graph.Dot(pipeline.Edges(true))

	for _, want := range []string{
		"digraph pipeline {",
		`"prepare" [shape=circle];`,
		`"write" [shape=doubleoctagon];`,
		`"outline" [shape=box];`,
		`"prepare" -> "outline";`,
		`"merge" -> "write";`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("Dot() = \n%v\nWant substring: %v", got, want)
		}
	}
}

func TestText(t *testing.T) {
	got := graph.Text([]flow.Edge{
		{From: "prepare", On: flow.ActionDefault, To: "merge"},
		{From: "gate", On: flow.ActionOf("retry"), To: "gate"},
	})

	want := "prepare -> merge\ngate -[retry]-> gate\n"
	if got != want {
		t.Errorf("Text() = %q, want %q", got, want)
	}
}

func TestRenderRejectsUnknownFormat(t *testing.T) {
	if _, err := graph.Render(nil, graph.Format("svg")); err == nil {
		t.Fatal("Render() with unknown format: want error, got nil")
	}
}

func TestRenderDefaultsToText(t *testing.T) {
	got, err := graph.Render(pipeline.Edges(true), "")
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if !strings.Contains(got, "prepare -> outline") {
		t.Errorf("Render() = %q, want text edges", got)
	}
}
