/*
Package scribe generates technical documentation for a list of technologies
by driving a step graph: prepare the input, draft an outline with an LLM,
research every technology on the web in parallel, merge both branches, and
write the final Markdown document.

# Concept

Scribe treats document generation as a flow of retryable steps. The engine
manages step transitions, bounded retries and branch synchronization, while
the host supplies the two capabilities the pipeline consumes: a text
generator (ports.Generator) and a web searcher (ports.Searcher). This
hexagonal split lets the same pipeline run behind a CLI, an HTTP API or an
MCP server.

# Key Features

  - Parallel fan-out: outline and research run concurrently and join at a
    merge step with a hard deadline.
  - Bounded retries: every step carries its own retry budget and backoff;
    input validation failures are never retried.
  - Typed errors: callers can distinguish bad input, an exhausted step, a
    merge timeout and an invalid document with errors.As.
  - Observability: lifecycle hooks expose step starts, retries and durations
    to loggers, metrics or event streams.

# Usage

Wire an Engine from the adapters in pkg/adapters and call Generate:

	package main

	import (
		"context"
		"fmt"
		"log"
		"os"

		"github.com/aretw0/scribe"
		"github.com/aretw0/scribe/pkg/adapters/duckduckgo"
		"github.com/aretw0/scribe/pkg/adapters/llm"
	)

	func main() {
		ctx := context.Background()

		gen, err := llm.New(ctx, llm.Config{APIKey: os.Getenv("OPENAI_API_KEY")})
		if err != nil {
			log.Fatal(err)
		}

		eng, err := scribe.New(gen, duckduckgo.New())
		if err != nil {
			log.Fatal(err)
		}

		doc, err := eng.Generate(ctx, []string{"Go", "Redis"})
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(doc.Markdown)
	}
*/
package scribe
