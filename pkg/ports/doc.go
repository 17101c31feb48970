/*
Package ports defines the driven ports (interfaces) of the pipeline.

These interfaces decouple the generation steps and the service layer from
concrete integrations, so the same pipeline runs against a live model and
search engine in production and against stubs in tests.

# Key Interfaces

  - Generator: produces text from a prompt (backed by an LLM).
  - Searcher: fetches a web-search summary for a query.
  - RunStore: persists service run records (memory or Redis).
  - Archive: writes finished documents somewhere durable.
*/
package ports
