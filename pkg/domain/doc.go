/*
Package domain contains the core domain models for the scribe pipeline.

It defines the entities shared by the engine, the pipeline, and the service
layer: the per-run State, the document model (Outline, Research, Document),
the error taxonomy, and the lifecycle events emitted during a run. This
package is kept pure and free of external dependencies like I/O or
persistence, following Hexagonal Architecture principles.

# Key Entities

  - State: the single mutable context shared by all steps of one run.
  - Outline / Research / Document: the intermediate and final artifacts.
  - Run: the service-level record of a generation request.
  - InputError / StepError / SyncTimeoutError / OutputError: the failure
    taxonomy surfaced to callers.
*/
package domain
