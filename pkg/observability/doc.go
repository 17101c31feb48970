/*
Package observability exposes pipeline execution as Prometheus metrics.

Metrics plugs into the engine through domain.LifecycleHooks: node durations,
retry counts and run outcomes are recorded as they happen, and Handler serves
them for scraping.
*/
package observability
