// Package services defines shared utilities consumed by the update workflow
// and the external command integrations.
//
// Key responsibilities:
//   - Context helpers that stamp manager names, stage names, and run
//     identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper that classify failures
//     (stage exit vs lookup vs spawn vs interruption) for consistent
//     outcome reporting.
//
// Use these helpers when wiring new manager logic so operational behaviour
// (error handling, observability) stays uniform across the pipeline.
package services
