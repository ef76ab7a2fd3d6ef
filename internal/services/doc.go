// Package services defines shared utilities consumed by the ingestion
// pipeline stages.
//
// Key responsibilities:
//   - Context helpers that stamp raw item IDs, source IDs, stage names, and
//     correlation identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper that keep failure
//     classification (recoverable vs permanent) consistent across stages.
//
// Use these helpers when wiring new pipeline logic so operational behaviour
// (error handling, observability, retries) stays uniform.
package services
