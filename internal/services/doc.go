// Package services defines shared utilities consumed by the album pipeline and
// its external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp correlation identifiers, stage names, and
//     picker codes for logging.
//   - Structured error markers plus the Wrap helper that let the pipeline
//     classify adapter failures without string matching.
//
// Use these helpers when wiring new integrations so error handling and
// observability stay uniform across the pipeline.
package services
