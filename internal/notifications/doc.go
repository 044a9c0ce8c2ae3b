// Package notifications delivers pipeline events to ntfy.
//
// NewService returns a no-op implementation when no topic is configured, and
// each event type can be switched off in config.toml. Callers log delivery
// failures and carry on; a missed notification never changes a pipeline
// result.
package notifications
