// Package retry runs an operation under a bounded exponential backoff policy.
// Only errors the policy classifies as retryable are retried; the final error
// is returned unchanged so callers can inspect it with errors.Is/As.
package retry
