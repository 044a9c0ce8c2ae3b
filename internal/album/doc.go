// Package album holds the album record that flows through the pipeline and
// the pure checks applied to it: source URL validation, catalog id
// extraction, and required-field validation.
package album
