// Package preflight provides readiness checks for the external services and
// local paths aotw depends on.
//
// "aotw doctor" runs RunAll and renders the results as a table. Checks for
// optional features (publishing, alternate links) are skipped when the
// feature is disabled.
package preflight
