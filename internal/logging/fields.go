package logging

const (
	// FieldComponent is the structured logging key for component names.
	FieldComponent = "component"
	// FieldStage is the structured logging key for pipeline stage names.
	FieldStage = "stage"
	// FieldPicker is the structured logging key for the submitting picker code.
	FieldPicker = "picker"
	// FieldCorrelationID is the structured logging key for run correlation identifiers.
	FieldCorrelationID = "correlation_id"
	// FieldEventType classifies a log line for filtering (stage_start, duplicate_detected, ...).
	FieldEventType = "event_type"
	// FieldErrorHint carries the operator's next step for warnings and errors.
	FieldErrorHint = "error_hint"
	// FieldImpact is the user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldAlbumID is the catalog identifier of the album being processed.
	FieldAlbumID = "album_id"
	// FieldPick is the ledger pick number.
	FieldPick = "pick"
)
