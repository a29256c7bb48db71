package logging

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldImageID is the standardized key for catalog image identifiers.
	FieldImageID = "image_id"
	// FieldStage is the standardized key for the running command (scan, review).
	FieldStage = "stage"
	// FieldRunID is the standardized key for run identifiers.
	FieldRunID = "run_id"
	// FieldPath is the standardized key for the file being processed.
	FieldPath = "path"
	// FieldEventType classifies a log line for filtering.
	FieldEventType = "event_type"
	// FieldErrorHint carries the suggested next step for a failure.
	FieldErrorHint = "error_hint"
	// FieldDecisionType names the decision a log line records.
	FieldDecisionType = "decision_type"
	// FieldImpact is the standardized key for user-facing consequence of a warning.
	FieldImpact = "impact"
)
