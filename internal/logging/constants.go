package logging

// Standard field names used across the pipeline so log lines can be queried
// consistently.
const (
	FieldFile       = "file_path"
	FieldEntry      = "entry"
	FieldActivityID = "activity_id"
	FieldKind       = "kind"
	FieldState      = "state"
	FieldAttempt    = "attempt"
	FieldOperation  = "operation"
	FieldStatus     = "status"
	FieldError      = "error"
	FieldDuration   = "duration_ms"
	FieldCount      = "count"
	FieldBatch      = "batch"
	FieldRemotePath = "remote_path"
	FieldLocalPath  = "local_path"
	FieldDryRun     = "dry_run"
	FieldComponent  = "component"
)
