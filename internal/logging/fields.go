package logging

// Keys of structured log fields. Commands use these instead of literals so
// the same value is always logged under the same key.
const (
	FieldError = "error"
	FieldPath  = "path"
	FieldFiles = "files"

	// Configuration.
	FieldFlavor  = "flavor"
	FieldStore   = "store"
	FieldDryRun  = "dry_run"
	FieldBackups = "backups"
	FieldBackup  = "backup"

	// Positions in cleaned or rendered text.
	FieldStart   = "start"
	FieldEnd     = "end"
	FieldRange   = "range"
	FieldCleaned = "cleaned"

	// Marks and history.
	FieldMarkID    = "mark_id"
	FieldMarks     = "marks"
	FieldShifted   = "shifted"
	FieldFlagged   = "flagged"
	FieldHistoryID = "history_id"

	// watch
	FieldEvent    = "event"
	FieldDebounce = "debounce"

	// version
	FieldVersion = "version"
	FieldCommit  = "commit"
	FieldBuilt   = "built"
)
