package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldRequestID   = "request_id"
	FieldRecordingID = "recording_id"
	FieldController  = "controller"

	// Process fields
	FieldEvent     = "event"
	FieldComponent = "component"

	// Input fields
	FieldDevice = "device"
	FieldFrames = "frames"

	// Path fields
	FieldPath = "path"
)
