package interfaces

// Severity of an event log entry. Values follow the host platform event
// log: 1 information, 2 warning, 3 error.
type Severity int

const (
	SeverityInfo    Severity = 1
	SeverityWarning Severity = 2
	SeverityError   Severity = 3
)

// IEventLogger is the fire-and-forget event log collaborator.
type IEventLogger interface {
	Log(severity Severity, message string)
}
