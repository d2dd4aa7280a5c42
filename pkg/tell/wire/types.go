package wire

// SchemaType routes a batch to the right decoder on the collector side.
type SchemaType uint8

const (
	SchemaUnknown SchemaType = 0
	SchemaEvent   SchemaType = 1
	SchemaLog     SchemaType = 2
)

// EventType tags an analytics event. Enrich and Context are reserved slots
// in the wire schema; the ingress API never produces them.
type EventType uint8

const (
	EventUnknown  EventType = 0
	EventTrack    EventType = 1
	EventIdentify EventType = 2
	EventGroup    EventType = 3
	EventAlias    EventType = 4
	EventEnrich   EventType = 5
	EventContext  EventType = 6
)

// LogEventType tags a log entry. Enrich is reserved.
type LogEventType uint8

const (
	LogEventUnknown LogEventType = 0
	LogEventLog     LogEventType = 1
	LogEventEnrich  LogEventType = 2
)

// LogLevel is the RFC 5424 severity ordinal extended with Trace.
type LogLevel uint8

const (
	LevelEmergency LogLevel = 0
	LevelAlert     LogLevel = 1
	LevelCritical  LogLevel = 2
	LevelError     LogLevel = 3
	LevelWarning   LogLevel = 4
	LevelNotice    LogLevel = 5
	LevelInfo      LogLevel = 6
	LevelDebug     LogLevel = 7
	LevelTrace     LogLevel = 8
)

func (l LogLevel) String() string {
	switch l {
	case LevelEmergency:
		return "emergency"
	case LevelAlert:
		return "alert"
	case LevelCritical:
		return "critical"
	case LevelError:
		return "error"
	case LevelWarning:
		return "warning"
	case LevelNotice:
		return "notice"
	case LevelInfo:
		return "info"
	case LevelDebug:
		return "debug"
	case LevelTrace:
		return "trace"
	}
	return "unknown"
}
