package conversion

// FieldType identifies what a directive renders.
type FieldType int

const (
	// Unsupported marks a placeholder with no known field type.
	Unsupported FieldType = iota
	Date
	Level
	Logger
	Location
	Thread
	Message
	Exception
	File
	Class
	Method
	Marker
	NanoTime
	ProcessID
	RelativeTime
	SequenceNumber
	ThreadID
	ThreadPriority
	UUID
	FQCN
	Line
	NDC
	MDC
	Map
)

var fieldTypeNames = [...]string{
	Unsupported:    "unsupported",
	Date:           "date",
	Level:          "level",
	Logger:         "logger",
	Location:       "location",
	Thread:         "thread",
	Message:        "message",
	Exception:      "exception",
	File:           "file",
	Class:          "class",
	Method:         "method",
	Marker:         "marker",
	NanoTime:       "nano",
	ProcessID:      "pid",
	RelativeTime:   "relative",
	SequenceNumber: "sequence_number",
	ThreadID:       "thread_id",
	ThreadPriority: "thread_priority",
	UUID:           "uuid",
	FQCN:           "fqcn",
	Line:           "line",
	NDC:            "ndc",
	MDC:            "mdc",
	Map:            "map",
}

func (t FieldType) String() string {
	if t < 0 || int(t) >= len(fieldTypeNames) {
		return "unsupported"
	}
	return fieldTypeNames[t]
}

// Lookup maps a placeholder name to its field type. Names are
// case-sensitive: "c" is the logger and "C" the class.
func Lookup(placeholder string) FieldType {
	switch placeholder {
	case "d", "date":
		return Date
	case "p", "level":
		return Level
	case "c", "logger":
		return Logger
	case "K", "map", "MAP":
		return Map
	case "l", "location":
		return Location
	case "t", "tn", "thread", "threadName":
		return Thread
	case "m", "msg", "message":
		return Message
	case "ex", "exception", "throwable",
		"rEx", "rException", "rThrowable",
		"xEx", "xException", "xThrowable":
		return Exception
	case "F", "file":
		return File
	case "C", "class":
		return Class
	case "M", "method":
		return Method
	case "marker", "markerSimpleName":
		return Marker
	case "N", "nano":
		return NanoTime
	case "pid", "processId":
		return ProcessID
	case "r", "relative":
		return RelativeTime
	case "sn", "sequenceNumber":
		return SequenceNumber
	case "T", "tid", "threadId":
		return ThreadID
	case "tp", "threadPriority":
		return ThreadPriority
	case "u", "uuid":
		return UUID
	case "fqcn":
		return FQCN
	case "L", "line":
		return Line
	case "x", "NDC":
		return NDC
	case "X", "MDC", "mdc":
		return MDC
	}
	return Unsupported
}

// Numeric reports whether the field renders an integer.
func (t FieldType) Numeric() bool {
	switch t {
	case Line, NanoTime, ProcessID, RelativeTime, SequenceNumber, ThreadID, ThreadPriority:
		return true
	}
	return false
}

// Multiline reports whether the field may span several lines.
func (t FieldType) Multiline() bool {
	return t == Message || t == Exception
}

// FreeText reports whether the field matches arbitrary text and so needs
// a lazy match when literal text follows it.
func (t FieldType) FreeText() bool {
	switch t {
	case Logger, Thread, File, Class, Method, Map, NDC, MDC, Location, Marker, UUID, FQCN, Message, Exception:
		return true
	}
	return false
}
