package convlog

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Entity is a text value together with its [Start, End) byte offsets in
// the decoded line.
type Entity struct {
	Value string `json:"value"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

func (e Entity) String() string {
	return fmt.Sprintf("%s[%d,%d]", e.Value, e.Start, e.End)
}

// LongEntity is an integer value with its offsets in the decoded line.
type LongEntity struct {
	Value int64 `json:"value"`
	Start int   `json:"start"`
	End   int   `json:"end"`
}

func (e LongEntity) String() string {
	return strconv.FormatInt(e.Value, 10) + fmt.Sprintf("[%d,%d]", e.Start, e.End)
}

// IntEntity is a small integer value with its offsets in the decoded line.
type IntEntity struct {
	Value int32 `json:"value"`
	Start int   `json:"start"`
	End   int   `json:"end"`
}

func (e IntEntity) String() string {
	return strconv.FormatInt(int64(e.Value), 10) + fmt.Sprintf("[%d,%d]", e.Start, e.End)
}

// Event is one decoded log line. A field is nil when the pattern has no
// directive for it or the directive captured only spaces.
type Event struct {
	// Layout names the decoder that produced the event.
	Layout string `json:"layout,omitempty"`
	// Timestamp is set by a date or nano-time directive.
	Timestamp time.Time `json:"timestamp,omitzero"`

	Level     *Entity `json:"level,omitempty"`
	Logger    *Entity `json:"logger,omitempty"`
	Thread    *Entity `json:"thread,omitempty"`
	Message   *Entity `json:"message,omitempty"`
	Throwable *Entity `json:"throwable,omitempty"`
	FileName  *Entity `json:"file_name,omitempty"`
	Class     *Entity `json:"class,omitempty"`
	Method    *Entity `json:"method,omitempty"`
	Location  *Entity `json:"location,omitempty"`
	Marker    *Entity `json:"marker,omitempty"`
	UUID      *Entity `json:"uuid,omitempty"`
	FQCN      *Entity `json:"fqcn,omitempty"`
	NDC       *Entity `json:"ndc,omitempty"`

	Line              *LongEntity `json:"line,omitempty"`
	ProcessID         *LongEntity `json:"process_id,omitempty"`
	RelativeTimestamp *LongEntity `json:"relative_timestamp,omitempty"`
	SequenceNumber    *LongEntity `json:"sequence_number,omitempty"`
	ThreadID          *LongEntity `json:"thread_id,omitempty"`
	ThreadPriority    *IntEntity  `json:"thread_priority,omitempty"`

	Map map[string]Entity `json:"map,omitempty"`
	MDC map[string]Entity `json:"mdc,omitempty"`

	// Raw is the decoded line. Decoders leave it empty; readers set it
	// when asked to keep the input.
	Raw string `json:"raw,omitempty"`
}

// ErrNoUUID is returned by UUIDValue when the event has no %u field.
var ErrNoUUID = errors.New("convlog: event has no uuid field")

// UUIDValue parses the %u field.
func (e *Event) UUIDValue() (uuid.UUID, error) {
	if e.UUID == nil {
		return uuid.Nil, ErrNoUUID
	}
	return uuid.Parse(e.UUID.Value)
}

func newEntity(line string, start, end int) *Entity {
	return &Entity{Value: line[start:end], Start: start, End: end}
}

func mergeEntities(dst, src map[string]Entity) map[string]Entity {
	if len(src) == 0 {
		return dst
	}
	if dst == nil {
		dst = make(map[string]Entity, len(src))
	}
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
