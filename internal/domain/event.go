package domain

// EventKind tags the payload variant of an Event.
type EventKind string

const (
	EventText  EventKind = "text"
	EventImage EventKind = "image"
)

// Event is one unit relayed between paired devices: either raw text or a
// base64-encoded image. Construct via NewTextEvent / NewImageEvent so the
// kind stays within the closed set; the relay's wire encoder rejects
// anything else. Immutable once constructed, never persisted.
type Event struct {
	kind EventKind
	data string
}

func NewTextEvent(text string) Event {
	return Event{kind: EventText, data: text}
}

func NewImageEvent(base64Image string) Event {
	return Event{kind: EventImage, data: base64Image}
}

func (e Event) Kind() EventKind { return e.kind }
func (e Event) Data() string    { return e.data }
