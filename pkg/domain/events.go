package domain

// Event is a named notification emitted by a node to the handlers registered
// on it and on its ancestors. It is immutable once constructed.
type Event struct {
	target Node
	name   string
	data   map[string]any
}

// NewEvent creates an event for target. A nil data map is replaced by an empty one.
func NewEvent(target Node, name string, data map[string]any) *Event {
	if data == nil {
		data = map[string]any{}
	}
	return &Event{target: target, name: name, data: data}
}

// Target returns the node that emitted the event.
func (e *Event) Target() Node { return e.target }

// Name returns the event name.
func (e *Event) Name() string { return e.name }

// Data returns the free-form payload. Handlers must not mutate it.
func (e *Event) Data() map[string]any { return e.data }

// Standard event names.
const (
	EventBeforeEdit = "before-edit"
	EventAfterEdit  = "after-edit"
	EventCreated    = "created"

	// EventWorkflowBeforePrefix and EventWorkflowAfterPrefix are suffixed with the action name.
	EventWorkflowBeforePrefix = "workflow-before-"
	EventWorkflowAfterPrefix  = "workflow-after-"
)
