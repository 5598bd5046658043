package framework

import (
	"github.com/google/uuid"
)

// Event is one lifecycle, relation or custom event delivered to observers.
type Event struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	RelationName string            `json:"relationName,omitempty"`
	RelationID   int               `json:"relationId,omitempty"`
	RemoteApp    string            `json:"remoteApp,omitempty"`
	RemoteUnit   string            `json:"remoteUnit,omitempty"`
	Attributes   map[string]string `json:"attributes,omitempty"`

	deferred bool
}

// NewEvent returns an event with a fresh id.
func NewEvent(name string) *Event {
	return &Event{
		ID:   uuid.New().String(),
		Name: name,
	}
}

// Defer asks the framework to deliver the event to the current observer again
// at the start of a later dispatch.
func (e *Event) Defer() {
	e.deferred = true
}

func (e *Event) Deferred() bool {
	return e.deferred
}

// copyFor returns a fresh copy of the event for delivery to one observer, so
// a deferral by one observer does not leak to the next.
func (e *Event) copyFor() *Event {
	c := *e
	c.deferred = false
	if e.Attributes != nil {
		c.Attributes = make(map[string]string, len(e.Attributes))
		for k, v := range e.Attributes {
			c.Attributes[k] = v
		}
	}
	return &c
}
