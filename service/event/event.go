// Package event distributes typed engine notifications, one queue per
// payload type plus a catch-all queue that sees everything.  The engine
// publishes pass lifecycle and importance transition payloads; hosts
// subscribe with typed listeners.
package event

import "time"

// Context identifies where in the engine an event originated.
type Context struct {
	PassID      string `json:"passID"`
	Process     string `json:"process,omitempty"`
	EventType   string `json:"eventType"`
	TimeTakenMs int    `json:"timeTakenMs,omitempty"`
}

type Event[T any] struct {
	Context   *Context               `json:"context"`
	CreatedAt time.Time              `json:"createdAt"`
	Metadata  map[string]interface{} `json:"metadata"`
	Data      T                      `json:"data"`
}

func NewEvent[T any](context *Context, data T) *Event[T] {
	return &Event[T]{
		Context:   context,
		CreatedAt: time.Now(),
		Metadata:  make(map[string]interface{}),
		Data:      data,
	}
}
