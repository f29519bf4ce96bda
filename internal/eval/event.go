package eval

import (
	"time"

	"github.com/google/uuid"
)

// Binding names under which the triggering event is exposed to scripts.
// Both names resolve to the same script value.
const (
	BindingEvent       = "event"
	BindingActionEvent = "actionEvent"
)

// Event describes what triggered a run.
type Event struct {
	ID      string    `json:"id"`
	Trigger string    `json:"trigger"`
	Workdir string    `json:"workdir"`
	Time    time.Time `json:"time"`
	Args    []string  `json:"args"`
}

// NewEvent creates an event with a fresh id, stamped with the current time.
func NewEvent(trigger, workdir string, args ...string) *Event {
	return &Event{
		ID:      uuid.NewString(),
		Trigger: trigger,
		Workdir: workdir,
		Time:    time.Now(),
		Args:    args,
	}
}
