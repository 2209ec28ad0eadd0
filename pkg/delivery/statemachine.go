package delivery

import (
	"fmt"

	"github.com/dmitrymomot/notifykit/pkg/notification"
)

// Event triggers a notification status transition.
type Event string

const (
	// EventDelivered fires when every attempted channel succeeded.
	EventDelivered Event = "delivered"

	// EventRetry fires on a failed attempt with retries remaining.
	EventRetry Event = "retry"

	// EventFail fires when no retries remain.
	EventFail Event = "fail"

	// EventReopen is the operator-only escape hatch re-arming a terminal
	// Failed notification for one more fan-out.
	EventReopen Event = "reopen"
)

// StatusMachine validates notification status transitions against a
// fixed table. The automated path can never leave Delivered or Failed;
// only EventReopen reopens Failed.
type StatusMachine struct {
	transitions map[notification.Status]map[Event]notification.Status
}

// NewStatusMachine builds the delivery status transition table.
func NewStatusMachine() *StatusMachine {
	return &StatusMachine{
		transitions: map[notification.Status]map[Event]notification.Status{
			notification.StatusPending: {
				EventDelivered: notification.StatusDelivered,
				EventRetry:     notification.StatusRetrying,
				EventFail:      notification.StatusFailed,
			},
			notification.StatusRetrying: {
				EventDelivered: notification.StatusDelivered,
				EventRetry:     notification.StatusRetrying,
				EventFail:      notification.StatusFailed,
			},
			notification.StatusFailed: {
				EventReopen: notification.StatusPending,
			},
		},
	}
}

// Transition returns the status reached by firing event from the given
// status, or ErrInvalidTransition when the table has no such move.
func (m *StatusMachine) Transition(from notification.Status, event Event) (notification.Status, error) {
	if to, ok := m.transitions[from][event]; ok {
		return to, nil
	}
	return "", fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, event)
}

// Can reports whether the event is valid from the given status.
func (m *StatusMachine) Can(from notification.Status, event Event) bool {
	_, ok := m.transitions[from][event]
	return ok
}
