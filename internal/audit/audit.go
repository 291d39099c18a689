// Package audit records who changed what on a presentation.
package audit

import "time"

// Action describes what was done.
type Action string

const (
	ActionCreated           Action = "created"
	ActionSlideChanged      Action = "slide_changed"
	ActionPresenterAssigned Action = "presenter_assigned"
	ActionPresentingStarted Action = "presenting_started"
	ActionPresentingStopped Action = "presenting_stopped"
	ActionVisibilityChanged Action = "visibility_changed"
	ActionMetadataUpdated   Action = "metadata_updated"
	ActionSettingsUpdated   Action = "settings_updated"
)

// Valid reports whether a is one of the known actions.
func (a Action) Valid() bool {
	switch a {
	case ActionCreated, ActionSlideChanged, ActionPresenterAssigned, ActionPresentingStarted,
		ActionPresentingStopped, ActionVisibilityChanged, ActionMetadataUpdated, ActionSettingsUpdated:
		return true
	}
	return false
}

// Entry is a single change record.
type Entry struct {
	ID             string    `json:"id"`
	Timestamp      time.Time `json:"timestamp"`
	PresentationID string    `json:"presentationId"`
	ActorID        string    `json:"actorId"`
	Session        string    `json:"session,omitempty"`
	Seq            uint64    `json:"seq,omitempty"`
	Action         Action    `json:"action"`
	Summary        string    `json:"summary"`
	PreviousValue  string    `json:"previousValue,omitempty"`
	NewValue       string    `json:"newValue,omitempty"`
}
