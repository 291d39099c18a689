// Package webhooks delivers presentation history to HTTP subscribers.
package webhooks

import (
	"time"

	"github.com/ziadkadry99/zoomdeck/internal/audit"
)

// HeaderEvent carries the action of a delivered entry.
const HeaderEvent = "X-Zoomdeck-Event"

// Webhook is a subscription to the history of one presentation.
type Webhook struct {
	ID             string `json:"id"`
	PresentationID string `json:"presentationId"`
	URL            string `json:"url"`
	// Actions limits delivery to the listed actions. Empty means all.
	Actions        []audit.Action `json:"actions"`
	CreatedByID    string         `json:"createdById"`
	CreatedAt      time.Time      `json:"createdAt"`
	LastStatus     int            `json:"lastStatus,omitempty"`
	LastError      string         `json:"lastError,omitempty"`
	LastDeliveryAt *time.Time     `json:"lastDeliveryAt,omitempty"`
}

// Wants reports whether w subscribes to action.
func (w Webhook) Wants(action audit.Action) bool {
	if len(w.Actions) == 0 {
		return true
	}
	for _, a := range w.Actions {
		if a == action {
			return true
		}
	}
	return false
}

// Delivery is the body POSTed to a subscriber.
type Delivery struct {
	WebhookID string      `json:"webhookId"`
	Entry     audit.Entry `json:"entry"`
}
