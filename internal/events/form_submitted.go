package events

import (
	"time"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/forms"
)

// FormSubmittedPayload leaves out the submitted field values; downstream
// consumers only need to know that a request came in.
type FormSubmittedPayload struct {
	Kind        string    `json:"kind"`
	Code        string    `json:"code,omitempty"`
	SessionID   string    `json:"sessionId"`
	SubmittedAt time.Time `json:"submittedAt"`
}

type FormSubmittedEvent = EventEnvelope[FormSubmittedPayload]

func NewFormSubmittedPayload(sessionID string, r forms.Receipt) FormSubmittedPayload {
	return FormSubmittedPayload{
		Kind:        string(r.Kind),
		Code:        r.Code,
		SessionID:   sessionID,
		SubmittedAt: r.SubmittedAt,
	}
}
