package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event represents a security/audit event.
// Type examples: "auth.partner.login.success", "messaging.email.sent"
// Meta may contain provider, business group, recipient, etc.
type Event struct {
	Type   string
	UserID uuid.UUID
	Meta   map[string]string
	Time   time.Time
}

// Publisher publishes events to an external system (log, queue, etc.).
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}
