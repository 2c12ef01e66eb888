// Package audit keeps a local record of prescription lifecycle transitions.
// The consultation service owns the state; this trail answers "who moved
// what, when, and was an override involved" without a round trip.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"telemed-portal/internal/consultation"
)

// Event is one recorded transition.
type Event struct {
	ID             uuid.UUID
	ConsultationID string
	From           consultation.PrescriptionStatus
	To             consultation.PrescriptionStatus
	Actor          string
	Command        string
	Override       bool
	OverrideReason string
	At             time.Time
}

type Recorder interface {
	RecordTransition(ctx context.Context, e Event) error
}

// Nop is the recorder used when no database is configured. Transitions are
// simply not persisted.
type Nop struct{}

func (Nop) RecordTransition(ctx context.Context, e Event) error { return nil }
