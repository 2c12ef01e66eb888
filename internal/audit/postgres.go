package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type PostgresRecorder struct {
	db *sql.DB
}

func NewPostgresRecorder(db *sql.DB) *PostgresRecorder {
	return &PostgresRecorder{db: db}
}

func (r *PostgresRecorder) RecordTransition(ctx context.Context, e Event) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.At.IsZero() {
		e.At = time.Now()
	}

	query := `
		INSERT INTO prescription_audit
			(id, consultation_id, from_status, to_status, actor, command, override, override_reason, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.ExecContext(ctx, query,
		e.ID, e.ConsultationID, e.From, e.To, e.Actor, e.Command, e.Override, e.OverrideReason, e.At)
	if err != nil {
		return fmt.Errorf("record transition: %w", err)
	}
	return nil
}

// RecentTransitions returns the latest recorded transitions for one
// consultation, newest first.
func (r *PostgresRecorder) RecentTransitions(ctx context.Context, consultationID string, limit int) ([]Event, error) {
	query := `
		SELECT id, consultation_id, from_status, to_status, actor, command, override, override_reason, occurred_at
		FROM prescription_audit
		WHERE consultation_id = $1
		ORDER BY occurred_at DESC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, consultationID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.ConsultationID, &e.From, &e.To, &e.Actor, &e.Command, &e.Override, &e.OverrideReason, &e.At); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
