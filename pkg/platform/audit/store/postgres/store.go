// Package postgres implements audit.Store using PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	id "induct/pkg/domain"
	"induct/pkg/platform/audit"
)

// Store implements audit.Store using PostgreSQL.
type Store struct {
	db *sql.DB
}

// New creates a new PostgreSQL audit store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Append inserts an audit event into the audit_events table.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	query := `
		INSERT INTO audit_events (
			id, timestamp, action, personnel_id, operator_id,
			stage, detail, request_id, terminal
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := s.db.ExecContext(ctx, query,
		uuid.New(),
		event.Timestamp,
		event.Action,
		uuid.UUID(event.PersonnelID),
		event.OperatorID,
		event.Stage,
		event.Detail,
		event.RequestID,
		event.Terminal,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// ListByPersonnel returns the audit trail for one personnel record, oldest first.
func (s *Store) ListByPersonnel(ctx context.Context, personnelID id.PersonnelID) ([]audit.Event, error) {
	query := `
		SELECT timestamp, action, personnel_id, operator_id, stage, detail, request_id, terminal
		FROM audit_events
		WHERE personnel_id = $1
		ORDER BY timestamp ASC
	`

	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(personnelID))
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		var e audit.Event
		var pid uuid.UUID
		if err := rows.Scan(&e.Timestamp, &e.Action, &pid, &e.OperatorID, &e.Stage, &e.Detail, &e.RequestID, &e.Terminal); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		e.PersonnelID = id.PersonnelID(pid)
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}
