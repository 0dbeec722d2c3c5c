package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"induct/internal/onboarding/models"
	"induct/internal/sentinel"
	id "induct/pkg/domain"
)

// Postgres persists personnel records in PostgreSQL.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed record store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Create inserts a new record. The unique index on lower(email) enforces one
// enrollment per email.
func (s *Postgres) Create(ctx context.Context, record *models.PersonnelRecord) error {
	if record == nil {
		return fmt.Errorf("record is required")
	}
	query := `
		INSERT INTO personnel_records (id, full_name, email, stage, rfid_code, user_linked, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(record.ID),
		record.FullName,
		record.Email,
		record.Stage,
		record.RFIDCode,
		record.UserLinked,
		record.CreatedAt,
		record.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("email already enrolled: %w", sentinel.ErrAlreadyUsed)
		}
		return fmt.Errorf("create personnel record: %w", err)
	}
	return nil
}

// FindByID retrieves a record by its UUID.
func (s *Postgres) FindByID(ctx context.Context, personnelID id.PersonnelID) (*models.PersonnelRecord, error) {
	query := selectRecords + ` WHERE id = $1`
	record, err := scanRecord(s.db.QueryRowContext(ctx, query, uuid.UUID(personnelID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find personnel record: %w", err)
	}
	return record, nil
}

// ListAll returns every record, oldest first.
func (s *Postgres) ListAll(ctx context.Context) ([]*models.PersonnelRecord, error) {
	return s.queryRecords(ctx, selectRecords+` ORDER BY created_at, id`)
}

// UpdateStage advances the record with a compare-and-set on the stored stage.
func (s *Postgres) UpdateStage(ctx context.Context, personnelID id.PersonnelID, expectedStage, newStage int, rfidCode string) error {
	query := `
		UPDATE personnel_records
		SET stage = $3,
		    rfid_code = CASE WHEN $4 <> '' THEN $4 ELSE rfid_code END,
		    updated_at = now()
		WHERE id = $1 AND stage = $2
	`
	res, err := s.db.ExecContext(ctx, query, uuid.UUID(personnelID), expectedStage, newStage, rfidCode)
	if err != nil {
		return fmt.Errorf("update stage: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update stage rows: %w", err)
	}
	if rows == 0 {
		// Distinguish a missing record from a stale expected stage.
		if _, findErr := s.FindByID(ctx, personnelID); errors.Is(findErr, sentinel.ErrNotFound) {
			return sentinel.ErrNotFound
		}
		return fmt.Errorf("stage changed since read: %w", sentinel.ErrInvalidState)
	}
	return nil
}

// MarkLinked flips user_linked exactly once; the WHERE clause makes the flip
// race-proof across concurrent provisioning attempts.
func (s *Postgres) MarkLinked(ctx context.Context, personnelID id.PersonnelID, accountID id.AccountID, groupID id.GroupID) error {
	query := `
		UPDATE personnel_records
		SET user_linked = TRUE, account_id = $2, group_id = $3, updated_at = now()
		WHERE id = $1 AND user_linked = FALSE
	`
	var groupArg uuid.NullUUID
	if !groupID.IsNil() {
		groupArg = uuid.NullUUID{UUID: uuid.UUID(groupID), Valid: true}
	}
	res, err := s.db.ExecContext(ctx, query, uuid.UUID(personnelID), uuid.UUID(accountID), groupArg)
	if err != nil {
		return fmt.Errorf("mark linked: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark linked rows: %w", err)
	}
	if rows == 0 {
		if _, findErr := s.FindByID(ctx, personnelID); errors.Is(findErr, sentinel.ErrNotFound) {
			return sentinel.ErrNotFound
		}
		return fmt.Errorf("record already linked: %w", sentinel.ErrAlreadyUsed)
	}
	return nil
}

const selectRecords = `
	SELECT id, full_name, email, stage, rfid_code, user_linked, account_id, group_id, created_at, updated_at
	FROM personnel_records`

func (s *Postgres) queryRecords(ctx context.Context, query string, args ...any) ([]*models.PersonnelRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list personnel records: %w", err)
	}
	defer rows.Close()

	var out []*models.PersonnelRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan personnel record: %w", err)
		}
		out = append(out, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list personnel records: %w", err)
	}
	return out, nil
}

type recordRow interface {
	Scan(dest ...any) error
}

func scanRecord(row recordRow) (*models.PersonnelRecord, error) {
	var (
		record    models.PersonnelRecord
		recordID  uuid.UUID
		accountID uuid.NullUUID
		groupID   uuid.NullUUID
	)
	if err := row.Scan(
		&recordID,
		&record.FullName,
		&record.Email,
		&record.Stage,
		&record.RFIDCode,
		&record.UserLinked,
		&accountID,
		&groupID,
		&record.CreatedAt,
		&record.UpdatedAt,
	); err != nil {
		return nil, err
	}
	record.ID = id.PersonnelID(recordID)
	if accountID.Valid {
		record.AccountID = id.AccountID(accountID.UUID)
	}
	if groupID.Valid {
		record.GroupID = id.GroupID(groupID.UUID)
	}
	return &record, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
