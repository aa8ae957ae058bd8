package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MP2EZ/being-sub003/internal/domain/audit"
	apperrors "github.com/MP2EZ/being-sub003/internal/domain/errors"
	"github.com/MP2EZ/being-sub003/internal/domain/values"
)

const insertEntrySQL = `
	INSERT INTO audit_entries (
		id, sequence_number, occurred_at, event_type, operation,
		session_id, device_id, user_id, severity, duration_ms, success, reason,
		audit_required, retention_days, sensitivity, metadata, sealed_metadata,
		previous_hash, hash
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
		$11, $12, $13, $14, $15, $16, $17, $18, $19
	)`

const selectEntrySQL = `
	SELECT
		id, sequence_number, occurred_at, event_type, operation,
		session_id, device_id, user_id, severity, duration_ms, success, reason,
		audit_required, retention_days, sensitivity, metadata, sealed_metadata,
		previous_hash, hash
	FROM audit_entries`

// AuditRepository stores chained audit entries in PostgreSQL. Sequence numbers
// and hashes are assigned by the recorder; the table rejects duplicates and
// updates.
type AuditRepository struct {
	db *pgxpool.Pool
}

func NewAuditRepository(db *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{db: db}
}

// Append persists a batch atomically.
func (r *AuditRepository) Append(ctx context.Context, entries []*audit.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return apperrors.NewInternalError("failed to begin transaction").WithCause(err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	batch := &pgx.Batch{}
	for i, e := range entries {
		if err := e.Validate(); err != nil {
			return apperrors.NewValidationError("INVALID_ENTRY",
				fmt.Sprintf("entry %d validation failed", i)).WithCause(err)
		}

		var metadataJSON []byte
		if len(e.Metadata) > 0 {
			if metadataJSON, err = json.Marshal(e.Metadata); err != nil {
				return apperrors.NewInternalError("failed to marshal metadata").WithCause(err)
			}
		}

		batch.Queue(insertEntrySQL,
			e.ID,
			e.Sequence,
			e.Timestamp,
			string(e.Type),
			e.Operation,
			e.SessionID,
			e.DeviceID,
			e.UserID,
			e.Severity,
			e.DurationMs,
			e.Success,
			e.Reason,
			e.Compliance.AuditRequired,
			e.Compliance.RetentionDays,
			string(e.Compliance.Sensitivity),
			metadataJSON,
			e.SealedMetadata,
			e.PreviousHash,
			e.Hash,
		)
	}

	results := tx.SendBatch(ctx, batch)
	for i := range entries {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return apperrors.NewBusinessError("DUPLICATE_SEQUENCE",
					fmt.Sprintf("sequence %d already exists", entries[i].Sequence)).WithCause(err)
			}
			return apperrors.NewInternalError(fmt.Sprintf("failed to store entry %d", i)).WithCause(err)
		}
	}
	if err := results.Close(); err != nil {
		return apperrors.NewInternalError("failed to close batch").WithCause(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return apperrors.NewInternalError("failed to commit transaction").WithCause(err)
	}
	return nil
}

// Last returns the sequence and hash of the newest entry, or zero values for
// an empty table.
func (r *AuditRepository) Last(ctx context.Context) (int64, string, error) {
	var (
		seq  int64
		hash string
	)
	err := r.db.QueryRow(ctx,
		"SELECT sequence_number, hash FROM audit_entries ORDER BY sequence_number DESC LIMIT 1").
		Scan(&seq, &hash)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, "", nil
	}
	if err != nil {
		return 0, "", apperrors.NewInternalError("failed to get latest entry").WithCause(err)
	}
	return seq, hash, nil
}

// BySession returns a session's entries in sequence order.
func (r *AuditRepository) BySession(ctx context.Context, sessionID string) ([]*audit.Entry, error) {
	rows, err := r.db.Query(ctx, selectEntrySQL+" WHERE session_id = $1 ORDER BY sequence_number", sessionID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to query session entries").WithCause(err)
	}
	return collectEntries(rows)
}

// Range returns up to limit entries starting at sequence from.
func (r *AuditRepository) Range(ctx context.Context, from int64, limit int) ([]*audit.Entry, error) {
	rows, err := r.db.Query(ctx,
		selectEntrySQL+" WHERE sequence_number >= $1 ORDER BY sequence_number LIMIT $2", from, limit)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to query entry range").WithCause(err)
	}
	return collectEntries(rows)
}

func collectEntries(rows pgx.Rows) ([]*audit.Entry, error) {
	defer rows.Close()

	var out []*audit.Entry
	for rows.Next() {
		var (
			e           audit.Entry
			eventType   string
			sensitivity string
			metadata    []byte
		)
		if err := rows.Scan(
			&e.ID,
			&e.Sequence,
			&e.Timestamp,
			&eventType,
			&e.Operation,
			&e.SessionID,
			&e.DeviceID,
			&e.UserID,
			&e.Severity,
			&e.DurationMs,
			&e.Success,
			&e.Reason,
			&e.Compliance.AuditRequired,
			&e.Compliance.RetentionDays,
			&sensitivity,
			&metadata,
			&e.SealedMetadata,
			&e.PreviousHash,
			&e.Hash,
		); err != nil {
			return nil, apperrors.NewInternalError("failed to scan entry").WithCause(err)
		}
		e.Type = audit.EventType(eventType)
		e.Compliance.Sensitivity = values.Sensitivity(sensitivity)
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &e.Metadata); err != nil {
				return nil, apperrors.NewInternalError("failed to unmarshal metadata").WithCause(err)
			}
		}
		out = append(out, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to read entries").WithCause(err)
	}
	return out, nil
}
