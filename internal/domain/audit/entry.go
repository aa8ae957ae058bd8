package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MP2EZ/being-sub003/internal/domain/errors"
	"github.com/MP2EZ/being-sub003/internal/domain/values"
)

// ComplianceMarkers tag an entry for compliance reporting.
type ComplianceMarkers struct {
	AuditRequired bool               `json:"audit_required"`
	RetentionDays int                `json:"retention_days"`
	Sensitivity   values.Sensitivity `json:"sensitivity"`
}

// Entry is an append-only audit record. Once hashed it must not change.
type Entry struct {
	ID        uuid.UUID `json:"id"`
	Sequence  int64     `json:"sequence"`
	Timestamp time.Time `json:"timestamp"`

	Type      EventType `json:"type"`
	Operation string    `json:"operation"`
	SessionID string    `json:"session_id,omitempty"`
	DeviceID  string    `json:"device_id,omitempty"`
	UserID    string    `json:"user_id,omitempty"`

	Severity   string `json:"severity"`
	DurationMs int64  `json:"duration_ms"`
	Success    bool   `json:"success"`
	Reason     string `json:"reason,omitempty"`

	Compliance ComplianceMarkers `json:"compliance"`

	// Metadata is cleared once sealed into SealedMetadata.
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
	SealedMetadata []byte                 `json:"sealed_metadata,omitempty"`

	PreviousHash string `json:"previous_hash"`
	Hash         string `json:"hash"`
}

// Validate checks the fields every persisted entry must carry.
func (e *Entry) Validate() error {
	if e.ID == uuid.Nil {
		return errors.NewValidationError("MISSING_ENTRY_ID", "entry id is required")
	}
	if !e.Type.IsValid() {
		return errors.NewValidationError("INVALID_EVENT_TYPE", fmt.Sprintf("unknown event type %q", e.Type))
	}
	if e.Operation == "" {
		return errors.NewValidationError("MISSING_OPERATION", "operation is required")
	}
	if e.Timestamp.IsZero() {
		return errors.NewValidationError("MISSING_TIMESTAMP", "timestamp is required")
	}
	if e.Compliance.RetentionDays <= 0 {
		return errors.NewValidationError("INVALID_RETENTION", "retention days must be positive")
	}
	if e.Compliance.Sensitivity == values.SensitivityClinical &&
		e.Compliance.RetentionDays < values.ClinicalRetentionDays {
		return errors.NewValidationError("RETENTION_TOO_SHORT",
			"clinical entries must be retained for seven years")
	}
	return nil
}

// IsClinical reports whether the entry is in the clinical tier.
func (e *Entry) IsClinical() bool {
	return e.Compliance.Sensitivity == values.SensitivityClinical
}

// ComputeHash returns the SHA-256 chain hash of the entry given the hash of
// its predecessor. It does not modify the entry.
func (e *Entry) ComputeHash(previousHash string) (string, error) {
	hashData := map[string]interface{}{
		"id":             e.ID.String(),
		"sequence":       e.Sequence,
		"timestamp_nano": e.Timestamp.UnixNano(),
		"type":           string(e.Type),
		"operation":      e.Operation,
		"session_id":     e.SessionID,
		"device_id":      e.DeviceID,
		"user_id":        e.UserID,
		"severity":       e.Severity,
		"duration_ms":    e.DurationMs,
		"success":        e.Success,
		"reason":         e.Reason,
		"retention_days": e.Compliance.RetentionDays,
		"sensitivity":    string(e.Compliance.Sensitivity),
		"audit_required": e.Compliance.AuditRequired,
		"previous_hash":  previousHash,
	}
	if len(e.SealedMetadata) > 0 {
		hashData["sealed_metadata"] = e.SealedMetadata
	} else if len(e.Metadata) > 0 {
		hashData["metadata"] = e.Metadata
	}

	b, err := json.Marshal(hashData)
	if err != nil {
		return "", errors.NewInternalError("failed to marshal hash data").WithCause(err)
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}

// Chain assigns the sequence number and links the entry to previousHash.
func (e *Entry) Chain(sequence int64, previousHash string) error {
	if e.Hash != "" {
		return errors.NewBusinessError("ENTRY_IMMUTABLE", "entry has already been chained")
	}
	// Stores keep microsecond precision; hash what they will return.
	e.Timestamp = e.Timestamp.UTC().Truncate(time.Microsecond)
	e.Sequence = sequence
	e.PreviousHash = previousHash
	hash, err := e.ComputeHash(previousHash)
	if err != nil {
		return err
	}
	e.Hash = hash
	return nil
}
