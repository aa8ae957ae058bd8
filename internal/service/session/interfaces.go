package session

import (
	"context"
	"time"

	"github.com/goccy/go-json"

	"github.com/MP2EZ/being-sub003/internal/domain/audit"
	"github.com/MP2EZ/being-sub003/internal/domain/crisis"
	"github.com/MP2EZ/being-sub003/internal/domain/session"
	"github.com/MP2EZ/being-sub003/internal/domain/values"
	"github.com/MP2EZ/being-sub003/internal/infrastructure/directory"
)

// Service defines the crisis session manager interface
type Service interface {
	// Create opens a time-boxed crisis session
	Create(ctx context.Context, req *CreateRequest) (*CreateResult, error)
	// ValidateAccess checks whether op may run in the session right now
	ValidateAccess(ctx context.Context, sessionID string, op session.Operation) (*AccessResult, error)
	// Execute validates and runs one emergency operation
	Execute(ctx context.Context, sessionID string, op session.Operation, payload json.RawMessage) (*ExecuteResult, error)
	// Resolve closes the session. Resolving a closed session is a no-op.
	Resolve(ctx context.Context, sessionID, reason string) error
	// Get returns a snapshot of the session
	Get(ctx context.Context, sessionID string) (*session.CrisisSession, error)
}

// AuditRecorder receives session audit entries. It must not block.
type AuditRecorder interface {
	Record(ctx context.Context, entry *audit.Entry)
}

// Directory answers hotline and contact lookups. Contacts and Prefetch must
// not block; Lookup may read the backing store.
type Directory interface {
	Hotlines() []directory.Hotline
	Contacts(ctx context.Context, userID string) []directory.Contact
	Prefetch(userID string)
	Lookup(ctx context.Context, userID string) []directory.Contact
}

// Encryptor seals persisted session snapshots.
type Encryptor interface {
	Encrypt(data []byte, level values.Sensitivity) ([]byte, error)
	Decrypt(data []byte, level values.Sensitivity) ([]byte, error)
}

// EscalationNotifier is told when a session requires escalation. Calls are
// made off the request path.
type EscalationNotifier interface {
	NotifyEscalation(ctx context.Context, e Escalation) error
}

// Escalation describes a session that was opened at, or promoted to,
// automatic escalation.
type Escalation struct {
	SessionID  string              `json:"session_id"`
	DeviceID   string              `json:"device_id"`
	UserID     string              `json:"user_id,omitempty"`
	CrisisType crisis.Type         `json:"crisis_type"`
	Severity   crisis.Severity     `json:"severity"`
	Reason     string              `json:"reason"`
	Operation  session.Operation   `json:"operation,omitempty"`
	Contacts   []directory.Contact `json:"contacts,omitempty"`
	At         time.Time           `json:"at"`
}
