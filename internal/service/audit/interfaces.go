package audit

import (
	"context"

	"github.com/MP2EZ/being-sub003/internal/domain/audit"
	"github.com/MP2EZ/being-sub003/internal/domain/values"
)

// Repository persists chained entries. Append must be atomic per batch.
type Repository interface {
	Append(ctx context.Context, entries []*audit.Entry) error
	// Last returns the newest sequence number and hash, zero values when empty.
	Last(ctx context.Context) (int64, string, error)
}

// QueryRepository reads entries back for investigation and verification.
type QueryRepository interface {
	BySession(ctx context.Context, sessionID string) ([]*audit.Entry, error)
	Range(ctx context.Context, from int64, limit int) ([]*audit.Entry, error)
}

// Encryptor seals clinical metadata before it leaves the process.
type Encryptor interface {
	Encrypt(data []byte, level values.Sensitivity) ([]byte, error)
	Decrypt(data []byte, level values.Sensitivity) ([]byte, error)
}
