package audit

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/MP2EZ/being-sub003/internal/domain/audit"
	"github.com/MP2EZ/being-sub003/internal/infrastructure/cache"
)

const (
	headKey          = "audit:head"
	entryKeyPrefix   = "audit:entry:"
	sessionKeyPrefix = "audit:session:"
)

type chainHead struct {
	Sequence int64  `json:"sequence"`
	Hash     string `json:"hash"`
}

// StoreRepository keeps the audit trail in a key-value store for
// deployments without PostgreSQL. Entries expire with their retention
// period. It assumes a single writer, which the Recorder guarantees.
type StoreRepository struct {
	store cache.Store
}

func NewStoreRepository(store cache.Store) *StoreRepository {
	return &StoreRepository{store: store}
}

func entryKey(seq int64) string {
	return entryKeyPrefix + strconv.FormatInt(seq, 10)
}

// Append writes entries first and moves the head last, so a failed batch
// is overwritten by the retry.
func (s *StoreRepository) Append(ctx context.Context, entries []*audit.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	sessions := make(map[string][]int64)
	for _, e := range entries {
		raw, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("marshal entry %d: %w", e.Sequence, err)
		}
		ttl := time.Duration(e.Compliance.RetentionDays) * 24 * time.Hour
		if err := s.store.Set(ctx, entryKey(e.Sequence), raw, ttl); err != nil {
			return fmt.Errorf("store entry %d: %w", e.Sequence, err)
		}
		if e.SessionID != "" {
			sessions[e.SessionID] = append(sessions[e.SessionID], e.Sequence)
		}
	}

	for id, seqs := range sessions {
		existing, err := s.sessionIndex(ctx, id)
		if err != nil {
			return err
		}
		raw, err := json.Marshal(mergeSequences(existing, seqs))
		if err != nil {
			return err
		}
		if err := s.store.Set(ctx, sessionKeyPrefix+id, raw, 0); err != nil {
			return fmt.Errorf("store session index: %w", err)
		}
	}

	last := entries[len(entries)-1]
	raw, err := json.Marshal(chainHead{Sequence: last.Sequence, Hash: last.Hash})
	if err != nil {
		return err
	}
	if err := s.store.Set(ctx, headKey, raw, 0); err != nil {
		return fmt.Errorf("store chain head: %w", err)
	}
	return nil
}

func (s *StoreRepository) Last(ctx context.Context) (int64, string, error) {
	raw, err := s.store.Get(ctx, headKey)
	if errors.Is(err, cache.ErrNotFound) {
		return 0, "", nil
	}
	if err != nil {
		return 0, "", err
	}
	var head chainHead
	if err := json.Unmarshal(raw, &head); err != nil {
		return 0, "", fmt.Errorf("decode chain head: %w", err)
	}
	return head.Sequence, head.Hash, nil
}

func (s *StoreRepository) BySession(ctx context.Context, sessionID string) ([]*audit.Entry, error) {
	seqs, err := s.sessionIndex(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	out := make([]*audit.Entry, 0, len(seqs))
	for _, seq := range seqs {
		e, err := s.get(ctx, seq)
		if errors.Is(err, cache.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// Range stops at the first missing sequence.
func (s *StoreRepository) Range(ctx context.Context, from int64, limit int) ([]*audit.Entry, error) {
	if from < 1 {
		from = 1
	}
	var out []*audit.Entry
	for seq := from; limit <= 0 || len(out) < limit; seq++ {
		e, err := s.get(ctx, seq)
		if errors.Is(err, cache.ErrNotFound) {
			break
		}
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *StoreRepository) get(ctx context.Context, seq int64) (*audit.Entry, error) {
	raw, err := s.store.Get(ctx, entryKey(seq))
	if err != nil {
		return nil, err
	}
	var e audit.Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, fmt.Errorf("decode entry %d: %w", seq, err)
	}
	return &e, nil
}

func (s *StoreRepository) sessionIndex(ctx context.Context, sessionID string) ([]int64, error) {
	raw, err := s.store.Get(ctx, sessionKeyPrefix+sessionID)
	if errors.Is(err, cache.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var seqs []int64
	if err := json.Unmarshal(raw, &seqs); err != nil {
		return nil, fmt.Errorf("decode session index: %w", err)
	}
	return seqs, nil
}

// mergeSequences appends seqs to existing, skipping values already present.
func mergeSequences(existing, seqs []int64) []int64 {
	seen := make(map[int64]struct{}, len(existing))
	for _, v := range existing {
		seen[v] = struct{}{}
	}
	for _, v := range seqs {
		if _, ok := seen[v]; !ok {
			existing = append(existing, v)
			seen[v] = struct{}{}
		}
	}
	return existing
}
