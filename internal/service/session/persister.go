package session

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/MP2EZ/being-sub003/internal/domain/session"
	"github.com/MP2EZ/being-sub003/internal/domain/values"
	"github.com/MP2EZ/being-sub003/internal/infrastructure/cache"
)

const (
	snapshotKeyPrefix = "session:"
	snapshotIndexKey  = "session:index"
	persistQueueSize  = 1024
	persistTimeout    = 2 * time.Second
)

type persistJob struct {
	snapshot session.CrisisSession
	ttl      time.Duration
	remove   bool
}

// persister writes encrypted session snapshots from a single background
// worker. Callers only enqueue; a full queue drops the write.
type persister struct {
	store     cache.Store
	encryptor Encryptor
	logger    *zap.Logger

	mu     sync.RWMutex
	closed bool
	jobs   chan persistJob
	done   chan struct{}

	indexMu sync.Mutex
	index   map[string]struct{}

	dropWarn rate.Sometimes
}

func newPersister(store cache.Store, encryptor Encryptor, logger *zap.Logger) *persister {
	p := &persister{
		store:     store,
		encryptor: encryptor,
		logger:    logger,
		jobs:      make(chan persistJob, persistQueueSize),
		done:      make(chan struct{}),
		index:     make(map[string]struct{}),
		dropWarn:  rate.Sometimes{First: 1, Interval: 10 * time.Second},
	}
	go p.run()
	return p
}

// Save queues a snapshot that lives for ttl in the store.
func (p *persister) Save(s session.CrisisSession, ttl time.Duration) {
	p.enqueue(persistJob{snapshot: s, ttl: ttl})
}

// Remove queues deletion of a snapshot.
func (p *persister) Remove(id string) {
	p.enqueue(persistJob{snapshot: session.CrisisSession{ID: id}, remove: true})
}

func (p *persister) enqueue(job persistJob) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return
	}
	select {
	case p.jobs <- job:
	default:
		p.dropWarn.Do(func() {
			p.logger.Warn("session snapshot queue full, dropping write",
				zap.String("session_id", job.snapshot.ID))
		})
	}
}

func (p *persister) run() {
	defer close(p.done)
	for job := range p.jobs {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		var err error
		if job.remove {
			err = p.remove(ctx, job.snapshot.ID)
		} else {
			err = p.write(ctx, job.snapshot, job.ttl)
		}
		cancel()
		if err != nil {
			p.logger.Warn("session snapshot write failed",
				zap.String("session_id", job.snapshot.ID),
				zap.Bool("remove", job.remove),
				zap.Error(err))
		}
	}
}

func (p *persister) write(ctx context.Context, s session.CrisisSession, ttl time.Duration) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if p.encryptor != nil {
		if data, err = p.encryptor.Encrypt(data, values.SensitivityClinical); err != nil {
			return fmt.Errorf("seal snapshot: %w", err)
		}
	}
	if ttl < time.Second {
		ttl = time.Second
	}
	if err := p.store.Set(ctx, snapshotKeyPrefix+s.ID, data, ttl); err != nil {
		return err
	}

	p.indexMu.Lock()
	defer p.indexMu.Unlock()
	if _, ok := p.index[s.ID]; ok {
		return nil
	}
	p.index[s.ID] = struct{}{}
	return p.writeIndexLocked(ctx)
}

func (p *persister) remove(ctx context.Context, id string) error {
	if err := p.store.Remove(ctx, snapshotKeyPrefix+id); err != nil {
		return err
	}
	p.indexMu.Lock()
	defer p.indexMu.Unlock()
	if _, ok := p.index[id]; !ok {
		return nil
	}
	delete(p.index, id)
	return p.writeIndexLocked(ctx)
}

func (p *persister) writeIndexLocked(ctx context.Context) error {
	ids := make([]string, 0, len(p.index))
	for id := range p.index {
		ids = append(ids, id)
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	return p.store.Set(ctx, snapshotIndexKey, data, 0)
}

// Load reads every indexed snapshot. Missing or unreadable snapshots are
// skipped and fall out of the index.
func (p *persister) Load(ctx context.Context) ([]session.CrisisSession, error) {
	raw, err := p.store.Get(ctx, snapshotIndexKey)
	if stderrors.Is(err, cache.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session index: %w", err)
	}
	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, fmt.Errorf("decode session index: %w", err)
	}

	out := make([]session.CrisisSession, 0, len(ids))
	for _, id := range ids {
		s, err := p.read(ctx, id)
		if err != nil {
			if !stderrors.Is(err, cache.ErrNotFound) {
				p.logger.Warn("skipping unreadable session snapshot",
					zap.String("session_id", id), zap.Error(err))
			}
			continue
		}
		out = append(out, s)
	}

	p.indexMu.Lock()
	for _, s := range out {
		p.index[s.ID] = struct{}{}
	}
	p.indexMu.Unlock()
	return out, nil
}

func (p *persister) read(ctx context.Context, id string) (session.CrisisSession, error) {
	var s session.CrisisSession
	data, err := p.store.Get(ctx, snapshotKeyPrefix+id)
	if err != nil {
		return s, err
	}
	if p.encryptor != nil {
		if data, err = p.encryptor.Decrypt(data, values.SensitivityClinical); err != nil {
			return s, fmt.Errorf("open snapshot: %w", err)
		}
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("decode snapshot: %w", err)
	}
	return s, nil
}

// Close stops accepting writes and waits for queued ones.
func (p *persister) Close(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.jobs)
	}
	p.mu.Unlock()

	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
