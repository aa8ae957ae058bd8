package audit

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/MP2EZ/being-sub003/internal/domain/audit"
	"github.com/MP2EZ/being-sub003/internal/domain/errors"
	"github.com/MP2EZ/being-sub003/internal/domain/values"
	"github.com/MP2EZ/being-sub003/internal/metrics"
)

// RecorderConfig configures the async audit recorder.
type RecorderConfig struct {
	BufferSize   int           // queued entries before Record starts dropping
	BatchSize    int           // maximum entries per Append
	BatchTimeout time.Duration // flush interval for partial batches
	MaxRetries   int           // Append retries after the first attempt
	RetryBackoff time.Duration // doubled after each failed attempt
	WriteTimeout time.Duration
}

func DefaultRecorderConfig() RecorderConfig {
	return RecorderConfig{
		BufferSize:   4096,
		BatchSize:    64,
		BatchTimeout: 500 * time.Millisecond,
		MaxRetries:   3,
		RetryBackoff: 200 * time.Millisecond,
		WriteTimeout: 5 * time.Second,
	}
}

// Stats is a point-in-time view of the recorder.
type Stats struct {
	Recorded  int64 `json:"recorded"`
	Persisted int64 `json:"persisted"`
	Dropped   int64 `json:"dropped"`
	Buffered  int   `json:"buffered"`
	Sequence  int64 `json:"sequence"`
}

// Recorder accepts audit entries without blocking the caller. A single
// coordinator goroutine owns the hash chain: it assigns sequence numbers,
// seals clinical metadata and appends batches to the repository.
type Recorder struct {
	config    RecorderConfig
	logger    *zap.Logger
	repo      Repository
	encryptor Encryptor
	metrics   *metrics.Registry
	clock     clockwork.Clock
	tracer    trace.Tracer

	buffer  chan *audit.Entry
	flushCh chan chan struct{}

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running atomic.Bool

	dropWarn rate.Sometimes

	// owned by the coordinator
	lastSequence int64
	lastHash     string

	recorded  atomic.Int64
	persisted atomic.Int64
	dropped   atomic.Int64
	sequence  atomic.Int64
}

// RecorderOption customises optional collaborators.
type RecorderOption func(*Recorder)

func WithEncryptor(e Encryptor) RecorderOption {
	return func(r *Recorder) { r.encryptor = e }
}

func WithMetrics(m *metrics.Registry) RecorderOption {
	return func(r *Recorder) { r.metrics = m }
}

func WithClock(c clockwork.Clock) RecorderOption {
	return func(r *Recorder) { r.clock = c }
}

// NewRecorder loads the chain head from repo and starts the coordinator.
func NewRecorder(ctx context.Context, config RecorderConfig, logger *zap.Logger, repo Repository, opts ...RecorderOption) (*Recorder, error) {
	if repo == nil {
		return nil, errors.NewValidationError("MISSING_REPOSITORY", "audit repository is required")
	}
	if logger == nil {
		return nil, errors.NewValidationError("MISSING_LOGGER", "logger is required")
	}
	defaults := DefaultRecorderConfig()
	if config.BufferSize <= 0 {
		config.BufferSize = defaults.BufferSize
	}
	if config.BatchSize <= 0 {
		config.BatchSize = defaults.BatchSize
	}
	if config.BatchTimeout <= 0 {
		config.BatchTimeout = defaults.BatchTimeout
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = defaults.WriteTimeout
	}
	if config.MaxRetries < 0 {
		config.MaxRetries = 0
	}

	r := &Recorder{
		config:   config,
		logger:   logger.Named("audit"),
		repo:     repo,
		clock:    clockwork.NewRealClock(),
		tracer:   otel.Tracer("audit.recorder"),
		buffer:   make(chan *audit.Entry, config.BufferSize),
		flushCh:  make(chan chan struct{}),
		dropWarn: rate.Sometimes{First: 1, Interval: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(r)
	}

	seq, hash, err := repo.Last(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load audit chain head: %w", err)
	}
	r.lastSequence, r.lastHash = seq, hash
	r.sequence.Store(seq)

	// The coordinator outlives the constructor's context.
	r.ctx, r.cancel = context.WithCancel(context.Background())
	r.running.Store(true)
	r.wg.Add(1)
	go r.coordinate()

	r.logger.Info("audit recorder started",
		zap.Int("buffer_size", config.BufferSize),
		zap.Int("batch_size", config.BatchSize),
		zap.Int64("chain_sequence", seq),
		zap.Bool("sealing", r.encryptor != nil))
	return r, nil
}

// Record queues entry for persistence. It never blocks and never fails: a
// full buffer, a stopped recorder or an invalid entry drop the entry with a
// rate-limited warning.
func (r *Recorder) Record(ctx context.Context, entry *audit.Entry) {
	if entry == nil {
		return
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if !r.running.Load() {
		r.drop(entry, "recorder_stopped")
		return
	}
	if err := entry.Validate(); err != nil {
		r.drop(entry, "invalid_entry", zap.Error(err))
		return
	}

	select {
	case r.buffer <- entry:
		r.recorded.Add(1)
		r.metrics.AuditBuffer(len(r.buffer))
	default:
		r.drop(entry, "buffer_full")
	}
}

// Flush blocks until every entry recorded before the call has been handed
// to the repository, or ctx is done.
func (r *Recorder) Flush(ctx context.Context) error {
	if !r.running.Load() {
		return nil
	}
	done := make(chan struct{})
	select {
	case r.flushCh <- done:
	case <-r.ctx.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting entries, drains the buffer and waits for the
// coordinator, bounded by ctx.
func (r *Recorder) Close(ctx context.Context) error {
	if !r.running.CompareAndSwap(true, false) {
		return nil
	}
	r.cancel()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info("audit recorder stopped",
			zap.Int64("persisted", r.persisted.Load()),
			zap.Int64("dropped", r.dropped.Load()))
		return nil
	case <-ctx.Done():
		r.logger.Warn("audit recorder shutdown timed out, entries may be lost",
			zap.Int("pending_entries", len(r.buffer)))
		return ctx.Err()
	}
}

func (r *Recorder) Stats() Stats {
	return Stats{
		Recorded:  r.recorded.Load(),
		Persisted: r.persisted.Load(),
		Dropped:   r.dropped.Load(),
		Buffered:  len(r.buffer),
		Sequence:  r.sequence.Load(),
	}
}

// Reveal returns an entry's metadata, decrypting it when sealed.
func (r *Recorder) Reveal(entry *audit.Entry) (map[string]interface{}, error) {
	if len(entry.SealedMetadata) == 0 {
		return entry.Metadata, nil
	}
	if r.encryptor == nil {
		return nil, errors.NewInternalError("entry is sealed and no encryptor is configured")
	}
	plain, err := r.encryptor.Decrypt(entry.SealedMetadata, entry.Compliance.Sensitivity)
	if err != nil {
		return nil, errors.NewInternalError("failed to open sealed metadata").WithCause(err)
	}
	var md map[string]interface{}
	if err := json.Unmarshal(plain, &md); err != nil {
		return nil, errors.NewInternalError("failed to decode sealed metadata").WithCause(err)
	}
	return md, nil
}

func (r *Recorder) drop(entry *audit.Entry, reason string, fields ...zap.Field) {
	total := r.dropped.Add(1)
	r.metrics.Audit("dropped", 1)
	r.dropWarn.Do(func() {
		r.logger.Warn("audit entry dropped", append(fields,
			zap.String("reason", reason),
			zap.String("event_type", entry.Type.String()),
			zap.String("session_id", entry.SessionID),
			zap.Int64("total_dropped", total))...)
	})
}

func (r *Recorder) coordinate() {
	defer r.wg.Done()

	ticker := r.clock.NewTicker(r.config.BatchTimeout)
	defer ticker.Stop()

	batch := make([]*audit.Entry, 0, r.config.BatchSize)
	flush := func() {
		if len(batch) > 0 {
			r.persist(batch)
			batch = make([]*audit.Entry, 0, r.config.BatchSize)
		}
		r.metrics.AuditBuffer(len(r.buffer))
	}
	drain := func() {
		for {
			select {
			case e := <-r.buffer:
				batch = append(batch, e)
				if len(batch) >= r.config.BatchSize {
					flush()
				}
			default:
				flush()
				return
			}
		}
	}

	for {
		select {
		case e := <-r.buffer:
			batch = append(batch, e)
			if len(batch) >= r.config.BatchSize {
				flush()
			}
		case <-ticker.Chan():
			flush()
		case done := <-r.flushCh:
			drain()
			close(done)
		case <-r.ctx.Done():
			drain()
			return
		}
	}
}

// persist chains and appends one batch. The chain head only advances when
// the batch is stored, so dropped batches leave no gap behind.
func (r *Recorder) persist(batch []*audit.Entry) {
	ctx, span := r.tracer.Start(context.Background(), "Recorder.persist",
		trace.WithAttributes(attribute.Int("batch.size", len(batch))))
	defer span.End()

	seq, prev := r.lastSequence, r.lastHash
	ready := make([]*audit.Entry, 0, len(batch))
	for _, e := range batch {
		if err := r.seal(e); err != nil {
			r.drop(e, "seal_failed", zap.Error(err))
			continue
		}
		if err := e.Chain(seq+1, prev); err != nil {
			r.drop(e, "chain_failed", zap.Error(err))
			continue
		}
		seq, prev = e.Sequence, e.Hash
		ready = append(ready, e)
	}
	if len(ready) == 0 {
		return
	}

	backoff := r.config.RetryBackoff
	var err error
	for attempt := 0; attempt <= r.config.MaxRetries; attempt++ {
		if attempt > 0 {
			r.metrics.Audit("retried", len(ready))
			r.clock.Sleep(backoff)
			backoff *= 2
		}
		writeCtx, cancel := context.WithTimeout(ctx, r.config.WriteTimeout)
		err = r.repo.Append(writeCtx, ready)
		cancel()
		if err == nil {
			r.lastSequence, r.lastHash = seq, prev
			r.sequence.Store(seq)
			r.persisted.Add(int64(len(ready)))
			r.metrics.Audit("persisted", len(ready))
			span.SetAttributes(attribute.Int64("chain.sequence", seq))
			return
		}
		r.logger.Debug("audit append failed",
			zap.Int("attempt", attempt+1),
			zap.Int("batch_size", len(ready)),
			zap.Error(err))
	}

	span.RecordError(err)
	for _, e := range ready {
		r.drop(e, "persist_failed", zap.Error(err))
	}

	// A write that committed but reported failure would leave the head stale.
	headCtx, cancel := context.WithTimeout(ctx, r.config.WriteTimeout)
	defer cancel()
	if s, h, lerr := r.repo.Last(headCtx); lerr == nil {
		r.lastSequence, r.lastHash = s, h
		r.sequence.Store(s)
	}
}

// seal replaces clinical metadata with its ciphertext.
func (r *Recorder) seal(e *audit.Entry) error {
	if r.encryptor == nil || !e.IsClinical() || len(e.Metadata) == 0 || len(e.SealedMetadata) > 0 {
		return nil
	}
	plain, err := json.Marshal(e.Metadata)
	if err != nil {
		return err
	}
	sealed, err := r.encryptor.Encrypt(plain, values.SensitivityClinical)
	if err != nil {
		return err
	}
	e.SealedMetadata = sealed
	e.Metadata = nil
	return nil
}
