// Package session runs crisis access sessions: admission, the closed set of
// emergency operations, escalation, expiry and snapshot persistence.
package session

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/MP2EZ/being-sub003/internal/domain/audit"
	"github.com/MP2EZ/being-sub003/internal/domain/errors"
	"github.com/MP2EZ/being-sub003/internal/domain/session"
	"github.com/MP2EZ/being-sub003/internal/domain/values"
	"github.com/MP2EZ/being-sub003/internal/infrastructure/cache"
	"github.com/MP2EZ/being-sub003/internal/infrastructure/telemetry"
	"github.com/MP2EZ/being-sub003/internal/metrics"
)

var _ Service = (*Manager)(nil)

// Manager owns every live crisis session. The slot map lock is held only
// for lookup, insert and evict; each slot's own mutex serialises admission,
// the handler, the operation record and the audit entry for that session.
type Manager struct {
	config    Config
	logger    *zap.Logger
	clock     clockwork.Clock
	gate      *session.Gate
	recorder  AuditRecorder
	directory Directory
	metrics   *metrics.Registry
	tracer    trace.Tracer
	validate  *validator.Validate
	handlers  map[session.Operation]handler

	store     cache.Store
	encryptor Encryptor
	persister *persister
	notifier  dispatcher
	scheduler *scheduler

	mu    sync.RWMutex
	slots map[string]*slot

	stop    chan struct{}
	wg      sync.WaitGroup
	running atomic.Bool
}

type slot struct {
	mu      sync.Mutex
	session *session.CrisisSession
}

// Option customises optional collaborators.
type Option func(*Manager)

func WithClock(c clockwork.Clock) Option {
	return func(m *Manager) { m.clock = c }
}

func WithMetrics(r *metrics.Registry) Option {
	return func(m *Manager) { m.metrics = r }
}

func WithRecorder(r AuditRecorder) Option {
	return func(m *Manager) { m.recorder = r }
}

func WithDirectory(d Directory) Option {
	return func(m *Manager) { m.directory = d }
}

func WithNotifier(n EscalationNotifier) Option {
	return func(m *Manager) { m.notifier.target = n }
}

// WithPersistence keeps encrypted snapshots of live sessions in store so
// Restore can pick them up after a restart.
func WithPersistence(store cache.Store, encryptor Encryptor) Option {
	return func(m *Manager) {
		m.store = store
		m.encryptor = encryptor
	}
}

func WithGate(g *session.Gate) Option {
	return func(m *Manager) { m.gate = g }
}

// NewManager creates the manager and starts its sweep loop.
func NewManager(config Config, logger *zap.Logger, opts ...Option) (*Manager, error) {
	if logger == nil {
		return nil, errors.NewValidationError("MISSING_LOGGER", "logger is required")
	}
	defaults := DefaultConfig()
	if config.GraceWindow <= 0 {
		config.GraceWindow = defaults.GraceWindow
	}
	if config.SweepInterval <= 0 {
		config.SweepInterval = defaults.SweepInterval
	}
	if config.PerformanceBudget <= 0 {
		config.PerformanceBudget = defaults.PerformanceBudget
	}

	m := &Manager{
		config:   config,
		logger:   logger.Named("session"),
		clock:    clockwork.NewRealClock(),
		gate:     session.DefaultGate,
		tracer:   otel.Tracer("session.manager"),
		validate: validator.New(),
		slots:    make(map[string]*slot),
		stop:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}

	m.handlers = (&handlers{directory: m.directory, validate: m.validate}).table()
	m.scheduler = newScheduler(m.clock)
	m.notifier.logger = m.logger
	m.notifier.directory = m.directory
	if m.store != nil {
		m.persister = newPersister(m.store, m.encryptor, m.logger)
	}

	m.running.Store(true)
	m.wg.Add(1)
	go m.sweepLoop()
	return m, nil
}

func (m *Manager) Create(ctx context.Context, req *CreateRequest) (*CreateResult, error) {
	ctx, span := m.tracer.Start(ctx, "SessionManager.Create")
	defer span.End()

	start := m.clock.Now()
	defer func() { m.checkBudget(ctx, "create", m.clock.Since(start), m.config.PerformanceBudget) }()

	if req == nil {
		return nil, errors.NewValidationError(errors.CodeInvalidRequest, "request is required")
	}
	if !m.config.Enabled {
		err := errors.NewFeatureDisabledError("crisis_access")
		m.metrics.Denied(err.Code)
		m.record(ctx, audit.NewEntryBuilder(audit.EventFeatureUnavailable, "create", start).
			WithSession("", req.DeviceID, req.UserID).
			WithOutcome(false, err.Code).
			Build())
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := m.validate.Struct(req); err != nil {
		return nil, validationError(err)
	}

	s, err := session.New(uuid.NewString(), req.DeviceID, req.UserID, req.CrisisType, req.Severity, start)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.String("session.id", s.ID),
		attribute.String("crisis.severity", s.Severity.String()))

	sl := &slot{session: s}
	sl.mu.Lock()
	defer sl.mu.Unlock()
	m.mu.Lock()
	m.slots[s.ID] = sl
	m.mu.Unlock()

	m.armExpiry(s)
	protocols := EmergencyProtocols(s.Severity)

	m.record(ctx, audit.NewEntryBuilder(audit.EventSessionCreated, "create", start).
		WithSession(s.ID, s.DeviceID, s.UserID).
		WithSeverity(s.Severity.String()).
		WithMetadata("crisis_type", string(s.CrisisType)).
		WithMetadata("emergency_protocols", protocols).
		WithMetadata("automatic_escalation", s.AutomaticEscalation).
		WithMetadata("expires_at", s.ExpiresAt.UTC().Format(time.RFC3339)).
		Build())
	m.metrics.SessionCreated(s.Severity.String())
	m.save(s)
	m.prefetchContacts(s)

	if s.AutomaticEscalation {
		m.metrics.SessionEscalated()
		m.notifier.dispatch(m.escalation(ctx, s, escalationReasonInitial, ""))
	}

	m.logger.Info("crisis session created",
		append(telemetry.TraceFields(ctx),
			zap.String("session_id", s.ID),
			zap.String("severity", s.Severity.String()),
			zap.String("crisis_type", string(s.CrisisType)),
			zap.Bool("automatic_escalation", s.AutomaticEscalation))...)

	return &CreateResult{
		SessionID:           s.ID,
		AllowedOperations:   m.gate.Allowed(),
		ExpiresAt:           s.ExpiresAt,
		EmergencyProtocols:  protocols,
		AutomaticEscalation: s.AutomaticEscalation,
	}, nil
}

func (m *Manager) ValidateAccess(ctx context.Context, sessionID string, op session.Operation) (*AccessResult, error) {
	ctx, span := m.tracer.Start(ctx, "SessionManager.ValidateAccess",
		trace.WithAttributes(attribute.String("operation", string(op))))
	defer span.End()

	start := m.clock.Now()
	defer func() { m.checkBudget(ctx, "validate_access", m.clock.Since(start), m.config.PerformanceBudget) }()

	result := &AccessResult{Operation: op, Remaining: -1}
	sl := m.lookup(sessionID)
	if sl == nil {
		err := errors.NewSessionNotFoundError(sessionID)
		m.deny(ctx, &session.CrisisSession{ID: sessionID}, op, start, err)
		result.Reason = err.Code
		telemetry.RecordError(span, err)
		return result, err
	}

	sl.mu.Lock()
	defer sl.mu.Unlock()
	s := sl.session

	policy, err := m.admit(ctx, s, op, start)
	if err != nil {
		m.deny(ctx, s, op, start, err)
		result.Reason = errors.CodeOf(err)
		telemetry.RecordError(span, err)
		return result, err
	}

	s.Touch(start)
	result.Allowed = true
	result.ExpiresAt = s.ExpiresAt
	if policy.MaxExecutionsPerSession > 0 {
		result.Remaining = policy.MaxExecutionsPerSession - s.ExecutionCount(op)
	}

	m.record(ctx, audit.NewEntryBuilder(audit.EventAccessGranted, string(op), start).
		WithSession(s.ID, s.DeviceID, s.UserID).
		WithSeverity(s.Severity.String()).
		WithMetadata("remaining", result.Remaining).
		Build())
	return result, nil
}

// Execute runs one operation. Every call, admitted or not, produces exactly
// one operation audit entry.
func (m *Manager) Execute(ctx context.Context, sessionID string, op session.Operation, payload json.RawMessage) (*ExecuteResult, error) {
	ctx, span := m.tracer.Start(ctx, "SessionManager.Execute",
		trace.WithAttributes(attribute.String("operation", string(op))))
	defer span.End()

	start := m.clock.Now()
	result := &ExecuteResult{Operation: op}

	sl := m.lookup(sessionID)
	if sl == nil {
		err := errors.NewSessionNotFoundError(sessionID)
		elapsed := m.clock.Since(start)
		m.record(ctx, audit.NewEntryBuilder(audit.EventOperationExecuted, string(op), start).
			WithSession(sessionID, "", "").
			WithDuration(elapsed).
			WithOutcome(false, err.Code).
			Build())
		m.metrics.Operation(string(op), false, elapsed)
		m.metrics.Denied(err.Code)
		telemetry.RecordError(span, err)
		result.Error = err.Code
		return result, err
	}

	sl.mu.Lock()
	defer sl.mu.Unlock()
	s := sl.session

	policy, err := m.admit(ctx, s, op, start)
	var out opOutcome
	if err == nil {
		out, err = m.run(ctx, op, opRequest{session: s, payload: payload, now: start})
	} else {
		m.metrics.Denied(errors.CodeOf(err))
	}
	elapsed := m.clock.Since(start)

	previous := s.Severity
	escalated := false
	if !s.IsTerminal() {
		rec := session.OperationRecord{Operation: op, Timestamp: start, Duration: elapsed, Success: err == nil}
		if err != nil {
			rec.Error = errors.CodeOf(err)
		}
		s.Record(rec)
		if err == nil {
			s.Touch(start)
			escalated = out.immediateRisk && s.Escalate()
		}
	}

	reason := ""
	if err != nil {
		reason = errors.CodeOf(err)
	}
	b := audit.NewEntryBuilder(audit.EventOperationExecuted, string(op), start).
		WithSession(s.ID, s.DeviceID, s.UserID).
		WithSeverity(s.Severity.String()).
		WithDuration(elapsed).
		WithOutcome(err == nil, reason).
		WithSensitivity(policy.AuditLevel.Sensitivity()).
		WithMetadata("execution_count", s.ExecutionCount(op))
	if policy.AuditLevel != "" {
		b.WithMetadata("audit_level", string(policy.AuditLevel))
	}
	for k, v := range out.metadata {
		b.WithMetadata(k, v)
	}
	if escalated {
		b.WithSensitivity(values.SensitivityClinical).
			WithMetadata("escalated", true).
			WithMetadata("escalation_reason", escalationReasonImmediateRisk).
			WithMetadata("previous_severity", previous.String())
	}
	m.record(ctx, b.Build())
	m.metrics.Operation(string(op), err == nil, elapsed)
	m.checkBudget(ctx, string(op), elapsed, policy.PerformanceBudget)

	if !s.IsTerminal() {
		m.save(s)
	}
	if escalated {
		m.metrics.SessionEscalated()
		m.notifier.dispatch(m.escalation(ctx, s, escalationReasonImmediateRisk, op))
		m.logger.Warn("crisis session escalated",
			append(telemetry.TraceFields(ctx),
				zap.String("session_id", s.ID),
				zap.String("operation", string(op)),
				zap.String("previous_severity", previous.String()))...)
	}

	result.Success = err == nil
	result.Result = out.result
	result.Escalated = escalated
	result.Severity = s.Severity
	if err != nil {
		result.Error = reason
		telemetry.RecordError(span, err)
	}
	return result, err
}

// Resolve is idempotent: a session that already ended, by resolution or by
// expiry, is left as it is.
func (m *Manager) Resolve(ctx context.Context, sessionID, reason string) error {
	ctx, span := m.tracer.Start(ctx, "SessionManager.Resolve")
	defer span.End()

	sl := m.lookup(sessionID)
	if sl == nil {
		err := errors.NewSessionNotFoundError(sessionID)
		telemetry.RecordError(span, err)
		return err
	}

	sl.mu.Lock()
	defer sl.mu.Unlock()
	s := sl.session
	if s.IsTerminal() {
		return nil
	}

	now := m.clock.Now()
	if s.IsExpiredAt(now) {
		m.terminateLocked(ctx, s, session.StateExpired, session.ReasonTimeout, now)
		return nil
	}
	if reason == "" {
		reason = defaultResolutionReason
	}
	m.terminateLocked(ctx, s, session.StateResolved, reason, now)
	return nil
}

// Get returns a copy of the session. Terminated sessions remain readable
// for the grace window.
func (m *Manager) Get(ctx context.Context, sessionID string) (*session.CrisisSession, error) {
	sl := m.lookup(sessionID)
	if sl == nil {
		return nil, errors.NewSessionNotFoundError(sessionID)
	}

	sl.mu.Lock()
	defer sl.mu.Unlock()
	now := m.clock.Now()
	if !sl.session.IsTerminal() && sl.session.IsExpiredAt(now) {
		m.terminateLocked(ctx, sl.session, session.StateExpired, session.ReasonTimeout, now)
	}
	c := sl.session.Clone()
	return &c, nil
}

// Restore loads persisted snapshots. Sessions still inside their lifetime
// are re-armed; overdue ones expire immediately. It returns how many
// sessions came back active.
func (m *Manager) Restore(ctx context.Context) (int, error) {
	if m.persister == nil {
		return 0, nil
	}
	snapshots, err := m.persister.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("restore sessions: %w", err)
	}

	now := m.clock.Now()
	restored, expired := 0, 0
	for i := range snapshots {
		s := &snapshots[i]
		if s.IsTerminal() {
			m.persister.Remove(s.ID)
			continue
		}

		sl := &slot{session: s}
		sl.mu.Lock()
		m.mu.Lock()
		if _, exists := m.slots[s.ID]; exists {
			m.mu.Unlock()
			sl.mu.Unlock()
			continue
		}
		m.slots[s.ID] = sl
		m.mu.Unlock()

		m.record(ctx, audit.NewEntryBuilder(audit.EventSessionRestored, "restore", now).
			WithSession(s.ID, s.DeviceID, s.UserID).
			WithSeverity(s.Severity.String()).
			WithMetadata("operations", len(s.Operations)).
			Build())
		m.metrics.SessionRestored()

		if s.IsExpiredAt(now) {
			m.terminateLocked(ctx, s, session.StateExpired, session.ReasonTimeout, now)
			expired++
		} else {
			m.armExpiry(s)
			m.prefetchContacts(s)
			restored++
		}
		sl.mu.Unlock()
	}

	m.logger.Info("crisis sessions restored",
		zap.Int("active", restored),
		zap.Int("expired", expired))
	return restored, nil
}

// Active counts sessions that have not terminated.
func (m *Manager) Active() int {
	m.mu.RLock()
	slots := make([]*slot, 0, len(m.slots))
	for _, sl := range m.slots {
		slots = append(slots, sl)
	}
	m.mu.RUnlock()

	n := 0
	for _, sl := range slots {
		sl.mu.Lock()
		if !sl.session.IsTerminal() {
			n++
		}
		sl.mu.Unlock()
	}
	return n
}

// Close stops the sweep loop and expiry timers, then waits for queued
// snapshot writes and notifications. Live sessions are left to Restore.
func (m *Manager) Close(ctx context.Context) error {
	if !m.running.CompareAndSwap(true, false) {
		return nil
	}
	close(m.stop)
	m.wg.Wait()
	m.scheduler.Close()

	if m.persister != nil {
		if err := m.persister.Close(ctx); err != nil {
			return fmt.Errorf("flush session snapshots: %w", err)
		}
	}
	if err := m.notifier.wait(ctx); err != nil {
		return fmt.Errorf("wait for escalation notifications: %w", err)
	}
	return nil
}

// admit checks state, expiry, the gate and the execution cap. The caller
// holds the slot lock. Expiry found here terminates the session.
func (m *Manager) admit(ctx context.Context, s *session.CrisisSession, op session.Operation, now time.Time) (session.Policy, error) {
	switch s.State {
	case session.StateResolved:
		return session.Policy{}, errors.NewSessionResolvedError(s.ID)
	case session.StateExpired:
		return session.Policy{}, errors.NewSessionExpiredError(s.ID)
	}
	if s.IsExpiredAt(now) {
		m.terminateLocked(ctx, s, session.StateExpired, session.ReasonTimeout, now)
		return session.Policy{}, errors.NewSessionExpiredError(s.ID)
	}

	policy, ok := m.gate.Policy(op)
	if !ok {
		return session.Policy{}, errors.NewOperationNotAllowedError(string(op))
	}
	if _, ok := m.handlers[op]; !ok {
		return session.Policy{}, errors.NewOperationNotAllowedError(string(op))
	}
	if limit := policy.MaxExecutionsPerSession; limit > 0 && s.ExecutionCount(op) >= limit {
		return policy, errors.NewExecutionLimitError(string(op), limit)
	}
	return policy, nil
}

func (m *Manager) run(ctx context.Context, op session.Operation, req opRequest) (out opOutcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("operation handler panicked",
				zap.String("session_id", req.session.ID),
				zap.String("operation", string(op)),
				zap.Any("panic", r))
			out = opOutcome{}
			err = errors.NewInternalError(fmt.Sprintf("operation %s failed", op))
		}
	}()
	return m.handlers[op](ctx, req)
}

// terminateLocked ends an active session and records the single terminal
// audit entry. The caller holds the slot lock.
func (m *Manager) terminateLocked(ctx context.Context, s *session.CrisisSession, state session.State, reason string, now time.Time) bool {
	if !s.Terminate(state, reason, now) {
		return false
	}
	m.scheduler.Cancel(s.ID)

	eventType, operation := audit.EventSessionResolved, "resolve"
	if state == session.StateExpired {
		eventType, operation = audit.EventSessionExpired, "expire"
	}
	m.record(ctx, audit.NewEntryBuilder(eventType, operation, now).
		WithSession(s.ID, s.DeviceID, s.UserID).
		WithSeverity(s.Severity.String()).
		WithDuration(s.Duration(now)).
		WithOutcome(true, reason).
		WithMetadata("initial_severity", s.InitialSeverity.String()).
		WithMetadata("operations", len(s.Operations)).
		WithMetadata("automatic_escalation", s.AutomaticEscalation).
		Build())
	m.metrics.SessionTerminated(string(state))
	if m.persister != nil {
		m.persister.Remove(s.ID)
	}

	id := s.ID
	m.scheduler.Schedule(evictKey(id), now.Add(m.config.GraceWindow), func() { m.evict(id) })

	m.logger.Info("crisis session ended",
		zap.String("session_id", id),
		zap.String("state", string(state)),
		zap.String("reason", reason),
		zap.Duration("duration", s.Duration(now)))
	return true
}

func (m *Manager) armExpiry(s *session.CrisisSession) {
	id := s.ID
	m.scheduler.Schedule(id, s.ExpiresAt, func() { m.expire(id) })
}

// expire runs from the expiry timer. It re-checks the clock so a timer that
// fires early only re-arms.
func (m *Manager) expire(id string) {
	sl := m.lookup(id)
	if sl == nil {
		return
	}
	sl.mu.Lock()
	defer sl.mu.Unlock()
	s := sl.session
	if s.IsTerminal() {
		return
	}
	now := m.clock.Now()
	if !s.IsExpiredAt(now) {
		m.armExpiry(s)
		return
	}
	m.terminateLocked(context.Background(), s, session.StateExpired, session.ReasonTimeout, now)
}

func (m *Manager) evict(id string) bool {
	sl := m.lookup(id)
	if sl == nil {
		return false
	}
	sl.mu.Lock()
	terminal := sl.session.IsTerminal()
	sl.mu.Unlock()
	if !terminal {
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.slots[id] != sl {
		return false
	}
	delete(m.slots, id)
	return true
}

func (m *Manager) sweepLoop() {
	defer m.wg.Done()
	ticker := m.clock.NewTicker(m.config.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-m.stop:
			return
		case <-ticker.Chan():
			m.sweep()
		}
	}
}

// sweep expires sessions whose timer did not fire and evicts terminated
// sessions past the grace window.
func (m *Manager) sweep() (expired, evicted int) {
	now := m.clock.Now()
	m.mu.RLock()
	slots := make([]*slot, 0, len(m.slots))
	for _, sl := range m.slots {
		slots = append(slots, sl)
	}
	m.mu.RUnlock()

	var stale []string
	for _, sl := range slots {
		sl.mu.Lock()
		s := sl.session
		switch {
		case !s.IsTerminal() && s.IsExpiredAt(now):
			if m.terminateLocked(context.Background(), s, session.StateExpired, session.ReasonTimeout, now) {
				expired++
			}
		case s.IsTerminal() && s.ResolvedAt != nil && !now.Before(s.ResolvedAt.Add(m.config.GraceWindow)):
			stale = append(stale, s.ID)
		}
		sl.mu.Unlock()
	}
	for _, id := range stale {
		if m.evict(id) {
			evicted++
		}
	}

	if expired > 0 {
		m.logger.Warn("sweep expired sessions whose timer did not fire", zap.Int("expired", expired))
	}
	if evicted > 0 {
		m.logger.Debug("sweep evicted terminated sessions", zap.Int("evicted", evicted))
	}
	return expired, evicted
}

func (m *Manager) lookup(id string) *slot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.slots[id]
}

func (m *Manager) deny(ctx context.Context, s *session.CrisisSession, op session.Operation, at time.Time, err error) {
	code := errors.CodeOf(err)
	m.metrics.Denied(code)
	m.record(ctx, audit.NewEntryBuilder(audit.EventAccessDenied, string(op), at).
		WithSession(s.ID, s.DeviceID, s.UserID).
		WithSeverity(severityOrEmpty(s)).
		WithOutcome(false, code).
		Build())
	m.logger.Debug("crisis access denied",
		zap.String("session_id", s.ID),
		zap.String("operation", string(op)),
		zap.String("reason", code))
}

func (m *Manager) save(s *session.CrisisSession) {
	if m.persister == nil {
		return
	}
	ttl := s.ExpiresAt.Sub(m.clock.Now()) + m.config.GraceWindow
	m.persister.Save(s.Clone(), ttl)
}

// prefetchContacts warms the directory so the session's first contact
// lookup finds them.
func (m *Manager) prefetchContacts(s *session.CrisisSession) {
	if m.directory != nil && s.UserID != "" {
		m.directory.Prefetch(s.UserID)
	}
}

func (m *Manager) escalation(ctx context.Context, s *session.CrisisSession, reason string, op session.Operation) Escalation {
	e := Escalation{
		SessionID:  s.ID,
		DeviceID:   s.DeviceID,
		UserID:     s.UserID,
		CrisisType: s.CrisisType,
		Severity:   s.Severity,
		Reason:     reason,
		Operation:  op,
		At:         m.clock.Now(),
	}
	if m.directory != nil && s.UserID != "" {
		e.Contacts = m.directory.Contacts(ctx, s.UserID)
	}
	return e
}

func (m *Manager) checkBudget(ctx context.Context, name string, elapsed, budget time.Duration) {
	if budget <= 0 || elapsed <= budget {
		return
	}
	m.metrics.PerformanceViolation(name)
	m.logger.Warn("performance budget exceeded",
		append(telemetry.TraceFields(ctx),
			zap.String("operation", name),
			zap.Int64("budget_ms", budget.Milliseconds()),
			zap.Int64("actual_ms", elapsed.Milliseconds()))...)
}

func (m *Manager) record(ctx context.Context, entry *audit.Entry) {
	if m.recorder != nil {
		m.recorder.Record(ctx, entry)
	}
}

func evictKey(id string) string { return "evict:" + id }

func severityOrEmpty(s *session.CrisisSession) string {
	if s.Severity.IsValid() {
		return s.Severity.String()
	}
	return ""
}
