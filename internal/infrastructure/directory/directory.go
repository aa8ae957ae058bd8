// Package directory serves crisis hotlines and per-user emergency contacts.
// Hotlines are static. Contacts are answered from an in-process cache and
// refreshed from the store in the background, so lookups never wait on I/O.
package directory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/MP2EZ/being-sub003/internal/infrastructure/cache"
)

type Hotline struct {
	Name        string `json:"name"`
	Number      string `json:"number"`
	Kind        string `json:"kind"`
	Description string `json:"description"`
	Always      bool   `json:"available_24_7"`
}

type Contact struct {
	Name         string `json:"name"`
	Relationship string `json:"relationship,omitempty"`
	Phone        string `json:"phone"`
}

var failOpen = []Hotline{
	{Name: "988 Suicide & Crisis Lifeline", Number: "988", Kind: "call", Description: "Call or text 988 for free, confidential support", Always: true},
	{Name: "Emergency Services", Number: "911", Kind: "call", Description: "Immediate danger to you or someone else", Always: true},
	{Name: "Crisis Text Line", Number: "741741", Kind: "text", Description: "Text HOME to 741741", Always: true},
}

// FailOpenResources returns the hotlines that must be reachable even when
// nothing else in the process is.
func FailOpenResources() []Hotline {
	out := make([]Hotline, len(failOpen))
	copy(out, failOpen)
	return out
}

const contactsKeyPrefix = "contacts:"

type cached struct {
	contacts  []Contact
	fetchedAt time.Time
}

// Directory is safe for concurrent use.
type Directory struct {
	store   cache.Store
	logger  *zap.Logger
	clock   clockwork.Clock
	refresh time.Duration

	mu       sync.RWMutex
	contacts map[string]cached
	inflight map[string]struct{}
	wg       sync.WaitGroup
}

func New(store cache.Store, logger *zap.Logger, clock clockwork.Clock, refresh time.Duration) *Directory {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if refresh <= 0 {
		refresh = 10 * time.Minute
	}
	return &Directory{
		store:    store,
		logger:   logger,
		clock:    clock,
		refresh:  refresh,
		contacts: make(map[string]cached),
		inflight: make(map[string]struct{}),
	}
}

func (d *Directory) Hotlines() []Hotline {
	return FailOpenResources()
}

// Contacts returns the last known contacts for userID and schedules a
// background refresh when the entry is missing or stale. It never touches
// the store on the calling goroutine, so a user nobody prefetched gets nil.
func (d *Directory) Contacts(ctx context.Context, userID string) []Contact {
	if userID == "" {
		return nil
	}
	entry, ok := d.cached(userID)
	if !ok || d.stale(entry) {
		d.scheduleRefresh(userID)
	}
	if !ok {
		return nil
	}
	return entry.copyContacts()
}

// Prefetch starts a background load of userID's contacts unless a fresh
// copy is already cached.
func (d *Directory) Prefetch(userID string) {
	if userID == "" {
		return
	}
	if entry, ok := d.cached(userID); ok && !d.stale(entry) {
		return
	}
	d.scheduleRefresh(userID)
}

// Lookup is the blocking form of Contacts: a missing or stale entry is read
// from the store first. A failed read falls back to whatever is cached.
func (d *Directory) Lookup(ctx context.Context, userID string) []Contact {
	if userID == "" {
		return nil
	}
	entry, ok := d.cached(userID)
	if (!ok || d.stale(entry)) && d.store != nil {
		if err := d.Refresh(ctx, userID); err == nil {
			entry, ok = d.cached(userID)
		}
	}
	if !ok {
		return nil
	}
	return entry.copyContacts()
}

func (d *Directory) cached(userID string) (cached, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	entry, ok := d.contacts[userID]
	return entry, ok
}

func (d *Directory) stale(entry cached) bool {
	return d.clock.Since(entry.fetchedAt) >= d.refresh
}

func (c cached) copyContacts() []Contact {
	out := make([]Contact, len(c.contacts))
	copy(out, c.contacts)
	return out
}

func (d *Directory) scheduleRefresh(userID string) {
	if d.store == nil {
		return
	}
	d.mu.Lock()
	if _, busy := d.inflight[userID]; busy {
		d.mu.Unlock()
		return
	}
	d.inflight[userID] = struct{}{}
	d.mu.Unlock()

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = d.Refresh(ctx, userID)
		d.mu.Lock()
		delete(d.inflight, userID)
		d.mu.Unlock()
	}()
}

// Refresh loads contacts for userID from the store into the cache.
func (d *Directory) Refresh(ctx context.Context, userID string) error {
	raw, err := d.store.Get(ctx, contactsKeyPrefix+userID)
	var contacts []Contact
	switch {
	case errors.Is(err, cache.ErrNotFound):
	case err != nil:
		d.logger.Warn("contact refresh failed", zap.String("user_id", userID), zap.Error(err))
		return err
	default:
		if err := json.Unmarshal(raw, &contacts); err != nil {
			d.logger.Warn("contact record unreadable", zap.String("user_id", userID), zap.Error(err))
			return err
		}
	}

	d.mu.Lock()
	d.contacts[userID] = cached{contacts: contacts, fetchedAt: d.clock.Now()}
	d.mu.Unlock()
	return nil
}

// SaveContacts writes contacts for userID to the store and the cache.
func (d *Directory) SaveContacts(ctx context.Context, userID string, contacts []Contact) error {
	raw, err := json.Marshal(contacts)
	if err != nil {
		return err
	}
	if err := d.store.Set(ctx, contactsKeyPrefix+userID, raw, 0); err != nil {
		return err
	}
	d.mu.Lock()
	d.contacts[userID] = cached{contacts: append([]Contact(nil), contacts...), fetchedAt: d.clock.Now()}
	d.mu.Unlock()
	return nil
}

// Wait blocks until in-flight refreshes finish.
func (d *Directory) Wait() {
	d.wg.Wait()
}
