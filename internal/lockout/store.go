// Package lockout tracks failed login attempts per (identity, origin) pair and
// imposes temporary lockouts. The store is process-local and in-memory; it is
// not shared across server instances, which is a documented limitation of the
// single-process deployment this portal targets.
package lockout

import (
	"strings"
	"sync"
	"time"
)

// Config tunes the throttle behaviour.
type Config struct {
	MaxAttempts  int           // failures within Window before locking
	Window       time.Duration // sliding accumulation window
	LockDuration time.Duration // how long a lock lasts
}

// DefaultConfig matches the documented defaults: 5 failures / 15 min / 15 min.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:  5,
		Window:       15 * time.Minute,
		LockDuration: 15 * time.Minute,
	}
}

type key struct {
	identity string
	origin   string
}

type record struct {
	count       int
	windowStart time.Time
	lockUntil   time.Time
}

// Store holds the failure records. Instantiate one per process; tests create
// isolated stores with their own clock.
type Store struct {
	mu      sync.Mutex
	cfg     Config
	records map[key]*record
	now     func() time.Time
}

// NewStore creates an empty store. Zero config values fall back to defaults.
func NewStore(cfg Config) *Store {
	def := DefaultConfig()
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.Window <= 0 {
		cfg.Window = def.Window
	}
	if cfg.LockDuration <= 0 {
		cfg.LockDuration = def.LockDuration
	}
	return &Store{
		cfg:     cfg,
		records: make(map[key]*record),
		now:     time.Now,
	}
}

// SetClock replaces the time source. Test hook.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func makeKey(identity, origin string) key {
	return key{
		identity: strings.ToLower(strings.TrimSpace(identity)),
		origin:   strings.TrimSpace(origin),
	}
}

// Check reports whether the pair is currently locked and, if so, how long the
// caller must wait. Expired records are removed on the way.
func (s *Store) Check(identity, origin string) (retryAfter time.Duration, locked bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := makeKey(identity, origin)
	rec, ok := s.records[k]
	if !ok {
		return 0, false
	}

	now := s.now()
	if rec.lockUntil.After(now) {
		return rec.lockUntil.Sub(now), true
	}
	if s.expired(rec, now) {
		delete(s.records, k)
	}
	return 0, false
}

// RegisterFailure records one failed attempt. It returns whether the pair is
// now locked and the remaining lock duration.
func (s *Store) RegisterFailure(identity, origin string) (locked bool, retryAfter time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := makeKey(identity, origin)
	now := s.now()

	rec, ok := s.records[k]
	if !ok || s.expired(rec, now) {
		rec = &record{windowStart: now}
		s.records[k] = rec
	}
	if rec.lockUntil.After(now) {
		return true, rec.lockUntil.Sub(now)
	}

	rec.count++
	if rec.count >= s.cfg.MaxAttempts {
		rec.lockUntil = now.Add(s.cfg.LockDuration)
		rec.count = 0
		rec.windowStart = now
		return true, s.cfg.LockDuration
	}
	return false, 0
}

// Clear removes the record for the pair. Called on successful authentication.
func (s *Store) Clear(identity, origin string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, makeKey(identity, origin))
}

// Sweep drops every record whose window and lock have both expired. Invoked
// by the scheduler; returns the number of records removed.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for k, rec := range s.records {
		if s.expired(rec, now) {
			delete(s.records, k)
			removed++
		}
	}
	return removed
}

// Len reports the number of live records.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

func (s *Store) expired(rec *record, now time.Time) bool {
	if rec.lockUntil.After(now) {
		return false
	}
	return now.Sub(rec.windowStart) > s.cfg.Window
}
