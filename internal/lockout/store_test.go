package lockout

import (
	"testing"
	"time"
)

type fakeClock struct {
	current time.Time
}

func (f *fakeClock) now() time.Time {
	return f.current
}

func (f *fakeClock) advance(d time.Duration) {
	f.current = f.current.Add(d)
}

func newTestStore() (*Store, *fakeClock) {
	store := NewStore(Config{
		MaxAttempts:  5,
		Window:       15 * time.Minute,
		LockDuration: 15 * time.Minute,
	})
	clock := &fakeClock{current: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	store.SetClock(clock.now)
	return store, clock
}

func TestLockAfterThresholdFailures(t *testing.T) {
	store, _ := newTestStore()

	for i := 0; i < 4; i++ {
		locked, _ := store.RegisterFailure("hans", "10.0.0.1")
		if locked {
			t.Fatalf("locked after %d failures", i+1)
		}
		if _, isLocked := store.Check("hans", "10.0.0.1"); isLocked {
			t.Fatalf("Check reports locked after %d failures", i+1)
		}
	}

	locked, retryAfter := store.RegisterFailure("hans", "10.0.0.1")
	if !locked {
		t.Fatal("expected lock after 5th failure")
	}
	if retryAfter != 15*time.Minute {
		t.Fatalf("expected 15m retry-after, got %v", retryAfter)
	}

	retryAfter, isLocked := store.Check("hans", "10.0.0.1")
	if !isLocked {
		t.Fatal("expected Check to report locked")
	}
	if retryAfter <= 0 {
		t.Fatalf("expected positive retry-after, got %v", retryAfter)
	}
}

func TestIdentityNormalization(t *testing.T) {
	store, _ := newTestStore()

	for i := 0; i < 5; i++ {
		store.RegisterFailure("  Hans ", "10.0.0.1")
	}
	if _, locked := store.Check("hans", "10.0.0.1"); !locked {
		t.Fatal("expected case-insensitive identity to share one record")
	}
}

func TestUnrelatedKeysAreIndependent(t *testing.T) {
	store, _ := newTestStore()

	for i := 0; i < 5; i++ {
		store.RegisterFailure("hans", "10.0.0.1")
	}
	if _, locked := store.Check("hans", "10.0.0.2"); locked {
		t.Fatal("different origin must not be locked")
	}
	if _, locked := store.Check("vreni", "10.0.0.1"); locked {
		t.Fatal("different identity must not be locked")
	}
}

func TestClearResetsCounter(t *testing.T) {
	store, _ := newTestStore()

	for i := 0; i < 4; i++ {
		store.RegisterFailure("hans", "10.0.0.1")
	}
	store.Clear("hans", "10.0.0.1")

	locked, _ := store.RegisterFailure("hans", "10.0.0.1")
	if locked {
		t.Fatal("expected fresh counter after Clear")
	}
}

func TestWindowExpiryStartsNewCount(t *testing.T) {
	store, clock := newTestStore()

	for i := 0; i < 4; i++ {
		store.RegisterFailure("hans", "10.0.0.1")
	}
	clock.advance(16 * time.Minute)

	locked, _ := store.RegisterFailure("hans", "10.0.0.1")
	if locked {
		t.Fatal("failure after window expiry must start a new count")
	}
}

func TestLockExpires(t *testing.T) {
	store, clock := newTestStore()

	for i := 0; i < 5; i++ {
		store.RegisterFailure("hans", "10.0.0.1")
	}
	if _, locked := store.Check("hans", "10.0.0.1"); !locked {
		t.Fatal("expected lock")
	}

	clock.advance(15*time.Minute + time.Second)
	if _, locked := store.Check("hans", "10.0.0.1"); locked {
		t.Fatal("lock should have expired")
	}
}

func TestFailureWhileLockedDoesNotExtendLock(t *testing.T) {
	store, clock := newTestStore()

	for i := 0; i < 5; i++ {
		store.RegisterFailure("hans", "10.0.0.1")
	}
	clock.advance(10 * time.Minute)

	locked, retryAfter := store.RegisterFailure("hans", "10.0.0.1")
	if !locked {
		t.Fatal("expected still locked")
	}
	if retryAfter != 5*time.Minute {
		t.Fatalf("expected 5m remaining, got %v", retryAfter)
	}
}

func TestSweepRemovesOnlyExpiredRecords(t *testing.T) {
	store, clock := newTestStore()

	store.RegisterFailure("old", "10.0.0.1")
	clock.advance(20 * time.Minute)
	store.RegisterFailure("fresh", "10.0.0.1")
	for i := 0; i < 5; i++ {
		store.RegisterFailure("locked", "10.0.0.1")
	}

	removed := store.Sweep()
	if removed != 1 {
		t.Fatalf("expected 1 record swept, got %d", removed)
	}
	if store.Len() != 2 {
		t.Fatalf("expected 2 records remaining, got %d", store.Len())
	}
	if _, locked := store.Check("locked", "10.0.0.1"); !locked {
		t.Fatal("sweep must not drop an active lock")
	}
}

func TestZeroConfigFallsBackToDefaults(t *testing.T) {
	store := NewStore(Config{})
	if store.cfg.MaxAttempts != 5 || store.cfg.Window != 15*time.Minute || store.cfg.LockDuration != 15*time.Minute {
		t.Fatalf("unexpected defaults: %+v", store.cfg)
	}
}
