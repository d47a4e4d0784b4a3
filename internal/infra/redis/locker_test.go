package redis

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestLockerExcludesSecondHolder(t *testing.T) {
	mr, client := startMiniredis(t)
	locker := NewLocker(client, time.Minute)
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "s1")
	if err != nil {
		t.Fatalf("lock: %v", err)
	}
	if !mr.Exists("timed:lock:s1") {
		t.Fatalf("expected lock key")
	}

	waitCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	if _, err := locker.Lock(waitCtx, "s1"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected second lock to time out, got %v", err)
	}

	unlock()
	unlock() // idempotent
	if mr.Exists("timed:lock:s1") {
		t.Fatalf("expected lock released")
	}

	again, err := locker.Lock(ctx, "s1")
	if err != nil {
		t.Fatalf("relock: %v", err)
	}
	again()
}

func TestLockerReleaseKeepsForeignLease(t *testing.T) {
	mr, client := startMiniredis(t)
	locker := NewLocker(client, time.Second)
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "s1")
	if err != nil {
		t.Fatalf("lock: %v", err)
	}
	// lease expires and another holder takes over
	mr.FastForward(2 * time.Second)
	other, err := locker.Lock(ctx, "s1")
	if err != nil {
		t.Fatalf("lock after expiry: %v", err)
	}

	unlock()
	if !mr.Exists("timed:lock:s1") {
		t.Fatalf("stale holder must not release the new lease")
	}
	other()
}

func TestLockerSerializesCriticalSection(t *testing.T) {
	_, client := startMiniredis(t)
	locker := NewLocker(client, time.Minute)
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := locker.Lock(ctx, "s1")
			if err != nil {
				t.Errorf("lock: %v", err)
				return
			}
			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()
			time.Sleep(5 * time.Millisecond)
			mu.Lock()
			inside--
			mu.Unlock()
			unlock()
		}()
	}
	wg.Wait()
	if maxSeen != 1 {
		t.Fatalf("expected at most one holder at a time, saw %d", maxSeen)
	}
}
