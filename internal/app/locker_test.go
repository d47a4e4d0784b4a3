package app

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestLocalLockerExcludesAndCleansUp(t *testing.T) {
	locker := NewLocalLocker()
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "s1")
	if err != nil {
		t.Fatalf("lock: %v", err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	if _, err := locker.Lock(waitCtx, "s1"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected waiter to time out, got %v", err)
	}

	other, err := locker.Lock(ctx, "s2")
	if err != nil {
		t.Fatalf("independent key should not block: %v", err)
	}
	other()

	unlock()
	unlock()
	if n := locker.held(); n != 0 {
		t.Fatalf("expected no tracked keys, got %d", n)
	}
}

func TestLocalLockerHandsOffToWaiter(t *testing.T) {
	locker := NewLocalLocker()
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "s1")
	if err != nil {
		t.Fatalf("lock: %v", err)
	}
	acquired := make(chan func())
	go func() {
		next, err := locker.Lock(ctx, "s1")
		if err != nil {
			t.Errorf("waiter: %v", err)
			close(acquired)
			return
		}
		acquired <- next
	}()

	select {
	case <-acquired:
		t.Fatalf("waiter acquired a held lock")
	case <-time.After(20 * time.Millisecond):
	}
	unlock()

	select {
	case next := <-acquired:
		if next == nil {
			t.Fatalf("waiter failed")
		}
		next()
	case <-time.After(time.Second):
		t.Fatalf("waiter never acquired the lock")
	}
}
