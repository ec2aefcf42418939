package rate

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestLimiter(t *testing.T) (*miniredis.Miniredis, *Limiter) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, New(client, "arl")
}

func TestAllowUpToLimitThenDeny(t *testing.T) {
	_, l := newTestLimiter(t)
	ctx := context.Background()

	const limit = 3
	for i := 0; i < limit; i++ {
		d, err := l.Allow(ctx, "signin", "alice", limit, time.Minute)
		if err != nil {
			t.Fatalf("Allow %d failed: %v", i, err)
		}
		if !d.Allowed {
			t.Fatalf("call %d within budget was denied", i)
		}
	}

	d, err := l.Allow(ctx, "signin", "alice", limit, time.Minute)
	if err != nil {
		t.Fatalf("Allow failed: %v", err)
	}
	if d.Allowed {
		t.Fatal("limit+1-th call was allowed")
	}
	if d.RetryAfter <= 0 {
		t.Fatalf("denied decision missing retry-after hint: %v", d.RetryAfter)
	}
}

func TestWindowElapsesAndBudgetResets(t *testing.T) {
	mr, l := newTestLimiter(t)
	ctx := context.Background()

	if _, err := l.Allow(ctx, "signin", "alice", 1, time.Minute); err != nil {
		t.Fatalf("Allow failed: %v", err)
	}
	d, err := l.Allow(ctx, "signin", "alice", 1, time.Minute)
	if err != nil {
		t.Fatalf("Allow failed: %v", err)
	}
	if d.Allowed {
		t.Fatal("second call should be denied")
	}

	mr.FastForward(61 * time.Second)

	d, err = l.Allow(ctx, "signin", "alice", 1, time.Minute)
	if err != nil {
		t.Fatalf("Allow after window failed: %v", err)
	}
	if !d.Allowed {
		t.Fatal("call after window elapsed was denied")
	}
}

func TestBudgetsAreIndependentPerKey(t *testing.T) {
	_, l := newTestLimiter(t)
	ctx := context.Background()

	if _, err := l.Allow(ctx, "signin", "alice", 1, time.Minute); err != nil {
		t.Fatalf("Allow failed: %v", err)
	}

	// Different subject, same action.
	d, err := l.Allow(ctx, "signin", "bob", 1, time.Minute)
	if err != nil || !d.Allowed {
		t.Fatalf("bob should have a fresh budget: allowed=%v err=%v", d.Allowed, err)
	}

	// Different action, same subject.
	d, err = l.Allow(ctx, "delete", "alice", 1, time.Minute)
	if err != nil || !d.Allowed {
		t.Fatalf("delete action should have a fresh budget: allowed=%v err=%v", d.Allowed, err)
	}
}

func TestConcurrentIncrementsNeverExceedLimit(t *testing.T) {
	_, l := newTestLimiter(t)
	ctx := context.Background()

	const (
		limit   = 10
		callers = 50
	)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, err := l.Allow(ctx, "refresh", "u1", limit, time.Minute)
			if err != nil {
				t.Errorf("Allow failed: %v", err)
				return
			}
			if d.Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if allowed != limit {
		t.Fatalf("expected exactly %d allowed calls, got %d", limit, allowed)
	}
}

func TestResetClearsBudget(t *testing.T) {
	_, l := newTestLimiter(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := l.Allow(ctx, "signin", "alice", 1, time.Minute); err != nil {
			t.Fatalf("Allow failed: %v", err)
		}
	}
	if err := l.Reset(ctx, "signin", "alice"); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}

	d, err := l.Allow(ctx, "signin", "alice", 1, time.Minute)
	if err != nil || !d.Allowed {
		t.Fatalf("expected fresh budget after reset: allowed=%v err=%v", d.Allowed, err)
	}
}

func TestRedisDownWrapsUnavailable(t *testing.T) {
	mr, l := newTestLimiter(t)
	mr.Close()

	_, err := l.Allow(context.Background(), "signin", "alice", 1, time.Minute)
	if !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("expected ErrRedisUnavailable, got %v", err)
	}
}
