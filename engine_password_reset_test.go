package authkit

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestPasswordResetRoundTrip(t *testing.T) {
	h := newTestEngine(t, nil)
	h.addUser(t, "alice@example.com", "correct horse battery")
	ctx := context.Background()

	code, err := h.engine.RequestPasswordReset(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("RequestPasswordReset failed: %v", err)
	}
	if len(code) != h.engine.config.PasswordReset.CodeDigits {
		t.Fatalf("code %q has wrong length", code)
	}
	if h.messenger.count() != 1 || !strings.Contains(h.messenger.sent[0].Body, code) {
		t.Fatal("code was not delivered")
	}

	// Non-consuming check, twice.
	if err := h.engine.CheckPasswordResetCode(ctx, "alice@example.com", code); err != nil {
		t.Fatalf("CheckPasswordResetCode failed: %v", err)
	}
	if err := h.engine.CheckPasswordResetCode(ctx, "alice@example.com", code); err != nil {
		t.Fatalf("second check failed: %v", err)
	}

	if err := h.engine.ConfirmPasswordReset(ctx, "alice@example.com", code, "new password here"); err != nil {
		t.Fatalf("ConfirmPasswordReset failed: %v", err)
	}

	// Old password is dead, new one works.
	if _, err := h.engine.SignIn(ctx, "alice@example.com", "correct horse battery", ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("old password still accepted: %v", err)
	}
	if _, err := h.engine.SignIn(ctx, "alice@example.com", "new password here", ""); err != nil {
		t.Fatalf("new password rejected: %v", err)
	}
}

func TestPasswordResetUnknownIdentifierIsSilent(t *testing.T) {
	h := newTestEngine(t, nil)

	code, err := h.engine.RequestPasswordReset(context.Background(), "ghost@example.com")
	if err != nil {
		t.Fatalf("unknown identifier must not error, got %v", err)
	}
	if code != "" {
		t.Fatal("unknown identifier must not produce a code")
	}
	if h.messenger.count() != 0 {
		t.Fatal("nothing should be delivered for an unknown identifier")
	}
}

func TestPasswordResetUnknownIdentifierHoldsResponse(t *testing.T) {
	h := newTestEngine(t, nil)
	ctx := context.Background()

	start := time.Now()
	code, err := h.engine.RequestPasswordReset(ctx, "ghost@example.com")
	elapsed := time.Since(start)

	if err != nil || code != "" {
		t.Fatalf("expected silent success, got code=%q err=%v", code, err)
	}
	if elapsed < resetDecoyDelay {
		t.Fatalf("unknown identifier answered in %v, want at least %v", elapsed, resetDecoyDelay)
	}
	if h.messenger.count() != 0 {
		t.Fatal("nothing should be delivered for an unknown identifier")
	}

	// A deadline expiring during the hold cuts it short but never leaks
	// a result.
	cctx, cancel := context.WithTimeout(ctx, resetDecoyDelay/4)
	defer cancel()
	if code, err := h.engine.RequestPasswordReset(cctx, "ghost@example.com"); code != "" || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expired deadline: got code=%q err=%v", code, err)
	}
}

func TestPasswordResetCodeConsumedOnce(t *testing.T) {
	h := newTestEngine(t, nil)
	h.addUser(t, "alice@example.com", "correct horse battery")
	ctx := context.Background()

	code, err := h.engine.RequestPasswordReset(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("RequestPasswordReset failed: %v", err)
	}
	if err := h.engine.ConfirmPasswordReset(ctx, "alice@example.com", code, "new password here"); err != nil {
		t.Fatalf("ConfirmPasswordReset failed: %v", err)
	}

	err = h.engine.ConfirmPasswordReset(ctx, "alice@example.com", code, "another password!")
	if !errors.Is(err, ErrAlreadyConsumed) {
		t.Fatalf("expected ErrAlreadyConsumed on replay, got %v", err)
	}
}

func TestPasswordResetWrongCodeBurnsAttempts(t *testing.T) {
	h := newTestEngine(t, func(cfg *Config) {
		cfg.PasswordReset.MaxAttempts = 3
	})
	h.addUser(t, "alice@example.com", "correct horse battery")
	ctx := context.Background()

	code, err := h.engine.RequestPasswordReset(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("RequestPasswordReset failed: %v", err)
	}
	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}

	for i := 0; i < 2; i++ {
		if err := h.engine.CheckPasswordResetCode(ctx, "alice@example.com", wrong); !errors.Is(err, ErrMismatch) {
			t.Fatalf("attempt %d: expected ErrMismatch, got %v", i, err)
		}
	}
	if err := h.engine.CheckPasswordResetCode(ctx, "alice@example.com", wrong); !errors.Is(err, ErrAttemptsExceeded) {
		t.Fatalf("expected ErrAttemptsExceeded, got %v", err)
	}

	// The record is burned even for the right code.
	if err := h.engine.ConfirmPasswordReset(ctx, "alice@example.com", code, "new password here"); !errors.Is(err, ErrAlreadyConsumed) {
		t.Fatalf("expected ErrAlreadyConsumed after burn, got %v", err)
	}
}

func TestPasswordResetExpiredCode(t *testing.T) {
	h := newTestEngine(t, nil)
	h.addUser(t, "alice@example.com", "correct horse battery")
	ctx := context.Background()

	code, err := h.engine.RequestPasswordReset(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("RequestPasswordReset failed: %v", err)
	}

	h.clock.Advance(h.engine.config.PasswordReset.TTL + time.Minute)

	if err := h.engine.ConfirmPasswordReset(ctx, "alice@example.com", code, "new password here"); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
}

func TestPasswordResetPolicyRejectionLeavesCodeLive(t *testing.T) {
	h := newTestEngine(t, nil)
	h.addUser(t, "alice@example.com", "correct horse battery")
	ctx := context.Background()

	code, err := h.engine.RequestPasswordReset(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("RequestPasswordReset failed: %v", err)
	}

	if err := h.engine.ConfirmPasswordReset(ctx, "alice@example.com", code, "short"); !errors.Is(err, ErrPasswordPolicy) {
		t.Fatalf("expected ErrPasswordPolicy, got %v", err)
	}
	// A corrected retry with the same code succeeds.
	if err := h.engine.ConfirmPasswordReset(ctx, "alice@example.com", code, "long enough now"); err != nil {
		t.Fatalf("retry after policy rejection failed: %v", err)
	}
}

func TestPasswordResetRequestRateLimited(t *testing.T) {
	h := newTestEngine(t, func(cfg *Config) {
		cfg.RateLimit.PasswordReset = Budget{Limit: 2, Window: time.Hour}
	})
	h.addUser(t, "alice@example.com", "correct horse battery")
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := h.engine.RequestPasswordReset(ctx, "alice@example.com"); err != nil {
			t.Fatalf("request %d failed: %v", i, err)
		}
	}
	if _, err := h.engine.RequestPasswordReset(ctx, "alice@example.com"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}

func TestPasswordResetUnknownUserCheck(t *testing.T) {
	h := newTestEngine(t, nil)

	if err := h.engine.CheckPasswordResetCode(context.Background(), "ghost@example.com", "123456"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
