package jwt

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func testKeys(t *testing.T) *Keys {
	t.Helper()

	keys, err := GenerateKeys(2048)
	if err != nil {
		t.Fatalf("GenerateKeys failed: %v", err)
	}
	return keys
}

func testCodec(t *testing.T, keys *Keys, clock func() time.Time) *Codec {
	t.Helper()

	c, err := NewCodec(keys, Config{
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 7 * 24 * time.Hour,
		Issuer:     "authkit-test",
		Clock:      clock,
	})
	if err != nil {
		t.Fatalf("NewCodec failed: %v", err)
	}
	return c
}

func TestRoundTripAccessAndRefresh(t *testing.T) {
	c := testCodec(t, testKeys(t), nil)

	access, err := c.IssueAccess("u1")
	if err != nil {
		t.Fatalf("IssueAccess failed: %v", err)
	}
	claims, err := c.Validate(access, KindAccess)
	if err != nil {
		t.Fatalf("Validate access failed: %v", err)
	}
	if claims.Subject != "u1" || claims.Kind != KindAccess {
		t.Fatalf("unexpected claims: subject=%q kind=%q", claims.Subject, claims.Kind)
	}
	if claims.ID == "" {
		t.Fatal("expected non-empty jti")
	}

	refresh, err := c.IssueRefresh("u1")
	if err != nil {
		t.Fatalf("IssueRefresh failed: %v", err)
	}
	claims, err = c.Validate(refresh, KindRefresh)
	if err != nil {
		t.Fatalf("Validate refresh failed: %v", err)
	}
	if claims.Subject != "u1" || claims.Kind != KindRefresh {
		t.Fatalf("unexpected refresh claims: subject=%q kind=%q", claims.Subject, claims.Kind)
	}
}

func TestValidateExpired(t *testing.T) {
	keys := testKeys(t)

	now := time.Now()
	issueClock := func() time.Time { return now.Add(-time.Hour) }
	issuer := testCodec(t, keys, issueClock)

	token, err := issuer.IssueAccess("u1")
	if err != nil {
		t.Fatalf("IssueAccess failed: %v", err)
	}

	// Signature is valid; only time has passed.
	validator := testCodec(t, keys, func() time.Time { return now })
	if _, err := validator.Decode(token); err != nil {
		t.Fatalf("Decode of expired token must still succeed, got %v", err)
	}
	if _, err := validator.Validate(token, KindAccess); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
}

func TestValidateWrongKind(t *testing.T) {
	c := testCodec(t, testKeys(t), nil)

	refresh, err := c.IssueRefresh("u1")
	if err != nil {
		t.Fatalf("IssueRefresh failed: %v", err)
	}

	if _, err := c.Validate(refresh, KindAccess); !errors.Is(err, ErrWrongKind) {
		t.Fatalf("expected ErrWrongKind, got %v", err)
	}
}

func TestValidateTamperedSignature(t *testing.T) {
	c := testCodec(t, testKeys(t), nil)

	token, err := c.IssueAccess("u1")
	if err != nil {
		t.Fatalf("IssueAccess failed: %v", err)
	}

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("expected 3 token segments, got %d", len(parts))
	}
	// Flip a character in the signature segment.
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(sig)

	if _, err := c.Validate(tampered, KindAccess); !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("expected ErrSignatureInvalid, got %v", err)
	}
}

func TestValidateForeignKey(t *testing.T) {
	issuer := testCodec(t, testKeys(t), nil)
	verifier := testCodec(t, testKeys(t), nil)

	token, err := issuer.IssueAccess("u1")
	if err != nil {
		t.Fatalf("IssueAccess failed: %v", err)
	}

	if _, err := verifier.Validate(token, KindAccess); !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("expected ErrSignatureInvalid for foreign key, got %v", err)
	}
}

func TestValidateMalformed(t *testing.T) {
	c := testCodec(t, testKeys(t), nil)

	for _, input := range []string{"", "garbage", "a.b", "a.b.c.d"} {
		if _, err := c.Validate(input, KindAccess); !errors.Is(err, ErrMalformed) {
			t.Fatalf("input %q: expected ErrMalformed, got %v", input, err)
		}
	}
}

func TestRefreshMintsIndependentAccessToken(t *testing.T) {
	c := testCodec(t, testKeys(t), nil)

	refresh, err := c.IssueRefresh("u7")
	if err != nil {
		t.Fatalf("IssueRefresh failed: %v", err)
	}

	access, err := c.Refresh(refresh)
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	claims, err := c.Validate(access, KindAccess)
	if err != nil {
		t.Fatalf("new access token failed validation: %v", err)
	}
	if claims.Subject != "u7" {
		t.Fatalf("expected subject u7, got %q", claims.Subject)
	}
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	c := testCodec(t, testKeys(t), nil)

	access, err := c.IssueAccess("u1")
	if err != nil {
		t.Fatalf("IssueAccess failed: %v", err)
	}

	if _, err := c.Refresh(access); !errors.Is(err, ErrWrongKind) {
		t.Fatalf("expected ErrWrongKind, got %v", err)
	}
}

func TestVerifyOnlyKeysCannotIssue(t *testing.T) {
	full := testKeys(t)
	publicPEM, err := full.PublicPEM()
	if err != nil {
		t.Fatalf("PublicPEM failed: %v", err)
	}

	verifyOnly, err := LoadKeys(nil, publicPEM)
	if err != nil {
		t.Fatalf("LoadKeys failed: %v", err)
	}
	c := testCodec(t, verifyOnly, nil)

	if _, err := c.IssueAccess("u1"); !errors.Is(err, ErrNoPrivateKey) {
		t.Fatalf("expected ErrNoPrivateKey, got %v", err)
	}

	// Verification still works against tokens from the full key set.
	issuer := testCodec(t, full, nil)
	token, err := issuer.IssueAccess("u1")
	if err != nil {
		t.Fatalf("IssueAccess failed: %v", err)
	}
	if _, err := c.Validate(token, KindAccess); err != nil {
		t.Fatalf("verify-only validation failed: %v", err)
	}
}

func TestLoadKeysRoundTrip(t *testing.T) {
	keys := testKeys(t)

	privPEM, err := keys.PrivatePEM()
	if err != nil {
		t.Fatalf("PrivatePEM failed: %v", err)
	}
	pubPEM, err := keys.PublicPEM()
	if err != nil {
		t.Fatalf("PublicPEM failed: %v", err)
	}

	loaded, err := LoadKeys(privPEM, pubPEM)
	if err != nil {
		t.Fatalf("LoadKeys failed: %v", err)
	}

	issuer := testCodec(t, keys, nil)
	verifier := testCodec(t, loaded, nil)

	token, err := issuer.IssueAccess("u1")
	if err != nil {
		t.Fatalf("IssueAccess failed: %v", err)
	}
	if _, err := verifier.Validate(token, KindAccess); err != nil {
		t.Fatalf("validation with reloaded keys failed: %v", err)
	}
}
