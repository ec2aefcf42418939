package authkit

import (
	"strings"
	"testing"
	"time"
)

func TestTOTPVerifyRFCVectorsSHA1(t *testing.T) {
	m := newTOTPManager(TOTPConfig{
		Issuer:    "authkit",
		Digits:    8,
		Period:    30,
		Algorithm: "SHA1",
		Skew:      0,
	})
	secret := []byte("12345678901234567890")
	cases := []struct {
		ts   int64
		code string
	}{
		{59, "94287082"},
		{1111111109, "07081804"},
		{1111111111, "14050471"},
		{1234567890, "89005924"},
		{2000000000, "69279037"},
		{20000000000, "65353130"},
	}

	for _, tc := range cases {
		ok, err := m.VerifyCode(secret, tc.code, time.Unix(tc.ts, 0))
		if err != nil || !ok {
			t.Fatalf("SHA1 vector failed at t=%d, ok=%v err=%v", tc.ts, ok, err)
		}
	}
}

func TestTOTPVerifyRFCVectorsSHA256(t *testing.T) {
	m := newTOTPManager(TOTPConfig{
		Issuer:    "authkit",
		Digits:    8,
		Period:    30,
		Algorithm: "SHA256",
		Skew:      0,
	})
	secret := []byte("12345678901234567890123456789012")
	cases := []struct {
		ts   int64
		code string
	}{
		{59, "46119246"},
		{1111111109, "68084774"},
		{1111111111, "67062674"},
		{1234567890, "91819424"},
		{2000000000, "90698825"},
		{20000000000, "77737706"},
	}

	for _, tc := range cases {
		ok, err := m.VerifyCode(secret, tc.code, time.Unix(tc.ts, 0))
		if err != nil || !ok {
			t.Fatalf("SHA256 vector failed at t=%d, ok=%v err=%v", tc.ts, ok, err)
		}
	}
}

func TestTOTPVerifyRFCVectorsSHA512(t *testing.T) {
	m := newTOTPManager(TOTPConfig{
		Issuer:    "authkit",
		Digits:    8,
		Period:    30,
		Algorithm: "SHA512",
		Skew:      0,
	})
	secret := []byte("1234567890123456789012345678901234567890123456789012345678901234")
	cases := []struct {
		ts   int64
		code string
	}{
		{59, "90693936"},
		{1111111109, "25091201"},
		{1111111111, "99943326"},
		{1234567890, "93441116"},
		{2000000000, "38618901"},
		{20000000000, "47863826"},
	}

	for _, tc := range cases {
		ok, err := m.VerifyCode(secret, tc.code, time.Unix(tc.ts, 0))
		if err != nil || !ok {
			t.Fatalf("SHA512 vector failed at t=%d, ok=%v err=%v", tc.ts, ok, err)
		}
	}
}

func TestTOTPSkewWindow(t *testing.T) {
	m := newTOTPManager(TOTPConfig{
		Issuer:    "authkit",
		Digits:    6,
		Period:    30,
		Algorithm: "SHA1",
		Skew:      1,
	})
	secret := []byte("12345678901234567890")
	now := time.Unix(1111111111, 0)
	step := now.Unix() / 30

	codeAt := func(counter int64) string {
		code, err := hotpCode(secret, counter, 6, "SHA1")
		if err != nil {
			t.Fatalf("hotpCode failed: %v", err)
		}
		return code
	}

	// Current and adjacent steps are accepted.
	for _, counter := range []int64{step - 1, step, step + 1} {
		ok, err := m.VerifyCode(secret, codeAt(counter), now)
		if err != nil || !ok {
			t.Fatalf("counter %d (offset %d) rejected: ok=%v err=%v", counter, counter-step, ok, err)
		}
	}

	// Two steps away is outside the window.
	for _, counter := range []int64{step - 2, step + 2} {
		ok, err := m.VerifyCode(secret, codeAt(counter), now)
		if err != nil {
			t.Fatalf("VerifyCode errored: %v", err)
		}
		if ok {
			t.Fatalf("counter %d (offset %d) must be rejected", counter, counter-step)
		}
	}
}

func TestTOTPRejectsMalformedCodes(t *testing.T) {
	m := newTOTPManager(TOTPConfig{
		Issuer:    "authkit",
		Digits:    6,
		Period:    30,
		Algorithm: "SHA1",
		Skew:      1,
	})
	secret := []byte("12345678901234567890")
	now := time.Now()

	for _, code := range []string{"", "12345", "1234567", "12a456", "     "} {
		ok, err := m.VerifyCode(secret, code, now)
		if err != nil {
			t.Fatalf("VerifyCode errored on %q: %v", code, err)
		}
		if ok {
			t.Fatalf("malformed code %q accepted", code)
		}
	}
}

func TestTOTPGenerateSecret(t *testing.T) {
	m := newTOTPManager(TOTPConfig{Issuer: "authkit", Digits: 6, Period: 30, Skew: 1})

	raw, encoded, err := m.GenerateSecret()
	if err != nil {
		t.Fatalf("GenerateSecret failed: %v", err)
	}
	if len(raw) != totpSecretBytes {
		t.Fatalf("unexpected secret size %d", len(raw))
	}
	if encoded == "" {
		t.Fatal("empty base32 encoding")
	}

	uri := m.ProvisionURI(encoded, "alice@example.com")
	if !strings.HasPrefix(uri, "otpauth://totp/") {
		t.Fatalf("unexpected provisioning URI: %q", uri)
	}
	if !strings.Contains(uri, "secret="+encoded) {
		t.Fatalf("provisioning URI missing secret: %q", uri)
	}
}
