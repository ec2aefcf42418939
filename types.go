package authkit

import "context"

// Credential is the narrow read model the engine needs from the identity
// subsystem: password hash, verification state, and second-factor fields.
// The invariant "secret present iff enrolled" is the provider's to keep; the
// engine only checks the flags.
type Credential struct {
	UserID       string
	Identifier   string // email or username; also the Messenger address
	PasswordHash string
	Verified     bool

	TwoFactorEnabled bool
	TwoFactorPending bool
	TwoFactorSecret  []byte
}

// CredentialProvider is implemented by the caller to connect the engine to
// its user database. Implementations must return [ErrUserNotFound] for
// missing users, and DeleteAccount must be all-or-nothing: a failure leaves
// the account intact.
type CredentialProvider interface {
	GetByID(ctx context.Context, userID string) (Credential, error)
	GetByIdentifier(ctx context.Context, identifier string) (Credential, error)
	UpdatePasswordHash(ctx context.Context, userID, newHash string) error
	MarkVerified(ctx context.Context, userID string) error

	// SetTwoFactorSecret stores a freshly generated secret in the pending
	// state. EnableTwoFactor flips pending to enabled after the first
	// successful code confirmation. DisableTwoFactor clears both the
	// secret and the flags.
	SetTwoFactorSecret(ctx context.Context, userID string, secret []byte) error
	EnableTwoFactor(ctx context.Context, userID string) error
	DisableTwoFactor(ctx context.Context, userID string) error

	DeleteAccount(ctx context.Context, userID string) error
}

// Messenger delivers outbound messages (verification links, reset codes).
// The engine generates the token material; delivery is the collaborator's
// problem. A failed send surfaces as a wrapped ErrStoreUnavailable.
type Messenger interface {
	Send(ctx context.Context, to, subject, body string) error
}

// TokenPair is the result of a successful sign-in or refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Identity is the authenticated principal extracted from an access token.
type Identity struct {
	UserID string
}

// TOTPProvision is returned by [Engine.EnrollTOTP]: the base32 secret for
// manual entry and the otpauth:// URI for QR provisioning. The secret stays
// pending until the first successful [Engine.ConfirmTOTPEnrollment].
type TOTPProvision struct {
	SecretBase32 string
	URI          string
}
