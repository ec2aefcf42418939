package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	authkit "github.com/varekai/authkit"
)

// Querier is the slice of pgx both pgxpool.Pool and pgxmock satisfy.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Schema is the table the provider expects. Shipped as a constant so callers
// can apply it with their migration tooling of choice.
const Schema = `
CREATE TABLE IF NOT EXISTS credentials (
    user_id       TEXT PRIMARY KEY,
    identifier    TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    verified      BOOLEAN NOT NULL DEFAULT FALSE,
    totp_enabled  BOOLEAN NOT NULL DEFAULT FALSE,
    totp_pending  BOOLEAN NOT NULL DEFAULT FALSE,
    totp_secret   BYTEA
);`

// Provider reads and writes credentials in Postgres.
type Provider struct {
	db Querier
}

// NewProvider wraps a pgx querier. The querier's lifetime belongs to the
// caller.
func NewProvider(db Querier) *Provider {
	return &Provider{db: db}
}

const selectColumns = `user_id, identifier, password_hash, verified, totp_enabled, totp_pending, totp_secret`

func (p *Provider) scanOne(row pgx.Row) (authkit.Credential, error) {
	var c authkit.Credential
	err := row.Scan(
		&c.UserID, &c.Identifier, &c.PasswordHash, &c.Verified,
		&c.TwoFactorEnabled, &c.TwoFactorPending, &c.TwoFactorSecret,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return authkit.Credential{}, authkit.ErrUserNotFound
		}
		return authkit.Credential{}, fmt.Errorf("scanning credential: %w", err)
	}
	return c, nil
}

func (p *Provider) GetByID(ctx context.Context, userID string) (authkit.Credential, error) {
	row := p.db.QueryRow(ctx, `SELECT `+selectColumns+` FROM credentials WHERE user_id = $1`, userID)
	return p.scanOne(row)
}

func (p *Provider) GetByIdentifier(ctx context.Context, identifier string) (authkit.Credential, error) {
	row := p.db.QueryRow(ctx, `SELECT `+selectColumns+` FROM credentials WHERE identifier = $1`, identifier)
	return p.scanOne(row)
}

// exec runs a single-row write and maps "no row touched" to ErrUserNotFound.
func (p *Provider) exec(ctx context.Context, sql string, args ...any) error {
	tag, err := p.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("executing credential write: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return authkit.ErrUserNotFound
	}
	return nil
}

func (p *Provider) UpdatePasswordHash(ctx context.Context, userID, newHash string) error {
	return p.exec(ctx, `UPDATE credentials SET password_hash = $2 WHERE user_id = $1`, userID, newHash)
}

func (p *Provider) MarkVerified(ctx context.Context, userID string) error {
	return p.exec(ctx, `UPDATE credentials SET verified = TRUE WHERE user_id = $1`, userID)
}

func (p *Provider) SetTwoFactorSecret(ctx context.Context, userID string, secret []byte) error {
	return p.exec(ctx, `UPDATE credentials SET totp_secret = $2, totp_pending = TRUE, totp_enabled = FALSE WHERE user_id = $1`, userID, secret)
}

func (p *Provider) EnableTwoFactor(ctx context.Context, userID string) error {
	return p.exec(ctx, `UPDATE credentials SET totp_enabled = TRUE, totp_pending = FALSE WHERE user_id = $1 AND totp_secret IS NOT NULL`, userID)
}

func (p *Provider) DisableTwoFactor(ctx context.Context, userID string) error {
	return p.exec(ctx, `UPDATE credentials SET totp_secret = NULL, totp_enabled = FALSE, totp_pending = FALSE WHERE user_id = $1`, userID)
}

// DeleteAccount removes the row. A single DELETE is atomic: the account is
// either fully gone or untouched.
func (p *Provider) DeleteAccount(ctx context.Context, userID string) error {
	return p.exec(ctx, `DELETE FROM credentials WHERE user_id = $1`, userID)
}

// CreateAccount inserts a fresh unverified credential row.
func (p *Provider) CreateAccount(ctx context.Context, userID, identifier, passwordHash string) error {
	_, err := p.db.Exec(ctx,
		`INSERT INTO credentials (user_id, identifier, password_hash) VALUES ($1, $2, $3)`,
		userID, identifier, passwordHash,
	)
	if err != nil {
		return fmt.Errorf("inserting credential: %w", err)
	}
	return nil
}
