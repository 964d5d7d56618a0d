package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// TokenPrefix identifies herald API tokens
	TokenPrefix = "herald_"
	// TokenLength is the number of random bytes (32 bytes = 256 bits)
	TokenLength = 32
)

var (
	// ErrTokenNotFound is returned when no token matches a hash
	ErrTokenNotFound = errors.New("token not found")
	// ErrTokenRevoked is returned for revoked tokens
	ErrTokenRevoked = errors.New("token revoked")
	// ErrTokenExpired is returned for expired tokens
	ErrTokenExpired = errors.New("token expired")
)

// GenerateToken creates a new API token.
// Format: herald_<base64url(32 random bytes)>
func GenerateToken() (token string, tokenHash string, tokenPrefix string, err error) {
	randomBytes := make([]byte, TokenLength)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", "", "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	encoded := base64.RawURLEncoding.EncodeToString(randomBytes)
	token = TokenPrefix + encoded
	return token, HashToken(token), ExtractPrefix(token), nil
}

// HashToken computes the SHA256 hash of a token for lookup
func HashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

// ValidateTokenFormat checks if a token has the correct format
func ValidateTokenFormat(token string) error {
	if !strings.HasPrefix(token, TokenPrefix) {
		return fmt.Errorf("token must start with %q", TokenPrefix)
	}

	encoded := strings.TrimPrefix(token, TokenPrefix)
	if len(encoded) == 0 {
		return fmt.Errorf("token is too short")
	}
	if _, err := base64.RawURLEncoding.DecodeString(encoded); err != nil {
		return fmt.Errorf("invalid token encoding: %w", err)
	}
	return nil
}

// ExtractPrefix returns the displayable prefix of a token
func ExtractPrefix(token string) string {
	if !strings.HasPrefix(token, TokenPrefix) {
		return ""
	}
	encoded := strings.TrimPrefix(token, TokenPrefix)
	if len(encoded) >= 8 {
		return TokenPrefix + encoded[:8]
	}
	return token
}

// APIToken is a stored token record. The plaintext token is never stored.
type APIToken struct {
	ID          int64
	UserKey     uuid.UUID
	TokenHash   string
	TokenPrefix string
	Name        string
	ExpiresAt   *time.Time
	RevokedAt   *time.Time
	CreatedAt   time.Time
}

// TokenStore persists API tokens in the api_tokens table
type TokenStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewTokenStore creates a token store backed by db
func NewTokenStore(db *sql.DB) *TokenStore {
	return &TokenStore{db: db, now: time.Now}
}

// CreateToken issues a token for a user. The plaintext token is returned
// once and cannot be recovered afterwards.
func (s *TokenStore) CreateToken(ctx context.Context, userKey uuid.UUID, name string, expiresAt *time.Time) (*APIToken, string, error) {
	token, hash, prefix, err := GenerateToken()
	if err != nil {
		return nil, "", err
	}

	record := &APIToken{
		UserKey:     userKey,
		TokenHash:   hash,
		TokenPrefix: prefix,
		Name:        name,
		ExpiresAt:   expiresAt,
		CreatedAt:   s.now().UTC(),
	}

	var expires sql.NullTime
	if expiresAt != nil {
		expires = sql.NullTime{Time: *expiresAt, Valid: true}
	}

	err = s.db.QueryRowContext(ctx, `
		INSERT INTO api_tokens (user_key, token_hash, token_prefix, name, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, userKey.String(), hash, prefix, name, expires, record.CreatedAt).Scan(&record.ID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to store token: %w", err)
	}

	return record, token, nil
}

// RevokeToken marks a token as revoked
func (s *TokenStore) RevokeToken(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE api_tokens SET revoked_at = $1 WHERE id = $2 AND revoked_at IS NULL
	`, s.now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	if n == 0 {
		return ErrTokenNotFound
	}
	return nil
}

// ValidateToken checks the format of a plaintext token, looks up its hash
// and rejects revoked or expired tokens
func (s *TokenStore) ValidateToken(ctx context.Context, token string) (*APIToken, error) {
	if err := ValidateTokenFormat(token); err != nil {
		return nil, fmt.Errorf("invalid token format: %w", err)
	}

	record := &APIToken{TokenHash: HashToken(token)}
	var (
		userKey            string
		expires, revokedAt sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_key, token_prefix, name, expires_at, revoked_at, created_at
		FROM api_tokens
		WHERE token_hash = $1
	`, record.TokenHash).Scan(&record.ID, &userKey, &record.TokenPrefix, &record.Name, &expires, &revokedAt, &record.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrTokenNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query token: %w", err)
	}

	if record.UserKey, err = uuid.Parse(userKey); err != nil {
		return nil, fmt.Errorf("token %s has invalid user key: %w", record.TokenPrefix, err)
	}
	if revokedAt.Valid {
		record.RevokedAt = &revokedAt.Time
		return nil, ErrTokenRevoked
	}
	if expires.Valid {
		record.ExpiresAt = &expires.Time
		if !s.now().Before(expires.Time) {
			return nil, ErrTokenExpired
		}
	}

	return record, nil
}
