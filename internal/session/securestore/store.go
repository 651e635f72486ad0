// Package securestore persists the session record in tamper-evident local storage.
//
// The record is stored as a single SQLite row holding an HMAC-signed (HS256)
// JWT envelope. The signature makes offline edits of the on-disk copy
// detectable; the session token material inside stays opaque to the core.
package securestore

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	apperrors "github.com/tylergberg/crew-core/internal/platform/errors"
	"github.com/tylergberg/crew-core/internal/platform/storage/sqlitemigrate"
	"github.com/tylergberg/crew-core/internal/session"
	"github.com/tylergberg/crew-core/internal/session/securestore/migrations"
	_ "modernc.org/sqlite"
)

const hmacKeySize = 32

// ErrNoSession indicates a clean absence of a persisted session.
var ErrNoSession = apperrors.New(apperrors.CodeNotFound, "no persisted session")

// Store implements the secure session store over SQLite.
type Store struct {
	sqlDB *sql.DB
	key   []byte
	clock func() time.Time
}

// envelopeClaims is the signed wire form of a persisted session record.
type envelopeClaims struct {
	AccessToken  string `json:"crew_at"`
	RefreshToken string `json:"crew_rt,omitempty"`
	jwt.RegisteredClaims
}

// Open opens the secure store at path, keyed with the hex-encoded HMAC key,
// and applies bundled migrations.
func Open(path string, hexKey string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	key, err := hex.DecodeString(strings.TrimSpace(hexKey))
	if err != nil {
		return nil, fmt.Errorf("decode session hmac key: %w", err)
	}
	if len(key) != hmacKeySize {
		return nil, fmt.Errorf("session hmac key must be %d bytes", hmacKeySize)
	}

	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.Apply(sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{sqlDB: sqlDB, key: key, clock: time.Now}, nil
}

// Close releases the underlying SQLite database.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Save replaces the persisted session record wholesale.
func (s *Store) Save(ctx context.Context, sess session.Session) error {
	if s == nil || s.sqlDB == nil {
		return apperrors.New(apperrors.CodeStorageUnavailable, "secure store is not configured")
	}
	normalized, err := session.Normalize(sess)
	if err != nil {
		return err
	}

	claims := envelopeClaims{
		AccessToken:  normalized.AccessToken,
		RefreshToken: normalized.RefreshToken,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   normalized.UserID,
			ExpiresAt: jwt.NewNumericDate(normalized.ExpiresAt),
			IssuedAt:  jwt.NewNumericDate(s.clock().UTC()),
		},
	}
	envelope, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeStorageUnavailable, "sign session envelope", err)
	}

	_, err = s.sqlDB.ExecContext(ctx, `
INSERT INTO secure_session (slot, envelope, updated_at) VALUES (1, ?, ?)
ON CONFLICT(slot) DO UPDATE SET envelope = excluded.envelope, updated_at = excluded.updated_at
`, envelope, s.clock().UTC().UnixMilli())
	if err != nil {
		return apperrors.Wrap(apperrors.CodeStorageUnavailable, "put session envelope", err)
	}
	return nil
}

// Load reads the persisted session record.
//
// The second return value reports presence. Absence returns (false, nil);
// a corrupt or tampered envelope returns (false, err) with a STORAGE_CORRUPT
// code and deletes the row; an expired record returns (false, ErrExpired)
// and deletes the row. Callers treat every false identically to "no session"
// but should log the error cases distinctly.
func (s *Store) Load(ctx context.Context) (session.Session, bool, error) {
	if s == nil || s.sqlDB == nil {
		return session.Session{}, false, apperrors.New(apperrors.CodeStorageUnavailable, "secure store is not configured")
	}

	var envelope string
	row := s.sqlDB.QueryRowContext(ctx, `SELECT envelope FROM secure_session WHERE slot = 1`)
	if err := row.Scan(&envelope); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return session.Session{}, false, nil
		}
		return session.Session{}, false, apperrors.Wrap(apperrors.CodeStorageUnavailable, "get session envelope", err)
	}

	claims := envelopeClaims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return s.clock().UTC() }),
	)
	_, err := parser.ParseWithClaims(envelope, &claims, func(*jwt.Token) (any, error) {
		return s.key, nil
	})
	if err != nil {
		_ = s.deleteRow(ctx)
		if errors.Is(err, jwt.ErrTokenExpired) {
			return session.Session{}, false, session.ErrExpired
		}
		return session.Session{}, false, apperrors.Wrap(apperrors.CodeStorageCorrupt, "verify session envelope", err)
	}

	restored := session.Session{
		UserID:       claims.Subject,
		AccessToken:  claims.AccessToken,
		RefreshToken: claims.RefreshToken,
	}
	if claims.ExpiresAt != nil {
		restored.ExpiresAt = claims.ExpiresAt.Time.UTC()
	}
	normalized, err := session.Normalize(restored)
	if err != nil {
		_ = s.deleteRow(ctx)
		return session.Session{}, false, err
	}
	return normalized, true, nil
}

// Clear deletes the persisted session record wholesale.
func (s *Store) Clear(ctx context.Context) error {
	if s == nil || s.sqlDB == nil {
		return apperrors.New(apperrors.CodeStorageUnavailable, "secure store is not configured")
	}
	return s.deleteRow(ctx)
}

func (s *Store) deleteRow(ctx context.Context) error {
	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM secure_session WHERE slot = 1`); err != nil {
		return apperrors.Wrap(apperrors.CodeStorageUnavailable, "delete session envelope", err)
	}
	return nil
}
