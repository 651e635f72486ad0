// Package cache persists the deferred invite reference in plain local storage.
//
// Fields are stored as independent rows so a partial reference (a party id
// learned before a token) can be recorded without forcing a full object.
// References carry no expiry: a row lives until redemption succeeds or an
// explicit logout clears it.
package cache

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	apperrors "github.com/tylergberg/crew-core/internal/platform/errors"
	"github.com/tylergberg/crew-core/internal/invite"
	"github.com/tylergberg/crew-core/internal/invite/cache/migrations"
	"github.com/tylergberg/crew-core/internal/platform/storage/sqlitemigrate"
	_ "modernc.org/sqlite"
)

const (
	fieldToken         = "token"
	fieldPartyID       = "party_id"
	fieldReferrerEmail = "referrer_email"
)

// Cache implements the invite token cache over SQLite.
type Cache struct {
	sqlDB *sql.DB
	clock func() time.Time
}

// Open opens the invite cache at path and applies bundled migrations.
func Open(path string) (*Cache, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
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

	return &Cache{sqlDB: sqlDB, clock: time.Now}, nil
}

// Close releases the underlying SQLite database.
func (c *Cache) Close() error {
	if c == nil || c.sqlDB == nil {
		return nil
	}
	return c.sqlDB.Close()
}

// Store persists the reference, merging over any previously stored fields.
func (c *Cache) Store(ctx context.Context, ref invite.Reference) error {
	if c == nil || c.sqlDB == nil {
		return apperrors.New(apperrors.CodeStorageUnavailable, "invite cache is not configured")
	}
	normalized, err := invite.Normalize(ref)
	if err != nil {
		return err
	}

	fields := map[string]string{
		fieldToken:         normalized.Token,
		fieldPartyID:       normalized.PartyID,
		fieldReferrerEmail: normalized.ReferrerEmail,
	}
	now := c.clock().UTC().UnixMilli()
	for field, value := range fields {
		if value == "" {
			continue
		}
		if _, err := c.sqlDB.ExecContext(ctx, `
INSERT INTO invite_reference (field, value, updated_at) VALUES (?, ?, ?)
ON CONFLICT(field) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
`, field, value, now); err != nil {
			return apperrors.Wrap(apperrors.CodeStorageUnavailable, "put invite field", err)
		}
	}
	return nil
}

// Load reads the stored reference. The second return value reports presence.
func (c *Cache) Load(ctx context.Context) (invite.Reference, bool, error) {
	if c == nil || c.sqlDB == nil {
		return invite.Reference{}, false, apperrors.New(apperrors.CodeStorageUnavailable, "invite cache is not configured")
	}

	rows, err := c.sqlDB.QueryContext(ctx, `SELECT field, value FROM invite_reference`)
	if err != nil {
		return invite.Reference{}, false, apperrors.Wrap(apperrors.CodeStorageUnavailable, "list invite fields", err)
	}
	defer rows.Close()

	var ref invite.Reference
	for rows.Next() {
		var field, value string
		if err := rows.Scan(&field, &value); err != nil {
			return invite.Reference{}, false, apperrors.Wrap(apperrors.CodeStorageUnavailable, "scan invite field", err)
		}
		switch field {
		case fieldToken:
			ref.Token = value
		case fieldPartyID:
			ref.PartyID = value
		case fieldReferrerEmail:
			ref.ReferrerEmail = value
		}
	}
	if err := rows.Err(); err != nil {
		return invite.Reference{}, false, apperrors.Wrap(apperrors.CodeStorageUnavailable, "list invite fields", err)
	}
	if ref.Token == "" && ref.PartyID == "" {
		return invite.Reference{}, false, nil
	}
	return ref, true, nil
}

// Clear removes every stored field. Clearing an empty cache is a no-op.
func (c *Cache) Clear(ctx context.Context) error {
	if c == nil || c.sqlDB == nil {
		return apperrors.New(apperrors.CodeStorageUnavailable, "invite cache is not configured")
	}
	if _, err := c.sqlDB.ExecContext(ctx, `DELETE FROM invite_reference`); err != nil {
		return apperrors.Wrap(apperrors.CodeStorageUnavailable, "clear invite fields", err)
	}
	return nil
}
