package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/dmitrijs2005/bdocctl/internal/client/migrations"
	"github.com/dmitrijs2005/bdocctl/internal/client/models"
	"github.com/dmitrijs2005/bdocctl/internal/dbx"
)

// Slot keys inside the session table.
const (
	keyIdentity = "identity"
	keyCookie   = "cookie"
)

// Open opens (or creates) the client database at dsn and applies schema
// migrations.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening client database: %w", err)
	}

	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return nil, fmt.Errorf("setting goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return db, nil
}

// SQLiteStore keeps the session snapshot in a single key-value table.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM session WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session[%s]: %w", key, err)
	}
	return value, nil
}

func set(ctx context.Context, tx dbx.DBTX, key string, value []byte) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO session (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set session[%s]: %w", key, err)
	}
	return nil
}

// Load reads the stored snapshot. A malformed or partial identity entry is
// treated as absent rather than surfaced as an error; the cookie is still
// returned so the backend session can be probed.
func (s *SQLiteStore) Load(ctx context.Context) (*Snapshot, error) {
	rawIdentity, err := s.get(ctx, keyIdentity)
	if err != nil {
		return nil, err
	}
	rawCookie, err := s.get(ctx, keyCookie)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{Cookie: string(rawCookie)}
	if len(rawIdentity) > 0 {
		var identity models.Identity
		if err := json.Unmarshal(rawIdentity, &identity); err == nil && identity.Complete() {
			snap.Identity = &identity
		}
	}

	if snap.Identity == nil && snap.Cookie == "" {
		return nil, nil
	}
	return snap, nil
}

// Save overwrites the slot with snap in a single transaction.
func (s *SQLiteStore) Save(ctx context.Context, snap *Snapshot) error {
	data, err := json.Marshal(snap.Identity)
	if err != nil {
		return fmt.Errorf("failed to serialize identity: %w", err)
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := set(ctx, tx, keyIdentity, data); err != nil {
			return err
		}
		return set(ctx, tx, keyCookie, []byte(snap.Cookie))
	})
}

// Clear empties the slot.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM session WHERE key IN (?, ?)`, keyIdentity, keyCookie)
	if err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
