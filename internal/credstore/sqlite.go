package credstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/oauth2"
)

const schema = `
CREATE TABLE IF NOT EXISTS mailboxes (
	address    TEXT PRIMARY KEY,
	token      TEXT NOT NULL,
	is_active  INTEGER NOT NULL DEFAULT 1,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
`

// SQLiteStore keeps mailbox registrations and token blobs in one sqlite file.
type SQLiteStore struct {
	db *sqlx.DB
}

// Open connects to (and creates, if absent) the store at path.
func Open(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000", path)
	db, err := sqlx.Connect("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect credential store: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Migrate creates the schema if it does not exist yet.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate credential store: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) ListMailboxes(ctx context.Context) ([]string, error) {
	var addrs []string
	err := s.db.SelectContext(ctx, &addrs,
		`SELECT address FROM mailboxes WHERE is_active = 1 ORDER BY address`)
	if err != nil {
		return nil, fmt.Errorf("list mailboxes: %w", err)
	}
	return addrs, nil
}

func (s *SQLiteStore) GetToken(ctx context.Context, address string) (*oauth2.Token, error) {
	var blob string
	err := s.db.GetContext(ctx, &blob,
		`SELECT token FROM mailboxes WHERE address = ? AND is_active = 1`, address)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("mailbox %s: %w", address, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get token for %s: %w", address, err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal([]byte(blob), &tok); err != nil {
		return nil, fmt.Errorf("decode token for %s: %w", address, err)
	}
	return &tok, nil
}

func (s *SQLiteStore) PutToken(ctx context.Context, address string, tok *oauth2.Token) error {
	blob, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("encode token for %s: %w", address, err)
	}
	now := time.Now()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO mailboxes (address, token, is_active, created_at, updated_at)
		VALUES (?, ?, 1, ?, ?)
		ON CONFLICT(address) DO UPDATE SET token = excluded.token, updated_at = excluded.updated_at`,
		address, string(blob), now, now)
	if err != nil {
		return fmt.Errorf("store token for %s: %w", address, err)
	}
	return nil
}

// Deactivate marks a mailbox inactive without deleting its registration.
func (s *SQLiteStore) Deactivate(ctx context.Context, address string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE mailboxes SET is_active = 0, updated_at = ? WHERE address = ?`,
		time.Now(), address)
	if err != nil {
		return fmt.Errorf("deactivate %s: %w", address, err)
	}
	return nil
}

var _ Store = (*SQLiteStore)(nil)
