package sessionstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/0xcro3dile/docchat-go/internal/domain/entities"
	"github.com/0xcro3dile/docchat-go/internal/domain/ports"
)

// SQLiteStore persists sessions in a SQLite database so histories survive
// restarts. Messages are stored as a JSON array.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		knowledge_base TEXT NOT NULL,
		messages TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Save inserts or replaces the session.
func (s *SQLiteStore) Save(ctx context.Context, sess *entities.Session) error {
	messages := sess.Messages
	if messages == nil {
		messages = []entities.Message{}
	}
	encoded, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("encoding messages: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO sessions (id, knowledge_base, messages, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, sess.ID, sess.KnowledgeBase, string(encoded), sess.CreatedAt.UnixNano(), sess.UpdatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

// Get loads a session.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*entities.Session, error) {
	var (
		sess             entities.Session
		encoded          string
		created, updated int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, knowledge_base, messages, created_at, updated_at
		FROM sessions WHERE id = ?
	`, id).Scan(&sess.ID, &sess.KnowledgeBase, &encoded, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("SQLiteStore.Get", id)
	}
	if err != nil {
		return nil, fmt.Errorf("querying session: %w", err)
	}

	if err := json.Unmarshal([]byte(encoded), &sess.Messages); err != nil {
		return nil, fmt.Errorf("decoding messages: %w", err)
	}
	sess.CreatedAt = time.Unix(0, created)
	sess.UpdatedAt = time.Unix(0, updated)
	return &sess, nil
}

// Delete removes the session.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

var _ ports.SessionStore = (*SQLiteStore)(nil)
