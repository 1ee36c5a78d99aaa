package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/claude/courtside/internal/models"
)

// ErrCorruptSession is returned by Load when the stored snapshot cannot be decoded.
var ErrCorruptSession = models.ErrCorruptSession

// SessionKey is the single slot the in-progress workout is persisted under.
const SessionKey = "voiceWorkoutSession"

// SessionStore persists the one in-progress workout. Save overwrites the
// slot; Load returns ErrNotFound when it is empty.
type SessionStore struct {
	db  *sql.DB
	now func() time.Time
}

// Sessions returns the session slot backed by db.
func (db *DB) Sessions() *SessionStore {
	return &SessionStore{db: db.db, now: time.Now}
}

func (s *SessionStore) Save(ctx context.Context, st *models.WorkoutState) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sessions (key, data, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		SessionKey, string(data), s.now().UnixMilli())
	if err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

func (s *SessionStore) Load(ctx context.Context) (*models.WorkoutState, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM sessions WHERE key = ?`, SessionKey).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}
	return decodeSession([]byte(data))
}

func (s *SessionStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE key = ?`, SessionKey); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	return nil
}

// FileSessionStore keeps the session slot in a JSON file.
type FileSessionStore struct {
	path string
	mu   sync.Mutex
}

// NewFileSessionStore stores the session at path, creating its directory on first save.
func NewFileSessionStore(path string) *FileSessionStore {
	return &FileSessionStore{path: path}
}

func (s *FileSessionStore) Save(_ context.Context, st *models.WorkoutState) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating session dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("writing session: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replacing session: %w", err)
	}
	return nil
}

func (s *FileSessionStore) Load(_ context.Context) (*models.WorkoutState, error) {
	s.mu.Lock()
	data, err := os.ReadFile(s.path)
	s.mu.Unlock()
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading session: %w", err)
	}
	return decodeSession(data)
}

func (s *FileSessionStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing session: %w", err)
	}
	return nil
}

func decodeSession(data []byte) (*models.WorkoutState, error) {
	var st models.WorkoutState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSession, err)
	}
	return &st, nil
}
