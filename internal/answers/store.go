package answers

import (
	"context"
	"database/sql"
	"time"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS saved_answers (
  name TEXT PRIMARY KEY,
  gender TEXT NOT NULL,
  updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS api_keys (
  key_id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  prefix TEXT NOT NULL,
  hashed_key TEXT NOT NULL,
  created_at DATETIME NOT NULL,
  last_used_at DATETIME
);

CREATE TABLE IF NOT EXISTS users (
  username TEXT PRIMARY KEY,
  password_hash TEXT NOT NULL,
  created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS sessions (
  token TEXT PRIMARY KEY,
  username TEXT NOT NULL,
  expires_at DATETIME NOT NULL
);
`)
	return err
}

// SavedAnswer is one persisted name->gender association. The name is the
// exact, case-sensitive key.
type SavedAnswer struct {
	Name      string
	Gender    string
	UpdatedAt time.Time
}

// Get is an exact-key lookup. The second return value reports presence;
// an absent key is not an error.
func (s *Store) Get(ctx context.Context, name string) (SavedAnswer, bool, error) {
	if s.db == nil {
		return SavedAnswer{}, false, nil
	}
	row := s.db.QueryRowContext(ctx, "SELECT name, gender, updated_at FROM saved_answers WHERE name=?;", name)
	var a SavedAnswer
	err := row.Scan(&a.Name, &a.Gender, &a.UpdatedAt)
	if err == sql.ErrNoRows {
		return SavedAnswer{}, false, nil
	}
	if err != nil {
		return SavedAnswer{}, false, err
	}
	return a, true, nil
}

// Upsert overwrites any prior value for the name unconditionally.
func (s *Store) Upsert(ctx context.Context, name, gender string) error {
	if s.db == nil {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO saved_answers(name, gender, updated_at)
VALUES(?, ?, ?)
ON CONFLICT(name) DO UPDATE SET
  gender=excluded.gender,
  updated_at=excluded.updated_at;
`, name, gender, time.Now())
	return err
}

// Delete removes the entry for name. Deleting an absent key is a no-op.
func (s *Store) Delete(ctx context.Context, name string) error {
	if s.db == nil {
		return nil
	}
	_, err := s.db.ExecContext(ctx, "DELETE FROM saved_answers WHERE name=?;", name)
	return err
}

func (s *Store) ListAll(ctx context.Context) ([]SavedAnswer, error) {
	if s.db == nil {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, "SELECT name, gender, updated_at FROM saved_answers ORDER BY name ASC;")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SavedAnswer
	for rows.Next() {
		var a SavedAnswer
		if err := rows.Scan(&a.Name, &a.Gender, &a.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

type APIKeyRecord struct {
	ID         string
	Name       string
	Prefix     string
	HashedKey  string
	CreatedAt  time.Time
	LastUsedAt *time.Time
}

type UserRecord struct {
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

type SessionRecord struct {
	Token     string
	Username  string
	ExpiresAt time.Time
}

func (s *Store) CreateAPIKey(ctx context.Context, record APIKeyRecord) error {
	if s.db == nil {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO api_keys(key_id, name, prefix, hashed_key, created_at)
VALUES(?, ?, ?, ?, ?);
`, record.ID, record.Name, record.Prefix, record.HashedKey, record.CreatedAt)
	return err
}

func (s *Store) ListAPIKeys(ctx context.Context) ([]APIKeyRecord, error) {
	if s.db == nil {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT key_id, name, prefix, hashed_key, created_at, last_used_at
FROM api_keys ORDER BY created_at DESC;
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []APIKeyRecord
	for rows.Next() {
		var r APIKeyRecord
		if err := rows.Scan(&r.ID, &r.Name, &r.Prefix, &r.HashedKey, &r.CreatedAt, &r.LastUsedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) DeleteAPIKey(ctx context.Context, id string) error {
	if s.db == nil {
		return nil
	}
	_, err := s.db.ExecContext(ctx, "DELETE FROM api_keys WHERE key_id=?;", id)
	return err
}

func (s *Store) UpdateAPIKeyLastUsed(ctx context.Context, id string) error {
	if s.db == nil {
		return nil
	}
	_, err := s.db.ExecContext(ctx, "UPDATE api_keys SET last_used_at=? WHERE key_id=?;", time.Now(), id)
	return err
}

func (s *Store) CreateUser(ctx context.Context, u UserRecord) error {
	if s.db == nil {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO users(username, password_hash, created_at)
VALUES(?, ?, ?);
`, u.Username, u.PasswordHash, u.CreatedAt)
	return err
}

func (s *Store) GetUser(ctx context.Context, username string) (UserRecord, bool, error) {
	if s.db == nil {
		return UserRecord{}, false, nil
	}
	row := s.db.QueryRowContext(ctx, "SELECT username, password_hash, created_at FROM users WHERE username=?;", username)
	var u UserRecord
	err := row.Scan(&u.Username, &u.PasswordHash, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return UserRecord{}, false, nil
	}
	if err != nil {
		return UserRecord{}, false, err
	}
	return u, true, nil
}

func (s *Store) UpdateUserPassword(ctx context.Context, username, passwordHash string) error {
	if s.db == nil {
		return nil
	}
	_, err := s.db.ExecContext(ctx, "UPDATE users SET password_hash=? WHERE username=?;", passwordHash, username)
	return err
}

func (s *Store) CreateSession(ctx context.Context, sess SessionRecord) error {
	if s.db == nil {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO sessions(token, username, expires_at)
VALUES(?, ?, ?);
`, sess.Token, sess.Username, sess.ExpiresAt)
	return err
}

func (s *Store) GetSession(ctx context.Context, token string) (SessionRecord, bool, error) {
	if s.db == nil {
		return SessionRecord{}, false, nil
	}
	row := s.db.QueryRowContext(ctx, "SELECT token, username, expires_at FROM sessions WHERE token=?;", token)
	var sess SessionRecord
	err := row.Scan(&sess.Token, &sess.Username, &sess.ExpiresAt)
	if err == sql.ErrNoRows {
		return SessionRecord{}, false, nil
	}
	if err != nil {
		return SessionRecord{}, false, err
	}
	return sess, true, nil
}

func (s *Store) DeleteSession(ctx context.Context, token string) error {
	if s.db == nil {
		return nil
	}
	_, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE token=?;", token)
	return err
}

// DeleteExpiredSessions removes all sessions whose expiry lies before now.
func (s *Store) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	if s.db == nil {
		return 0, nil
	}
	res, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE expires_at < ?;", now)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return n, nil
}
