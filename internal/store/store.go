// Package store provides the SQLite-backed user store for the academy
// fragment server.
package store

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/marcus/academy/internal/models"
	_ "modernc.org/sqlite"
)

const dbFile = ".academy/users.db"

const userIDPrefix = "usr_"

// Sentinel errors surfaced to handlers so they can map to field errors.
var (
	ErrNotFound  = errors.New("user not found")
	ErrDuplicate = errors.New("username or email already taken")
)

// Store wraps the database connection
type Store struct {
	conn    *sql.DB
	baseDir string
}

// Open opens the user database under baseDir, creating it and applying the
// schema on first use.
func Open(baseDir string) (*Store, error) {
	dbPath := filepath.Join(baseDir, dbFile)

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable WAL mode for concurrent reads while writes are serialized
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	// Set busy timeout as fallback protection (500ms)
	if _, err := conn.Exec("PRAGMA busy_timeout=500"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	s := &Store{conn: conn, baseDir: baseDir}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, err
	}

	return s, nil
}

// Wrap adopts an existing connection (used by the integration harness with
// an in-memory database) and applies the schema.
func Wrap(conn *sql.DB) (*Store, error) {
	s := &Store{conn: conn}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// BaseDir returns the directory the store was opened under.
func (s *Store) BaseDir() string {
	return s.baseDir
}

// SetMaxOpenConns limits the connection pool, used by long-running servers.
func (s *Store) SetMaxOpenConns(n int) {
	s.conn.SetMaxOpenConns(n)
}

// idGenerator is the function used to generate user IDs.
// It can be replaced in tests to control ID generation.
var idGenerator = defaultGenerateID

// defaultGenerateID generates a unique user ID using crypto/rand
func defaultGenerateID() (string, error) {
	bytes := make([]byte, 4) // 8 hex characters
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return userIDPrefix + hex.EncodeToString(bytes), nil
}

// NormalizeUserID ensures a user ID has the usr_ prefix.
// Accepts bare hex IDs like "8f3b2c1d" and returns "usr_8f3b2c1d".
func NormalizeUserID(id string) string {
	if id == "" {
		return id
	}
	if !strings.HasPrefix(id, userIDPrefix) {
		return userIDPrefix + id
	}
	return id
}

// scanUser scans a single user row in column order.
func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	var u models.User
	var role string
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.FullName, &role,
		&u.IsActive, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	u.Role = models.Role(role)
	return &u, nil
}

const userColumns = "id, username, email, full_name, role, is_active, password_hash, created_at, updated_at"

// CreateUser inserts a new user. The ID is generated when empty.
// Unique constraint violations are reported as ErrDuplicate.
func (s *Store) CreateUser(u *models.User) error {
	if u.ID == "" {
		id, err := idGenerator()
		if err != nil {
			return fmt.Errorf("generate user id: %w", err)
		}
		u.ID = id
	}

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	_, err := s.conn.Exec(`
		INSERT INTO users (id, username, email, full_name, role, is_active, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Username, u.Email, u.FullName, string(u.Role),
		u.IsActive, u.PasswordHash, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetUser fetches a user by ID.
func (s *Store) GetUser(id string) (*models.User, error) {
	row := s.conn.QueryRow(
		"SELECT "+userColumns+" FROM users WHERE id = ?", NormalizeUserID(id))
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// GetUserByUsername fetches a user by exact username.
func (s *Store) GetUserByUsername(username string) (*models.User, error) {
	row := s.conn.QueryRow(
		"SELECT "+userColumns+" FROM users WHERE username = ?", username)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user by username: %w", err)
	}
	return u, nil
}

// UpdateUser updates the mutable fields of an existing user.
// The password hash is only written when non-empty.
func (s *Store) UpdateUser(u *models.User) error {
	u.UpdatedAt = time.Now().UTC()

	var res sql.Result
	var err error
	if u.PasswordHash != "" {
		res, err = s.conn.Exec(`
			UPDATE users SET username = ?, email = ?, full_name = ?, role = ?,
				is_active = ?, password_hash = ?, updated_at = ?
			WHERE id = ?`,
			u.Username, u.Email, u.FullName, string(u.Role),
			u.IsActive, u.PasswordHash, u.UpdatedAt, u.ID,
		)
	} else {
		res, err = s.conn.Exec(`
			UPDATE users SET username = ?, email = ?, full_name = ?, role = ?,
				is_active = ?, updated_at = ?
			WHERE id = ?`,
			u.Username, u.Email, u.FullName, string(u.Role),
			u.IsActive, u.UpdatedAt, u.ID,
		)
	}
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("update user: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteUser removes a user by ID.
func (s *Store) DeleteUser(id string) error {
	res, err := s.conn.Exec("DELETE FROM users WHERE id = ?", NormalizeUserID(id))
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// CountUsers returns the total number of users.
func (s *Store) CountUsers() (int, error) {
	var n int
	if err := s.conn.QueryRow("SELECT COUNT(*) FROM users").Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

// isUniqueViolation reports whether err is a sqlite unique constraint error.
// Matched by message since both drivers in use wrap the underlying code
// differently.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "constraint failed: users.")
}
