package store

import (
	"fmt"

	"github.com/marcus/academy/internal/models"
)

// ListUsersOptions controls filtering for ListUsers.
type ListUsersOptions struct {
	// Search matches username, email, or full name, case-insensitively.
	Search string
	// Role restricts results to a single role when non-empty.
	Role models.Role
	// IncludeInactive also returns deactivated accounts.
	IncludeInactive bool
}

// ListUsers returns users ordered by username, applying the given filters.
func (s *Store) ListUsers(opts ListUsersOptions) ([]models.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE 1=1"
	var args []any

	if opts.Search != "" {
		pattern := "%" + opts.Search + "%"
		query += ` AND (username LIKE ? COLLATE NOCASE
			OR email LIKE ? COLLATE NOCASE
			OR full_name LIKE ? COLLATE NOCASE)`
		args = append(args, pattern, pattern, pattern)
	}

	if opts.Role != "" {
		query += " AND role = ?"
		args = append(args, string(opts.Role))
	}

	if !opts.IncludeInactive {
		query += " AND is_active = 1"
	}

	query += " ORDER BY username"

	rows, err := s.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}
