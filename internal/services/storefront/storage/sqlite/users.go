package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/louisbranch/storefront/internal/services/storefront/storage"
)

const defaultRole = "user"

const userColumnsSQL = `u.id, u.email, u.name, u.password_hash, COALESCE(r.role, 'user'), u.created_at`

// CreateUser inserts an account and its role row.
func (s *Store) CreateUser(ctx context.Context, user storage.User) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(user.ID) == "" {
		return fmt.Errorf("user id is required")
	}
	role := strings.TrimSpace(user.Role)
	if role == "" {
		role = defaultRole
	}
	createdAt := user.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.clock()
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO users (id, email, name, password_hash, created_at) VALUES (?, ?, ?, ?, ?)`,
			user.ID,
			user.Email,
			user.Name,
			user.PasswordHash,
			toMillis(createdAt),
		); err != nil {
			if isUniqueViolation(err) {
				return storage.ErrAlreadyExists
			}
			return fmt.Errorf("insert user: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO user_roles (user_id, role) VALUES (?, ?)`,
			user.ID,
			role,
		); err != nil {
			return fmt.Errorf("insert user role: %w", err)
		}
		return nil
	})
}

// GetUser returns one account by ID.
func (s *Store) GetUser(ctx context.Context, id string) (storage.User, error) {
	return s.getUserWhere(ctx, "u.id = ?", strings.TrimSpace(id))
}

// GetUserByEmail returns one account by its normalized email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (storage.User, error) {
	return s.getUserWhere(ctx, "u.email = ?", strings.ToLower(strings.TrimSpace(email)))
}

func (s *Store) getUserWhere(ctx context.Context, clause string, arg any) (storage.User, error) {
	if err := s.ready(ctx); err != nil {
		return storage.User{}, err
	}
	user, err := scanUser(s.sqlDB.QueryRowContext(ctx,
		"SELECT "+userColumnsSQL+" FROM users u LEFT JOIN user_roles r ON r.user_id = u.id WHERE "+clause,
		arg,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return storage.User{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.User{}, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// ListUsers returns every account with its role, oldest first.
func (s *Store) ListUsers(ctx context.Context) ([]storage.User, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		"SELECT "+userColumnsSQL+` FROM users u
		   LEFT JOIN user_roles r ON r.user_id = u.id
		  ORDER BY u.created_at ASC, u.id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()
	var users []storage.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("list users: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// SetUserRole sets the role for an existing account.
func (s *Store) SetUserRole(ctx context.Context, userID, role string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO user_roles (user_id, role) VALUES (?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET role = excluded.role`,
		strings.TrimSpace(userID),
		role,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return storage.ErrNotFound
		}
		return fmt.Errorf("set user role: %w", err)
	}
	return nil
}

func scanUser(row scanner) (storage.User, error) {
	var user storage.User
	var createdAt int64
	if err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.PasswordHash,
		&user.Role,
		&createdAt,
	); err != nil {
		return storage.User{}, err
	}
	user.CreatedAt = fromMillis(createdAt)
	return user, nil
}
