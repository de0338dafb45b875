package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"pharmapos/m/domain"
	"pharmapos/m/internal/validation"
)

// ErrInvalidCredentials indicates an unknown username or wrong password.
var ErrInvalidCredentials = errors.New("store: invalid credentials")

// EnsureUser creates the account when the username is not yet taken.
// It reports whether a row was inserted.
func (s *Store) EnsureUser(ctx context.Context, username, password, role, fullName string) (bool, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" || password == "" || role == "" || fullName == "" {
		return false, validation.Errorf("username, password, role and full name are required")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, fmt.Errorf("store: hash password: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO users (username, password, role, full_name, created_at)
        VALUES (?, ?, ?, ?, ?)`, username, string(hashed), role, fullName, s.timestamp())
	if err != nil {
		return false, storageErr("insert user", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, storageErr("rows affected", err)
	}
	return n == 1, nil
}

// Authenticate checks a username and password pair.
func (s *Store) Authenticate(ctx context.Context, username, password string) (domain.User, error) {
	var row userRow
	err := s.db.GetContext(ctx, &row, `SELECT id, username, password, role, full_name, created_at
        FROM users WHERE username = ?`, strings.ToLower(strings.TrimSpace(username)))
	if isNoRows(err) {
		return domain.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return domain.User{}, storageErr("get user", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(row.Password), []byte(password)) != nil {
		return domain.User{}, ErrInvalidCredentials
	}
	user := row.toDomain(s.location())
	user.Password = ""
	return user, nil
}
