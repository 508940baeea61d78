package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/event-ticketing/internal/utils"
)

// User mirrors the 'users' table.
type User struct {
	ID           uint64
	Username     string
	Email        string
	PasswordHash string
	Role         string // ADMIN | STUDENT
	CreatedAt    time.Time
}

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// ErrUserExists is returned when the username or email is already taken.
var ErrUserExists = errors.New("username or email already exists")

// Create hashes the password and inserts the user, returning its ID.
func (r *UserRepo) Create(ctx context.Context, username, email, password, role string, cost int) (uint64, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (username, email, password_hash, role) VALUES (?,?,?,?)",
		username, email, hash, role)
	if err != nil {
		// MySQL error 1062: duplicate entry on a unique index.
		if strings.Contains(err.Error(), "1062") {
			return 0, ErrUserExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByUsername loads a user for login. Returns sql.ErrNoRows when absent.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*User, error) {
	var u User
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, username, email, password_hash, role, created_at FROM users WHERE username = ?",
		strings.TrimSpace(username)).
		Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByID loads a user by primary key. Returns sql.ErrNoRows when absent.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*User, error) {
	var u User
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, username, email, password_hash, role, created_at FROM users WHERE id = ?",
		id).
		Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ExistsByUsernameOrEmail reports whether either identifier is taken.
// Used before issuing a registration OTP so the collision surfaces
// before the email round-trip rather than after.
func (r *UserRepo) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx,
		"SELECT 1 FROM users WHERE username = ? OR email = ? LIMIT 1",
		strings.TrimSpace(username), strings.ToLower(strings.TrimSpace(email))).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
