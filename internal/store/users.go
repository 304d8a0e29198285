package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/tsunayoshi21/Labeling-app/internal/model"
)

// ErrUserExists is returned when a username is already taken
var ErrUserExists = errors.New("user already exists")

// UserStore handles user accounts and password checks.
type UserStore struct {
	db *DB
}

func NewUserStore(db *DB) *UserStore {
	return &UserStore{db: db}
}

// CreateUser stores a new user with a bcrypt hash of password.
func (s *UserStore) CreateUser(username, password, role string) (*model.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, fmt.Errorf("create user: username and password are required")
	}
	if role == "" {
		role = model.RoleAnnotator
	}
	if role != model.RoleAnnotator && role != model.RoleAdmin {
		return nil, fmt.Errorf("create user: invalid role %q", role)
	}

	existing, err := s.GetByUsername(username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	res, err := s.db.Exec(`
		INSERT INTO users (username, password_hash, role, created_at)
		VALUES (?, ?, ?, ?)
	`, username, string(hash), role, time.Now().Unix())
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	return &model.User{ID: id, Username: username, Role: role}, nil
}

// Authenticate returns the user when password matches, nil otherwise.
func (s *UserStore) Authenticate(username, password string) (*model.User, error) {
	var u model.User
	var hash string
	err := s.db.QueryRow(`
		SELECT id, username, role, password_hash FROM users WHERE username = ?
	`, username).Scan(&u.ID, &u.Username, &u.Role, &hash)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("authenticate: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return nil, nil
	}

	if _, err := s.db.Exec(`UPDATE users SET last_login_at = ? WHERE id = ?`, time.Now().Unix(), u.ID); err != nil {
		return nil, fmt.Errorf("record login: %w", err)
	}
	return &u, nil
}

// GetUser returns a user by ID.
func (s *UserStore) GetUser(id int64) (*model.User, error) {
	var u model.User
	err := s.db.QueryRow(`
		SELECT id, username, role FROM users WHERE id = ?
	`, id).Scan(&u.ID, &u.Username, &u.Role)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// GetByUsername returns a user by name.
func (s *UserStore) GetByUsername(username string) (*model.User, error) {
	var u model.User
	err := s.db.QueryRow(`
		SELECT id, username, role FROM users WHERE username = ?
	`, username).Scan(&u.ID, &u.Username, &u.Role)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by name: %w", err)
	}
	return &u, nil
}

// EnsureUser creates the user unless the username already exists.
func (s *UserStore) EnsureUser(username, password, role string) (*model.User, bool, error) {
	existing, err := s.GetByUsername(username)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}
	u, err := s.CreateUser(username, password, role)
	if err != nil {
		return nil, false, err
	}
	return u, true, nil
}
