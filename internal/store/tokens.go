package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tsunayoshi21/Labeling-app/internal/model"
)

const (
	kindAccess  = "access"
	kindRefresh = "refresh"
)

// TokenPair is an access token and the refresh token issued with it.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    time.Duration
}

// TokenStore issues and resolves opaque bearer tokens.
type TokenStore struct {
	db         *DB
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewTokenStore(db *DB, accessTTL, refreshTTL time.Duration) *TokenStore {
	return &TokenStore{db: db, accessTTL: accessTTL, refreshTTL: refreshTTL, now: time.Now}
}

// Issue creates a fresh access/refresh pair for the user.
func (s *TokenStore) Issue(userID int64) (TokenPair, error) {
	pairID := uuid.New().String()
	pair := TokenPair{
		AccessToken:  uuid.New().String(),
		RefreshToken: uuid.New().String(),
		ExpiresIn:    s.accessTTL,
	}

	tx, err := s.db.Begin()
	if err != nil {
		return TokenPair{}, fmt.Errorf("begin issue: %w", err)
	}
	defer tx.Rollback()

	now := s.now()
	if err := insertToken(tx, pair.AccessToken, kindAccess, pairID, userID, now.Add(s.accessTTL)); err != nil {
		return TokenPair{}, err
	}
	if err := insertToken(tx, pair.RefreshToken, kindRefresh, pairID, userID, now.Add(s.refreshTTL)); err != nil {
		return TokenPair{}, err
	}

	if err := tx.Commit(); err != nil {
		return TokenPair{}, fmt.Errorf("commit issue: %w", err)
	}
	return pair, nil
}

func insertToken(tx *sql.Tx, token, kind, pairID string, userID int64, expires time.Time) error {
	_, err := tx.Exec(`
		INSERT INTO tokens (token, kind, pair_id, user_id, expires_at)
		VALUES (?, ?, ?, ?, ?)
	`, token, kind, pairID, userID, expires.Unix())
	if err != nil {
		return fmt.Errorf("insert %s token: %w", kind, err)
	}
	return nil
}

// Resolve returns the user behind a valid access token, nil otherwise.
func (s *TokenStore) Resolve(accessToken string) (*model.User, error) {
	u, _, err := s.lookup(accessToken, kindAccess)
	return u, err
}

func (s *TokenStore) lookup(token, kind string) (*model.User, string, error) {
	var (
		u      model.User
		pairID string
	)
	err := s.db.QueryRow(`
		SELECT u.id, u.username, u.role, t.pair_id
		FROM tokens t JOIN users u ON u.id = t.user_id
		WHERE t.token = ? AND t.kind = ? AND t.expires_at > ?
	`, token, kind, s.now().Unix()).Scan(&u.ID, &u.Username, &u.Role, &pairID)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("lookup %s token: %w", kind, err)
	}
	return &u, pairID, nil
}

// Refresh swaps a valid refresh token for a new access token. The refresh
// token stays valid until it expires or the pair is revoked.
func (s *TokenStore) Refresh(refreshToken string) (*model.User, TokenPair, error) {
	u, pairID, err := s.lookup(refreshToken, kindRefresh)
	if err != nil || u == nil {
		return nil, TokenPair{}, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, TokenPair{}, fmt.Errorf("begin refresh: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM tokens WHERE pair_id = ? AND kind = ?`, pairID, kindAccess); err != nil {
		return nil, TokenPair{}, fmt.Errorf("drop old access token: %w", err)
	}
	pair := TokenPair{AccessToken: uuid.New().String(), RefreshToken: refreshToken, ExpiresIn: s.accessTTL}
	if err := insertToken(tx, pair.AccessToken, kindAccess, pairID, u.ID, s.now().Add(s.accessTTL)); err != nil {
		return nil, TokenPair{}, err
	}

	if err := tx.Commit(); err != nil {
		return nil, TokenPair{}, fmt.Errorf("commit refresh: %w", err)
	}
	return u, pair, nil
}

// Revoke deletes the pair the access token belongs to.
func (s *TokenStore) Revoke(accessToken string) error {
	_, err := s.db.Exec(`
		DELETE FROM tokens WHERE pair_id IN (SELECT pair_id FROM tokens WHERE token = ?)
	`, accessToken)
	if err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// PurgeExpired removes expired tokens and returns how many were deleted.
func (s *TokenStore) PurgeExpired() (int64, error) {
	res, err := s.db.Exec(`DELETE FROM tokens WHERE expires_at <= ?`, s.now().Unix())
	if err != nil {
		return 0, fmt.Errorf("purge tokens: %w", err)
	}
	return res.RowsAffected()
}
