// Package store persists account, session, and point-of-sale records in
// sqlite. These are plain single-table records; the interesting data paths
// live elsewhere.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"
)

var (
	// ErrUsernameTaken means registration hit an existing username.
	ErrUsernameTaken = errors.New("username already taken")
	// ErrInvalidLogin means the username/password pair did not match.
	ErrInvalidLogin = errors.New("invalid username or password")
	// ErrSessionExpired means the session token is unknown or past expiry.
	ErrSessionExpired = errors.New("session expired or unknown")
)

// sessionTTL bounds how long a login stays valid.
const sessionTTL = 24 * time.Hour

// User is one registered account.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

// Session is one login session.
type Session struct {
	Token     string    `json:"token"`
	UserID    int64     `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Transaction is one point-of-sale record.
type Transaction struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"-"`
	Item        string    `json:"item"`
	AmountCents int64     `json:"amount_cents"`
	CreatedAt   time.Time `json:"created_at"`
}

// DB wraps the sqlite handle. The handle is shared across requests; each
// multi-statement operation opens its own transaction.
type DB struct {
	sql *sql.DB
}

// Open opens (or creates) the database at path and runs migrations.
func Open(path string) (*DB, error) {
	d, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := d.Exec(`PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL; PRAGMA foreign_keys=ON;`); err != nil {
		_ = d.Close()
		return nil, fmt.Errorf("failed to set pragmas: %w", err)
	}
	db := &DB{sql: d}
	if err := db.migrate(); err != nil {
		_ = d.Close()
		return nil, err
	}
	return db, nil
}

// Close releases the underlying handle.
func (d *DB) Close() error { return d.sql.Close() }

func (d *DB) migrate() error {
	_, err := d.sql.Exec(`
	CREATE TABLE IF NOT EXISTS users (
	  id INTEGER PRIMARY KEY AUTOINCREMENT,
	  username TEXT NOT NULL UNIQUE,
	  password_hash TEXT NOT NULL,
	  created_at INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS sessions (
	  token TEXT PRIMARY KEY,
	  user_id INTEGER NOT NULL REFERENCES users(id),
	  expires_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id);
	CREATE TABLE IF NOT EXISTS transactions (
	  id INTEGER PRIMARY KEY AUTOINCREMENT,
	  user_id INTEGER NOT NULL REFERENCES users(id),
	  item TEXT NOT NULL,
	  amount_cents INTEGER NOT NULL,
	  created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_transactions_user ON transactions(user_id);
	`)
	if err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	return nil
}

// Register creates a user with a bcrypt-hashed password.
func (d *DB) Register(ctx context.Context, username, password string) (*User, error) {
	if username == "" || password == "" {
		return nil, ErrInvalidLogin
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	tx, err := d.sql.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM users WHERE username = ?`, username).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if exists > 0 {
		return nil, ErrUsernameTaken
	}

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx,
		`INSERT INTO users(username, password_hash, created_at) VALUES(?, ?, ?)`,
		username, string(hash), now.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read user id: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}

	return &User{ID: id, Username: username, CreatedAt: now}, nil
}

// Login verifies the password and issues a session token.
func (d *DB) Login(ctx context.Context, username, password string) (*Session, error) {
	var (
		userID int64
		hash   string
	)
	err := d.sql.QueryRowContext(ctx,
		`SELECT id, password_hash FROM users WHERE username = ?`, username).Scan(&userID, &hash)
	if err == sql.ErrNoRows {
		return nil, ErrInvalidLogin
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return nil, ErrInvalidLogin
	}

	session := &Session{
		Token:     uuid.New().String(),
		UserID:    userID,
		ExpiresAt: time.Now().UTC().Add(sessionTTL),
	}
	_, err = d.sql.ExecContext(ctx,
		`INSERT INTO sessions(token, user_id, expires_at) VALUES(?, ?, ?)`,
		session.Token, session.UserID, session.ExpiresAt.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}

// UserForToken resolves a session token to its user.
func (d *DB) UserForToken(ctx context.Context, token string) (*User, error) {
	var (
		user      User
		createdAt int64
		expiresAt int64
	)
	err := d.sql.QueryRowContext(ctx, `
		SELECT u.id, u.username, u.created_at, s.expires_at
		FROM sessions s JOIN users u ON u.id = s.user_id
		WHERE s.token = ?`, token).Scan(&user.ID, &user.Username, &createdAt, &expiresAt)
	if err == sql.ErrNoRows {
		return nil, ErrSessionExpired
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up session: %w", err)
	}
	if time.Now().UTC().Unix() >= expiresAt {
		return nil, ErrSessionExpired
	}
	user.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &user, nil
}

// RecordTransaction inserts one point-of-sale record for the user.
func (d *DB) RecordTransaction(ctx context.Context, userID int64, item string, amountCents int64) (*Transaction, error) {
	now := time.Now().UTC()
	res, err := d.sql.ExecContext(ctx,
		`INSERT INTO transactions(user_id, item, amount_cents, created_at) VALUES(?, ?, ?, ?)`,
		userID, item, amountCents, now.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to insert transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read transaction id: %w", err)
	}
	return &Transaction{ID: id, UserID: userID, Item: item, AmountCents: amountCents, CreatedAt: now}, nil
}

// TransactionsForUser lists the user's transactions, newest first.
func (d *DB) TransactionsForUser(ctx context.Context, userID int64) ([]Transaction, error) {
	rows, err := d.sql.QueryContext(ctx, `
		SELECT id, user_id, item, amount_cents, created_at
		FROM transactions WHERE user_id = ? ORDER BY id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	transactions := []Transaction{}
	for rows.Next() {
		var (
			t         Transaction
			createdAt int64
		)
		if err := rows.Scan(&t.ID, &t.UserID, &t.Item, &t.AmountCents, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		t.CreatedAt = time.Unix(createdAt, 0).UTC()
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}
