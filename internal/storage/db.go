package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/RahulSJav/Expenses/internal/models"

	"github.com/google/uuid"
	// Import sqlite driver
	_ "modernc.org/sqlite"
)

// ErrDuplicateUsername is returned when creating a user whose username is taken.
var ErrDuplicateUsername = errors.New("username already exists")

// Session timestamps are stored in the same UTC text form CURRENT_TIMESTAMP
// produces, so expiry comparisons stay lexicographic-safe.
const sqliteTimeLayout = "2006-01-02 15:04:05"

// DB wraps a sql.DB connection.
type DB struct {
	conn *sql.DB
}

// NewDB opens a database connection and applies migrations.
func NewDB(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// A single connection serializes writers and keeps :memory: databases
	// from splitting across pool connections.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, err
	}

	if err := runMigrations(conn); err != nil {
		conn.Close()
		return nil, err
	}

	return &DB{conn: conn}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Filter restricts expense listings. Empty fields are unconstrained;
// present fields are combined with AND.
type Filter struct {
	Category    string
	Description string
}

// CreateExpense inserts a new expense record, assigning an opaque id when
// the record does not already carry one.
func (db *DB) CreateExpense(e *models.Expense) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}

	var userID any
	if e.UserID != nil {
		userID = *e.UserID
	}
	var date any
	if e.Date != "" {
		date = e.Date
	}

	_, err := db.conn.Exec(
		"INSERT INTO expenses (id, user_id, category, description, amount, date) VALUES (?, ?, ?, ?, ?, ?)",
		e.ID, userID, e.Category, e.Description, e.Amount, date,
	)
	if err != nil {
		return fmt.Errorf("insert expense: %w", err)
	}
	return nil
}

// ListExpenses retrieves expenses matching the filter, newest date first.
// Listing is deliberately not scoped to an owner: every account sees the
// shared set of records.
func (db *DB) ListExpenses(f Filter) ([]models.Expense, error) {
	query := "SELECT id, user_id, category, description, amount, date FROM expenses"
	var (
		clauses []string
		args    []any
	)
	if f.Category != "" {
		clauses = append(clauses, "category = ?")
		args = append(args, f.Category)
	}
	if f.Description != "" {
		clauses = append(clauses, "description = ?")
		args = append(args, f.Description)
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY date DESC, id"

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []models.Expense
	for rows.Next() {
		var (
			e      models.Expense
			userID sql.NullInt64
			date   sql.NullString
		)
		if err := rows.Scan(&e.ID, &userID, &e.Category, &e.Description, &e.Amount, &date); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		if userID.Valid {
			e.UserID = &userID.Int64
		}
		e.Date = date.String
		expenses = append(expenses, e)
	}

	return expenses, rows.Err()
}

// DeleteExpenses removes all records whose id appears in ids, in one batch.
// Ids with no matching record are skipped silently.
func (db *DB) DeleteExpenses(ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	if _, err := db.conn.Exec("DELETE FROM expenses WHERE id IN ("+placeholders+")", args...); err != nil {
		return fmt.Errorf("delete expenses: %w", err)
	}
	return nil
}

// DistinctCategories returns the sorted set of category values currently in use.
func (db *DB) DistinctCategories() ([]string, error) {
	return db.distinctColumn("category")
}

// DistinctDescriptions returns the sorted set of description values currently in use.
func (db *DB) DistinctDescriptions() ([]string, error) {
	return db.distinctColumn("description")
}

func (db *DB) distinctColumn(column string) ([]string, error) {
	rows, err := db.conn.Query(
		"SELECT DISTINCT " + column + " FROM expenses WHERE " + column + " <> '' ORDER BY " + column,
	)
	if err != nil {
		return nil, fmt.Errorf("distinct %s: %w", column, err)
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan %s: %w", column, err)
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

// ExpenseCount returns the number of expense records.
func (db *DB) ExpenseCount() (int, error) {
	var count int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM expenses").Scan(&count)
	return count, err
}

// CreateUser creates a new user. Returns ErrDuplicateUsername when the
// username is already registered.
func (db *DB) CreateUser(username, passwordHash, preferredName string) (*models.User, error) {
	result, err := db.conn.Exec(
		"INSERT INTO users (username, password_hash, preferred_name) VALUES (?, ?, ?)",
		username, passwordHash, preferredName,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, ErrDuplicateUsername
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	return db.GetUserByID(id)
}

// GetUserByID retrieves a user by ID.
func (db *DB) GetUserByID(id int64) (*models.User, error) {
	row := db.conn.QueryRow(
		"SELECT id, username, password_hash, preferred_name, created_at FROM users WHERE id = ?",
		id,
	)
	return scanUser(row)
}

// GetUserByUsername retrieves a user by username.
func (db *DB) GetUserByUsername(username string) (*models.User, error) {
	row := db.conn.QueryRow(
		"SELECT id, username, password_hash, preferred_name, created_at FROM users WHERE username = ?",
		username,
	)
	return scanUser(row)
}

func scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.PreferredName, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// UserCount returns the number of registered users.
func (db *DB) UserCount() (int, error) {
	var count int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM users").Scan(&count)
	return count, err
}

// CreateSession creates a new session for a user.
func (db *DB) CreateSession(token string, userID int64, expiresAt time.Time) error {
	_, err := db.conn.Exec(
		"INSERT INTO sessions (token, user_id, expires_at, last_activity) VALUES (?, ?, ?, ?)",
		token, userID, expiresAt.UTC().Format(sqliteTimeLayout), time.Now().UTC().Format(sqliteTimeLayout),
	)
	return err
}

// SessionInfo holds session validation data.
type SessionInfo struct {
	User         *models.User
	LastActivity time.Time
	ExpiresAt    time.Time
}

// ValidateSession checks if a session token is valid and returns the associated user.
func (db *DB) ValidateSession(token string) (*models.User, error) {
	info, err := db.ValidateSessionWithInfo(token)
	if err != nil {
		return nil, err
	}
	return info.User, nil
}

// ValidateSessionWithInfo checks if a session token is valid and returns session details.
func (db *DB) ValidateSessionWithInfo(token string) (*SessionInfo, error) {
	row := db.conn.QueryRow(`
		SELECT u.id, u.username, u.password_hash, u.preferred_name, u.created_at, s.last_activity, s.expires_at
		FROM sessions s
		JOIN users u ON s.user_id = u.id
		WHERE s.token = ? AND s.expires_at > CURRENT_TIMESTAMP
	`, token)

	var (
		u                       models.User
		lastActivity, expiresAt time.Time
	)
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.PreferredName, &u.CreatedAt, &lastActivity, &expiresAt); err != nil {
		return nil, err
	}
	return &SessionInfo{
		User:         &u,
		LastActivity: lastActivity,
		ExpiresAt:    expiresAt,
	}, nil
}

// RenewSession updates the last_activity and expires_at for a session.
func (db *DB) RenewSession(token string, newExpiresAt time.Time) error {
	_, err := db.conn.Exec(
		"UPDATE sessions SET last_activity = ?, expires_at = ? WHERE token = ?",
		time.Now().UTC().Format(sqliteTimeLayout), newExpiresAt.UTC().Format(sqliteTimeLayout), token,
	)
	return err
}

// DeleteSession removes a session by token.
func (db *DB) DeleteSession(token string) error {
	_, err := db.conn.Exec("DELETE FROM sessions WHERE token = ?", token)
	return err
}

// CleanExpiredSessions removes all expired sessions.
func (db *DB) CleanExpiredSessions() error {
	_, err := db.conn.Exec("DELETE FROM sessions WHERE expires_at <= CURRENT_TIMESTAMP")
	return err
}
