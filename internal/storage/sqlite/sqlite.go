// Package sqlite provides a SQLite-backed implementation of the storage.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/mmynk/roomies/internal/models"
	"github.com/mmynk/roomies/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

// SQLiteStore implements storage.Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	if err := runMigrations(dbPath); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	// Pragmas in the DSN apply to every pooled connection. Transactions
	// read before they write, so they take the write lock up front;
	// otherwise a deferred upgrade fails with SQLITE_BUSY without waiting
	// for busy_timeout.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateHousehold persists a new household and its members.
func (s *SQLiteStore) CreateHousehold(ctx context.Context, h *models.Household) error {
	if h.ID == "" {
		h.ID = uuid.New().String()
	}
	if h.CreatedAt == 0 {
		h.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO households (id, name, created_at) VALUES (?, ?, ?)",
		h.ID, h.Name, h.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert household: %w", err)
	}

	added, err := insertMembers(ctx, tx, h.ID, nil, h.Members)
	if err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	h.Members = added
	return nil
}

// GetHousehold retrieves a household and its members in join order.
func (s *SQLiteStore) GetHousehold(ctx context.Context, householdID string) (*models.Household, error) {
	h := &models.Household{}
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, created_at FROM households WHERE id = ?",
		householdID,
	).Scan(&h.ID, &h.Name, &h.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("household %s: %w", householdID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get household: %w", err)
	}

	h.Members, err = queryMembers(ctx, s.db, householdID)
	if err != nil {
		return nil, err
	}
	return h, nil
}

// AddHouseholdMembers appends members that are not in the household yet.
func (s *SQLiteStore) AddHouseholdMembers(ctx context.Context, householdID string, members []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM households WHERE id = ?", householdID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check household: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("household %s: %w", householdID, storage.ErrNotFound)
	}

	existing, err := queryMembers(ctx, tx, householdID)
	if err != nil {
		return err
	}
	if _, err := insertMembers(ctx, tx, householdID, existing, members); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// CreateExpense persists a new expense and its split list.
func (s *SQLiteStore) CreateExpense(ctx context.Context, e *models.Expense) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.CreatedAt == 0 {
		e.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM households WHERE id = ?", e.HouseholdID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check household: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("household %s: %w", e.HouseholdID, storage.ErrNotFound)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO expenses (id, household_id, description, amount, category, paid_by, expense_date, settled, settled_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.HouseholdID, e.Description, e.Amount, string(e.Category), e.PaidBy,
		e.Date.Format(models.DateLayout), e.Settled, e.SettledAt, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}

	for i, name := range e.SplitWith {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO expense_splits (expense_id, position, name) VALUES (?, ?, ?)",
			e.ID, i, name,
		)
		if err != nil {
			return fmt.Errorf("failed to insert split member: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

const expenseColumns = "id, household_id, description, amount, category, paid_by, expense_date, settled, settled_at, created_at"

// GetExpense retrieves an expense by ID, including its split list.
func (s *SQLiteStore) GetExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+expenseColumns+" FROM expenses WHERE id = ?",
		expenseID,
	)
	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	splits, err := s.querySplits(ctx, []string{e.ID})
	if err != nil {
		return nil, err
	}
	e.SplitWith = splits[e.ID]
	return &e, nil
}

// ListExpenses returns a household's expenses, most recently created first.
func (s *SQLiteStore) ListExpenses(ctx context.Context, householdID string) ([]models.Expense, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM households WHERE id = ?", householdID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check household: %w", err)
	}
	if exists == 0 {
		return nil, fmt.Errorf("household %s: %w", householdID, storage.ErrNotFound)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+expenseColumns+" FROM expenses WHERE household_id = ? ORDER BY seq DESC",
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	expenses := []models.Expense{}
	var ids []string
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, e)
		ids = append(ids, e.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}

	splits, err := s.querySplits(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range expenses {
		expenses[i].SplitWith = splits[expenses[i].ID]
	}
	return expenses, nil
}

// SettleExpense marks an expense as settled. Already settled expenses are left untouched.
func (s *SQLiteStore) SettleExpense(ctx context.Context, expenseID string, settledAt int64) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE expenses SET settled = 1, settled_at = ? WHERE id = ? AND settled = 0",
		settledAt, expenseID,
	)
	if err != nil {
		return fmt.Errorf("failed to settle expense: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check settled rows: %w", err)
	}
	if n > 0 {
		return nil
	}

	var exists int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM expenses WHERE id = ?", expenseID).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check expense: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}
	return nil
}

// querySplits loads the split lists for the given expenses keyed by expense ID.
func (s *SQLiteStore) querySplits(ctx context.Context, expenseIDs []string) (map[string][]string, error) {
	splits := make(map[string][]string, len(expenseIDs))
	for _, id := range expenseIDs {
		rows, err := s.db.QueryContext(ctx,
			"SELECT name FROM expense_splits WHERE expense_id = ? ORDER BY position",
			id,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to get split members: %w", err)
		}
		for rows.Next() {
			var name string
			if err := rows.Scan(&name); err != nil {
				rows.Close()
				return nil, fmt.Errorf("failed to scan split member: %w", err)
			}
			splits[id] = append(splits[id], name)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("failed to iterate split members: %w", err)
		}
	}
	return splits, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(row rowScanner) (models.Expense, error) {
	var (
		e        models.Expense
		category string
		date     string
	)
	err := row.Scan(&e.ID, &e.HouseholdID, &e.Description, &e.Amount, &category,
		&e.PaidBy, &date, &e.Settled, &e.SettledAt, &e.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return e, err
	}
	if err != nil {
		return e, fmt.Errorf("failed to scan expense: %w", err)
	}

	e.Category = models.Category(category)
	e.Date, err = models.ParseDate(date)
	if err != nil {
		return e, fmt.Errorf("expense %s: %w", e.ID, err)
	}
	return e, nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func queryMembers(ctx context.Context, q queryer, householdID string) ([]string, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT name FROM household_members WHERE household_id = ? ORDER BY position",
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get members: %w", err)
	}
	defer rows.Close()

	var members []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate members: %w", err)
	}
	return members, nil
}

// insertMembers adds names not in existing after the current last position
// and returns the resulting member list.
func insertMembers(ctx context.Context, tx *sql.Tx, householdID string, existing, names []string) ([]string, error) {
	seen := make(map[string]bool, len(existing)+len(names))
	for _, n := range existing {
		seen[n] = true
	}
	members := append([]string(nil), existing...)
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true
		_, err := tx.ExecContext(ctx,
			"INSERT INTO household_members (household_id, name, position) VALUES (?, ?, ?)",
			householdID, name, len(members),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to insert member: %w", err)
		}
		members = append(members, name)
	}
	return members, nil
}
