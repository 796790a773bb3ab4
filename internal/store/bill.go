package store

import (
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/dukerupert/milkrun/internal/model"
)

type BillStore struct {
	db *sql.DB
}

func NewBillStore(db *sql.DB) *BillStore {
	return &BillStore{db: db}
}

func scanBill(scanner interface{ Scan(...any) error }) (*model.Bill, error) {
	var b model.Bill
	var amount string
	err := scanner.Scan(&b.ID, &b.UserID, &b.Month, &amount, &b.Status, &b.DueDate, &b.CreatedAt)
	if err != nil {
		return nil, err
	}
	b.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("parse amount %q: %w", amount, err)
	}
	return &b, nil
}

const billCols = `id, user_id, month, amount, status, due_date, created_at`

func (s *BillStore) ListByUser(userID string) ([]model.Bill, error) {
	rows, err := s.db.Query(
		`SELECT `+billCols+` FROM bills WHERE user_id = ? ORDER BY month DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list bills: %w", err)
	}
	defer rows.Close()

	var bills []model.Bill
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bill: %w", err)
		}
		bills = append(bills, *b)
	}
	return bills, rows.Err()
}

func (s *BillStore) ListAll() ([]model.Bill, error) {
	rows, err := s.db.Query(`SELECT ` + billCols + ` FROM bills ORDER BY month DESC, user_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list all bills: %w", err)
	}
	defer rows.Close()

	var bills []model.Bill
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bill: %w", err)
		}
		bills = append(bills, *b)
	}
	return bills, rows.Err()
}

func (s *BillStore) GetByID(id string) (*model.Bill, error) {
	row := s.db.QueryRow(`SELECT `+billCols+` FROM bills WHERE id = ?`, id)
	b, err := scanBill(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get bill: %w", err)
	}
	return b, nil
}

// GetByUserAndMonth enforces the one-bill-per-user-per-month invariant at
// read time; the UNIQUE(user_id, month) index enforces it at write time.
func (s *BillStore) GetByUserAndMonth(userID, month string) (*model.Bill, error) {
	row := s.db.QueryRow(
		`SELECT `+billCols+` FROM bills WHERE user_id = ? AND month = ?`,
		userID, month,
	)
	b, err := scanBill(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get bill by month: %w", err)
	}
	return b, nil
}

func (s *BillStore) Create(id, userID, month string, amount decimal.Decimal, status, dueDate string) (*model.Bill, error) {
	_, err := s.db.Exec(
		`INSERT INTO bills (id, user_id, month, amount, status, due_date) VALUES (?, ?, ?, ?, ?, ?)`,
		id, userID, month, amount.String(), status, dueDate,
	)
	if err != nil {
		return nil, fmt.Errorf("insert bill: %w", err)
	}
	return s.GetByID(id)
}

func (s *BillStore) SetStatus(id, status string) (bool, error) {
	result, err := s.db.Exec(`UPDATE bills SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return false, fmt.Errorf("set bill status: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}
