package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/dukerupert/milkrun/internal/model"
)

type DeliveryStore struct {
	db *sql.DB
}

func NewDeliveryStore(db *sql.DB) *DeliveryStore {
	return &DeliveryStore{db: db}
}

// Items are stored as a JSON array in a single column. That keeps each
// day's item list a self-contained snapshot: rewriting it never touches
// any other day's rows.
func marshalItems(items []model.DeliveryItem) (string, error) {
	if items == nil {
		items = []model.DeliveryItem{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("marshal items: %w", err)
	}
	return string(data), nil
}

func scanDeliveryDay(scanner interface{ Scan(...any) error }) (*model.DeliveryDay, error) {
	var d model.DeliveryDay
	var items string
	err := scanner.Scan(&d.UserID, &d.Date, &d.Month, &d.Status, &items, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(items), &d.Items); err != nil {
		return nil, fmt.Errorf("unmarshal items: %w", err)
	}
	if d.Items == nil {
		d.Items = []model.DeliveryItem{}
	}
	return &d, nil
}

const deliveryCols = `user_id, date, month, status, items, created_at, updated_at`

// ListMonth returns the stored days for one user and YYYY-MM month,
// ascending by date. An un-materialized month yields an empty slice.
func (s *DeliveryStore) ListMonth(userID, month string) ([]model.DeliveryDay, error) {
	rows, err := s.db.Query(
		`SELECT `+deliveryCols+` FROM delivery_days WHERE user_id = ? AND month = ? ORDER BY date ASC`,
		userID, month,
	)
	if err != nil {
		return nil, fmt.Errorf("list month: %w", err)
	}
	defer rows.Close()

	var days []model.DeliveryDay
	for rows.Next() {
		d, err := scanDeliveryDay(rows)
		if err != nil {
			return nil, fmt.Errorf("scan delivery day: %w", err)
		}
		days = append(days, *d)
	}
	return days, rows.Err()
}

func (s *DeliveryStore) GetDay(userID, date string) (*model.DeliveryDay, error) {
	row := s.db.QueryRow(
		`SELECT `+deliveryCols+` FROM delivery_days WHERE user_id = ? AND date = ?`,
		userID, date,
	)
	d, err := scanDeliveryDay(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get delivery day: %w", err)
	}
	return d, nil
}

// InsertDays writes a freshly generated month in one transaction so a
// month is either fully materialized or not at all.
func (s *DeliveryStore) InsertDays(days []model.DeliveryDay) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, d := range days {
		items, err := marshalItems(d.Items)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(
			`INSERT INTO delivery_days (user_id, date, month, status, items) VALUES (?, ?, ?, ?, ?)`,
			d.UserID, d.Date, d.Month, d.Status, items,
		); err != nil {
			return fmt.Errorf("insert delivery day %s: %w", d.Date, err)
		}
	}
	return tx.Commit()
}

// UpdateStatus sets the status of exactly one stored day. It reports
// whether a matching day existed.
func (s *DeliveryStore) UpdateStatus(userID, date string, status model.DeliveryStatus) (bool, error) {
	result, err := s.db.Exec(
		`UPDATE delivery_days SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE user_id = ? AND date = ?`,
		status, userID, date,
	)
	if err != nil {
		return false, fmt.Errorf("update delivery status: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// ReplaceFutureItems overwrites the item snapshot of every stored day for
// the user that is strictly after the given date and still pending, across
// all materialized months. Delivered, skipped, and past days keep the
// snapshot they were generated with.
func (s *DeliveryStore) ReplaceFutureItems(userID, afterDate string, items []model.DeliveryItem) (int64, error) {
	data, err := marshalItems(items)
	if err != nil {
		return 0, err
	}
	result, err := s.db.Exec(
		`UPDATE delivery_days SET items = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE user_id = ? AND date > ? AND status = 'pending'`,
		data, userID, afterDate,
	)
	if err != nil {
		return 0, fmt.Errorf("replace future items: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}
