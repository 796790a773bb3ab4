package store

import (
	"database/sql"
	"fmt"

	"github.com/dukerupert/milkrun/internal/model"
)

type SubscriptionStore struct {
	db *sql.DB
}

func NewSubscriptionStore(db *sql.DB) *SubscriptionStore {
	return &SubscriptionStore{db: db}
}

func scanSubscription(scanner interface{ Scan(...any) error }) (*model.Subscription, error) {
	var sub model.Subscription
	err := scanner.Scan(&sub.UserID, &sub.ProductID, &sub.Quantity, &sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

const subscriptionCols = `user_id, product_id, quantity, created_at, updated_at`

func (s *SubscriptionStore) ListByUser(userID string) ([]model.Subscription, error) {
	rows, err := s.db.Query(
		`SELECT `+subscriptionCols+` FROM subscriptions WHERE user_id = ? ORDER BY product_id ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []model.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		subs = append(subs, *sub)
	}
	return subs, rows.Err()
}

func (s *SubscriptionStore) Get(userID, productID string) (*model.Subscription, error) {
	row := s.db.QueryRow(
		`SELECT `+subscriptionCols+` FROM subscriptions WHERE user_id = ? AND product_id = ?`,
		userID, productID,
	)
	sub, err := scanSubscription(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get subscription: %w", err)
	}
	return sub, nil
}

// Upsert inserts the (user, product) pair or updates its quantity if the
// pair already exists. Quantity must be positive; removal goes through
// Delete so a zero-quantity row is never stored.
func (s *SubscriptionStore) Upsert(userID, productID string, quantity int) error {
	_, err := s.db.Exec(
		`INSERT INTO subscriptions (user_id, product_id, quantity) VALUES (?, ?, ?)
		 ON CONFLICT(user_id, product_id) DO UPDATE SET quantity = excluded.quantity, updated_at = CURRENT_TIMESTAMP`,
		userID, productID, quantity,
	)
	if err != nil {
		return fmt.Errorf("upsert subscription: %w", err)
	}
	return nil
}

func (s *SubscriptionStore) Delete(userID, productID string) error {
	_, err := s.db.Exec(
		`DELETE FROM subscriptions WHERE user_id = ? AND product_id = ?`,
		userID, productID,
	)
	if err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	return nil
}
