package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/dukerupert/milkrun/internal/model"
)

type NotificationStore struct {
	db *sql.DB
}

func NewNotificationStore(db *sql.DB) *NotificationStore {
	return &NotificationStore{db: db}
}

func scanNotification(scanner interface{ Scan(...any) error }) (*model.Notification, error) {
	var n model.Notification
	var userID sql.NullString
	var read int
	err := scanner.Scan(&n.ID, &userID, &n.Title, &n.Message, &n.Date, &read, &n.Type, &n.CreatedAt)
	if err != nil {
		return nil, err
	}
	if userID.Valid {
		n.UserID = &userID.String
	}
	n.Read = read != 0
	return &n, nil
}

const notificationCols = `id, user_id, title, message, date, read, type, created_at`

// ListForUser returns the user's own notifications plus broadcasts
// (rows with no user), newest first.
func (s *NotificationStore) ListForUser(userID string) ([]model.Notification, error) {
	rows, err := s.db.Query(
		`SELECT `+notificationCols+` FROM notifications
		 WHERE user_id IS NULL OR user_id = ?
		 ORDER BY date DESC, created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []model.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		notifications = append(notifications, *n)
	}
	return notifications, rows.Err()
}

func (s *NotificationStore) GetByID(id string) (*model.Notification, error) {
	row := s.db.QueryRow(`SELECT `+notificationCols+` FROM notifications WHERE id = ?`, id)
	n, err := scanNotification(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get notification: %w", err)
	}
	return n, nil
}

// Create appends a notification. A nil userID makes it a broadcast
// visible to every customer.
func (s *NotificationStore) Create(userID *string, title, message, date, kind string) (*model.Notification, error) {
	id := uuid.NewString()
	var uid sql.NullString
	if userID != nil {
		uid = sql.NullString{String: *userID, Valid: true}
	}
	_, err := s.db.Exec(
		`INSERT INTO notifications (id, user_id, title, message, date, type) VALUES (?, ?, ?, ?, ?, ?)`,
		id, uid, title, message, date, kind,
	)
	if err != nil {
		return nil, fmt.Errorf("insert notification: %w", err)
	}
	return s.GetByID(id)
}

// MarkRead flips the read flag. The rest of a notification is immutable.
func (s *NotificationStore) MarkRead(id string) (bool, error) {
	result, err := s.db.Exec(`UPDATE notifications SET read = 1 WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("mark notification read: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}
