package store

import (
	"database/sql"
	"fmt"

	"github.com/dukerupert/milkrun/internal/model"
)

type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

func scanUser(scanner interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	var pinHash sql.NullString
	err := scanner.Scan(
		&u.ID, &u.Name, &u.Email, &u.Phone, &u.Address, &u.Role, &u.Avatar,
		&pinHash, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	u.HasPIN = pinHash.Valid && pinHash.String != ""
	return &u, nil
}

const userCols = `id, name, email, phone, address, role, avatar, pin_hash, created_at, updated_at`

func (s *UserStore) GetByID(id string) (*model.User, error) {
	row := s.db.QueryRow(`SELECT `+userCols+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// GetByEmailAndRole matches the email case-insensitively combined with an
// exact role match. Both must match for login to succeed.
func (s *UserStore) GetByEmailAndRole(email, role string) (*model.User, error) {
	row := s.db.QueryRow(
		`SELECT `+userCols+` FROM users WHERE email = ? COLLATE NOCASE AND role = ?`,
		email, role,
	)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

// FirstByRole returns the oldest account with the given role. Used by the
// demo login shortcut.
func (s *UserStore) FirstByRole(role string) (*model.User, error) {
	row := s.db.QueryRow(
		`SELECT `+userCols+` FROM users WHERE role = ? ORDER BY created_at ASC, id ASC LIMIT 1`,
		role,
	)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("first user by role: %w", err)
	}
	return u, nil
}

func (s *UserStore) List() ([]model.User, error) {
	rows, err := s.db.Query(`SELECT ` + userCols + ` FROM users ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (s *UserStore) ListByRole(role string) ([]model.User, error) {
	rows, err := s.db.Query(
		`SELECT `+userCols+` FROM users WHERE role = ? ORDER BY name ASC, id ASC`,
		role,
	)
	if err != nil {
		return nil, fmt.Errorf("list users by role: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (s *UserStore) Create(id, name, email, phone, address, role, avatar string) (*model.User, error) {
	_, err := s.db.Exec(
		`INSERT INTO users (id, name, email, phone, address, role, avatar) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, name, email, phone, address, role, avatar,
	)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return s.GetByID(id)
}

// UpdateProfile updates the customer-editable fields. Role is never changed
// through this path.
func (s *UserStore) UpdateProfile(id, name, email, phone, address, avatar string) (*model.User, error) {
	_, err := s.db.Exec(
		`UPDATE users SET name = ?, email = ?, phone = ?, address = ?, avatar = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		name, email, phone, address, avatar, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return s.GetByID(id)
}

func (s *UserStore) SetPINHash(id, hash string) error {
	_, err := s.db.Exec(
		`UPDATE users SET pin_hash = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		hash, id,
	)
	if err != nil {
		return fmt.Errorf("set pin: %w", err)
	}
	return nil
}

func (s *UserStore) ClearPIN(id string) error {
	_, err := s.db.Exec(
		`UPDATE users SET pin_hash = NULL, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		id,
	)
	if err != nil {
		return fmt.Errorf("clear pin: %w", err)
	}
	return nil
}

func (s *UserStore) GetPINHash(id string) (string, error) {
	var hash sql.NullString
	err := s.db.QueryRow(`SELECT pin_hash FROM users WHERE id = ?`, id).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get pin hash: %w", err)
	}
	return hash.String, nil
}

func (s *UserStore) CountByRole(role string) (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM users WHERE role = ?`, role).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}
