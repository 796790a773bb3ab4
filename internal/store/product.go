package store

import (
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/dukerupert/milkrun/internal/model"
)

type ProductStore struct {
	db *sql.DB
}

func NewProductStore(db *sql.DB) *ProductStore {
	return &ProductStore{db: db}
}

func scanProduct(scanner interface{ Scan(...any) error }) (*model.Product, error) {
	var p model.Product
	var price string
	err := scanner.Scan(
		&p.ID, &p.Name, &p.Category, &price, &p.Unit, &p.Image, &p.Description,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Price, err = decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("parse price %q: %w", price, err)
	}
	return &p, nil
}

const productCols = `id, name, category, price, unit, image, description, created_at, updated_at`

func (s *ProductStore) List() ([]model.Product, error) {
	rows, err := s.db.Query(`SELECT ` + productCols + ` FROM products ORDER BY category ASC, name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

func (s *ProductStore) GetByID(id string) (*model.Product, error) {
	row := s.db.QueryRow(`SELECT `+productCols+` FROM products WHERE id = ?`, id)
	p, err := scanProduct(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

func (s *ProductStore) Create(id, name, category string, price decimal.Decimal, unit, image, description string) (*model.Product, error) {
	_, err := s.db.Exec(
		`INSERT INTO products (id, name, category, price, unit, image, description) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, name, category, price.String(), unit, image, description,
	)
	if err != nil {
		return nil, fmt.Errorf("insert product: %w", err)
	}
	return s.GetByID(id)
}

func (s *ProductStore) UpdatePrice(id string, price decimal.Decimal) (*model.Product, error) {
	_, err := s.db.Exec(
		`UPDATE products SET price = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		price.String(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update product price: %w", err)
	}
	return s.GetByID(id)
}

// MapByID returns the whole catalog keyed by product ID, for cost lookups.
func (s *ProductStore) MapByID() (map[string]model.Product, error) {
	products, err := s.List()
	if err != nil {
		return nil, err
	}
	m := make(map[string]model.Product, len(products))
	for _, p := range products {
		m[p.ID] = p
	}
	return m, nil
}
