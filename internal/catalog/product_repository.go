package catalog

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

var (
	ErrOfferingNotFound = errors.New("offering not found")
	ErrProductNotFound  = errors.New("product not found")
)

type ProductRepository struct {
	db *sqlx.DB
}

func NewProductRepository(db *sqlx.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) Create(ctx context.Context, req CreateProductRequest) (*Product, error) {
	query := `
		INSERT INTO products (name, description, price_cents, category, stock)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, name, description, price_cents, category, is_available, stock, created_at, updated_at
	`

	category := req.Category
	if category == "" {
		category = "General"
	}

	var product Product
	err := r.db.GetContext(ctx, &product, query, req.Name, req.Description, req.PriceCents, category, req.Stock)
	if err != nil {
		return nil, err
	}

	return &product, nil
}

func (r *ProductRepository) GetByID(ctx context.Context, id int) (*Product, error) {
	query := `
		SELECT id, name, description, price_cents, category, is_available, stock, created_at, updated_at
		FROM products
		WHERE id = $1
	`

	var product Product
	err := r.db.GetContext(ctx, &product, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	return &product, nil
}

func (r *ProductRepository) GetByName(ctx context.Context, name string) (*Product, error) {
	query := `
		SELECT id, name, description, price_cents, category, is_available, stock, created_at, updated_at
		FROM products
		WHERE name = $1
	`

	var product Product
	err := r.db.GetContext(ctx, &product, query, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	return &product, nil
}

func (r *ProductRepository) List(ctx context.Context, onlyAvailable bool) ([]Product, error) {
	query := `
		SELECT id, name, description, price_cents, category, is_available, stock, created_at, updated_at
		FROM products
	`

	if onlyAvailable {
		query += " WHERE is_available = TRUE"
	}

	query += " ORDER BY category, name"

	var products []Product
	err := r.db.SelectContext(ctx, &products, query)
	if err != nil {
		return nil, err
	}

	return products, nil
}

func (r *ProductRepository) Update(ctx context.Context, id int, req UpdateProductRequest) (*Product, error) {
	query := `
		UPDATE products
		SET name = COALESCE($2, name),
		    description = COALESCE($3, description),
		    price_cents = COALESCE($4, price_cents),
		    category = COALESCE($5, category),
		    is_available = COALESCE($6, is_available),
		    stock = COALESCE($7, stock),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING id, name, description, price_cents, category, is_available, stock, created_at, updated_at
	`

	var product Product
	err := r.db.GetContext(ctx, &product, query,
		id, req.Name, req.Description, req.PriceCents, req.Category, req.IsAvailable, req.Stock)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	return &product, nil
}
