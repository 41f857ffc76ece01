package catalog

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

type OfferingRepository struct {
	db *sqlx.DB
}

func NewOfferingRepository(db *sqlx.DB) *OfferingRepository {
	return &OfferingRepository{db: db}
}

func (r *OfferingRepository) Create(ctx context.Context, req CreateOfferingRequest) (*Offering, error) {
	query := `
		INSERT INTO offerings (name, description, price_cents, category)
		VALUES ($1, $2, $3, $4)
		RETURNING id, name, description, price_cents, category, is_active, created_at, updated_at
	`

	category := req.Category
	if category == "" {
		category = "General"
	}

	var offering Offering
	err := r.db.GetContext(ctx, &offering, query, req.Name, req.Description, req.PriceCents, category)
	if err != nil {
		return nil, err
	}

	return &offering, nil
}

func (r *OfferingRepository) GetByID(ctx context.Context, id int) (*Offering, error) {
	query := `
		SELECT id, name, description, price_cents, category, is_active, created_at, updated_at
		FROM offerings
		WHERE id = $1
	`

	var offering Offering
	err := r.db.GetContext(ctx, &offering, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOfferingNotFound
		}
		return nil, err
	}

	return &offering, nil
}

func (r *OfferingRepository) List(ctx context.Context, onlyActive bool) ([]Offering, error) {
	query := `
		SELECT id, name, description, price_cents, category, is_active, created_at, updated_at
		FROM offerings
	`

	if onlyActive {
		query += " WHERE is_active = TRUE"
	}

	query += " ORDER BY category, name"

	var offerings []Offering
	err := r.db.SelectContext(ctx, &offerings, query)
	if err != nil {
		return nil, err
	}

	return offerings, nil
}

func (r *OfferingRepository) Update(ctx context.Context, id int, req UpdateOfferingRequest) (*Offering, error) {
	query := `
		UPDATE offerings
		SET name = COALESCE($2, name),
		    description = COALESCE($3, description),
		    price_cents = COALESCE($4, price_cents),
		    category = COALESCE($5, category),
		    is_active = COALESCE($6, is_active),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING id, name, description, price_cents, category, is_active, created_at, updated_at
	`

	var offering Offering
	err := r.db.GetContext(ctx, &offering, query,
		id, req.Name, req.Description, req.PriceCents, req.Category, req.IsActive)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOfferingNotFound
		}
		return nil, err
	}

	return &offering, nil
}

func (r *OfferingRepository) Deactivate(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE offerings SET is_active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrOfferingNotFound
	}

	return nil
}
