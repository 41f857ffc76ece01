package location

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

var ErrLocationNotFound = errors.New("location not found")

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, req CreateLocationRequest) (*Location, error) {
	query := `
		INSERT INTO locations (name, address, phone)
		VALUES ($1, $2, $3)
		RETURNING id, name, address, phone, created_at
	`

	var loc Location
	err := r.db.GetContext(ctx, &loc, query, req.Name, req.Address, req.Phone)
	if err != nil {
		return nil, err
	}

	return &loc, nil
}

func (r *Repository) GetByID(ctx context.Context, id int) (*Location, error) {
	query := `
		SELECT id, name, address, phone, created_at
		FROM locations
		WHERE id = $1
	`

	var loc Location
	err := r.db.GetContext(ctx, &loc, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLocationNotFound
		}
		return nil, err
	}

	return &loc, nil
}

func (r *Repository) List(ctx context.Context) ([]Location, error) {
	query := `
		SELECT id, name, address, phone, created_at
		FROM locations
		ORDER BY name
	`

	var locations []Location
	err := r.db.SelectContext(ctx, &locations, query)
	if err != nil {
		return nil, err
	}

	return locations, nil
}

func (r *Repository) Update(ctx context.Context, id int, req UpdateLocationRequest) (*Location, error) {
	query := `
		UPDATE locations
		SET name = COALESCE($2, name),
		    address = COALESCE($3, address),
		    phone = COALESCE($4, phone)
		WHERE id = $1
		RETURNING id, name, address, phone, created_at
	`

	var loc Location
	err := r.db.GetContext(ctx, &loc, query, id, req.Name, req.Address, req.Phone)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLocationNotFound
		}
		return nil, err
	}

	return &loc, nil
}
