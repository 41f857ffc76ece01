package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"motoserve/internal/catalog"
)

type ResolutionKind string

// How a requested service identifier was resolved to a product row.
const (
	ResolvedOffering ResolutionKind = "offering"
	ResolvedProduct  ResolutionKind = "product"
	CreatedBridge    ResolutionKind = "bridge"
)

type Resolution struct {
	Kind           ResolutionKind
	ProductID      int
	UnitPriceCents int64
}

// resolveItem maps a requested identifier onto a product row, inside the
// booking-creation transaction. The service catalog is probed first; a match
// there wins even when the same id exists in the product catalog, and the
// unit price comes from the offering. An offering without a same-named
// product gets a bridge product materialized on the spot; the upsert keys on
// the unique product name so concurrent bookings converge on one row.
func resolveItem(ctx context.Context, tx *sqlx.Tx, requestedID int) (*Resolution, error) {
	var offering catalog.Offering
	err := tx.GetContext(ctx, &offering, `
		SELECT id, name, description, price_cents, category, is_active, created_at, updated_at
		FROM offerings
		WHERE id = $1
	`, requestedID)

	if err == nil {
		if !offering.IsActive {
			return nil, fmt.Errorf("%w: service %d (%s)", ErrServiceUnavailable, requestedID, offering.Name)
		}

		var productID int
		err = tx.GetContext(ctx, &productID, `SELECT id FROM products WHERE name = $1`, offering.Name)
		if err == nil {
			return &Resolution{
				Kind:           ResolvedOffering,
				ProductID:      productID,
				UnitPriceCents: offering.PriceCents,
			}, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}

		err = tx.GetContext(ctx, &productID, `
			INSERT INTO products (name, description, price_cents, category, is_available)
			VALUES ($1, $2, $3, $4, TRUE)
			ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
			RETURNING id
		`, offering.Name, offering.Description, offering.PriceCents, offering.Category)
		if err != nil {
			return nil, err
		}

		return &Resolution{
			Kind:           CreatedBridge,
			ProductID:      productID,
			UnitPriceCents: offering.PriceCents,
		}, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	var product catalog.Product
	err = tx.GetContext(ctx, &product, `
		SELECT id, name, description, price_cents, category, is_available, stock, created_at, updated_at
		FROM products
		WHERE id = $1
	`, requestedID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: service %d", ErrServiceNotFound, requestedID)
		}
		return nil, err
	}

	if !product.IsAvailable {
		return nil, fmt.Errorf("%w: service %d (%s)", ErrServiceUnavailable, requestedID, product.Name)
	}

	return &Resolution{
		Kind:           ResolvedProduct,
		ProductID:      product.ID,
		UnitPriceCents: product.PriceCents,
	}, nil
}

// priceLine computes the immutable snapshot for one line.
func priceLine(unitPriceCents int64, quantity int) int64 {
	return unitPriceCents * int64(quantity)
}
