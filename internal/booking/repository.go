package booking

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"motoserve/internal/metrics"
)

const bookingDetailsColumns = `
	b.id, b.reference, b.customer_id, b.location_id, b.scheduled_at,
	b.status, b.total_cents, b.is_paid, b.notes, b.created_at, b.updated_at,
	u.name AS customer_name,
	u.email AS customer_email,
	l.name AS location_name,
	l.address AS location_address`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

// CreateBooking persists the booking and all of its line items in one
// transaction. Each requested service is resolved against the catalogs and
// priced in request order; the first failure aborts everything, including any
// bridge product materialized earlier in the attempt.
func (r *repository) CreateBooking(ctx context.Context, customerID int, req CreateBookingRequest, status string) (*BookingWithDetails, []LineItem, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback()

	var booking Booking
	err = tx.QueryRowxContext(ctx, `
		INSERT INTO bookings (reference, customer_id, location_id, scheduled_at, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, reference, customer_id, location_id, scheduled_at, status, total_cents, is_paid, notes, created_at, updated_at
	`, uuid.NewString(), customerID, req.LocationID, req.ScheduledAt, status, req.Notes).StructScan(&booking)
	if err != nil {
		return nil, nil, err
	}

	var total int64
	items := make([]LineItem, 0, len(req.Services))
	bridged := 0

	for _, sel := range req.Services {
		resolution, err := resolveItem(ctx, tx, sel.ServiceID)
		if err != nil {
			return nil, nil, err
		}
		if resolution.Kind == CreatedBridge {
			bridged++
		}

		lineTotal := priceLine(resolution.UnitPriceCents, sel.Quantity)

		var item LineItem
		err = tx.QueryRowxContext(ctx, `
			INSERT INTO booking_line_items (booking_id, product_id, quantity, unit_price_cents, line_total_cents, notes)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id, booking_id, product_id, quantity, unit_price_cents, line_total_cents, is_paid, notes, created_at
		`, booking.ID, resolution.ProductID, sel.Quantity, resolution.UnitPriceCents, lineTotal, sel.Notes).StructScan(&item)
		if err != nil {
			return nil, nil, err
		}

		total += lineTotal
		items = append(items, item)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE bookings
		SET total_cents = $1, updated_at = NOW()
		WHERE id = $2
	`, total, booking.ID)
	if err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}

	for i := 0; i < bridged; i++ {
		metrics.RecordBridgeProduct()
	}

	details, err := r.GetByID(ctx, booking.ID)
	if err != nil {
		return nil, nil, err
	}

	return details, items, nil
}

func (r *repository) GetByID(ctx context.Context, id int) (*BookingWithDetails, error) {
	query := `
		SELECT ` + bookingDetailsColumns + `
		FROM bookings b
		JOIN users u ON b.customer_id = u.id
		JOIN locations l ON b.location_id = l.id
		WHERE b.id = $1
	`

	var booking BookingWithDetails
	err := r.db.GetContext(ctx, &booking, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}

	return &booking, nil
}

func (r *repository) ListByCustomer(ctx context.Context, customerID int) ([]Booking, error) {
	query := `
		SELECT id, reference, customer_id, location_id, scheduled_at, status, total_cents, is_paid, notes, created_at, updated_at
		FROM bookings
		WHERE customer_id = $1
		ORDER BY created_at DESC
	`

	var bookings []Booking
	err := r.db.SelectContext(ctx, &bookings, query, customerID)
	if err != nil {
		return nil, err
	}

	return bookings, nil
}

func (r *repository) ListAll(ctx context.Context) ([]BookingWithDetails, error) {
	query := `
		SELECT ` + bookingDetailsColumns + `
		FROM bookings b
		JOIN users u ON b.customer_id = u.id
		JOIN locations l ON b.location_id = l.id
		ORDER BY b.created_at DESC
	`

	var bookings []BookingWithDetails
	err := r.db.SelectContext(ctx, &bookings, query)
	if err != nil {
		return nil, err
	}

	return bookings, nil
}

func (r *repository) UpdateDetails(ctx context.Context, id int, req UpdateBookingRequest) (*Booking, error) {
	query := `
		UPDATE bookings
		SET scheduled_at = COALESCE($2, scheduled_at),
		    status = COALESCE($3, status),
		    notes = COALESCE($4, notes),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING id, reference, customer_id, location_id, scheduled_at, status, total_cents, is_paid, notes, created_at, updated_at
	`

	var booking Booking
	err := r.db.GetContext(ctx, &booking, query, id, req.ScheduledAt, req.Status, req.Notes)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}

	return &booking, nil
}

func (r *repository) UpdatePayment(ctx context.Context, id int, req UpdatePaymentRequest) (*Booking, error) {
	query := `
		UPDATE bookings
		SET is_paid = COALESCE($2, is_paid),
		    total_cents = COALESCE($3, total_cents),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING id, reference, customer_id, location_id, scheduled_at, status, total_cents, is_paid, notes, created_at, updated_at
	`

	var booking Booking
	err := r.db.GetContext(ctx, &booking, query, id, req.IsPaid, req.TotalCents)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}

	return &booking, nil
}

func (r *repository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM bookings WHERE id = $1`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrBookingNotFound
	}

	return nil
}

func (r *repository) ListLineItems(ctx context.Context, bookingID int) ([]LineItem, error) {
	query := `
		SELECT id, booking_id, product_id, quantity, unit_price_cents, line_total_cents, is_paid, notes, created_at
		FROM booking_line_items
		WHERE booking_id = $1
		ORDER BY created_at DESC, id DESC
	`

	var items []LineItem
	err := r.db.SelectContext(ctx, &items, query, bookingID)
	if err != nil {
		return nil, err
	}

	return items, nil
}

func (r *repository) SumLineItems(ctx context.Context, bookingID int) (int64, error) {
	query := `
		SELECT COALESCE(SUM(line_total_cents), 0)
		FROM booking_line_items
		WHERE booking_id = $1
	`

	var sum int64
	err := r.db.GetContext(ctx, &sum, query, bookingID)
	if err != nil {
		return 0, err
	}

	return sum, nil
}

func (r *repository) GetLineItem(ctx context.Context, id int) (*LineItem, error) {
	query := `
		SELECT id, booking_id, product_id, quantity, unit_price_cents, line_total_cents, is_paid, notes, created_at
		FROM booking_line_items
		WHERE id = $1
	`

	var item LineItem
	err := r.db.GetContext(ctx, &item, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLineItemNotFound
		}
		return nil, err
	}

	return &item, nil
}

func (r *repository) UpdateLineItem(ctx context.Context, id int, req UpdateLineItemRequest) (*LineItem, error) {
	query := `
		UPDATE booking_line_items
		SET quantity = COALESCE($2, quantity),
		    unit_price_cents = COALESCE($3, unit_price_cents),
		    line_total_cents = COALESCE($2, quantity) * COALESCE($3, unit_price_cents),
		    is_paid = COALESCE($4, is_paid),
		    notes = COALESCE($5, notes)
		WHERE id = $1
		RETURNING id, booking_id, product_id, quantity, unit_price_cents, line_total_cents, is_paid, notes, created_at
	`

	var item LineItem
	err := r.db.GetContext(ctx, &item, query, id, req.Quantity, req.UnitPriceCents, req.IsPaid, req.Notes)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLineItemNotFound
		}
		return nil, err
	}

	return &item, nil
}

func (r *repository) DeleteLineItem(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM booking_line_items WHERE id = $1`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrLineItemNotFound
	}

	return nil
}
