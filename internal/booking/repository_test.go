package booking

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

func setupMock(t *testing.T) (Repository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	repo := NewRepository(sqlxDB)

	closer := func() {
		sqlxDB.Close()
	}

	return repo, mock, closer
}

var (
	bookingCols  = []string{"id", "reference", "customer_id", "location_id", "scheduled_at", "status", "total_cents", "is_paid", "notes", "created_at", "updated_at"}
	detailCols   = append(bookingCols, "customer_name", "customer_email", "location_name", "location_address")
	itemCols     = []string{"id", "booking_id", "product_id", "quantity", "unit_price_cents", "line_total_cents", "is_paid", "notes", "created_at"}
	offeringCols = []string{"id", "name", "description", "price_cents", "category", "is_active", "created_at", "updated_at"}
	productCols  = []string{"id", "name", "description", "price_cents", "category", "is_available", "stock", "created_at", "updated_at"}
)

func bookingRow(now time.Time, id int, status string, total int64) *sqlmock.Rows {
	return sqlmock.NewRows(bookingCols).
		AddRow(id, "ref-1", 1, 2, now, status, total, false, "", now, now)
}

func detailRow(now time.Time, id int, total int64) *sqlmock.Rows {
	return sqlmock.NewRows(detailCols).
		AddRow(id, "ref-1", 1, 2, now, StatusPending, total, false, "", now, now,
			"Alice", "alice@example.com", "Main Branch", "1 Garage Rd")
}

func TestCreateBookingBridgesOffering(t *testing.T) {
	repo, mock, cleanup := setupMock(t)
	defer cleanup()

	now := time.Now()
	req := CreateBookingRequest{
		LocationID:  2,
		ScheduledAt: now.Add(24 * time.Hour),
		Services:    []ServiceSelection{{ServiceID: 5, Quantity: 2}},
	}

	mock.ExpectBegin()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO bookings (reference, customer_id, location_id, scheduled_at, status, notes)")).
		WithArgs(sqlmock.AnyArg(), 1, 2, req.ScheduledAt, StatusPending, "").
		WillReturnRows(bookingRow(now, 10, StatusPending, 0))

	// Offering match wins, price snapshot comes from the offering.
	mock.ExpectQuery(regexp.QuoteMeta("FROM offerings WHERE id = $1")).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows(offeringCols).
			AddRow(5, "Oil Change", "Full synthetic", 50000, "Maintenance", true, now, now))

	// No product with that name yet: a bridge row is materialized.
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM products WHERE name = $1")).
		WithArgs("Oil Change").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO products (name, description, price_cents, category, is_available)")).
		WithArgs("Oil Change", "Full synthetic", int64(50000), "Maintenance").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO booking_line_items (booking_id, product_id, quantity, unit_price_cents, line_total_cents, notes)")).
		WithArgs(10, 7, 2, int64(50000), int64(100000), "").
		WillReturnRows(sqlmock.NewRows(itemCols).AddRow(20, 10, 7, 2, 50000, 100000, false, "", now))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE bookings SET total_cents = $1, updated_at = NOW() WHERE id = $2")).
		WithArgs(int64(100000), 10).
		WillReturnResult(sqlmock.NewResult(0, 1))

	mock.ExpectCommit()

	mock.ExpectQuery(regexp.QuoteMeta("JOIN users u ON b.customer_id = u.id")).
		WithArgs(10).
		WillReturnRows(detailRow(now, 10, 100000))

	booking, items, err := repo.CreateBooking(context.Background(), 1, req, StatusPending)
	require.NoError(t, err)
	require.Equal(t, int64(100000), booking.TotalCents)
	require.Len(t, items, 1)
	require.Equal(t, int64(50000), items[0].UnitPriceCents)
	require.Equal(t, int64(100000), items[0].LineTotalCents)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBookingReusesBridgeByName(t *testing.T) {
	repo, mock, cleanup := setupMock(t)
	defer cleanup()

	now := time.Now()
	req := CreateBookingRequest{
		LocationID:  2,
		ScheduledAt: now.Add(time.Hour),
		Services:    []ServiceSelection{{ServiceID: 5, Quantity: 1}},
	}

	mock.ExpectBegin()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO bookings")).
		WithArgs(sqlmock.AnyArg(), 1, 2, req.ScheduledAt, StatusPending, "").
		WillReturnRows(bookingRow(now, 11, StatusPending, 0))

	mock.ExpectQuery(regexp.QuoteMeta("FROM offerings WHERE id = $1")).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows(offeringCols).
			AddRow(5, "Oil Change", "", 50000, "Maintenance", true, now, now))

	// Same-named product exists: no bridge insert, offering price still wins.
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM products WHERE name = $1")).
		WithArgs("Oil Change").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO booking_line_items")).
		WithArgs(11, 3, 1, int64(50000), int64(50000), "").
		WillReturnRows(sqlmock.NewRows(itemCols).AddRow(21, 11, 3, 1, 50000, 50000, false, "", now))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE bookings SET total_cents")).
		WithArgs(int64(50000), 11).
		WillReturnResult(sqlmock.NewResult(0, 1))

	mock.ExpectCommit()

	mock.ExpectQuery(regexp.QuoteMeta("JOIN users u ON b.customer_id = u.id")).
		WithArgs(11).
		WillReturnRows(detailRow(now, 11, 50000))

	_, items, err := repo.CreateBooking(context.Background(), 1, req, StatusPending)
	require.NoError(t, err)
	require.Equal(t, 3, items[0].ProductID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBookingOfferingPrecedence(t *testing.T) {
	repo, mock, cleanup := setupMock(t)
	defer cleanup()

	now := time.Now()
	req := CreateBookingRequest{
		LocationID:  2,
		ScheduledAt: now.Add(time.Hour),
		Services:    []ServiceSelection{{ServiceID: 5, Quantity: 1}},
	}

	mock.ExpectBegin()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO bookings")).
		WithArgs(sqlmock.AnyArg(), 1, 2, req.ScheduledAt, StatusPending, "").
		WillReturnRows(bookingRow(now, 15, StatusPending, 0))

	// Id 5 exists in both catalogs; the offering is probed first and its
	// price wins over the product's.
	mock.ExpectQuery(regexp.QuoteMeta("FROM offerings WHERE id = $1")).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows(offeringCols).
			AddRow(5, "Oil Change", "", 70000, "Maintenance", true, now, now))

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM products WHERE name = $1")).
		WithArgs("Oil Change").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO booking_line_items")).
		WithArgs(15, 5, 1, int64(70000), int64(70000), "").
		WillReturnRows(sqlmock.NewRows(itemCols).AddRow(25, 15, 5, 1, 70000, 70000, false, "", now))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE bookings SET total_cents")).
		WithArgs(int64(70000), 15).
		WillReturnResult(sqlmock.NewResult(0, 1))

	mock.ExpectCommit()

	mock.ExpectQuery(regexp.QuoteMeta("JOIN users u ON b.customer_id = u.id")).
		WithArgs(15).
		WillReturnRows(detailRow(now, 15, 70000))

	_, items, err := repo.CreateBooking(context.Background(), 1, req, StatusPending)
	require.NoError(t, err)
	require.Equal(t, int64(70000), items[0].UnitPriceCents)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBookingResolvesProduct(t *testing.T) {
	repo, mock, cleanup := setupMock(t)
	defer cleanup()

	now := time.Now()
	req := CreateBookingRequest{
		LocationID:  2,
		ScheduledAt: now.Add(time.Hour),
		Services:    []ServiceSelection{{ServiceID: 9, Quantity: 3}},
	}

	mock.ExpectBegin()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO bookings")).
		WithArgs(sqlmock.AnyArg(), 1, 2, req.ScheduledAt, StatusPending, "").
		WillReturnRows(bookingRow(now, 12, StatusPending, 0))

	mock.ExpectQuery(regexp.QuoteMeta("FROM offerings WHERE id = $1")).
		WithArgs(9).
		WillReturnRows(sqlmock.NewRows(offeringCols))

	mock.ExpectQuery(regexp.QuoteMeta("FROM products WHERE id = $1")).
		WithArgs(9).
		WillReturnRows(sqlmock.NewRows(productCols).
			AddRow(9, "Brake Pads", "", 30000, "Parts", true, 12, now, now))

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO booking_line_items")).
		WithArgs(12, 9, 3, int64(30000), int64(90000), "").
		WillReturnRows(sqlmock.NewRows(itemCols).AddRow(22, 12, 9, 3, 30000, 90000, false, "", now))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE bookings SET total_cents")).
		WithArgs(int64(90000), 12).
		WillReturnResult(sqlmock.NewResult(0, 1))

	mock.ExpectCommit()

	mock.ExpectQuery(regexp.QuoteMeta("JOIN users u ON b.customer_id = u.id")).
		WithArgs(12).
		WillReturnRows(detailRow(now, 12, 90000))

	_, items, err := repo.CreateBooking(context.Background(), 1, req, StatusPending)
	require.NoError(t, err)
	require.Equal(t, int64(90000), items[0].LineTotalCents)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBookingRollsBackOnUnavailableItem(t *testing.T) {
	repo, mock, cleanup := setupMock(t)
	defer cleanup()

	now := time.Now()
	req := CreateBookingRequest{
		LocationID:  2,
		ScheduledAt: now.Add(time.Hour),
		Services: []ServiceSelection{
			{ServiceID: 5, Quantity: 1},
			{ServiceID: 6, Quantity: 1},
		},
	}

	mock.ExpectBegin()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO bookings")).
		WithArgs(sqlmock.AnyArg(), 1, 2, req.ScheduledAt, StatusPending, "").
		WillReturnRows(bookingRow(now, 13, StatusPending, 0))

	// First item resolves and gets persisted.
	mock.ExpectQuery(regexp.QuoteMeta("FROM offerings WHERE id = $1")).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows(offeringCols).
			AddRow(5, "Oil Change", "", 50000, "Maintenance", true, now, now))

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM products WHERE name = $1")).
		WithArgs("Oil Change").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO booking_line_items")).
		WithArgs(13, 3, 1, int64(50000), int64(50000), "").
		WillReturnRows(sqlmock.NewRows(itemCols).AddRow(23, 13, 3, 1, 50000, 50000, false, "", now))

	// Second item is inactive: everything rolls back.
	mock.ExpectQuery(regexp.QuoteMeta("FROM offerings WHERE id = $1")).
		WithArgs(6).
		WillReturnRows(sqlmock.NewRows(offeringCols).
			AddRow(6, "Engine Flush", "", 80000, "Maintenance", false, now, now))

	mock.ExpectRollback()

	_, _, err := repo.CreateBooking(context.Background(), 1, req, StatusPending)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrServiceUnavailable)
	require.Contains(t, err.Error(), "6")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBookingUnknownService(t *testing.T) {
	repo, mock, cleanup := setupMock(t)
	defer cleanup()

	now := time.Now()
	req := CreateBookingRequest{
		LocationID:  2,
		ScheduledAt: now.Add(time.Hour),
		Services:    []ServiceSelection{{ServiceID: 404, Quantity: 1}},
	}

	mock.ExpectBegin()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO bookings")).
		WithArgs(sqlmock.AnyArg(), 1, 2, req.ScheduledAt, StatusPending, "").
		WillReturnRows(bookingRow(now, 14, StatusPending, 0))

	mock.ExpectQuery(regexp.QuoteMeta("FROM offerings WHERE id = $1")).
		WithArgs(404).
		WillReturnRows(sqlmock.NewRows(offeringCols))

	mock.ExpectQuery(regexp.QuoteMeta("FROM products WHERE id = $1")).
		WithArgs(404).
		WillReturnRows(sqlmock.NewRows(productCols))

	mock.ExpectRollback()

	_, _, err := repo.CreateBooking(context.Background(), 1, req, StatusPending)
	require.ErrorIs(t, err, ErrServiceNotFound)
	require.Contains(t, err.Error(), "404")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByIDNotFound(t *testing.T) {
	repo, mock, cleanup := setupMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta("JOIN users u ON b.customer_id = u.id")).
		WithArgs(99).
		WillReturnRows(sqlmock.NewRows(detailCols))

	_, err := repo.GetByID(context.Background(), 99)
	require.ErrorIs(t, err, ErrBookingNotFound)
}

func TestDeleteBooking(t *testing.T) {
	repo, mock, cleanup := setupMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM bookings WHERE id = $1")).
		WithArgs(5).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), 5))

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM bookings WHERE id = $1")).
		WithArgs(6).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), 6)
	require.ErrorIs(t, err, ErrBookingNotFound)
}

func TestLedgerQueries(t *testing.T) {
	repo, mock, cleanup := setupMock(t)
	defer cleanup()

	now := time.Now()

	rows := sqlmock.NewRows(itemCols).
		AddRow(2, 10, 7, 1, 30000, 30000, false, "", now).
		AddRow(1, 10, 3, 2, 50000, 100000, false, "", now.Add(-time.Minute))

	mock.ExpectQuery(regexp.QuoteMeta("FROM booking_line_items WHERE booking_id = $1 ORDER BY created_at DESC, id DESC")).
		WithArgs(10).
		WillReturnRows(rows)

	items, err := repo.ListLineItems(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, 2, items[0].ID)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(SUM(line_total_cents), 0)")).
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(130000))

	sum, err := repo.SumLineItems(context.Background(), 10)
	require.NoError(t, err)
	require.Equal(t, int64(130000), sum)
}

func TestUpdateLineItemRecomputesTotal(t *testing.T) {
	repo, mock, cleanup := setupMock(t)
	defer cleanup()

	now := time.Now()
	qty := 3

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE booking_line_items")).
		WithArgs(20, 3, nil, nil, nil).
		WillReturnRows(sqlmock.NewRows(itemCols).AddRow(20, 10, 7, 3, 50000, 150000, false, "", now))

	item, err := repo.UpdateLineItem(context.Background(), 20, UpdateLineItemRequest{Quantity: &qty})
	require.NoError(t, err)
	require.Equal(t, int64(150000), item.LineTotalCents)
}
