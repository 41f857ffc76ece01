package booking

import (
	"bytes"
	"context"
	"errors"
	"log"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"motoserve/internal/auth"
	"motoserve/internal/email"
	"motoserve/internal/location"
	"motoserve/internal/logger"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) CreateBooking(ctx context.Context, customerID int, req CreateBookingRequest, status string) (*BookingWithDetails, []LineItem, error) {
	args := m.Called(ctx, customerID, req, status)
	var booking *BookingWithDetails
	if args.Get(0) != nil {
		booking = args.Get(0).(*BookingWithDetails)
	}
	var items []LineItem
	if args.Get(1) != nil {
		items = args.Get(1).([]LineItem)
	}
	return booking, items, args.Error(2)
}

func (m *MockRepository) GetByID(ctx context.Context, id int) (*BookingWithDetails, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*BookingWithDetails), args.Error(1)
}

func (m *MockRepository) ListByCustomer(ctx context.Context, customerID int) ([]Booking, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Booking), args.Error(1)
}

func (m *MockRepository) ListAll(ctx context.Context) ([]BookingWithDetails, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]BookingWithDetails), args.Error(1)
}

func (m *MockRepository) UpdateDetails(ctx context.Context, id int, req UpdateBookingRequest) (*Booking, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Booking), args.Error(1)
}

func (m *MockRepository) UpdatePayment(ctx context.Context, id int, req UpdatePaymentRequest) (*Booking, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Booking), args.Error(1)
}

func (m *MockRepository) Delete(ctx context.Context, id int) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRepository) ListLineItems(ctx context.Context, bookingID int) ([]LineItem, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]LineItem), args.Error(1)
}

func (m *MockRepository) SumLineItems(ctx context.Context, bookingID int) (int64, error) {
	args := m.Called(ctx, bookingID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) GetLineItem(ctx context.Context, id int) (*LineItem, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*LineItem), args.Error(1)
}

func (m *MockRepository) UpdateLineItem(ctx context.Context, id int, req UpdateLineItemRequest) (*LineItem, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*LineItem), args.Error(1)
}

func (m *MockRepository) DeleteLineItem(ctx context.Context, id int) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockLocationRepository struct {
	mock.Mock
}

func (m *MockLocationRepository) GetByID(ctx context.Context, id int) (*location.Location, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*location.Location), args.Error(1)
}

func newTestService(t *testing.T) (Service, *MockRepository, *MockLocationRepository) {
	t.Helper()
	repo := new(MockRepository)
	locRepo := new(MockLocationRepository)
	return NewService(repo, locRepo, nil), repo, locRepo
}

func validRequest() CreateBookingRequest {
	return CreateBookingRequest{
		LocationID:  2,
		ScheduledAt: time.Now().Add(48 * time.Hour),
		Services:    []ServiceSelection{{ServiceID: 5, Quantity: 1}},
	}
}

func ownedBooking(id, customerID int, status string) *BookingWithDetails {
	return &BookingWithDetails{
		Booking: Booking{
			ID:         id,
			Reference:  "ref-1",
			CustomerID: customerID,
			Status:     status,
			TotalCents: 50000,
		},
		CustomerName:  "Alice",
		CustomerEmail: "alice@example.com",
		LocationName:  "Main Branch",
	}
}

func TestCreateRejectsEmptySelection(t *testing.T) {
	svc, repo, _ := newTestService(t)

	req := validRequest()
	req.Services = nil

	_, err := svc.Create(context.Background(), 1, auth.RoleCustomer, req)
	assert.ErrorIs(t, err, ErrNoItems)
	repo.AssertNotCalled(t, "CreateBooking")
}

func TestCreateRejectsBadQuantity(t *testing.T) {
	svc, repo, _ := newTestService(t)

	req := validRequest()
	req.Services = []ServiceSelection{{ServiceID: 5, Quantity: 0}}

	_, err := svc.Create(context.Background(), 1, auth.RoleCustomer, req)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
	repo.AssertNotCalled(t, "CreateBooking")
}

func TestCreateRejectsUnknownLocation(t *testing.T) {
	svc, repo, locRepo := newTestService(t)

	req := validRequest()
	locRepo.On("GetByID", mock.Anything, 2).Return(nil, location.ErrLocationNotFound)

	_, err := svc.Create(context.Background(), 1, auth.RoleCustomer, req)
	assert.ErrorIs(t, err, ErrLocationNotFound)
	repo.AssertNotCalled(t, "CreateBooking")
}

func TestCreatePropagatesLocationLookupFailure(t *testing.T) {
	svc, repo, locRepo := newTestService(t)

	dbErr := errors.New("connection refused")
	locRepo.On("GetByID", mock.Anything, 2).Return(nil, dbErr)

	_, err := svc.Create(context.Background(), 1, auth.RoleCustomer, validRequest())
	assert.ErrorIs(t, err, dbErr)
	assert.NotErrorIs(t, err, ErrLocationNotFound)
	repo.AssertNotCalled(t, "CreateBooking")
}

func TestCreateLogsFailedConfirmationEmail(t *testing.T) {
	repo := new(MockRepository)
	locRepo := new(MockLocationRepository)

	// A mock redis client with no expectations rejects every command, so
	// queueing the confirmation fails.
	client, _ := redismock.NewClientMock()
	svc := NewService(repo, locRepo, email.NewWithClient(client, "noreply@motoserve.test", "MotoServe"))

	var buf bytes.Buffer
	logger.ErrorLogger = log.New(&buf, "ERROR: ", 0)
	t.Cleanup(logger.Init)

	req := validRequest()
	locRepo.On("GetByID", mock.Anything, 2).Return(&location.Location{ID: 2}, nil)
	repo.On("CreateBooking", mock.Anything, 1, req, StatusPending).
		Return(ownedBooking(10, 1, StatusPending), []LineItem{{ID: 20}}, nil)

	booking, err := svc.Create(context.Background(), 1, auth.RoleCustomer, req)
	require.NoError(t, err)
	require.NotNil(t, booking)
	assert.Contains(t, buf.String(), "confirmation for booking ref-1")
}

func TestCreateForcesPendingForCustomer(t *testing.T) {
	svc, repo, locRepo := newTestService(t)

	req := validRequest()
	req.Status = StatusCompleted // must be ignored for customers

	locRepo.On("GetByID", mock.Anything, 2).Return(&location.Location{ID: 2}, nil)
	repo.On("CreateBooking", mock.Anything, 1, req, StatusPending).
		Return(ownedBooking(10, 1, StatusPending), []LineItem{{ID: 20}}, nil)

	booking, err := svc.Create(context.Background(), 1, auth.RoleCustomer, req)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, booking.Status)
	repo.AssertExpectations(t)
}

func TestCreateStaffMaySeedStatus(t *testing.T) {
	svc, repo, locRepo := newTestService(t)

	req := validRequest()
	req.Status = StatusConfirmed

	locRepo.On("GetByID", mock.Anything, 2).Return(&location.Location{ID: 2}, nil)
	repo.On("CreateBooking", mock.Anything, 1, req, StatusConfirmed).
		Return(ownedBooking(10, 1, StatusConfirmed), []LineItem{{ID: 20}}, nil)

	booking, err := svc.Create(context.Background(), 1, auth.RoleAdmin, req)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, booking.Status)
}

func TestCreateStaffInvalidStatus(t *testing.T) {
	svc, _, locRepo := newTestService(t)

	req := validRequest()
	req.Status = "done"

	locRepo.On("GetByID", mock.Anything, 2).Return(&location.Location{ID: 2}, nil)

	_, err := svc.Create(context.Background(), 1, auth.RoleMechanic, req)
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestGetAuthorization(t *testing.T) {
	tests := []struct {
		name     string
		callerID int
		role     string
		wantErr  error
	}{
		{"owner", 1, auth.RoleCustomer, nil},
		{"other customer", 2, auth.RoleCustomer, ErrForbidden},
		{"mechanic", 7, auth.RoleMechanic, nil},
		{"admin", 8, auth.RoleAdmin, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, _ := newTestService(t)
			repo.On("GetByID", mock.Anything, 10).Return(ownedBooking(10, 1, StatusPending), nil)

			_, err := svc.Get(context.Background(), tt.callerID, tt.role, 10)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestListAllRequiresStaff(t *testing.T) {
	svc, repo, _ := newTestService(t)

	_, err := svc.ListAll(context.Background(), 1, auth.RoleCustomer)
	assert.ErrorIs(t, err, ErrForbidden)
	repo.AssertNotCalled(t, "ListAll")

	repo.On("ListAll", mock.Anything).Return([]BookingWithDetails{}, nil)
	_, err = svc.ListAll(context.Background(), 7, auth.RoleMechanic)
	assert.NoError(t, err)
}

func TestUpdateDetailsTransition(t *testing.T) {
	svc, repo, _ := newTestService(t)

	repo.On("GetByID", mock.Anything, 10).Return(ownedBooking(10, 1, StatusPending), nil)

	confirmed := StatusConfirmed
	req := UpdateBookingRequest{Status: &confirmed}
	repo.On("UpdateDetails", mock.Anything, 10, req).
		Return(&Booking{ID: 10, Status: StatusConfirmed}, nil)

	updated, err := svc.UpdateDetails(context.Background(), 1, auth.RoleCustomer, 10, req)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, updated.Status)
}

func TestUpdateDetailsRejectsIllegalTransition(t *testing.T) {
	svc, repo, _ := newTestService(t)

	repo.On("GetByID", mock.Anything, 10).Return(ownedBooking(10, 1, StatusCompleted), nil)

	pending := StatusPending
	_, err := svc.UpdateDetails(context.Background(), 1, auth.RoleCustomer, 10, UpdateBookingRequest{Status: &pending})
	assert.ErrorIs(t, err, ErrInvalidTransition)
	repo.AssertNotCalled(t, "UpdateDetails")
}

func TestUpdateDetailsRejectsUnknownStatus(t *testing.T) {
	svc, repo, _ := newTestService(t)

	repo.On("GetByID", mock.Anything, 10).Return(ownedBooking(10, 1, StatusPending), nil)

	bogus := "archived"
	_, err := svc.UpdateDetails(context.Background(), 1, auth.RoleCustomer, 10, UpdateBookingRequest{Status: &bogus})
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestCancellationFromAnyActiveState(t *testing.T) {
	for _, from := range []string{StatusPending, StatusConfirmed, StatusInProgress} {
		t.Run(from, func(t *testing.T) {
			svc, repo, _ := newTestService(t)

			repo.On("GetByID", mock.Anything, 10).Return(ownedBooking(10, 1, from), nil)

			cancelled := StatusCancelled
			req := UpdateBookingRequest{Status: &cancelled}
			repo.On("UpdateDetails", mock.Anything, 10, req).
				Return(&Booking{ID: 10, Status: StatusCancelled}, nil)

			_, err := svc.UpdateDetails(context.Background(), 1, auth.RoleCustomer, 10, req)
			assert.NoError(t, err)
		})
	}
}

func TestUpdatePaymentCustomerForbidden(t *testing.T) {
	svc, repo, _ := newTestService(t)

	repo.On("GetByID", mock.Anything, 10).Return(ownedBooking(10, 1, StatusCompleted), nil)

	paid := true
	_, err := svc.UpdatePayment(context.Background(), 1, auth.RoleCustomer, 10, UpdatePaymentRequest{IsPaid: &paid})
	assert.ErrorIs(t, err, ErrForbidden)
	repo.AssertNotCalled(t, "UpdatePayment")
}

func TestUpdatePaymentMechanic(t *testing.T) {
	svc, repo, _ := newTestService(t)

	repo.On("GetByID", mock.Anything, 10).Return(ownedBooking(10, 1, StatusCompleted), nil)

	paid := true
	req := UpdatePaymentRequest{IsPaid: &paid}
	repo.On("UpdatePayment", mock.Anything, 10, req).
		Return(&Booking{ID: 10, IsPaid: true}, nil)

	updated, err := svc.UpdatePayment(context.Background(), 7, auth.RoleMechanic, 10, req)
	require.NoError(t, err)
	assert.True(t, updated.IsPaid)
}

func TestDeleteAuthorization(t *testing.T) {
	svc, repo, _ := newTestService(t)

	repo.On("GetByID", mock.Anything, 10).Return(ownedBooking(10, 1, StatusPending), nil)

	// Mechanics may not delete bookings.
	err := svc.Delete(context.Background(), 7, auth.RoleMechanic, 10)
	assert.ErrorIs(t, err, ErrForbidden)

	repo.On("Delete", mock.Anything, 10).Return(nil)
	assert.NoError(t, svc.Delete(context.Background(), 1, auth.RoleCustomer, 10))
}

func TestLedger(t *testing.T) {
	svc, repo, _ := newTestService(t)

	repo.On("GetByID", mock.Anything, 10).Return(ownedBooking(10, 1, StatusPending), nil)
	repo.On("ListLineItems", mock.Anything, 10).Return([]LineItem{
		{ID: 2, LineTotalCents: 30000},
		{ID: 1, LineTotalCents: 100000},
	}, nil)
	repo.On("SumLineItems", mock.Anything, 10).Return(int64(130000), nil)

	ledger, err := svc.Ledger(context.Background(), 1, auth.RoleCustomer, 10)
	require.NoError(t, err)
	assert.Len(t, ledger.Items, 2)
	assert.Equal(t, int64(130000), ledger.TotalCents)
}

func TestLineItemMaintenanceIsStaffOnly(t *testing.T) {
	svc, repo, _ := newTestService(t)

	qty := 2
	_, err := svc.UpdateLineItem(context.Background(), 1, auth.RoleCustomer, 20, UpdateLineItemRequest{Quantity: &qty})
	assert.ErrorIs(t, err, ErrForbidden)

	err = svc.DeleteLineItem(context.Background(), 1, auth.RoleCustomer, 20)
	assert.ErrorIs(t, err, ErrForbidden)
	repo.AssertNotCalled(t, "UpdateLineItem")
	repo.AssertNotCalled(t, "DeleteLineItem")
}

func TestUpdateLineItemMechanic(t *testing.T) {
	svc, repo, _ := newTestService(t)

	qty := 4
	req := UpdateLineItemRequest{Quantity: &qty}
	repo.On("UpdateLineItem", mock.Anything, 20, req).
		Return(&LineItem{ID: 20, Quantity: 4, UnitPriceCents: 50000, LineTotalCents: 200000}, nil)

	item, err := svc.UpdateLineItem(context.Background(), 7, auth.RoleMechanic, 20, req)
	require.NoError(t, err)
	assert.Equal(t, int64(200000), item.LineTotalCents)
}

func TestUpdateLineItemRejectsBadQuantity(t *testing.T) {
	svc, repo, _ := newTestService(t)

	qty := 0
	_, err := svc.UpdateLineItem(context.Background(), 8, auth.RoleAdmin, 20, UpdateLineItemRequest{Quantity: &qty})
	assert.ErrorIs(t, err, ErrInvalidQuantity)
	repo.AssertNotCalled(t, "UpdateLineItem")
}
