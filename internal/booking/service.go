package booking

import (
	"context"
	"errors"
	"fmt"

	"motoserve/internal/auth"
	"motoserve/internal/email"
	"motoserve/internal/location"
	"motoserve/internal/logger"
	"motoserve/internal/metrics"
)

// LocationRepository is the slice of the location store the booking flow needs.
type LocationRepository interface {
	GetByID(ctx context.Context, id int) (*location.Location, error)
}

type Service interface {
	Create(ctx context.Context, customerID int, role string, req CreateBookingRequest) (*BookingWithDetails, error)
	Get(ctx context.Context, callerID int, role string, bookingID int) (*BookingWithDetails, error)
	ListMine(ctx context.Context, callerID int) ([]Booking, error)
	ListAll(ctx context.Context, callerID int, role string) ([]BookingWithDetails, error)
	UpdateDetails(ctx context.Context, callerID int, role string, bookingID int, req UpdateBookingRequest) (*Booking, error)
	UpdatePayment(ctx context.Context, callerID int, role string, bookingID int, req UpdatePaymentRequest) (*Booking, error)
	Delete(ctx context.Context, callerID int, role string, bookingID int) error
	Ledger(ctx context.Context, callerID int, role string, bookingID int) (*LedgerResponse, error)
	UpdateLineItem(ctx context.Context, callerID int, role string, itemID int, req UpdateLineItemRequest) (*LineItem, error)
	DeleteLineItem(ctx context.Context, callerID int, role string, itemID int) error
}

type service struct {
	repo         Repository
	locationRepo LocationRepository
	emailService *email.Service
}

func NewService(repo Repository, locationRepo LocationRepository, emailService *email.Service) Service {
	return &service{
		repo:         repo,
		locationRepo: locationRepo,
		emailService: emailService,
	}
}

func (s *service) Create(ctx context.Context, customerID int, role string, req CreateBookingRequest) (*BookingWithDetails, error) {
	if len(req.Services) == 0 {
		return nil, ErrNoItems
	}

	for _, sel := range req.Services {
		if sel.Quantity < 1 {
			return nil, fmt.Errorf("%w: service %d", ErrInvalidQuantity, sel.ServiceID)
		}
	}

	if _, err := s.locationRepo.GetByID(ctx, req.LocationID); err != nil {
		if errors.Is(err, location.ErrLocationNotFound) {
			return nil, ErrLocationNotFound
		}
		return nil, fmt.Errorf("check location: %w", err)
	}

	// Customers always start at pending; staff may seed another status.
	status := StatusPending
	if req.Status != "" && (role == auth.RoleAdmin || role == auth.RoleMechanic) {
		if !ValidStatus(req.Status) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, req.Status)
		}
		status = req.Status
	}

	booking, items, err := s.repo.CreateBooking(ctx, customerID, req, status)
	if err != nil {
		return nil, err
	}

	metrics.RecordBooking(booking.Status, len(items))

	if s.emailService != nil {
		err := s.emailService.SendBookingConfirmation(
			ctx,
			booking.CustomerEmail,
			booking.CustomerName,
			booking.Reference,
			booking.LocationName,
			booking.ScheduledAt,
			booking.TotalCents,
		)
		if err != nil {
			logger.Errorf("Failed to queue confirmation for booking %s: %v", booking.Reference, err)
		}
	}

	return booking, nil
}

func (s *service) Get(ctx context.Context, callerID int, role string, bookingID int) (*BookingWithDetails, error) {
	booking, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if err := Authorize(ActionRead, callerID, role, booking.CustomerID); err != nil {
		return nil, err
	}

	return booking, nil
}

func (s *service) ListMine(ctx context.Context, callerID int) ([]Booking, error) {
	return s.repo.ListByCustomer(ctx, callerID)
}

func (s *service) ListAll(ctx context.Context, callerID int, role string) ([]BookingWithDetails, error) {
	if err := Authorize(ActionListAll, callerID, role, 0); err != nil {
		return nil, err
	}
	return s.repo.ListAll(ctx)
}

func (s *service) UpdateDetails(ctx context.Context, callerID int, role string, bookingID int, req UpdateBookingRequest) (*Booking, error) {
	booking, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if err := Authorize(ActionUpdateDetails, callerID, role, booking.CustomerID); err != nil {
		return nil, err
	}

	cancelled := false
	if req.Status != nil && *req.Status != booking.Status {
		if !ValidStatus(*req.Status) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, *req.Status)
		}
		if !CanTransition(booking.Status, *req.Status) {
			return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, booking.Status, *req.Status)
		}
		cancelled = *req.Status == StatusCancelled
	}

	updated, err := s.repo.UpdateDetails(ctx, bookingID, req)
	if err != nil {
		return nil, err
	}

	if cancelled {
		metrics.RecordBookingCancellation()
		if s.emailService != nil {
			if err := s.emailService.SendBookingCancellation(ctx, booking.CustomerEmail, booking.CustomerName, booking.Reference); err != nil {
				logger.Errorf("Failed to queue cancellation for booking %s: %v", booking.Reference, err)
			}
		}
	}

	return updated, nil
}

func (s *service) UpdatePayment(ctx context.Context, callerID int, role string, bookingID int, req UpdatePaymentRequest) (*Booking, error) {
	booking, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if err := Authorize(ActionUpdatePayment, callerID, role, booking.CustomerID); err != nil {
		return nil, err
	}

	return s.repo.UpdatePayment(ctx, bookingID, req)
}

func (s *service) Delete(ctx context.Context, callerID int, role string, bookingID int) error {
	booking, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return err
	}

	if err := Authorize(ActionDelete, callerID, role, booking.CustomerID); err != nil {
		return err
	}

	return s.repo.Delete(ctx, bookingID)
}

func (s *service) Ledger(ctx context.Context, callerID int, role string, bookingID int) (*LedgerResponse, error) {
	booking, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if err := Authorize(ActionRead, callerID, role, booking.CustomerID); err != nil {
		return nil, err
	}

	items, err := s.repo.ListLineItems(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	sum, err := s.repo.SumLineItems(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	return &LedgerResponse{Items: items, TotalCents: sum}, nil
}

func (s *service) UpdateLineItem(ctx context.Context, callerID int, role string, itemID int, req UpdateLineItemRequest) (*LineItem, error) {
	if err := Authorize(ActionMaintainItems, callerID, role, 0); err != nil {
		return nil, err
	}

	if req.Quantity != nil && *req.Quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	return s.repo.UpdateLineItem(ctx, itemID, req)
}

func (s *service) DeleteLineItem(ctx context.Context, callerID int, role string, itemID int) error {
	if err := Authorize(ActionMaintainItems, callerID, role, 0); err != nil {
		return err
	}

	return s.repo.DeleteLineItem(ctx, itemID)
}
