package booking

import "context"

type Repository interface {
	CreateBooking(ctx context.Context, customerID int, req CreateBookingRequest, status string) (*BookingWithDetails, []LineItem, error)
	GetByID(ctx context.Context, id int) (*BookingWithDetails, error)
	ListByCustomer(ctx context.Context, customerID int) ([]Booking, error)
	ListAll(ctx context.Context) ([]BookingWithDetails, error)
	UpdateDetails(ctx context.Context, id int, req UpdateBookingRequest) (*Booking, error)
	UpdatePayment(ctx context.Context, id int, req UpdatePaymentRequest) (*Booking, error)
	Delete(ctx context.Context, id int) error

	ListLineItems(ctx context.Context, bookingID int) ([]LineItem, error)
	SumLineItems(ctx context.Context, bookingID int) (int64, error)
	GetLineItem(ctx context.Context, id int) (*LineItem, error)
	UpdateLineItem(ctx context.Context, id int, req UpdateLineItemRequest) (*LineItem, error)
	DeleteLineItem(ctx context.Context, id int) error
}
