package booking

import "errors"

var (
	ErrBookingNotFound    = errors.New("booking not found")
	ErrLineItemNotFound   = errors.New("line item not found")
	ErrLocationNotFound   = errors.New("location not found")
	ErrNoItems            = errors.New("at least one service must be selected")
	ErrInvalidQuantity    = errors.New("quantity must be at least 1")
	ErrServiceNotFound    = errors.New("service not found")
	ErrServiceUnavailable = errors.New("service is not available")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidStatus      = errors.New("invalid status")
	ErrInvalidTransition  = errors.New("invalid status transition")
)
