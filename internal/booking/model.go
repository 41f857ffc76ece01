package booking

import "time"

// Booking statuses.
const (
	StatusPending    = "pending"
	StatusConfirmed  = "confirmed"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

// statusTransitions is the allowed forward graph. Cancellation is reachable
// from any non-terminal state.
var statusTransitions = map[string][]string{
	StatusPending:    {StatusConfirmed, StatusCancelled},
	StatusConfirmed:  {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted, StatusCancelled},
	StatusCompleted:  {},
	StatusCancelled:  {},
}

func ValidStatus(status string) bool {
	_, ok := statusTransitions[status]
	return ok
}

func CanTransition(from, to string) bool {
	for _, next := range statusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type Booking struct {
	ID          int       `db:"id" json:"id"`
	Reference   string    `db:"reference" json:"reference"`
	CustomerID  int       `db:"customer_id" json:"customer_id"`
	LocationID  int       `db:"location_id" json:"location_id"`
	ScheduledAt time.Time `db:"scheduled_at" json:"scheduled_at"`
	Status      string    `db:"status" json:"status"`
	TotalCents  int64     `db:"total_cents" json:"total_cents"`
	IsPaid      bool      `db:"is_paid" json:"is_paid"`
	Notes       string    `db:"notes" json:"notes"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// LineItem is a priced snapshot of one requested service. Unit price and line
// total are copied at booking time and never recomputed from the catalogs.
type LineItem struct {
	ID             int       `db:"id" json:"id"`
	BookingID      int       `db:"booking_id" json:"booking_id"`
	ProductID      int       `db:"product_id" json:"product_id"`
	Quantity       int       `db:"quantity" json:"quantity"`
	UnitPriceCents int64     `db:"unit_price_cents" json:"unit_price_cents"`
	LineTotalCents int64     `db:"line_total_cents" json:"line_total_cents"`
	IsPaid         bool      `db:"is_paid" json:"is_paid"`
	Notes          string    `db:"notes" json:"notes"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

type BookingWithDetails struct {
	Booking
	CustomerName    string `db:"customer_name" json:"customer_name"`
	CustomerEmail   string `db:"customer_email" json:"customer_email"`
	LocationName    string `db:"location_name" json:"location_name"`
	LocationAddress string `db:"location_address" json:"location_address"`
}

type ServiceSelection struct {
	ServiceID int    `json:"service_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required"`
	Notes     string `json:"notes"`
}

type CreateBookingRequest struct {
	LocationID  int                `json:"location_id" binding:"required"`
	ScheduledAt time.Time          `json:"scheduled_at" binding:"required"`
	Services    []ServiceSelection `json:"services"`
	Notes       string             `json:"notes"`
	Status      string             `json:"status"`
}

type UpdateBookingRequest struct {
	ScheduledAt *time.Time `json:"scheduled_at"`
	Status      *string    `json:"status"`
	Notes       *string    `json:"notes"`
}

type UpdatePaymentRequest struct {
	IsPaid     *bool  `json:"is_paid"`
	TotalCents *int64 `json:"total_cents"`
}

type UpdateLineItemRequest struct {
	Quantity       *int    `json:"quantity"`
	UnitPriceCents *int64  `json:"unit_price_cents"`
	IsPaid         *bool   `json:"is_paid"`
	Notes          *string `json:"notes"`
}

type LedgerResponse struct {
	Items      []LineItem `json:"items"`
	TotalCents int64      `json:"total_cents"`
}
