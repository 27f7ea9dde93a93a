package order

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/libroverso/libreria-api/internal/catalog"
)

// StatusPending is the payment status every order is created with. The
// reconciliation flow overwrites it with the gateway's (lowercase)
// state vocabulary; both casings are part of the wire contract.
const StatusPending = "PENDING"

// Gateway payment states that map 1:1 onto order payment statuses.
const (
	StatusApproved  = "approved"
	StatusRejected  = "rejected"
	StatusCancelled = "cancelled"
	StatusRefunded  = "refunded"
)

type Order struct {
	ID     int64           `json:"id"`
	UserID int64           `json:"userId"`
	Total  decimal.Decimal `json:"total"` // NUMERIC -> decimal
	// PaymentStatus is mutated only by the reconciliation handler after
	// creation.
	PaymentStatus string `json:"paymentStatus"`
	// PaymentRef is the external payment reference used as the
	// correlation key for gateway notifications. Unique across orders.
	PaymentRef string    `json:"paymentId,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	Items      []Item    `json:"items,omitempty"`
	// Usuario identifies the order's owner; populated by the admin
	// listing only.
	Usuario *UserSummary `json:"user,omitempty"`
}

// UserSummary is the order owner as the admin listing exposes it.
type UserSummary struct {
	ID     int64  `json:"id"`
	Email  string `json:"email"`
	Nombre string `json:"nombre"`
}

type Item struct {
	ID       int64           `json:"id"`
	OrderID  int64           `json:"orderId"`
	LibroID  int64           `json:"libroId"`
	Cantidad int             `json:"cantidad"`
	Precio   decimal.Decimal `json:"precio"` // snapshotted at order time
	Libro    *catalog.Book   `json:"libro,omitempty"`
}
