package order

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/libroverso/libreria-api/internal/metrics"
	"github.com/libroverso/libreria-api/internal/payment"
)

// ErrPaymentUnavailable means the gateway had not committed the payment
// record within the retry window. The webhook answers 202 so the gateway
// redelivers later; nothing was written.
var ErrPaymentUnavailable = errors.New("payment not yet available")

// Notification is the inbound gateway webhook payload.
type Notification struct {
	Type string `json:"type"`
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
}

// Result classifies a successfully acknowledged notification.
type Result int

const (
	// ResultSuccess: the order's payment status was updated.
	ResultSuccess Result = iota
	// ResultIgnored: not a payment notification; acknowledged, no writes.
	ResultIgnored
	// ResultNoReference: the payment carries no external reference, so
	// there is no order to correlate it with; acknowledged, no writes.
	ResultNoReference
)

// PaymentFetcher is the slice of the gateway client the reconciler needs.
type PaymentFetcher interface {
	GetPayment(ctx context.Context, id string) (*payment.Payment, error)
}

// Reconciler applies a gateway payment outcome onto the matching order
// and, for approved payments, decrements catalog stock exactly once.
type Reconciler struct {
	Payments PaymentFetcher
	Orders   Repository

	// Retries/RetryDelay govern the payment lookup; the notification can
	// arrive before the gateway has committed the record.
	Retries    int
	RetryDelay time.Duration
}

func NewReconciler(p PaymentFetcher, o Repository) *Reconciler {
	return &Reconciler{
		Payments:   p,
		Orders:     o,
		Retries:    3,
		RetryDelay: time.Second,
	}
}

// MapGatewayStatus maps a gateway payment state onto the order payment
// status. The known states map 1:1 under the same names; anything else
// is stored verbatim so a new gateway state is never lost.
func MapGatewayStatus(s string) string {
	switch s {
	case StatusApproved, "pending", StatusRejected, StatusCancelled, StatusRefunded:
		return s
	default:
		return s
	}
}

// Process handles one inbound notification. It returns one of the
// Result values on acknowledgment, or ErrPaymentUnavailable /
// ErrNotFound / an internal error for the handler to map onto the
// webhook's status codes.
func (r *Reconciler) Process(ctx context.Context, n Notification) (Result, error) {
	if n.Type != "payment" || n.Data.ID == "" {
		metrics.WebhookOutcomes.WithLabelValues("ignored").Inc()
		return ResultIgnored, nil
	}

	p, err := r.fetchPayment(ctx, n.Data.ID)
	if err != nil {
		if errors.Is(err, ErrPaymentUnavailable) {
			metrics.WebhookOutcomes.WithLabelValues("not_yet_available").Inc()
		} else {
			metrics.WebhookOutcomes.WithLabelValues("gateway_error").Inc()
		}
		return 0, err
	}

	if p.ExternalReference == "" {
		log.WithField("payment_id", p.ID).Warn("payment without external reference, nothing to correlate")
		metrics.WebhookOutcomes.WithLabelValues("no_reference").Inc()
		return ResultNoReference, nil
	}

	o, err := r.Orders.GetByPaymentRef(ctx, p.ExternalReference)
	if err != nil {
		log.WithFields(log.Fields{
			"payment_id": p.ID,
			"reference":  p.ExternalReference,
		}).Error("no order for external reference")
		metrics.WebhookOutcomes.WithLabelValues("order_not_found").Inc()
		return 0, ErrNotFound
	}

	status := MapGatewayStatus(p.Status)
	// the status write always happens; only the stock adjustment is
	// guarded against redelivery
	applied, err := r.Orders.ApplyPaymentStatus(ctx, o.ID, status, status == StatusApproved)
	if err != nil {
		metrics.WebhookOutcomes.WithLabelValues("store_error").Inc()
		return 0, err
	}

	logEntry := log.WithFields(log.Fields{
		"order_id":   o.ID,
		"payment_id": p.ID,
		"status":     status,
	})
	logEntry.Info("order payment status updated")
	metrics.OrdersTotal.WithLabelValues(status).Inc()

	if applied.AlreadyApproved && status == StatusApproved {
		logEntry.Info("order already approved, stock left untouched")
	}
	for _, s := range applied.Shortfalls {
		metrics.StockShortfalls.Inc()
		log.WithFields(log.Fields{
			"order_id":   o.ID,
			"libro_id":   s.LibroID,
			"nombre":     s.Nombre,
			"stock":      s.Stock,
			"solicitado": s.Solicitado,
		}).Warn("insufficient stock, decrement skipped for item")
	}

	metrics.WebhookOutcomes.WithLabelValues("success").Inc()
	return ResultSuccess, nil
}

// fetchPayment looks the payment up, retrying only the not-found race.
// Any other gateway failure aborts immediately.
func (r *Reconciler) fetchPayment(ctx context.Context, id string) (*payment.Payment, error) {
	attempts := r.Retries
	if attempts <= 0 {
		attempts = 1
	}
	for i := 0; i < attempts; i++ {
		p, err := r.Payments.GetPayment(ctx, id)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, payment.ErrNotFound) {
			return nil, err
		}
		log.WithField("payment_id", id).Info("payment not yet available, retrying")
		if i < attempts-1 {
			select {
			case <-time.After(r.RetryDelay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	log.WithField("payment_id", id).Warn("payment could not be retrieved, asking gateway to redeliver")
	return nil, ErrPaymentUnavailable
}
