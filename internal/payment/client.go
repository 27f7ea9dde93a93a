// Package payment talks to the external payment gateway: checkout
// preference creation and payment record lookup.
package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

// ErrNotFound means the gateway has no record for the payment id yet.
// The webhook can race the gateway's own commit, so callers treat this
// as retryable.
var ErrNotFound = errors.New("payment not found")

// Payment is the gateway's payment record, reduced to the fields the
// reconciliation flow needs.
type Payment struct {
	ID                string `json:"id"`
	Status            string `json:"status"`
	ExternalReference string `json:"external_reference"`
}

type Preference struct {
	ID        string `json:"id"`
	InitPoint string `json:"init_point"`
}

type PreferenceItem struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	Currency  string          `json:"currency_id"`
}

type BackURLs struct {
	Success string `json:"success"`
	Failure string `json:"failure"`
	Pending string `json:"pending"`
}

type PreferenceRequest struct {
	Items             []PreferenceItem `json:"items"`
	ExternalReference string           `json:"external_reference"`
	BackURLs          BackURLs         `json:"back_urls"`
	AutoReturn        string           `json:"auto_return"`
}

type Client struct {
	http    *resty.Client
	breaker *gobreaker.CircuitBreaker
}

func NewClient(baseURL, accessToken string) *Client {
	httpc := resty.New().
		SetBaseURL(baseURL).
		SetAuthToken(accessToken).
		SetTimeout(5 * time.Second).
		SetRetryCount(0) // retries are the caller's decision

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "payment-gateway",
		MaxRequests: 3,
		Interval:    15 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.WithFields(log.Fields{
				"circuit": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Info("circuit breaker state changed")
		},
	})

	return &Client{http: httpc, breaker: cb}
}

// GetPayment fetches the full payment record by gateway id.
func (c *Client) GetPayment(ctx context.Context, id string) (*Payment, error) {
	out, err := c.breaker.Execute(func() (interface{}, error) {
		var p Payment
		res, err := c.http.R().
			SetContext(ctx).
			SetResult(&p).
			Get("/v1/payments/" + id)
		if err != nil {
			return nil, err
		}
		// a 404 is the notification/record race, not a gateway failure:
		// it must not count against the breaker
		if res.StatusCode() == 404 {
			return nil, nil
		}
		if res.IsError() {
			return nil, fmt.Errorf("gateway payment lookup: %s", res.Status())
		}
		return &p, nil
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, ErrNotFound
	}
	return out.(*Payment), nil
}

// CreatePreference registers a checkout preference and returns the
// redirect data for the storefront.
func (c *Client) CreatePreference(ctx context.Context, req PreferenceRequest) (*Preference, error) {
	out, err := c.breaker.Execute(func() (interface{}, error) {
		var p Preference
		res, err := c.http.R().
			SetContext(ctx).
			SetBody(req).
			SetResult(&p).
			Post("/checkout/preferences")
		if err != nil {
			return nil, err
		}
		if res.IsError() {
			return nil, fmt.Errorf("gateway preference create: %s", res.Status())
		}
		return &p, nil
	})
	if err != nil {
		return nil, err
	}
	return out.(*Preference), nil
}
