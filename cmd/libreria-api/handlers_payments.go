package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/libroverso/libreria-api/internal/httpx"
	ord "github.com/libroverso/libreria-api/internal/order"
	"github.com/libroverso/libreria-api/internal/payment"
)

// preferenceCreator is the slice of the gateway client the checkout
// handler needs; tests stub it.
type preferenceCreator interface {
	CreatePreference(ctx context.Context, req payment.PreferenceRequest) (*payment.Preference, error)
}

type preferenceItem struct {
	ID       *int64           `json:"id"`
	Nombre   string           `json:"nombre"`
	Precio   *decimal.Decimal `json:"precio"`
	Quantity *int             `json:"quantity"`
}

func newExternalReference() string {
	ref := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return fmt.Sprintf("order_%d_%s", time.Now().UnixMilli(), ref)
}

// createPreferenceHandler registers a checkout preference with the
// gateway and hands the storefront the redirect URL plus the external
// reference it must attach to the order it creates next.
func createPreferenceHandler(gw preferenceCreator, publicBaseURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Items []preferenceItem `json:"items"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || len(req.Items) == 0 {
			httpx.WriteError(c, httpx.E(httpx.KindValidation, "Items inválidos"))
			return
		}
		for _, it := range req.Items {
			if it.ID == nil || it.Nombre == "" || it.Precio == nil || it.Quantity == nil {
				httpx.WriteError(c, httpx.E(httpx.KindValidation, "Algunos items no tienen todos los campos requeridos"))
				return
			}
		}

		externalRef := newExternalReference()
		prefReq := payment.PreferenceRequest{
			ExternalReference: externalRef,
			AutoReturn:        "approved",
			BackURLs: payment.BackURLs{
				Success: publicBaseURL + "/payment/success",
				Failure: publicBaseURL + "/payment/failure",
				Pending: publicBaseURL + "/payment/pending",
			},
		}
		for _, it := range req.Items {
			prefReq.Items = append(prefReq.Items, payment.PreferenceItem{
				ID:        fmt.Sprintf("%d", *it.ID),
				Title:     it.Nombre,
				UnitPrice: *it.Precio,
				Quantity:  *it.Quantity,
				Currency:  "ARS",
			})
		}

		pref, err := gw.CreatePreference(c.Request.Context(), prefReq)
		if err != nil {
			log.WithError(err).Error("preference create failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error al crear la preferencia de pago"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"init_point":         pref.InitPoint,
			"preference_id":      pref.ID,
			"external_reference": externalRef,
		})
	}
}

// paymentWebhookHandler godoc
// @Summary Webhook de notificaciones del gateway de pagos
// @Tags payments
// @Param notification body order.Notification true "notification"
// @Success 200 {object} map[string]bool
// @Failure 202 {object} catalog.HTTPError
// @Failure 404 {object} catalog.HTTPError
// @Router /payments/webhook [post]
func paymentWebhookHandler(rec *ord.Reconciler) gin.HandlerFunc {
	return func(c *gin.Context) {
		var n ord.Notification
		if err := c.ShouldBindJSON(&n); err != nil {
			httpx.WriteError(c, httpx.E(httpx.KindValidation, "invalid json"))
			return
		}

		result, err := rec.Process(c.Request.Context(), n)
		if err != nil {
			switch {
			case errors.Is(err, ord.ErrPaymentUnavailable):
				// tells the gateway to redeliver later
				httpx.WriteError(c, httpx.E(httpx.KindRetryLater, "Pago no encontrado aún"))
			case errors.Is(err, ord.ErrNotFound):
				httpx.WriteError(c, httpx.E(httpx.KindNotFound, "Pedido no encontrado"))
			default:
				log.WithError(err).Error("webhook processing failed")
				// WriteError keeps the detail out of the response
				httpx.WriteError(c, err)
			}
			return
		}

		if result == ord.ResultIgnored {
			c.JSON(http.StatusOK, gin.H{"ignored": true})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}
