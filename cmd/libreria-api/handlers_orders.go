package main

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/libroverso/libreria-api/internal/catalog"
	"github.com/libroverso/libreria-api/internal/httpx"
	ord "github.com/libroverso/libreria-api/internal/order"
)

func listOrdersHandler(orders ord.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		u := currentUser(c)
		out, err := orders.ListByUser(c.Request.Context(), u.ID)
		if err != nil {
			httpx.WriteError(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

// createOrderHandler godoc
// @Summary Crea un pedido con sus ítems
// @Tags pedidos
// @Param pedido body order.CreateOrderRequest true "pedido"
// @Success 201 {object} order.Order
// @Failure 400 {object} catalog.HTTPError
// @Router /pedidos [post]
func createOrderHandler(orders ord.Repository, books catalog.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		u := currentUser(c)
		var req ord.CreateOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil || len(req.Items) == 0 {
			httpx.WriteError(c, httpx.E(httpx.KindValidation, "Items inválidos"))
			return
		}

		// chequeo puntual de stock al momento del alta; la aplicación
		// real del descuento ocurre en la reconciliación del pago
		items := make([]ord.Item, 0, len(req.Items))
		for _, it := range req.Items {
			if it.Quantity <= 0 {
				httpx.WriteError(c, httpx.E(httpx.KindValidation, "Items inválidos"))
				return
			}
			libro, err := books.GetByID(c.Request.Context(), it.ID)
			if err != nil {
				httpx.WriteError(c, httpx.E(httpx.KindValidation,
					fmt.Sprintf("El libro con ID %d no existe", it.ID)))
				return
			}
			if libro.Stock < it.Quantity {
				httpx.WriteError(c, httpx.E(httpx.KindValidation,
					fmt.Sprintf("Stock insuficiente para el libro %q. Stock disponible: %d, Cantidad solicitada: %d",
						libro.Nombre, libro.Stock, it.Quantity)))
				return
			}
			items = append(items, ord.Item{
				LibroID:  it.ID,
				Cantidad: it.Quantity,
				Precio:   it.Precio,
			})
		}

		o := &ord.Order{
			UserID:        u.ID,
			Total:         req.Total,
			PaymentStatus: ord.StatusPending,
			PaymentRef:    req.PaymentID,
		}
		if err := orders.Create(c.Request.Context(), o, items); err != nil {
			httpx.WriteError(c, err)
			return
		}
		c.JSON(http.StatusCreated, o)
	}
}

// validateStockHandler is a read-only point-in-time check, not a
// reservation.
func validateStockHandler(books catalog.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Items []struct {
				ID       int64 `json:"id"`
				Quantity int   `json:"quantity"`
			} `json:"items"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || len(req.Items) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Items inválidos", "valid": false})
			return
		}

		results := make([]ord.StockValidationItem, 0, len(req.Items))
		allValid := true
		for _, it := range req.Items {
			libro, err := books.GetByID(c.Request.Context(), it.ID)
			if err != nil {
				allValid = false
				results = append(results, ord.StockValidationItem{
					ID:        it.ID,
					Nombre:    "Libro no encontrado",
					Requested: it.Quantity,
					Error:     "Libro no encontrado",
				})
				continue
			}
			valid := libro.Stock >= it.Quantity
			row := ord.StockValidationItem{
				ID:        libro.ID,
				Nombre:    libro.Nombre,
				Stock:     libro.Stock,
				Requested: it.Quantity,
				Available: libro.Stock,
				Valid:     valid,
			}
			if !valid {
				allValid = false
				row.Error = fmt.Sprintf("Stock insuficiente. Disponible: %d, Solicitado: %d", libro.Stock, it.Quantity)
			}
			results = append(results, row)
		}

		msg := "Stock válido para todos los productos"
		if !allValid {
			msg = "Algunos productos no tienen stock suficiente"
		}
		c.JSON(http.StatusOK, ord.StockValidationResponse{
			Valid:   allValid,
			Results: results,
			Message: msg,
		})
	}
}
