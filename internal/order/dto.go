package order

import "github.com/shopspring/decimal"

// CreateOrderItem payload de ítem.
// swagger:model CreateOrderItem
type CreateOrderItem struct {
	ID       int64           `json:"id"       example:"12"`
	Quantity int             `json:"quantity" example:"2"`
	Precio   decimal.Decimal `json:"precio"   example:"8999.90"`
}

// CreateOrderRequest payload de creación de pedido.
// swagger:model CreateOrderRequest
type CreateOrderRequest struct {
	Items     []CreateOrderItem `json:"items"`
	Total     decimal.Decimal   `json:"total"     example:"17999.80"`
	PaymentID string            `json:"paymentId" example:"order_1718000000000_a1b2c3d4"`
}

// StockValidationItem is one row of the validate-stock response.
// swagger:model StockValidationItem
type StockValidationItem struct {
	ID        int64  `json:"id"`
	Nombre    string `json:"nombre"`
	Stock     int    `json:"stock"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
	Valid     bool   `json:"valid"`
	Error     string `json:"error,omitempty"`
}

// StockValidationResponse is the overall validate-stock response.
// swagger:model StockValidationResponse
type StockValidationResponse struct {
	Valid   bool                  `json:"valid"`
	Results []StockValidationItem `json:"results"`
	Message string                `json:"message"`
}
