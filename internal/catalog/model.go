package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

type Category struct {
	ID     int64  `json:"id"`
	Nombre string `json:"nombre"`
}

type Book struct {
	ID     int64  `json:"id"`
	Nombre string `json:"nombre"`
	Autor  string `json:"autor"`
	Img    string `json:"img,omitempty"`
	// Stored as NUMERIC; decimal avoids float rounding on money
	Precio      decimal.Decimal `json:"precio"`
	Stock       int             `json:"stock"`
	CategoriaID int64           `json:"categoriaId"`
	Categoria   *Category       `json:"categoria,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// HTTPError represents a standard error in JSON.
// swagger:model
type HTTPError struct {
	// Error message
	// example: not found
	Error string `json:"error"`
}

// ListResponse is the paginated catalog response.
// swagger:model
type ListResponse struct {
	Libros []Book `json:"libros"`
	Total  int    `json:"total"`
}

// SaveBookRequest is the create/update payload for admin book endpoints.
// swagger:model SaveBookRequest
type SaveBookRequest struct {
	Nombre      string          `json:"nombre"      example:"Rayuela"`
	Autor       string          `json:"autor"       example:"Julio Cortázar"`
	Img         string          `json:"img"         example:"https://cdn.example.com/rayuela.jpg"`
	Precio      decimal.Decimal `json:"precio"      example:"8999.90"`
	CategoriaID int64           `json:"categoriaId" example:"1"`
	Stock       *int            `json:"stock"       example:"12"`
}
