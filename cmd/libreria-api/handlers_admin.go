package main

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/libroverso/libreria-api/internal/catalog"
	"github.com/libroverso/libreria-api/internal/httpx"
	ord "github.com/libroverso/libreria-api/internal/order"
)

// validateSaveBook checks the all-fields-required contract of the admin
// book endpoints and that the category exists. Returns false after
// writing the error response.
func validateSaveBook(c *gin.Context, repo catalog.Repository, req *catalog.SaveBookRequest) bool {
	if req.Nombre == "" || req.Autor == "" || req.Img == "" || req.Precio.IsZero() ||
		req.CategoriaID == 0 || req.Stock == nil {
		httpx.WriteError(c, httpx.E(httpx.KindValidation, "Todos los campos son requeridos"))
		return false
	}
	if *req.Stock < 0 {
		httpx.WriteError(c, httpx.E(httpx.KindValidation, "stock must be non-negative"))
		return false
	}
	if _, err := repo.GetCategory(c.Request.Context(), req.CategoriaID); err != nil {
		httpx.WriteError(c, httpx.E(httpx.KindValidation, "Categoría no válida"))
		return false
	}
	return true
}

func adminListBooksHandler(repo catalog.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		// the admin panel works on the full catalog, not a page of it
		libros, _, err := repo.List(c.Request.Context(), catalog.Query{Limit: -1})
		if err != nil {
			httpx.WriteError(c, err)
			return
		}
		c.JSON(http.StatusOK, libros)
	}
}

// createBookHandler godoc
// @Summary Alta de libro (admin)
// @Tags admin
// @Param book body catalog.SaveBookRequest true "libro"
// @Success 201 {object} catalog.Book
// @Failure 400 {object} catalog.HTTPError
// @Router /admin/books [post]
func createBookHandler(repo catalog.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req catalog.SaveBookRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.WriteError(c, httpx.E(httpx.KindValidation, "invalid json"))
			return
		}
		if !validateSaveBook(c, repo, &req) {
			return
		}
		if _, err := repo.GetByName(c.Request.Context(), req.Nombre); err == nil {
			httpx.WriteError(c, httpx.E(httpx.KindValidation, "Ya existe un libro con ese nombre"))
			return
		}
		b := &catalog.Book{
			Nombre:      req.Nombre,
			Autor:       req.Autor,
			Img:         req.Img,
			Precio:      req.Precio,
			CategoriaID: req.CategoriaID,
			Stock:       *req.Stock,
		}
		if err := repo.Create(c.Request.Context(), b); err != nil {
			httpx.WriteError(c, err)
			return
		}
		out, err := repo.GetByID(c.Request.Context(), b.ID)
		if err != nil {
			httpx.WriteError(c, err)
			return
		}
		c.JSON(http.StatusCreated, out)
	}
}

func updateBookHandler(repo catalog.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			httpx.WriteError(c, httpx.E(httpx.KindValidation, "id inválido"))
			return
		}
		var req catalog.SaveBookRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.WriteError(c, httpx.E(httpx.KindValidation, "invalid json"))
			return
		}
		if !validateSaveBook(c, repo, &req) {
			return
		}
		// el nombre debe seguir siendo único, excluyendo este mismo libro
		if existing, err := repo.GetByName(c.Request.Context(), req.Nombre); err == nil && existing.ID != id {
			httpx.WriteError(c, httpx.E(httpx.KindValidation, "Ya existe un libro con ese nombre"))
			return
		}
		b := &catalog.Book{
			ID:          id,
			Nombre:      req.Nombre,
			Autor:       req.Autor,
			Img:         req.Img,
			Precio:      req.Precio,
			CategoriaID: req.CategoriaID,
			Stock:       *req.Stock,
		}
		if err := repo.Update(c.Request.Context(), b); err != nil {
			if err == catalog.ErrNotFound {
				httpx.WriteError(c, httpx.E(httpx.KindNotFound, "Libro no encontrado"))
				return
			}
			httpx.WriteError(c, err)
			return
		}
		out, err := repo.GetByID(c.Request.Context(), id)
		if err != nil {
			httpx.WriteError(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

func deleteBookHandler(repo catalog.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			httpx.WriteError(c, httpx.E(httpx.KindValidation, "id inválido"))
			return
		}
		ok, err := repo.Delete(c.Request.Context(), id)
		if err != nil {
			httpx.WriteError(c, err)
			return
		}
		if !ok {
			httpx.WriteError(c, httpx.E(httpx.KindNotFound, "Libro no encontrado"))
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func adminListOrdersHandler(orders ord.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := orders.ListAll(c.Request.Context())
		if err != nil {
			httpx.WriteError(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}
