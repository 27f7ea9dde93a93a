package main

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/libroverso/libreria-api/internal/catalog"
	"github.com/libroverso/libreria-api/internal/httpx"
)

// listBooksHandler godoc
// @Summary Catálogo paginado de libros
// @Tags libros
// @Param page query int false "page (1-based)"
// @Param limit query int false "page size"
// @Param nombre query string false "filter by name"
// @Success 200 {object} catalog.ListResponse
// @Router /libros [get]
func listBooksHandler(repo catalog.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "9"))
		if page < 1 {
			page = 1
		}
		if limit <= 0 {
			limit = 9
		}
		q := catalog.Query{
			Nombre: c.Query("nombre"),
			Limit:  limit,
			Offset: (page - 1) * limit,
		}
		libros, total, err := repo.List(c.Request.Context(), q)
		if err != nil {
			httpx.WriteError(c, err)
			return
		}
		c.JSON(http.StatusOK, catalog.ListResponse{Libros: libros, Total: total})
	}
}

func getBookHandler(repo catalog.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			httpx.WriteError(c, httpx.E(httpx.KindValidation, "id inválido"))
			return
		}
		b, err := repo.GetByID(c.Request.Context(), id)
		if err != nil {
			httpx.WriteError(c, httpx.E(httpx.KindNotFound, "Libro no encontrado"))
			return
		}
		c.JSON(http.StatusOK, b)
	}
}

func listCategoriesHandler(repo catalog.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		cats, err := repo.Categories(c.Request.Context())
		if err != nil {
			httpx.WriteError(c, err)
			return
		}
		c.JSON(http.StatusOK, cats)
	}
}

func createCategoryHandler(repo catalog.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Nombre string `json:"nombre"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || req.Nombre == "" {
			httpx.WriteError(c, httpx.E(httpx.KindValidation, "El nombre es requerido"))
			return
		}
		if _, err := repo.GetCategoryByName(c.Request.Context(), req.Nombre); err == nil {
			httpx.WriteError(c, httpx.E(httpx.KindValidation, "Ya existe una categoría con ese nombre"))
			return
		}
		cat := &catalog.Category{Nombre: req.Nombre}
		if err := repo.CreateCategory(c.Request.Context(), cat); err != nil {
			httpx.WriteError(c, err)
			return
		}
		c.JSON(http.StatusCreated, cat)
	}
}
