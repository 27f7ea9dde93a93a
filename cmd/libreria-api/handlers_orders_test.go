package main

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/libroverso/libreria-api/internal/catalog"
	ord "github.com/libroverso/libreria-api/internal/order"
	"github.com/libroverso/libreria-api/internal/user"
)

// asUser injects an authenticated user the way authRequired does.
func asUser(u *user.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user", u)
		c.Next()
	}
}

func catalogWithBook(stock int) (*stubCatalog, *catalog.Book) {
	books := newStubCatalog()
	cat := books.addCategory("Novela")
	b := books.addBook(catalog.Book{
		Nombre:      "Rayuela",
		Autor:       "Julio Cortázar",
		Precio:      decimal.RequireFromString("8999.90"),
		Stock:       stock,
		CategoriaID: cat.ID,
	})
	return books, b
}

func TestCreateOrder_OK(t *testing.T) {
	books, b := catalogWithBook(5)
	store := newStubOrders()
	r := gin.New()
	r.POST("/api/pedidos", asUser(&user.User{ID: 7}), createOrderHandler(store, books))

	w := doJSON(t, r, http.MethodPost, "/api/pedidos", gin.H{
		"items":     []gin.H{{"id": b.ID, "quantity": 2, "precio": 8999.90}},
		"total":     17999.80,
		"paymentId": "order_1718000000000_a1b2c3d4",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if body["paymentStatus"] != ord.StatusPending {
		t.Fatalf("paymentStatus=%v, todo pedido nace PENDING", body["paymentStatus"])
	}

	if len(store.orders) != 1 {
		t.Fatalf("pedidos guardados=%d", len(store.orders))
	}
	o := store.orders[0]
	if o.UserID != 7 || o.PaymentRef != "order_1718000000000_a1b2c3d4" {
		t.Fatalf("order=%+v", o)
	}
	if len(o.Items) != 1 || o.Items[0].LibroID != b.ID || o.Items[0].Cantidad != 2 {
		t.Fatalf("items=%+v", o.Items)
	}
	// el alta solo valida stock, no lo descuenta
	got, _ := books.GetByID(nil, b.ID)
	if got.Stock != 5 {
		t.Fatalf("stock=%d, el alta no debía descontar", got.Stock)
	}
}

func TestCreateOrder_UnknownBook(t *testing.T) {
	books, _ := catalogWithBook(5)
	r := gin.New()
	r.POST("/api/pedidos", asUser(&user.User{ID: 7}), createOrderHandler(newStubOrders(), books))

	w := doJSON(t, r, http.MethodPost, "/api/pedidos", gin.H{
		"items": []gin.H{{"id": 999, "quantity": 1, "precio": 10.0}},
		"total": 10.0,
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", w.Code)
	}
	if body := decodeBody(t, w); body["error"] != "El libro con ID 999 no existe" {
		t.Fatalf("body=%v", body)
	}
}

func TestCreateOrder_InsufficientStock(t *testing.T) {
	books, b := catalogWithBook(1)
	store := newStubOrders()
	r := gin.New()
	r.POST("/api/pedidos", asUser(&user.User{ID: 7}), createOrderHandler(store, books))

	w := doJSON(t, r, http.MethodPost, "/api/pedidos", gin.H{
		"items": []gin.H{{"id": b.ID, "quantity": 3, "precio": 8999.90}},
		"total": 26999.70,
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", w.Code)
	}
	body := decodeBody(t, w)
	msg, _ := body["error"].(string)
	if !strings.Contains(msg, "Stock insuficiente") || !strings.Contains(msg, "Rayuela") {
		t.Fatalf("error=%q", msg)
	}
	if len(store.orders) != 0 {
		t.Fatalf("no debía crear el pedido")
	}
}

func TestCreateOrder_EmptyItems(t *testing.T) {
	books, _ := catalogWithBook(5)
	r := gin.New()
	r.POST("/api/pedidos", asUser(&user.User{ID: 7}), createOrderHandler(newStubOrders(), books))

	w := doJSON(t, r, http.MethodPost, "/api/pedidos", gin.H{"items": []gin.H{}, "total": 0})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestListOrders_OnlyOwnOrders(t *testing.T) {
	store := newStubOrders()
	_ = store.Create(nil, &ord.Order{UserID: 7, Total: decimal.New(10, 0), PaymentStatus: ord.StatusPending}, nil)
	_ = store.Create(nil, &ord.Order{UserID: 8, Total: decimal.New(20, 0), PaymentStatus: ord.StatusPending}, nil)

	r := gin.New()
	r.GET("/api/pedidos", asUser(&user.User{ID: 7}), listOrdersHandler(store))

	w := doJSON(t, r, http.MethodGet, "/api/pedidos", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var out []ord.Order
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != 1 || out[0].UserID != 7 {
		t.Fatalf("out=%+v", out)
	}
}

func TestListOrders_IncludesLibroPerItem(t *testing.T) {
	books, b := catalogWithBook(5)
	store := newStubOrders()
	store.books[b.ID] = b
	r := gin.New()
	r.POST("/api/pedidos", asUser(&user.User{ID: 7}), createOrderHandler(store, books))
	r.GET("/api/pedidos", asUser(&user.User{ID: 7}), listOrdersHandler(store))

	w := doJSON(t, r, http.MethodPost, "/api/pedidos", gin.H{
		"items": []gin.H{{"id": b.ID, "quantity": 2, "precio": 8999.90}},
		"total": 17999.80,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create: status=%d body=%s", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodGet, "/api/pedidos", nil)
	var out []ord.Order
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != 1 || len(out[0].Items) != 1 {
		t.Fatalf("out=%+v", out)
	}
	// el listado trae cada ítem con su libro
	libro := out[0].Items[0].Libro
	if libro == nil || libro.Nombre != "Rayuela" || libro.Autor != "Julio Cortázar" {
		t.Fatalf("libro=%+v", libro)
	}
}

func TestAdminListOrders_IncludesUser(t *testing.T) {
	store := newStubOrders()
	store.users[7] = ord.UserSummary{ID: 7, Email: "ana@example.com", Nombre: "Ana"}
	_ = store.Create(nil, &ord.Order{UserID: 7, Total: decimal.New(10, 0), PaymentStatus: ord.StatusPending}, nil)

	r := gin.New()
	r.GET("/api/admin/pedidos", adminListOrdersHandler(store))

	w := doJSON(t, r, http.MethodGet, "/api/admin/pedidos", nil)
	var out []ord.Order
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != 1 || out[0].Usuario == nil {
		t.Fatalf("out=%+v", out)
	}
	if out[0].Usuario.Email != "ana@example.com" || out[0].Usuario.Nombre != "Ana" {
		t.Fatalf("usuario=%+v", out[0].Usuario)
	}
}

func TestOrders_RequireSession(t *testing.T) {
	users := newStubUsers()
	u := users.add("Ana", "ana@example.com", "s3cret", user.RoleUser)
	secret := []byte("test-secret")
	store := newStubOrders()

	r := gin.New()
	r.GET("/api/pedidos", authRequired(users, secret), listOrdersHandler(store))

	// sin token
	w := doJSON(t, r, http.MethodGet, "/api/pedidos", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("sin token: status=%d", w.Code)
	}

	// con Bearer token válido
	token, err := user.IssueToken(secret, u, time.Now())
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	req, _ := http.NewRequest(http.MethodGet, "/api/pedidos", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w2 := performRequest(r, req)
	if w2.Code != http.StatusOK {
		t.Fatalf("con token: status=%d body=%s", w2.Code, w2.Body.String())
	}
}

func TestValidateStock_MixedResults(t *testing.T) {
	books := newStubCatalog()
	cat := books.addCategory("Novela")
	ok := books.addBook(catalog.Book{Nombre: "Rayuela", Autor: "Cortázar", Precio: decimal.New(100, 0), Stock: 5, CategoriaID: cat.ID})
	low := books.addBook(catalog.Book{Nombre: "Ficciones", Autor: "Borges", Precio: decimal.New(100, 0), Stock: 1, CategoriaID: cat.ID})

	r := gin.New()
	r.POST("/api/pedidos/validate-stock", validateStockHandler(books))

	w := doJSON(t, r, http.MethodPost, "/api/pedidos/validate-stock", gin.H{
		"items": []gin.H{
			{"id": ok.ID, "quantity": 2},
			{"id": low.ID, "quantity": 3},
			{"id": 999, "quantity": 1},
		},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var out ord.StockValidationResponse
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Valid {
		t.Fatalf("valid=true con faltantes")
	}
	if out.Message != "Algunos productos no tienen stock suficiente" {
		t.Fatalf("message=%q", out.Message)
	}
	if len(out.Results) != 3 {
		t.Fatalf("results=%d", len(out.Results))
	}
	if !out.Results[0].Valid || out.Results[1].Valid || out.Results[2].Valid {
		t.Fatalf("results=%+v", out.Results)
	}
	if out.Results[2].Error != "Libro no encontrado" {
		t.Fatalf("results[2]=%+v", out.Results[2])
	}
}

func TestValidateStock_AllValid(t *testing.T) {
	books, b := catalogWithBook(5)
	r := gin.New()
	r.POST("/api/pedidos/validate-stock", validateStockHandler(books))

	w := doJSON(t, r, http.MethodPost, "/api/pedidos/validate-stock", gin.H{
		"items": []gin.H{{"id": b.ID, "quantity": 5}},
	})
	var out ord.StockValidationResponse
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !out.Valid || out.Message != "Stock válido para todos los productos" {
		t.Fatalf("out=%+v", out)
	}
}
