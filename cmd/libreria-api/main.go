package main

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/libroverso/libreria-api/docs"
	"github.com/libroverso/libreria-api/internal/catalog"
	"github.com/libroverso/libreria-api/internal/config"
	"github.com/libroverso/libreria-api/internal/httpx"
	"github.com/libroverso/libreria-api/internal/metrics"
	ord "github.com/libroverso/libreria-api/internal/order"
	"github.com/libroverso/libreria-api/internal/payment"
	"github.com/libroverso/libreria-api/internal/push"
	"github.com/libroverso/libreria-api/internal/user"
)

// @title Libreria API
// @version 1.0
// @description Storefront, admin and payment reconciliation backend for the bookstore.
// @BasePath /api
func main() {
	log.SetFormatter(&log.JSONFormatter{})
	log.SetLevel(log.InfoLevel)

	cfg := config.Load()

	pool, err := pgxpool.New(context.Background(), cfg.PostgresDSN)
	if err != nil {
		log.WithError(err).Fatal("unable to connect to database")
	}
	defer pool.Close()

	books := catalog.NewPGRepo(pool)
	users := user.NewPGRepo(pool)
	orders := ord.NewPGRepo(pool)
	subs := push.NewPGRepo(pool)

	gateway := payment.NewClient(cfg.GatewayBaseURL, cfg.GatewayToken)
	reconciler := ord.NewReconciler(gateway, orders)
	sender := push.NewSender(subs, cfg.VAPIDPublicKey, cfg.VAPIDPrivateKey, cfg.VAPIDSubject)

	secret := []byte(cfg.JWTSecret)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), httpx.RequestID(), httpx.Logger(), metrics.Middleware())

	r.GET("/healthz", func(c *gin.Context) { c.String(200, "ok") })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api")

	// storefront
	api.POST("/auth/register", registerHandler(users))
	api.POST("/auth/login", loginHandler(users, secret))
	api.GET("/libros", listBooksHandler(books))
	api.GET("/libros/:id", getBookHandler(books))
	api.POST("/pedidos/validate-stock", validateStockHandler(books))
	api.POST("/payments/preference", createPreferenceHandler(gateway, cfg.PublicBaseURL))
	api.POST("/payments/webhook", paymentWebhookHandler(reconciler))

	// push subscriptions
	api.GET("/push/subscribe", pushPublicKeyHandler(cfg.VAPIDPublicKey))
	api.POST("/push/subscribe", pushSubscribeHandler(subs))
	api.DELETE("/push/subscribe", pushUnsubscribeHandler(subs))

	// session required
	authed := api.Group("", authRequired(users, secret))
	authed.GET("/pedidos", listOrdersHandler(orders))
	authed.POST("/pedidos", createOrderHandler(orders, books))

	// admin panel
	admin := api.Group("", adminRequired(users, secret))
	admin.GET("/categorias", listCategoriesHandler(books))
	admin.POST("/categorias", createCategoryHandler(books))
	admin.GET("/admin/books", adminListBooksHandler(books))
	admin.POST("/admin/books", createBookHandler(books))
	admin.PUT("/admin/books/:id", updateBookHandler(books))
	admin.DELETE("/admin/books/:id", deleteBookHandler(books))
	admin.GET("/admin/pedidos", adminListOrdersHandler(orders))
	admin.GET("/push/stats", pushStatsHandler(subs))
	admin.POST("/push/send", pushSendHandler(sender, subs))

	log.WithField("addr", cfg.HTTPAddr).Info("libreria-api listening")
	if err := r.Run(cfg.HTTPAddr); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}
