package httpserver

import (
	"errors"
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"spicegarden-storefront/internal/catalog"
	"spicegarden-storefront/internal/session"
)

// Deps are the collaborators the handlers need.
type Deps struct {
	Catalog      *catalog.Catalog
	Sessions     *session.Registry
	// CORSOrigins enables CORS for a browser shell served elsewhere.
	CORSOrigins  []string
	SecureCookie bool
}

// buildRouter wires routes for the storefront API.
func buildRouter(logger *log.Logger, db *pgxpool.Pool, deps Deps) (*gin.Engine, error) {
	if deps.Catalog == nil || deps.Sessions == nil {
		return nil, errors.New("httpserver: catalog and sessions are required")
	}

	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery())
	if len(deps.CORSOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     deps.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))

	h := &handlers{logger: logger, catalog: deps.Catalog}

	api := router.Group("/api")
	api.GET("/menu/items/:id/quick-order", h.quickOrder)
	api.GET("/faq", h.faqSections)
	api.GET("/faq/:section", h.faq)

	visitor := api.Group("", profileMiddleware(deps.Sessions, deps.SecureCookie))
	visitor.GET("/menu", h.menu)
	visitor.POST("/cart/load", h.loadCart)
	visitor.GET("/cart", h.getCart)
	visitor.DELETE("/cart", h.clearCart)
	visitor.POST("/cart/items", h.addCartItem)
	visitor.PATCH("/cart/items/:id", h.updateCartItem)
	visitor.DELETE("/cart/items/:id", h.removeCartItem)
	visitor.POST("/cart/checkout", h.checkout)

	visitor.GET("/favorites", h.favorites)
	visitor.POST("/favorites/:id", h.toggleFavorite)

	forms := visitor.Group("/forms/:form")
	forms.POST("/open", h.openForm)
	forms.GET("", h.formSnapshot)
	forms.PUT("/fields/:field", h.changeField)
	forms.POST("/fields/:field/blur", h.blurField)
	forms.POST("/submit", h.submitForm)

	return router, nil
}
