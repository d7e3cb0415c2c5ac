// Package api exposes a small read-only HTTP view of the catalog, for
// storefront pages that want the listings without talking to Telegram.
package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/zensof/telegram-shop-bot/internal/store"
)

// Server serves the product read API.
type Server struct {
	products store.ProductStore
	engine   *gin.Engine
}

func NewServer(products store.ProductStore) *Server {
	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		products: products,
		engine:   gin.New(),
	}
	s.engine.Use(gin.Recovery())

	api := s.engine.Group("/api")
	api.GET("/products", s.listProducts)
	api.GET("/products/:id", s.getProduct)
	return s
}

// Handler returns the http.Handler for mounting or testing.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) listProducts(c *gin.Context) {
	products, err := s.products.FindActive(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to list products")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if products == nil {
		products = []store.Product{}
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

func (s *Server) getProduct(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
		return
	}

	product, err := s.products.FindActiveByID(c.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}
	if err != nil {
		log.Error().Err(err).Str("productId", id.Hex()).Msg("failed to fetch product")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, product)
}
