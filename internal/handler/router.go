package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shelfwise/bookstore/internal/middleware"
)

type RouterDeps struct {
	Auth    *AuthHandler
	Books   *BookHandler
	Tokens  middleware.TokenParser
	Metrics *middleware.Metrics
	// Limiter guards /auth; nil disables rate limiting.
	Limiter    middleware.RateLimiter
	AuthLimit  int
	AuthWindow time.Duration
	Log        *slog.Logger
}

func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	if deps.Log != nil {
		router.Use(middleware.LoggingMiddleware(deps.Log))
	}
	if deps.Metrics != nil {
		router.Use(deps.Metrics.Middleware())
		router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Hello World!")
	})
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	auth := router.Group("/auth")
	auth.Use(middleware.RateLimit(deps.Limiter, deps.AuthLimit, deps.AuthWindow, deps.Metrics))
	{
		auth.POST("/signup", deps.Auth.SignUp)
		auth.POST("/login", deps.Auth.Login)
	}

	books := router.Group("/books")
	{
		books.GET("", deps.Books.ListBooks)
		books.GET("/:id", deps.Books.GetBook)

		protected := books.Group("")
		protected.Use(middleware.AuthMiddleware(deps.Tokens))
		protected.POST("", deps.Books.CreateBook)
		protected.PUT("/:id", deps.Books.UpdateBook)
		protected.DELETE("/:id", deps.Books.DeleteBook)
	}

	return router
}
