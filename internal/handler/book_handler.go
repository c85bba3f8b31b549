package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shelfwise/bookstore/internal/cqrs"
	"github.com/shelfwise/bookstore/internal/middleware"
	"github.com/shelfwise/bookstore/internal/models"
)

// BookCommander defines the write-side operations used by BookHandler.
type BookCommander interface {
	CreateBook(context.Context, cqrs.CreateBookCommand) (*models.Book, error)
	UpdateBook(context.Context, cqrs.UpdateBookCommand) (*models.Book, error)
	DeleteBook(context.Context, cqrs.DeleteBookCommand) (*models.Book, error)
}

// BookQuerier defines the read-side operations used by BookHandler.
type BookQuerier interface {
	ListBooks(context.Context, cqrs.ListBooksQuery) ([]models.Book, error)
	GetBook(context.Context, cqrs.GetBookQuery) (*models.Book, error)
}

type BookHandler struct {
	commands BookCommander
	queries  BookQuerier
	log      *slog.Logger
}

// CreateBookRequest has no user field; the owner comes from the token.
type CreateBookRequest struct {
	Title       string          `json:"title" validate:"required"`
	Description string          `json:"description" validate:"required"`
	Author      string          `json:"author" validate:"required"`
	Price       *float64        `json:"price" validate:"required,gte=0"`
	Category    models.Category `json:"category" validate:"required,oneof=Adventure Classics Crime Fantasy"`
}

func NewBookHandler(commands BookCommander, queries BookQuerier, log *slog.Logger) *BookHandler {
	if log == nil {
		log = slog.Default()
	}
	return &BookHandler{commands: commands, queries: queries, log: log}
}

// ListBooks accepts optional limit, page and keyword query parameters.
func (h *BookHandler) ListBooks(c *gin.Context) {
	books, err := h.queries.ListBooks(c.Request.Context(), cqrs.ListBooksQuery{
		Limit:   c.Query("limit"),
		Page:    c.Query("page"),
		Keyword: c.Query("keyword"),
	})
	if err != nil {
		middleware.RespondWithAppError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, books)
}

func (h *BookHandler) GetBook(c *gin.Context) {
	book, err := h.queries.GetBook(c.Request.Context(), cqrs.GetBookQuery{BookID: c.Param("id")})
	if err != nil {
		middleware.RespondWithAppError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, book)
}

func (h *BookHandler) CreateBook(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		middleware.RespondWithError(c, http.StatusUnauthorized, "Authorization header required")
		return
	}

	var req CreateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	book, err := h.commands.CreateBook(c.Request.Context(), cqrs.CreateBookCommand{
		Book: models.Book{
			Title:       req.Title,
			Description: req.Description,
			Author:      req.Author,
			Price:       *req.Price,
			Category:    req.Category,
		},
		UserID: userID,
	})
	if err != nil {
		middleware.RespondWithAppError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, book)
}

// UpdateBook applies a partial update; omitted fields keep their values.
func (h *BookHandler) UpdateBook(c *gin.Context) {
	var patch models.BookPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if validationErrors := middleware.ValidateRequest(patch); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	book, err := h.commands.UpdateBook(c.Request.Context(), cqrs.UpdateBookCommand{
		BookID: c.Param("id"),
		Patch:  patch,
	})
	if err != nil {
		middleware.RespondWithAppError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, book)
}

func (h *BookHandler) DeleteBook(c *gin.Context) {
	book, err := h.commands.DeleteBook(c.Request.Context(), cqrs.DeleteBookCommand{BookID: c.Param("id")})
	if err != nil {
		middleware.RespondWithAppError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, book)
}
