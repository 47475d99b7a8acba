package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/NayeyYe/BookManage/internal/database/books"
	"github.com/NayeyYe/BookManage/internal/entities"
)

type BooksController struct {
	store BookStore
}

func NewBooksController(store BookStore) *BooksController {
	return &BooksController{
		store: store,
	}
}

type bookRequest struct {
	BookID          string   `json:"book_id"`
	Title           string   `json:"title" binding:"required,max=512"`
	ISBN            string   `json:"isbn" binding:"max=32"`
	PublisherID     *string  `json:"publisher_id"`
	PublicationYear int      `json:"publication_year" binding:"gte=0,lte=9999"`
	TotalStock      int      `json:"total_stock" binding:"gte=0"`
	CurrentStock    *int     `json:"current_stock"`
	Location        string   `json:"location" binding:"max=128"`
	Authors         []string `json:"authors"`
}

func (controller *BooksController) ListBooks(c *gin.Context) {
	list, err := controller.store.ListBooks(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "list books")
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{"books": list, "count": len(list)})
}

func (controller *BooksController) GetBook(c *gin.Context) {
	book, err := controller.store.GetBook(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondDomainError(c, err, "get book")
		return
	}
	c.IndentedJSON(http.StatusOK, book)
}

// SearchBooks serves both /search/:query and /search?q=.
func (controller *BooksController) SearchBooks(c *gin.Context) {
	query := c.Param("query")
	if query == "" {
		query = c.Query("q")
	}
	query = strings.TrimSpace(query)
	if query == "" {
		respondBadRequest(c, "search query is required")
		return
	}

	results, err := controller.store.SearchBooks(c.Request.Context(), query)
	if err != nil {
		respondInternalError(c, err, "search books")
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{"books": results, "count": len(results), "query": query})
}

func (controller *BooksController) CreateBook(c *gin.Context) {
	var req bookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}
	bookID := strings.TrimSpace(req.BookID)
	if bookID == "" {
		respondBadRequest(c, "book_id is required")
		return
	}

	currentStock := req.TotalStock
	if req.CurrentStock != nil {
		currentStock = *req.CurrentStock
	}

	book := &entities.Book{
		BookID:          bookID,
		Title:           strings.TrimSpace(req.Title),
		ISBN:            strings.TrimSpace(req.ISBN),
		PublisherID:     req.PublisherID,
		PublicationYear: req.PublicationYear,
		TotalStock:      req.TotalStock,
		CurrentStock:    currentStock,
		Location:        req.Location,
	}
	if err := controller.store.CreateBook(c.Request.Context(), book, req.Authors); err != nil {
		respondDomainError(c, err, "create book")
		return
	}

	created, err := controller.store.GetBook(c.Request.Context(), book.BookID)
	if err != nil {
		respondInternalError(c, err, "reload book")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "book created", "book": created})
}

func (controller *BooksController) UpdateBook(c *gin.Context) {
	var req bookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	updated, err := controller.store.UpdateBook(c.Request.Context(), c.Param("id"), books.BookUpdate{
		Title:           strings.TrimSpace(req.Title),
		ISBN:            strings.TrimSpace(req.ISBN),
		PublisherID:     req.PublisherID,
		PublicationYear: req.PublicationYear,
		TotalStock:      req.TotalStock,
		Location:        req.Location,
		Authors:         req.Authors,
	})
	if err != nil {
		respondDomainError(c, err, "update book")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "book updated", "book": updated})
}

func (controller *BooksController) DeleteBook(c *gin.Context) {
	if err := controller.store.DeleteBook(c.Request.Context(), c.Param("id")); err != nil {
		respondDomainError(c, err, "delete book")
		return
	}
	respondSuccess(c, "book deleted")
}
