package server

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ugur10/go-bookshelf/internal/books"
	"github.com/ugur10/go-bookshelf/internal/metrics"
)

// Operation names used in logs and metrics.
const (
	opAppend = "append"
	opDelete = "delete"
	opMove   = "move"
	opEdit   = "edit"
)

type createRequest struct {
	Title  string `json:"title"`
	Author string `json:"author"`
}

type editRequest struct {
	Field string  `json:"field" binding:"required,oneof=title author"`
	Value *string `json:"value" binding:"required"`
}

type deleteRequest struct {
	Positions []int `json:"positions" binding:"required"`
}

type moveRequest struct {
	From []int `json:"from" binding:"required"`
	To   *int  `json:"to" binding:"required"`
}

type handlers struct {
	repo    books.Repository
	metrics *metrics.Collector
	logger  *slog.Logger
}

func (h *handlers) observe(op string, found bool, err error) {
	if h.metrics != nil {
		h.metrics.ObserveOperation(op, found, err)
	}
}

func healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *handlers) list(c *gin.Context) {
	list, revision, err := h.repo.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Snapshot{Books: list, Revision: revision})
}

func (h *handlers) get(c *gin.Context) {
	id, err := extractID(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}

	book, ok, err := h.repo.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	if !ok {
		notFound(c, id)
		return
	}
	c.JSON(http.StatusOK, book)
}

// create appends a book. An empty body appends the placeholder record.
func (h *handlers) create(c *gin.Context) {
	book, err := readBookPayload(c)
	if err != nil {
		h.observe(opAppend, true, err)
		h.fail(c, err)
		return
	}

	created, err := h.repo.Create(c.Request.Context(), book)
	h.observe(opAppend, true, err)
	if err != nil {
		h.fail(c, err)
		return
	}

	h.logger.Info("book appended", "id", created.ID, "title", created.Title)
	c.JSON(http.StatusCreated, created)
}

func (h *handlers) edit(c *gin.Context) {
	id, err := extractID(c.Param("id"))
	if err != nil {
		h.observe(opEdit, true, err)
		h.fail(c, err)
		return
	}

	var req editRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		err = invalid(err)
		h.observe(opEdit, true, err)
		h.fail(c, err)
		return
	}
	field, err := books.ParseField(req.Field)
	if err != nil {
		h.observe(opEdit, true, err)
		h.fail(c, err)
		return
	}

	book, ok, err := h.repo.Update(c.Request.Context(), id, field, *req.Value)
	h.observe(opEdit, ok, err)
	if err != nil {
		h.fail(c, err)
		return
	}
	if !ok {
		notFound(c, id)
		return
	}

	h.logger.Info("book edited", "id", id, "field", field)
	c.JSON(http.StatusOK, book)
}

func (h *handlers) remove(c *gin.Context) {
	var req deleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		err = invalid(err)
		h.observe(opDelete, true, err)
		h.fail(c, err)
		return
	}

	list, revision, err := h.repo.Delete(c.Request.Context(), req.Positions)
	h.observe(opDelete, true, err)
	if err != nil {
		h.fail(c, err)
		return
	}

	h.logger.Info("books deleted", "positions", req.Positions)
	c.JSON(http.StatusOK, Snapshot{Books: list, Revision: revision})
}

func (h *handlers) move(c *gin.Context) {
	var req moveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		err = invalid(err)
		h.observe(opMove, true, err)
		h.fail(c, err)
		return
	}

	list, revision, err := h.repo.Move(c.Request.Context(), req.From, *req.To)
	h.observe(opMove, true, err)
	if err != nil {
		h.fail(c, err)
		return
	}

	h.logger.Info("books moved", "from", req.From, "to", *req.To)
	c.JSON(http.StatusOK, Snapshot{Books: list, Revision: revision})
}

func (h *handlers) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, books.ErrInvalidArgument):
		status = http.StatusBadRequest
	case errors.Is(err, books.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, books.ErrDuplicateID):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", "path", c.FullPath(), "error", err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

func notFound(c *gin.Context, id uuid.UUID) {
	c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("%s: %s", books.ErrNotFound, id)})
}

func invalid(err error) error {
	return fmt.Errorf("%w: %v", books.ErrInvalidArgument, err)
}

func extractID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: malformed id %q", books.ErrInvalidArgument, raw)
	}
	return id, nil
}

// readBookPayload decodes an optional create request. A missing or empty
// body yields the placeholder book.
func readBookPayload(c *gin.Context) (books.Book, error) {
	if c.Request.Body == nil {
		return books.NewPlaceholderBook(), nil
	}

	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return books.NewPlaceholderBook(), nil
		}
		return books.Book{}, invalid(err)
	}
	return books.NewBook(req.Title, req.Author), nil
}
