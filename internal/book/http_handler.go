package book

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"bookcatalog/internal/httpx"
)

type HTTPHandler struct {
	service *Service
}

func NewHTTPHandler(service *Service) *HTTPHandler {
	return &HTTPHandler{service: service}
}

type bookReq struct {
	Title  string `json:"title" validate:"notblank,max=200"`
	Author string `json:"author" validate:"notblank,max=200"`
	ISBN   string `json:"isbn" validate:"max=32"`
	Year   *int   `json:"year"`
}

func (req bookReq) fields() Fields {
	return Fields{Title: req.Title, Author: req.Author, ISBN: req.ISBN, Year: req.Year}
}

// patchReq fields left out or sent as null keep their stored value.
type patchReq struct {
	Title  *string `json:"title" validate:"omitempty,max=200"`
	Author *string `json:"author" validate:"omitempty,max=200"`
	ISBN   *string `json:"isbn" validate:"omitempty,max=32"`
	Year   *int    `json:"year"`
}

// Health handles GET /health
func (h *HTTPHandler) Health(w http.ResponseWriter, r *http.Request) {
	httpx.JSONSuccess(w, map[string]string{"status": "ok"})
}

// Ready handles GET /readyz
func (h *HTTPHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
	defer cancel()
	if err := h.service.Ping(ctx); err != nil {
		httpx.JSONError(w, r, http.StatusServiceUnavailable, "NOT_READY", "Database not ready", nil)
		return
	}
	httpx.JSONSuccess(w, map[string]string{"status": "ready"})
}

// List handles GET /books
// @Summary List books
// @Description List books, newest first. q searches title, author and isbn; the per-field filters are combined with AND.
// @Tags books
// @Produce json
// @Param q query string false "Free-text search"
// @Param title query string false "Title contains"
// @Param author query string false "Author contains"
// @Param isbn query string false "ISBN contains"
// @Success 200 {array} Book
// @Failure 500 {object} httpx.ErrorResponse
// @Router /books [get]
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	books, err := h.service.List(r.Context(), Query{
		Q:      query.Get("q"),
		Title:  query.Get("title"),
		Author: query.Get("author"),
		ISBN:   query.Get("isbn"),
	})
	if err != nil {
		httpx.JSONInternalError(w, r, "Failed to list books", err)
		return
	}
	httpx.JSONSuccess(w, books)
}

// Get handles GET /books/{id}
// @Summary Get book
// @Tags books
// @Produce json
// @Param id path string true "Book ID"
// @Success 200 {object} Book
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /books/{id} [get]
func (h *HTTPHandler) Get(w http.ResponseWriter, r *http.Request) {
	book, err := h.service.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err, "Failed to get book")
		return
	}
	httpx.JSONSuccess(w, book)
}

// Create handles POST /books
// @Summary Create book
// @Tags books
// @Accept json
// @Produce json
// @Success 201 {object} Book
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 500 {object} httpx.ErrorResponse
// @Router /books [post]
func (h *HTTPHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req bookReq
	if !decodeBody(w, r, &req) {
		return
	}
	if details := httpx.ValidateStruct(req); len(details) > 0 {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid input", details)
		return
	}

	book, err := h.service.Create(r.Context(), req.fields())
	if err != nil {
		writeError(w, r, err, "Failed to create book")
		return
	}
	httpx.JSONSuccessCreated(w, book)
}

// Replace handles PUT /books/{id}
func (h *HTTPHandler) Replace(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req bookReq
	if !decodeBody(w, r, &req) {
		return
	}
	if details := httpx.ValidateStruct(req); len(details) > 0 {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid input", details)
		return
	}

	book, err := h.service.Replace(r.Context(), id, req.fields())
	if err != nil {
		writeError(w, r, err, "Failed to update book")
		return
	}
	httpx.JSONSuccess(w, book)
}

// Patch handles PATCH /books/{id}
func (h *HTTPHandler) Patch(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req patchReq
	if !decodeBody(w, r, &req) {
		return
	}
	if details := httpx.ValidateStruct(req); len(details) > 0 {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid input", details)
		return
	}

	book, err := h.service.Update(r.Context(), id, Patch{
		Title:  req.Title,
		Author: req.Author,
		ISBN:   req.ISBN,
		Year:   req.Year,
	})
	if err != nil {
		writeError(w, r, err, "Failed to update book")
		return
	}
	httpx.JSONSuccess(w, book)
}

// Delete handles DELETE /books/{id}
func (h *HTTPHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err, "Failed to delete book")
		return
	}
	httpx.JSONSuccessNoContent(w)
}

// Seed handles POST /seed. It wipes the collection.
func (h *HTTPHandler) Seed(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Seed(r.Context()); err != nil {
		httpx.JSONInternalError(w, r, "Seed failed", err)
		return
	}
	httpx.JSONSuccessCreated(w, map[string]string{"message": "Seed completed"})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil {
		return true
	}

	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		httpx.JSONError(w, r, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "Request body too large", nil)
		return false
	}
	httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body", nil)
	return false
}

func writeError(w http.ResponseWriter, r *http.Request, err error, message string) {
	var validationErr *ValidationError
	switch {
	case errors.Is(err, ErrInvalidID):
		httpx.JSONError(w, r, http.StatusBadRequest, "INVALID_ID", "Invalid book id", nil)
	case errors.Is(err, ErrNotFound):
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "Book not found", nil)
	case errors.As(err, &validationErr):
		details := make([]httpx.ErrorDetail, 0, len(validationErr.Fields))
		for _, f := range validationErr.Fields {
			details = append(details, httpx.ErrorDetail{Field: f.Field, Message: f.Message})
		}
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid input", details)
	default:
		httpx.JSONInternalError(w, r, message, err)
	}
}
