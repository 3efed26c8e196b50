package handler

import (
	"errors"
	"net/http"

	"library-backend/internal/domains/lending/model"
	"library-backend/internal/domains/lending/service"
	"library-backend/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// LendingHandler handles HTTP requests for the lending domain
type LendingHandler struct {
	service service.ServiceInterface
	banner  string
}

// NewLendingHandler creates a new lending handler instance.
// banner is the body of GET /.
func NewLendingHandler(svc service.ServiceInterface, banner string) *LendingHandler {
	return &LendingHandler{
		service: svc,
		banner:  banner,
	}
}

// Home handles GET /
func (h *LendingHandler) Home(c *gin.Context) {
	err := h.service.EnsureCatalog(c.Request.Context())
	if err != nil && !errors.Is(err, model.ErrUninitializedStore) {
		h.handleError(c, err)
		return
	}

	response.Text(c, http.StatusOK, h.banner)
}

// ListBooks handles GET /list-book
func (h *LendingHandler) ListBooks(c *gin.Context) {
	books, err := h.service.ListAvailableBooks(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.JSON(c, http.StatusOK, books)
}

// ListMembers handles GET /list-member
func (h *LendingHandler) ListMembers(c *gin.Context) {
	members, err := h.service.ListMembers(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.JSON(c, http.StatusOK, members)
}

// Checkout handles POST /checkout
func (h *LendingHandler) Checkout(c *gin.Context) {
	req := bindLendingRequest(c)

	result, err := h.service.Checkout(c.Request.Context(), req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Text(c, http.StatusOK, result.Message())
}

// Return handles POST /return
func (h *LendingHandler) Return(c *gin.Context) {
	req := bindLendingRequest(c)

	result, err := h.service.Return(c.Request.Context(), req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Text(c, http.StatusOK, result.Message())
}

// bindLendingRequest accepts JSON and urlencoded bodies. A body that does
// not bind leaves the fields empty, which validation then reports.
func bindLendingRequest(c *gin.Context) model.LendingRequest {
	var req model.LendingRequest
	if err := c.ShouldBind(&req); err != nil {
		log.Debug().
			Err(err).
			Str("request_id", c.GetString("request_id")).
			Msg("[LENDING] Request body did not bind")
	}
	return req
}

func (h *LendingHandler) handleError(c *gin.Context, err error) {
	if errors.Is(err, model.ErrValidation) {
		response.JSON(c, http.StatusBadRequest, model.ValidationErrorResponse{
			Errors: model.ToFieldErrors(err),
		})
		return
	}

	status, message := model.MapErrorToHTTP(err)
	if status == http.StatusInternalServerError {
		log.Error().
			Err(err).
			Str("request_id", c.GetString("request_id")).
			Str("path", c.Request.URL.Path).
			Msg("[LENDING] Request failed")
		response.InternalServerError(c, message)
		return
	}

	response.Text(c, status, message)
}
