package lending

import (
	"net/http"
	"strconv"

	"lendhub/internal/authz"
	"lendhub/internal/domain"
	"lendhub/internal/middleware"
	"lendhub/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/requests", h.GetRequests)
	rg.GET("/requests/:id", h.GetRequestByID)
	rg.POST("/requests", h.CreateRequest)

	staff := rg.Group("/", middleware.StaffOrAdmin())
	{
		staff.PUT("/requests/:id/approve", h.ApproveRequest)
		staff.PUT("/requests/:id/reject", h.RejectRequest)
		staff.PUT("/requests/:id/return", h.ReturnRequest)
	}
}

func (h *Handler) GetRequests(c *gin.Context) {
	out, err := h.service.List(c.Request.Context(), middleware.IdentityFrom(c), c.Query("status"))
	if err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, out)
}

func (h *Handler) GetRequestByID(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}

	out, err := h.service.Get(c.Request.Context(), middleware.IdentityFrom(c), id)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, out)
}

func (h *Handler) CreateRequest(c *gin.Context) {
	var req CreateRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Equipment ID, start date, and end date are required")
		return
	}

	id := middleware.IdentityFrom(c)
	r, err := h.service.Create(c.Request.Context(), id, req)
	if err != nil {
		handleError(c, err)
		return
	}

	out, err := h.service.Get(c.Request.Context(), id, r.ID)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, out)
}

func (h *Handler) ApproveRequest(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}

	actor := middleware.IdentityFrom(c)
	r, err := h.service.Approve(c.Request.Context(), actor, id)
	if err != nil {
		handleError(c, err)
		return
	}

	h.respondWithDetails(c, actor, r.ID)
}

func (h *Handler) RejectRequest(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}

	actor := middleware.IdentityFrom(c)
	r, err := h.service.Reject(c.Request.Context(), actor, id)
	if err != nil {
		handleError(c, err)
		return
	}

	h.respondWithDetails(c, actor, r.ID)
}

func (h *Handler) ReturnRequest(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}

	actor := middleware.IdentityFrom(c)
	r, err := h.service.MarkReturned(c.Request.Context(), actor, id)
	if err != nil {
		handleError(c, err)
		return
	}

	h.respondWithDetails(c, actor, r.ID)
}

func (h *Handler) respondWithDetails(c *gin.Context, actor domain.Identity, requestID int64) {
	out, err := h.service.Get(c.Request.Context(), actor, requestID)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, out)
}

func requestID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid request ID")
		return 0, false
	}
	return id, true
}

func handleError(c *gin.Context, err error) {
	switch err {
	case ErrValidation:
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request dates")
	case ErrNotFound:
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Request not found")
	case ErrEquipmentMissing:
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Equipment not found")
	case ErrStateConflict:
		response.Error(c, http.StatusConflict, "STATE_CONFLICT", "Request is not in a valid state for this action")
	case ErrCapacityConflict:
		response.Error(c, http.StatusConflict, "CAPACITY_CONFLICT", "Equipment not available for the selected dates")
	case ErrLockTimeout:
		response.Error(c, http.StatusServiceUnavailable, "BUSY", "Equipment is busy, try again")
	case authz.ErrForbidden:
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "Access denied: insufficient permissions")
	default:
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Request operation failed")
	}
}
