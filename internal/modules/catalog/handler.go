package catalog

import (
	"net/http"
	"strconv"

	"lendhub/internal/authz"
	"lendhub/internal/middleware"
	"lendhub/internal/pkg/response"
	"lendhub/internal/pkg/validator"
	"lendhub/internal/repository"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	// static segment first so gin does not swallow it as an :id
	rg.GET("/equipment/categories", h.GetCategories)
	rg.GET("/equipment", h.GetEquipment)
	rg.GET("/equipment/:id", h.GetEquipmentByID)

	admin := rg.Group("/", middleware.AdminOnly())
	{
		admin.POST("/equipment", h.CreateEquipment)
		admin.PUT("/equipment/:id", h.UpdateEquipment)
		admin.DELETE("/equipment/:id", h.DeleteEquipment)
	}
}

func (h *Handler) GetEquipment(c *gin.Context) {
	f := repository.EquipmentFilters{
		Category: c.Query("category"),
		Search:   c.Query("search"),
	}

	items, err := h.service.List(c.Request.Context(), middleware.IdentityFrom(c), f)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, items)
}

func (h *Handler) GetEquipmentByID(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid equipment ID")
		return
	}

	item, err := h.service.Get(c.Request.Context(), middleware.IdentityFrom(c), id)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, item)
}

func (h *Handler) GetCategories(c *gin.Context) {
	cats, err := h.service.Categories(c.Request.Context(), middleware.IdentityFrom(c))
	if err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, cats)
}

func (h *Handler) CreateEquipment(c *gin.Context) {
	var req EquipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if errs := validator.Validate(req); errs != nil {
		response.ValidationError(c, errs)
		return
	}

	id := middleware.IdentityFrom(c)
	e, err := h.service.Create(c.Request.Context(), id, req)
	if err != nil {
		handleError(c, err)
		return
	}

	out, err := h.service.Get(c.Request.Context(), id, e.ID)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, out)
}

func (h *Handler) UpdateEquipment(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid equipment ID")
		return
	}

	var req EquipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if errs := validator.Validate(req); errs != nil {
		response.ValidationError(c, errs)
		return
	}

	actor := middleware.IdentityFrom(c)
	e, err := h.service.Update(c.Request.Context(), actor, id, req)
	if err != nil {
		handleError(c, err)
		return
	}

	out, err := h.service.Get(c.Request.Context(), actor, e.ID)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, out)
}

func (h *Handler) DeleteEquipment(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid equipment ID")
		return
	}

	if err := h.service.Delete(c.Request.Context(), middleware.IdentityFrom(c), id); err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

func handleError(c *gin.Context, err error) {
	switch err {
	case ErrValidation:
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid equipment fields")
	case ErrNotFound:
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Equipment not found")
	case ErrInUse:
		response.Error(c, http.StatusConflict, "EQUIPMENT_IN_USE", "Equipment has outstanding borrow requests")
	case authz.ErrForbidden:
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "Access denied: insufficient permissions")
	default:
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Equipment operation failed")
	}
}
