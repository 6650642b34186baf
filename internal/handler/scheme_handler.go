package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/uni-enroll-api/internal/models"
	"github.com/noah-isme/uni-enroll-api/internal/service"
	appErrors "github.com/noah-isme/uni-enroll-api/pkg/errors"
	"github.com/noah-isme/uni-enroll-api/pkg/response"
)

type schemeCatalog interface {
	CreateScheme(ctx context.Context, req service.CreateSchemeRequest) (*models.Scheme, error)
	UpdateScheme(ctx context.Context, id string, req service.UpdateSchemeRequest) (*models.Scheme, error)
	Deactivate(ctx context.Context, id string) error
	LookupSubjects(ctx context.Context, degreeID, sessionLabel string, semester int) (*models.SemesterSubjects, error)
}

// SchemeHandler exposes scheme catalog endpoints.
type SchemeHandler struct {
	schemes schemeCatalog
}

// NewSchemeHandler constructs SchemeHandler.
func NewSchemeHandler(schemes schemeCatalog) *SchemeHandler {
	return &SchemeHandler{schemes: schemes}
}

// Create godoc
// @Summary Create a scheme
// @Tags Schemes
// @Accept json
// @Produce json
// @Param payload body service.CreateSchemeRequest true "Scheme payload"
// @Success 201 {object} response.Envelope
// @Router /schemes [post]
func (h *SchemeHandler) Create(c *gin.Context) {
	var req service.CreateSchemeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	scheme, err := h.schemes.CreateScheme(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, scheme)
}

// Update godoc
// @Summary Replace a scheme's semester plans
// @Tags Schemes
// @Accept json
// @Produce json
// @Param id path string true "Scheme ID"
// @Param payload body service.UpdateSchemeRequest true "Plans payload"
// @Success 200 {object} response.Envelope
// @Router /schemes/{id} [put]
func (h *SchemeHandler) Update(c *gin.Context) {
	var req service.UpdateSchemeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	scheme, err := h.schemes.UpdateScheme(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, scheme, nil)
}

// Deactivate godoc
// @Summary Soft-deactivate a scheme
// @Tags Schemes
// @Param id path string true "Scheme ID"
// @Success 204 "No Content"
// @Router /schemes/{id} [delete]
func (h *SchemeHandler) Deactivate(c *gin.Context) {
	if err := h.schemes.Deactivate(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// LookupSubjects godoc
// @Summary List subjects offered in one semester
// @Tags Schemes
// @Produce json
// @Param degree query string true "Degree ID"
// @Param session query string true "Session label"
// @Param semester query int true "Semester number"
// @Success 200 {object} response.Envelope
// @Router /schemes/subjects [get]
func (h *SchemeHandler) LookupSubjects(c *gin.Context) {
	semester, err := strconv.Atoi(c.Query("semester"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "semester must be an integer"))
		return
	}
	result, err := h.schemes.LookupSubjects(c.Request.Context(), c.Query("degree"), c.Query("session"), semester)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
