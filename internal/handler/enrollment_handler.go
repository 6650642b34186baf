package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/uni-enroll-api/internal/models"
	"github.com/noah-isme/uni-enroll-api/internal/service"
	appErrors "github.com/noah-isme/uni-enroll-api/pkg/errors"
	"github.com/noah-isme/uni-enroll-api/pkg/response"
)

type enrollmentWorkflow interface {
	Open(ctx context.Context, req service.OpenFormRequest) (*models.EnrollmentForm, error)
	SelectSubjects(ctx context.Context, formID string, req service.SelectSubjectsRequest) (*service.SelectSubjectsResult, error)
	Submit(ctx context.Context, formID, signatureIdentity string) (*models.EnrollmentForm, error)
	TutorSign(ctx context.Context, formID, signatureIdentity string) (*models.EnrollmentForm, error)
	TutorReject(ctx context.Context, formID, reason string) (*models.EnrollmentForm, error)
	ManagerApprove(ctx context.Context, formID, notes string) (*models.EnrollmentForm, error)
	ManagerReject(ctx context.Context, formID, reason string) (*models.EnrollmentForm, error)
	Get(ctx context.Context, formID string) (*models.EnrollmentForm, error)
	List(ctx context.Context, filter models.FormFilter) ([]models.FormSummary, *models.Pagination, error)
	Snapshot(ctx context.Context, formID string) (*models.FormSnapshot, error)
}

// SignatureRequest carries a signature identity for submit/sign actions.
type SignatureRequest struct {
	Signature string `json:"signature"`
}

// ReasonRequest carries a mandatory rejection reason or optional notes.
type ReasonRequest struct {
	Reason string `json:"reason"`
	Notes  string `json:"notes"`
}

// EnrollmentHandler exposes enrollment form endpoints.
type EnrollmentHandler struct {
	forms enrollmentWorkflow
}

// NewEnrollmentHandler constructs EnrollmentHandler.
func NewEnrollmentHandler(forms enrollmentWorkflow) *EnrollmentHandler {
	return &EnrollmentHandler{forms: forms}
}

// Open godoc
// @Summary Open an enrollment form
// @Tags Forms
// @Accept json
// @Produce json
// @Param payload body service.OpenFormRequest true "Open form payload"
// @Success 201 {object} response.Envelope
// @Router /forms [post]
func (h *EnrollmentHandler) Open(c *gin.Context) {
	var req service.OpenFormRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	form, err := h.forms.Open(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, form)
}

// SelectSubjects godoc
// @Summary Add subjects to a form
// @Tags Forms
// @Accept json
// @Produce json
// @Param id path string true "Form ID"
// @Param payload body service.SelectSubjectsRequest true "Selection payload"
// @Success 200 {object} response.Envelope
// @Router /forms/{id}/subjects [post]
func (h *EnrollmentHandler) SelectSubjects(c *gin.Context) {
	var req service.SelectSubjectsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.forms.SelectSubjects(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Submit godoc
// @Summary Submit a form with the student's signature
// @Tags Forms
// @Accept json
// @Produce json
// @Param id path string true "Form ID"
// @Param payload body SignatureRequest true "Signature payload"
// @Success 200 {object} response.Envelope
// @Router /forms/{id}/submit [post]
func (h *EnrollmentHandler) Submit(c *gin.Context) {
	var req SignatureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	form, err := h.forms.Submit(c.Request.Context(), c.Param("id"), req.Signature)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"status": form.Status}, nil)
}

// TutorSign godoc
// @Summary Tutor signs a submitted form
// @Tags Forms
// @Accept json
// @Produce json
// @Param id path string true "Form ID"
// @Param payload body SignatureRequest true "Signature payload"
// @Success 200 {object} response.Envelope
// @Router /forms/{id}/tutor-sign [post]
func (h *EnrollmentHandler) TutorSign(c *gin.Context) {
	var req SignatureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	form, err := h.forms.TutorSign(c.Request.Context(), c.Param("id"), req.Signature)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, form, nil)
}

// TutorReject godoc
// @Summary Tutor rejects a submitted form
// @Tags Forms
// @Accept json
// @Produce json
// @Param id path string true "Form ID"
// @Param payload body ReasonRequest true "Reason payload"
// @Success 200 {object} response.Envelope
// @Router /forms/{id}/tutor-reject [post]
func (h *EnrollmentHandler) TutorReject(c *gin.Context) {
	var req ReasonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	form, err := h.forms.TutorReject(c.Request.Context(), c.Param("id"), req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, form, nil)
}

// ManagerApprove godoc
// @Summary Manager approves a tutor-approved form
// @Tags Forms
// @Accept json
// @Produce json
// @Param id path string true "Form ID"
// @Param payload body ReasonRequest true "Notes payload"
// @Success 200 {object} response.Envelope
// @Router /forms/{id}/manager-approve [post]
func (h *EnrollmentHandler) ManagerApprove(c *gin.Context) {
	var req ReasonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	form, err := h.forms.ManagerApprove(c.Request.Context(), c.Param("id"), req.Notes)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, form, nil)
}

// ManagerReject godoc
// @Summary Manager rejects a tutor-approved form
// @Tags Forms
// @Accept json
// @Produce json
// @Param id path string true "Form ID"
// @Param payload body ReasonRequest true "Reason payload"
// @Success 200 {object} response.Envelope
// @Router /forms/{id}/manager-reject [post]
func (h *EnrollmentHandler) ManagerReject(c *gin.Context) {
	var req ReasonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	form, err := h.forms.ManagerReject(c.Request.Context(), c.Param("id"), req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, form, nil)
}

// Get godoc
// @Summary Get one form with its subjects
// @Tags Forms
// @Produce json
// @Param id path string true "Form ID"
// @Success 200 {object} response.Envelope
// @Router /forms/{id} [get]
func (h *EnrollmentHandler) Get(c *gin.Context) {
	form, err := h.forms.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, form, nil)
}

// List godoc
// @Summary List forms by status
// @Tags Forms
// @Produce json
// @Param status query string false "Filter by status"
// @Param studentId query string false "Filter by student"
// @Param degreeId query string false "Filter by degree"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /forms [get]
func (h *EnrollmentHandler) List(c *gin.Context) {
	var filter models.FormFilter
	filter.Status = models.FormStatus(strings.ToUpper(c.Query("status")))
	filter.StudentID = c.Query("studentId")
	filter.DegreeID = c.Query("degreeId")
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	summaries, pagination, err := h.forms.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summaries, pagination)
}

// Snapshot godoc
// @Summary Finalized form snapshot for document generation
// @Tags Forms
// @Produce json
// @Param id path string true "Form ID"
// @Success 200 {object} response.Envelope
// @Router /forms/{id}/snapshot [get]
func (h *EnrollmentHandler) Snapshot(c *gin.Context) {
	snapshot, err := h.forms.Snapshot(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, snapshot, nil)
}
