package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/uni-enroll-api/internal/models"
	"github.com/noah-isme/uni-enroll-api/internal/service"
	appErrors "github.com/noah-isme/uni-enroll-api/pkg/errors"
	"github.com/noah-isme/uni-enroll-api/pkg/response"
)

type feeWorkflow interface {
	Submit(ctx context.Context, req service.SubmitFeeRequest) (*models.FeeVerification, error)
	Get(ctx context.Context, id string) (*models.FeeVerification, error)
	Transition(ctx context.Context, id string, req service.FeeDecisionRequest) (*models.FeeVerification, error)
}

// FeeHandler exposes fee verification endpoints.
type FeeHandler struct {
	fees feeWorkflow
}

// NewFeeHandler constructs FeeHandler.
func NewFeeHandler(fees feeWorkflow) *FeeHandler {
	return &FeeHandler{fees: fees}
}

// Submit godoc
// @Summary Submit a fee verification
// @Tags Fees
// @Accept json
// @Produce json
// @Param payload body service.SubmitFeeRequest true "Submission payload"
// @Success 201 {object} response.Envelope
// @Router /fees [post]
func (h *FeeHandler) Submit(c *gin.Context) {
	var req service.SubmitFeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	fee, err := h.fees.Submit(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, fee)
}

// Get godoc
// @Summary Get fee verification status
// @Tags Fees
// @Produce json
// @Param id path string true "Fee verification ID"
// @Success 200 {object} response.Envelope
// @Router /fees/{id} [get]
func (h *FeeHandler) Get(c *gin.Context) {
	fee, err := h.fees.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, fee, nil)
}

// Transition godoc
// @Summary Apply an office decision
// @Tags Fees
// @Accept json
// @Produce json
// @Param id path string true "Fee verification ID"
// @Param payload body service.FeeDecisionRequest true "Decision payload"
// @Success 200 {object} response.Envelope
// @Router /fees/{id}/status [patch]
func (h *FeeHandler) Transition(c *gin.Context) {
	var req service.FeeDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	fee, err := h.fees.Transition(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, fee, nil)
}
