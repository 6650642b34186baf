package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/uni-enroll-api/internal/models"
	"github.com/noah-isme/uni-enroll-api/internal/service"
	appErrors "github.com/noah-isme/uni-enroll-api/pkg/errors"
)

type feeWorkflowMock struct {
	submitResp       *models.FeeVerification
	submitErr        error
	getResp          *models.FeeVerification
	getErr           error
	transitionResp   *models.FeeVerification
	transitionErr    error
	lastTransitionID string
	lastDecision     service.FeeDecisionRequest
	submitCalled     bool
	transitionCalled bool
}

func (m *feeWorkflowMock) Submit(ctx context.Context, req service.SubmitFeeRequest) (*models.FeeVerification, error) {
	m.submitCalled = true
	return m.submitResp, m.submitErr
}

func (m *feeWorkflowMock) Get(ctx context.Context, id string) (*models.FeeVerification, error) {
	return m.getResp, m.getErr
}

func (m *feeWorkflowMock) Transition(ctx context.Context, id string, req service.FeeDecisionRequest) (*models.FeeVerification, error) {
	m.transitionCalled = true
	m.lastTransitionID = id
	m.lastDecision = req
	return m.transitionResp, m.transitionErr
}

func TestFeeHandlerSubmit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &feeWorkflowMock{
		submitResp: &models.FeeVerification{ID: "fee-1", Status: models.FeeStatusPending},
	}
	h := NewFeeHandler(mockSvc)

	payload, _ := json.Marshal(service.SubmitFeeRequest{StudentID: "s1", SemesterPaidFor: 3, Amount: 40000, VoucherRef: "VCH-7781"})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/fees", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	h.Submit(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, mockSvc.submitCalled)
}

func TestFeeHandlerSubmitInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewFeeHandler(&feeWorkflowMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/fees", bytes.NewBufferString(`{"student_id":`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	h.Submit(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFeeHandlerTransitionConflict(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &feeWorkflowMock{transitionErr: appErrors.ErrInvalidTransition}
	h := NewFeeHandler(mockSvc)

	payload, _ := json.Marshal(service.FeeDecisionRequest{Status: models.FeeStatusApproved})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPatch, "/fees/fee-1/status", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "fee-1"}}

	h.Transition(c)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.True(t, mockSvc.transitionCalled)
	assert.Equal(t, "fee-1", mockSvc.lastTransitionID)
	assert.Equal(t, models.FeeStatusApproved, mockSvc.lastDecision.Status)
}

func TestFeeHandlerGetNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewFeeHandler(&feeWorkflowMock{getErr: appErrors.ErrNotFound})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/fees/missing", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "missing"}}

	h.Get(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}
