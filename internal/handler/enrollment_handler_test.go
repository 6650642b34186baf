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

type enrollmentWorkflowMock struct {
	openResp     *models.EnrollmentForm
	openErr      error
	selectResp   *service.SelectSubjectsResult
	selectErr    error
	formResp     *models.EnrollmentForm
	formErr      error
	listResp     []models.FormSummary
	listErr      error
	snapshotResp *models.FormSnapshot
	snapshotErr  error

	lastFormID    string
	lastSignature string
	lastReason    string
	lastFilter    models.FormFilter
}

func (m *enrollmentWorkflowMock) Open(ctx context.Context, req service.OpenFormRequest) (*models.EnrollmentForm, error) {
	return m.openResp, m.openErr
}

func (m *enrollmentWorkflowMock) SelectSubjects(ctx context.Context, formID string, req service.SelectSubjectsRequest) (*service.SelectSubjectsResult, error) {
	m.lastFormID = formID
	return m.selectResp, m.selectErr
}

func (m *enrollmentWorkflowMock) Submit(ctx context.Context, formID, signatureIdentity string) (*models.EnrollmentForm, error) {
	m.lastFormID = formID
	m.lastSignature = signatureIdentity
	return m.formResp, m.formErr
}

func (m *enrollmentWorkflowMock) TutorSign(ctx context.Context, formID, signatureIdentity string) (*models.EnrollmentForm, error) {
	m.lastFormID = formID
	m.lastSignature = signatureIdentity
	return m.formResp, m.formErr
}

func (m *enrollmentWorkflowMock) TutorReject(ctx context.Context, formID, reason string) (*models.EnrollmentForm, error) {
	m.lastFormID = formID
	m.lastReason = reason
	return m.formResp, m.formErr
}

func (m *enrollmentWorkflowMock) ManagerApprove(ctx context.Context, formID, notes string) (*models.EnrollmentForm, error) {
	m.lastFormID = formID
	m.lastReason = notes
	return m.formResp, m.formErr
}

func (m *enrollmentWorkflowMock) ManagerReject(ctx context.Context, formID, reason string) (*models.EnrollmentForm, error) {
	m.lastFormID = formID
	m.lastReason = reason
	return m.formResp, m.formErr
}

func (m *enrollmentWorkflowMock) Get(ctx context.Context, formID string) (*models.EnrollmentForm, error) {
	m.lastFormID = formID
	return m.formResp, m.formErr
}

func (m *enrollmentWorkflowMock) List(ctx context.Context, filter models.FormFilter) ([]models.FormSummary, *models.Pagination, error) {
	m.lastFilter = filter
	if m.listErr != nil {
		return nil, nil, m.listErr
	}
	return m.listResp, &models.Pagination{Page: 1, PageSize: 20, TotalCount: len(m.listResp)}, nil
}

func (m *enrollmentWorkflowMock) Snapshot(ctx context.Context, formID string) (*models.FormSnapshot, error) {
	m.lastFormID = formID
	return m.snapshotResp, m.snapshotErr
}

func postJSON(t *testing.T, body interface{}, path string) (*httptest.ResponseRecorder, *gin.Context) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return w, c
}

func TestEnrollmentHandlerOpen(t *testing.T) {
	mockSvc := &enrollmentWorkflowMock{
		openResp: &models.EnrollmentForm{ID: "form-1", Status: models.FormStatusSubmitted},
	}
	h := NewEnrollmentHandler(mockSvc)

	w, c := postJSON(t, service.OpenFormRequest{
		StudentID:      "s1",
		DegreeID:       "d1",
		SessionLabel:   "2026/2027",
		SemesterNumber: 3,
		Section:        "A",
	}, "/forms")

	h.Open(c)
	require.Equal(t, http.StatusCreated, w.Code)
}

func TestEnrollmentHandlerOpenFeeNotVerified(t *testing.T) {
	h := NewEnrollmentHandler(&enrollmentWorkflowMock{openErr: appErrors.ErrFeeNotVerified})

	w, c := postJSON(t, service.OpenFormRequest{
		StudentID:      "s1",
		DegreeID:       "d1",
		SessionLabel:   "2026/2027",
		SemesterNumber: 3,
		Section:        "A",
	}, "/forms")

	h.Open(c)
	require.Equal(t, http.StatusPreconditionFailed, w.Code)
}

func TestEnrollmentHandlerSelectSubjectsCeiling(t *testing.T) {
	mockSvc := &enrollmentWorkflowMock{selectErr: appErrors.ErrCreditCeilingExceeded}
	h := NewEnrollmentHandler(mockSvc)

	w, c := postJSON(t, service.SelectSubjectsRequest{SubjectCodes: []string{"CS302"}}, "/forms/form-1/subjects")
	c.Params = gin.Params{{Key: "id", Value: "form-1"}}

	h.SelectSubjects(c)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "form-1", mockSvc.lastFormID)
}

func TestEnrollmentHandlerSubmitPassesSignature(t *testing.T) {
	mockSvc := &enrollmentWorkflowMock{
		formResp: &models.EnrollmentForm{ID: "form-1", Status: models.FormStatusSubmitted},
	}
	h := NewEnrollmentHandler(mockSvc)

	w, c := postJSON(t, SignatureRequest{Signature: "student:s1"}, "/forms/form-1/submit")
	c.Params = gin.Params{{Key: "id", Value: "form-1"}}

	h.Submit(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "student:s1", mockSvc.lastSignature)
}

func TestEnrollmentHandlerTutorRejectPassesReason(t *testing.T) {
	mockSvc := &enrollmentWorkflowMock{
		formResp: &models.EnrollmentForm{ID: "form-1", Status: models.FormStatusTutorRejected},
	}
	h := NewEnrollmentHandler(mockSvc)

	w, c := postJSON(t, ReasonRequest{Reason: "subject mix not viable"}, "/forms/form-1/tutor-reject")
	c.Params = gin.Params{{Key: "id", Value: "form-1"}}

	h.TutorReject(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "subject mix not viable", mockSvc.lastReason)
}

func TestEnrollmentHandlerManagerApproveFinalized(t *testing.T) {
	h := NewEnrollmentHandler(&enrollmentWorkflowMock{formErr: appErrors.ErrFormFinalized})

	w, c := postJSON(t, ReasonRequest{Notes: "ok"}, "/forms/form-1/manager-approve")
	c.Params = gin.Params{{Key: "id", Value: "form-1"}}

	h.ManagerApprove(c)
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestEnrollmentHandlerListParsesFilter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &enrollmentWorkflowMock{
		listResp: []models.FormSummary{{ID: "form-1", Status: models.FormStatusSubmitted}},
	}
	h := NewEnrollmentHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/forms?status=submitted&studentId=s1&page=2&limit=10", nil)
	c.Request = req

	h.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.FormStatusSubmitted, mockSvc.lastFilter.Status)
	assert.Equal(t, "s1", mockSvc.lastFilter.StudentID)
	assert.Equal(t, 2, mockSvc.lastFilter.Page)
	assert.Equal(t, 10, mockSvc.lastFilter.PageSize)
}

func TestEnrollmentHandlerSnapshot(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &enrollmentWorkflowMock{
		snapshotResp: &models.FormSnapshot{FormNumber: "EF-2026-000001", TotalCreditHours: 12},
	}
	h := NewEnrollmentHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/forms/form-1/snapshot", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "form-1"}}

	h.Snapshot(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "EF-2026-000001")
}
