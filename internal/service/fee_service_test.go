package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/uni-enroll-api/internal/models"
	appErrors "github.com/noah-isme/uni-enroll-api/pkg/errors"
)

type mockFeeRepo struct {
	items   map[string]*models.FeeVerification
	active  map[string]bool
	created int
}

func feeActiveKey(studentID string, semester int) string {
	return fmt.Sprintf("%s:%d", studentID, semester)
}

func (m *mockFeeRepo) Create(ctx context.Context, fee *models.FeeVerification) error {
	if m.items == nil {
		m.items = make(map[string]*models.FeeVerification)
	}
	if fee.ID == "" {
		fee.ID = fmt.Sprintf("fee-%d", m.created+1)
	}
	m.created++
	cp := *fee
	m.items[fee.ID] = &cp
	return nil
}

func (m *mockFeeRepo) FindByID(ctx context.Context, id string) (*models.FeeVerification, error) {
	if fee, ok := m.items[id]; ok {
		cp := *fee
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockFeeRepo) ExistsActive(ctx context.Context, studentID string, semester int) (bool, error) {
	return m.active[feeActiveKey(studentID, semester)], nil
}

func (m *mockFeeRepo) UpdateStatus(ctx context.Context, id string, status models.FeeStatus, message string) error {
	fee, ok := m.items[id]
	if !ok {
		return sql.ErrNoRows
	}
	fee.Status = status
	fee.Message = message
	return nil
}

func TestFeeServiceSubmit(t *testing.T) {
	repo := &mockFeeRepo{}
	svc := NewFeeService(repo, nil, nil)

	fee, err := svc.Submit(context.Background(), SubmitFeeRequest{
		StudentID:       "s1",
		SemesterPaidFor: 3,
		Amount:          40000,
		VoucherRef:      "VCH-7781",
	})
	require.NoError(t, err)
	assert.Equal(t, models.FeeStatusPending, fee.Status)
	assert.Equal(t, int64(40000), fee.Amount)
	assert.Len(t, repo.items, 1)
}

func TestFeeServiceSubmitRejectsInvalidPayload(t *testing.T) {
	svc := NewFeeService(&mockFeeRepo{}, nil, nil)

	_, err := svc.Submit(context.Background(), SubmitFeeRequest{
		StudentID:       "s1",
		SemesterPaidFor: 3,
		Amount:          0,
		VoucherRef:      "VCH-7781",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestFeeServiceSubmitDuplicateActive(t *testing.T) {
	repo := &mockFeeRepo{active: map[string]bool{feeActiveKey("s1", 3): true}}
	svc := NewFeeService(repo, nil, nil)

	_, err := svc.Submit(context.Background(), SubmitFeeRequest{
		StudentID:       "s1",
		SemesterPaidFor: 3,
		Amount:          40000,
		VoucherRef:      "VCH-7781",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrDuplicateActiveSubmission.Code, appErrors.FromError(err).Code)
}

func TestFeeServiceGetNotFound(t *testing.T) {
	svc := NewFeeService(&mockFeeRepo{}, nil, nil)

	_, err := svc.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestFeeServiceTransitionGraph(t *testing.T) {
	all := []models.FeeStatus{
		models.FeeStatusPending,
		models.FeeStatusProcessing,
		models.FeeStatusApproved,
		models.FeeStatusRejected,
	}
	targets := []models.FeeStatus{
		models.FeeStatusProcessing,
		models.FeeStatusApproved,
		models.FeeStatusRejected,
	}
	allowed := map[string]bool{
		"PENDING>PROCESSING":    true,
		"PENDING>APPROVED":      true,
		"PENDING>REJECTED":      true,
		"PROCESSING>APPROVED":   true,
		"PROCESSING>REJECTED":   true,
	}

	for _, from := range all {
		for _, to := range targets {
			name := fmt.Sprintf("%s>%s", from, to)
			t.Run(name, func(t *testing.T) {
				repo := &mockFeeRepo{items: map[string]*models.FeeVerification{
					"f1": {ID: "f1", StudentID: "s1", SemesterPaidFor: 1, Status: from},
				}}
				svc := NewFeeService(repo, nil, nil)

				fee, err := svc.Transition(context.Background(), "f1", FeeDecisionRequest{Status: to})
				if allowed[name] {
					require.NoError(t, err)
					assert.Equal(t, to, fee.Status)
					assert.Equal(t, to, repo.items["f1"].Status)
				} else {
					require.Error(t, err)
					assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)
					assert.Equal(t, from, repo.items["f1"].Status)
				}
			})
		}
	}
}

func TestFeeServiceTerminalStatesAreFinal(t *testing.T) {
	assert.True(t, models.FeeStatusApproved.Terminal())
	assert.True(t, models.FeeStatusRejected.Terminal())
	assert.False(t, models.FeeStatusPending.Terminal())
	assert.False(t, models.FeeStatusProcessing.Terminal())
}

func TestFeeServiceOfficeReviewFlow(t *testing.T) {
	repo := &mockFeeRepo{}
	svc := NewFeeService(repo, nil, nil)

	fee, err := svc.Submit(context.Background(), SubmitFeeRequest{
		StudentID:       "s1",
		SemesterPaidFor: 3,
		Amount:          40000,
		VoucherRef:      "VCH-7781",
	})
	require.NoError(t, err)

	fee, err = svc.Transition(context.Background(), fee.ID, FeeDecisionRequest{Status: models.FeeStatusProcessing})
	require.NoError(t, err)
	assert.Equal(t, models.FeeStatusProcessing, fee.Status)

	fee, err = svc.Transition(context.Background(), fee.ID, FeeDecisionRequest{Status: models.FeeStatusApproved, Message: "payment confirmed"})
	require.NoError(t, err)
	assert.Equal(t, models.FeeStatusApproved, fee.Status)
	assert.Equal(t, "payment confirmed", fee.Message)

	_, err = svc.Transition(context.Background(), fee.ID, FeeDecisionRequest{Status: models.FeeStatusRejected})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)
}
