package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/uni-enroll-api/internal/models"
	appErrors "github.com/noah-isme/uni-enroll-api/pkg/errors"
)

type feeRepo interface {
	Create(ctx context.Context, fee *models.FeeVerification) error
	FindByID(ctx context.Context, id string) (*models.FeeVerification, error)
	ExistsActive(ctx context.Context, studentID string, semester int) (bool, error)
	UpdateStatus(ctx context.Context, id string, status models.FeeStatus, message string) error
}

// SubmitFeeRequest is a student's payment submission.
type SubmitFeeRequest struct {
	StudentID       string `json:"student_id" validate:"required"`
	SemesterPaidFor int    `json:"semester_paid_for" validate:"required,min=1"`
	Amount          int64  `json:"amount" validate:"required,gt=0"`
	VoucherRef      string `json:"voucher_ref" validate:"required"`
}

// FeeDecisionRequest carries an office transition.
type FeeDecisionRequest struct {
	Status  models.FeeStatus `json:"status" validate:"required,oneof=PROCESSING APPROVED REJECTED"`
	Message string           `json:"message"`
}

// feeTransitions is the closed transition graph. Anything not listed is
// rejected, which is what makes the "no illegal transition" property a
// single testable unit.
var feeTransitions = map[models.FeeStatus][]models.FeeStatus{
	models.FeeStatusPending:    {models.FeeStatusProcessing, models.FeeStatusApproved, models.FeeStatusRejected},
	models.FeeStatusProcessing: {models.FeeStatusApproved, models.FeeStatusRejected},
}

func feeTransitionAllowed(from, to models.FeeStatus) bool {
	for _, allowed := range feeTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// FeeService tracks payment verification submissions. The caller is
// responsible for having established the fee-office role before invoking
// Transition; the service validates only the transition graph.
type FeeService struct {
	repo      feeRepo
	validator *validator.Validate
	logger    *zap.Logger
}

// NewFeeService constructs FeeService.
func NewFeeService(repo feeRepo, validate *validator.Validate, logger *zap.Logger) *FeeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FeeService{repo: repo, validator: validate, logger: logger}
}

// Submit creates a new submission in PENDING. A student may hold at most
// one non-terminal submission per semester; a rejected or approved one
// requires a fresh submission, never a reopen.
func (s *FeeService) Submit(ctx context.Context, req SubmitFeeRequest) (*models.FeeVerification, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid fee submission")
	}

	active, err := s.repo.ExistsActive(ctx, req.StudentID, req.SemesterPaidFor)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check active submissions")
	}
	if active {
		return nil, appErrors.Clone(appErrors.ErrDuplicateActiveSubmission,
			fmt.Sprintf("student %s already has an active submission for semester %d", req.StudentID, req.SemesterPaidFor))
	}

	fee := &models.FeeVerification{
		StudentID:       req.StudentID,
		SemesterPaidFor: req.SemesterPaidFor,
		Amount:          req.Amount,
		VoucherRef:      req.VoucherRef,
		Status:          models.FeeStatusPending,
	}
	if err := s.repo.Create(ctx, fee); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store fee submission")
	}

	s.logger.Info("fee submission created",
		zap.String("fee_id", fee.ID),
		zap.String("student_id", fee.StudentID),
		zap.Int("semester", fee.SemesterPaidFor),
		zap.Int64("amount", fee.Amount))
	return fee, nil
}

// Get returns one submission.
func (s *FeeService) Get(ctx context.Context, id string) (*models.FeeVerification, error) {
	fee, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "fee submission not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load fee submission")
	}
	return fee, nil
}

// Transition applies an office decision. Approval makes the student
// eligible to open an enrollment form for the paid semester; nothing
// else unlocks enrollment.
func (s *FeeService) Transition(ctx context.Context, id string, req FeeDecisionRequest) (*models.FeeVerification, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid fee decision")
	}

	fee, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if !feeTransitionAllowed(fee.Status, req.Status) {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition,
			fmt.Sprintf("fee verification cannot move from %s to %s", fee.Status, req.Status))
	}

	if err := s.repo.UpdateStatus(ctx, id, req.Status, req.Message); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update fee status")
	}

	fee.Status = req.Status
	fee.Message = req.Message
	s.logger.Info("fee decision recorded",
		zap.String("fee_id", fee.ID),
		zap.String("status", string(fee.Status)))
	return fee, nil
}
