package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/uni-enroll-api/internal/credit"
	"github.com/noah-isme/uni-enroll-api/internal/models"
	appErrors "github.com/noah-isme/uni-enroll-api/pkg/errors"
)

type schemeRepo interface {
	ExistsByKey(ctx context.Context, degreeID, sessionLabel, name string) (bool, error)
	Create(ctx context.Context, scheme *models.Scheme) error
	ReplacePlans(ctx context.Context, scheme *models.Scheme) error
	FindByID(ctx context.Context, id string) (*models.Scheme, error)
	FindSemesterSubjects(ctx context.Context, degreeID, sessionLabel string, semester int) ([]models.Subject, error)
	SetActive(ctx context.Context, id string, active bool) error
}

type degreeReader interface {
	FindByID(ctx context.Context, id string) (*models.Degree, error)
}

type schemeCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Invalidate(ctx context.Context, pattern string) error
}

// SubjectInput is one subject supplied to scheme creation or update.
type SubjectInput struct {
	Code           string `json:"code" validate:"required"`
	Title          string `json:"title" validate:"required"`
	CreditNotation string `json:"credit_notation" validate:"required"`
}

// SemesterPlanInput is one semester's subject list.
type SemesterPlanInput struct {
	SemesterNumber int            `json:"semester_number" validate:"required,min=1"`
	Subjects       []SubjectInput `json:"subjects" validate:"required,dive"`
}

// CreateSchemeRequest creates a scheme for one (degree, session, name).
type CreateSchemeRequest struct {
	DegreeID      string              `json:"degree_id" validate:"required"`
	SessionLabel  string              `json:"session_label" validate:"required"`
	Name          string              `json:"name" validate:"required"`
	SemesterPlans []SemesterPlanInput `json:"semester_plans" validate:"required,dive"`
}

// UpdateSchemeRequest replaces the full set of semester plans.
type UpdateSchemeRequest struct {
	SemesterPlans []SemesterPlanInput `json:"semester_plans" validate:"required,dive"`
}

// SchemeService owns the degree scheme catalog. Aggregate credit totals
// are always recomputed from the subject lists; input totals are never
// trusted because downstream ceiling enforcement depends on them.
type SchemeService struct {
	repo      schemeRepo
	degrees   degreeReader
	cache     schemeCache
	cacheTTL  time.Duration
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSchemeService constructs SchemeService.
func NewSchemeService(repo schemeRepo, degrees degreeReader, cache schemeCache, cacheTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *SchemeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 10 * time.Minute
	}
	return &SchemeService{repo: repo, degrees: degrees, cache: cache, cacheTTL: cacheTTL, validator: validate, logger: logger}
}

// CreateScheme validates and stores a new scheme.
func (s *SchemeService) CreateScheme(ctx context.Context, req CreateSchemeRequest) (*models.Scheme, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid scheme payload")
	}

	degree, err := s.degrees.FindByID(ctx, req.DegreeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "degree not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load degree")
	}

	exists, err := s.repo.ExistsByKey(ctx, req.DegreeID, req.SessionLabel, req.Name)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check scheme key")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrDuplicateScheme,
			fmt.Sprintf("scheme %q already exists for degree %s session %s", req.Name, req.DegreeID, req.SessionLabel))
	}

	plans, totalCredits, err := buildSemesterPlans(req.SemesterPlans, degree.TotalSemesters)
	if err != nil {
		return nil, err
	}

	scheme := &models.Scheme{
		DegreeID:           req.DegreeID,
		SessionLabel:       req.SessionLabel,
		Name:               req.Name,
		SemesterPlans:      plans,
		TotalDegreeCredits: totalCredits,
	}
	if err := s.repo.Create(ctx, scheme); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store scheme")
	}

	s.invalidateLookups(ctx, scheme.DegreeID, scheme.SessionLabel)
	s.logger.Info("scheme created",
		zap.String("scheme_id", scheme.ID),
		zap.String("degree_id", scheme.DegreeID),
		zap.String("session", scheme.SessionLabel),
		zap.Int("total_credits", scheme.TotalDegreeCredits))
	return scheme, nil
}

// UpdateScheme fully replaces a scheme's semester plans after the same
// validation as creation. Partial updates that would leave stale totals
// are impossible: totals are recomputed and committed with the plans.
func (s *SchemeService) UpdateScheme(ctx context.Context, id string, req UpdateSchemeRequest) (*models.Scheme, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid scheme payload")
	}

	scheme, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "scheme not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load scheme")
	}

	degree, err := s.degrees.FindByID(ctx, scheme.DegreeID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load degree")
	}

	plans, totalCredits, err := buildSemesterPlans(req.SemesterPlans, degree.TotalSemesters)
	if err != nil {
		return nil, err
	}

	scheme.SemesterPlans = plans
	scheme.TotalDegreeCredits = totalCredits
	if err := s.repo.ReplacePlans(ctx, scheme); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to replace scheme plans")
	}

	s.invalidateLookups(ctx, scheme.DegreeID, scheme.SessionLabel)
	s.logger.Info("scheme updated", zap.String("scheme_id", scheme.ID), zap.Int("total_credits", totalCredits))
	return scheme, nil
}

// Deactivate soft-disables a scheme. Schemes are never deleted; forms
// keep resolving against historical data.
func (s *SchemeService) Deactivate(ctx context.Context, id string) error {
	scheme, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "scheme not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load scheme")
	}
	if err := s.repo.SetActive(ctx, id, false); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate scheme")
	}
	s.invalidateLookups(ctx, scheme.DegreeID, scheme.SessionLabel)
	return nil
}

// LookupSubjects returns the subject list and aggregate credit total for
// one semester. An absent active scheme yields Available=false and no
// error: callers must treat it as nothing to offer yet.
func (s *SchemeService) LookupSubjects(ctx context.Context, degreeID, sessionLabel string, semester int) (*models.SemesterSubjects, error) {
	if degreeID == "" || sessionLabel == "" || semester < 1 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "degree, session and semester are required")
	}

	key := lookupCacheKey(degreeID, sessionLabel, semester)
	if s.cache != nil {
		var cached models.SemesterSubjects
		if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
			return &cached, nil
		}
	}

	subjects, err := s.repo.FindSemesterSubjects(ctx, degreeID, sessionLabel, semester)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &models.SemesterSubjects{Available: false, SemesterNumber: semester}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up subjects")
	}

	result := &models.SemesterSubjects{
		Available:      true,
		SemesterNumber: semester,
		Subjects:       subjects,
	}
	for _, subject := range subjects {
		result.TotalCreditHours += subject.CreditTotal
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, result, s.cacheTTL); err != nil {
			s.logger.Warn("scheme lookup cache set failed", zap.String("key", key), zap.Error(err))
		}
	}
	return result, nil
}

func (s *SchemeService) invalidateLookups(ctx context.Context, degreeID, sessionLabel string) {
	if s.cache == nil {
		return
	}
	pattern := fmt.Sprintf("scheme:%s:%s:*", degreeID, sessionLabel)
	if err := s.cache.Invalidate(ctx, pattern); err != nil {
		s.logger.Warn("scheme cache invalidation failed", zap.String("pattern", pattern), zap.Error(err))
	}
}

func lookupCacheKey(degreeID, sessionLabel string, semester int) string {
	return fmt.Sprintf("scheme:%s:%s:%d", degreeID, sessionLabel, semester)
}

// buildSemesterPlans validates every subject, rejects duplicate codes
// within a semester and recomputes all derived totals. The declared
// degree semester count must match the number of plans supplied.
func buildSemesterPlans(inputs []SemesterPlanInput, totalSemesters int) ([]models.SemesterPlan, int, error) {
	if len(inputs) != totalSemesters {
		return nil, 0, appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("degree declares %d semesters but %d plans were supplied", totalSemesters, len(inputs)))
	}

	seenSemesters := make(map[int]struct{}, len(inputs))
	plans := make([]models.SemesterPlan, 0, len(inputs))
	totalCredits := 0

	for _, input := range inputs {
		if input.SemesterNumber < 1 || input.SemesterNumber > totalSemesters {
			return nil, 0, appErrors.Clone(appErrors.ErrValidation,
				fmt.Sprintf("semester number %d is outside 1..%d", input.SemesterNumber, totalSemesters))
		}
		if _, dup := seenSemesters[input.SemesterNumber]; dup {
			return nil, 0, appErrors.Clone(appErrors.ErrValidation,
				fmt.Sprintf("semester %d declared twice", input.SemesterNumber))
		}
		seenSemesters[input.SemesterNumber] = struct{}{}

		plan := models.SemesterPlan{SemesterNumber: input.SemesterNumber}
		seenCodes := make(map[string]struct{}, len(input.Subjects))
		for _, subjectInput := range input.Subjects {
			if _, dup := seenCodes[subjectInput.Code]; dup {
				return nil, 0, appErrors.Clone(appErrors.ErrInvalidSubject,
					fmt.Sprintf("subject %s appears twice in semester %d", subjectInput.Code, input.SemesterNumber))
			}
			seenCodes[subjectInput.Code] = struct{}{}

			hours, err := credit.Parse(subjectInput.CreditNotation)
			if err != nil {
				var appErr *appErrors.Error
				if errors.As(err, &appErr) {
					return nil, 0, appErrors.Wrap(appErr, appErrors.ErrInvalidSubject.Code, appErrors.ErrInvalidSubject.Status,
						fmt.Sprintf("subject %s: %s", subjectInput.Code, appErr.Message))
				}
				return nil, 0, err
			}

			plan.Subjects = append(plan.Subjects, models.Subject{
				Code:            subjectInput.Code,
				Title:           subjectInput.Title,
				CreditNotation:  hours.String(),
				CreditTotal:     hours.Total,
				CreditLecture:   hours.Lecture,
				CreditPractical: hours.Practical,
			})
			plan.TotalCreditHours += hours.Total
		}
		totalCredits += plan.TotalCreditHours
		plans = append(plans, plan)
	}

	return plans, totalCredits, nil
}
