package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/uni-enroll-api/internal/credit"
	"github.com/noah-isme/uni-enroll-api/internal/models"
	appErrors "github.com/noah-isme/uni-enroll-api/pkg/errors"
)

type formRepo interface {
	Create(ctx context.Context, form *models.EnrollmentForm) error
	FindByID(ctx context.Context, id string) (*models.EnrollmentForm, error)
	ExistsOpen(ctx context.Context, studentID, degreeID, sessionLabel string, semester int) (bool, error)
	ReplaceSubjects(ctx context.Context, formID string, subjects []models.FormSubject, totalCreditHours int) error
	UpdateStatus(ctx context.Context, form *models.EnrollmentForm) error
	List(ctx context.Context, filter models.FormFilter) ([]models.FormSummary, int, error)
}

type feeReader interface {
	FindApproved(ctx context.Context, studentID string, semester int) (*models.FeeVerification, error)
}

type subjectResolver interface {
	LookupSubjects(ctx context.Context, degreeID, sessionLabel string, semester int) (*models.SemesterSubjects, error)
}

type formNumberIssuer interface {
	Next(ctx context.Context, year int) (string, error)
}

// OpenFormRequest opens a registration form for one semester.
type OpenFormRequest struct {
	StudentID      string `json:"student_id" validate:"required"`
	DegreeID       string `json:"degree_id" validate:"required"`
	SessionLabel   string `json:"session_label" validate:"required"`
	SemesterNumber int    `json:"semester_number" validate:"required,min=1"`
	Section        string `json:"section" validate:"required"`
}

// SelectSubjectsRequest adds scheme subjects and ad hoc extras to a form.
type SelectSubjectsRequest struct {
	SubjectCodes  []string              `json:"subject_codes"`
	ExtraSubjects []models.AdHocSubject `json:"extra_subjects" validate:"omitempty,dive"`
}

// SelectSubjectsResult reports the recomputed total after a selection.
type SelectSubjectsResult struct {
	TotalCreditHours int  `json:"total_credit_hours"`
	Accepted         bool `json:"accepted"`
}

// entityLocks hands out one mutex per key so check-then-write sequences
// on the same entity serialize while unrelated entities stay concurrent.
type entityLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newEntityLocks() *entityLocks {
	return &entityLocks{locks: make(map[string]*sync.Mutex)}
}

func (l *entityLocks) lock(key string) func() {
	l.mu.Lock()
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	l.mu.Unlock()
	m.Lock()
	return m.Unlock
}

// EnrollmentService owns the enrollment form state machine: fee-gated
// opening, credit-checked subject selection and the tutor/manager
// approval chain.
type EnrollmentService struct {
	forms     formRepo
	fees      feeReader
	catalog   subjectResolver
	degrees   degreeReader
	numbering formNumberIssuer
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger

	defaultCeiling int
	defaultFloor   int
	locks          *entityLocks
	now            func() time.Time
}

// NewEnrollmentService constructs EnrollmentService.
func NewEnrollmentService(forms formRepo, fees feeReader, catalog subjectResolver, degrees degreeReader, numbering formNumberIssuer, metrics *MetricsService, defaultCeiling, defaultFloor int, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaultCeiling <= 0 {
		defaultCeiling = 24
	}
	if defaultFloor <= 0 {
		defaultFloor = 6
	}
	return &EnrollmentService{
		forms:          forms,
		fees:           fees,
		catalog:        catalog,
		degrees:        degrees,
		numbering:      numbering,
		metrics:        metrics,
		validator:      validate,
		logger:         logger,
		defaultCeiling: defaultCeiling,
		defaultFloor:   defaultFloor,
		locks:          newEntityLocks(),
		now:            time.Now,
	}
}

// Open creates a registration form. An approved fee verification for the
// exact (student, semester) is the only thing that unlocks this.
func (s *EnrollmentService) Open(ctx context.Context, req OpenFormRequest) (*models.EnrollmentForm, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid open form payload")
	}

	unlock := s.locks.lock(fmt.Sprintf("open:%s:%s:%s:%d", req.StudentID, req.DegreeID, req.SessionLabel, req.SemesterNumber))
	defer unlock()

	fee, err := s.fees.FindApproved(ctx, req.StudentID, req.SemesterNumber)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrFeeNotVerified,
				fmt.Sprintf("no approved fee verification for student %s semester %d", req.StudentID, req.SemesterNumber))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check fee verification")
	}

	open, err := s.forms.ExistsOpen(ctx, req.StudentID, req.DegreeID, req.SessionLabel, req.SemesterNumber)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check open forms")
	}
	if open {
		return nil, appErrors.Clone(appErrors.ErrDuplicateOpenForm,
			fmt.Sprintf("student %s already has an open form for semester %d", req.StudentID, req.SemesterNumber))
	}

	degree, err := s.degrees.FindByID(ctx, req.DegreeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "degree not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load degree")
	}
	if req.SemesterNumber > degree.TotalSemesters {
		return nil, appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("degree %s has only %d semesters", degree.ID, degree.TotalSemesters))
	}

	form := &models.EnrollmentForm{
		StudentID:         req.StudentID,
		DegreeID:          req.DegreeID,
		SessionLabel:      req.SessionLabel,
		SemesterNumber:    req.SemesterNumber,
		Section:           req.Section,
		FeeVerificationID: fee.ID,
		Status:            models.FormStatusSubmitted,
	}
	if err := s.forms.Create(ctx, form); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create form")
	}

	if s.metrics != nil {
		s.metrics.RecordFormOpened()
	}
	s.logger.Info("enrollment form opened",
		zap.String("form_id", form.ID),
		zap.String("student_id", form.StudentID),
		zap.Int("semester", form.SemesterNumber))
	return form, nil
}

// SelectSubjects resolves the requested scheme subjects, validates any ad
// hoc extras and appends them to the form. The ceiling check runs per
// addition against the running total so the caller learns exactly which
// addition breached; a breach persists nothing.
func (s *EnrollmentService) SelectSubjects(ctx context.Context, formID string, req SelectSubjectsRequest) (*SelectSubjectsResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject selection")
	}
	if len(req.SubjectCodes) == 0 && len(req.ExtraSubjects) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no subjects supplied")
	}

	unlock := s.locks.lock("form:" + formID)
	defer unlock()

	form, err := s.getForm(ctx, formID)
	if err != nil {
		return nil, err
	}
	if form.Status.Terminal() {
		return nil, appErrors.Clone(appErrors.ErrFormFinalized, "form is finalized; subjects can no longer change")
	}
	if form.Status != models.FormStatusSubmitted {
		return nil, appErrors.Clone(appErrors.ErrInvalidState,
			fmt.Sprintf("subjects cannot change while form is %s", form.Status))
	}

	ceiling, _, err := s.creditLimits(ctx, form.DegreeID)
	if err != nil {
		return nil, err
	}

	selected := make(map[string]struct{}, len(form.Subjects))
	for _, subject := range form.Subjects {
		selected[subject.Code] = struct{}{}
	}

	additions, err := s.resolveAdditions(ctx, form, req, selected)
	if err != nil {
		return nil, err
	}

	subjects := form.Subjects
	total := form.TotalCreditHours
	for _, addition := range additions {
		if total+addition.CreditTotal > ceiling {
			return nil, appErrors.Clone(appErrors.ErrCreditCeilingExceeded,
				fmt.Sprintf("adding %s (%d credits) would raise the total from %d past the ceiling of %d",
					addition.Code, addition.CreditTotal, total, ceiling))
		}
		total += addition.CreditTotal
		subjects = append(subjects, addition)
	}

	if err := s.forms.ReplaceSubjects(ctx, form.ID, subjects, total); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store subject selection")
	}

	s.logger.Info("subjects selected",
		zap.String("form_id", form.ID),
		zap.Int("added", len(additions)),
		zap.Int("total_credit_hours", total))
	return &SelectSubjectsResult{TotalCreditHours: total, Accepted: true}, nil
}

func (s *EnrollmentService) resolveAdditions(ctx context.Context, form *models.EnrollmentForm, req SelectSubjectsRequest, selected map[string]struct{}) ([]models.FormSubject, error) {
	var additions []models.FormSubject

	if len(req.SubjectCodes) > 0 {
		offered, err := s.catalog.LookupSubjects(ctx, form.DegreeID, form.SessionLabel, form.SemesterNumber)
		if err != nil {
			return nil, err
		}
		byCode := make(map[string]models.Subject, len(offered.Subjects))
		if offered.Available {
			for _, subject := range offered.Subjects {
				byCode[subject.Code] = subject
			}
		}
		for _, code := range req.SubjectCodes {
			if _, dup := selected[code]; dup {
				return nil, appErrors.Clone(appErrors.ErrInvalidSubject,
					fmt.Sprintf("subject %s is already selected", code))
			}
			subject, ok := byCode[code]
			if !ok {
				return nil, appErrors.Clone(appErrors.ErrInvalidSubject,
					fmt.Sprintf("subject %s is not offered in semester %d", code, form.SemesterNumber))
			}
			selected[code] = struct{}{}
			additions = append(additions, models.FormSubject{
				Code:            subject.Code,
				Title:           subject.Title,
				CreditNotation:  subject.CreditNotation,
				CreditTotal:     subject.CreditTotal,
				CreditLecture:   subject.CreditLecture,
				CreditPractical: subject.CreditPractical,
			})
		}
	}

	for _, extra := range req.ExtraSubjects {
		if _, dup := selected[extra.Code]; dup {
			return nil, appErrors.Clone(appErrors.ErrInvalidSubject,
				fmt.Sprintf("subject %s is already selected", extra.Code))
		}
		hours, err := credit.Parse(extra.CreditNotation)
		if err != nil {
			var appErr *appErrors.Error
			if errors.As(err, &appErr) {
				return nil, appErrors.Wrap(appErr, appErrors.ErrInvalidSubject.Code, appErrors.ErrInvalidSubject.Status,
					fmt.Sprintf("subject %s: %s", extra.Code, appErr.Message))
			}
			return nil, err
		}
		selected[extra.Code] = struct{}{}
		additions = append(additions, models.FormSubject{
			Code:            extra.Code,
			Title:           extra.Title,
			CreditNotation:  hours.String(),
			CreditTotal:     hours.Total,
			CreditLecture:   hours.Lecture,
			CreditPractical: hours.Practical,
			AdHoc:           true,
		})
	}

	return additions, nil
}

// Submit records the student's signature and, for postgraduate degrees,
// enforces the credit-hour floor before the form goes to the tutor.
func (s *EnrollmentService) Submit(ctx context.Context, formID, signatureIdentity string) (*models.EnrollmentForm, error) {
	if signatureIdentity == "" {
		return nil, appErrors.Clone(appErrors.ErrMissingSignature, "student signature identity is required")
	}

	unlock := s.locks.lock("form:" + formID)
	defer unlock()

	form, err := s.getForm(ctx, formID)
	if err != nil {
		return nil, err
	}
	if form.Status.Terminal() {
		return nil, appErrors.Clone(appErrors.ErrFormFinalized, "form is finalized")
	}
	if form.Status != models.FormStatusSubmitted {
		return nil, appErrors.Clone(appErrors.ErrInvalidState,
			fmt.Sprintf("form cannot be submitted while %s", form.Status))
	}

	_, floor, err := s.creditLimits(ctx, form.DegreeID)
	if err != nil {
		return nil, err
	}
	if floor > 0 && form.TotalCreditHours < floor {
		return nil, appErrors.Clone(appErrors.ErrCreditFloorNotMet,
			fmt.Sprintf("total of %d credit hours is below the floor of %d", form.TotalCreditHours, floor))
	}

	form.StudentSignature = &signatureIdentity
	if err := s.forms.UpdateStatus(ctx, form); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record submission")
	}
	return form, nil
}

// TutorSign moves a submitted form to tutor approval.
func (s *EnrollmentService) TutorSign(ctx context.Context, formID, signatureIdentity string) (*models.EnrollmentForm, error) {
	if signatureIdentity == "" {
		return nil, appErrors.Clone(appErrors.ErrMissingSignature, "tutor signature identity is required")
	}

	unlock := s.locks.lock("form:" + formID)
	defer unlock()

	form, err := s.getForm(ctx, formID)
	if err != nil {
		return nil, err
	}
	if form.Status.Terminal() {
		return nil, appErrors.Clone(appErrors.ErrFormFinalized, "form is finalized")
	}
	if form.Status != models.FormStatusSubmitted {
		return nil, appErrors.Clone(appErrors.ErrInvalidState,
			fmt.Sprintf("tutor can only sign a %s form, not %s", models.FormStatusSubmitted, form.Status))
	}

	form.Status = models.FormStatusTutorApproved
	form.TutorSignature = &signatureIdentity
	if err := s.forms.UpdateStatus(ctx, form); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record tutor signature")
	}

	if s.metrics != nil {
		s.metrics.RecordFormDecision(string(form.Status))
	}
	s.logger.Info("form tutor-approved", zap.String("form_id", form.ID))
	return form, nil
}

// TutorReject terminates a submitted form at the tutor stage.
func (s *EnrollmentService) TutorReject(ctx context.Context, formID, reason string) (*models.EnrollmentForm, error) {
	if reason == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "rejection reason is required")
	}

	unlock := s.locks.lock("form:" + formID)
	defer unlock()

	form, err := s.getForm(ctx, formID)
	if err != nil {
		return nil, err
	}
	if form.Status.Terminal() {
		return nil, appErrors.Clone(appErrors.ErrFormFinalized, "form is finalized")
	}
	if form.Status != models.FormStatusSubmitted {
		return nil, appErrors.Clone(appErrors.ErrInvalidState,
			fmt.Sprintf("tutor can only reject a %s form, not %s", models.FormStatusSubmitted, form.Status))
	}

	form.Status = models.FormStatusTutorRejected
	form.RejectionReason = &reason
	if err := s.forms.UpdateStatus(ctx, form); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record tutor rejection")
	}

	if s.metrics != nil {
		s.metrics.RecordFormDecision(string(form.Status))
	}
	s.logger.Info("form tutor-rejected", zap.String("form_id", form.ID), zap.String("reason", reason))
	return form, nil
}

// ManagerApprove finalizes a tutor-approved form as the official
// enrollment record. The form number is assigned here exactly once; a
// number already present is reused, never reissued.
func (s *EnrollmentService) ManagerApprove(ctx context.Context, formID, notes string) (*models.EnrollmentForm, error) {
	unlock := s.locks.lock("form:" + formID)
	defer unlock()

	form, err := s.getForm(ctx, formID)
	if err != nil {
		return nil, err
	}
	if form.Status.Terminal() {
		return nil, appErrors.Clone(appErrors.ErrFormFinalized, "form is finalized")
	}
	if form.Status != models.FormStatusTutorApproved {
		return nil, appErrors.Clone(appErrors.ErrInvalidState,
			fmt.Sprintf("manager can only approve a %s form, not %s", models.FormStatusTutorApproved, form.Status))
	}

	if form.FormNumber == nil {
		number, err := s.numbering.Next(ctx, s.now().UTC().Year())
		if err != nil {
			return nil, err
		}
		form.FormNumber = &number
	}

	form.Status = models.FormStatusManagerApproved
	if notes != "" {
		form.ManagerNotes = &notes
	}
	if err := s.forms.UpdateStatus(ctx, form); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record manager approval")
	}

	if s.metrics != nil {
		s.metrics.RecordFormDecision(string(form.Status))
	}
	s.logger.Info("form manager-approved, student enrolled",
		zap.String("form_id", form.ID),
		zap.Stringp("form_number", form.FormNumber),
		zap.String("student_id", form.StudentID),
		zap.Int("semester", form.SemesterNumber))
	return form, nil
}

// ManagerReject terminates a tutor-approved form at the manager stage.
func (s *EnrollmentService) ManagerReject(ctx context.Context, formID, reason string) (*models.EnrollmentForm, error) {
	if reason == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "rejection reason is required")
	}

	unlock := s.locks.lock("form:" + formID)
	defer unlock()

	form, err := s.getForm(ctx, formID)
	if err != nil {
		return nil, err
	}
	if form.Status.Terminal() {
		return nil, appErrors.Clone(appErrors.ErrFormFinalized, "form is finalized")
	}
	if form.Status != models.FormStatusTutorApproved {
		return nil, appErrors.Clone(appErrors.ErrInvalidState,
			fmt.Sprintf("manager can only reject a %s form, not %s", models.FormStatusTutorApproved, form.Status))
	}

	form.Status = models.FormStatusManagerRejected
	form.RejectionReason = &reason
	if err := s.forms.UpdateStatus(ctx, form); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record manager rejection")
	}

	if s.metrics != nil {
		s.metrics.RecordFormDecision(string(form.Status))
	}
	s.logger.Info("form manager-rejected", zap.String("form_id", form.ID), zap.String("reason", reason))
	return form, nil
}

// Get returns one form with its subjects.
func (s *EnrollmentService) Get(ctx context.Context, formID string) (*models.EnrollmentForm, error) {
	return s.getForm(ctx, formID)
}

// List returns form summaries for the console.
func (s *EnrollmentService) List(ctx context.Context, filter models.FormFilter) ([]models.FormSummary, *models.Pagination, error) {
	summaries, total, err := s.forms.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list forms")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return summaries, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Snapshot returns the finalized form view handed to document
// generation. Only manager-approved forms have one.
func (s *EnrollmentService) Snapshot(ctx context.Context, formID string) (*models.FormSnapshot, error) {
	form, err := s.getForm(ctx, formID)
	if err != nil {
		return nil, err
	}
	if form.Status != models.FormStatusManagerApproved || form.FormNumber == nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "snapshot is only available for enrolled forms")
	}

	snapshot := &models.FormSnapshot{
		FormNumber:       *form.FormNumber,
		StudentID:        form.StudentID,
		DegreeID:         form.DegreeID,
		SessionLabel:     form.SessionLabel,
		SemesterNumber:   form.SemesterNumber,
		Section:          form.Section,
		Subjects:         form.Subjects,
		TotalCreditHours: form.TotalCreditHours,
		ApprovedAt:       form.UpdatedAt,
	}
	if form.TutorSignature != nil {
		snapshot.TutorSignature = *form.TutorSignature
	}
	if form.ManagerNotes != nil {
		snapshot.ManagerNotes = *form.ManagerNotes
	}
	return snapshot, nil
}

func (s *EnrollmentService) getForm(ctx context.Context, formID string) (*models.EnrollmentForm, error) {
	form, err := s.forms.FindByID(ctx, formID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "form not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load form")
	}
	return form, nil
}

// creditLimits resolves the effective ceiling and floor for a degree.
// The floor binds postgraduate degrees only.
func (s *EnrollmentService) creditLimits(ctx context.Context, degreeID string) (int, int, error) {
	degree, err := s.degrees.FindByID(ctx, degreeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, 0, appErrors.Clone(appErrors.ErrNotFound, "degree not found")
		}
		return 0, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load degree")
	}

	ceiling := s.defaultCeiling
	if degree.CreditCeiling != nil && *degree.CreditCeiling > 0 {
		ceiling = *degree.CreditCeiling
	}

	floor := 0
	if degree.Level == models.DegreeLevelPostgraduate {
		floor = s.defaultFloor
		if degree.CreditFloor != nil && *degree.CreditFloor > 0 {
			floor = *degree.CreditFloor
		}
	}
	return ceiling, floor, nil
}
