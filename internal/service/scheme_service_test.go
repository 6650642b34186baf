package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/uni-enroll-api/internal/models"
	appErrors "github.com/noah-isme/uni-enroll-api/pkg/errors"
)

type mockSchemeRepo struct {
	items       map[string]*models.Scheme
	keys        map[string]bool
	semesters   map[string][]models.Subject
	lookupCalls int
	deactivated []string
}

func schemeKey(degreeID, sessionLabel, name string) string {
	return fmt.Sprintf("%s:%s:%s", degreeID, sessionLabel, name)
}

func semesterKey(degreeID, sessionLabel string, semester int) string {
	return fmt.Sprintf("%s:%s:%d", degreeID, sessionLabel, semester)
}

func (m *mockSchemeRepo) ExistsByKey(ctx context.Context, degreeID, sessionLabel, name string) (bool, error) {
	return m.keys[schemeKey(degreeID, sessionLabel, name)], nil
}

func (m *mockSchemeRepo) Create(ctx context.Context, scheme *models.Scheme) error {
	if m.items == nil {
		m.items = make(map[string]*models.Scheme)
	}
	if scheme.ID == "" {
		scheme.ID = fmt.Sprintf("scheme-%d", len(m.items)+1)
	}
	cp := *scheme
	m.items[scheme.ID] = &cp
	return nil
}

func (m *mockSchemeRepo) ReplacePlans(ctx context.Context, scheme *models.Scheme) error {
	if _, ok := m.items[scheme.ID]; !ok {
		return sql.ErrNoRows
	}
	cp := *scheme
	m.items[scheme.ID] = &cp
	return nil
}

func (m *mockSchemeRepo) FindByID(ctx context.Context, id string) (*models.Scheme, error) {
	if scheme, ok := m.items[id]; ok {
		cp := *scheme
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockSchemeRepo) FindSemesterSubjects(ctx context.Context, degreeID, sessionLabel string, semester int) ([]models.Subject, error) {
	m.lookupCalls++
	subjects, ok := m.semesters[semesterKey(degreeID, sessionLabel, semester)]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return subjects, nil
}

func (m *mockSchemeRepo) SetActive(ctx context.Context, id string, active bool) error {
	scheme, ok := m.items[id]
	if !ok {
		return sql.ErrNoRows
	}
	scheme.Active = active
	if !active {
		m.deactivated = append(m.deactivated, id)
	}
	return nil
}

type mockDegreeReader struct {
	items map[string]*models.Degree
}

func (m *mockDegreeReader) FindByID(ctx context.Context, id string) (*models.Degree, error) {
	if degree, ok := m.items[id]; ok {
		cp := *degree
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

type mockSchemeCache struct {
	entries     map[string][]byte
	invalidated []string
}

func (m *mockSchemeCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	raw, ok := m.entries[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (m *mockSchemeCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if m.entries == nil {
		m.entries = make(map[string][]byte)
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries[key] = raw
	return nil
}

func (m *mockSchemeCache) Invalidate(ctx context.Context, pattern string) error {
	m.invalidated = append(m.invalidated, pattern)
	m.entries = nil
	return nil
}

func testDegrees() *mockDegreeReader {
	return &mockDegreeReader{items: map[string]*models.Degree{
		"d1": {ID: "d1", Name: "Computer Science", Level: models.DegreeLevelUndergraduate, TotalSemesters: 2, TotalSections: 2},
	}}
}

func twoSemesterPlans() []SemesterPlanInput {
	return []SemesterPlanInput{
		{SemesterNumber: 1, Subjects: []SubjectInput{
			{Code: "CS101", Title: "Programming I", CreditNotation: "3(2-1)"},
			{Code: "MA101", Title: "Calculus", CreditNotation: "4(4-0)"},
		}},
		{SemesterNumber: 2, Subjects: []SubjectInput{
			{Code: "CS102", Title: "Programming II", CreditNotation: "3(2-1)"},
		}},
	}
}

func TestSchemeServiceCreateRecomputesTotals(t *testing.T) {
	repo := &mockSchemeRepo{}
	svc := NewSchemeService(repo, testDegrees(), nil, 0, nil, nil)

	scheme, err := svc.CreateScheme(context.Background(), CreateSchemeRequest{
		DegreeID:      "d1",
		SessionLabel:  "2026/2027",
		Name:          "Regular",
		SemesterPlans: twoSemesterPlans(),
	})
	require.NoError(t, err)
	require.Len(t, scheme.SemesterPlans, 2)
	assert.Equal(t, 7, scheme.SemesterPlans[0].TotalCreditHours)
	assert.Equal(t, 3, scheme.SemesterPlans[1].TotalCreditHours)
	assert.Equal(t, 10, scheme.TotalDegreeCredits)
	assert.Equal(t, "3(2-1)", scheme.SemesterPlans[0].Subjects[0].CreditNotation)
}

func TestSchemeServiceCreateDuplicateKey(t *testing.T) {
	repo := &mockSchemeRepo{keys: map[string]bool{schemeKey("d1", "2026/2027", "Regular"): true}}
	svc := NewSchemeService(repo, testDegrees(), nil, 0, nil, nil)

	_, err := svc.CreateScheme(context.Background(), CreateSchemeRequest{
		DegreeID:      "d1",
		SessionLabel:  "2026/2027",
		Name:          "Regular",
		SemesterPlans: twoSemesterPlans(),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrDuplicateScheme.Code, appErrors.FromError(err).Code)
}

func TestSchemeServiceCreatePlanCountMismatch(t *testing.T) {
	svc := NewSchemeService(&mockSchemeRepo{}, testDegrees(), nil, 0, nil, nil)

	_, err := svc.CreateScheme(context.Background(), CreateSchemeRequest{
		DegreeID:     "d1",
		SessionLabel: "2026/2027",
		Name:         "Regular",
		SemesterPlans: []SemesterPlanInput{
			{SemesterNumber: 1, Subjects: []SubjectInput{{Code: "CS101", Title: "Programming I", CreditNotation: "3(2-1)"}}},
		},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSchemeServiceCreateRejectsBadNotation(t *testing.T) {
	svc := NewSchemeService(&mockSchemeRepo{}, testDegrees(), nil, 0, nil, nil)

	plans := twoSemesterPlans()
	plans[0].Subjects[0].CreditNotation = "3(2-2)"
	_, err := svc.CreateScheme(context.Background(), CreateSchemeRequest{
		DegreeID:      "d1",
		SessionLabel:  "2026/2027",
		Name:          "Regular",
		SemesterPlans: plans,
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInvalidSubject.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "CS101")
}

func TestSchemeServiceCreateRejectsDuplicateCodeInSemester(t *testing.T) {
	svc := NewSchemeService(&mockSchemeRepo{}, testDegrees(), nil, 0, nil, nil)

	plans := twoSemesterPlans()
	plans[0].Subjects[1] = plans[0].Subjects[0]
	_, err := svc.CreateScheme(context.Background(), CreateSchemeRequest{
		DegreeID:      "d1",
		SessionLabel:  "2026/2027",
		Name:          "Regular",
		SemesterPlans: plans,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidSubject.Code, appErrors.FromError(err).Code)
}

func TestSchemeServiceUpdateReplacesPlansAndTotals(t *testing.T) {
	repo := &mockSchemeRepo{items: map[string]*models.Scheme{
		"scheme-1": {ID: "scheme-1", DegreeID: "d1", SessionLabel: "2026/2027", Name: "Regular", TotalDegreeCredits: 10},
	}}
	svc := NewSchemeService(repo, testDegrees(), nil, 0, nil, nil)

	plans := twoSemesterPlans()
	plans[1].Subjects = append(plans[1].Subjects, SubjectInput{Code: "PH201", Title: "Physics", CreditNotation: "2(1-1)"})
	scheme, err := svc.UpdateScheme(context.Background(), "scheme-1", UpdateSchemeRequest{SemesterPlans: plans})
	require.NoError(t, err)
	assert.Equal(t, 12, scheme.TotalDegreeCredits)
	assert.Equal(t, 12, repo.items["scheme-1"].TotalDegreeCredits)
}

func TestSchemeServiceLookupSubjectsComputesTotal(t *testing.T) {
	repo := &mockSchemeRepo{semesters: map[string][]models.Subject{
		semesterKey("d1", "2026/2027", 1): {
			{Code: "CS101", Title: "Programming I", CreditNotation: "3(2-1)", CreditTotal: 3, CreditLecture: 2, CreditPractical: 1},
			{Code: "MA101", Title: "Calculus", CreditNotation: "4(4-0)", CreditTotal: 4, CreditLecture: 4},
		},
	}}
	svc := NewSchemeService(repo, testDegrees(), nil, 0, nil, nil)

	result, err := svc.LookupSubjects(context.Background(), "d1", "2026/2027", 1)
	require.NoError(t, err)
	assert.True(t, result.Available)
	assert.Len(t, result.Subjects, 2)
	assert.Equal(t, 7, result.TotalCreditHours)
}

func TestSchemeServiceLookupSubjectsNoActiveScheme(t *testing.T) {
	svc := NewSchemeService(&mockSchemeRepo{}, testDegrees(), nil, 0, nil, nil)

	result, err := svc.LookupSubjects(context.Background(), "d1", "2026/2027", 1)
	require.NoError(t, err)
	assert.False(t, result.Available)
	assert.Empty(t, result.Subjects)
	assert.Zero(t, result.TotalCreditHours)
}

func TestSchemeServiceLookupSubjectsUsesCache(t *testing.T) {
	repo := &mockSchemeRepo{semesters: map[string][]models.Subject{
		semesterKey("d1", "2026/2027", 1): {
			{Code: "CS101", Title: "Programming I", CreditNotation: "3(2-1)", CreditTotal: 3, CreditLecture: 2, CreditPractical: 1},
		},
	}}
	cache := &mockSchemeCache{}
	svc := NewSchemeService(repo, testDegrees(), cache, time.Minute, nil, nil)

	first, err := svc.LookupSubjects(context.Background(), "d1", "2026/2027", 1)
	require.NoError(t, err)
	second, err := svc.LookupSubjects(context.Background(), "d1", "2026/2027", 1)
	require.NoError(t, err)

	assert.Equal(t, 1, repo.lookupCalls)
	assert.Equal(t, first.TotalCreditHours, second.TotalCreditHours)
}

func TestSchemeServiceDeactivateInvalidatesCache(t *testing.T) {
	repo := &mockSchemeRepo{items: map[string]*models.Scheme{
		"scheme-1": {ID: "scheme-1", DegreeID: "d1", SessionLabel: "2026/2027", Name: "Regular", Active: true},
	}}
	cache := &mockSchemeCache{}
	svc := NewSchemeService(repo, testDegrees(), cache, time.Minute, nil, nil)

	require.NoError(t, svc.Deactivate(context.Background(), "scheme-1"))
	assert.False(t, repo.items["scheme-1"].Active)
	require.Len(t, cache.invalidated, 1)
	assert.Equal(t, "scheme:d1:2026/2027:*", cache.invalidated[0])
}

func TestSchemeServiceLookupSubjectsValidatesArgs(t *testing.T) {
	svc := NewSchemeService(&mockSchemeRepo{}, testDegrees(), nil, 0, nil, nil)

	_, err := svc.LookupSubjects(context.Background(), "", "2026/2027", 1)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
