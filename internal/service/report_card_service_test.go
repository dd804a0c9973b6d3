package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pkbm-digital/rapor-api/internal/models"
	appErrors "github.com/pkbm-digital/rapor-api/pkg/errors"
)

type mockStudentReader struct {
	students map[string]*models.Student
	roster   []models.Student
}

func (m *mockStudentReader) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if s, ok := m.students[id]; ok {
		return s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentReader) ListByClassroom(ctx context.Context, classroomID, academicYearID string) ([]models.Student, error) {
	return m.roster, nil
}

type mockClassroomReader struct {
	classrooms map[string]*models.ClassroomDetail
}

func (m *mockClassroomReader) FindByID(ctx context.Context, id string) (*models.ClassroomDetail, error) {
	if c, ok := m.classrooms[id]; ok {
		return c, nil
	}
	return nil, sql.ErrNoRows
}

type mockYearReader struct {
	years  map[string]*models.AcademicYear
	active *models.AcademicYear
}

func (m *mockYearReader) FindByID(ctx context.Context, id string) (*models.AcademicYear, error) {
	if y, ok := m.years[id]; ok {
		return y, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockYearReader) FindActive(ctx context.Context) (*models.AcademicYear, error) {
	if m.active == nil {
		return nil, sql.ErrNoRows
	}
	return m.active, nil
}

type mockAggregator struct {
	doc   models.ScoreDocument
	gpa   float64
	err   error
	calls int
}

func (m *mockAggregator) Aggregate(ctx context.Context, key models.ReportCardKey, track models.CurriculumTrack) (models.ScoreDocument, float64, error) {
	m.calls++
	return m.doc, m.gpa, m.err
}

type mockSnapshotStore struct {
	cards   map[string]*models.ReportCard
	upserts int
}

func snapshotMapKey(key models.ReportCardKey) string {
	return fmt.Sprintf("%s|%s|%s|%s", key.StudentID, key.ClassroomID, key.AcademicYearID, key.Semester)
}

func (m *mockSnapshotStore) FindByKey(ctx context.Context, key models.ReportCardKey) (*models.ReportCard, error) {
	if card, ok := m.cards[snapshotMapKey(key)]; ok {
		copied := *card
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

// Upsert mirrors the real store: a new row starts as draft, an existing row
// keeps its status while scores and gpa are replaced in full.
func (m *mockSnapshotStore) Upsert(ctx context.Context, card *models.ReportCard) error {
	if m.cards == nil {
		m.cards = make(map[string]*models.ReportCard)
	}
	m.upserts++
	mapKey := snapshotMapKey(card.Key())
	stored := *card
	if existing, ok := m.cards[mapKey]; ok {
		stored.ID = existing.ID
		stored.Status = existing.Status
		stored.CreatedAt = existing.CreatedAt
	} else {
		stored.ID = fmt.Sprintf("rc-%d", len(m.cards)+1)
		stored.Status = models.ReportCardDraft
		stored.CreatedAt = time.Now()
	}
	stored.UpdatedAt = time.Now()
	m.cards[mapKey] = &stored
	return nil
}

func (m *mockSnapshotStore) Finalize(ctx context.Context, key models.ReportCardKey) (bool, error) {
	card, ok := m.cards[snapshotMapKey(key)]
	if !ok || card.Status != models.ReportCardDraft {
		return false, nil
	}
	card.Status = models.ReportCardFinalized
	return true, nil
}

func (m *mockSnapshotStore) Delete(ctx context.Context, key models.ReportCardKey) error {
	delete(m.cards, snapshotMapKey(key))
	return nil
}

func (m *mockSnapshotStore) ListRecap(ctx context.Context, classroomID, academicYearID string, semester models.Semester) ([]models.ReportCardRecapRow, error) {
	var rows []models.ReportCardRecapRow
	for _, card := range m.cards {
		if card.ClassroomID != classroomID {
			continue
		}
		rows = append(rows, models.ReportCardRecapRow{
			StudentID: card.StudentID,
			GPA:       card.GPA,
			Status:    card.Status,
			Scores:    card.Scores,
		})
	}
	return rows, nil
}

func strPtr(s string) *string { return &s }

func newReportCardFixture() (*ReportCardService, *mockSnapshotStore, *mockAggregator) {
	students := &mockStudentReader{
		students: map[string]*models.Student{
			"student-1": {ID: "student-1", UserID: strPtr("user-1"), FullName: "Budi Santoso", NIS: "1001"},
		},
	}
	classrooms := &mockClassroomReader{
		classrooms: map[string]*models.ClassroomDetail{
			"classroom-1": {
				Classroom: models.Classroom{ID: "classroom-1", Name: "Paket C Kelas 10"},
				LevelName: "Paket C",
				Track:     models.TrackConventional,
			},
		},
	}
	years := &mockYearReader{
		years: map[string]*models.AcademicYear{
			"year-1": {ID: "year-1", Name: "2024/2025", IsActive: true},
		},
	}
	years.active = years.years["year-1"]
	aggregate := &mockAggregator{
		doc: models.ScoreDocument{
			Track:    models.TrackConventional,
			Subjects: []models.SubjectScore{{SubjectName: "Matematika", Score: 80}},
		},
		gpa: 80,
	}
	store := &mockSnapshotStore{}
	cache := NewSnapshotCache(nil, time.Minute, false, nil, zap.NewNop())
	svc := NewReportCardService(students, classrooms, years, aggregate, store, cache, nil, nil, zap.NewNop())
	return svc, store, aggregate
}

func generateRequest(force bool) GenerateReportCardRequest {
	return GenerateReportCardRequest{
		StudentID:      "student-1",
		ClassroomID:    "classroom-1",
		AcademicYearID: "year-1",
		Semester:       models.SemesterGanjil,
		Force:          force,
	}
}

func TestGenerateCreatesDraftSnapshot(t *testing.T) {
	svc, store, _ := newReportCardFixture()

	card, err := svc.Generate(context.Background(), generateRequest(false))
	require.NoError(t, err)
	assert.Equal(t, models.ReportCardDraft, card.Status)
	assert.InDelta(t, 80.0, card.GPA, 0.001)
	assert.Len(t, store.cards, 1)
}

func TestGenerateIsIdempotentPerKey(t *testing.T) {
	svc, store, _ := newReportCardFixture()
	ctx := context.Background()

	first, err := svc.Generate(ctx, generateRequest(false))
	require.NoError(t, err)
	second, err := svc.Generate(ctx, generateRequest(false))
	require.NoError(t, err)

	assert.Len(t, store.cards, 1)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 2, store.upserts)
}

func TestGenerateRejectsFinalizedWithoutForce(t *testing.T) {
	svc, _, aggregate := newReportCardFixture()
	ctx := context.Background()

	_, err := svc.Generate(ctx, generateRequest(false))
	require.NoError(t, err)
	require.NoError(t, svc.Finalize(ctx, testKey()))

	callsBefore := aggregate.calls
	_, err = svc.Generate(ctx, generateRequest(false))
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrFinalized.Code, appErr.Code)
	assert.Equal(t, callsBefore, aggregate.calls, "finalized snapshot must not be re-aggregated")
}

func TestGenerateForceOverwritesFinalizedButKeepsStatus(t *testing.T) {
	svc, _, aggregate := newReportCardFixture()
	ctx := context.Background()

	_, err := svc.Generate(ctx, generateRequest(false))
	require.NoError(t, err)
	require.NoError(t, svc.Finalize(ctx, testKey()))

	aggregate.gpa = 91.5
	card, err := svc.Generate(ctx, generateRequest(true))
	require.NoError(t, err)
	assert.InDelta(t, 91.5, card.GPA, 0.001)
	assert.Equal(t, models.ReportCardFinalized, card.Status, "generation never writes status")
}

func TestFinalizeIsOneWay(t *testing.T) {
	svc, _, _ := newReportCardFixture()
	ctx := context.Background()

	_, err := svc.Generate(ctx, generateRequest(false))
	require.NoError(t, err)

	require.NoError(t, svc.Finalize(ctx, testKey()))

	err = svc.Finalize(ctx, testKey())
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrFinalized.Code, appErr.Code)
}

func TestFinalizeMissingSnapshotIsNotFound(t *testing.T) {
	svc, _, _ := newReportCardFixture()

	err := svc.Finalize(context.Background(), testKey())
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestGenerateBatchSkipsStudentsWithoutAccount(t *testing.T) {
	svc, store, _ := newReportCardFixture()
	students := svc.students.(*mockStudentReader)
	students.roster = []models.Student{
		{ID: "student-1", UserID: strPtr("user-1"), FullName: "Budi Santoso"},
		{ID: "student-2", FullName: "Siti Aminah"}, // no linked account
	}
	students.students["student-2"] = &students.roster[1]

	result, err := svc.GenerateBatch(context.Background(), BatchGenerateRequest{
		ClassroomID:    "classroom-1",
		AcademicYearID: "year-1",
		Semester:       models.SemesterGanjil,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"student-1"}, result.Generated)
	assert.Equal(t, []string{"student-2"}, result.Skipped)
	assert.Len(t, store.cards, 1)
}

func TestGenerateBatchSkipsFinalizedSnapshots(t *testing.T) {
	svc, _, _ := newReportCardFixture()
	ctx := context.Background()
	students := svc.students.(*mockStudentReader)
	students.roster = []models.Student{
		{ID: "student-1", UserID: strPtr("user-1"), FullName: "Budi Santoso"},
	}

	_, err := svc.Generate(ctx, generateRequest(false))
	require.NoError(t, err)
	require.NoError(t, svc.Finalize(ctx, testKey()))

	result, err := svc.GenerateBatch(ctx, BatchGenerateRequest{
		ClassroomID:    "classroom-1",
		AcademicYearID: "year-1",
		Semester:       models.SemesterGanjil,
	})
	require.NoError(t, err)
	assert.Empty(t, result.Generated)
	assert.Equal(t, []string{"student-1"}, result.Skipped)
}

func TestPreviewMissingSnapshotIsNotFound(t *testing.T) {
	svc, _, _ := newReportCardFixture()

	_, err := svc.Preview(context.Background(), testKey())
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestGenerateUnknownClassroomIsNotFound(t *testing.T) {
	svc, _, _ := newReportCardFixture()

	req := generateRequest(false)
	req.ClassroomID = "missing"
	_, err := svc.Generate(context.Background(), req)
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}
