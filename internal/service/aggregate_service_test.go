package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pkbm-digital/rapor-api/internal/models"
)

type mockScoreReader struct {
	rows []models.ScoreRow
	err  error
}

func (m *mockScoreReader) ListForReport(ctx context.Context, studentID, classroomID, academicYearID string) ([]models.ScoreRow, error) {
	return m.rows, m.err
}

type mockCompetencyReader struct {
	rows []models.CompetencyRow
}

func (m *mockCompetencyReader) ListForReport(ctx context.Context, studentID, academicYearID string, semester models.Semester) ([]models.CompetencyRow, error) {
	return m.rows, nil
}

type mockP5Reader struct {
	rows []models.P5Row
}

func (m *mockP5Reader) ListForReport(ctx context.Context, studentID, academicYearID string, semester models.Semester) ([]models.P5Row, error) {
	return m.rows, nil
}

type mockExtracurricularReader struct {
	rows []models.ExtracurricularRow
}

func (m *mockExtracurricularReader) ListForReport(ctx context.Context, studentID, academicYearID string, semester models.Semester) ([]models.ExtracurricularRow, error) {
	return m.rows, nil
}

type mockAttendanceReader struct {
	record *models.ReportAttendance
}

func (m *mockAttendanceReader) FindByKey(ctx context.Context, key models.ReportCardKey) (*models.ReportAttendance, error) {
	if m.record == nil {
		return nil, sql.ErrNoRows
	}
	return m.record, nil
}

func newAggregateService(scores *mockScoreReader, attendance *mockAttendanceReader, competencies *mockCompetencyReader, p5 *mockP5Reader, extra *mockExtracurricularReader) *AggregateService {
	if scores == nil {
		scores = &mockScoreReader{}
	}
	if attendance == nil {
		attendance = &mockAttendanceReader{}
	}
	if competencies == nil {
		competencies = &mockCompetencyReader{}
	}
	if p5 == nil {
		p5 = &mockP5Reader{}
	}
	if extra == nil {
		extra = &mockExtracurricularReader{}
	}
	return NewAggregateService(scores, competencies, p5, extra, attendance, zap.NewNop())
}

func testKey() models.ReportCardKey {
	return models.ReportCardKey{
		StudentID:      "student-1",
		ClassroomID:    "classroom-1",
		AcademicYearID: "year-1",
		Semester:       models.SemesterGanjil,
	}
}

func TestAggregateConventionalAveragesPerSubject(t *testing.T) {
	scores := &mockScoreReader{rows: []models.ScoreRow{
		{SubjectID: "mat", SubjectName: "Matematika", CategoryName: "Tugas", Value: 80},
		{SubjectID: "mat", SubjectName: "Matematika", CategoryName: "UTS", Value: 90},
		{SubjectID: "mat", SubjectName: "Matematika", CategoryName: "UAS", Value: 70},
	}}
	svc := newAggregateService(scores, nil, nil, nil, nil)

	doc, gpa, err := svc.Aggregate(context.Background(), testKey(), models.TrackConventional)
	require.NoError(t, err)
	require.Len(t, doc.Subjects, 1)
	assert.Equal(t, "Matematika", doc.Subjects[0].SubjectName)
	assert.InDelta(t, 80.0, doc.Subjects[0].Score, 0.001)
	assert.InDelta(t, 80.0, gpa, 0.001)
}

func TestAggregateConventionalGPAIsMeanOfSubjectMeans(t *testing.T) {
	scores := &mockScoreReader{rows: []models.ScoreRow{
		{SubjectID: "mat", SubjectName: "Matematika", CategoryName: "Tugas", Value: 80},
		{SubjectID: "ind", SubjectName: "Bahasa Indonesia", CategoryName: "Tugas", Value: 70},
	}}
	svc := newAggregateService(scores, nil, nil, nil, nil)

	doc, gpa, err := svc.Aggregate(context.Background(), testKey(), models.TrackConventional)
	require.NoError(t, err)
	require.Len(t, doc.Subjects, 2)
	assert.Equal(t, models.TrackConventional, doc.Track)
	assert.InDelta(t, 75.0, gpa, 0.001)
}

func TestAggregateConventionalRoundsToTwoDecimals(t *testing.T) {
	// 247/3 = 82.333...
	scores := &mockScoreReader{rows: []models.ScoreRow{
		{SubjectID: "mat", SubjectName: "Matematika", CategoryName: "Tugas", Value: 80},
		{SubjectID: "mat", SubjectName: "Matematika", CategoryName: "UTS", Value: 85},
		{SubjectID: "mat", SubjectName: "Matematika", CategoryName: "UAS", Value: 82},
	}}
	svc := newAggregateService(scores, nil, nil, nil, nil)

	doc, gpa, err := svc.Aggregate(context.Background(), testKey(), models.TrackConventional)
	require.NoError(t, err)
	assert.Equal(t, 82.33, doc.Subjects[0].Score)
	assert.Equal(t, 82.33, gpa)
}

func TestAggregateConventionalNoScoresYieldsEmptyDocument(t *testing.T) {
	svc := newAggregateService(&mockScoreReader{}, nil, nil, nil, nil)

	doc, gpa, err := svc.Aggregate(context.Background(), testKey(), models.TrackConventional)
	require.NoError(t, err)
	assert.Empty(t, doc.Subjects)
	assert.Zero(t, gpa)
}

func TestAggregateConventionalPreservesSubjectOrder(t *testing.T) {
	scores := &mockScoreReader{rows: []models.ScoreRow{
		{SubjectID: "ipa", SubjectName: "IPA", CategoryName: "Tugas", Value: 75},
		{SubjectID: "mat", SubjectName: "Matematika", CategoryName: "Tugas", Value: 85},
		{SubjectID: "ipa", SubjectName: "IPA", CategoryName: "UTS", Value: 85},
	}}
	svc := newAggregateService(scores, nil, nil, nil, nil)

	doc, _, err := svc.Aggregate(context.Background(), testKey(), models.TrackConventional)
	require.NoError(t, err)
	require.Len(t, doc.Subjects, 2)
	assert.Equal(t, "IPA", doc.Subjects[0].SubjectName)
	assert.Equal(t, "Matematika", doc.Subjects[1].SubjectName)
	assert.InDelta(t, 80.0, doc.Subjects[0].Score, 0.001)
}

func TestAggregateMerdekaCollectsAllBlocks(t *testing.T) {
	competencies := &mockCompetencyReader{rows: []models.CompetencyRow{
		{SubjectName: "Matematika", Level: models.CompetencyBSH, Description: "Memahami operasi hitung"},
	}}
	p5 := &mockP5Reader{rows: []models.P5Row{
		{ProjectName: "Kearifan Lokal", Dimension: "Kreativitas", Level: models.CompetencySB, Description: "Sangat aktif"},
	}}
	extra := &mockExtracurricularReader{rows: []models.ExtracurricularRow{
		{ActivityName: "Pramuka", Level: models.CompetencyBSH, Description: "Disiplin"},
	}}
	attendance := &mockAttendanceReader{record: &models.ReportAttendance{Sick: 2, Permission: 1, Absent: 0}}
	svc := newAggregateService(nil, attendance, competencies, p5, extra)

	doc, gpa, err := svc.Aggregate(context.Background(), testKey(), models.TrackMerdeka)
	require.NoError(t, err)
	require.NotNil(t, doc.Merdeka)
	assert.Equal(t, models.TrackMerdeka, doc.Track)
	assert.Zero(t, gpa)
	assert.Len(t, doc.Merdeka.Competencies, 1)
	assert.Len(t, doc.Merdeka.P5, 1)
	assert.Len(t, doc.Merdeka.Extracurricular, 1)
	assert.Equal(t, 2, doc.Merdeka.Attendance.Sick)
	assert.Equal(t, 1, doc.Merdeka.Attendance.Permission)
}

func TestAggregateMerdekaP5WithoutCompetencies(t *testing.T) {
	p5 := &mockP5Reader{rows: []models.P5Row{
		{ProjectName: "Kearifan Lokal", Dimension: "Gotong Royong", Level: models.CompetencySB},
	}}
	svc := newAggregateService(nil, nil, nil, p5, nil)

	doc, _, err := svc.Aggregate(context.Background(), testKey(), models.TrackMerdeka)
	require.NoError(t, err)
	require.NotNil(t, doc.Merdeka)
	assert.NotNil(t, doc.Merdeka.Competencies)
	assert.Empty(t, doc.Merdeka.Competencies)
	require.Len(t, doc.Merdeka.P5, 1)
	assert.Equal(t, models.CompetencySB, doc.Merdeka.P5[0].Level)
}

func TestAggregateMerdekaMissingAttendanceDefaultsToZero(t *testing.T) {
	svc := newAggregateService(nil, &mockAttendanceReader{}, nil, nil, nil)

	doc, _, err := svc.Aggregate(context.Background(), testKey(), models.TrackMerdeka)
	require.NoError(t, err)
	require.NotNil(t, doc.Merdeka)
	assert.Zero(t, doc.Merdeka.Attendance.Sick)
	assert.Zero(t, doc.Merdeka.Attendance.Permission)
	assert.Zero(t, doc.Merdeka.Attendance.Absent)
}

func TestAggregateUnknownTrackFails(t *testing.T) {
	svc := newAggregateService(nil, nil, nil, nil, nil)

	_, _, err := svc.Aggregate(context.Background(), testKey(), models.CurriculumTrack("k13"))
	assert.Error(t, err)
}
