package service

import (
	"context"
	"database/sql"
	"errors"
	"math"

	"go.uber.org/zap"

	"github.com/pkbm-digital/rapor-api/internal/models"
	appErrors "github.com/pkbm-digital/rapor-api/pkg/errors"
)

type scoreReader interface {
	ListForReport(ctx context.Context, studentID, classroomID, academicYearID string) ([]models.ScoreRow, error)
}

type competencyReader interface {
	ListForReport(ctx context.Context, studentID, academicYearID string, semester models.Semester) ([]models.CompetencyRow, error)
}

type p5Reader interface {
	ListForReport(ctx context.Context, studentID, academicYearID string, semester models.Semester) ([]models.P5Row, error)
}

type extracurricularReader interface {
	ListForReport(ctx context.Context, studentID, academicYearID string, semester models.Semester) ([]models.ExtracurricularRow, error)
}

type reportAttendanceReader interface {
	FindByKey(ctx context.Context, key models.ReportCardKey) (*models.ReportAttendance, error)
}

// AggregateService reduces raw assessment records into a report card
// snapshot document. Pure read; persistence is the snapshot service's job.
type AggregateService struct {
	scores          scoreReader
	competencies    competencyReader
	p5              p5Reader
	extracurricular extracurricularReader
	attendance      reportAttendanceReader
	logger          *zap.Logger
}

// NewAggregateService constructs AggregateService.
func NewAggregateService(scores scoreReader, competencies competencyReader, p5 p5Reader, extracurricular extracurricularReader, attendance reportAttendanceReader, logger *zap.Logger) *AggregateService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AggregateService{
		scores:          scores,
		competencies:    competencies,
		p5:              p5,
		extracurricular: extracurricular,
		attendance:      attendance,
		logger:          logger,
	}
}

// Aggregate builds the snapshot document for the key on the given track.
// Missing raw data is not an error: the result is simply empty, so an
// incomplete report card can still be produced and edited further.
func (s *AggregateService) Aggregate(ctx context.Context, key models.ReportCardKey, track models.CurriculumTrack) (models.ScoreDocument, float64, error) {
	switch track {
	case models.TrackConventional:
		return s.aggregateConventional(ctx, key)
	case models.TrackMerdeka:
		return s.aggregateMerdeka(ctx, key)
	default:
		return models.ScoreDocument{}, 0, appErrors.Clone(appErrors.ErrValidation, "unknown curriculum track")
	}
}

// aggregateConventional averages category scores per subject and derives the
// GPA as the mean of subject averages. Scores are not scoped by semester and
// category weights are not applied.
func (s *AggregateService) aggregateConventional(ctx context.Context, key models.ReportCardKey) (models.ScoreDocument, float64, error) {
	rows, err := s.scores.ListForReport(ctx, key.StudentID, key.ClassroomID, key.AcademicYearID)
	if err != nil {
		return models.ScoreDocument{}, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load scores")
	}

	type bucket struct {
		name  string
		sum   float64
		count int
	}
	order := make([]string, 0)
	buckets := make(map[string]*bucket)
	for _, row := range rows {
		b, ok := buckets[row.SubjectID]
		if !ok {
			b = &bucket{name: row.SubjectName}
			buckets[row.SubjectID] = b
			order = append(order, row.SubjectID)
		}
		b.sum += row.Value
		b.count++
	}

	subjects := make([]models.SubjectScore, 0, len(order))
	total := 0.0
	for _, id := range order {
		b := buckets[id]
		if b.count == 0 {
			// a subject with no recorded scores never contributes a zero
			continue
		}
		avg := round2(b.sum / float64(b.count))
		subjects = append(subjects, models.SubjectScore{SubjectName: b.name, Score: avg})
		total += avg
	}

	gpa := 0.0
	if len(subjects) > 0 {
		gpa = round2(total / float64(len(subjects)))
	}

	doc := models.ScoreDocument{Track: models.TrackConventional, Subjects: subjects}
	return doc, gpa, nil
}

// aggregateMerdeka collects competency, P5 and extracurricular assessments
// plus the absence summary. All of these are semester-scoped. No GPA exists
// on this track.
func (s *AggregateService) aggregateMerdeka(ctx context.Context, key models.ReportCardKey) (models.ScoreDocument, float64, error) {
	competencies, err := s.competencies.ListForReport(ctx, key.StudentID, key.AcademicYearID, key.Semester)
	if err != nil {
		return models.ScoreDocument{}, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load competency assessments")
	}
	if competencies == nil {
		competencies = []models.CompetencyRow{}
	}

	p5Rows, err := s.p5.ListForReport(ctx, key.StudentID, key.AcademicYearID, key.Semester)
	if err != nil {
		return models.ScoreDocument{}, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load p5 assessments")
	}
	if p5Rows == nil {
		p5Rows = []models.P5Row{}
	}

	extra, err := s.extracurricular.ListForReport(ctx, key.StudentID, key.AcademicYearID, key.Semester)
	if err != nil {
		return models.ScoreDocument{}, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load extracurricular assessments")
	}
	if extra == nil {
		extra = []models.ExtracurricularRow{}
	}

	summary := models.AttendanceSummary{}
	attendance, err := s.attendance.FindByKey(ctx, key)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return models.ScoreDocument{}, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance summary")
		}
		// no summary row means zero absences, not an error
	} else {
		summary = models.AttendanceSummary{
			Sick:       attendance.Sick,
			Permission: attendance.Permission,
			Absent:     attendance.Absent,
		}
	}

	doc := models.ScoreDocument{
		Track: models.TrackMerdeka,
		Merdeka: &models.MerdekaBlock{
			Competencies:    competencies,
			P5:              p5Rows,
			Extracurricular: extra,
			Attendance:      summary,
		},
	}
	return doc, 0, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
