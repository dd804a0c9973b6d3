package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/pkbm-digital/rapor-api/internal/models"
	appErrors "github.com/pkbm-digital/rapor-api/pkg/errors"
)

type studentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	ListByClassroom(ctx context.Context, classroomID, academicYearID string) ([]models.Student, error)
}

type classroomReader interface {
	FindByID(ctx context.Context, id string) (*models.ClassroomDetail, error)
}

type academicYearReader interface {
	FindByID(ctx context.Context, id string) (*models.AcademicYear, error)
	FindActive(ctx context.Context) (*models.AcademicYear, error)
}

type aggregator interface {
	Aggregate(ctx context.Context, key models.ReportCardKey, track models.CurriculumTrack) (models.ScoreDocument, float64, error)
}

type snapshotStore interface {
	FindByKey(ctx context.Context, key models.ReportCardKey) (*models.ReportCard, error)
	Upsert(ctx context.Context, card *models.ReportCard) error
	Finalize(ctx context.Context, key models.ReportCardKey) (bool, error)
	Delete(ctx context.Context, key models.ReportCardKey) error
	ListRecap(ctx context.Context, classroomID, academicYearID string, semester models.Semester) ([]models.ReportCardRecapRow, error)
}

// GenerateReportCardRequest identifies one snapshot to (re)generate.
type GenerateReportCardRequest struct {
	StudentID      string          `json:"student_id" validate:"required"`
	ClassroomID    string          `json:"classroom_id" validate:"required"`
	AcademicYearID string          `json:"academic_year_id" validate:"required"`
	Semester       models.Semester `json:"semester" validate:"required"`
	Force          bool            `json:"force"`
	Notes          models.ReportCardNotes
}

// BatchGenerateRequest triggers generation for every student in a classroom.
type BatchGenerateRequest struct {
	ClassroomID    string          `json:"classroom_id" validate:"required"`
	AcademicYearID string          `json:"academic_year_id" validate:"required"`
	Semester       models.Semester `json:"semester" validate:"required"`
	Force          bool            `json:"force"`
}

// ReportCardService orchestrates the aggregate -> upsert pipeline and the
// snapshot workflow transitions.
type ReportCardService struct {
	students   studentReader
	classrooms classroomReader
	years      academicYearReader
	aggregate  aggregator
	snapshots  snapshotStore
	cache      *SnapshotCache
	metrics    *MetricsService
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewReportCardService constructs ReportCardService.
func NewReportCardService(students studentReader, classrooms classroomReader, years academicYearReader, aggregate aggregator, snapshots snapshotStore, cache *SnapshotCache, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *ReportCardService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportCardService{
		students:   students,
		classrooms: classrooms,
		years:      years,
		aggregate:  aggregate,
		snapshots:  snapshots,
		cache:      cache,
		metrics:    metrics,
		validator:  validate,
		logger:     logger,
	}
}

// ActiveAcademicYear resolves the active year once at the request boundary;
// services below this point always receive the id explicitly.
func (s *ReportCardService) ActiveAcademicYear(ctx context.Context) (*models.AcademicYear, error) {
	year, err := s.years.FindActive(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no active academic year")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve active academic year")
	}
	return year, nil
}

// Generate runs aggregation for one student and upserts the snapshot.
// A finalized snapshot is only overwritten when the request forces it.
func (s *ReportCardService) Generate(ctx context.Context, req GenerateReportCardRequest) (*models.ReportCard, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid generate payload")
	}
	if !req.Semester.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "semester must be ganjil or genap")
	}
	classroom, err := s.loadClassroom(ctx, req.ClassroomID)
	if err != nil {
		return nil, err
	}
	student, err := s.loadStudent(ctx, req.StudentID)
	if err != nil {
		return nil, err
	}
	if _, err := s.loadYear(ctx, req.AcademicYearID); err != nil {
		return nil, err
	}
	return s.generateOne(ctx, student, classroom, req.AcademicYearID, req.Semester, req.Force, req.Notes)
}

// GenerateBatch iterates a classroom sequentially, one aggregate+upsert per
// student. Students without a linked user account are skipped, not retried.
func (s *ReportCardService) GenerateBatch(ctx context.Context, req BatchGenerateRequest) (*models.BatchGenerateResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid batch payload")
	}
	if !req.Semester.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "semester must be ganjil or genap")
	}
	classroom, err := s.loadClassroom(ctx, req.ClassroomID)
	if err != nil {
		return nil, err
	}
	if _, err := s.loadYear(ctx, req.AcademicYearID); err != nil {
		return nil, err
	}
	students, err := s.students.ListByClassroom(ctx, req.ClassroomID, req.AcademicYearID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classroom students")
	}

	result := &models.BatchGenerateResult{}
	for i := range students {
		student := students[i]
		if student.UserID == nil || *student.UserID == "" {
			s.logger.Debug("skipping student without user account", zap.String("student_id", student.ID))
			result.Skipped = append(result.Skipped, student.ID)
			continue
		}
		if _, err := s.generateOne(ctx, &student, classroom, req.AcademicYearID, req.Semester, req.Force, models.ReportCardNotes{}); err != nil {
			var appErr *appErrors.Error
			if errors.As(err, &appErr) && appErr.Code == appErrors.ErrFinalized.Code {
				result.Skipped = append(result.Skipped, student.ID)
				continue
			}
			return nil, err
		}
		result.Generated = append(result.Generated, student.ID)
	}
	return result, nil
}

// Preview returns the persisted snapshot, cache-aside.
func (s *ReportCardService) Preview(ctx context.Context, key models.ReportCardKey) (*models.ReportCard, error) {
	cacheKey := snapshotCacheKey(key)
	var cached models.ReportCard
	if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
		return &cached, nil
	}
	card, err := s.snapshots.FindByKey(ctx, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report card not generated yet")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report card")
	}
	s.cache.Set(ctx, cacheKey, card)
	return card, nil
}

// Finalize performs the one-way draft -> finalized transition.
func (s *ReportCardService) Finalize(ctx context.Context, key models.ReportCardKey) error {
	ok, err := s.snapshots.Finalize(ctx, key)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to finalize report card")
	}
	if !ok {
		if _, err := s.snapshots.FindByKey(ctx, key); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, "report card not generated yet")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report card")
		}
		return appErrors.Clone(appErrors.ErrFinalized, "report card already finalized")
	}
	s.cache.Invalidate(ctx, snapshotCacheKey(key))
	return nil
}

// Delete removes a snapshot. Explicit admin action on the whole record.
func (s *ReportCardService) Delete(ctx context.Context, key models.ReportCardKey) error {
	if err := s.snapshots.Delete(ctx, key); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete report card")
	}
	s.cache.Invalidate(ctx, snapshotCacheKey(key))
	return nil
}

func (s *ReportCardService) generateOne(ctx context.Context, student *models.Student, classroom *models.ClassroomDetail, academicYearID string, semester models.Semester, force bool, notes models.ReportCardNotes) (*models.ReportCard, error) {
	key := models.ReportCardKey{
		StudentID:      student.ID,
		ClassroomID:    classroom.ID,
		AcademicYearID: academicYearID,
		Semester:       semester,
	}

	existing, err := s.snapshots.FindByKey(ctx, key)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to inspect existing report card")
	}
	if existing != nil && existing.Status == models.ReportCardFinalized && !force {
		return nil, appErrors.Clone(appErrors.ErrFinalized, "report card finalized; regenerate with force to overwrite")
	}

	doc, gpa, err := s.aggregate.Aggregate(ctx, key, classroom.Track)
	if err != nil {
		return nil, err
	}

	card := &models.ReportCard{
		StudentID:      key.StudentID,
		ClassroomID:    key.ClassroomID,
		AcademicYearID: key.AcademicYearID,
		Semester:       key.Semester,
		Scores:         doc,
		GPA:            gpa,
		TeacherNote:    notes.TeacherNote,
		PrincipalNote:  notes.PrincipalNote,
		CharacterNote:  notes.CharacterNote,
	}
	if existing != nil {
		card.ID = existing.ID
	}
	if err := s.snapshots.Upsert(ctx, card); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save report card")
	}
	s.cache.Invalidate(ctx, snapshotCacheKey(key))
	if s.metrics != nil {
		s.metrics.RecordReportGenerated(classroom.Track)
	}

	saved, err := s.snapshots.FindByKey(ctx, key)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload report card")
	}
	return saved, nil
}

func (s *ReportCardService) loadClassroom(ctx context.Context, id string) (*models.ClassroomDetail, error) {
	classroom, err := s.classrooms.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "classroom not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load classroom")
	}
	return classroom, nil
}

func (s *ReportCardService) loadStudent(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.students.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

func (s *ReportCardService) loadYear(ctx context.Context, id string) (*models.AcademicYear, error) {
	year, err := s.years.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "academic year not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load academic year")
	}
	return year, nil
}

func snapshotCacheKey(key models.ReportCardKey) string {
	return fmt.Sprintf("rapor:%s:%s:%s:%s", key.StudentID, key.ClassroomID, key.AcademicYearID, key.Semester)
}
