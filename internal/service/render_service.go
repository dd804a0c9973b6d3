package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/pkbm-digital/rapor-api/internal/models"
	appErrors "github.com/pkbm-digital/rapor-api/pkg/errors"
	"github.com/pkbm-digital/rapor-api/pkg/render"
)

type raporRenderer interface {
	Render(template render.Template, data render.Data) ([]byte, error)
}

// RenderedDocument is a finished PDF plus its download filename.
type RenderedDocument struct {
	Filename string
	Content  []byte
}

// RenderService turns snapshots into print-ready PDFs. Template choice is a
// two-way branch on the classroom's curriculum track.
type RenderService struct {
	snapshots  snapshotStore
	students   studentReader
	classrooms classroomReader
	years      academicYearReader
	aggregate  aggregator
	renderer   raporRenderer
	metrics    *MetricsService
	logger     *zap.Logger
}

// NewRenderService constructs RenderService.
func NewRenderService(snapshots snapshotStore, students studentReader, classrooms classroomReader, years academicYearReader, aggregate aggregator, renderer raporRenderer, metrics *MetricsService, logger *zap.Logger) *RenderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RenderService{
		snapshots:  snapshots,
		students:   students,
		classrooms: classrooms,
		years:      years,
		aggregate:  aggregate,
		renderer:   renderer,
		metrics:    metrics,
		logger:     logger,
	}
}

// RenderSnapshot renders the persisted snapshot for the key. The snapshot
// must already exist; rendering never triggers aggregation.
func (s *RenderService) RenderSnapshot(ctx context.Context, key models.ReportCardKey) (*RenderedDocument, error) {
	card, err := s.snapshots.FindByKey(ctx, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report card not generated yet")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report card")
	}

	student, classroom, year, err := s.loadContext(ctx, key)
	if err != nil {
		return nil, err
	}

	data := s.buildData(card, student, classroom, year)
	content, err := s.render(classroom.Track, data)
	if err != nil {
		return nil, err
	}

	filename := fmt.Sprintf("rapor-%s-%s.pdf", slugify(student.FullName), key.Semester)
	return &RenderedDocument{Filename: filename, Content: content}, nil
}

// RenderSimulation aggregates on the fly and renders the result without
// touching the persisted snapshot. Used to preview a rapor before
// generating it.
func (s *RenderService) RenderSimulation(ctx context.Context, key models.ReportCardKey, notes models.ReportCardNotes) (*RenderedDocument, error) {
	student, classroom, year, err := s.loadContext(ctx, key)
	if err != nil {
		return nil, err
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

	data := s.buildData(card, student, classroom, year)
	content, err := s.render(classroom.Track, data)
	if err != nil {
		return nil, err
	}

	filename := fmt.Sprintf("simulasi-rapor-%s-%s.pdf", slugify(student.FullName), key.Semester)
	return &RenderedDocument{Filename: filename, Content: content}, nil
}

// TemplateFor maps a curriculum track to its rapor template.
func TemplateFor(track models.CurriculumTrack) render.Template {
	if track == models.TrackMerdeka {
		return render.TemplateMerdeka
	}
	return render.TemplateConventional
}

func (s *RenderService) render(track models.CurriculumTrack, data render.Data) ([]byte, error) {
	content, err := s.renderer.Render(TemplateFor(track), data)
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordRenderFailure()
		}
		s.logger.Error("rapor render failed", zap.String("track", string(track)), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrRenderFailed.Code, appErrors.ErrRenderFailed.Status, "failed to render report card")
	}
	return content, nil
}

func (s *RenderService) loadContext(ctx context.Context, key models.ReportCardKey) (*models.Student, *models.ClassroomDetail, *models.AcademicYear, error) {
	student, err := s.students.FindByID(ctx, key.StudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	classroom, err := s.classrooms.FindByID(ctx, key.ClassroomID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, nil, appErrors.Clone(appErrors.ErrNotFound, "classroom not found")
		}
		return nil, nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load classroom")
	}
	year, err := s.years.FindByID(ctx, key.AcademicYearID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, nil, appErrors.Clone(appErrors.ErrNotFound, "academic year not found")
		}
		return nil, nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load academic year")
	}
	return student, classroom, year, nil
}

func (s *RenderService) buildData(card *models.ReportCard, student *models.Student, classroom *models.ClassroomDetail, year *models.AcademicYear) render.Data {
	data := render.Data{
		StudentName:      student.FullName,
		NIS:              student.NIS,
		NISN:             student.NISN,
		ClassroomName:    classroom.Name,
		LevelName:        classroom.LevelName,
		AcademicYearName: year.Name,
		Semester:         semesterLabel(card.Semester),
		TeacherName:      classroom.TeacherName,
		GPA:              card.GPA,
		TeacherNote:      deref(card.TeacherNote),
		PrincipalNote:    deref(card.PrincipalNote),
		CharacterNote:    deref(card.CharacterNote),
	}

	for _, subject := range card.Scores.Subjects {
		data.Subjects = append(data.Subjects, render.SubjectLine{
			SubjectName: subject.SubjectName,
			Score:       subject.Score,
		})
	}

	if merdeka := card.Scores.Merdeka; merdeka != nil {
		for _, row := range merdeka.Competencies {
			data.Competencies = append(data.Competencies, render.CompetencyLine{
				SubjectName: row.SubjectName,
				Level:       string(row.Level),
				Description: row.Description,
			})
		}
		for _, row := range merdeka.P5 {
			data.P5 = append(data.P5, render.P5Line{
				ProjectName: row.ProjectName,
				Dimension:   row.Dimension,
				Level:       string(row.Level),
				Description: row.Description,
			})
		}
		for _, row := range merdeka.Extracurricular {
			data.Extracurricular = append(data.Extracurricular, render.ExtracurricularLine{
				ActivityName: row.ActivityName,
				Level:        string(row.Level),
				Description:  row.Description,
			})
		}
		data.Attendance = render.AttendanceLine{
			Sick:       merdeka.Attendance.Sick,
			Permission: merdeka.Attendance.Permission,
			Absent:     merdeka.Attendance.Absent,
		}
	}
	return data
}

func semesterLabel(semester models.Semester) string {
	switch semester {
	case models.SemesterGanjil:
		return "Ganjil"
	case models.SemesterGenap:
		return "Genap"
	default:
		return string(semester)
	}
}

func slugify(s string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
