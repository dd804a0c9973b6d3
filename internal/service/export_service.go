package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/pkbm-digital/rapor-api/internal/models"
	"github.com/pkbm-digital/rapor-api/internal/repository"
	appErrors "github.com/pkbm-digital/rapor-api/pkg/errors"
	"github.com/pkbm-digital/rapor-api/pkg/export"
	"github.com/pkbm-digital/rapor-api/pkg/jobs"
)

type exportJobStore interface {
	Create(ctx context.Context, job *models.ExportJob) error
	GetByID(ctx context.Context, id string) (*models.ExportJob, error)
	Update(ctx context.Context, id string, params repository.UpdateExportJobParams) error
	ListQueued(ctx context.Context, limit int) ([]models.ExportJob, error)
}

type documentStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type urlSigner interface {
	Generate(jobID, relPath string) (string, time.Time, error)
	Parse(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error)
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// CreateExportJobRequest scopes one classroom recap export.
type CreateExportJobRequest struct {
	ClassroomID    string              `json:"classroom_id" validate:"required"`
	AcademicYearID string              `json:"academic_year_id" validate:"required"`
	Semester       models.Semester     `json:"semester" validate:"required"`
	Format         models.ExportFormat `json:"format" validate:"required"`
	CreatedBy      string              `json:"-"`
}

// ExportDownload is a resolved signed download.
type ExportDownload struct {
	File     *os.File
	Filename string
	Format   models.ExportFormat
}

// ExportService owns the async classroom recap pipeline: queue a job, render
// the recap in a worker, store the file and hand out signed download URLs.
type ExportService struct {
	jobs       exportJobStore
	snapshots  snapshotStore
	classrooms classroomReader
	storage    documentStorage
	signer     urlSigner
	queue      jobEnqueuer
	csv        *export.CSVExporter
	pdf        *export.PDFExporter
	metrics    *MetricsService
	validator  *validator.Validate
	logger     *zap.Logger
	resultTTL  time.Duration
}

// NewExportService constructs ExportService. The queue is attached later via
// SetQueue because the queue's handler is this service.
func NewExportService(jobStore exportJobStore, snapshots snapshotStore, classrooms classroomReader, storage documentStorage, signer urlSigner, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, resultTTL time.Duration) *ExportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if resultTTL <= 0 {
		resultTTL = 24 * time.Hour
	}
	return &ExportService{
		jobs:       jobStore,
		snapshots:  snapshots,
		classrooms: classrooms,
		storage:    storage,
		signer:     signer,
		csv:        export.NewCSVExporter(),
		pdf:        export.NewPDFExporter(),
		metrics:    metrics,
		validator:  validate,
		logger:     logger,
		resultTTL:  resultTTL,
	}
}

// SetQueue wires the worker queue used for dispatching jobs.
func (s *ExportService) SetQueue(queue jobEnqueuer) {
	s.queue = queue
}

// CreateJob validates the request, persists the job row and enqueues it.
func (s *ExportService) CreateJob(ctx context.Context, req CreateExportJobRequest) (*models.ExportJob, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid export payload")
	}
	if !req.Semester.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "semester must be ganjil or genap")
	}
	if !req.Format.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
	if _, err := s.classrooms.FindByID(ctx, req.ClassroomID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "classroom not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load classroom")
	}

	job := &models.ExportJob{
		Params: models.ExportJobParams{
			ClassroomID:    req.ClassroomID,
			AcademicYearID: req.AcademicYearID,
			Semester:       req.Semester,
			Format:         req.Format,
		},
		Status:    models.ExportStatusQueued,
		CreatedBy: req.CreatedBy,
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create export job")
	}
	if err := s.queue.Enqueue(jobs.Job{ID: job.ID}); err != nil {
		s.logger.Error("failed to enqueue export job", zap.String("job_id", job.ID), zap.Error(err))
		msg := "queue unavailable"
		status := models.ExportStatusFailed
		_ = s.jobs.Update(ctx, job.ID, repository.UpdateExportJobParams{Status: &status, ErrorMessage: &msg})
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue export job")
	}
	return job, nil
}

// GetStatus returns the current job row.
func (s *ExportService) GetStatus(ctx context.Context, id string) (*models.ExportJob, error) {
	job, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load export job")
	}
	return job, nil
}

// ResolveDownload validates a signed token and opens the stored file.
func (s *ExportService) ResolveDownload(ctx context.Context, token string) (*ExportDownload, error) {
	jobID, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, "invalid or expired download token")
	}
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load export job")
	}
	if job.Status != models.ExportStatusFinished {
		return nil, appErrors.Clone(appErrors.ErrConflict, "export job is not finished")
	}
	file, err := s.storage.Open(relPath)
	if err != nil {
		if os.IsNotExist(errors.Unwrap(err)) || os.IsNotExist(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "export file expired")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open export file")
	}
	return &ExportDownload{
		File:     file,
		Filename: fmt.Sprintf("rekap-%s.%s", job.Params.ClassroomID, job.Params.Format),
		Format:   job.Params.Format,
	}, nil
}

// Handle is the queue handler: it renders and stores one recap export.
func (s *ExportService) Handle(ctx context.Context, qj jobs.Job) error {
	job, err := s.jobs.GetByID(ctx, qj.ID)
	if err != nil {
		return fmt.Errorf("load export job %s: %w", qj.ID, err)
	}
	if job.Status == models.ExportStatusFinished {
		return nil
	}

	processing := models.ExportStatusProcessing
	progress := 10
	if err := s.jobs.Update(ctx, job.ID, repository.UpdateExportJobParams{Status: &processing, Progress: &progress}); err != nil {
		return fmt.Errorf("mark export job processing: %w", err)
	}

	if err := s.process(ctx, job); err != nil {
		s.failJob(ctx, job.ID, err)
		return err
	}
	return nil
}

func (s *ExportService) process(ctx context.Context, job *models.ExportJob) error {
	rows, err := s.snapshots.ListRecap(ctx, job.Params.ClassroomID, job.Params.AcademicYearID, job.Params.Semester)
	if err != nil {
		return fmt.Errorf("load recap rows: %w", err)
	}

	classroom, err := s.classrooms.FindByID(ctx, job.Params.ClassroomID)
	if err != nil {
		return fmt.Errorf("load classroom: %w", err)
	}

	dataset := buildRecapDataset(rows, classroom.Track)

	var content []byte
	switch job.Params.Format {
	case models.ExportFormatCSV:
		content, err = s.csv.Render(dataset)
	case models.ExportFormatPDF:
		title := fmt.Sprintf("Rekap Rapor %s Semester %s", classroom.Name, semesterLabel(job.Params.Semester))
		content, err = s.pdf.Render(dataset, title)
	default:
		err = fmt.Errorf("unsupported export format %q", job.Params.Format)
	}
	if err != nil {
		return fmt.Errorf("render recap: %w", err)
	}

	relPath := fmt.Sprintf("exports/%s/%s.%s", job.ID, slugify(classroom.Name), job.Params.Format)
	if _, err := s.storage.Save(relPath, content); err != nil {
		return fmt.Errorf("store recap: %w", err)
	}

	token, _, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return fmt.Errorf("sign download url: %w", err)
	}
	resultURL := "/api/v1/exports/download?token=" + token

	finished := models.ExportStatusFinished
	progress := 100
	now := time.Now().UTC()
	if err := s.jobs.Update(ctx, job.ID, repository.UpdateExportJobParams{
		Status:     &finished,
		Progress:   &progress,
		ResultURL:  &resultURL,
		FinishedAt: &now,
	}); err != nil {
		return fmt.Errorf("mark export job finished: %w", err)
	}
	if s.metrics != nil {
		s.metrics.RecordExportJob(models.ExportStatusFinished)
	}
	s.logger.Info("export job finished",
		zap.String("job_id", job.ID),
		zap.String("classroom_id", job.Params.ClassroomID),
		zap.String("format", string(job.Params.Format)),
		zap.Int("rows", len(rows)))
	return nil
}

func (s *ExportService) failJob(ctx context.Context, id string, cause error) {
	failed := models.ExportStatusFailed
	msg := cause.Error()
	now := time.Now().UTC()
	if err := s.jobs.Update(ctx, id, repository.UpdateExportJobParams{
		Status:       &failed,
		ErrorMessage: &msg,
		FinishedAt:   &now,
	}); err != nil {
		s.logger.Error("failed to mark export job failed", zap.String("job_id", id), zap.Error(err))
	}
	if s.metrics != nil {
		s.metrics.RecordExportJob(models.ExportStatusFailed)
	}
}

// RecoverQueued re-enqueues jobs left QUEUED by a previous process.
func (s *ExportService) RecoverQueued(ctx context.Context) error {
	pending, err := s.jobs.ListQueued(ctx, 50)
	if err != nil {
		return fmt.Errorf("list queued export jobs: %w", err)
	}
	for _, job := range pending {
		if err := s.queue.Enqueue(jobs.Job{ID: job.ID}); err != nil {
			return fmt.Errorf("requeue export job %s: %w", job.ID, err)
		}
	}
	if len(pending) > 0 {
		s.logger.Info("recovered queued export jobs", zap.Int("count", len(pending)))
	}
	return nil
}

// StartCleanup periodically deletes stored exports older than the result TTL.
// Runs until the context is cancelled.
func (s *ExportService) StartCleanup(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				removed, err := s.storage.CleanupOlderThan(s.resultTTL)
				if err != nil {
					s.logger.Warn("export cleanup failed", zap.Error(err))
					continue
				}
				if len(removed) > 0 {
					s.logger.Info("cleaned up expired exports", zap.Int("count", len(removed)))
				}
			}
		}
	}()
}

func buildRecapDataset(rows []models.ReportCardRecapRow, track models.CurriculumTrack) export.Dataset {
	if track == models.TrackMerdeka {
		headers := []string{"No", "NIS", "Nama Peserta Didik", "Sakit", "Izin", "Tanpa Keterangan", "Status"}
		out := make([]map[string]string, 0, len(rows))
		for i, row := range rows {
			record := map[string]string{
				"No":                 strconv.Itoa(i + 1),
				"NIS":                row.NIS,
				"Nama Peserta Didik": row.StudentName,
				"Status":             string(row.Status),
			}
			if merdeka := row.Scores.Merdeka; merdeka != nil {
				record["Sakit"] = strconv.Itoa(merdeka.Attendance.Sick)
				record["Izin"] = strconv.Itoa(merdeka.Attendance.Permission)
				record["Tanpa Keterangan"] = strconv.Itoa(merdeka.Attendance.Absent)
			} else {
				record["Sakit"] = "0"
				record["Izin"] = "0"
				record["Tanpa Keterangan"] = "0"
			}
			out = append(out, record)
		}
		return export.Dataset{Headers: headers, Rows: out}
	}

	// conventional: one column per subject, in first-seen order across the
	// classroom, then the average
	headers := []string{"No", "NIS", "Nama Peserta Didik"}
	seen := make(map[string]bool)
	for _, row := range rows {
		for _, subject := range row.Scores.Subjects {
			if !seen[subject.SubjectName] {
				seen[subject.SubjectName] = true
				headers = append(headers, subject.SubjectName)
			}
		}
	}
	headers = append(headers, "Rata-rata", "Status")

	out := make([]map[string]string, 0, len(rows))
	for i, row := range rows {
		record := map[string]string{
			"No":                 strconv.Itoa(i + 1),
			"NIS":                row.NIS,
			"Nama Peserta Didik": row.StudentName,
			"Rata-rata":          fmt.Sprintf("%.2f", row.GPA),
			"Status":             string(row.Status),
		}
		for _, subject := range row.Scores.Subjects {
			record[subject.SubjectName] = fmt.Sprintf("%.2f", subject.Score)
		}
		out = append(out, record)
	}
	return export.Dataset{Headers: headers, Rows: out}
}
