package service

import (
	"context"
	"database/sql"
	"io"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pkbm-digital/rapor-api/internal/models"
	"github.com/pkbm-digital/rapor-api/internal/repository"
	"github.com/pkbm-digital/rapor-api/pkg/jobs"
	"github.com/pkbm-digital/rapor-api/pkg/storage"
)

type mockExportJobStore struct {
	rows map[string]*models.ExportJob
}

func (m *mockExportJobStore) Create(ctx context.Context, job *models.ExportJob) error {
	if m.rows == nil {
		m.rows = make(map[string]*models.ExportJob)
	}
	if job.ID == "" {
		job.ID = "job-1"
	}
	job.CreatedAt = time.Now()
	copied := *job
	m.rows[job.ID] = &copied
	return nil
}

func (m *mockExportJobStore) GetByID(ctx context.Context, id string) (*models.ExportJob, error) {
	if job, ok := m.rows[id]; ok {
		copied := *job
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockExportJobStore) Update(ctx context.Context, id string, params repository.UpdateExportJobParams) error {
	job, ok := m.rows[id]
	if !ok {
		return sql.ErrNoRows
	}
	if params.Status != nil {
		job.Status = *params.Status
	}
	if params.Progress != nil {
		job.Progress = *params.Progress
	}
	if params.ResultURL != nil {
		job.ResultURL = params.ResultURL
	}
	if params.ErrorMessage != nil {
		job.ErrorMessage = params.ErrorMessage
	}
	if params.FinishedAt != nil {
		job.FinishedAt = params.FinishedAt
	}
	return nil
}

func (m *mockExportJobStore) ListQueued(ctx context.Context, limit int) ([]models.ExportJob, error) {
	var queued []models.ExportJob
	for _, job := range m.rows {
		if job.Status == models.ExportStatusQueued {
			queued = append(queued, *job)
		}
	}
	return queued, nil
}

type captureQueue struct {
	enqueued []jobs.Job
}

func (q *captureQueue) Enqueue(job jobs.Job) error {
	q.enqueued = append(q.enqueued, job)
	return nil
}

func newExportFixture(t *testing.T) (*ExportService, *mockExportJobStore, *captureQueue, *mockSnapshotStore) {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("test-secret", time.Hour)

	snapshots := &mockSnapshotStore{
		cards: map[string]*models.ReportCard{
			snapshotMapKey(testKey()): {
				ID:             "rc-1",
				StudentID:      "student-1",
				ClassroomID:    "classroom-1",
				AcademicYearID: "year-1",
				Semester:       models.SemesterGanjil,
				Scores: models.ScoreDocument{
					Track:    models.TrackConventional,
					Subjects: []models.SubjectScore{{SubjectName: "Matematika", Score: 80}},
				},
				GPA:    80,
				Status: models.ReportCardFinalized,
			},
		},
	}
	classrooms := &mockClassroomReader{
		classrooms: map[string]*models.ClassroomDetail{
			"classroom-1": {
				Classroom: models.Classroom{ID: "classroom-1", Name: "Paket C Kelas 10"},
				Track:     models.TrackConventional,
			},
		},
	}
	jobStore := &mockExportJobStore{}
	queue := &captureQueue{}
	svc := NewExportService(jobStore, snapshots, classrooms, store, signer, nil, nil, zap.NewNop(), time.Hour)
	svc.SetQueue(queue)
	return svc, jobStore, queue, snapshots
}

func exportRequest(format models.ExportFormat) CreateExportJobRequest {
	return CreateExportJobRequest{
		ClassroomID:    "classroom-1",
		AcademicYearID: "year-1",
		Semester:       models.SemesterGanjil,
		Format:         format,
		CreatedBy:      "user-1",
	}
}

func TestCreateJobQueuesWork(t *testing.T) {
	svc, jobStore, queue, _ := newExportFixture(t)

	job, err := svc.CreateJob(context.Background(), exportRequest(models.ExportFormatCSV))
	require.NoError(t, err)
	assert.Equal(t, models.ExportStatusQueued, job.Status)
	require.Len(t, queue.enqueued, 1)
	assert.Equal(t, job.ID, queue.enqueued[0].ID)
	assert.Contains(t, jobStore.rows, job.ID)
}

func TestCreateJobRejectsUnknownFormat(t *testing.T) {
	svc, _, queue, _ := newExportFixture(t)

	_, err := svc.CreateJob(context.Background(), exportRequest(models.ExportFormat("xlsx")))
	require.Error(t, err)
	assert.Empty(t, queue.enqueued)
}

func TestHandleFinishesCSVExport(t *testing.T) {
	svc, jobStore, queue, _ := newExportFixture(t)
	ctx := context.Background()

	job, err := svc.CreateJob(ctx, exportRequest(models.ExportFormatCSV))
	require.NoError(t, err)

	require.NoError(t, svc.Handle(ctx, queue.enqueued[0]))

	finished := jobStore.rows[job.ID]
	assert.Equal(t, models.ExportStatusFinished, finished.Status)
	assert.Equal(t, 100, finished.Progress)
	require.NotNil(t, finished.ResultURL)
	assert.Contains(t, *finished.ResultURL, "/exports/download?token=")
	require.NotNil(t, finished.FinishedAt)
}

func TestHandleThenDownloadRoundTrip(t *testing.T) {
	svc, jobStore, queue, _ := newExportFixture(t)
	ctx := context.Background()

	job, err := svc.CreateJob(ctx, exportRequest(models.ExportFormatCSV))
	require.NoError(t, err)
	require.NoError(t, svc.Handle(ctx, queue.enqueued[0]))

	resultURL := *jobStore.rows[job.ID].ResultURL
	parsed, err := url.Parse(resultURL)
	require.NoError(t, err)
	token := parsed.Query().Get("token")
	require.NotEmpty(t, token)

	download, err := svc.ResolveDownload(ctx, token)
	require.NoError(t, err)
	defer download.File.Close()

	content, err := io.ReadAll(download.File)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(content), "Matematika"))
	assert.True(t, strings.Contains(string(content), "80.00"))
}

func TestResolveDownloadRejectsTamperedToken(t *testing.T) {
	svc, _, queue, _ := newExportFixture(t)
	ctx := context.Background()

	_, err := svc.CreateJob(ctx, exportRequest(models.ExportFormatCSV))
	require.NoError(t, err)
	require.NoError(t, svc.Handle(ctx, queue.enqueued[0]))

	_, err = svc.ResolveDownload(ctx, "job-1.9999999999.cGF0aA.deadbeef")
	assert.Error(t, err)
}

func TestHandleFinishesPDFExport(t *testing.T) {
	svc, jobStore, queue, _ := newExportFixture(t)
	ctx := context.Background()

	job, err := svc.CreateJob(ctx, exportRequest(models.ExportFormatPDF))
	require.NoError(t, err)
	require.NoError(t, svc.Handle(ctx, queue.enqueued[0]))

	assert.Equal(t, models.ExportStatusFinished, jobStore.rows[job.ID].Status)
}

func TestRecoverQueuedReenqueues(t *testing.T) {
	svc, jobStore, queue, _ := newExportFixture(t)
	ctx := context.Background()

	jobStore.rows = map[string]*models.ExportJob{
		"stale-1": {
			ID:     "stale-1",
			Status: models.ExportStatusQueued,
			Params: models.ExportJobParams{
				ClassroomID:    "classroom-1",
				AcademicYearID: "year-1",
				Semester:       models.SemesterGanjil,
				Format:         models.ExportFormatCSV,
			},
		},
	}
	require.NoError(t, svc.RecoverQueued(ctx))
	require.Len(t, queue.enqueued, 1)
	assert.Equal(t, "stale-1", queue.enqueued[0].ID)
}
