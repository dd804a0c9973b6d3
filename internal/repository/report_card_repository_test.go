package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/pkbm-digital/rapor-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func repoTestKey() models.ReportCardKey {
	return models.ReportCardKey{
		StudentID:      "student-1",
		ClassroomID:    "classroom-1",
		AcademicYearID: "year-1",
		Semester:       models.SemesterGanjil,
	}
}

func TestReportCardRepositoryFindByKey(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewReportCardRepository(db)
	scores := []byte(`{"track":"conventional","subjects":[{"subject_name":"Matematika","score":80}]}`)
	rows := sqlmock.NewRows([]string{"id", "student_id", "classroom_id", "academic_year_id", "semester", "scores", "gpa", "teacher_note", "principal_note", "character_note", "status", "created_at", "updated_at"}).
		AddRow("rc-1", "student-1", "classroom-1", "year-1", "ganjil", scores, 80.0, nil, nil, nil, "draft", time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, student_id, classroom_id, academic_year_id, semester, scores, gpa")).
		WithArgs("student-1", "classroom-1", "year-1", "ganjil").
		WillReturnRows(rows)

	card, err := repo.FindByKey(context.Background(), repoTestKey())
	require.NoError(t, err)
	require.Equal(t, "rc-1", card.ID)
	require.Equal(t, models.ReportCardDraft, card.Status)
	require.Equal(t, models.TrackConventional, card.Scores.Track)
	require.Len(t, card.Scores.Subjects, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportCardRepositoryUpsertGeneratesIDAndStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewReportCardRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO report_cards")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	card := &models.ReportCard{
		StudentID:      "student-1",
		ClassroomID:    "classroom-1",
		AcademicYearID: "year-1",
		Semester:       models.SemesterGanjil,
		Scores: models.ScoreDocument{
			Track:    models.TrackConventional,
			Subjects: []models.SubjectScore{{SubjectName: "Matematika", Score: 80}},
		},
		GPA: 80,
	}
	require.NoError(t, repo.Upsert(context.Background(), card))
	require.NotEmpty(t, card.ID)
	require.Equal(t, models.ReportCardDraft, card.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportCardRepositoryUpsertNeverWritesStatusOnConflict(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewReportCardRepository(db)
	// the conflict update set must not touch the status column
	mock.ExpectExec(`ON CONFLICT \(student_id, classroom_id, academic_year_id, semester\)[\s\S]*DO UPDATE SET scores = EXCLUDED\.scores`).
		WillReturnResult(sqlmock.NewResult(1, 1))

	card := &models.ReportCard{
		StudentID:      "student-1",
		ClassroomID:    "classroom-1",
		AcademicYearID: "year-1",
		Semester:       models.SemesterGanjil,
		Scores:         models.ScoreDocument{Track: models.TrackConventional},
	}
	require.NoError(t, repo.Upsert(context.Background(), card))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportCardRepositoryFinalize(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewReportCardRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE report_cards SET status = 'finalized'")).
		WithArgs(sqlmock.AnyArg(), "student-1", "classroom-1", "year-1", "ganjil").
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repo.Finalize(context.Background(), repoTestKey())
	require.NoError(t, err)
	require.True(t, ok)

	// already finalized: the guarded update matches no rows
	mock.ExpectExec(regexp.QuoteMeta("UPDATE report_cards SET status = 'finalized'")).
		WithArgs(sqlmock.AnyArg(), "student-1", "classroom-1", "year-1", "ganjil").
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err = repo.Finalize(context.Background(), repoTestKey())
	require.NoError(t, err)
	require.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportCardRepositoryListRecap(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewReportCardRepository(db)
	scores := []byte(`{"track":"conventional","subjects":[]}`)
	rows := sqlmock.NewRows([]string{"student_id", "student_name", "nis", "gpa", "status", "scores"}).
		AddRow("student-1", "Budi Santoso", "1001", 80.0, "finalized", scores).
		AddRow("student-2", "Siti Aminah", "1002", 75.5, "draft", scores)
	mock.ExpectQuery(regexp.QuoteMeta("FROM report_cards rc")).
		WithArgs("classroom-1", "year-1", "ganjil").
		WillReturnRows(rows)

	recap, err := repo.ListRecap(context.Background(), "classroom-1", "year-1", models.SemesterGanjil)
	require.NoError(t, err)
	require.Len(t, recap, 2)
	require.Equal(t, "Budi Santoso", recap[0].StudentName)
	require.Equal(t, models.ReportCardFinalized, recap[0].Status)
	require.NoError(t, mock.ExpectationsWereMet())
}
