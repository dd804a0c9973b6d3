package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/pkbm-digital/rapor-api/internal/models"
)

// ReportCardRepository manages snapshot persistence. The snapshot is keyed
// uniquely by (student, classroom, academic year, semester).
type ReportCardRepository struct {
	db *sqlx.DB
}

// NewReportCardRepository constructs repository.
func NewReportCardRepository(db *sqlx.DB) *ReportCardRepository {
	return &ReportCardRepository{db: db}
}

// FindByKey fetches the snapshot for the composite key.
func (r *ReportCardRepository) FindByKey(ctx context.Context, key models.ReportCardKey) (*models.ReportCard, error) {
	const query = `SELECT id, student_id, classroom_id, academic_year_id, semester, scores, gpa,
            teacher_note, principal_note, character_note, status, created_at, updated_at
        FROM report_cards
        WHERE student_id = $1 AND classroom_id = $2 AND academic_year_id = $3 AND semester = $4`
	var card models.ReportCard
	if err := r.db.GetContext(ctx, &card, query, key.StudentID, key.ClassroomID, key.AcademicYearID, key.Semester); err != nil {
		return nil, err
	}
	return &card, nil
}

// Upsert writes the snapshot as a single atomic statement: insert as draft,
// or overwrite scores/gpa/notes in place. Status is deliberately left out of
// the update set so a finalized card is never demoted.
func (r *ReportCardRepository) Upsert(ctx context.Context, card *models.ReportCard) error {
	if card.ID == "" {
		card.ID = uuid.NewString()
	}
	if card.Status == "" {
		card.Status = models.ReportCardDraft
	}
	now := time.Now().UTC()
	card.CreatedAt = now
	card.UpdatedAt = now
	const query = `INSERT INTO report_cards
            (id, student_id, classroom_id, academic_year_id, semester, scores, gpa,
             teacher_note, principal_note, character_note, status, created_at, updated_at)
        VALUES (:id, :student_id, :classroom_id, :academic_year_id, :semester, :scores, :gpa,
             :teacher_note, :principal_note, :character_note, :status, :created_at, :updated_at)
        ON CONFLICT (student_id, classroom_id, academic_year_id, semester)
        DO UPDATE SET scores = EXCLUDED.scores,
            gpa = EXCLUDED.gpa,
            teacher_note = COALESCE(EXCLUDED.teacher_note, report_cards.teacher_note),
            principal_note = COALESCE(EXCLUDED.principal_note, report_cards.principal_note),
            character_note = COALESCE(EXCLUDED.character_note, report_cards.character_note),
            updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, card); err != nil {
		return fmt.Errorf("upsert report card: %w", err)
	}
	return nil
}

// Finalize performs the one-way draft -> finalized transition. It returns
// false when no draft row matched (missing or already finalized).
func (r *ReportCardRepository) Finalize(ctx context.Context, key models.ReportCardKey) (bool, error) {
	const query = `UPDATE report_cards SET status = 'finalized', updated_at = $1
        WHERE student_id = $2 AND classroom_id = $3 AND academic_year_id = $4 AND semester = $5
            AND status = 'draft'`
	result, err := r.db.ExecContext(ctx, query, time.Now().UTC(), key.StudentID, key.ClassroomID, key.AcademicYearID, key.Semester)
	if err != nil {
		return false, fmt.Errorf("finalize report card: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("finalize report card: %w", err)
	}
	return affected > 0, nil
}

// Delete removes the snapshot entirely. Explicit admin action only.
func (r *ReportCardRepository) Delete(ctx context.Context, key models.ReportCardKey) error {
	const query = `DELETE FROM report_cards
        WHERE student_id = $1 AND classroom_id = $2 AND academic_year_id = $3 AND semester = $4`
	if _, err := r.db.ExecContext(ctx, query, key.StudentID, key.ClassroomID, key.AcademicYearID, key.Semester); err != nil {
		return fmt.Errorf("delete report card: %w", err)
	}
	return nil
}

// ListRecap returns all snapshots for a classroom period joined with student
// identity, ordered by student name.
func (r *ReportCardRepository) ListRecap(ctx context.Context, classroomID, academicYearID string, semester models.Semester) ([]models.ReportCardRecapRow, error) {
	const query = `SELECT rc.student_id, s.full_name AS student_name, s.nis, rc.gpa, rc.status, rc.scores
        FROM report_cards rc
        JOIN students s ON s.id = rc.student_id
        WHERE rc.classroom_id = $1 AND rc.academic_year_id = $2 AND rc.semester = $3
        ORDER BY s.full_name`
	var rows []models.ReportCardRecapRow
	if err := r.db.SelectContext(ctx, &rows, query, classroomID, academicYearID, semester); err != nil {
		return nil, fmt.Errorf("list report card recap: %w", err)
	}
	return rows, nil
}
