package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/pkbm-digital/rapor-api/internal/models"
)

// StudentRepository reads student master data.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// FindByID fetches one student by primary key.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	const query = `SELECT id, user_id, nis, nisn, full_name, gender, birth_date, address, active, created_at, updated_at
        FROM students WHERE id = $1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// ListByClassroom returns students enrolled in the classroom for the year,
// ordered by name.
func (r *StudentRepository) ListByClassroom(ctx context.Context, classroomID, academicYearID string) ([]models.Student, error) {
	const query = `SELECT s.id, s.user_id, s.nis, s.nisn, s.full_name, s.gender, s.birth_date, s.address, s.active, s.created_at, s.updated_at
        FROM students s
        JOIN enrollments e ON e.student_id = s.id
        WHERE e.classroom_id = $1 AND e.academic_year_id = $2
        ORDER BY s.full_name`
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, classroomID, academicYearID); err != nil {
		return nil, err
	}
	return students, nil
}
