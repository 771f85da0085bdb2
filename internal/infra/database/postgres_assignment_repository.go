// internal/infra/database/postgres_assignment_repository.go
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"student_schedule_bot/internal/domain/schedule"
)

const assignmentColumns = `id, title, course_code, due_date, due_time, description, completed, priority,
	notification_ids, created_at, updated_at`

type PostgresAssignmentRepository struct {
	db *sql.DB
}

func NewPostgresAssignmentRepository(db *sql.DB) *PostgresAssignmentRepository {
	return &PostgresAssignmentRepository{db: db}
}

func (r *PostgresAssignmentRepository) Create(ctx context.Context, a *schedule.Assignment) error {
	query := `INSERT INTO assignments (id, title, course_code, due_date, due_time, description, completed, priority, notification_ids)
	           VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	           RETURNING created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		a.ID, a.Title, a.CourseCode, a.DueDate, a.DueTime, a.Description, a.Completed,
		string(a.Priority.Normalize()), pq.Array(nonNil(a.NotificationIDs)),
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("assignment %s: %w", a.ID, ErrDuplicateID)
		}
		return fmt.Errorf("error creating assignment: %w", err)
	}
	return nil
}

func (r *PostgresAssignmentRepository) GetByID(ctx context.Context, id string) (*schedule.Assignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM assignments WHERE id = $1`
	a, err := scanAssignment(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAssignmentNotFound
		}
		return nil, fmt.Errorf("error getting assignment by ID: %w", err)
	}
	return a, nil
}

func (r *PostgresAssignmentRepository) Update(ctx context.Context, a *schedule.Assignment) error {
	query := `UPDATE assignments
	           SET title = $1, course_code = $2, due_date = $3, due_time = $4, description = $5,
	               completed = $6, priority = $7, notification_ids = $8, updated_at = NOW()
	           WHERE id = $9
	           RETURNING updated_at`

	err := r.db.QueryRowContext(ctx, query,
		a.Title, a.CourseCode, a.DueDate, a.DueTime, a.Description, a.Completed,
		string(a.Priority.Normalize()), pq.Array(nonNil(a.NotificationIDs)), a.ID,
	).Scan(&a.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrAssignmentNotFound
		}
		return fmt.Errorf("error updating assignment: %w", err)
	}
	return nil
}

func (r *PostgresAssignmentRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM assignments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting assignment: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error checking deleted assignment: %w", err)
	}
	if n == 0 {
		return ErrAssignmentNotFound
	}
	return nil
}

func (r *PostgresAssignmentRepository) ListAll(ctx context.Context) ([]*schedule.Assignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM assignments ORDER BY seq`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error listing assignments: %w", err)
	}
	defer rows.Close()

	assignments := make([]*schedule.Assignment, 0)
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning assignment: %w", err)
		}
		assignments = append(assignments, a)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating assignments: %w", err)
	}
	return assignments, nil
}

func scanAssignment(row rowScanner) (*schedule.Assignment, error) {
	a := &schedule.Assignment{}
	var priority string
	err := row.Scan(&a.ID, &a.Title, &a.CourseCode, &a.DueDate, &a.DueTime, &a.Description, &a.Completed,
		&priority, pq.Array(&a.NotificationIDs), &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	a.Priority = schedule.Priority(priority)
	return a, nil
}
