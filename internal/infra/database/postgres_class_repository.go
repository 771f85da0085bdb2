// internal/infra/database/postgres_class_repository.go
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"student_schedule_bot/internal/domain/schedule"
)

const classColumns = `id, name, course_code, building, room, start_time, end_time, days_of_week,
	start_date, end_date, instructor, notes, notification_ids, created_at, updated_at`

type PostgresClassRepository struct {
	db *sql.DB
}

func NewPostgresClassRepository(db *sql.DB) *PostgresClassRepository {
	return &PostgresClassRepository{db: db}
}

func (r *PostgresClassRepository) Create(ctx context.Context, c *schedule.Class) error {
	query := `INSERT INTO classes (id, name, course_code, building, room, start_time, end_time, days_of_week,
	           start_date, end_date, instructor, notes, notification_ids)
	           VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	           RETURNING created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		c.ID, c.Name, c.CourseCode, c.Building, c.Room, c.StartTime, c.EndTime, pq.Array(c.DaysOfWeek),
		c.StartDate, c.EndDate, c.Instructor, c.Notes, pq.Array(nonNil(c.NotificationIDs)),
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("class %s: %w", c.ID, ErrDuplicateID)
		}
		return fmt.Errorf("error creating class: %w", err)
	}
	return nil
}

func (r *PostgresClassRepository) GetByID(ctx context.Context, id string) (*schedule.Class, error) {
	query := `SELECT ` + classColumns + ` FROM classes WHERE id = $1`
	c, err := scanClass(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrClassNotFound
		}
		return nil, fmt.Errorf("error getting class by ID: %w", err)
	}
	return c, nil
}

func (r *PostgresClassRepository) Update(ctx context.Context, c *schedule.Class) error {
	query := `UPDATE classes
	           SET name = $1, course_code = $2, building = $3, room = $4, start_time = $5, end_time = $6,
	               days_of_week = $7, start_date = $8, end_date = $9, instructor = $10, notes = $11,
	               notification_ids = $12, updated_at = NOW()
	           WHERE id = $13
	           RETURNING updated_at`

	err := r.db.QueryRowContext(ctx, query,
		c.Name, c.CourseCode, c.Building, c.Room, c.StartTime, c.EndTime, pq.Array(c.DaysOfWeek),
		c.StartDate, c.EndDate, c.Instructor, c.Notes, pq.Array(nonNil(c.NotificationIDs)), c.ID,
	).Scan(&c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrClassNotFound
		}
		return fmt.Errorf("error updating class: %w", err)
	}
	return nil
}

func (r *PostgresClassRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM classes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting class: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error checking deleted class: %w", err)
	}
	if n == 0 {
		return ErrClassNotFound
	}
	return nil
}

func (r *PostgresClassRepository) ListAll(ctx context.Context) ([]*schedule.Class, error) {
	query := `SELECT ` + classColumns + ` FROM classes ORDER BY seq`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error listing classes: %w", err)
	}
	defer rows.Close()

	classes := make([]*schedule.Class, 0)
	for rows.Next() {
		c, err := scanClass(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning class: %w", err)
		}
		classes = append(classes, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating classes: %w", err)
	}
	return classes, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClass(row rowScanner) (*schedule.Class, error) {
	c := &schedule.Class{}
	err := row.Scan(&c.ID, &c.Name, &c.CourseCode, &c.Building, &c.Room, &c.StartTime, &c.EndTime,
		pq.Array(&c.DaysOfWeek), &c.StartDate, &c.EndDate, &c.Instructor, &c.Notes,
		pq.Array(&c.NotificationIDs), &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// nonNil keeps NOT NULL array columns from receiving SQL NULL.
func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
