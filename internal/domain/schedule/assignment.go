// internal/domain/schedule/assignment.go
package schedule

import "time"

// Assignment is a piece of homework due at DueDate/DueTime local time.
type Assignment struct {
	ID          string
	Title       string
	CourseCode  string
	DueDate     string // MM/DD/YYYY
	DueTime     string // H:MM AM/PM
	Description string
	Completed   bool
	Priority    Priority

	NotificationIDs []string // scheduled reminder ids, kept so they can be cancelled

	CreatedAt time.Time
	UpdatedAt time.Time
}
