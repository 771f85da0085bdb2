// internal/domain/schedule/class.go
package schedule

import "time"

// Class is a course that meets weekly between StartDate and EndDate.
// Times are "H:MM AM/PM" and dates "MM/DD/YYYY", interpreted in local time.
type Class struct {
	ID         string
	Name       string
	CourseCode string
	Building   string
	Room       string
	StartTime  string
	EndTime    string
	DaysOfWeek []string // "Mon", "Wed", ... in declared order
	StartDate  string
	EndDate    string
	Instructor string
	Notes      string

	// NotificationIDs holds the platform identifiers of the reminders
	// currently scheduled for this class.
	NotificationIDs []string

	CreatedAt time.Time
	UpdatedAt time.Time
}
