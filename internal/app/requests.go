// internal/app/requests.go
package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"student_schedule_bot/internal/domain/schedule"
	"student_schedule_bot/internal/domain/wallclock"
)

var ErrInvalidRequest = errors.New("invalid request")

// AddAssignmentRequest is the assignment entry form.
type AddAssignmentRequest struct {
	Title       string `validate:"required,max=200"`
	CourseCode  string `validate:"required,max=32"`
	DueDate     string `validate:"required"`
	DueTime     string `validate:"required"`
	Description string `validate:"max=2000"`
	Priority    string `validate:"omitempty,oneof=Low Medium High"`
}

// AddClassRequest is the class entry form.
type AddClassRequest struct {
	Name       string   `validate:"required,max=200"`
	CourseCode string   `validate:"required,max=32"`
	Building   string   `validate:"max=100"`
	Room       string   `validate:"max=32"`
	StartTime  string   `validate:"required"`
	EndTime    string   `validate:"required"`
	DaysOfWeek []string `validate:"required,min=1,max=7,dive,required"`
	StartDate  string   `validate:"required"`
	EndDate    string   `validate:"required"`
	Instructor string   `validate:"max=200"`
	Notes      string   `validate:"max=2000"`
}

func validateRequest(v *validator.Validate, req any) error {
	if err := v.Struct(req); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return nil
}

func (r AddAssignmentRequest) toAssignment() *schedule.Assignment {
	return &schedule.Assignment{
		Title:       strings.TrimSpace(r.Title),
		CourseCode:  strings.TrimSpace(r.CourseCode),
		DueDate:     strings.TrimSpace(r.DueDate),
		DueTime:     strings.TrimSpace(r.DueTime),
		Description: strings.TrimSpace(r.Description),
		Priority:    schedule.Priority(r.Priority).Normalize(),
	}
}

func (r AddClassRequest) toClass() *schedule.Class {
	return &schedule.Class{
		Name:       strings.TrimSpace(r.Name),
		CourseCode: strings.TrimSpace(r.CourseCode),
		Building:   strings.TrimSpace(r.Building),
		Room:       strings.TrimSpace(r.Room),
		StartTime:  strings.TrimSpace(r.StartTime),
		EndTime:    strings.TrimSpace(r.EndTime),
		DaysOfWeek: r.DaysOfWeek,
		StartDate:  strings.TrimSpace(r.StartDate),
		EndDate:    strings.TrimSpace(r.EndDate),
		Instructor: strings.TrimSpace(r.Instructor),
		Notes:      strings.TrimSpace(r.Notes),
	}
}

// checkAssignment parses the due date and time so malformed entries are
// rejected before anything is scheduled.
func checkAssignment(a *schedule.Assignment) error {
	if !a.Priority.Valid() {
		return fmt.Errorf("%w: priority %q", ErrInvalidRequest, a.Priority)
	}
	if _, err := wallclock.ParseDate(a.DueDate); err != nil {
		return err
	}
	_, err := wallclock.ParseTime(a.DueTime)
	return err
}

// checkClass parses every schedule field and canonicalizes day tokens.
func checkClass(c *schedule.Class) error {
	days, err := wallclock.ParseWeekdays(c.DaysOfWeek)
	if err != nil {
		return err
	}
	if len(days) == 0 {
		return fmt.Errorf("%w: class meets on no day", ErrInvalidRequest)
	}
	canonical := make([]string, len(days))
	for i, d := range days {
		canonical[i] = wallclock.WeekdayName(d)
	}
	c.DaysOfWeek = canonical

	startTime, err := wallclock.ParseTime(c.StartTime)
	if err != nil {
		return err
	}
	endTime, err := wallclock.ParseTime(c.EndTime)
	if err != nil {
		return err
	}
	if endTime.Hour*60+endTime.Minute < startTime.Hour*60+startTime.Minute {
		return fmt.Errorf("%w: end time %s is before start time %s", ErrInvalidRequest, c.EndTime, c.StartTime)
	}
	start, err := wallclock.ParseDate(c.StartDate)
	if err != nil {
		return err
	}
	end, err := wallclock.ParseDate(c.EndDate)
	if err != nil {
		return err
	}
	if end.Before(start) {
		return fmt.Errorf("%w: end date %s is before start date %s", ErrInvalidRequest, c.EndDate, c.StartDate)
	}
	return nil
}
