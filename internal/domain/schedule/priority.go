// internal/domain/schedule/priority.go
package schedule

// Priority is the tier an assignment belongs to. It governs how many
// reminders are scheduled and how far ahead of the due instant.
type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// Normalize maps an unset priority to Medium.
func (p Priority) Normalize() Priority {
	if p == "" {
		return PriorityMedium
	}
	return p
}

// Valid reports whether p is one of the three tiers (unset counts as valid).
func (p Priority) Valid() bool {
	switch p.Normalize() {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	default:
		return false
	}
}

// Rank projects the tier onto the 1-9 calendar priority scale.
func (p Priority) Rank() int {
	switch p.Normalize() {
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 5
	default:
		return 9
	}
}
