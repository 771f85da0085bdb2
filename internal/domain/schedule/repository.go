// internal/domain/schedule/repository.go
package schedule

import "context"

// ClassRepository persists Class records keyed by their caller-assigned ID.
type ClassRepository interface {
	Create(ctx context.Context, c *Class) error
	GetByID(ctx context.Context, id string) (*Class, error)
	Update(ctx context.Context, c *Class) error
	Delete(ctx context.Context, id string) error
	ListAll(ctx context.Context) ([]*Class, error) // insertion order
}

// AssignmentRepository persists Assignment records keyed by their caller-assigned ID.
type AssignmentRepository interface {
	Create(ctx context.Context, a *Assignment) error
	GetByID(ctx context.Context, id string) (*Assignment, error)
	Update(ctx context.Context, a *Assignment) error
	Delete(ctx context.Context, id string) error
	ListAll(ctx context.Context) ([]*Assignment, error) // insertion order
}
