package repository

import (
	"context"
	"errors"

	"github.com/farellandr/eventreg/internal/models"
	"github.com/google/uuid"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

// Store gives access to the repositories and runs units of work.
type Store interface {
	Events() EventRepository
	Registrations() RegistrationRepository
	Users() UserRepository

	// Transaction runs fn against a store bound to one transaction. The
	// transaction commits when fn returns nil and rolls back otherwise.
	Transaction(ctx context.Context, fn func(tx Store) error) error
}

type EventRepository interface {
	Create(ctx context.Context, event *models.Event) error
	Save(ctx context.Context, event *models.Event) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Event, error)
	FindByEventID(ctx context.Context, eventID string) (*models.Event, error)
	// FindByEventIDForUpdate locks the row until the surrounding transaction
	// ends.
	FindByEventIDForUpdate(ctx context.Context, eventID string) (*models.Event, error)
	ExistsEventID(ctx context.Context, eventID string, exclude uuid.UUID) (bool, error)
	List(ctx context.Context, offset, limit int) ([]models.Event, int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// RegistrationFilter narrows admin registration listings. Zero values match
// everything.
type RegistrationFilter struct {
	EventRef uuid.UUID
	Approved *bool
	Search   string
}

type RegistrationRepository interface {
	Create(ctx context.Context, registration *models.Registration) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Registration, error)
	FindByStudentID(ctx context.Context, studentID string) (*models.Registration, error)
	ExistsStudentID(ctx context.Context, studentID string) (bool, error)
	ListByEvent(ctx context.Context, eventRef uuid.UUID) ([]models.Registration, error)
	List(ctx context.Context, filter RegistrationFilter, offset, limit int) ([]models.Registration, int64, error)
	SetApproved(ctx context.Context, id uuid.UUID, approved bool) error
	DeleteByEvent(ctx context.Context, eventRef uuid.UUID) error
}

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindRole(ctx context.Context, name string) (*models.Role, error)
	CreateRole(ctx context.Context, role *models.Role) error
}
