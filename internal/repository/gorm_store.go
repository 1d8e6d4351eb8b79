package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/farellandr/eventreg/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore is the database-backed Store.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps db. The dialector should be opened with
// TranslateError enabled so unique violations surface as ErrDuplicate.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Events() EventRepository {
	return &gormEventRepository{db: s.db}
}

func (s *GormStore) Registrations() RegistrationRepository {
	return &gormRegistrationRepository{db: s.db}
}

func (s *GormStore) Users() UserRepository {
	return &gormUserRepository{db: s.db}
}

func (s *GormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

// AutoMigrate creates or updates the schema.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Role{},
		&models.User{},
		&models.Event{},
		&models.Registration{},
	)
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound), errors.Is(err, gorm.ErrForeignKeyViolated):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	case strings.Contains(strings.ToLower(err.Error()), "unique constraint"):
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}

type gormEventRepository struct {
	db *gorm.DB
}

func (r *gormEventRepository) Create(ctx context.Context, event *models.Event) error {
	return translate(r.db.WithContext(ctx).Create(event).Error)
}

func (r *gormEventRepository) Save(ctx context.Context, event *models.Event) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Save(event).Error)
}

func (r *gormEventRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	var event models.Event
	if err := r.db.WithContext(ctx).First(&event, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &event, nil
}

func (r *gormEventRepository) FindByEventID(ctx context.Context, eventID string) (*models.Event, error) {
	var event models.Event
	if err := r.db.WithContext(ctx).Where("event_id = ?", eventID).First(&event).Error; err != nil {
		return nil, translate(err)
	}
	return &event, nil
}

func (r *gormEventRepository) FindByEventIDForUpdate(ctx context.Context, eventID string) (*models.Event, error) {
	var event models.Event
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("event_id = ?", eventID).
		First(&event).Error
	if err != nil {
		return nil, translate(err)
	}
	return &event, nil
}

func (r *gormEventRepository) ExistsEventID(ctx context.Context, eventID string, exclude uuid.UUID) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.Event{}).Where("event_id = ?", eventID)
	if exclude != uuid.Nil {
		query = query.Where("id <> ?", exclude)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *gormEventRepository) List(ctx context.Context, offset, limit int) ([]models.Event, int64, error) {
	var (
		events []models.Event
		total  int64
	)
	db := r.db.WithContext(ctx).Model(&models.Event{})
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := db.Order("start_time ASC, event_id ASC").Offset(offset).Limit(limit).Find(&events).Error
	if err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

func (r *gormEventRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.Event{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

type gormRegistrationRepository struct {
	db *gorm.DB
}

func (r *gormRegistrationRepository) Create(ctx context.Context, registration *models.Registration) error {
	return translate(r.db.WithContext(ctx).Omit("Event").Create(registration).Error)
}

func (r *gormRegistrationRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Registration, error) {
	var registration models.Registration
	if err := r.db.WithContext(ctx).Preload("Event").First(&registration, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &registration, nil
}

func (r *gormRegistrationRepository) FindByStudentID(ctx context.Context, studentID string) (*models.Registration, error) {
	var registration models.Registration
	err := r.db.WithContext(ctx).Preload("Event").Where("student_id = ?", studentID).First(&registration).Error
	if err != nil {
		return nil, translate(err)
	}
	return &registration, nil
}

func (r *gormRegistrationRepository) ExistsStudentID(ctx context.Context, studentID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Registration{}).Where("student_id = ?", studentID).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *gormRegistrationRepository) ListByEvent(ctx context.Context, eventRef uuid.UUID) ([]models.Registration, error) {
	var registrations []models.Registration
	if err := r.db.WithContext(ctx).Where("event_ref = ?", eventRef).Find(&registrations).Error; err != nil {
		return nil, err
	}
	return registrations, nil
}

func (r *gormRegistrationRepository) List(ctx context.Context, filter RegistrationFilter, offset, limit int) ([]models.Registration, int64, error) {
	var (
		registrations []models.Registration
		total         int64
	)

	db := r.db.WithContext(ctx).Model(&models.Registration{})
	if filter.EventRef != uuid.Nil {
		db = db.Where("event_ref = ?", filter.EventRef)
	}
	if filter.Approved != nil {
		db = db.Where("approved = ?", *filter.Approved)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		db = db.Where(
			"LOWER(student_id) LIKE ? OR LOWER(full_name) LIKE ? OR LOWER(email) LIKE ? OR LOWER(transaction_id) LIKE ?",
			like, like, like, like,
		)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := db.Preload("Event").Order("registered_at DESC").Offset(offset).Limit(limit).Find(&registrations).Error
	if err != nil {
		return nil, 0, err
	}
	return registrations, total, nil
}

func (r *gormRegistrationRepository) SetApproved(ctx context.Context, id uuid.UUID, approved bool) error {
	return r.db.WithContext(ctx).Model(&models.Registration{}).Where("id = ?", id).Update("approved", approved).Error
}

func (r *gormRegistrationRepository) DeleteByEvent(ctx context.Context, eventRef uuid.UUID) error {
	return r.db.WithContext(ctx).Where("event_ref = ?", eventRef).Delete(&models.Registration{}).Error
}

type gormUserRepository struct {
	db *gorm.DB
}

func (r *gormUserRepository) Create(ctx context.Context, user *models.User) error {
	return translate(r.db.WithContext(ctx).Omit("Role").Create(user).Error)
}

func (r *gormUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Preload("Role").Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *gormUserRepository) FindRole(ctx context.Context, name string) (*models.Role, error) {
	var role models.Role
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&role).Error; err != nil {
		return nil, translate(err)
	}
	return &role, nil
}

func (r *gormUserRepository) CreateRole(ctx context.Context, role *models.Role) error {
	return translate(r.db.WithContext(ctx).Create(role).Error)
}
