package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/farellandr/eventreg/internal/apperrors"
	"github.com/farellandr/eventreg/internal/helpers"
	"github.com/farellandr/eventreg/internal/media"
	"github.com/farellandr/eventreg/internal/models"
	"github.com/farellandr/eventreg/internal/repository"
	"github.com/farellandr/eventreg/internal/storage"
	"github.com/farellandr/eventreg/internal/validation"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// EventInput carries the fields of a new event.
type EventInput struct {
	EventID             string               `json:"event_id" validate:"required,max=50,eventid"`
	Title               string               `json:"title" validate:"required,max=200"`
	Description         string               `json:"description"`
	StartTime           time.Time            `json:"start_time" validate:"required"`
	EndTime             time.Time            `json:"end_time" validate:"required"`
	Location            string               `json:"location" validate:"max=255"`
	Status              models.EventStatus   `json:"status" validate:"required,eventstatus"`
	AmountPerPerson     uint                 `json:"amount_per_person" validate:"lte=2147483647"`
	AmountPerAdultGuest uint                 `json:"amount_per_adult_guest" validate:"lte=2147483647"`
	AmountPerChildGuest uint                 `json:"amount_per_child_guest" validate:"lte=2147483647"`
	Bkash               models.WalletDetails `json:"-"`
	Nagad               models.WalletDetails `json:"-"`
	Rocket              models.WalletDetails `json:"-"`
	Bank                models.BankDetails   `json:"-"`
	Media               *storage.Upload      `json:"-"`
}

// EventUpdate is a partial update. Nil fields are left unchanged.
type EventUpdate struct {
	EventID             *string
	Title               *string
	Description         *string
	StartTime           *time.Time
	EndTime             *time.Time
	Location            *string
	Status              *models.EventStatus
	AmountPerPerson     *uint
	AmountPerAdultGuest *uint
	AmountPerChildGuest *uint
	Bkash               *models.WalletDetails
	Nagad               *models.WalletDetails
	Rocket              *models.WalletDetails
	Bank                *models.BankDetails
	Media               *storage.Upload
}

type EventPage struct {
	Events     []models.Event `json:"events"`
	Total      int64          `json:"total"`
	Page       int            `json:"page"`
	PageSize   int            `json:"page_size"`
	TotalPages int            `json:"total_pages"`
}

type EventService struct {
	store repository.Store
	files *storage.FileStore
	log   *zerolog.Logger
}

func NewEventService(store repository.Store, files *storage.FileStore, log *zerolog.Logger) *EventService {
	return &EventService{store: store, files: files, log: log}
}

func (s *EventService) Create(ctx context.Context, input EventInput) (*models.Event, error) {
	if input.EventID == "" && input.Title != "" {
		input.EventID = helpers.Slugify(input.Title)
	}
	if input.Status == "" {
		input.Status = models.EventStatusUpcoming
	}

	extra := checkSchedule(input.StartTime, input.EndTime)
	if input.Media != nil && !media.IsAllowedEventMedia(input.Media.Filename) {
		extra = withField(extra, "media_file", invalidMediaMessage)
	}
	if err := validation.Check(input, extra); err != nil {
		return nil, err
	}

	taken, err := s.store.Events().ExistsEventID(ctx, input.EventID, uuid.Nil)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if taken {
		return nil, apperrors.DuplicateIdentifier(input.EventID)
	}

	event := &models.Event{
		EventID:             input.EventID,
		Title:               input.Title,
		Description:         input.Description,
		StartTime:           input.StartTime,
		EndTime:             input.EndTime,
		Location:            input.Location,
		Status:              input.Status,
		AmountPerPerson:     input.AmountPerPerson,
		AmountPerAdultGuest: input.AmountPerAdultGuest,
		AmountPerChildGuest: input.AmountPerChildGuest,
		Bkash:               datatypes.NewJSONType(input.Bkash),
		Nagad:               datatypes.NewJSONType(input.Nagad),
		Rocket:              datatypes.NewJSONType(input.Rocket),
		Bank:                datatypes.NewJSONType(input.Bank),
	}

	// The media file is written only after the row is inserted so a losing
	// concurrent create never touches the winner's file.
	var change fileChange
	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		if input.Media != nil {
			event.MediaFile = storage.StoreName(storage.KindEventMedia, event.EventID, input.Media.Filename)
		}
		if err := tx.Events().Create(ctx, event); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return apperrors.DuplicateIdentifier(event.EventID)
			}
			return apperrors.Internal(err)
		}
		if input.Media != nil {
			return s.writeMedia(&change, event.MediaFile, input.Media.Data)
		}
		return nil
	})
	if err != nil {
		s.undoFileChange(change)
		return nil, err
	}

	s.log.Info().Str("event_id", event.EventID).Msg("event created")
	return event, nil
}

// fileChange records what a create or update did on disk so it can be undone when the
// transaction does not commit.
type fileChange struct {
	renamedFrom string
	renamedTo   string
	written     string
	// previous is what written held before the save, if it existed.
	previous []byte
	existed  bool
	replaced string
}

// writeMedia saves data at path, keeping whatever was there so
// undoFileChange can put it back.
func (s *EventService) writeMedia(change *fileChange, path string, data []byte) error {
	if s.files.Exists(path) {
		previous, err := s.files.Read(path)
		if err != nil {
			return apperrors.Internal(err)
		}
		change.previous, change.existed = previous, true
	}
	change.written = path
	if err := s.files.Save(path, data); err != nil {
		return apperrors.Internal(err)
	}
	return nil
}

func (s *EventService) Update(ctx context.Context, eventID string, update EventUpdate) (*models.Event, error) {
	var (
		updated *models.Event
		change  fileChange
	)

	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		event, err := tx.Events().FindByEventIDForUpdate(ctx, eventID)
		if err != nil {
			return notFound(err, "Event not found.")
		}

		oldEventID := event.EventID
		oldStatus := event.Status
		applyEventUpdate(event, update)

		extra := checkSchedule(event.StartTime, event.EndTime)
		if !oldStatus.CanTransitionTo(event.Status) {
			extra = withField(extra, "status", fmt.Sprintf("Cannot change status from %s to %s.", oldStatus, event.Status))
		}
		if update.Media != nil && !media.IsAllowedEventMedia(update.Media.Filename) {
			extra = withField(extra, "media_file", invalidMediaMessage)
		}
		if err := validation.Check(eventInputOf(event), extra); err != nil {
			return err
		}

		if event.EventID != oldEventID {
			taken, err := tx.Events().ExistsEventID(ctx, event.EventID, event.ID)
			if err != nil {
				return apperrors.Internal(err)
			}
			if taken {
				return apperrors.DuplicateIdentifier(event.EventID)
			}
		}

		switch {
		case update.Media != nil:
			newPath := storage.StoreName(storage.KindEventMedia, event.EventID, update.Media.Filename)
			if err := s.writeMedia(&change, newPath, update.Media.Data); err != nil {
				return err
			}
			if event.MediaFile != newPath {
				change.replaced = event.MediaFile
			}
			event.MediaFile = newPath
		case event.EventID != oldEventID:
			newPath, err := s.files.Rename(oldEventID, event.EventID, event.MediaFile)
			if err != nil {
				return apperrors.Wrap(apperrors.KindRenameIO, "Could not rename the event media file.", err)
			}
			if newPath != event.MediaFile {
				change.renamedFrom, change.renamedTo = event.MediaFile, newPath
			}
			event.MediaFile = newPath
		}

		if err := tx.Events().Save(ctx, event); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return apperrors.DuplicateIdentifier(event.EventID)
			}
			return apperrors.Internal(err)
		}
		updated = event
		return nil
	})
	if err != nil {
		s.undoFileChange(change)
		return nil, err
	}

	s.removeFile(change.replaced)
	s.log.Info().Str("event_id", updated.EventID).Str("previous_event_id", eventID).Msg("event updated")
	return updated, nil
}

func (s *EventService) undoFileChange(change fileChange) {
	if change.renamedTo != "" {
		if err := s.files.Move(change.renamedTo, change.renamedFrom); err != nil {
			s.log.Error().Err(err).Str("path", change.renamedTo).Msg("failed to restore renamed media file")
		}
	}
	switch {
	case change.written == "":
	case change.existed:
		if err := s.files.Save(change.written, change.previous); err != nil {
			s.log.Error().Err(err).Str("path", change.written).Msg("failed to restore overwritten media file")
		}
	default:
		s.removeFile(change.written)
	}
}

// Delete removes the event together with its registrations and their files.
func (s *EventService) Delete(ctx context.Context, eventID string) error {
	var files []string

	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		event, err := tx.Events().FindByEventIDForUpdate(ctx, eventID)
		if err != nil {
			return notFound(err, "Event not found.")
		}

		registrations, err := tx.Registrations().ListByEvent(ctx, event.ID)
		if err != nil {
			return apperrors.Internal(err)
		}
		if err := tx.Registrations().DeleteByEvent(ctx, event.ID); err != nil {
			return apperrors.Internal(err)
		}
		if err := tx.Events().Delete(ctx, event.ID); err != nil {
			return notFound(err, "Event not found.")
		}

		if event.MediaFile != "" {
			files = append(files, event.MediaFile)
		}
		for i := range registrations {
			files = append(files, registrations[i].Files()...)
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, f := range files {
		s.removeFile(f)
	}
	s.log.Info().Str("event_id", eventID).Int("files_removed", len(files)).Msg("event deleted")
	return nil
}

func (s *EventService) Get(ctx context.Context, eventID string) (*models.Event, error) {
	event, err := s.store.Events().FindByEventID(ctx, eventID)
	if err != nil {
		return nil, notFound(err, "Event not found.")
	}
	return event, nil
}

func (s *EventService) List(ctx context.Context, page, pageSize int) (*EventPage, error) {
	page, pageSize = normalizePage(page, pageSize)

	events, total, err := s.store.Events().List(ctx, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return &EventPage{
		Events:     events,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages(total, pageSize),
	}, nil
}

func (s *EventService) PaymentMethods(ctx context.Context, eventID string) (models.PaymentMethods, error) {
	event, err := s.Get(ctx, eventID)
	if err != nil {
		return models.PaymentMethods{}, err
	}
	return event.PaymentMethods(), nil
}

func (s *EventService) removeFile(path string) {
	if path == "" {
		return
	}
	if err := s.files.Remove(path); err != nil {
		s.log.Warn().Err(err).Str("path", path).Msg("failed to remove stored file")
	}
}

const invalidMediaMessage = "Invalid file format. Allowed formats: " + media.AllowedEventMediaExtensions

func applyEventUpdate(event *models.Event, u EventUpdate) {
	if u.EventID != nil {
		event.EventID = *u.EventID
	}
	if u.Title != nil {
		event.Title = *u.Title
	}
	if u.Description != nil {
		event.Description = *u.Description
	}
	if u.StartTime != nil {
		event.StartTime = *u.StartTime
	}
	if u.EndTime != nil {
		event.EndTime = *u.EndTime
	}
	if u.Location != nil {
		event.Location = *u.Location
	}
	if u.Status != nil {
		event.Status = *u.Status
	}
	if u.AmountPerPerson != nil {
		event.AmountPerPerson = *u.AmountPerPerson
	}
	if u.AmountPerAdultGuest != nil {
		event.AmountPerAdultGuest = *u.AmountPerAdultGuest
	}
	if u.AmountPerChildGuest != nil {
		event.AmountPerChildGuest = *u.AmountPerChildGuest
	}
	if u.Bkash != nil {
		event.Bkash = datatypes.NewJSONType(*u.Bkash)
	}
	if u.Nagad != nil {
		event.Nagad = datatypes.NewJSONType(*u.Nagad)
	}
	if u.Rocket != nil {
		event.Rocket = datatypes.NewJSONType(*u.Rocket)
	}
	if u.Bank != nil {
		event.Bank = datatypes.NewJSONType(*u.Bank)
	}
}

func eventInputOf(event *models.Event) EventInput {
	return EventInput{
		EventID:   event.EventID,
		Title:     event.Title,
		StartTime: event.StartTime,
		EndTime:   event.EndTime,
		Location:  event.Location,
		Status:    event.Status,
	}
}

func checkSchedule(start, end time.Time) map[string]string {
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		return map[string]string{"end_time": "End time must not be before start time."}
	}
	return nil
}

func withField(fields map[string]string, field, message string) map[string]string {
	if fields == nil {
		fields = make(map[string]string)
	}
	fields[field] = message
	return fields
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}

func totalPages(total int64, pageSize int) int {
	return int(math.Ceil(float64(total) / float64(pageSize)))
}

func notFound(err error, message string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound(message)
	}
	return apperrors.Internal(err)
}
