package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/farellandr/eventreg/internal/apperrors"
	"github.com/farellandr/eventreg/internal/helpers"
	"github.com/farellandr/eventreg/internal/media"
	"github.com/farellandr/eventreg/internal/models"
	"github.com/farellandr/eventreg/internal/notification"
	"github.com/farellandr/eventreg/internal/repository"
	"github.com/farellandr/eventreg/internal/storage"
	"github.com/farellandr/eventreg/internal/validation"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/skip2/go-qrcode"
	"gorm.io/datatypes"
)

const (
	FileTransactionDocument = "transaction_document"
	FileProfilePicture      = "profile_picture"
)

// MaxGuests bounds each guest count; counts are stored as integer columns.
const MaxGuests = math.MaxInt32

// ApprovalNotifier hands approval notices to whatever delivers them.
type ApprovalNotifier interface {
	NotifyApproval(ctx context.Context, notice notification.ApprovalNotice) error
}

// RegistrationInput carries a registration submitted for EventID.
type RegistrationInput struct {
	EventID             string          `json:"event"`
	StudentID           string          `json:"student_id" validate:"required,max=50,studentid"`
	FullName            string          `json:"full_name" validate:"required,max=255"`
	DateOfBirth         string          `json:"date_of_birth" validate:"required,datetime=2006-01-02"`
	Batch               string          `json:"batch" validate:"required,max=50"`
	Session             string          `json:"session" validate:"required,max=50"`
	Email               string          `json:"email" validate:"required,email,max=254"`
	ContactNumber       string          `json:"contact_number" validate:"required,max=15"`
	WhatsappNumber      string          `json:"whatsapp_number" validate:"required,max=15"`
	AdultGuests         uint64          `json:"adult_guests" validate:"lte=2147483647"`
	ChildGuests         uint64          `json:"child_guests" validate:"lte=2147483647"`
	TotalAmount         float64         `json:"total_amount" validate:"gte=0,lt=100000000"`
	PaymentMethod       string          `json:"payment_method" validate:"required,max=100"`
	TransactionID       string          `json:"transaction_id" validate:"required,max=255"`
	Password            string          `json:"password" validate:"required,max=128"`
	TransactionDocument *storage.Upload `json:"-"`
	ProfilePicture      *storage.Upload `json:"-"`
}

type ApprovalResult struct {
	Registration       *models.Registration `json:"registration"`
	NotificationQueued bool                 `json:"notification_queued"`
}

type CredentialStatus struct {
	Approved   bool   `json:"approved"`
	EventTitle string `json:"event_title"`
}

// RegistrationQuery filters the admin listing. EventID is the public event
// identifier.
type RegistrationQuery struct {
	EventID  string
	Approved *bool
	Search   string
}

type RegistrationPage struct {
	Registrations []models.Registration `json:"registrations"`
	Total         int64                 `json:"total"`
	Page          int                   `json:"page"`
	PageSize      int                   `json:"page_size"`
	TotalPages    int                   `json:"total_pages"`
}

// StoredFile is an opened uploaded document.
type StoredFile struct {
	io.ReadSeekCloser
	Name string
}

type PassVerification struct {
	Valid        bool                 `json:"valid"`
	Approved     bool                 `json:"approved"`
	Registration *models.Registration `json:"registration"`
	EventID      string               `json:"event_id"`
	EventTitle   string               `json:"event_title"`
}

type RegistrationService struct {
	store      repository.Store
	files      *storage.FileStore
	normalizer *media.Normalizer
	notifier   ApprovalNotifier
	signer     *helpers.PassSigner
	log        *zerolog.Logger
	now        func() time.Time
}

func NewRegistrationService(
	store repository.Store,
	files *storage.FileStore,
	normalizer *media.Normalizer,
	notifier ApprovalNotifier,
	signer *helpers.PassSigner,
	log *zerolog.Logger,
) *RegistrationService {
	return &RegistrationService{
		store:      store,
		files:      files,
		normalizer: normalizer,
		notifier:   notifier,
		signer:     signer,
		log:        log,
		now:        time.Now,
	}
}

func (s *RegistrationService) Create(ctx context.Context, input RegistrationInput) (*models.Registration, error) {
	event, err := s.store.Events().FindByEventID(ctx, input.EventID)
	if err != nil {
		return nil, notFound(err, "Event not found.")
	}
	if !event.Status.AcceptsRegistrations() {
		return nil, apperrors.Field("event", "Registrations are closed for this event.")
	}

	var extra map[string]string
	if input.TransactionDocument == nil {
		extra = withField(extra, FileTransactionDocument, "No file was submitted.")
	}
	if input.ProfilePicture == nil {
		extra = withField(extra, FileProfilePicture, "No file was submitted.")
	}
	if math.IsNaN(input.TotalAmount) || math.IsInf(input.TotalAmount, 0) {
		extra = withField(extra, "total_amount", "Enter a number.")
	}
	if err := validation.Check(input, extra); err != nil {
		return nil, err
	}
	dob, _ := time.Parse("2006-01-02", input.DateOfBirth)

	exists, err := s.store.Registrations().ExistsStudentID(ctx, input.StudentID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if exists {
		return nil, apperrors.DuplicateStudent()
	}

	total := input.TotalAmount
	if total == 0 {
		computed, err := quoteTotal(event, input.AdultGuests, input.ChildGuests)
		if err != nil {
			return nil, err
		}
		total = float64(computed)
	}

	hash, err := helpers.HashPassword(input.Password)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	picture, err := s.normalizer.Normalize(input.ProfilePicture.Data)
	if err != nil {
		if errors.Is(err, media.ErrUnsupportedImageFormat) {
			return nil, &apperrors.Error{
				Kind:    apperrors.KindUnsupportedImageFormat,
				Message: "Upload a valid image. The file you uploaded was either not an image or a corrupted image.",
				Fields:  map[string]string{FileProfilePicture: "Unsupported image format."},
				Err:     err,
			}
		}
		return nil, apperrors.Internal(err)
	}

	registration := &models.Registration{
		StudentID:           input.StudentID,
		FullName:            input.FullName,
		DateOfBirth:         datatypes.Date(dob),
		Batch:               input.Batch,
		Session:             input.Session,
		Email:               input.Email,
		ContactNumber:       input.ContactNumber,
		WhatsappNumber:      input.WhatsappNumber,
		AdultGuests:         uint(input.AdultGuests),
		ChildGuests:         uint(input.ChildGuests),
		TotalAmount:         total,
		PaymentMethod:       input.PaymentMethod,
		TransactionID:       input.TransactionID,
		TransactionDocument: storage.StoreName(storage.KindTransactionDocument, input.StudentID, input.TransactionDocument.Filename),
		ProfilePicture:      storage.StoreName(storage.KindProfilePicture, input.StudentID, media.NormalizedExt),
		Password:            hash,
		EventRef:            event.ID,
	}

	// Files are written only after the row is inserted so a duplicate student
	// never overwrites the files of the existing registration.
	var written []string
	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		if err := tx.Registrations().Create(ctx, registration); err != nil {
			switch {
			case errors.Is(err, repository.ErrDuplicate):
				return apperrors.DuplicateStudent()
			case errors.Is(err, repository.ErrNotFound):
				return apperrors.NotFound("Event not found.")
			}
			return apperrors.Internal(err)
		}

		uploads := []struct {
			path string
			data []byte
		}{
			{registration.TransactionDocument, input.TransactionDocument.Data},
			{registration.ProfilePicture, picture},
		}
		for _, u := range uploads {
			if err := s.files.Save(u.path, u.data); err != nil {
				return apperrors.Internal(err)
			}
			written = append(written, u.path)
		}
		return nil
	})
	if err != nil {
		for _, path := range written {
			s.removeFile(path)
		}
		return nil, err
	}

	registration.Event = *event
	s.log.Info().
		Str("student_id", registration.StudentID).
		Str("event_id", event.EventID).
		Float64("total_amount", registration.TotalAmount).
		Msg("registration created")
	return registration, nil
}

// Quote returns the total a registration with the given guests would owe.
func (s *RegistrationService) Quote(ctx context.Context, eventID string, adults, children uint64) (uint64, error) {
	var fields map[string]string
	if adults > MaxGuests {
		fields = withField(fields, "adult_guests", guestLimitMessage)
	}
	if children > MaxGuests {
		fields = withField(fields, "child_guests", guestLimitMessage)
	}
	if fields != nil {
		return 0, apperrors.Validation(fields)
	}

	event, err := s.store.Events().FindByEventID(ctx, eventID)
	if err != nil {
		return 0, notFound(err, "Event not found.")
	}
	return quoteTotal(event, adults, children)
}

var guestLimitMessage = fmt.Sprintf("Ensure this value is less than or equal to %d.", MaxGuests)

// quoteTotal prices a registration and rejects totals the amount column
// cannot hold.
func quoteTotal(event *models.Event, adults, children uint64) (uint64, error) {
	total, err := helpers.TotalForEvent(ratesOf(event), adults, children)
	if err != nil || total >= helpers.MaxTotalAmount {
		return 0, apperrors.Field("total_amount", fmt.Sprintf("Ensure the total amount is less than %d.", helpers.MaxTotalAmount))
	}
	return total, nil
}

// Approve marks the registration approved and notifies the attendee. It is
// idempotent; every call attempts a notification. A failed notification is
// reported in the result and never undoes the approval.
func (s *RegistrationService) Approve(ctx context.Context, id uuid.UUID) (*ApprovalResult, error) {
	registration, err := s.store.Registrations().FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Registration not found.")
	}

	if !registration.Approved {
		if err := s.store.Registrations().SetApproved(ctx, id, true); err != nil {
			return nil, notFound(err, "Registration not found.")
		}
		registration.Approved = true
		s.log.Info().Str("student_id", registration.StudentID).Msg("registration approved")
	}

	notice := notification.ApprovalNotice{
		RegistrationID: registration.ID.String(),
		StudentID:      registration.StudentID,
		FullName:       registration.FullName,
		Email:          registration.Email,
		EventID:        registration.Event.EventID,
		EventTitle:     registration.Event.Title,
		ApprovedAt:     s.now().UTC(),
	}

	result := &ApprovalResult{Registration: registration}
	if s.notifier == nil {
		s.log.Warn().Str("student_id", registration.StudentID).Msg("no approval notifier configured")
		return result, nil
	}
	if err := s.notifier.NotifyApproval(ctx, notice); err != nil {
		s.log.Warn().Err(err).Str("student_id", registration.StudentID).Msg("failed to queue approval notification")
		return result, nil
	}
	result.NotificationQueued = true
	return result, nil
}

// CheckCredential reports the approval status of a registration. Unknown
// student ids and wrong passwords fail the same way.
func (s *RegistrationService) CheckCredential(ctx context.Context, studentID, password string) (*CredentialStatus, error) {
	registration, err := s.authenticate(ctx, studentID, password)
	if err != nil {
		return nil, err
	}
	return &CredentialStatus{Approved: registration.Approved, EventTitle: registration.Event.Title}, nil
}

func (s *RegistrationService) authenticate(ctx context.Context, studentID, password string) (*models.Registration, error) {
	registration, err := s.store.Registrations().FindByStudentID(ctx, studentID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.Internal(err)
		}
		helpers.CheckPassword("", password)
		return nil, apperrors.InvalidCredential()
	}
	if !helpers.CheckPassword(registration.Password, password) {
		return nil, apperrors.InvalidCredential()
	}
	return registration, nil
}

func (s *RegistrationService) List(ctx context.Context, query RegistrationQuery, page, pageSize int) (*RegistrationPage, error) {
	page, pageSize = normalizePage(page, pageSize)

	filter := repository.RegistrationFilter{Approved: query.Approved, Search: query.Search}
	if query.EventID != "" {
		event, err := s.store.Events().FindByEventID(ctx, query.EventID)
		if err != nil {
			return nil, notFound(err, "Event not found.")
		}
		filter.EventRef = event.ID
	}

	registrations, total, err := s.store.Registrations().List(ctx, filter, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return &RegistrationPage{
		Registrations: registrations,
		Total:         total,
		Page:          page,
		PageSize:      pageSize,
		TotalPages:    totalPages(total, pageSize),
	}, nil
}

func (s *RegistrationService) Get(ctx context.Context, id uuid.UUID) (*models.Registration, error) {
	registration, err := s.store.Registrations().FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Registration not found.")
	}
	return registration, nil
}

// OpenFile opens one of the uploaded documents of a registration. kind is
// FileTransactionDocument or FileProfilePicture.
func (s *RegistrationService) OpenFile(ctx context.Context, id uuid.UUID, kind string) (*StoredFile, error) {
	registration, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	var path string
	switch kind {
	case FileTransactionDocument:
		path = registration.TransactionDocument
	case FileProfilePicture:
		path = registration.ProfilePicture
	default:
		return nil, apperrors.Field("kind", "Must be transaction_document or profile_picture.")
	}
	if path == "" {
		return nil, apperrors.NotFound("File not found.")
	}

	f, err := s.files.Open(path)
	if err != nil {
		if errors.Is(err, storage.ErrFileNotFound) {
			return nil, apperrors.NotFound("File not found.")
		}
		return nil, apperrors.Internal(err)
	}
	return &StoredFile{ReadSeekCloser: f, Name: registration.StudentID + storage.SafeExt(path)}, nil
}

// Pass renders the signed entry pass of an approved registration as a PNG
// QR code.
func (s *RegistrationService) Pass(ctx context.Context, studentID, password string) ([]byte, error) {
	registration, err := s.authenticate(ctx, studentID, password)
	if err != nil {
		return nil, err
	}
	if !registration.Approved {
		return nil, apperrors.New(apperrors.KindForbidden, "Registration has not been approved yet.")
	}

	data := s.signer.Encode(helpers.PassClaims{
		RegistrationID: registration.ID.String(),
		StudentID:      registration.StudentID,
		EventID:        registration.Event.EventID,
	})
	png, err := qrcode.Encode(data, qrcode.Medium, 256)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return png, nil
}

// VerifyPass checks a scanned pass against the current registration.
func (s *RegistrationService) VerifyPass(ctx context.Context, data string) (*PassVerification, error) {
	claims, err := s.signer.Verify(data)
	if err != nil {
		return nil, apperrors.Field("data", "Invalid pass.")
	}

	id, err := uuid.Parse(claims.RegistrationID)
	if err != nil {
		return nil, apperrors.Field("data", "Invalid pass.")
	}
	registration, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if registration.StudentID != claims.StudentID {
		return nil, apperrors.Field("data", "Invalid pass.")
	}

	return &PassVerification{
		Valid:        true,
		Approved:     registration.Approved,
		Registration: registration,
		EventID:      registration.Event.EventID,
		EventTitle:   registration.Event.Title,
	}, nil
}

func (s *RegistrationService) removeFile(path string) {
	if err := s.files.Remove(path); err != nil {
		s.log.Warn().Err(err).Str("path", path).Msg("failed to remove stored file")
	}
}

func ratesOf(event *models.Event) *helpers.EventRates {
	if event == nil {
		return nil
	}
	return &helpers.EventRates{
		PerPerson:     uint64(event.AmountPerPerson),
		PerAdultGuest: uint64(event.AmountPerAdultGuest),
		PerChildGuest: uint64(event.AmountPerChildGuest),
	}
}
