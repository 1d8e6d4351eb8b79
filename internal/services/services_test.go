package services

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/farellandr/eventreg/internal/helpers"
	"github.com/farellandr/eventreg/internal/media"
	"github.com/farellandr/eventreg/internal/notification"
	"github.com/farellandr/eventreg/internal/repository/memory"
	"github.com/farellandr/eventreg/internal/storage"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

type fakeNotifier struct {
	mu      sync.Mutex
	notices []notification.ApprovalNotice
	err     error
}

func (f *fakeNotifier) NotifyApproval(_ context.Context, n notification.ApprovalNotice) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notices = append(f.notices, n)
	return f.err
}

type testEnv struct {
	store         *memory.Store
	files         *storage.FileStore
	notifier      *fakeNotifier
	events        *EventService
	registrations *RegistrationService
	auth          *AuthService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := zerolog.Nop()
	store := memory.NewStore()
	files := storage.NewFileStore(afero.NewMemMapFs())
	notifier := &fakeNotifier{}
	signer := helpers.NewPassSigner("pass-secret")
	return &testEnv{
		store:         store,
		files:         files,
		notifier:      notifier,
		events:        NewEventService(store, files, &log),
		registrations: NewRegistrationService(store, files, media.NewNormalizer(90, 50), notifier, signer, &log),
		auth:          NewAuthService(store, "jwt-secret", time.Hour, &log),
	}
}

func pngUpload(t *testing.T, name string, w, h int) *storage.Upload {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
	return &storage.Upload{Filename: name, ContentType: "image/png", Data: buf.Bytes()}
}

func eventInput(title string) EventInput {
	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	return EventInput{
		Title:               title,
		StartTime:           start,
		EndTime:             start.Add(6 * time.Hour),
		Location:            "Main Hall",
		AmountPerPerson:     100,
		AmountPerAdultGuest: 50,
		AmountPerChildGuest: 20,
	}
}

func registrationInput(t *testing.T, eventID, studentID string) RegistrationInput {
	t.Helper()
	return RegistrationInput{
		EventID:             eventID,
		StudentID:           studentID,
		FullName:            "Ada Lovelace",
		DateOfBirth:         "2000-05-01",
		Batch:               "2019",
		Session:             "2019-20",
		Email:               "ada@example.com",
		ContactNumber:       "01700000000",
		WhatsappNumber:      "01700000000",
		AdultGuests:         2,
		ChildGuests:         3,
		PaymentMethod:       "bkash",
		TransactionID:       "TX123",
		Password:            "s3cret",
		TransactionDocument: &storage.Upload{Filename: "receipt.pdf", Data: []byte("%PDF-1.4")},
		ProfilePicture:      pngUpload(t, "me.png", 180, 120),
	}
}

func mustCreateEvent(t *testing.T, env *testEnv, input EventInput) string {
	t.Helper()
	event, err := env.events.Create(context.Background(), input)
	if err != nil {
		t.Fatalf("Create event error = %v", err)
	}
	return event.EventID
}
