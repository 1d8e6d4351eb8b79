package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/farellandr/eventreg/internal/apperrors"
	"github.com/farellandr/eventreg/internal/models"
	"github.com/farellandr/eventreg/internal/repository"
	"github.com/farellandr/eventreg/internal/storage"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// racingStore hides existing events from the identifier pre-check, as a
// concurrent create that passed the check first would see them.
type racingStore struct {
	repository.Store
}

func (s racingStore) Events() repository.EventRepository {
	return racingEvents{s.Store.Events()}
}

func (s racingStore) Transaction(ctx context.Context, fn func(tx repository.Store) error) error {
	return s.Store.Transaction(ctx, func(tx repository.Store) error {
		return fn(racingStore{tx})
	})
}

type racingEvents struct {
	repository.EventRepository
}

func (racingEvents) ExistsEventID(context.Context, string, uuid.UUID) (bool, error) {
	return false, nil
}

// failingSaveStore fails every event save made inside a transaction.
type failingSaveStore struct {
	repository.Store
}

func (s failingSaveStore) Transaction(ctx context.Context, fn func(tx repository.Store) error) error {
	return s.Store.Transaction(ctx, func(tx repository.Store) error {
		return fn(failingSaveTx{tx})
	})
}

type failingSaveTx struct {
	repository.Store
}

func (s failingSaveTx) Events() repository.EventRepository {
	return failingSaveEvents{s.Store.Events()}
}

type failingSaveEvents struct {
	repository.EventRepository
}

func (failingSaveEvents) Save(context.Context, *models.Event) error {
	return errors.New("connection reset")
}

func TestCreateEventDerivesIdentifier(t *testing.T) {
	env := newTestEnv(t)
	input := eventInput("Alumni Reunion 2024")
	input.Media = &storage.Upload{Filename: "Poster.PNG", Data: []byte("png")}

	event, err := env.events.Create(context.Background(), input)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if event.EventID != "alumni-reunion-2024" {
		t.Errorf("EventID = %q", event.EventID)
	}
	if event.Status != models.EventStatusUpcoming {
		t.Errorf("Status = %q, want upcoming", event.Status)
	}
	if event.MediaFile != "event_media/alumni-reunion-2024.PNG" {
		t.Errorf("MediaFile = %q", event.MediaFile)
	}
	if !env.files.Exists(event.MediaFile) {
		t.Error("media file should be stored")
	}
}

func TestCreateEventValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	t.Run("media type", func(t *testing.T) {
		input := eventInput("Gala")
		input.Media = &storage.Upload{Filename: "brochure.pdf", Data: []byte("%PDF")}
		_, err := env.events.Create(ctx, input)
		appErr, ok := apperrors.As(err)
		if !ok || appErr.Kind != apperrors.KindValidation || appErr.Fields["media_file"] == "" {
			t.Fatalf("Create() error = %v, want media_file validation error", err)
		}
		if env.files.Exists("event_media/gala.pdf") {
			t.Error("rejected media must not be stored")
		}
	})

	t.Run("missing title and bad identifier", func(t *testing.T) {
		input := eventInput("")
		input.EventID = "bad id!"
		_, err := env.events.Create(ctx, input)
		appErr, ok := apperrors.As(err)
		if !ok || appErr.Fields["title"] == "" || appErr.Fields["event_id"] == "" {
			t.Fatalf("Create() error = %v", err)
		}
	})

	t.Run("end before start", func(t *testing.T) {
		input := eventInput("Backwards")
		input.EndTime = input.StartTime.Add(-time.Hour)
		_, err := env.events.Create(ctx, input)
		appErr, ok := apperrors.As(err)
		if !ok || appErr.Fields["end_time"] == "" {
			t.Fatalf("Create() error = %v", err)
		}
	})

	t.Run("duplicate identifier", func(t *testing.T) {
		mustCreateEvent(t, env, eventInput("Dup"))
		_, err := env.events.Create(ctx, eventInput("Dup"))
		if apperrors.KindOf(err) != apperrors.KindDuplicateIdentifier {
			t.Fatalf("Create() error = %v, want duplicate identifier", err)
		}
	})
}

func TestUpdateEventRenamesMedia(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	input := eventInput("A")
	input.EventID = "a"
	input.Media = &storage.Upload{Filename: "poster.jpg", Data: []byte("jpg")}
	mustCreateEvent(t, env, input)

	newID := "b"
	event, err := env.events.Update(ctx, "a", EventUpdate{EventID: &newID})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if event.MediaFile != "event_media/b.jpg" {
		t.Errorf("MediaFile = %q, want event_media/b.jpg", event.MediaFile)
	}
	if !env.files.Exists("event_media/b.jpg") || env.files.Exists("event_media/a.jpg") {
		t.Error("media file should be renamed on disk")
	}
	if _, err := env.events.Get(ctx, "a"); apperrors.KindOf(err) != apperrors.KindNotFound {
		t.Errorf("old identifier should be gone, error = %v", err)
	}
}

func TestUpdateEventRenameNoOp(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	input := eventInput("Gala")
	input.EventID = "a"
	mustCreateEvent(t, env, input)

	// Media named independently of the identifier stays put.
	if err := env.files.Save("event_media/poster.jpg", []byte("x")); err != nil {
		t.Fatal(err)
	}
	err := env.store.Transaction(ctx, func(tx repository.Store) error {
		e, err := tx.Events().FindByEventID(ctx, "a")
		if err != nil {
			return err
		}
		e.MediaFile = "event_media/poster.jpg"
		return tx.Events().Save(ctx, e)
	})
	if err != nil {
		t.Fatal(err)
	}

	newID := "b"
	event, err := env.events.Update(ctx, "a", EventUpdate{EventID: &newID})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if event.MediaFile != "event_media/poster.jpg" || !env.files.Exists("event_media/poster.jpg") {
		t.Errorf("MediaFile = %q, file should be untouched", event.MediaFile)
	}
}

func TestUpdateEventRenameFailureAborts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	input := eventInput("A")
	input.EventID = "a"
	input.Media = &storage.Upload{Filename: "poster.jpg", Data: []byte("jpg")}
	mustCreateEvent(t, env, input)

	// Simulate the file vanishing from disk.
	if err := env.files.Remove("event_media/a.jpg"); err != nil {
		t.Fatal(err)
	}

	newID := "b"
	_, err := env.events.Update(ctx, "a", EventUpdate{EventID: &newID})
	if apperrors.KindOf(err) != apperrors.KindRenameIO {
		t.Fatalf("Update() error = %v, want rename error", err)
	}
	if !errors.Is(err, storage.ErrRenameIO) {
		t.Error("cause should be kept")
	}

	event, err := env.events.Get(ctx, "a")
	if err != nil {
		t.Fatalf("event should keep its identifier: %v", err)
	}
	if event.MediaFile != "event_media/a.jpg" {
		t.Errorf("MediaFile = %q", event.MediaFile)
	}
}

func TestUpdateEventDuplicateIdentifierKeepsMedia(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	a := eventInput("A")
	a.EventID = "a"
	a.Media = &storage.Upload{Filename: "poster.jpg", Data: []byte("a")}
	mustCreateEvent(t, env, a)
	b := eventInput("B")
	b.EventID = "b"
	mustCreateEvent(t, env, b)

	taken := "b"
	_, err := env.events.Update(ctx, "a", EventUpdate{EventID: &taken})
	if apperrors.KindOf(err) != apperrors.KindDuplicateIdentifier {
		t.Fatalf("Update() error = %v", err)
	}
	if !env.files.Exists("event_media/a.jpg") || env.files.Exists("event_media/b.jpg") {
		t.Error("media should stay under the old identifier")
	}
}

func TestUpdateEventNewMediaReplacesOld(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	input := eventInput("A")
	input.EventID = "a"
	input.Media = &storage.Upload{Filename: "poster.jpg", Data: []byte("old")}
	mustCreateEvent(t, env, input)

	newID := "b"
	event, err := env.events.Update(ctx, "a", EventUpdate{
		EventID: &newID,
		Media:   &storage.Upload{Filename: "clip.mp4", Data: []byte("new")},
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if event.MediaFile != "event_media/b.mp4" {
		t.Errorf("MediaFile = %q", event.MediaFile)
	}
	if env.files.Exists("event_media/a.jpg") {
		t.Error("replaced media should be removed")
	}
}

func TestCreateEventDuplicateKeepsExistingMedia(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		stray    string
	}{
		{"same extension", "poster.jpg", ""},
		{"different extension", "poster.png", "event_media/gala.png"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			ctx := context.Background()
			log := zerolog.Nop()
			events := NewEventService(racingStore{env.store}, env.files, &log)

			first := eventInput("Gala")
			first.Media = &storage.Upload{Filename: "poster.jpg", Data: []byte("first")}
			if _, err := events.Create(ctx, first); err != nil {
				t.Fatalf("Create() error = %v", err)
			}

			second := eventInput("Gala")
			second.Media = &storage.Upload{Filename: tt.filename, Data: []byte("second")}
			_, err := events.Create(ctx, second)
			if apperrors.KindOf(err) != apperrors.KindDuplicateIdentifier {
				t.Fatalf("second Create() error = %v, want duplicate identifier", err)
			}

			data, err := env.files.Read("event_media/gala.jpg")
			if err != nil || string(data) != "first" {
				t.Errorf("existing media = %q, %v, want first", data, err)
			}
			if tt.stray != "" && env.files.Exists(tt.stray) {
				t.Errorf("%s should not be left behind", tt.stray)
			}
		})
	}
}

func TestUpdateEventFailedSaveRestoresMedia(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		stray    string
	}{
		{"same path", "a.jpg", ""},
		{"new path", "a.png", "event_media/a.png"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			ctx := context.Background()

			input := eventInput("A")
			input.EventID = "a"
			input.Media = &storage.Upload{Filename: "poster.jpg", Data: []byte("old")}
			mustCreateEvent(t, env, input)

			log := zerolog.Nop()
			events := NewEventService(failingSaveStore{env.store}, env.files, &log)
			_, err := events.Update(ctx, "a", EventUpdate{
				Media: &storage.Upload{Filename: tt.filename, Data: []byte("new")},
			})
			if apperrors.KindOf(err) != apperrors.KindInternal {
				t.Fatalf("Update() error = %v, want internal error", err)
			}

			data, err := env.files.Read("event_media/a.jpg")
			if err != nil || string(data) != "old" {
				t.Errorf("media after failed update = %q, %v, want old", data, err)
			}
			if tt.stray != "" && env.files.Exists(tt.stray) {
				t.Errorf("%s should be removed", tt.stray)
			}

			event, err := env.events.Get(ctx, "a")
			if err != nil || event.MediaFile != "event_media/a.jpg" {
				t.Errorf("stored event = %+v, %v", event, err)
			}
		})
	}
}

func TestUpdateEventStatusTransitions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	mustCreateEvent(t, env, eventInput("Gala"))

	completed := models.EventStatusCompleted
	if _, err := env.events.Update(ctx, "gala", EventUpdate{Status: &completed}); err != nil {
		t.Fatalf("upcoming -> completed error = %v", err)
	}

	ongoing := models.EventStatusOngoing
	_, err := env.events.Update(ctx, "gala", EventUpdate{Status: &ongoing})
	appErr, ok := apperrors.As(err)
	if !ok || appErr.Fields["status"] == "" {
		t.Fatalf("completed -> ongoing error = %v, want status validation", err)
	}

	cancelled := models.EventStatusCancelled
	if _, err := env.events.Update(ctx, "gala", EventUpdate{Status: &cancelled}); err != nil {
		t.Fatalf("completed -> cancelled error = %v", err)
	}
}

func TestUpdateMissingEvent(t *testing.T) {
	env := newTestEnv(t)
	title := "x"
	if _, err := env.events.Update(context.Background(), "missing", EventUpdate{Title: &title}); apperrors.KindOf(err) != apperrors.KindNotFound {
		t.Errorf("Update() error = %v, want not found", err)
	}
}

func TestDeleteEventCascades(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	input := eventInput("Gala")
	input.Media = &storage.Upload{Filename: "poster.jpg", Data: []byte("x")}
	mustCreateEvent(t, env, input)

	reg, err := env.registrations.Create(ctx, registrationInput(t, "gala", "S1"))
	if err != nil {
		t.Fatalf("Create registration error = %v", err)
	}

	if err := env.events.Delete(ctx, "gala"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := env.registrations.Get(ctx, reg.ID); apperrors.KindOf(err) != apperrors.KindNotFound {
		t.Errorf("registration should be deleted, error = %v", err)
	}
	for _, f := range []string{"event_media/gala.jpg", reg.TransactionDocument, reg.ProfilePicture} {
		if env.files.Exists(f) {
			t.Errorf("%s should be removed", f)
		}
	}
	if err := env.events.Delete(ctx, "gala"); apperrors.KindOf(err) != apperrors.KindNotFound {
		t.Errorf("second Delete() error = %v", err)
	}
}

func TestListEventsAndPaymentMethods(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for _, title := range []string{"One", "Two", "Three"} {
		input := eventInput(title)
		input.Nagad = models.WalletDetails{AccountNumber: "0181"}
		mustCreateEvent(t, env, input)
	}

	page, err := env.events.List(ctx, 2, 2)
	if err != nil {
		t.Fatal(err)
	}
	if page.Total != 3 || page.TotalPages != 2 || len(page.Events) != 1 {
		t.Errorf("List() = %+v", page)
	}

	methods, err := env.events.PaymentMethods(ctx, "one")
	if err != nil {
		t.Fatal(err)
	}
	if methods.Nagad == nil || methods.Nagad.AccountNumber != "0181" || methods.Bkash != nil || methods.Bank != nil {
		t.Errorf("PaymentMethods() = %+v", methods)
	}
}
