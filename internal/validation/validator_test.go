package validation

import (
	"strings"
	"testing"

	"github.com/farellandr/eventreg/internal/apperrors"
)

type sample struct {
	EventID   string `json:"event_id" validate:"required,max=50,eventid"`
	StudentID string `json:"student_id" validate:"required,max=50,studentid"`
	Email     string `json:"email" validate:"required,email"`
	Status    string `json:"status" validate:"omitempty,eventstatus"`
}

func TestStruct(t *testing.T) {
	valid := sample{EventID: "gala-2024", StudentID: "CSE_101-a", Email: "a@b.co", Status: "ongoing"}
	if fields := Struct(valid); fields != nil {
		t.Fatalf("Struct(valid) = %v", fields)
	}

	invalid := sample{EventID: "gala 2024", StudentID: "../etc", Email: "nope", Status: "postponed"}
	fields := Struct(invalid)
	for _, key := range []string{"event_id", "student_id", "email", "status"} {
		if _, ok := fields[key]; !ok {
			t.Errorf("Struct() missing field %q in %v", key, fields)
		}
	}
}

func TestStructLength(t *testing.T) {
	fields := Struct(sample{EventID: strings.Repeat("a", 51), StudentID: "x", Email: "a@b.co"})
	if !strings.Contains(fields["event_id"], "50") {
		t.Errorf("event_id message = %q", fields["event_id"])
	}
}

func TestCheckMergesExtraFields(t *testing.T) {
	err := Check(sample{EventID: "ok", StudentID: "ok", Email: "a@b.co"}, map[string]string{"profile_picture": "This field is required."})
	appErr, ok := apperrors.As(err)
	if !ok || appErr.Kind != apperrors.KindValidation {
		t.Fatalf("Check() error = %v", err)
	}
	if len(appErr.Fields) != 1 || appErr.Fields["profile_picture"] == "" {
		t.Errorf("fields = %v", appErr.Fields)
	}

	if err := Check(sample{EventID: "ok", StudentID: "ok", Email: "a@b.co"}, nil); err != nil {
		t.Errorf("Check() error = %v, want nil", err)
	}
}
