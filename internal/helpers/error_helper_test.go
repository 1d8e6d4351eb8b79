package helpers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/farellandr/eventreg/internal/apperrors"
	"github.com/gin-gonic/gin"
)

func respond(t *testing.T, err error) (*httptest.ResponseRecorder, ErrorResponse) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	RespondWithAppError(c, nil, err)

	var body ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return w, body
}

func TestRespondWithAppError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", apperrors.NotFound("Event not found."), http.StatusNotFound, "not_found"},
		{"validation", apperrors.Field("title", "required"), http.StatusBadRequest, "validation_error"},
		{"duplicate student", apperrors.DuplicateStudent(), http.StatusConflict, "duplicate_student"},
		{"duplicate identifier", apperrors.DuplicateIdentifier("gala"), http.StatusConflict, "duplicate_identifier"},
		{"credential", apperrors.InvalidCredential(), http.StatusBadRequest, "invalid_credential"},
		{"image", apperrors.New(apperrors.KindUnsupportedImageFormat, "bad image"), http.StatusBadRequest, "unsupported_image_format"},
		{"unauthorized", apperrors.New(apperrors.KindUnauthorized, "no token"), http.StatusUnauthorized, "unauthorized"},
		{"rename", apperrors.Wrap(apperrors.KindRenameIO, "rename", errors.New("/srv/media/x")), http.StatusInternalServerError, "rename_io_error"},
		{"plain", errors.New("boom"), http.StatusInternalServerError, "internal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body := respond(t, tt.err)
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if body.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", body.Code, tt.wantCode)
			}
		})
	}
}

func TestRespondWithAppErrorHidesServerDetails(t *testing.T) {
	_, body := respond(t, apperrors.Wrap(apperrors.KindRenameIO, "rename failed", errors.New("/srv/media/event_media/a.jpg")))
	if body.Message != "Something went wrong. Please try again later." {
		t.Errorf("message = %q", body.Message)
	}
}

func TestRespondWithAppErrorFields(t *testing.T) {
	_, body := respond(t, apperrors.Validation(map[string]string{"student_id": "required", "email": "invalid"}))
	if len(body.Fields) != 2 || body.Fields["email"] != "invalid" {
		t.Errorf("fields = %v", body.Fields)
	}
}
