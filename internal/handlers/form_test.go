package handlers

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/farellandr/eventreg/internal/apperrors"
	"github.com/farellandr/eventreg/internal/helpers"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func multipartContext(t *testing.T, fields map[string]string, file []byte) *gin.Context {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		w.WriteField(k, v)
	}
	if file != nil {
		part, err := w.CreateFormFile("upload", "doc.pdf")
		if err != nil {
			t.Fatal(err)
		}
		part.Write(file)
	}
	w.Close()

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPost, "/", &buf)
	c.Request.Header.Set("Content-Type", w.FormDataContentType())
	return c
}

func TestFormReader(t *testing.T) {
	c := multipartContext(t, map[string]string{
		"title":   "Gala",
		"start":   "2025-03-01T10:00",
		"bad":     "yesterday",
		"guests":  "3",
		"minus":   "-1",
		"blank":   "",
		"amount":  "12.5",
		"pennies": "-0.5",
		"inf":     "Inf",
		"nan":     "NaN",
	}, []byte("%PDF-1.4"))
	form := newFormReader(c)

	if got := form.String("title"); got != "Gala" {
		t.Errorf("String = %q", got)
	}
	if got := form.Optional("missing"); got != nil {
		t.Errorf("Optional(missing) = %q", *got)
	}
	if got := form.Optional("blank"); got == nil || *got != "" {
		t.Error("Optional(blank) should report the empty submitted value")
	}
	if got := form.Time("start"); got.Hour() != 10 {
		t.Errorf("Time = %v", got)
	}
	if got := form.OptionalTime("missing"); got != nil {
		t.Errorf("OptionalTime(missing) = %v", got)
	}
	if got := form.Uint("guests"); got != 3 {
		t.Errorf("Uint = %d", got)
	}
	if got := form.Float("amount"); got != 12.5 {
		t.Errorf("Float = %v", got)
	}
	if upload := form.File("upload", helpers.DefaultDocumentUploadConfig); upload == nil || upload.ContentType != "application/pdf" {
		t.Errorf("File = %+v", upload)
	}
	if upload := form.File("absent", helpers.DefaultDocumentUploadConfig); upload != nil {
		t.Error("missing file should be nil")
	}
	if form.Err() != nil {
		t.Fatalf("unexpected errors %v", form.Err())
	}

	form.Time("bad")
	form.Uint("minus")
	form.Float("pennies")
	if got := form.Float("inf"); got != 0 {
		t.Errorf("Float(inf) = %v, want 0", got)
	}
	form.Float("nan")
	appErr, ok := apperrors.As(form.Err())
	if !ok || appErr.Kind != apperrors.KindValidation {
		t.Fatalf("Err() = %v", form.Err())
	}
	for _, field := range []string{"bad", "minus", "pennies", "inf", "nan"} {
		if appErr.Fields[field] == "" {
			t.Errorf("missing error for %s", field)
		}
	}
}

func TestFormReaderRejectsDisallowedUpload(t *testing.T) {
	c := multipartContext(t, nil, []byte("#!/bin/sh\necho hi\n"))
	form := newFormReader(c)
	if upload := form.File("upload", helpers.DefaultDocumentUploadConfig); upload != nil {
		t.Fatal("script upload should be rejected")
	}
	appErr, ok := apperrors.As(form.Err())
	if !ok || appErr.Fields["upload"] == "" {
		t.Errorf("Err() = %v", form.Err())
	}
}

func TestBaseURL(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	if got := baseURL(c); got != "http://example.com" {
		t.Errorf("baseURL = %q", got)
	}
	c.Request.Header.Set("X-Forwarded-Proto", "https")
	if got := baseURL(c); got != "https://example.com" {
		t.Errorf("baseURL behind proxy = %q", got)
	}
}
