package handlers

import (
	"errors"
	"math"
	"net/http"
	"time"

	"github.com/farellandr/eventreg/internal/apperrors"
	"github.com/farellandr/eventreg/internal/helpers"
	"github.com/farellandr/eventreg/internal/storage"
	"github.com/gin-gonic/gin"
)

// formReader pulls typed values out of a multipart form and collects parse
// failures per field.
type formReader struct {
	c      *gin.Context
	fields map[string]string
}

func newFormReader(c *gin.Context) *formReader {
	return &formReader{c: c}
}

func (f *formReader) fail(field, message string) {
	if f.fields == nil {
		f.fields = make(map[string]string)
	}
	if _, ok := f.fields[field]; !ok {
		f.fields[field] = message
	}
}

func (f *formReader) String(key string) string {
	return f.c.PostForm(key)
}

// Optional returns nil when key was not submitted.
func (f *formReader) Optional(key string) *string {
	v, ok := f.c.GetPostForm(key)
	if !ok {
		return nil
	}
	return &v
}

func (f *formReader) Time(key string) time.Time {
	v := f.c.PostForm(key)
	if v == "" {
		return time.Time{}
	}
	t, err := helpers.ParseTime(v)
	if err != nil {
		f.fail(key, "Enter a valid date/time.")
	}
	return t
}

func (f *formReader) OptionalTime(key string) *time.Time {
	if _, ok := f.c.GetPostForm(key); !ok {
		return nil
	}
	t := f.Time(key)
	return &t
}

func (f *formReader) Uint(key string) uint64 {
	n, err := helpers.ParseUint(f.c.PostForm(key), 0)
	if err != nil {
		f.fail(key, "Enter a whole number.")
	}
	return n
}

func (f *formReader) OptionalUint(key string) *uint {
	if _, ok := f.c.GetPostForm(key); !ok {
		return nil
	}
	n := uint(f.Uint(key))
	return &n
}

func (f *formReader) Float(key string) float64 {
	n, err := helpers.ParseFloat(f.c.PostForm(key))
	if err != nil || n < 0 || math.IsNaN(n) || math.IsInf(n, 0) {
		f.fail(key, "Enter a number.")
		return 0
	}
	return n
}

// File reads an optional upload. A missing file yields nil.
func (f *formReader) File(key string, config helpers.UploadConfig) *storage.Upload {
	header, err := f.c.FormFile(key)
	if err != nil {
		if !errors.Is(err, http.ErrMissingFile) && !errors.Is(err, http.ErrNotMultipart) {
			f.fail(key, "The submitted data was not a file.")
		}
		return nil
	}
	upload, err := helpers.ReadUpload(key, header, config)
	if err != nil {
		if appErr, ok := apperrors.As(err); ok && appErr.Kind == apperrors.KindValidation {
			for field, message := range appErr.Fields {
				f.fail(field, message)
			}
			return nil
		}
		f.fail(key, "The submitted file could not be read.")
		return nil
	}
	return upload
}

// Err returns the collected failures as a validation error.
func (f *formReader) Err() error {
	if len(f.fields) == 0 {
		return nil
	}
	return apperrors.Validation(f.fields)
}
