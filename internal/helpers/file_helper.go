package helpers

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/farellandr/eventreg/internal/apperrors"
	"github.com/farellandr/eventreg/internal/storage"
)

type UploadConfig struct {
	MaxSizeBytes     int64
	AllowedMimeTypes []string
}

var (
	DefaultMediaUploadConfig = UploadConfig{
		MaxSizeBytes: 50 * 1024 * 1024, // 50MB, event media may be video
	}

	DefaultImageUploadConfig = UploadConfig{
		MaxSizeBytes: 5 * 1024 * 1024, // 5MB
	}

	DefaultDocumentUploadConfig = UploadConfig{
		MaxSizeBytes: 10 * 1024 * 1024, // 10MB
		AllowedMimeTypes: []string{
			"image/jpeg",
			"image/png",
			"image/gif",
			"image/webp",
			"application/pdf",
		},
	}
)

// ReadUpload loads a multipart file into memory after checking its size and,
// when the config lists any, its sniffed content type. Failures are reported
// as validation errors on field.
func ReadUpload(field string, fileHeader *multipart.FileHeader, config UploadConfig) (*storage.Upload, error) {
	if fileHeader == nil {
		return nil, nil
	}
	if config.MaxSizeBytes > 0 && fileHeader.Size > config.MaxSizeBytes {
		return nil, apperrors.Field(field, fmt.Sprintf("file size exceeds maximum limit of %d MB", config.MaxSizeBytes/(1024*1024)))
	}

	src, err := fileHeader.Open()
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if len(data) == 0 {
		return nil, apperrors.Field(field, "The submitted file is empty.")
	}

	mimeType := http.DetectContentType(data)
	if len(config.AllowedMimeTypes) > 0 {
		allowed := false
		for _, allowedType := range config.AllowedMimeTypes {
			if mimeType == allowedType {
				allowed = true
				break
			}
		}
		if !allowed {
			return nil, apperrors.Field(field, fmt.Sprintf("invalid file type. Allowed types: %v", config.AllowedMimeTypes))
		}
	}

	return &storage.Upload{
		Filename:    fileHeader.Filename,
		ContentType: mimeType,
		Data:        data,
	}, nil
}

// WithMaxSize returns config with its size limit replaced when limit is set.
func (config UploadConfig) WithMaxSize(limit int64) UploadConfig {
	if limit > 0 {
		config.MaxSizeBytes = limit
	}
	return config
}
