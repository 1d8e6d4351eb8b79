package media

import (
	"path/filepath"
	"strings"
)

var eventMediaExtensions = map[string]struct{}{
	"jpg":  {},
	"jpeg": {},
	"png":  {},
	"gif":  {},
	"mp4":  {},
	"mov":  {},
	"avi":  {},
	"webm": {},
}

// AllowedEventMediaExtensions lists the accepted event media extensions.
const AllowedEventMediaExtensions = "jpg, jpeg, png, gif, mp4, mov, avi, webm"

// IsAllowedEventMedia reports whether filename has an accepted event media
// extension. The check is case-insensitive.
func IsAllowedEventMedia(filename string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	_, ok := eventMediaExtensions[ext]
	return ok
}
