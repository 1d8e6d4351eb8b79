package storage

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/afero"
)

const (
	KindEventMedia          = "event_media"
	KindTransactionDocument = "transactions_documents"
	KindProfilePicture      = "profile_picture"
)

var (
	ErrRenameIO     = errors.New("rename stored file")
	ErrFileNotFound = errors.New("stored file not found")
)

var extPattern = regexp.MustCompile(`^\.[A-Za-z0-9]{1,10}$`)

// Upload is an uploaded file held in memory.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Ext returns the sanitized extension of the original filename.
func (u *Upload) Ext() string {
	return SafeExt(u.Filename)
}

// SafeExt returns the extension of name, or "" when it contains anything
// other than letters and digits.
func SafeExt(name string) string {
	ext := filepath.Ext(filepath.Base(name))
	if !extPattern.MatchString(ext) {
		return ""
	}
	return ext
}

// StoreName returns the relative path a file of the given kind is stored
// under: {kind}/{key}{ext}.
func StoreName(kind, key, originalFilename string) string {
	return path.Join(kind, key+SafeExt(originalFilename))
}

// FileStore keeps uploaded files named after the identifier of the record
// that owns them. All paths are relative to the root of fs.
type FileStore struct {
	fs afero.Fs
}

func NewFileStore(fs afero.Fs) *FileStore {
	return &FileStore{fs: fs}
}

// NewOSFileStore stores files under root on the local disk.
func NewOSFileStore(root string) (*FileStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create media root: %w", err)
	}
	return NewFileStore(afero.NewBasePathFs(afero.NewOsFs(), root)), nil
}

func (s *FileStore) Save(relPath string, data []byte) error {
	if err := s.fs.MkdirAll(path.Dir(relPath), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", relPath, err)
	}
	if err := afero.WriteFile(s.fs, relPath, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", relPath, err)
	}
	return nil
}

// Rename moves the file at currentPath so that the first occurrence of oldKey
// in its base name becomes newKey, and returns the new relative path. When
// currentPath is empty or its base name does not contain oldKey, currentPath
// is returned unchanged.
func (s *FileStore) Rename(oldKey, newKey, currentPath string) (string, error) {
	if currentPath == "" || oldKey == "" || oldKey == newKey {
		return currentPath, nil
	}

	dir, base := path.Split(currentPath)
	if !strings.Contains(base, oldKey) {
		return currentPath, nil
	}
	newPath := dir + strings.Replace(base, oldKey, newKey, 1)

	if _, err := s.fs.Stat(currentPath); err != nil {
		return "", fmt.Errorf("%w: source %s: %v", ErrRenameIO, base, err)
	}
	if _, err := s.fs.Stat(newPath); err == nil {
		return "", fmt.Errorf("%w: target %s already exists", ErrRenameIO, path.Base(newPath))
	}
	if err := s.fs.Rename(currentPath, newPath); err != nil {
		return "", fmt.Errorf("%w: %v", ErrRenameIO, err)
	}
	return newPath, nil
}

// Move renames from to exactly to, refusing to overwrite an existing file.
func (s *FileStore) Move(from, to string) error {
	if _, err := s.fs.Stat(to); err == nil {
		return fmt.Errorf("%w: target %s already exists", ErrRenameIO, path.Base(to))
	}
	if err := s.fs.MkdirAll(path.Dir(to), 0o755); err != nil {
		return fmt.Errorf("%w: %v", ErrRenameIO, err)
	}
	if err := s.fs.Rename(from, to); err != nil {
		return fmt.Errorf("%w: %v", ErrRenameIO, err)
	}
	return nil
}

// Remove deletes relPath. Missing files are not an error.
func (s *FileStore) Remove(relPath string) error {
	if relPath == "" {
		return nil
	}
	if err := s.fs.Remove(relPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove %s: %w", relPath, err)
	}
	return nil
}

func (s *FileStore) Open(relPath string) (io.ReadSeekCloser, error) {
	f, err := s.fs.Open(relPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrFileNotFound
		}
		return nil, fmt.Errorf("open %s: %w", relPath, err)
	}
	return f, nil
}

// Read returns the whole content of relPath.
func (s *FileStore) Read(relPath string) ([]byte, error) {
	data, err := afero.ReadFile(s.fs, relPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrFileNotFound
		}
		return nil, fmt.Errorf("read %s: %w", relPath, err)
	}
	return data, nil
}

func (s *FileStore) Exists(relPath string) bool {
	ok, err := afero.Exists(s.fs, relPath)
	return err == nil && ok
}

// HTTPDir serves the files under dir, for public media.
func (s *FileStore) HTTPDir(dir string) http.FileSystem {
	return afero.NewHttpFs(s.fs).Dir(dir)
}
