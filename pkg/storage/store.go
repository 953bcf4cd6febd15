package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// FileKind classifies a stored file by extension. The kind determines the
// URL shape the API hands out: images get a thumbnail variant, documents
// and videos do not.
type FileKind string

const (
	KindImage    FileKind = "image"
	KindVideo    FileKind = "video"
	KindDocument FileKind = "document"
)

var imageExtensions = map[string]struct{}{
	".jpg": {}, ".jpeg": {}, ".png": {}, ".gif": {}, ".webp": {},
}

var videoExtensions = map[string]struct{}{
	".mp4": {}, ".mov": {}, ".webm": {},
}

// Classify maps a filename to its file kind.
func Classify(filename string) FileKind {
	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := imageExtensions[ext]; ok {
		return KindImage
	}
	if _, ok := videoExtensions[ext]; ok {
		return KindVideo
	}
	return KindDocument
}

// ContentStore persists uploaded attachments and asset photos on local disk
// under a base directory. Uploads are stored under a randomized filename so
// an attacker-supplied name never reaches the filesystem.
type ContentStore struct {
	baseDir string
}

// NewContentStore ensures the base directory exists and returns a handle.
func NewContentStore(baseDir string) (*ContentStore, error) {
	if baseDir == "" {
		baseDir = "./uploads"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads directory: %w", err)
	}
	return &ContentStore{baseDir: baseDir}, nil
}

// SaveAttachment streams an upload into attachments/<requestID>/<random><ext>
// and returns the relative stored path.
func (s *ContentStore) SaveAttachment(requestID, originalName string, r io.Reader) (string, error) {
	rel := filepath.Join("attachments", requestID, randomName(originalName))
	return s.saveStream(rel, r)
}

// SaveAssetPhoto streams an asset photo into assets/<random><ext>.
func (s *ContentStore) SaveAssetPhoto(originalName string, r io.Reader) (string, error) {
	rel := filepath.Join("assets", randomName(originalName))
	return s.saveStream(rel, r)
}

// Open returns a read-only handle for the stored file.
func (s *ContentStore) Open(relPath string) (*os.File, error) {
	file, err := os.Open(s.resolve(relPath))
	if err != nil {
		return nil, fmt.Errorf("open stored file: %w", err)
	}
	return file, nil
}

// Delete removes a stored file if present.
func (s *ContentStore) Delete(relPath string) error {
	if err := os.Remove(s.resolve(relPath)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete stored file: %w", err)
	}
	return nil
}

// Path exposes the underlying absolute path.
func (s *ContentStore) Path(relPath string) string {
	return s.resolve(relPath)
}

func (s *ContentStore) saveStream(rel string, r io.Reader) (string, error) {
	path := s.resolve(rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("prepare upload directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	defer file.Close() //nolint:errcheck
	if _, err := io.Copy(file, r); err != nil {
		return "", fmt.Errorf("write upload stream: %w", err)
	}
	return filepath.ToSlash(rel), nil
}

func (s *ContentStore) resolve(relPath string) string {
	if filepath.IsAbs(relPath) {
		return relPath
	}
	return filepath.Join(s.baseDir, filepath.FromSlash(relPath))
}

func randomName(originalName string) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	return strings.ReplaceAll(uuid.NewString(), "-", "") + ext
}
