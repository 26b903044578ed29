package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime/multipart"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var ErrNotAnImage = errors.New("only image files are allowed")

type StorageService interface {
	UploadImage(ctx context.Context, file multipart.File, originalName string) (string, error)
	DeleteFile(ctx context.Context, fileURL string) error
}

// LocalStorageService keeps uploaded images on disk under one directory and
// serves them from /uploads. Filenames are randomized so uploads never
// collide or leak the original name.
type LocalStorageService struct {
	dir          string
	publicPrefix string
}

func NewLocalStorageService(dir string) (*LocalStorageService, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStorageService{dir: dir, publicPrefix: "/uploads"}, nil
}

func (s *LocalStorageService) UploadImage(_ context.Context, file multipart.File, originalName string) (string, error) {
	content, err := io.ReadAll(file)
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}

	if !strings.HasPrefix(http.DetectContentType(content), "image/") {
		return "", ErrNotAnImage
	}

	filename := uuid.NewString() + strings.ToLower(filepath.Ext(originalName))
	if err := os.WriteFile(filepath.Join(s.dir, filename), content, 0o644); err != nil {
		return "", fmt.Errorf("store upload: %w", err)
	}

	return s.publicPrefix + "/" + filename, nil
}

// DeleteFile removes a previously stored upload; a missing file is not an
// error, the URL may point at an image already cleaned up.
func (s *LocalStorageService) DeleteFile(_ context.Context, fileURL string) error {
	if !strings.HasPrefix(fileURL, s.publicPrefix+"/") {
		return nil
	}

	err := os.Remove(filepath.Join(s.dir, path.Base(fileURL)))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
