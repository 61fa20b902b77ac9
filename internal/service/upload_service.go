package service

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"garage_config/internal/domain"

	"gopkg.in/guregu/null.v4"
)

var ErrInvalidUpload = errors.New("invalid upload")

// UploadService stores operator uploads (camera snapshots, floor plans) on
// local disk. The directory is served statically under /uploads.
type UploadService struct {
	dir string
	now func() time.Time
}

func NewUploadService(dir string) *UploadService {
	return &UploadService{dir: dir, now: time.Now}
}

func (s *UploadService) Dir() string {
	return s.dir
}

// Save writes src as "<unix millis>-<base name>" and reports where it can be
// fetched. garageID is optional.
func (s *UploadService) Save(originalName string, src io.Reader, garageID string) (*domain.Upload, error) {
	base := filepath.Base(filepath.Clean("/" + originalName))
	if base == "/" || base == "." {
		return nil, fmt.Errorf("%w: empty file name", ErrInvalidUpload)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("UploadService.Save (creating dir): %w", err)
	}

	filename := fmt.Sprintf("%d-%s", s.now().UnixMilli(), base)
	dst, err := os.Create(filepath.Join(s.dir, filename))
	if err != nil {
		return nil, fmt.Errorf("UploadService.Save: %w", err)
	}
	defer dst.Close()

	size, err := io.Copy(dst, src)
	if err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return nil, fmt.Errorf("UploadService.Save (writing file): %w", err)
	}
	return &domain.Upload{
		Filename: filename,
		Path:     "/uploads/" + filename,
		Size:     size,
		GarageID: null.NewString(garageID, garageID != ""),
	}, nil
}
