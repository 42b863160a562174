package food

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/MikeMC777/food-ordering/internal/apperr"
)

const maxImageSize = 5 << 20

var allowedImageExt = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true, ".gif": true}

// ImageStore keeps uploaded food images in a local directory served under
// /images.
type ImageStore struct {
	dir string
	now func() time.Time
}

func NewImageStore(dir string) (*ImageStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &ImageStore{dir: dir, now: time.Now}, nil
}

func (s *ImageStore) Dir() string { return s.dir }

// Save stores the upload as <unix-millis>_<original name> and returns that name.
func (s *ImageStore) Save(fh *multipart.FileHeader) (string, error) {
	if fh == nil {
		return "", apperr.New(apperr.Validation, "image is required")
	}
	if fh.Size > maxImageSize {
		return "", apperr.New(apperr.Validation, "image is too large")
	}
	base := strings.ReplaceAll(filepath.Base(fh.Filename), " ", "_")
	if !allowedImageExt[strings.ToLower(filepath.Ext(base))] {
		return "", apperr.New(apperr.Validation, "unsupported image type")
	}
	name := fmt.Sprintf("%d_%s", s.now().UnixMilli(), base)

	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", fmt.Errorf("create image: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		_ = os.Remove(dst.Name())
		return "", fmt.Errorf("write image: %w", err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("close image: %w", err)
	}
	return name, nil
}

// Remove deletes a stored image. A missing file is not an error.
func (s *ImageStore) Remove(name string) error {
	if name == "" {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, filepath.Base(name)))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
