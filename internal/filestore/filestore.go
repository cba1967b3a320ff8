package filestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/linemk/shop-api/internal/domain/models"
)

var (
	ErrNotImage        = errors.New("only image files are allowed")
	ErrTooLarge        = errors.New("file is too large")
	ErrInvalidPublicID = errors.New("invalid public id")
)

// Store хранилище загруженных изображений
type Store interface {
	Save(ctx context.Context, r io.Reader) (models.Image, error)
	Delete(ctx context.Context, publicID string) error
}

// LocalStore кладёт файлы в каталог, раздаваемый сервером по BaseURL
type LocalStore struct {
	dir     string
	baseURL string
	maxSize int64
}

func NewLocalStore(dir, baseURL string, maxSize int64) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads dir: %w", err)
	}
	return &LocalStore{
		dir:     dir,
		baseURL: strings.TrimRight(baseURL, "/"),
		maxSize: maxSize,
	}, nil
}

// Save проверяет размер и тип по содержимому, имя файла генерируется
func (s *LocalStore) Save(ctx context.Context, r io.Reader) (models.Image, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.maxSize+1))
	if err != nil {
		return models.Image{}, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > s.maxSize {
		return models.Image{}, ErrTooLarge
	}

	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return models.Image{}, ErrNotImage
	}
	if err := ctx.Err(); err != nil {
		return models.Image{}, err
	}

	publicID := uuid.NewString() + mt.Extension()
	if err := os.WriteFile(filepath.Join(s.dir, publicID), data, 0o644); err != nil {
		return models.Image{}, fmt.Errorf("write upload: %w", err)
	}

	return models.Image{
		PublicID: publicID,
		URL:      s.baseURL + "/" + publicID,
	}, nil
}

// Delete отсутствующий файл ошибкой не считается
func (s *LocalStore) Delete(_ context.Context, publicID string) error {
	if publicID == "" {
		return nil
	}
	if filepath.Base(publicID) != publicID || publicID == "." || publicID == ".." {
		return ErrInvalidPublicID
	}
	if err := os.Remove(filepath.Join(s.dir, publicID)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete upload: %w", err)
	}
	return nil
}
