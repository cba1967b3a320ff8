package service

import (
	"context"
	"io"
	"log/slog"

	"github.com/linemk/shop-api/internal/domain/models"
	"github.com/linemk/shop-api/internal/filestore"
)

// Upload загруженный клиентом файл
type Upload struct {
	Name    string
	Content io.Reader
}

// saveUploads сохраняет все файлы; при ошибке уже сохранённые удаляются
func saveUploads(ctx context.Context, logger *slog.Logger, files filestore.Store, uploads []Upload) (models.Images, error) {
	images := make(models.Images, 0, len(uploads))
	for _, u := range uploads {
		img, err := files.Save(ctx, u.Content)
		if err != nil {
			logger.Error("failed to save upload", slog.String("name", u.Name), slog.Any("error", err))
			removeImages(ctx, logger, files, images)
			return nil, err
		}
		images = append(images, img)
	}
	return images, nil
}

// removeImages ошибки удаления только логируются
func removeImages(ctx context.Context, logger *slog.Logger, files filestore.Store, images models.Images) {
	for _, img := range images {
		if err := files.Delete(ctx, img.PublicID); err != nil {
			logger.Warn("failed to delete stored image", slog.String("public_id", img.PublicID), slog.Any("error", err))
		}
	}
}
