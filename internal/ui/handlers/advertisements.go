// advertisements.go — рекламные изображения.
package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gurpreetgarry91/pbs-frontend/internal/backend"
	"github.com/gurpreetgarry91/pbs-frontend/internal/domain/model"
	"github.com/gurpreetgarry91/pbs-frontend/internal/ui/pages"
)

const advertisementsPath = "/dashboard/advertisements"

// AdvertisementBackend — операции backend над рекламными материалами.
type AdvertisementBackend interface {
	ListAdvertisements(ctx context.Context) ([]model.Advertisement, error)
	UploadAdvertisements(ctx context.Context, files []model.UploadFile) error
	DeleteAdvertisement(ctx context.Context, id int64) error
}

// AdvertisementsHandler — страница рекламных материалов.
type AdvertisementsHandler struct {
	base
	api      AdvertisementBackend
	maxBytes int64
}

// NewAdvertisementsHandler создаёт AdvertisementsHandler. maxBytes — лимит
// тела запроса загрузки.
func NewAdvertisementsHandler(api AdvertisementBackend, maxBytes int64, sessions SessionClearer, logger *slog.Logger) *AdvertisementsHandler {
	return &AdvertisementsHandler{
		base:     newBase(sessions, logger, "ui.advertisements"),
		api:      api,
		maxBytes: maxBytes,
	}
}

// HandleList — GET /dashboard/advertisements.
func (h *AdvertisementsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	data := pages.AdvertisementsData{
		Layout: h.layout(r, "title.advertisements", pages.NavAdvertisements),
	}
	items, err := h.api.ListAdvertisements(r.Context())
	if err != nil {
		if h.unauthorized(w, r, err) {
			return
		}
		h.logBackendError(r, "Ошибка получения рекламных материалов", err)
		data.ListError = true
		data.Alert = failure(err, "")
	}
	data.Items = items
	h.render(w, r, http.StatusOK, pages.Advertisements(data))
}

// HandleUpload — POST /dashboard/advertisements (multipart, поле files).
// Файлы, не являющиеся изображениями, пропускаются; загрузка отклоняется,
// только если изображений не осталось.
func (h *AdvertisementsHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	files, err := readUploads(w, r, "files", h.maxBytes)
	if err != nil {
		h.logger.Debug("Отклонена загрузка рекламы", slog.String("error", err.Error()))
		key := "error.upload_failed"
		if errors.Is(err, errUploadTooLarge) {
			key = "media.too_large"
		}
		redirectAlert(w, r, advertisementsPath, key)
		return
	}

	images, skipped := onlyImages(files)
	if len(images) == 0 && skipped > 0 {
		redirectAlert(w, r, advertisementsPath, "error.not_image")
		return
	}

	if err := h.api.UploadAdvertisements(r.Context(), images); err != nil {
		switch {
		case errors.Is(err, backend.ErrNoFiles):
			redirectAlert(w, r, advertisementsPath, "error.no_files")
		case errors.Is(err, backend.ErrNotImage):
			redirectAlert(w, r, advertisementsPath, "error.not_image")
		case h.unauthorized(w, r, err):
		default:
			h.logBackendError(r, "Ошибка загрузки рекламы", err)
			redirectAlert(w, r, advertisementsPath, failure(err, "error.upload_failed"))
		}
		return
	}
	h.logger.Info("Рекламные материалы загружены",
		slog.Int("files", len(images)),
		slog.Int("skipped", skipped),
	)
	if skipped > 0 {
		redirectNotice(w, r, advertisementsPath, "notice.uploaded_images_only")
		return
	}
	redirectNotice(w, r, advertisementsPath, "notice.uploaded")
}

// onlyImages отбирает изображения и возвращает число пропущенных файлов.
func onlyImages(files []model.UploadFile) ([]model.UploadFile, int) {
	images := make([]model.UploadFile, 0, len(files))
	for _, f := range files {
		if f.IsImage() {
			images = append(images, f)
		}
	}
	return images, len(files) - len(images)
}

// HandleDelete — POST /dashboard/advertisements/{id}/delete (confirm=true).
func (h *AdvertisementsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.renderError(w, r, http.StatusNotFound, "error.not_found")
		return
	}
	if !h.confirmed(w, r, pages.NavAdvertisements, "advertisements.confirm_delete", advertisementsPath) {
		return
	}
	if err := h.api.DeleteAdvertisement(r.Context(), id); err != nil {
		if h.unauthorized(w, r, err) {
			return
		}
		h.logBackendError(r, "Ошибка удаления рекламы", err)
		redirectAlert(w, r, advertisementsPath, failure(err, "error.delete_failed"))
		return
	}
	h.logger.Info("Рекламный материал удалён", slog.Int64("id", id))
	redirectNotice(w, r, advertisementsPath, "notice.deleted")
}
