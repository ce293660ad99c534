package backend

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gurpreetgarry91/pbs-frontend/internal/domain/model"
)

const (
	mediaPath          = "/media"
	advertisementsPath = "/advertisements"

	// DayLayout — формат параметра date
	DayLayout = "2006-01-02"
)

var (
	// ErrNoFiles — попытка загрузки без файлов.
	ErrNoFiles = errors.New("не выбраны файлы для загрузки")
	// ErrNotImage — для рекламы допускаются только изображения.
	ErrNotImage = errors.New("рекламные материалы должны быть изображениями")
)

// ListMedia возвращает медиафайлы подписчика за день.
// GET /media?user_id=<id>&date=<YYYY-MM-DD>
// URL элементов дополняется префиксом MediaBaseURL, вид (image/video)
// вычисляется здесь один раз.
func (c *Client) ListMedia(ctx context.Context, userID int64, day time.Time) ([]model.MediaItem, error) {
	q := url.Values{
		"user_id": []string{strconv.FormatInt(userID, 10)},
		"date":    []string{day.Format(DayLayout)},
	}
	var items []model.MediaItem
	if err := c.do(ctx, request{op: "list media", method: http.MethodGet, path: mediaPath, query: q}, &items); err != nil {
		return nil, err
	}
	for i := range items {
		items[i].URL = ResolveMediaURL(c.mediaBaseURL, items[i].URL)
		items[i].Kind = model.KindFromType(items[i].MediaType)
	}
	return items, nil
}

// UploadMedia загружает файлы подписчику на указанный день одним запросом.
// POST /media (multipart: user_id, date, files...)
func (c *Client) UploadMedia(ctx context.Context, userID int64, day time.Time, files []model.UploadFile) error {
	if len(files) == 0 {
		return ErrNoFiles
	}
	fields := map[string]string{
		"user_id": strconv.FormatInt(userID, 10),
		"date":    day.Format(DayLayout),
	}
	body, contentType, err := multipartBody(fields, files)
	if err != nil {
		return err
	}
	return c.do(ctx, request{op: "upload media", method: http.MethodPost, path: mediaPath, body: body, contentType: contentType}, nil)
}

// DeleteMedia удаляет медиафайл.
func (c *Client) DeleteMedia(ctx context.Context, id int64) error {
	return c.do(ctx, request{op: "delete media", method: http.MethodDelete, path: idPath(mediaPath, id)}, nil)
}

// ListAdvertisements возвращает рекламные изображения.
func (c *Client) ListAdvertisements(ctx context.Context) ([]model.Advertisement, error) {
	var ads []model.Advertisement
	if err := c.do(ctx, request{op: "list advertisements", method: http.MethodGet, path: advertisementsPath}, &ads); err != nil {
		return nil, err
	}
	for i := range ads {
		ads[i].URL = ResolveMediaURL(c.mediaBaseURL, ads[i].URL)
	}
	return ads, nil
}

// UploadAdvertisements загружает рекламные изображения.
// Файлы, не являющиеся изображениями, отклоняются до отправки запроса.
func (c *Client) UploadAdvertisements(ctx context.Context, files []model.UploadFile) error {
	if len(files) == 0 {
		return ErrNoFiles
	}
	for _, f := range files {
		if !f.IsImage() {
			return fmt.Errorf("%s: %w", f.Name, ErrNotImage)
		}
	}
	body, contentType, err := multipartBody(nil, files)
	if err != nil {
		return err
	}
	return c.do(ctx, request{op: "upload advertisements", method: http.MethodPost, path: advertisementsPath, body: body, contentType: contentType}, nil)
}

// DeleteAdvertisement удаляет рекламное изображение.
func (c *Client) DeleteAdvertisement(ctx context.Context, id int64) error {
	return c.do(ctx, request{op: "delete advertisement", method: http.MethodDelete, path: idPath(advertisementsPath, id)}, nil)
}

// ResolveMediaURL дополняет относительный URL префиксом base.
// Абсолютные URL возвращаются без изменений.
func ResolveMediaURL(base, u string) string {
	if u == "" {
		return ""
	}
	if strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://") {
		return u
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(u, "/")
}

// multipartBody собирает multipart/form-data с полями и файлами под именем files.
func multipartBody(fields map[string]string, files []model.UploadFile) (io.Reader, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	for _, name := range []string{"user_id", "date"} {
		if v, ok := fields[name]; ok {
			if err := mw.WriteField(name, v); err != nil {
				return nil, "", fmt.Errorf("запись поля %s: %w", name, err)
			}
		}
	}

	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files"; filename="%s"`, escapeQuotes(f.Name)))
		ct := f.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h.Set("Content-Type", ct)
		part, err := mw.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("создание части %s: %w", f.Name, err)
		}
		if _, err := io.Copy(part, f.Reader()); err != nil {
			return nil, "", fmt.Errorf("запись файла %s: %w", f.Name, err)
		}
	}

	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("завершение multipart: %w", err)
	}
	return &buf, mw.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
