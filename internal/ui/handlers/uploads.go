package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gurpreetgarry91/pbs-frontend/internal/domain/model"
)

// errUploadTooLarge — тело запроса превысило лимит загрузки.
var errUploadTooLarge = errors.New("превышен размер загружаемых файлов")

const (
	// multipartMemory — часть формы, которую ParseMultipartForm держит в памяти
	multipartMemory = 8 << 20
	// multipartOverhead — запас на заголовки частей сверх лимита файлов
	multipartOverhead = 1 << 20
)

// readUploads читает файлы поля field из multipart-формы. Тип файла берётся
// из заголовка части, при его отсутствии определяется по содержимому.
func readUploads(w http.ResponseWriter, r *http.Request, field string, maxBytes int64) ([]model.UploadFile, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+multipartOverhead)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, errUploadTooLarge
		}
		return nil, fmt.Errorf("разбор multipart-формы: %w", err)
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File[field]
	files := make([]model.UploadFile, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("открытие файла %s: %w", fh.Filename, err)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("чтение файла %s: %w", fh.Filename, err)
		}

		contentType := fh.Header.Get("Content-Type")
		if contentType == "" || contentType == "application/octet-stream" {
			contentType = http.DetectContentType(data)
		}
		files = append(files, model.UploadFile{
			Name:        fh.Filename,
			ContentType: contentType,
			Data:        data,
		})
	}
	return files, nil
}
