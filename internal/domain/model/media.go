package model

import (
	"bytes"
	"io"
	"strings"
)

// MediaKind — вид медиафайла.
type MediaKind int

const (
	// MediaVideo — любой тип, кроме image/*
	MediaVideo MediaKind = iota
	// MediaImage — image/*
	MediaImage
)

// String возвращает имя вида для шаблонов.
func (k MediaKind) String() string {
	if k == MediaImage {
		return "image"
	}
	return "video"
}

// KindFromType определяет вид по MIME-подобной строке media_type.
func KindFromType(mediaType string) MediaKind {
	if strings.HasPrefix(strings.ToLower(mediaType), "image") {
		return MediaImage
	}
	return MediaVideo
}

// MediaItem — медиафайл подписчика за конкретную дату.
type MediaItem struct {
	ID           int64  `json:"id"`
	UserID       int64  `json:"user_id"`
	OriginalName string `json:"original_name"`
	// URL — относительный путь от backend, после загрузки списка — абсолютный
	URL       string `json:"url"`
	MediaType string `json:"media_type"`
	CreatedAt string `json:"created_at"`

	// Kind вычисляется один раз при загрузке списка.
	Kind MediaKind `json:"-"`
}

// IsImage — удобство для шаблонов.
func (m MediaItem) IsImage() bool {
	return m.Kind == MediaImage
}

// Advertisement — рекламное изображение.
type Advertisement struct {
	ID           int64  `json:"id"`
	OriginalName string `json:"original_name"`
	URL          string `json:"url"`
	CreatedAt    string `json:"created_at,omitempty"`
}

// UploadFile — файл, подготовленный к отправке в multipart-запросе.
type UploadFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// Size возвращает размер содержимого в байтах.
func (f UploadFile) Size() int64 {
	return int64(len(f.Data))
}

// Reader возвращает новый reader по содержимому.
func (f UploadFile) Reader() io.Reader {
	return bytes.NewReader(f.Data)
}

// IsImage проверяет, что файл является изображением.
func (f UploadFile) IsImage() bool {
	return KindFromType(f.ContentType) == MediaImage
}
