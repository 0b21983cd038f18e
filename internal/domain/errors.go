package domain

import "errors"

// Бизнес-ошибки (маппятся на HTTP коды в transport/web/v1)
var (
	ErrMalformedUpload = errors.New("malformed_upload")    // 400: битый multipart
	ErrNoFile          = errors.New("no_file_provided")    // 400: нет файла или он пустой
	ErrSizeLimit       = errors.New("size_limit_exceeded") // 400
	ErrUploadTimeout   = errors.New("upload_timeout")      // 408
	ErrNotFound        = errors.New("not_found")           // 404: нет записи или блоб пропал
	ErrMetaPersist     = errors.New("metadata_persist")    // 500 либо толерантно (см. ingest)
	ErrBlobIO          = errors.New("blob_io")             // 500: дисковая ошибка
)
