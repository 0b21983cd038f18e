package domain

import "time"

// Запись об одном загруженном файле — единица метаданных.
type BlobRecord struct {
	ID           string    `json:"id"`
	OriginalName string    `json:"originalName"` // имя от клиента; только для отображения и скачивания
	StoredName   string    `json:"filename"`     // имя в репозитории: <id><ext>
	Downloads    int64     `json:"downloads"`
	CreatedAt    time.Time `json:"createdAt"`
}

// ExpiresAt — момент, после которого запись подлежит удалению свипером.
func (r BlobRecord) ExpiresAt(ttl time.Duration) time.Time {
	return r.CreatedAt.Add(ttl)
}

func (r BlobRecord) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(r.CreatedAt) > ttl
}

// FileInfo — представление записи для ответа /api/info/:id.
type FileInfo struct {
	ID        string    `json:"id"`
	Filename  string    `json:"filename"`
	Downloads int64     `json:"downloads"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func NewFileInfo(r BlobRecord, ttl time.Duration) FileInfo {
	return FileInfo{
		ID:        r.ID,
		Filename:  r.OriginalName,
		Downloads: r.Downloads,
		CreatedAt: r.CreatedAt,
		ExpiresAt: r.ExpiresAt(ttl),
	}
}
