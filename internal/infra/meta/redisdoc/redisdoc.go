package redisdoc

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"

	"github.com/EgorLis/filedrop/internal/domain"
)

// Store — альтернативное хранилище метаданных (META_BACKEND=redis):
// тот же цельный JSON-документ, но под одним ключом Redis.
// Долговечность — забота конфигурации Redis (AOF/RDB).
type Store struct {
	rdb    *redis.Client
	key    string
	logger *log.Logger
}

type Config struct {
	Addr     string
	DB       int
	Password string
	Key      string
}

func New(cfg Config, logger *log.Logger) *Store {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		DB:       cfg.DB,
		Password: cfg.Password,
	})
	key := cfg.Key
	if key == "" {
		key = "filedrop:records"
	}
	return &Store{rdb: rdb, key: key, logger: logger}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *Store) Close() {
	if err := s.rdb.Close(); err != nil {
		s.logger.Printf("error while closing: %v", err)
		return
	}
	s.logger.Println("closed")
}

func (s *Store) Load(ctx context.Context) ([]domain.BlobRecord, error) {
	b, err := s.rdb.Get(ctx, s.key).Bytes()
	if err == redis.Nil {
		return []domain.BlobRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GET %q: %v", domain.ErrMetaPersist, s.key, err)
	}
	var records []domain.BlobRecord
	if err := json.Unmarshal(b, &records); err != nil {
		s.logger.Printf("corrupt metadata document at %q, starting empty: %v", s.key, err)
		return []domain.BlobRecord{}, nil
	}
	return records, nil
}

func (s *Store) Save(ctx context.Context, records []domain.BlobRecord) error {
	if records == nil {
		records = []domain.BlobRecord{}
	}
	b, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("%w: marshal: %v", domain.ErrMetaPersist, err)
	}
	if err := s.rdb.Set(ctx, s.key, b, 0).Err(); err != nil {
		return fmt.Errorf("%w: SET %q: %v", domain.ErrMetaPersist, s.key, err)
	}
	return nil
}
