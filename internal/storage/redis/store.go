package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/julianstephens/clinichat/internal/constants"
	"github.com/julianstephens/clinichat/internal/storage"
)

const (
	keyPrefix   = constants.AppName + ":"
	markerKey   = keyPrefix + "initialized"
	callTimeout = 5 * time.Second
)

// Store keeps entries as plain string keys under the clinichat: prefix.
type Store struct {
	url    string
	client *goredis.Client
}

func New(url string) *Store {
	return &Store{url: url}
}

// NewWithClient wraps an existing client.
func NewWithClient(client *goredis.Client) *Store {
	return &Store{client: client}
}

func (s *Store) connect() error {
	if s.client != nil {
		return nil
	}
	opts, err := goredis.ParseURL(s.url)
	if err != nil {
		return fmt.Errorf("invalid redis url: %w", err)
	}
	s.client = goredis.NewClient(opts)
	return nil
}

func (s *Store) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), callTimeout)
}

func (s *Store) Init() error {
	if err := s.connect(); err != nil {
		return err
	}
	ctx, cancel := s.ctx()
	defer cancel()

	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	created, err := s.client.SetNX(ctx, markerKey, time.Now().UTC().Format(time.RFC3339), 0).Result()
	if err != nil {
		return fmt.Errorf("failed to initialize redis storage: %w", err)
	}
	if !created {
		return fmt.Errorf("storage already initialized at %s", s.GetConfigPath())
	}
	return nil
}

func (s *Store) Load() error {
	if err := s.connect(); err != nil {
		return err
	}
	ctx, cancel := s.ctx()
	defer cancel()

	n, err := s.client.Exists(ctx, markerKey).Result()
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("storage not initialized, run 'clinichat init' first")
	}
	return nil
}

func (s *Store) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

func (s *Store) Get(key string) ([]byte, error) {
	if s.client == nil {
		return nil, storage.ErrNotLoaded
	}
	ctx, cancel := s.ctx()
	defer cancel()

	value, err := s.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return value, nil
}

func (s *Store) Set(key string, value []byte) error {
	if s.client == nil {
		return storage.ErrNotLoaded
	}
	ctx, cancel := s.ctx()
	defer cancel()

	if err := s.client.Set(ctx, keyPrefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(key string) error {
	if s.client == nil {
		return storage.ErrNotLoaded
	}
	ctx, cancel := s.ctx()
	defer cancel()

	if err := s.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

func (s *Store) GetConfigPath() string {
	if s.url != "" {
		return s.url
	}
	if s.client != nil {
		return "redis://" + s.client.Options().Addr
	}
	return ""
}
