// Package tickets persists cloud queue tickets so interrupted jobs can be
// resumed after a restart.
package tickets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/models"
	redis "github.com/redis/go-redis/v9"
)

const keyPrefix = "cinemaos:tickets:"

// ErrTicketNotFound indicates no ticket is stored for the given job.
var ErrTicketNotFound = errors.New("ticket not found")

// Config holds the Redis connection settings for the ticket store.
type Config struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// RedisStore keeps one ticket per job in Redis. Entries expire after the
// configured TTL so abandoned jobs do not accumulate.
type RedisStore struct {
	client redis.UniversalClient
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, logger *slog.Logger, config Config) (*RedisStore, error) {
	if config.Addr == "" {
		config.Addr = "localhost:6379"
	}

	if config.TTL <= 0 {
		config.TTL = 24 * time.Hour
	}

	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := client.Ping(pingCtx).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	store := &RedisStore{
		client: client,
		ttl:    config.TTL,
		logger: logger.With("module", "ticket_store"),
	}

	store.logger.InfoContext(ctx, "Connected to Redis", "addr", config.Addr, "db", config.DB)

	return store, nil
}

func ticketKey(jobID string) string {
	return keyPrefix + jobID
}

// Save stores the ticket for a job, replacing any previous one.
func (s *RedisStore) Save(ctx context.Context, jobID string, ticket models.Ticket) error {
	data, err := json.Marshal(ticket)
	if err != nil {
		return fmt.Errorf("failed to marshal ticket: %w", err)
	}

	err = s.client.Set(ctx, ticketKey(jobID), data, s.ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to store ticket for job %s: %w", jobID, err)
	}

	return nil
}

// Load returns the stored ticket for a job.
func (s *RedisStore) Load(ctx context.Context, jobID string) (*models.Ticket, error) {
	data, err := s.client.Get(ctx, ticketKey(jobID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrTicketNotFound
		}

		return nil, fmt.Errorf("failed to load ticket for job %s: %w", jobID, err)
	}

	var ticket models.Ticket

	err = json.Unmarshal(data, &ticket)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal ticket for job %s: %w", jobID, err)
	}

	return &ticket, nil
}

// Delete removes the stored ticket for a job. Deleting a missing ticket is
// not an error.
func (s *RedisStore) Delete(ctx context.Context, jobID string) error {
	err := s.client.Del(ctx, ticketKey(jobID)).Err()
	if err != nil {
		return fmt.Errorf("failed to delete ticket for job %s: %w", jobID, err)
	}

	return nil
}

// Close releases the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
