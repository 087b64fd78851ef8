package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/tickets"
)

// NewTicketStore connects the resumable-ticket store. An empty URL returns
// nil without error: jobs then resume from the ticket id on their record
// instead of the full stored ticket.
func NewTicketStore(ctx context.Context, logger *slog.Logger, redisURL string, ttl time.Duration) (*tickets.RedisStore, error) {
	if redisURL == "" {
		return nil, nil
	}

	options, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	return tickets.NewRedisStore(ctx, logger, tickets.Config{
		Addr:     options.Addr,
		Password: options.Password,
		DB:       options.DB,
		TTL:      ttl,
	})
}
