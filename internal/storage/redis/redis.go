// Package redis keeps the shared leaderboard record in Redis so that several
// server replicas see one ranking.
package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Client wraps goredis.Client for dependency injection.
type Client struct {
	*goredis.Client
}

// NewClient connects to addr and verifies the connection with a ping.
func NewClient(ctx context.Context, addr, password string, db int) (*Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &Client{Client: rdb}, nil
}

// Check pings the server; used by the health endpoint.
func (c *Client) Check(ctx context.Context) error {
	return c.Ping(ctx).Err()
}
