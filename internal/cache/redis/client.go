package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ai-recommender/backend/pkg/logger"
)

// Client caches raw AI analysis responses so repeated prompts skip the
// provider entirely. It satisfies the recommender's AnalysisCache interface.
type Client struct {
	client *redis.Client
	ttl    time.Duration
}

func NewClient(host string, port int, password string, db int, ttl time.Duration) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	ctx := context.Background()
	_, err := client.Ping(ctx).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Redis client initialized", zap.String("addr", fmt.Sprintf("%s:%d", host, port)))

	return &Client{client: client, ttl: ttl}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) SetAnalysis(ctx context.Context, key, value string) error {
	err := c.client.Set(ctx, "analysis:"+key, value, c.ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to cache analysis: %w", err)
	}

	logger.Debug("AI analysis cached", zap.String("key", key), zap.Duration("ttl", c.ttl))
	return nil
}

func (c *Client) GetAnalysis(ctx context.Context, key string) (string, bool, error) {
	value, err := c.client.Get(ctx, "analysis:"+key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get cached analysis: %w", err)
	}

	logger.Debug("AI analysis cache hit", zap.String("key", key))
	return value, true, nil
}

// InvalidateAnalysisCache drops every cached analysis, used after the
// product dataset is re-imported.
func (c *Client) InvalidateAnalysisCache(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, "analysis:*", 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			logger.Warn("Failed to delete cache key", zap.Error(err))
		}
	}

	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to iterate cache keys: %w", err)
	}

	logger.Info("AI analysis cache invalidated")
	return nil
}
