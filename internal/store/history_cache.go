package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"voice-agent-workers/internal/conversation/history"

	"github.com/redis/go-redis/v9"
)

// HistoryCache keeps the most recent turns of each conversation in a
// capped Redis list.
type HistoryCache struct {
	client *redis.Client
	window int
	ttl    time.Duration
}

func NewHistoryCache(client *redis.Client, window int, ttl time.Duration) *HistoryCache {
	if window <= 0 {
		window = history.DefaultWindow
	}
	return &HistoryCache{client: client, window: window, ttl: ttl}
}

func historyKey(conversationID string) string {
	return "conversation:" + conversationID + ":turns"
}

// Append pushes turns and trims the list back to the window.
func (c *HistoryCache) Append(ctx context.Context, conversationID string, turns ...history.Turn) error {
	if len(turns) == 0 {
		return nil
	}

	values := make([]interface{}, 0, len(turns))
	for _, t := range turns {
		data, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("encode turn: %w", err)
		}
		values = append(values, data)
	}

	key := historyKey(conversationID)
	pipe := c.client.TxPipeline()
	pipe.RPush(ctx, key, values...)
	pipe.LTrim(ctx, key, int64(-c.window), -1)
	if c.ttl > 0 {
		pipe.Expire(ctx, key, c.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}

// Recent returns the cached turns, oldest first. ok is false when nothing
// is cached for the conversation.
func (c *HistoryCache) Recent(ctx context.Context, conversationID string) (turns []history.Turn, ok bool, err error) {
	raw, err := c.client.LRange(ctx, historyKey(conversationID), 0, -1).Result()
	if err != nil {
		return nil, false, fmt.Errorf("read history: %w", err)
	}
	if len(raw) == 0 {
		return nil, false, nil
	}

	turns = make([]history.Turn, 0, len(raw))
	for _, item := range raw {
		var t history.Turn
		if err := json.Unmarshal([]byte(item), &t); err != nil {
			return nil, false, fmt.Errorf("decode turn: %w", err)
		}
		turns = append(turns, t)
	}
	return turns, true, nil
}

func (c *HistoryCache) Clear(ctx context.Context, conversationID string) error {
	return c.client.Del(ctx, historyKey(conversationID)).Err()
}
