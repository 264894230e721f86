package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"clipbridge-api/domain/model"
	"clipbridge-api/infrastructure/logger"

	"github.com/redis/go-redis/v9"
)

const channelStatusTTL = 5 * time.Minute

// IChannelStatusCache caches channel auth snapshots for the dashboard status
// endpoint so repeated polls don't hit the credential store.
type IChannelStatusCache interface {
	Set(ctx context.Context, rec *model.ChannelAuth)
	Get(ctx context.Context, channelID string) (*model.ChannelAuth, bool)
	Invalidate(ctx context.Context, channelID string)
}

type ChannelStatusCache struct {
	client *redis.Client
}

// NewChannelStatusCache wraps a Redis client; a nil client disables caching.
func NewChannelStatusCache(client *redis.Client) IChannelStatusCache {
	return &ChannelStatusCache{client: client}
}

func statusKey(channelID string) string {
	return fmt.Sprintf("channel_status:%s", channelID)
}

func (c *ChannelStatusCache) Set(ctx context.Context, rec *model.ChannelAuth) {
	if c.client == nil || rec == nil {
		return
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, statusKey(rec.ID), payload, channelStatusTTL).Err(); err != nil {
		logger.GetLogger().WithField("error", err).Warn("failed caching channel status")
	}
}

func (c *ChannelStatusCache) Get(ctx context.Context, channelID string) (*model.ChannelAuth, bool) {
	if c.client == nil {
		return nil, false
	}
	payload, err := c.client.Get(ctx, statusKey(channelID)).Bytes()
	if err != nil {
		return nil, false
	}
	var rec model.ChannelAuth
	if err := json.Unmarshal(payload, &rec); err != nil {
		return nil, false
	}
	return &rec, true
}

func (c *ChannelStatusCache) Invalidate(ctx context.Context, channelID string) {
	if c.client == nil {
		return
	}
	if err := c.client.Del(ctx, statusKey(channelID)).Err(); err != nil {
		logger.GetLogger().WithField("error", err).Warn("failed invalidating channel status cache")
	}
}
