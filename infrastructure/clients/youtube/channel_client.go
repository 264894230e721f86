package youtube

import (
	"context"
	"fmt"

	"clipbridge-api/domain/model"
	"clipbridge-api/domain/repository"

	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// ChannelClient reads the authenticated user's channel through the YouTube
// Data API. A fresh service is built per call because every call may carry a
// different channel's access token.
type ChannelClient struct{}

func NewChannelClient() repository.IYouTubeChannel {
	return &ChannelClient{}
}

// GetMyChannel fetches the channel owned by the account behind accessToken.
// It returns (nil, nil) when the account has no channel yet, which is a
// normal state for brand-new Google accounts.
func (c *ChannelClient) GetMyChannel(ctx context.Context, accessToken string) (*model.ChannelSnapshot, error) {
	tokenSource := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})
	service, err := youtube.NewService(ctx, option.WithTokenSource(tokenSource))
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}

	response, err := service.Channels.List([]string{"snippet", "statistics"}).
		Mine(true).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list my channels: %w", err)
	}

	if len(response.Items) == 0 {
		return nil, nil
	}

	channel := response.Items[0]
	snapshot := &model.ChannelSnapshot{
		ChannelID: channel.Id,
		Title:     channel.Snippet.Title,
	}
	if channel.Snippet.Thumbnails != nil && channel.Snippet.Thumbnails.Default != nil {
		snapshot.Thumbnail = channel.Snippet.Thumbnails.Default.Url
	}
	if channel.Statistics != nil {
		snapshot.SubscriberCount = int64(channel.Statistics.SubscriberCount)
		snapshot.VideoCount = int64(channel.Statistics.VideoCount)
	}
	return snapshot, nil
}
