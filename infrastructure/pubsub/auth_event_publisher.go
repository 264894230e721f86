package pubsub

import (
	"context"
	"encoding/json"
	"log"

	"cloud.google.com/go/pubsub"

	"clipbridge-api/domain/model"
	"clipbridge-api/infrastructure/logger"
)

// IAuthEventPublisher fans channel authorization lifecycle events out to
// downstream consumers (the upload scheduler, billing, analytics).
type IAuthEventPublisher interface {
	PublishAuthEvent(ctx context.Context, event model.AuthEvent) (string, error)
}

type AuthEventPublisher struct {
	PubSubClient *pubsub.Client
	TopicName    string
}

func NewAuthEventPublisher(pubSubClient *pubsub.Client, topicName string) IAuthEventPublisher {
	return &AuthEventPublisher{
		PubSubClient: pubSubClient,
		TopicName:    topicName,
	}
}

// PublishAuthEvent publishes one event and returns the server-assigned
// message ID. With a nil client it is a no-op so the API keeps working when
// Pub/Sub is not configured.
func (publisher *AuthEventPublisher) PublishAuthEvent(ctx context.Context, event model.AuthEvent) (string, error) {
	if publisher.PubSubClient == nil {
		return "", nil
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return "", err
	}

	topic := publisher.PubSubClient.Topic(publisher.TopicName)

	// Create the topic if it doesn't exist.
	exists, err := topic.Exists(ctx)
	if err != nil {
		return "", err
	}
	if !exists {
		log.Printf("Topic %v doesn't exist - creating it", publisher.TopicName)
		_, err = publisher.PubSubClient.CreateTopic(ctx, publisher.TopicName)
		if err != nil {
			return "", err
		}
	}

	msg := &pubsub.Message{
		Data: payload,
		Attributes: map[string]string{
			"channel_id": event.ChannelID,
			"status":     string(event.To),
		},
	}

	serverId, err := topic.Publish(ctx, msg).Get(ctx)
	if err != nil {
		return "", err
	}

	logger.GetLogger().
		WithField("server ID", serverId).
		WithField("channel_id", event.ChannelID).
		Info("Auth event published")
	return serverId, nil
}
