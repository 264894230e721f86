package servicebus

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"

	"clipbridge-api/infrastructure/logger"
)

// IUploadNotifier tells the upload pipeline that a channel became ready for
// dispatch, or stopped being ready.
type IUploadNotifier interface {
	NotifyChannelReady(ctx context.Context, channelID string) error
	NotifyChannelSuspended(ctx context.Context, channelID string, reason string) error
}

type UploadNotifier struct {
	AzservicebusClient *azservicebus.Client
	QueueName          string
}

func NewUploadNotifier(azServiceBusClient *azservicebus.Client, queueName string) IUploadNotifier {
	return &UploadNotifier{
		AzservicebusClient: azServiceBusClient,
		QueueName:          queueName,
	}
}

type uploadDispatchMessage struct {
	ChannelID string    `json:"channel_id"`
	Event     string    `json:"event"`
	Reason    string    `json:"reason,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func (notifier *UploadNotifier) NotifyChannelReady(ctx context.Context, channelID string) error {
	return notifier.send(ctx, uploadDispatchMessage{
		ChannelID: channelID,
		Event:     "channel_ready",
		Timestamp: time.Now().UTC(),
	})
}

func (notifier *UploadNotifier) NotifyChannelSuspended(ctx context.Context, channelID string, reason string) error {
	return notifier.send(ctx, uploadDispatchMessage{
		ChannelID: channelID,
		Event:     "channel_suspended",
		Reason:    reason,
		Timestamp: time.Now().UTC(),
	})
}

func (notifier *UploadNotifier) send(ctx context.Context, message uploadDispatchMessage) error {
	if notifier.AzservicebusClient == nil {
		return nil
	}

	body, err := json.Marshal(message)
	if err != nil {
		return err
	}

	sender, err := notifier.AzservicebusClient.NewSender(notifier.QueueName, nil)
	if err != nil {
		logger.GetLogger().
			WithField("error", err).
			Error("Error while making new sender service bus.")
		return err
	}
	defer func(sender *azservicebus.Sender, ctx context.Context) {
		err := sender.Close(ctx)
		if err != nil {
			logger.GetLogger().
				WithField("error", err).
				Error("Error while closing sender.")
		}
	}(sender, context.Background())

	sbMessage := &azservicebus.Message{
		Body: body,
	}
	err = sender.SendMessage(ctx, sbMessage, nil)
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while sending message.")
		return err
	}

	return nil
}
