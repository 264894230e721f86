package servicebus_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"clipbridge-api/infrastructure/servicebus"
)

func TestNewUploadNotifier(t *testing.T) {
	notifier := servicebus.NewUploadNotifier(nil, "upload-dispatch")
	assert.NotNil(t, notifier)
}

// A nil client must degrade to a no-op instead of panicking.
func TestNotifyWithoutClient(t *testing.T) {
	notifier := servicebus.NewUploadNotifier(nil, "upload-dispatch")

	assert.NoError(t, notifier.NotifyChannelReady(context.Background(), "channel-1"))
	assert.NoError(t, notifier.NotifyChannelSuspended(context.Background(), "channel-1", "token_revoked"))
}
