package usecase_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clipbridge-api/domain/dto"
	"clipbridge-api/domain/model"
	"clipbridge-api/usecase"
)

func waitDiscovery(t *testing.T, watch *usecase.DiscoveryWatch) (usecase.DiscoveryResult, bool) {
	t.Helper()
	select {
	case result, ok := <-watch.Result():
		return result, ok
	case <-time.After(2 * time.Second):
		t.Fatal("no discovery result within deadline")
		return usecase.DiscoveryResult{}, false
	}
}

func TestPoller_StopsWhenChannelFound(t *testing.T) {
	var probes atomic.Int32
	checker := func(ctx context.Context, channelID string) (*dto.CheckChannelResponse, error) {
		if probes.Add(1) < 2 {
			return &dto.CheckChannelResponse{AuthStatus: string(model.AuthStatusNoChannel)}, nil
		}
		return &dto.CheckChannelResponse{
			Found:        true,
			ChannelID:    "UC123",
			ChannelTitle: "Clips Daily",
			AuthStatus:   string(model.AuthStatusConnected),
		}, nil
	}
	poller := usecase.NewChannelDiscoveryPoller(checker, usecase.PollerConfig{
		Interval: 10 * time.Millisecond,
		Budget:   time.Second,
	})

	watch := poller.Watch(context.Background(), "ch1")

	result, ok := waitDiscovery(t, watch)
	require.True(t, ok)
	assert.True(t, result.Found)
	assert.Equal(t, "UC123", result.ChannelID)
	assert.Equal(t, "found", result.Reason)
}

func TestPoller_StopsWhenStatusLeavesNoChannel(t *testing.T) {
	checker := func(ctx context.Context, channelID string) (*dto.CheckChannelResponse, error) {
		// Some other path reauthorized the channel meanwhile.
		return &dto.CheckChannelResponse{AuthStatus: string(model.AuthStatusAuthorizing)}, nil
	}
	poller := usecase.NewChannelDiscoveryPoller(checker, usecase.PollerConfig{
		Interval: 10 * time.Millisecond,
		Budget:   time.Second,
	})

	watch := poller.Watch(context.Background(), "ch1")

	result, ok := waitDiscovery(t, watch)
	require.True(t, ok)
	assert.False(t, result.Found)
	assert.Equal(t, "status_changed", result.Reason)
}

func TestPoller_BudgetExpires(t *testing.T) {
	checker := func(ctx context.Context, channelID string) (*dto.CheckChannelResponse, error) {
		return &dto.CheckChannelResponse{AuthStatus: string(model.AuthStatusNoChannel)}, nil
	}
	poller := usecase.NewChannelDiscoveryPoller(checker, usecase.PollerConfig{
		Interval: 10 * time.Millisecond,
		Budget:   60 * time.Millisecond,
	})

	watch := poller.Watch(context.Background(), "ch1")

	result, ok := waitDiscovery(t, watch)
	require.True(t, ok)
	assert.Equal(t, "timeout", result.Reason)
}

func TestPoller_CheckNowProbesImmediately(t *testing.T) {
	var probes atomic.Int32
	checker := func(ctx context.Context, channelID string) (*dto.CheckChannelResponse, error) {
		probes.Add(1)
		return &dto.CheckChannelResponse{
			Found:      true,
			ChannelID:  "UC123",
			AuthStatus: string(model.AuthStatusConnected),
		}, nil
	}
	poller := usecase.NewChannelDiscoveryPoller(checker, usecase.PollerConfig{
		Interval: time.Hour,
		Budget:   time.Hour,
	})

	watch := poller.Watch(context.Background(), "ch1")
	watch.CheckNow()

	result, ok := waitDiscovery(t, watch)
	require.True(t, ok)
	assert.True(t, result.Found)
	assert.Equal(t, int32(1), probes.Load())
}

func TestPoller_CheckNowKeepsAbsoluteBudgetRunning(t *testing.T) {
	checker := func(ctx context.Context, channelID string) (*dto.CheckChannelResponse, error) {
		return &dto.CheckChannelResponse{AuthStatus: string(model.AuthStatusNoChannel)}, nil
	}
	poller := usecase.NewChannelDiscoveryPoller(checker, usecase.PollerConfig{
		Interval: 20 * time.Millisecond,
		Budget:   80 * time.Millisecond,
	})

	watch := poller.Watch(context.Background(), "ch1")
	stopKicking := make(chan struct{})
	go func() {
		ticker := time.NewTicker(10 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-stopKicking:
				return
			case <-ticker.C:
				watch.CheckNow()
			}
		}
	}()

	result, ok := waitDiscovery(t, watch)
	close(stopKicking)
	require.True(t, ok)
	assert.Equal(t, "timeout", result.Reason)
}

func TestPoller_StopTearsDown(t *testing.T) {
	checker := func(ctx context.Context, channelID string) (*dto.CheckChannelResponse, error) {
		return &dto.CheckChannelResponse{AuthStatus: string(model.AuthStatusNoChannel)}, nil
	}
	poller := usecase.NewChannelDiscoveryPoller(checker, usecase.PollerConfig{
		Interval: time.Hour,
		Budget:   time.Hour,
	})

	watch := poller.Watch(context.Background(), "ch1")
	watch.Stop()

	_, ok := waitDiscovery(t, watch)
	assert.False(t, ok)

	watch.Stop()
	watch.CheckNow()
}
