package usecase_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clipbridge-api/domain/dto"
	"clipbridge-api/domain/model"
	"clipbridge-api/usecase"
)

func staticStatus(status model.AuthStatus) usecase.StatusReader {
	return func(ctx context.Context, channelID string) (*dto.AuthStatusResponse, error) {
		return &dto.AuthStatusResponse{
			ChannelID:  channelID,
			AuthStatus: string(status),
		}, nil
	}
}

func waitOutcome(t *testing.T, attempt *usecase.AuthorizationAttempt) (usecase.AuthorizationOutcome, bool) {
	t.Helper()
	select {
	case outcome, ok := <-attempt.Outcome():
		return outcome, ok
	case <-time.After(2 * time.Second):
		t.Fatal("no outcome within deadline")
		return usecase.AuthorizationOutcome{}, false
	}
}

func TestOrchestrator_MessageWinsOverLaterPoll(t *testing.T) {
	var polls atomic.Int32
	reader := func(ctx context.Context, channelID string) (*dto.AuthStatusResponse, error) {
		polls.Add(1)
		return &dto.AuthStatusResponse{ChannelID: channelID, AuthStatus: string(model.AuthStatusConnected)}, nil
	}
	orchestrator := usecase.NewAuthorizationOrchestrator(reader, usecase.OrchestratorConfig{
		PollInterval: time.Hour,
		Timeout:      time.Hour,
	})

	attempt := orchestrator.Start(context.Background(), "ch1")
	attempt.Deliver(usecase.CallbackResult{Type: usecase.CallbackError, ChannelID: "ch1", Error: "access_denied"})

	outcome, ok := waitOutcome(t, attempt)
	require.True(t, ok)
	assert.Equal(t, usecase.CallbackError, outcome.Type)
	assert.Equal(t, "access_denied", outcome.Error)

	// The record reading connected later changes nothing; the attempt is
	// settled and the late message path is a no-op.
	attempt.Deliver(usecase.CallbackResult{Type: usecase.CallbackSuccess, ChannelID: "ch1"})
	_, open := <-attempt.Outcome()
	assert.False(t, open)
	assert.Zero(t, polls.Load())
}

func TestOrchestrator_PollObservesSettledStatus(t *testing.T) {
	orchestrator := usecase.NewAuthorizationOrchestrator(staticStatus(model.AuthStatusConnected), usecase.OrchestratorConfig{
		PollInterval: 10 * time.Millisecond,
		Timeout:      time.Second,
	})

	attempt := orchestrator.Start(context.Background(), "ch1")

	outcome, ok := waitOutcome(t, attempt)
	require.True(t, ok)
	assert.Equal(t, usecase.CallbackSuccess, outcome.Type)
	assert.Equal(t, model.AuthStatusConnected, outcome.AuthStatus)
}

func TestOrchestrator_PollTreatsNoChannelAsSuccess(t *testing.T) {
	orchestrator := usecase.NewAuthorizationOrchestrator(staticStatus(model.AuthStatusNoChannel), usecase.OrchestratorConfig{
		PollInterval: 10 * time.Millisecond,
		Timeout:      time.Second,
	})

	attempt := orchestrator.Start(context.Background(), "ch1")

	outcome, ok := waitOutcome(t, attempt)
	require.True(t, ok)
	assert.Equal(t, usecase.CallbackSuccess, outcome.Type)
	assert.Equal(t, model.AuthStatusNoChannel, outcome.AuthStatus)
}

func TestOrchestrator_PollErrorBudget(t *testing.T) {
	var polls atomic.Int32
	reader := func(ctx context.Context, channelID string) (*dto.AuthStatusResponse, error) {
		polls.Add(1)
		return nil, errors.New("boom")
	}
	orchestrator := usecase.NewAuthorizationOrchestrator(reader, usecase.OrchestratorConfig{
		PollInterval:    10 * time.Millisecond,
		Timeout:         time.Second,
		PollErrorBudget: 3,
	})

	attempt := orchestrator.Start(context.Background(), "ch1")

	outcome, ok := waitOutcome(t, attempt)
	require.True(t, ok)
	assert.Equal(t, usecase.CallbackError, outcome.Type)
	assert.Equal(t, "status check failed", outcome.Error)
	assert.Equal(t, int32(3), polls.Load())
}

func TestOrchestrator_TransientPollFailureIsAbsorbed(t *testing.T) {
	var polls atomic.Int32
	reader := func(ctx context.Context, channelID string) (*dto.AuthStatusResponse, error) {
		if polls.Add(1) < 3 {
			return nil, errors.New("blip")
		}
		return &dto.AuthStatusResponse{ChannelID: channelID, AuthStatus: string(model.AuthStatusConnected)}, nil
	}
	orchestrator := usecase.NewAuthorizationOrchestrator(reader, usecase.OrchestratorConfig{
		PollInterval:    10 * time.Millisecond,
		Timeout:         time.Second,
		PollErrorBudget: 3,
	})

	attempt := orchestrator.Start(context.Background(), "ch1")

	outcome, ok := waitOutcome(t, attempt)
	require.True(t, ok)
	assert.Equal(t, usecase.CallbackSuccess, outcome.Type)
}

func TestOrchestrator_TimeoutReleasesWithoutFailure(t *testing.T) {
	orchestrator := usecase.NewAuthorizationOrchestrator(staticStatus(model.AuthStatusAuthorizing), usecase.OrchestratorConfig{
		PollInterval: 10 * time.Millisecond,
		Timeout:      60 * time.Millisecond,
	})

	attempt := orchestrator.Start(context.Background(), "ch1")

	_, ok := waitOutcome(t, attempt)
	assert.False(t, ok)
}

func TestOrchestrator_CancelTearsDown(t *testing.T) {
	orchestrator := usecase.NewAuthorizationOrchestrator(staticStatus(model.AuthStatusAuthorizing), usecase.OrchestratorConfig{
		PollInterval: time.Hour,
		Timeout:      time.Hour,
	})

	attempt := orchestrator.Start(context.Background(), "ch1")
	attempt.Cancel()

	_, ok := waitOutcome(t, attempt)
	assert.False(t, ok)

	// Both of these must be harmless after teardown.
	attempt.Cancel()
	attempt.Deliver(usecase.CallbackResult{Type: usecase.CallbackSuccess})
}
