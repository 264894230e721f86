package usecase

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"clipbridge-api/domain/dto"
	"clipbridge-api/domain/model"
	"clipbridge-api/infrastructure/logger"
)

// AuthorizationOutcome is the single result of one authorization attempt.
type AuthorizationOutcome struct {
	Type         string
	AuthStatus   model.AuthStatus
	ChannelID    string
	ChannelTitle string
	Error        string
}

// OrchestratorConfig bounds one attempt. Durations are injectable so tests
// run in milliseconds.
type OrchestratorConfig struct {
	PollInterval    time.Duration
	Timeout         time.Duration
	PollErrorBudget int
}

func DefaultOrchestratorConfig() OrchestratorConfig {
	return OrchestratorConfig{
		PollInterval:    3 * time.Second,
		Timeout:         90 * time.Second,
		PollErrorBudget: 3,
	}
}

// StatusReader reads the current auth status of a channel, normally backed
// by IChannelAuthUsecase.GetAuthStatus.
type StatusReader func(ctx context.Context, channelID string) (*dto.AuthStatusResponse, error)

// AuthorizationOrchestrator drives one authorization attempt to exactly one
// outcome. Two signals race: the popup's relayed completion message and a
// status poll that notices the record settling. Whichever fires first wins;
// the loser is a no-op.
type AuthorizationOrchestrator struct {
	readStatus StatusReader
	config     OrchestratorConfig
}

func NewAuthorizationOrchestrator(readStatus StatusReader, config OrchestratorConfig) *AuthorizationOrchestrator {
	if config.PollInterval <= 0 {
		config.PollInterval = 3 * time.Second
	}
	if config.Timeout <= 0 {
		config.Timeout = 90 * time.Second
	}
	if config.PollErrorBudget <= 0 {
		config.PollErrorBudget = 3
	}
	return &AuthorizationOrchestrator{readStatus: readStatus, config: config}
}

// AuthorizationAttempt is the live handle for one in-flight attempt. All
// teardown funnels through finish, which runs at most once.
type AuthorizationAttempt struct {
	channelID string
	messages  chan CallbackResult
	outcome   chan AuthorizationOutcome
	completed atomic.Bool
	cancelCtx context.CancelFunc
	closeOnce sync.Once
}

// Outcome yields at most one value. The channel closes without a value when
// the attempt times out or is cancelled; the popup may still complete later
// through the callback itself.
func (a *AuthorizationAttempt) Outcome() <-chan AuthorizationOutcome {
	return a.outcome
}

// Deliver relays the popup's completion message. It never blocks; messages
// after completion are dropped.
func (a *AuthorizationAttempt) Deliver(result CallbackResult) {
	if a.completed.Load() {
		return
	}
	select {
	case a.messages <- result:
	default:
	}
}

// Cancel tears the attempt down. Safe to call repeatedly and after the
// outcome has been delivered.
func (a *AuthorizationAttempt) Cancel() {
	a.cancelCtx()
}

func (a *AuthorizationAttempt) finish(outcome *AuthorizationOutcome) {
	a.closeOnce.Do(func() {
		a.completed.Store(true)
		if outcome != nil {
			a.outcome <- *outcome
		}
		close(a.outcome)
	})
}

// Start launches the race for channelID. The attempt owns its timers and
// goroutine; every exit path releases both.
func (o *AuthorizationOrchestrator) Start(ctx context.Context, channelID string) *AuthorizationAttempt {
	ctx, cancel := context.WithCancel(ctx)
	attempt := &AuthorizationAttempt{
		channelID: channelID,
		messages:  make(chan CallbackResult, 1),
		outcome:   make(chan AuthorizationOutcome, 1),
		cancelCtx: cancel,
	}
	go o.run(ctx, cancel, attempt)
	return attempt
}

func (o *AuthorizationOrchestrator) run(ctx context.Context, cancel context.CancelFunc, attempt *AuthorizationAttempt) {
	defer cancel()

	ticker := time.NewTicker(o.config.PollInterval)
	defer ticker.Stop()
	deadline := time.NewTimer(o.config.Timeout)
	defer deadline.Stop()

	pollFailures := 0
	for {
		select {
		case <-ctx.Done():
			attempt.finish(nil)
			return

		case <-deadline.C:
			// Out of patience but not failed; the popup may still land the
			// result through the callback. Just stop watching.
			logger.GetLogger().
				WithField("channel_id", attempt.channelID).
				Info("authorization attempt timed out waiting for a signal")
			attempt.finish(nil)
			return

		case message := <-attempt.messages:
			attempt.finish(&AuthorizationOutcome{
				Type:         message.Type,
				AuthStatus:   message.AuthStatus,
				ChannelID:    message.ChannelID,
				ChannelTitle: message.ChannelTitle,
				Error:        message.Error,
			})
			return

		case <-ticker.C:
			status, err := o.readStatus(ctx, attempt.channelID)
			if err != nil {
				pollFailures++
				if pollFailures >= o.config.PollErrorBudget {
					attempt.finish(&AuthorizationOutcome{
						Type:      CallbackError,
						ChannelID: attempt.channelID,
						Error:     "status check failed",
					})
					return
				}
				continue
			}
			pollFailures = 0

			settled := model.AuthStatus(status.AuthStatus)
			if !settled.Settled() {
				continue
			}
			outcome := AuthorizationOutcome{
				AuthStatus: settled,
				ChannelID:  attempt.channelID,
			}
			switch settled {
			case model.AuthStatusConnected, model.AuthStatusNoChannel:
				outcome.Type = CallbackSuccess
			default:
				outcome.Type = CallbackError
				outcome.Error = "authorization " + status.AuthStatus
			}
			attempt.finish(&outcome)
			return
		}
	}
}
