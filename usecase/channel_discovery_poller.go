package usecase

import (
	"context"
	"sync"
	"time"

	"clipbridge-api/domain/dto"
	"clipbridge-api/domain/model"
	"clipbridge-api/infrastructure/logger"
)

// PollerConfig bounds one discovery watch.
type PollerConfig struct {
	Interval time.Duration
	Budget   time.Duration
}

func DefaultPollerConfig() PollerConfig {
	return PollerConfig{
		Interval: 30 * time.Second,
		Budget:   5 * time.Minute,
	}
}

// ChannelChecker runs one check-channel probe, normally backed by
// IChannelAuthUsecase.CheckChannel.
type ChannelChecker func(ctx context.Context, channelID string) (*dto.CheckChannelResponse, error)

// DiscoveryResult is the terminal state of one discovery watch.
type DiscoveryResult struct {
	Found        bool
	ChannelID    string
	ChannelTitle string
	// Reason is "found", "status_changed" or "timeout".
	Reason string
}

// ChannelDiscoveryPoller watches a channel stuck in no_channel until a
// YouTube channel appears, the record leaves no_channel some other way, or
// the absolute budget runs out.
type ChannelDiscoveryPoller struct {
	check  ChannelChecker
	config PollerConfig
}

func NewChannelDiscoveryPoller(check ChannelChecker, config PollerConfig) *ChannelDiscoveryPoller {
	if config.Interval <= 0 {
		config.Interval = 30 * time.Second
	}
	if config.Budget <= 0 {
		config.Budget = 5 * time.Minute
	}
	return &ChannelDiscoveryPoller{check: check, config: config}
}

// DiscoveryWatch is the live handle for one watched channel.
type DiscoveryWatch struct {
	channelID string
	kick      chan struct{}
	result    chan DiscoveryResult
	cancelCtx context.CancelFunc
	closeOnce sync.Once
}

// Result yields at most one value; the channel closes without one when the
// watch is cancelled.
func (w *DiscoveryWatch) Result() <-chan DiscoveryResult {
	return w.result
}

// CheckNow probes out of band and restarts the interval countdown. The
// absolute budget keeps running.
func (w *DiscoveryWatch) CheckNow() {
	select {
	case w.kick <- struct{}{}:
	default:
	}
}

// Stop tears the watch down. Idempotent.
func (w *DiscoveryWatch) Stop() {
	w.cancelCtx()
}

func (w *DiscoveryWatch) finish(result *DiscoveryResult) {
	w.closeOnce.Do(func() {
		if result != nil {
			w.result <- *result
		}
		close(w.result)
	})
}

// Watch starts polling channelID. One watch maps to one goroutine; every
// exit path stops its timers.
func (p *ChannelDiscoveryPoller) Watch(ctx context.Context, channelID string) *DiscoveryWatch {
	ctx, cancel := context.WithCancel(ctx)
	watch := &DiscoveryWatch{
		channelID: channelID,
		kick:      make(chan struct{}, 1),
		result:    make(chan DiscoveryResult, 1),
		cancelCtx: cancel,
	}
	go p.run(ctx, cancel, watch)
	return watch
}

func (p *ChannelDiscoveryPoller) run(ctx context.Context, cancel context.CancelFunc, watch *DiscoveryWatch) {
	defer cancel()

	interval := time.NewTimer(p.config.Interval)
	defer interval.Stop()
	deadline := time.NewTimer(p.config.Budget)
	defer deadline.Stop()

	resetInterval := func() {
		if !interval.Stop() {
			select {
			case <-interval.C:
			default:
			}
		}
		interval.Reset(p.config.Interval)
	}

	for {
		select {
		case <-ctx.Done():
			watch.finish(nil)
			return

		case <-deadline.C:
			watch.finish(&DiscoveryResult{ChannelID: watch.channelID, Reason: "timeout"})
			return

		case <-watch.kick:
			if p.probe(ctx, watch) {
				return
			}
			resetInterval()

		case <-interval.C:
			if p.probe(ctx, watch) {
				return
			}
			interval.Reset(p.config.Interval)
		}
	}
}

// probe runs one check and reports whether the watch is finished. Transient
// check failures are absorbed; the next tick tries again.
func (p *ChannelDiscoveryPoller) probe(ctx context.Context, watch *DiscoveryWatch) bool {
	resp, err := p.check(ctx, watch.channelID)
	if err != nil {
		logger.GetLogger().
			WithField("error", err).
			WithField("channel_id", watch.channelID).
			Warn("channel discovery probe failed")
		return false
	}
	if resp.Found {
		watch.finish(&DiscoveryResult{
			Found:        true,
			ChannelID:    resp.ChannelID,
			ChannelTitle: resp.ChannelTitle,
			Reason:       "found",
		})
		return true
	}
	// Something else moved the record out of no_channel; this watch is done.
	if resp.AuthStatus != "" && resp.AuthStatus != string(model.AuthStatusNoChannel) {
		watch.finish(&DiscoveryResult{ChannelID: watch.channelID, Reason: "status_changed"})
		return true
	}
	return false
}
