package poller

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/twitchstats/sestats/internal/api"
)

// ChannelSource provides the channels to poll. ReplaceTop absorbs the
// top channel list each cycle.
type ChannelSource interface {
	List() []string
	ReplaceTop(channels []string, n int)
}

// StatsHandler receives fetched stats.
type StatsHandler interface {
	HandleTopChannels(channels []api.Channel)
	HandleChatStats(stats *api.ChatStats)
}

// Config holds poller configuration.
type Config struct {
	Interval    time.Duration // Poll interval (default: 10s)
	Concurrency int           // Max concurrent requests (default: 4)
	Timeout     time.Duration // Per-request timeout (default: 30s)
	TrackTop    int           // Top channels to track dynamically (0 disables)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Interval:    10 * time.Second,
		Concurrency: 4,
		Timeout:     30 * time.Second,
		TrackTop:    0,
	}
}

// Metrics holds cumulative poller counters.
type Metrics struct {
	Cycles  int64
	Fetched int64
	Errors  int64
}

// Poller periodically fetches chat stats via the REST API.
type Poller struct {
	cfg      Config
	client   *api.Client
	channels ChannelSource
	handler  StatsHandler
	logger   *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	cycles  atomic.Int64
	fetched atomic.Int64
	errors  atomic.Int64
}

// New creates a new Poller.
func New(cfg Config, client *api.Client, channels ChannelSource, handler StatsHandler, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		cfg:      cfg,
		client:   client,
		channels: channels,
		handler:  handler,
		logger:   logger,
	}
}

// Start begins the polling loop.
func (p *Poller) Start(ctx context.Context) error {
	p.ctx, p.cancel = context.WithCancel(ctx)

	p.wg.Add(1)
	go p.run()

	p.logger.Info("stats poller started",
		"interval", p.cfg.Interval,
		"concurrency", p.cfg.Concurrency,
	)

	return nil
}

// Stop gracefully shuts down the poller.
func (p *Poller) Stop(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("stats poller stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats returns cumulative counters.
func (p *Poller) Stats() Metrics {
	return Metrics{
		Cycles:  p.cycles.Load(),
		Fetched: p.fetched.Load(),
		Errors:  p.errors.Load(),
	}
}

// run is the main polling loop.
func (p *Poller) run() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	// Poll immediately on start.
	p.pollCycle()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			p.pollCycle()
		}
	}
}

// pollCycle fetches the top channel list, then the stats of every
// tracked channel concurrently.
func (p *Poller) pollCycle() {
	start := time.Now()
	var fetched, errs atomic.Int64

	defer func() {
		p.cycles.Add(1)
		p.fetched.Add(fetched.Load())
		p.errors.Add(errs.Load())
	}()

	if err := p.pollTopChannels(); err != nil {
		p.logger.Warn("failed to poll top channels", "err", err)
		errs.Add(1)
	} else {
		fetched.Add(1)
	}

	channels := p.channels.List()
	if len(channels) == 0 {
		p.logger.Debug("no channels to poll")
		return
	}

	// Semaphore for bounded concurrency.
	sem := make(chan struct{}, p.cfg.Concurrency)
	var wg sync.WaitGroup

	for _, channel := range channels {
		wg.Add(1)
		go func(channel string) {
			defer wg.Done()

			// Acquire semaphore slot.
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-p.ctx.Done():
				return
			}

			if err := p.pollChannel(channel); err != nil {
				p.logger.Warn("failed to poll channel",
					"channel", channel,
					"err", err,
				)
				errs.Add(1)
				return
			}

			fetched.Add(1)
		}(channel)
	}

	wg.Wait()

	p.logger.Info("poll cycle complete",
		"channels", len(channels),
		"fetched", fetched.Load(),
		"errors", errs.Load(),
		"duration", time.Since(start),
	)
}

// pollTopChannels fetches the top channel list, hands it to the
// handler and feeds it back into the channel source.
func (p *Poller) pollTopChannels() error {
	ctx, cancel := context.WithTimeout(p.ctx, p.cfg.Timeout)
	defer cancel()

	top, err := p.client.GetTopChannels(ctx)
	if err != nil {
		return err
	}

	if p.handler != nil {
		p.handler.HandleTopChannels(top)
	}

	if p.cfg.TrackTop > 0 {
		names := make([]string, len(top))
		for i, ch := range top {
			names[i] = ch.Channel
		}
		p.channels.ReplaceTop(names, p.cfg.TrackTop)
	}

	return nil
}

// pollChannel fetches and handles a single channel's stats.
func (p *Poller) pollChannel(channel string) error {
	ctx, cancel := context.WithTimeout(p.ctx, p.cfg.Timeout)
	defer cancel()

	stats, err := p.client.GetChannelStats(ctx, channel)
	if err != nil {
		return err
	}

	if p.handler != nil {
		p.handler.HandleChatStats(stats)
	}

	return nil
}
