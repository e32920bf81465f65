package export

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/twitchstats/sestats/internal/api"
	"github.com/twitchstats/sestats/internal/feed"
)

// Exporter maps chat stats onto Prometheus gauges. Poll results
// overwrite the gauges each cycle; live feed changes update the same
// gauges between polls. Series for entries that drop out of the top
// lists keep their last value.
type Exporter struct {
	cfg    Config
	logger *slog.Logger

	totalMessages *prometheus.GaugeVec
	chatter       *prometheus.GaugeVec
	hashtag       *prometheus.GaugeVec
	command       *prometheus.GaugeVec
	emote         *prometheus.GaugeVec
	channel       *prometheus.GaugeVec

	feedChanges      *prometheus.CounterVec
	feedDecodeErrors prometheus.Counter
}

// NewExporter registers the sestats metrics on reg and returns an
// Exporter that writes to them.
func NewExporter(reg prometheus.Registerer, cfg Config, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}

	factory := promauto.With(reg)

	return &Exporter{
		cfg:    cfg,
		logger: logger,

		totalMessages: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "sestats_total_messages",
			Help: "total messages on twitch",
		}, []string{"channel"}),

		chatter: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "sestats_chatter",
			Help: "top chatters",
		}, []string{"channel", "name"}),

		hashtag: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "sestats_hashtag",
			Help: "top hashtags",
		}, []string{"channel", "hashtag"}),

		command: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "sestats_command",
			Help: "top commands",
		}, []string{"channel", "command"}),

		emote: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "sestats_emote",
			Help: "top emotes",
		}, []string{"channel", "provider", "emote"}),

		channel: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "sestats_channel",
			Help: "top channels",
		}, []string{"channel"}),

		feedChanges: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sestats_feed_changes_total",
			Help: "stat changes applied from the live feed",
		}, []string{"type", "provider"}),

		feedDecodeErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "sestats_feed_decode_errors_total",
			Help: "live feed messages that failed to decode",
		}),
	}
}

// HandleChatStats exports one channel's polled stats.
func (e *Exporter) HandleChatStats(stats *api.ChatStats) {
	e.logger.Debug("exporting chat stats", "channel", stats.Channel)

	if e.cfg.TotalMessages {
		e.totalMessages.WithLabelValues(stats.Channel).Set(float64(stats.TotalMessages))
	}

	if e.cfg.Chatter {
		for _, c := range stats.Chatters {
			e.chatter.WithLabelValues(stats.Channel, c.Name).Set(float64(c.Amount))
		}
	}

	if e.cfg.Hashtag {
		for _, h := range stats.Hashtags {
			e.hashtag.WithLabelValues(stats.Channel, h.Hashtag).Set(float64(h.Amount))
		}
	}

	if e.cfg.Command {
		for _, c := range stats.Commands {
			e.command.WithLabelValues(stats.Channel, c.Command).Set(float64(c.Amount))
		}
	}

	if e.cfg.BTTV {
		e.setEmotes(stats.Channel, feed.ProviderBTTV, stats.BTTVEmotes)
	}
	if e.cfg.FFZ {
		e.setEmotes(stats.Channel, feed.ProviderFFZ, stats.FFZEmotes)
	}
	if e.cfg.Twitch {
		e.setEmotes(stats.Channel, feed.ProviderTwitch, stats.TwitchEmotes)
	}
}

// HandleTopChannels exports the per-channel message counts.
func (e *Exporter) HandleTopChannels(channels []api.Channel) {
	if !e.cfg.Channel {
		return
	}
	for _, ch := range channels {
		e.channel.WithLabelValues(ch.Channel).Set(float64(ch.Messages))
	}
}

// ApplyChanges updates the gauges from live feed changes for one
// channel and counts them.
func (e *Exporter) ApplyChanges(channel string, changes []feed.StatChange) {
	for _, change := range changes {
		switch c := change.(type) {
		case feed.ChatterChange:
			e.feedChanges.WithLabelValues(feed.TypeChatters, "").Inc()
			if e.cfg.Chatter {
				e.chatter.WithLabelValues(channel, c.Key).Set(float64(c.Amount))
			}
		case feed.EmoteChange:
			e.feedChanges.WithLabelValues(feed.TypeEmotes, c.Provider).Inc()
			if e.emoteEnabled(c.Provider) {
				e.emote.WithLabelValues(channel, c.Provider, c.Key).Set(float64(c.Amount))
			}
		}
	}
}

// ObserveDecodeError counts one undecodable feed message.
func (e *Exporter) ObserveDecodeError() {
	e.feedDecodeErrors.Inc()
}

func (e *Exporter) setEmotes(channel, provider string, emotes []api.EmoteStats) {
	for _, em := range emotes {
		e.emote.WithLabelValues(channel, provider, em.Emote).Set(float64(em.Amount))
	}
}

func (e *Exporter) emoteEnabled(provider string) bool {
	switch provider {
	case feed.ProviderBTTV:
		return e.cfg.BTTV
	case feed.ProviderFFZ:
		return e.cfg.FFZ
	case feed.ProviderTwitch:
		return e.cfg.Twitch
	default:
		return false
	}
}
