package metrics

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	log "github.com/sirupsen/logrus"
)

const (
	namespace = "cryptoinfo"
	subsystem = "telegram_bot"

	resultHit     = "hit"
	resultMiss    = "miss"
	resultSuccess = "success"
	resultError   = "error"
)

// BotMetrics holds every collector the bot exports. It also satisfies the
// commands recorder so handlers can report cache and upstream activity.
type BotMetrics struct {
	CommandsProcessed  prometheus.Counter
	MessagesHandled    prometheus.Counter
	ChannelsCount      prometheus.Gauge
	ChannelNames       *prometheus.CounterVec
	MessagesPerChannel *prometheus.CounterVec
	UpstreamRequests   *prometheus.CounterVec
	CacheLookups       *prometheus.CounterVec
	RateLimitedTotal   *prometheus.CounterVec

	mu       sync.Mutex
	channels map[int64]string
}

func NewBotMetrics(reg prometheus.Registerer) *BotMetrics {
	m := &BotMetrics{
		CommandsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "commands_processed",
			Help:      "The total number of processed commands",
		}),
		MessagesHandled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "messages_handled",
			Help:      "The total number of handled messages",
		}),
		ChannelsCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "channels_count",
			Help:      "The current number of unique channels the bot is operating in",
		}),
		ChannelNames: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "channel_names",
				Help:      "Tracks channels the bot has interacted with",
			},
			[]string{"chat_id", "chat_name"},
		),
		MessagesPerChannel: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "messages_per_channel",
				Help:      "The total number of messages handled per channel",
			},
			[]string{"chat_id", "chat_name"},
		),
		UpstreamRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "upstream_requests",
				Help:      "Requests sent to market data APIs by source and result",
			},
			[]string{"source", "result"},
		),
		CacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "cache_lookups",
				Help:      "Response cache lookups by key space and result",
			},
			[]string{"space", "result"},
		),
		RateLimitedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "rate_limited",
				Help:      "Commands rejected because the upstream call quota was used up",
			},
			[]string{"command"},
		),
		channels: make(map[int64]string),
	}

	reg.MustRegister(
		m.CommandsProcessed,
		m.MessagesHandled,
		m.ChannelsCount,
		m.ChannelNames,
		m.MessagesPerChannel,
		m.UpstreamRequests,
		m.CacheLookups,
		m.RateLimitedTotal,
	)
	return m
}

// MessageHandled counts one incoming command message from a chat.
func (m *BotMetrics) MessageHandled(chatID int64, chatName string) {
	m.MessagesHandled.Inc()

	id := strconv.FormatInt(chatID, 10)

	m.mu.Lock()
	if _, exists := m.channels[chatID]; !exists {
		m.channels[chatID] = chatName
		m.ChannelsCount.Set(float64(len(m.channels)))
		m.ChannelNames.WithLabelValues(id, chatName).Inc()
	}
	m.mu.Unlock()

	m.MessagesPerChannel.WithLabelValues(id, chatName).Inc()
}

func (m *BotMetrics) CommandProcessed() {
	m.CommandsProcessed.Inc()
}

func (m *BotMetrics) CacheLookup(space string, hit bool) {
	result := resultMiss
	if hit {
		result = resultHit
	}
	m.CacheLookups.WithLabelValues(space, result).Inc()
}

func (m *BotMetrics) UpstreamCall(source string, err error) {
	result := resultSuccess
	if err != nil {
		result = resultError
	}
	m.UpstreamRequests.WithLabelValues(source, result).Inc()
}

func (m *BotMetrics) RateLimited(command string) {
	m.RateLimitedTotal.WithLabelValues(command).Inc()
}

// Channels returns the number of distinct chats seen so far.
func (m *BotMetrics) Channels() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.channels)
}

// metricValue reads the current value of a single counter or gauge.
func metricValue(metric prometheus.Collector) float64 {
	metricChan := make(chan prometheus.Metric, 1)
	metric.Collect(metricChan)
	close(metricChan)

	metricProto := &dto.Metric{}
	if err := (<-metricChan).Write(metricProto); err != nil {
		log.Errorf("Failed to read metric value: %v", err)
		return 0
	}

	if metricProto.Counter != nil {
		return metricProto.Counter.GetValue()
	}
	return metricProto.Gauge.GetValue()
}

// collectLabeled calls fn with the labels and value of every child of vec.
func collectLabeled(vec *prometheus.CounterVec, fn func(labels map[string]string, value float64)) {
	metricChan := make(chan prometheus.Metric)
	go func() {
		vec.Collect(metricChan)
		close(metricChan)
	}()

	for metric := range metricChan {
		metricProto := &dto.Metric{}
		if err := metric.Write(metricProto); err != nil {
			log.Errorf("Failed to read labelled metric: %v", err)
			continue
		}
		labels := make(map[string]string, len(metricProto.Label))
		for _, label := range metricProto.Label {
			labels[label.GetName()] = label.GetValue()
		}
		fn(labels, metricProto.Counter.GetValue())
	}
}
