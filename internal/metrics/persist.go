package metrics

import (
	"strconv"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Store keeps metric values between restarts.
type Store interface {
	SaveMetric(name string, value float64) error
	GetMetric(name string) (float64, error)
	SaveMetricWithLabels(name, labelKey, labelValue string, value float64) error
	GetMetricsWithLabels(name string) (map[string]map[string]float64, error)
}

const (
	commandsProcessedKey  = "commands_processed"
	messagesHandledKey    = "messages_handled"
	channelsCountKey      = "channels_count"
	channelNamesKey       = "channel_names"
	messagesPerChannelKey = "messages_per_channel"
	upstreamRequestsKey   = "upstream_requests"
	cacheLookupsKey       = "cache_lookups"
	rateLimitedKey        = "rate_limited"
)

// Load adds the persisted values on top of the current counters.
func (m *BotMetrics) Load(store Store) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for name, counter := range map[string]interface{ Add(float64) }{
		commandsProcessedKey: m.CommandsProcessed,
		messagesHandledKey:   m.MessagesHandled,
	} {
		value, err := store.GetMetric(name)
		if err != nil {
			return errors.Wrapf(err, "could not load %s", name)
		}
		counter.Add(value)
	}

	err := loadLabeled(store, channelNamesKey, func(chatID, chatName string, _ float64) {
		id, err := strconv.ParseInt(chatID, 10, 64)
		if err != nil {
			log.Errorf("Failed to parse chatID %s: %v", chatID, err)
			return
		}
		m.ChannelNames.WithLabelValues(chatID, chatName).Add(1)
		m.channels[id] = chatName
	})
	if err != nil {
		return err
	}
	m.ChannelsCount.Set(float64(len(m.channels)))

	err = loadLabeled(store, messagesPerChannelKey, func(chatID, chatName string, value float64) {
		m.MessagesPerChannel.WithLabelValues(chatID, chatName).Add(value)
	})
	if err != nil {
		return err
	}

	err = loadLabeled(store, upstreamRequestsKey, func(source, result string, value float64) {
		m.UpstreamRequests.WithLabelValues(source, result).Add(value)
	})
	if err != nil {
		return err
	}

	err = loadLabeled(store, cacheLookupsKey, func(space, result string, value float64) {
		m.CacheLookups.WithLabelValues(space, result).Add(value)
	})
	if err != nil {
		return err
	}

	err = loadLabeled(store, rateLimitedKey, func(command, _ string, value float64) {
		m.RateLimitedTotal.WithLabelValues(command).Add(value)
	})
	if err != nil {
		return err
	}

	log.Debug("Metrics loaded from database.")
	return nil
}

func loadLabeled(store Store, name string, fn func(labelKey, labelValue string, value float64)) error {
	rows, err := store.GetMetricsWithLabels(name)
	if err != nil {
		return errors.Wrapf(err, "could not load %s", name)
	}
	for labelKey, labelValues := range rows {
		for labelValue, value := range labelValues {
			fn(labelKey, labelValue, value)
		}
	}
	return nil
}

// Save writes every counter to store. It stops at the first failed write.
func (m *BotMetrics) Save(store Store) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := store.SaveMetric(commandsProcessedKey, metricValue(m.CommandsProcessed)); err != nil {
		return err
	}
	if err := store.SaveMetric(messagesHandledKey, metricValue(m.MessagesHandled)); err != nil {
		return err
	}
	if err := store.SaveMetric(channelsCountKey, float64(len(m.channels))); err != nil {
		return err
	}

	for chatID, chatName := range m.channels {
		if err := store.SaveMetricWithLabels(channelNamesKey, strconv.FormatInt(chatID, 10), chatName, 1); err != nil {
			return err
		}
	}

	var saveErr error
	save := func(name, labelKey, labelValue string, value float64) {
		if saveErr != nil {
			return
		}
		saveErr = store.SaveMetricWithLabels(name, labelKey, labelValue, value)
	}

	collectLabeled(m.MessagesPerChannel, func(labels map[string]string, value float64) {
		save(messagesPerChannelKey, labels["chat_id"], labels["chat_name"], value)
	})
	collectLabeled(m.UpstreamRequests, func(labels map[string]string, value float64) {
		save(upstreamRequestsKey, labels["source"], labels["result"], value)
	})
	collectLabeled(m.CacheLookups, func(labels map[string]string, value float64) {
		save(cacheLookupsKey, labels["space"], labels["result"], value)
	})
	collectLabeled(m.RateLimitedTotal, func(labels map[string]string, value float64) {
		save(rateLimitedKey, labels["command"], "", value)
	})
	if saveErr != nil {
		return saveErr
	}

	log.Debug("Metrics saved to database.")
	return nil
}
