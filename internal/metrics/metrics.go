package metrics

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	log "github.com/sirupsen/logrus"
)

const namespace = "stock_alert"

// Store persists metric values between restarts.
type Store interface {
	SaveMetric(ctx context.Context, metricName, labelKey, labelValue string, value float64) error
	GetMetric(ctx context.Context, metricName string) (float64, error)
	GetMetricsWithLabels(ctx context.Context, metricName string) (map[string]map[string]float64, error)
}

// Metrics groups the bot and alert evaluator collectors.
type Metrics struct {
	CommandsProcessed  prometheus.Counter
	MessagesHandled    prometheus.Counter
	ChannelsCount      prometheus.Gauge
	ChannelNames       *prometheus.CounterVec
	MessagesPerChannel *prometheus.CounterVec

	CyclesRun        prometheus.Counter
	CycleDuration    prometheus.Histogram
	AlertsChecked    prometheus.Counter
	AlertsFired      prometheus.Counter
	PriceUnavailable prometheus.Counter
	DeliveryFailures prometheus.Counter

	mu          sync.Mutex
	channelsSet map[int64]string
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CommandsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "telegram_bot",
			Name:      "commands_processed",
			Help:      "The total number of processed commands",
		}),
		MessagesHandled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "telegram_bot",
			Name:      "messages_handled",
			Help:      "The total number of handled messages",
		}),
		ChannelsCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "telegram_bot",
			Name:      "channels_count",
			Help:      "The current number of unique chats the bot is operating in",
		}),
		ChannelNames: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "telegram_bot",
				Name:      "channel_names",
				Help:      "Tracks chats the bot has interacted with",
			},
			[]string{"chat_id", "chat_name"},
		),
		MessagesPerChannel: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "telegram_bot",
				Name:      "messages_per_channel",
				Help:      "The total number of messages handled per chat",
			},
			[]string{"chat_id", "chat_name"},
		),
		CyclesRun: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "evaluator",
			Name:      "cycles_run",
			Help:      "The total number of completed alert evaluation cycles",
		}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "evaluator",
			Name:      "cycle_duration_seconds",
			Help:      "Time spent evaluating the full alert set",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
		AlertsChecked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "evaluator",
			Name:      "alerts_checked",
			Help:      "The total number of alert checks",
		}),
		AlertsFired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "evaluator",
			Name:      "alerts_fired",
			Help:      "The total number of alerts that reached their target",
		}),
		PriceUnavailable: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "evaluator",
			Name:      "price_unavailable",
			Help:      "The total number of alert checks skipped for lack of a price",
		}),
		DeliveryFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "evaluator",
			Name:      "delivery_failures",
			Help:      "The total number of alert notifications that could not be delivered",
		}),
		channelsSet: make(map[int64]string),
	}

	reg.MustRegister(
		m.CommandsProcessed,
		m.MessagesHandled,
		m.ChannelsCount,
		m.ChannelNames,
		m.MessagesPerChannel,
		m.CyclesRun,
		m.CycleDuration,
		m.AlertsChecked,
		m.AlertsFired,
		m.PriceUnavailable,
		m.DeliveryFailures,
	)

	return m
}

// ObserveMessage counts a handled message for the given chat.
func (m *Metrics) ObserveMessage(chatID int64, chatName string) {
	m.MessagesHandled.Inc()

	if chatName == "" {
		chatName = fmt.Sprintf("%s-%d", "PrivateChat", chatID)
	}

	m.mu.Lock()
	if _, exists := m.channelsSet[chatID]; !exists {
		m.channelsSet[chatID] = chatName
		m.ChannelsCount.Set(float64(len(m.channelsSet)))
		m.ChannelNames.WithLabelValues(strconv.FormatInt(chatID, 10), chatName).Inc()
	}
	m.mu.Unlock()

	m.MessagesPerChannel.WithLabelValues(strconv.FormatInt(chatID, 10), chatName).Inc()
}

var persistedCounters = []string{
	"commands_processed",
	"messages_handled",
	"cycles_run",
	"alerts_checked",
	"alerts_fired",
	"price_unavailable",
	"delivery_failures",
}

func (m *Metrics) counter(name string) prometheus.Counter {
	switch name {
	case "commands_processed":
		return m.CommandsProcessed
	case "messages_handled":
		return m.MessagesHandled
	case "cycles_run":
		return m.CyclesRun
	case "alerts_checked":
		return m.AlertsChecked
	case "alerts_fired":
		return m.AlertsFired
	case "price_unavailable":
		return m.PriceUnavailable
	case "delivery_failures":
		return m.DeliveryFailures
	}
	return nil
}

// Load restores counters saved by a previous run.
func (m *Metrics) Load(ctx context.Context, store Store) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, name := range persistedCounters {
		value, err := store.GetMetric(ctx, name)
		if err != nil {
			log.Errorf("Failed to load metric %s: %v", name, err)
			continue
		}
		m.counter(name).Add(value)
	}

	loadLabeledMetrics(ctx, store, "channel_names", func(chatIDStr, chatName string, _ float64) {
		chatID, err := strconv.ParseInt(chatIDStr, 10, 64)
		if err != nil {
			log.Errorf("Failed to parse chatID %s: %v", chatIDStr, err)
			return
		}
		m.ChannelNames.WithLabelValues(chatIDStr, chatName).Add(1)
		m.channelsSet[chatID] = chatName
	})
	m.ChannelsCount.Set(float64(len(m.channelsSet)))

	loadLabeledMetrics(ctx, store, "messages_per_channel", func(chatID, chatName string, value float64) {
		m.MessagesPerChannel.WithLabelValues(chatID, chatName).Add(value)
	})

	log.Info("Metrics loaded from database.")
}

func loadLabeledMetrics(ctx context.Context, store Store, metricName string, callback func(labelKey, labelValue string, value float64)) {
	metricsWithLabels, err := store.GetMetricsWithLabels(ctx, metricName)
	if err != nil {
		log.Errorf("Failed to load metric %s: %v", metricName, err)
		return
	}
	for labelKey, labelValues := range metricsWithLabels {
		for labelValue, value := range labelValues {
			callback(labelKey, labelValue, value)
		}
	}
}

// Save writes the current counter values to store.
func (m *Metrics) Save(ctx context.Context, store Store) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, name := range persistedCounters {
		if err := store.SaveMetric(ctx, name, "", "", Value(m.counter(name))); err != nil {
			return err
		}
	}

	for chatID, chatName := range m.channelsSet {
		if err := store.SaveMetric(ctx, "channel_names", strconv.FormatInt(chatID, 10), chatName, 1); err != nil {
			return err
		}
	}

	metricChan := make(chan prometheus.Metric)
	go func() {
		m.MessagesPerChannel.Collect(metricChan)
		close(metricChan)
	}()

	var saveErr error
	for metric := range metricChan {
		if saveErr != nil {
			continue
		}
		metricProto := &dto.Metric{}
		if err := metric.Write(metricProto); err != nil {
			log.Errorf("Failed to read MessagesPerChannel metric: %v", err)
			continue
		}
		var chatID, chatName string
		for _, label := range metricProto.Label {
			switch label.GetName() {
			case "chat_id":
				chatID = label.GetValue()
			case "chat_name":
				chatName = label.GetValue()
			}
		}
		saveErr = store.SaveMetric(ctx, "messages_per_channel", chatID, chatName, metricProto.GetCounter().GetValue())
	}
	if saveErr != nil {
		return saveErr
	}

	log.Debug("Metrics saved to database.")
	return nil
}

// Value reads the current value of a single counter or gauge.
func Value(metric prometheus.Collector) float64 {
	metricChan := make(chan prometheus.Metric, 1)
	metric.Collect(metricChan)
	close(metricChan)

	collected, ok := <-metricChan
	if !ok {
		return 0
	}

	metricProto := &dto.Metric{}
	if err := collected.Write(metricProto); err != nil {
		log.Errorf("Failed to read metric value: %v", err)
		return 0
	}

	if metricProto.Counter != nil {
		return metricProto.Counter.GetValue()
	} else if metricProto.Gauge != nil {
		return metricProto.Gauge.GetValue()
	}
	return 0
}
