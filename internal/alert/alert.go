package alert

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"stock-alert-bot/internal/metrics"
	"stock-alert-bot/internal/price"
	"stock-alert-bot/internal/types"
	"stock-alert-bot/lib/helpers"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// Store is the slice of the alert store the evaluator works with.
type Store interface {
	AllAlerts(ctx context.Context) ([]types.Alert, error)
	GetUser(ctx context.Context, id int64) (*types.User, error)
	DeleteAlert(ctx context.Context, alertID int64) error
}

// Notifier delivers a text message to a chat identity.
type Notifier interface {
	Send(ctx context.Context, recipient int64, text string) error
}

const (
	DefaultOracleTimeout = 10 * time.Second
	DefaultNotifyTimeout = 10 * time.Second
)

// Config tunes the evaluator. Non-positive timeouts are replaced by the defaults.
type Config struct {
	OracleTimeout  time.Duration
	NotifyTimeout  time.Duration
	CurrencySymbol string
}

// CycleReport summarizes one evaluation cycle.
type CycleReport struct {
	Checked          int
	Fired            int
	Skipped          int
	DeliveryFailures int
}

type outcome int

const (
	outcomeHeld outcome = iota
	outcomeSkipped
	outcomeFired
	outcomeFiredUndelivered
)

// Evaluator reconciles stored alerts with oracle prices.
type Evaluator struct {
	store    Store
	oracle   price.Oracle
	resolver price.SymbolResolver
	notifier Notifier
	metrics  *metrics.Metrics
	cfg      Config
}

// NewEvaluator wires an evaluator. A nil m gets a private, unregistered metrics set.
func NewEvaluator(store Store, oracle price.Oracle, resolver price.SymbolResolver, notifier Notifier, m *metrics.Metrics, cfg Config) *Evaluator {
	if m == nil {
		m = metrics.New(prometheus.NewRegistry())
	}
	if cfg.OracleTimeout <= 0 {
		cfg.OracleTimeout = DefaultOracleTimeout
	}
	if cfg.NotifyTimeout <= 0 {
		cfg.NotifyTimeout = DefaultNotifyTimeout
	}
	return &Evaluator{
		store:    store,
		oracle:   oracle,
		resolver: resolver,
		notifier: notifier,
		metrics:  m,
		cfg:      cfg,
	}
}

// RunCycle checks every alert once. Failures for a single alert are logged
// and never stop the cycle; only a failed snapshot returns an error.
func (e *Evaluator) RunCycle(ctx context.Context) (CycleReport, error) {
	start := time.Now()
	log.Debug("Checking alerts...")

	alerts, err := e.store.AllAlerts(ctx)
	if err != nil {
		return CycleReport{}, errors.Wrap(err, "could not snapshot alerts")
	}

	var report CycleReport
	for _, alert := range alerts {
		report.Checked++
		switch e.evaluate(ctx, alert) {
		case outcomeSkipped:
			report.Skipped++
		case outcomeFired:
			report.Fired++
		case outcomeFiredUndelivered:
			report.Fired++
			report.DeliveryFailures++
		}
	}

	e.metrics.CyclesRun.Inc()
	e.metrics.AlertsChecked.Add(float64(report.Checked))
	e.metrics.CycleDuration.Observe(time.Since(start).Seconds())

	log.WithFields(log.Fields{
		"checked":  report.Checked,
		"fired":    report.Fired,
		"skipped":  report.Skipped,
		"failures": report.DeliveryFailures,
		"took":     time.Since(start).String(),
	}).Info("Alert check completed")

	return report, nil
}

func (e *Evaluator) evaluate(ctx context.Context, alert types.Alert) (result outcome) {
	logger := log.WithFields(log.Fields{
		"alert_id": alert.ID,
		"symbol":   alert.Symbol,
		"target":   alert.TargetPrice,
	})

	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("Recovered from panic while checking alert: %v\nStack trace: %s", r, debug.Stack())
			result = outcomeSkipped
		}
	}()

	marketSymbol := e.resolver.Resolve(alert.Symbol)
	obs, err := callWithTimeout(ctx, e.cfg.OracleTimeout, func(ctx context.Context) (price.Observation, error) {
		return e.oracle.LatestPrice(ctx, marketSymbol)
	})
	if err == nil && !obs.Usable() {
		err = errors.Wrapf(types.ErrUnavailable, "no usable price for %s", marketSymbol)
	}
	if err != nil {
		e.metrics.PriceUnavailable.Inc()
		if errors.Is(err, types.ErrUnavailable) {
			logger.Infof("No price data for %s, skipping", marketSymbol)
		} else {
			logger.WithError(err).Warnf("Price lookup for %s failed, skipping", marketSymbol)
		}
		return outcomeSkipped
	}

	logger.Debugf("Checking price alert | Current: %.2f", obs.Price)
	if !Fires(obs.Price, alert.TargetPrice) {
		return outcomeHeld
	}

	owner, err := e.store.GetUser(ctx, alert.OwnerID)
	if err != nil {
		logger.WithError(err).Error("Could not load alert owner, keeping alert")
		return outcomeSkipped
	}

	result = outcomeFired
	text := FormatMessage(alert, obs.Price, e.cfg.CurrencySymbol)
	_, err = callWithTimeout(ctx, e.cfg.NotifyTimeout, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, e.notifier.Send(ctx, owner.ExternalID, text)
	})
	if err != nil {
		result = outcomeFiredUndelivered
		e.metrics.DeliveryFailures.Inc()
		logger.WithError(err).Error("Failed to send price alert notification")
	} else {
		logger.Infof("Price alert notification sent to %d", owner.ExternalID)
	}

	if err := e.store.DeleteAlert(ctx, alert.ID); err != nil {
		logger.WithError(err).Error("Failed to delete fired alert")
	}
	e.metrics.AlertsFired.Inc()

	return result
}

// Fires reports whether current has reached target. The threshold is inclusive.
func Fires(current, target float64) bool {
	return decimal.NewFromFloat(current).GreaterThanOrEqual(decimal.NewFromFloat(target))
}

// FormatMessage renders the notification for a fired alert,
// e.g. "TCS hit ₹3510.25 (target: ₹3500.0)".
func FormatMessage(alert types.Alert, current float64, currencySymbol string) string {
	return fmt.Sprintf("%s hit %s%s (target: %s%s)",
		alert.Symbol,
		currencySymbol, decimal.NewFromFloat(current).StringFixed(2),
		currencySymbol, helpers.FormatTarget(alert.TargetPrice),
	)
}

// callWithTimeout bounds fn by timeout even when fn ignores its context.
func callWithTimeout[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	type result struct {
		value T
		err   error
	}
	done := make(chan result, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				var zero T
				done <- result{zero, errors.Errorf("panic: %v", r)}
			}
		}()
		value, err := fn(ctx)
		done <- result{value, err}
	}()

	select {
	case r := <-done:
		return r.value, r.err
	case <-ctx.Done():
		var zero T
		return zero, errors.Wrap(ctx.Err(), "call timed out")
	}
}
