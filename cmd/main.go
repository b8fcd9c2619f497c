package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
	"time"

	"stock-alert-bot/config"
	"stock-alert-bot/internal/alert"
	"stock-alert-bot/internal/commands"
	"stock-alert-bot/internal/database"
	"stock-alert-bot/internal/metrics"
	"stock-alert-bot/internal/price"
	"stock-alert-bot/internal/telegram"
	"stock-alert-bot/lib/translation"

	"github.com/davecgh/go-spew/spew"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

func init() {
	config.InitConfig()
	setupLogging()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	translation.Configure("locales", config.GetString("lang"))
	log.Debugf("Using language %s", translation.GetLanguage())

	store, err := database.Open(config.GetString("db_path"))
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	botMetrics := metrics.New(prometheus.DefaultRegisterer)
	botMetrics.Load(ctx, store)

	oracle, resolver := newOracle()
	quotes := price.NewQuoteCache(oracle, config.GetDuration("quote_cache_ttl"))
	handler := commands.NewHandler(store, quotes, resolver, config.GetString("currency_symbol"), config.GetDuration("oracle_timeout"))

	bot, err := telegram.NewBot(telegram.BotConfig{
		Token:          config.GetString("telegram_bot_token"),
		Debug:          config.GetBool("debug"),
		UpdatesTimeout: 60,
	}, handler)
	if err != nil {
		log.Fatalf("Failed to create bot: %v", err)
	}

	evaluator := alert.NewEvaluator(store, oracle, resolver, telegram.NewNotifier(bot), botMetrics, alert.Config{
		OracleTimeout:  config.GetDuration("oracle_timeout"),
		NotifyTimeout:  config.GetDuration("notify_timeout"),
		CurrencySymbol: config.GetString("currency_symbol"),
	})
	service := alert.NewService(evaluator, config.GetDuration("check_interval"))
	service.Start(ctx)

	updates, err := bot.GetUpdatesChannel()
	if err != nil {
		log.Fatalf("Failed to get updates channel: %v", err)
	}

	var inFlight sync.WaitGroup
	handled := make(chan struct{})
	go func() {
		defer close(handled)
		handleUpdates(ctx, bot, botMetrics, updates, &inFlight)
	}()
	go saveMetricsPeriodically(ctx, botMetrics, store, config.GetDuration("metrics_save_interval"))

	server := launchMetricsAndHealthServer(config.GetInt("metrics_port"))

	<-ctx.Done()
	log.Info("Shutting down...")

	bot.StopReceivingUpdates()
	service.Stop()
	<-handled
	inFlight.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Failed to stop metrics server: %v", err)
	}

	if err := botMetrics.Save(shutdownCtx, store); err != nil {
		log.Errorf("Failed to save metrics: %v", err)
	}
	log.Info("Metrics saved, shutting down...")
}

func setupLogging() {
	log.SetLevel(log.ErrorLevel)
	if config.GetBool("debug") {
		log.SetLevel(log.DebugLevel)
	}
	log.Debug("Starting stock alert bot...")
}

func newOracle() (price.Oracle, price.SymbolResolver) {
	overrides := config.GetStringMap("symbol_overrides")
	timeout := config.GetDuration("oracle_timeout")

	source := config.GetString("price_source")
	if source == "coinpaprika" {
		return price.NewPaprikaOracle(config.GetString("api_pro_key"), timeout), price.NewSymbolResolver("", overrides)
	}
	if source != "yahoo" {
		log.Errorf("Unknown price source %q, falling back to yahoo", source)
	}
	return price.NewYahooOracle(config.GetString("yahoo_base_url"), timeout),
		price.NewSymbolResolver(config.GetString("symbol_suffix"), overrides)
}

func handleUpdates(ctx context.Context, bot *telegram.Bot, m *metrics.Metrics, updates tgbotapi.UpdatesChannel, inFlight *sync.WaitGroup) {
	for {
		var update tgbotapi.Update
		select {
		case <-ctx.Done():
			return
		case u, ok := <-updates:
			if !ok {
				return
			}
			update = u
		}

		if update.Message == nil || !update.Message.IsCommand() {
			log.Debug("Received non-message or non-command")
			continue
		}

		if log.IsLevelEnabled(log.DebugLevel) {
			log.Debug(spew.Sdump(update.Message))
		}

		m.ObserveMessage(update.Message.Chat.ID, update.Message.Chat.Title)

		inFlight.Add(1)
		go func(update tgbotapi.Update) {
			defer inFlight.Done()
			handleCommand(ctx, bot, m, update)
		}(update)
	}
}

func handleCommand(ctx context.Context, bot *telegram.Bot, m *metrics.Metrics, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			stackBuf := make([]byte, 1024)
			stackSize := runtime.Stack(stackBuf, false)
			stackTrace := bytes.TrimRight(stackBuf[:stackSize], "\x00")
			log.Errorf("Recovered from panic: %v\nStack trace: %s", r, stackTrace)
		}
	}()

	err := bot.SendMessage(telegram.Message{
		ChatID:    update.Message.Chat.ID,
		Text:      bot.HandleUpdate(context.WithoutCancel(ctx), update),
		MessageID: update.Message.MessageID,
	})

	if err != nil {
		log.Errorf("Failed to send message: %v", err)
	} else {
		m.CommandsProcessed.Inc()
	}
}

func saveMetricsPeriodically(ctx context.Context, m *metrics.Metrics, store *database.Store, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := m.Save(ctx, store); err != nil {
				log.Errorf("Failed to save metrics: %v", err)
			}
		}
	}
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func launchMetricsAndHealthServer(port int) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", healthCheckHandler)

	server := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		log.Infof("Launching metrics and health endpoint on :%d", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start metrics and health server: %v", err)
		}
	}()
	return server
}
