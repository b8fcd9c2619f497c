package config

import (
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/xhit/go-str2duration/v2"
)

var once sync.Once

func InitConfig() {
	once.Do(func() {
		viper.AutomaticEnv()

		viper.BindEnv("metrics_port", "METRICS_PORT")
		viper.BindEnv("telegram_bot_token", "TELEGRAM_BOT_TOKEN")
		viper.BindEnv("api_pro_key", "API_PRO_KEY")
		viper.BindEnv("debug", "DEBUG")
		viper.BindEnv("lang", "LANG")
		viper.BindEnv("db_path", "DB_PATH")
		viper.BindEnv("check_interval", "CHECK_INTERVAL")
		viper.BindEnv("oracle_timeout", "ORACLE_TIMEOUT")
		viper.BindEnv("notify_timeout", "NOTIFY_TIMEOUT")
		viper.BindEnv("price_source", "PRICE_SOURCE")
		viper.BindEnv("yahoo_base_url", "YAHOO_BASE_URL")
		viper.BindEnv("symbol_suffix", "SYMBOL_SUFFIX")
		viper.BindEnv("symbol_overrides", "SYMBOL_OVERRIDES")
		viper.BindEnv("currency_symbol", "CURRENCY_SYMBOL")
		viper.BindEnv("quote_cache_ttl", "QUOTE_CACHE_TTL")
		viper.BindEnv("metrics_save_interval", "METRICS_SAVE_INTERVAL")

		viper.SetDefault("metrics_port", 9090)
		viper.SetDefault("debug", false)
		viper.SetDefault("lang", "en")
		viper.SetDefault("db_path", "/app/data/alerts.db")
		viper.SetDefault("check_interval", "60s")
		viper.SetDefault("oracle_timeout", "10s")
		viper.SetDefault("notify_timeout", "10s")
		viper.SetDefault("price_source", "yahoo")
		viper.SetDefault("yahoo_base_url", "https://query1.finance.yahoo.com")
		viper.SetDefault("symbol_suffix", ".NS")
		viper.SetDefault("symbol_overrides", "")
		viper.SetDefault("currency_symbol", "₹")
		viper.SetDefault("quote_cache_ttl", "30s")
		viper.SetDefault("metrics_save_interval", "5m")
	})
}

func GetString(key string) string {
	InitConfig()
	return viper.GetString(key)
}

func GetInt(key string) int {
	InitConfig()
	return viper.GetInt(key)
}

func GetBool(key string) bool {
	InitConfig()
	return viper.GetBool(key)
}

// GetDuration parses values such as "90s", "1h30m" or "1d". Unparseable
// values fall back to the key's default.
func GetDuration(key string) time.Duration {
	InitConfig()
	raw := strings.TrimSpace(viper.GetString(key))
	d, err := str2duration.ParseDuration(raw)
	if err == nil {
		return d
	}

	log.Errorf("Invalid duration %q for %s: %v", raw, key, err)
	d, err = str2duration.ParseDuration(defaultDuration(key))
	if err != nil {
		return 0
	}
	return d
}

// GetStringMap parses "KEY=value,KEY2=value2" pairs.
func GetStringMap(key string) map[string]string {
	InitConfig()
	result := make(map[string]string)
	for _, pair := range strings.Split(viper.GetString(key), ",") {
		k, v, found := strings.Cut(pair, "=")
		if !found || strings.TrimSpace(k) == "" {
			continue
		}
		result[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return result
}

func defaultDuration(key string) string {
	switch key {
	case "check_interval":
		return "60s"
	case "oracle_timeout", "notify_timeout":
		return "10s"
	case "quote_cache_ttl":
		return "30s"
	case "metrics_save_interval":
		return "5m"
	}
	return "0s"
}
