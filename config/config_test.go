package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetDuration(t *testing.T) {
	t.Setenv("CHECK_INTERVAL", "1d")
	assert.Equal(t, 24*time.Hour, GetDuration("check_interval"))

	t.Setenv("CHECK_INTERVAL", "90s")
	assert.Equal(t, 90*time.Second, GetDuration("check_interval"))

	t.Setenv("CHECK_INTERVAL", "soon")
	assert.Equal(t, time.Minute, GetDuration("check_interval"))
}

func TestDefaults(t *testing.T) {
	assert.Equal(t, 10*time.Second, GetDuration("oracle_timeout"))
	assert.Equal(t, ".NS", GetString("symbol_suffix"))
	assert.Equal(t, 9090, GetInt("metrics_port"))
}

func TestGetStringMap(t *testing.T) {
	t.Setenv("SYMBOL_OVERRIDES", "NIFTY=^NSEI, SENSEX=^BSESN,broken")
	assert.Equal(t, map[string]string{"NIFTY": "^NSEI", "SENSEX": "^BSESN"}, GetStringMap("symbol_overrides"))
}
