package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8080", cfg.Addr())
	assert.Empty(t, cfg.OneBot.Secret)
	assert.Empty(t, cfg.OneBot.AccessToken)
	assert.Empty(t, cfg.OneBot.WSUrls)
	assert.Equal(t, Duration(3*time.Second), cfg.OneBot.ReconnectInterval)
	assert.Equal(t, Duration(30*time.Second), cfg.OneBot.APITimeout)
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, `
gateway:
  host: 0.0.0.0
  port: 9000
onebot:
  secret: s3cret
  access_token: tok
  ws_urls:
    - ws://gateway-a:6700/
    - wss://gateway-b:6700/ws
  reconnect_interval: 5s
log:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9000", cfg.Addr())
	assert.Equal(t, "s3cret", cfg.OneBot.Secret)
	assert.Equal(t, "tok", cfg.OneBot.AccessToken)
	assert.Equal(t, []string{"ws://gateway-a:6700/", "wss://gateway-b:6700/ws"}, cfg.OneBot.WSUrls)
	assert.Equal(t, Duration(5*time.Second), cfg.OneBot.ReconnectInterval)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
onebot:
  access_token: from-file
`)
	t.Setenv("ONEBOT_ACCESS_TOKEN", "from-env")
	t.Setenv("ONEBOT_WS_URLS", "ws://a:1/,ws://b:2/")
	t.Setenv("ONEBOT_GATEWAY_PORT", "7700")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.OneBot.AccessToken)
	assert.Equal(t, []string{"ws://a:1/", "ws://b:2/"}, cfg.OneBot.WSUrls)
	assert.Equal(t, 7700, cfg.Gateway.Port)
}

func TestLoadMissingFileFallsBack(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Gateway.Port)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := writeConfig(t, "gateway: [not a mapping")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRepairsNonPositiveDurations(t *testing.T) {
	path := writeConfig(t, `
onebot:
  reconnect_interval: -1s
  api_timeout: 0s
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Duration(3*time.Second), cfg.OneBot.ReconnectInterval)
	assert.Equal(t, Duration(30*time.Second), cfg.OneBot.APITimeout)
}
