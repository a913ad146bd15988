package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("TELEGRAM_BOT_TOKEN", "test-token")
	t.Setenv("BASE_DATA_PATH", t.TempDir())
	t.Setenv("REGISTERED_USERS", "111,222")
}

func TestLoad(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("LOKASI_ACCESS_USERS", "111")
	t.Setenv("RAR_ACCESS_USERS", " 111 , 222 ")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("ORS_API_KEY", "ors-key")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "test-token", cfg.TelegramBotToken)
	assert.Equal(t, []int64{111, 222}, cfg.RegisteredUsers)
	assert.Equal(t, []int64{111}, cfg.LocationUsers)
	assert.Equal(t, []int64{111, 222}, cfg.ArchiveUsers)
	assert.Empty(t, cfg.OcrUsers)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.HasRoutingConfig())
	assert.False(t, cfg.HasMapboxConfig())
}

func TestLoadDefaultsLogLevel(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("LOG_LEVEL", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadRejectsMissingRequired(t *testing.T) {
	tests := []struct {
		name  string
		unset string
	}{
		{"missing token", "TELEGRAM_BOT_TOKEN"},
		{"missing base path", "BASE_DATA_PATH"},
		{"missing registered users", "REGISTERED_USERS"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(tt.unset, "")

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.unset)
		})
	}
}

func TestLoadRejectsMalformedIDList(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("KML_ACCESS_USERS", "111,abc")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KML_ACCESS_USERS")
}

func TestParseIDList(t *testing.T) {
	ids, err := parseIDList("1, 2,3,")
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, ids)

	ids, err = parseIDList("")
	require.NoError(t, err)
	assert.Empty(t, ids)
}
