package cli

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramiqadoumi/go-earn-flow/internal/domain"
	"github.com/ramiqadoumi/go-earn-flow/services/notifier/config"
)

func TestWriteConfig(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "notifier.yaml")

	require.NoError(t, writeConfig(dest, defaultNotifierYAML, false))
	require.Error(t, writeConfig(dest, defaultNotifierYAML, false))
	require.NoError(t, writeConfig(dest, defaultNotifierYAML, true))

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, defaultNotifierYAML, string(data))
}

func TestDefaultYAMLLoads(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "notifier.yaml")
	require.NoError(t, writeConfig(dest, defaultNotifierYAML, false))

	v := viper.New()
	v.SetConfigFile(dest)
	require.NoError(t, v.ReadInConfig())

	cfg := config.Load(v)
	assert.Equal(t, "log", cfg.Channel)
	assert.Equal(t, "notifier", cfg.GroupID)
	assert.Equal(t, 1025, cfg.SMTPPort)
	require.NoError(t, cfg.Validate())
}

func TestBuildChannels(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)

	reg := buildChannels(config.Config{}, logger)
	_, err := reg.Get("log")
	require.NoError(t, err)
	_, err = reg.Get("webhook")
	var unknown *domain.UnknownChannelError
	require.ErrorAs(t, err, &unknown, "webhook needs a url")

	reg = buildChannels(config.Config{
		WebhookURL: "http://hooks.local/earnflow",
		SMTPHost:   "localhost",
		SMTPPort:   1025,
		SMTPFrom:   "noreply@earnflow.dev",
	}, logger)
	for _, name := range []string{"log", "webhook", "email"} {
		ch, err := reg.Get(name)
		require.NoError(t, err, name)
		assert.Equal(t, name, ch.Name())
	}
}
