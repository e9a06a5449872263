package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("EXTERNAL_INVOICE_URL", "http://invoices.internal:9090/")
	t.Setenv("EXTERNAL_INVOICE_TIMEOUT", "not-a-duration")
	t.Setenv("REDIS_DB", "2")

	cfg := Load()

	assert.Equal(t, "http://invoices.internal:9090", cfg.ExternalInvoice.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.ExternalInvoice.Timeout)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.False(t, cfg.IsProduction())
}

func TestValidateGatewayConfig(t *testing.T) {
	cases := []struct {
		name    string
		cfg     GatewayConfig
		wantErr bool
	}{
		{name: "defaults", cfg: DefaultGatewayConfig()},
		{name: "zero_break", cfg: GatewayConfig{BreakDuration: 0, FailureThreshold: 1}, wantErr: true},
		{name: "zero_threshold", cfg: GatewayConfig{BreakDuration: time.Second}, wantErr: true},
		{name: "negative_retries", cfg: GatewayConfig{BreakDuration: time.Second, FailureThreshold: 1, MaxRetries: -1}, wantErr: true},
		{name: "no_retries", cfg: GatewayConfig{BreakDuration: time.Second, FailureThreshold: 1, MaxRetries: 0}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateGatewayConfig(tc.cfg)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestGatewayConfigHolderWithoutFileUsesDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	holder, err := NewGatewayConfigHolder(zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, DefaultGatewayConfig(), holder.Get())
}

func TestGatewayConfigHolderReadsFile(t *testing.T) {
	dir := t.TempDir()
	content := "gateway:\n  breakDuration: 30s\n  failureThreshold: 2\n  maxRetries: 1\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "gateway.yml"), []byte(content), 0o600))
	t.Chdir(dir)

	holder, err := NewGatewayConfigHolder(zap.NewNop())
	require.NoError(t, err)

	cfg := holder.Get()
	assert.Equal(t, 30*time.Second, cfg.BreakDuration)
	assert.Equal(t, 2, cfg.FailureThreshold)
	assert.Equal(t, 1, cfg.MaxRetries)
}

func TestGatewayConfigHolderRejectsInvalidFile(t *testing.T) {
	dir := t.TempDir()
	content := "gateway:\n  breakDuration: 0s\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "gateway.yml"), []byte(content), 0o600))
	t.Chdir(dir)

	_, err := NewGatewayConfigHolder(zap.NewNop())
	assert.Error(t, err)
}

func TestGatewayConfigHolderNotifiesListeners(t *testing.T) {
	holder := NewStaticGatewayConfigHolder(DefaultGatewayConfig())

	var seen []time.Duration
	holder.OnChange(func(cfg GatewayConfig) {
		seen = append(seen, cfg.BreakDuration)
	})

	updated := DefaultGatewayConfig()
	updated.BreakDuration = 10 * time.Second
	holder.Set(updated)

	assert.Equal(t, []time.Duration{10 * time.Second}, seen)
	assert.Equal(t, 10*time.Second, holder.Get().BreakDuration)
}
