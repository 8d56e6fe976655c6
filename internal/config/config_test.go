package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func TestNewConfig_Defaults(t *testing.T) {
	resetViper(t)
	for key := range defaults {
		t.Setenv(key, "")
	}

	cfg, err := NewConfig()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, DriverPostgres, cfg.StoreDriver)
	assert.Equal(t, 24*time.Hour, cfg.JWTExpiration)
	assert.Equal(t, 10, cfg.ImportBatchSize)
	assert.Equal(t, "accounts.txt", cfg.ImportFile)
	assert.Equal(t, "admin@admin.com", cfg.AdminEmail)
	assert.Equal(t, "account_events", cfg.AccountEventsExchange)
	assert.False(t, cfg.MailEnabled())
}

func TestNewConfig_Overrides(t *testing.T) {
	resetViper(t)
	t.Setenv("PORT", "9090")
	t.Setenv("STORE_DRIVER", "Memory")
	t.Setenv("JWT_EXPIRATION", "90m")
	t.Setenv("IMPORT_BATCH_SIZE", "50")
	t.Setenv("IMPORT_RETRY_SCHEDULE", "*/5 * * * *")
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("SENDER_EMAIL", "noreply@example.com")
	t.Setenv("IMPORT_REPORT_RECIPIENT", "ops@example.com")

	cfg, err := NewConfig()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, DriverMemory, cfg.StoreDriver)
	assert.Equal(t, 90*time.Minute, cfg.JWTExpiration)
	assert.Equal(t, 50, cfg.ImportBatchSize)
	assert.True(t, cfg.MailEnabled())
}

func TestNewConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantErr string
	}{
		{"unknown driver", "STORE_DRIVER", "mongo", "STORE_DRIVER"},
		{"zero batch size", "IMPORT_BATCH_SIZE", "0", "IMPORT_BATCH_SIZE"},
		{"bad schedule", "IMPORT_RETRY_SCHEDULE", "every tuesday", "IMPORT_RETRY_SCHEDULE"},
		{"negative expiration", "JWT_EXPIRATION", "-1h", "JWT_EXPIRATION"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetViper(t)
			t.Setenv(tt.key, tt.value)

			_, err := NewConfig()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
