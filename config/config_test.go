package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "JWT_ACCESS_TTL", "ROLE_CACHE_TTL", "MAIL_SEND_ENABLED", "STORAGE_DRIVER", "ELASTICSEARCH_ADDRS"} {
		t.Setenv(k, "")
	}
	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, time.Hour, cfg.AccessTTL)
	assert.Equal(t, 5*time.Minute, cfg.RoleCacheTTL)
	assert.False(t, cfg.MailSendEnabled)
	assert.False(t, cfg.UseMemoryStorage())
	assert.Empty(t, cfg.ESAddrs())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("STORAGE_DRIVER", "Memory")
	t.Setenv("JWT_ACCESS_TTL", "15m")
	t.Setenv("DB_MAX_CONNS", "not-a-number")
	t.Setenv("MAIL_SEND_ENABLED", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, ,http://b.test")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Port)
	assert.True(t, cfg.UseMemoryStorage())
	assert.Equal(t, 15*time.Minute, cfg.AccessTTL)
	assert.Equal(t, int32(10), cfg.DBMaxConns)
	assert.True(t, cfg.MailSendEnabled)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins())
}

func TestPostgresDSN(t *testing.T) {
	cfg := &Config{DBUser: "u", DBPassword: "p", DBHost: "h", DBPort: "5432", DBName: "d", DBSSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@h:5432/d?sslmode=disable", cfg.PostgresDSN())
}
