package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	cfg := fromViper(v)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "", cfg.APIPrefix)
	assert.Equal(t, 24*time.Hour, cfg.JWT.Expiration)
	assert.Equal(t, 5*time.Minute, cfg.Cache.EventsTTL)
	assert.Equal(t, int64(20*1024*1024), cfg.Uploads.MaxFileSizeBytes)
	assert.Equal(t, 2, cfg.Notify.Workers)
	assert.Empty(t, cfg.Mail.Host)
}

func TestOverrides(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("API_PREFIX", "/api/")
	v.Set("ALLOWED_ORIGINS", "http://a.test, http://b.test ,")
	v.Set("EVENTS_CACHE_TTL", "not-a-duration")
	v.Set("JWT_EXPIRATION", "90m")
	v.Set("MAX_FILE_SIZE", -1)

	cfg := fromViper(v)
	assert.Equal(t, "/api", cfg.APIPrefix)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 5*time.Minute, cfg.Cache.EventsTTL)
	assert.Equal(t, 90*time.Minute, cfg.JWT.Expiration)
	assert.Equal(t, int64(20*1024*1024), cfg.Uploads.MaxFileSizeBytes)
}
