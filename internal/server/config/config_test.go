package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, ":8080", c.EndpointAddr)
	assert.Equal(t, 15*time.Minute, c.AccessTokenValidityDuration)
	assert.Equal(t, 720*time.Hour, c.RefreshTokenValidityDuration)
	assert.NotEmpty(t, c.DatabaseDSN)
	assert.Equal(t, "voiceclips", c.S3Bucket)
}

func TestParseEnv_Overlays(t *testing.T) {
	t.Setenv("ADDRESS", ":9999")
	t.Setenv("SECRET_KEY", "from-env")
	t.Setenv("ACCESS_TOKEN_VALIDITY", "30m")

	var c Config
	c.LoadDefaults()
	parseEnv(&c)

	assert.Equal(t, ":9999", c.EndpointAddr)
	assert.Equal(t, "from-env", c.SecretKey)
	assert.Equal(t, 30*time.Minute, c.AccessTokenValidityDuration)
	// Untouched by env.
	assert.Equal(t, "voiceclips", c.S3Bucket)
}

func TestParseEnv_IgnoresInvalidDuration(t *testing.T) {
	t.Setenv("ACCESS_TOKEN_VALIDITY", "not-a-duration")

	var c Config
	c.LoadDefaults()
	parseEnv(&c)

	assert.Equal(t, 15*time.Minute, c.AccessTokenValidityDuration)
}
