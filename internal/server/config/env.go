package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

// parseEnv overlays Config with values from environment variables. A .env
// file in the working directory is loaded first when present; real
// environment variables win over .env entries (godotenv.Load semantics).
//
// Recognized variables:
//
//	ADDRESS, DATABASE_DSN, SECRET_KEY,
//	ACCESS_TOKEN_VALIDITY, REFRESH_TOKEN_VALIDITY (Go duration strings),
//	S3_ROOT_USER, S3_ROOT_PASSWORD, S3_BUCKET, S3_REGION, S3_BASE_ENDPOINT
func parseEnv(cfg *Config) {
	_ = godotenv.Load()

	setString := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	setDuration := func(key string, dst *time.Duration) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			if d, err := time.ParseDuration(v); err == nil {
				*dst = d
			}
		}
	}

	setString("ADDRESS", &cfg.EndpointAddr)
	setString("DATABASE_DSN", &cfg.DatabaseDSN)
	setString("SECRET_KEY", &cfg.SecretKey)
	setDuration("ACCESS_TOKEN_VALIDITY", &cfg.AccessTokenValidityDuration)
	setDuration("REFRESH_TOKEN_VALIDITY", &cfg.RefreshTokenValidityDuration)
	setString("S3_ROOT_USER", &cfg.S3RootUser)
	setString("S3_ROOT_PASSWORD", &cfg.S3RootPassword)
	setString("S3_BUCKET", &cfg.S3Bucket)
	setString("S3_REGION", &cfg.S3Region)
	setString("S3_BASE_ENDPOINT", &cfg.S3BaseEndpoint)
}
