package config

import (
	"errors"
	"testing"
)

func TestLoadRedisConfigDefaults(t *testing.T) {
	t.Setenv(redisAddrEnv, "")
	t.Setenv(redisDBEnv, "")
	t.Setenv(redisTLSEnv, "")

	cfg, err := LoadRedisConfig()
	if err != nil {
		t.Fatalf("LoadRedisConfig: %v", err)
	}
	if cfg.Addr != defaultRedisAddr {
		t.Errorf("Addr = %q, want %q", cfg.Addr, defaultRedisAddr)
	}
	if cfg.DB != 0 || cfg.TLS {
		t.Errorf("DB/TLS = %d/%v, want 0/false", cfg.DB, cfg.TLS)
	}
}

func TestLoadRedisConfigRejectsBadValues(t *testing.T) {
	t.Setenv(redisDBEnv, "not-a-number")
	if _, err := LoadRedisConfig(); !errors.Is(err, ErrInvalidRedisDB) {
		t.Errorf("bad REDIS_DB: err = %v, want ErrInvalidRedisDB", err)
	}

	t.Setenv(redisDBEnv, "1")
	t.Setenv(redisTLSEnv, "maybe")
	if _, err := LoadRedisConfig(); !errors.Is(err, ErrInvalidRedisTLS) {
		t.Errorf("bad REDIS_TLS: err = %v, want ErrInvalidRedisTLS", err)
	}
}
