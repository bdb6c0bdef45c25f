package config

import (
	"os"
	"strconv"
)

const (
	maxPerBundleEnv = "REMINDER_MAX_PER_BUNDLE"
	maxTotalEnv     = "REMINDER_MAX_TOTAL"

	defaultMaxPerBundle = 30
	defaultMaxTotal     = 2000
)

type QuotaConfig struct {
	MaxPerBundle int
	MaxTotal     int
}

func LoadQuotaConfig() *QuotaConfig {
	maxPerBundle := defaultMaxPerBundle
	if v := os.Getenv(maxPerBundleEnv); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			maxPerBundle = parsed
		}
	}

	maxTotal := defaultMaxTotal
	if v := os.Getenv(maxTotalEnv); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			maxTotal = parsed
		}
	}

	return &QuotaConfig{
		MaxPerBundle: maxPerBundle,
		MaxTotal:     maxTotal,
	}
}
