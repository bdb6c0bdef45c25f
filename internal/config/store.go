package config

import "os"

const (
	storePathEnv = "REMINDER_DB_PATH"

	defaultStorePath = "reminder.db"
)

type StoreConfig struct {
	Path string
}

func LoadStoreConfig() *StoreConfig {
	path := os.Getenv(storePathEnv)
	if path == "" {
		path = defaultStorePath
	}
	return &StoreConfig{Path: path}
}

func (c *StoreConfig) Validate() error {
	if c == nil || c.Path == "" {
		return ErrStorePathMissing
	}
	return nil
}
