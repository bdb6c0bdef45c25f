package config

import "errors"

var (
	ErrRedisAddrMissing = errors.New("REDIS_ADDR is required")
	ErrInvalidRedisDB   = errors.New("REDIS_DB must be a valid integer")
	ErrInvalidRedisTLS  = errors.New("REDIS_TLS must be a boolean")
	ErrInvalidEventBus  = errors.New("EVENT_BUS must be \"local\" or \"redis\"")
	ErrStorePathMissing = errors.New("REMINDER_DB_PATH is required")
)
