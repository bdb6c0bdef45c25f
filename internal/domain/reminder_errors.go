package domain

import "errors"

var (
	ErrInvalidParam        = errors.New("invalid reminder parameter")
	ErrReminderNotFound    = errors.New("reminder not found")
	ErrQuotaExceeded       = errors.New("reminder quota exceeded")
	ErrNoMemory            = errors.New("insufficient memory")
	ErrServiceNotConnected = errors.New("service not connected")
	ErrTimeUnavailable     = errors.New("system time unavailable")
)
