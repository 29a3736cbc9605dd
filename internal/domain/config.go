package domain

import "time"

type Config struct {
	StorageURL      string
	PageSize        int
	TransitionDelay time.Duration
	JWTSecret       string
	JWTIssuer       string
}
