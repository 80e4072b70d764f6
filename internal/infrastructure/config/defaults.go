package config

import "time"

const (
	DefaultHTTPPort        = "8080"
	DefaultShutdownTimeout = 10 * time.Second
	DefaultWorkerPoll      = 15 * time.Minute
	DefaultPGMaxConns      = 5
	DefaultPGMinConns      = 1
	DefaultRatesCacheKey   = "rates:latest"
	DefaultHTTPTimeout     = 4 * time.Second
	DefaultReadHeaderLimit = 5 * time.Second
)
