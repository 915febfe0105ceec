package api

import "time"

type Config struct {
	HTTPAddr        string        `envconfig:"AUDIT_HTTP_ADDR" default:"0.0.0.0:8080"`
	DBDSN           string        `envconfig:"AUDIT_DB_DSN" required:"true"`
	MetricsAddr     string        `envconfig:"AUDIT_METRICS_ADDR" default:"0.0.0.0:9090"`
	LogLevel        string        `envconfig:"AUDIT_LOG_LEVEL" default:"info"`
	QueueSize       int           `envconfig:"AUDIT_QUEUE_SIZE" default:"256"`
	ShutdownTimeout time.Duration `envconfig:"AUDIT_SHUTDOWN_TIMEOUT" default:"30s"`
}
