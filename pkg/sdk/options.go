package neodex

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	s3Endpoint  string
	s3AccessKey string
	s3SecretKey string
	s3UseSSL    bool
	s3Region    string

	comparison string
	timeout    time.Duration

	cacheAddrs    []string
	cachePassword string
	cacheTTL      time.Duration

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithS3 configures the S3-compatible endpoint used for s3:// dataset URIs.
func WithS3(endpoint, accessKey, secretKey string, useSSL bool) Option {
	return optionFunc(func(c *clientConfig) {
		c.s3Endpoint = endpoint
		c.s3AccessKey = accessKey
		c.s3SecretKey = secretKey
		c.s3UseSSL = useSSL
	})
}

// WithS3Region sets the bucket region. Most S3-compatible stores ignore it.
func WithS3Region(region string) Option {
	return optionFunc(func(c *clientConfig) {
		c.s3Region = region
	})
}

// WithLexicalComparison compares filter values as text, so "10" < "9".
// Default: typed comparison.
func WithLexicalComparison() Option {
	return optionFunc(func(c *clientConfig) {
		c.comparison = "lexical"
	})
}

// WithTimeout bounds every query. Zero disables the bound (default).
func WithTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.timeout = d
	})
}

// WithValkey caches query results in a Valkey instance.
// ttl <= 0 uses the cache default of 10 minutes.
func WithValkey(addr, password string, ttl time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.cacheAddrs = []string{addr}
		c.cachePassword = password
		c.cacheTTL = ttl
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
