// Package config defines process configuration and its loading order.
package config

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// AppName is stamped on outbound email subjects.
	AppName string `koanf:"app_name"`

	// SessionKey is the HMAC secret verifying session tokens.
	SessionKey string `koanf:"session_key"`

	// AdminEmails lists accounts allowed to post notices.
	AdminEmails []string `koanf:"admin_emails"`

	// DashboardLimit bounds the per-user today view.
	DashboardLimit int `koanf:"dashboard_limit"`

	// NoticeLimit bounds the notices page feed.
	NoticeLimit int `koanf:"notice_limit"`

	// DedupeSize sets the size of the submission guard cache.
	DedupeSize int `koanf:"dedupe_size"`

	// PostgresDSN selects the document store backend. Empty runs in-memory.
	PostgresDSN string `koanf:"postgres_dsn"`

	// RedisURL enables the snapshot cache when set.
	RedisURL string `koanf:"redis_url"`

	// KafkaBrokers and KafkaTopic enable the audit publisher when set.
	KafkaBrokers []string `koanf:"kafka_brokers"`
	KafkaTopic   string   `koanf:"kafka_topic"`

	// SendGrid settings for the contact form. Empty key falls back to the
	// recording dummy service.
	SendGridKey      string `koanf:"sendgrid_key"`
	MailFrom         string `koanf:"mail_from"`
	ContactRecipient string `koanf:"contact_recipient"`

	// ShutdownTimeoutSeconds bounds graceful server shutdown.
	ShutdownTimeoutSeconds int `koanf:"shutdown_timeout_seconds"`
}

// New returns a Config with defaults suitable for local development.
func New() *Config {
	return &Config{
		LogLevel:               "info",
		Addr:                   ":8080",
		AppName:                "CampusBoard",
		DashboardLimit:         30,
		NoticeLimit:            100,
		DedupeSize:             1024,
		KafkaTopic:             "campusboard.audit",
		MailFrom:               "no-reply@campusboard.local",
		ContactRecipient:       "staff@campusboard.local",
		ShutdownTimeoutSeconds: 10,
	}
}
