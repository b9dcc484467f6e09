package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the server settings resolved from flags, environment and an
// optional config file.
type Config struct {
	Addr        string
	DBDriver    string
	DBDSN       string
	TablePrefix string

	// ScanThreshold bounds eager scanning: when the total number of keys
	// across databases is below it, every database is scanned on page view.
	ScanThreshold int64
	ValuePageSize int64
	SlowlogSize   int64

	JWTSecret     string
	AnonymousUser string
	PolicyFile    string

	AllowedOrigins []string
	EncKey         string

	PollInterval time.Duration
	DialTimeout  time.Duration
	ReadTimeout  time.Duration

	LogLevel  string
	LogFormat string
}

// Defaults registers default values on v.
func Defaults(v *viper.Viper) {
	v.SetDefault("addr", ":8080")
	v.SetDefault("db-driver", "")
	v.SetDefault("db-dsn", "file:redisboard.db?_busy_timeout=5000")
	v.SetDefault("table-prefix", "rb_")
	v.SetDefault("scan-threshold", 1000)
	v.SetDefault("value-page-size", 100)
	v.SetDefault("slowlog-size", 10)
	v.SetDefault("allowed-origins", "http://localhost:5173")
	v.SetDefault("poll-interval", "0s")
	v.SetDefault("dial-timeout", "3s")
	v.SetDefault("read-timeout", "5s")
	v.SetDefault("log-level", "info")
	v.SetDefault("log-format", "text")
}

// Load reads the configuration from v.
func Load(v *viper.Viper) (Config, error) {
	c := Config{
		Addr:          v.GetString("addr"),
		DBDriver:      v.GetString("db-driver"),
		DBDSN:         v.GetString("db-dsn"),
		TablePrefix:   v.GetString("table-prefix"),
		ScanThreshold: v.GetInt64("scan-threshold"),
		ValuePageSize: v.GetInt64("value-page-size"),
		SlowlogSize:   v.GetInt64("slowlog-size"),
		JWTSecret:     v.GetString("jwt-secret"),
		AnonymousUser: v.GetString("anonymous-user"),
		PolicyFile:    v.GetString("policy-file"),
		EncKey:        v.GetString("enc-key"),
		PollInterval:  v.GetDuration("poll-interval"),
		DialTimeout:   v.GetDuration("dial-timeout"),
		ReadTimeout:   v.GetDuration("read-timeout"),
		LogLevel:      v.GetString("log-level"),
		LogFormat:     v.GetString("log-format"),
	}
	c.AllowedOrigins = splitList(v.GetString("allowed-origins"))
	return c, c.Validate()
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("addr must be set")
	}
	if c.DBDSN == "" {
		return fmt.Errorf("db-dsn must be set")
	}
	if c.ScanThreshold < 0 {
		return fmt.Errorf("scan-threshold must not be negative")
	}
	if c.ValuePageSize <= 0 {
		return fmt.Errorf("value-page-size must be positive")
	}
	if c.SlowlogSize < 0 {
		return fmt.Errorf("slowlog-size must not be negative")
	}
	if c.PollInterval < 0 {
		return fmt.Errorf("poll-interval must not be negative")
	}
	if c.JWTSecret == "" && c.AnonymousUser == "" {
		return fmt.Errorf("either jwt-secret or anonymous-user must be set")
	}
	return nil
}

// T prefixes the given table name with the configured prefix.
func (c Config) T(name string) string {
	return c.TablePrefix + name
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
