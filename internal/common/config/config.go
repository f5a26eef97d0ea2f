// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig          `mapstructure:"app"`
	Database      DatabaseConfig     `mapstructure:"database"`
	Email         EmailConfig        `mapstructure:"email"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Server        ServerConfig       `mapstructure:"server"`
	Logging       LoggingConfig      `mapstructure:"logging"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// DatabaseConfig selects the record store backing. Driver "postgres" uses the
// PostgreSQL store; "memory" keeps records in-process. An empty driver with
// no postgres host also falls back to memory.
type DatabaseConfig struct {
	Driver   string         `mapstructure:"driver"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string.
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// RedisConfig configures the optional distributed sweep lock. An empty
// address disables it; single-instance deployments rely on the in-process
// guard alone.
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// EmailConfig configures the email capability. Provider is "ses", "smtp" or
// "disabled"; a disabled provider makes every send a reported no-op skip.
type EmailConfig struct {
	Provider         string     `mapstructure:"provider"`
	FromEmail        string     `mapstructure:"from_email"`
	FromName         string     `mapstructure:"from_name"`
	TemplateRegistry string     `mapstructure:"template_registry"`
	AWS              AWSConfig  `mapstructure:"aws"`
	SMTP             SMTPConfig `mapstructure:"smtp"`
}

type AWSConfig struct {
	Region string `mapstructure:"region"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	UseTLS   bool   `mapstructure:"use_tls"`
}

// NotificationConfig holds trigger scheduling settings.
type NotificationConfig struct {
	SweepTime           string `mapstructure:"sweep_time"`            // daily sweep, HH:MM local
	BackupIntervalHours int    `mapstructure:"backup_interval_hours"` // coarse backup sweep
	DigestTime          string `mapstructure:"digest_time"`           // daily digest run, HH:MM local
	DigestLookaheadDays int    `mapstructure:"digest_lookahead_days"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// UseMemoryStore reports whether the in-memory store should back the service.
func (d DatabaseConfig) UseMemoryStore() bool {
	if d.Driver == "memory" {
		return true
	}
	return d.Driver == "" && d.Postgres.Host == ""
}
