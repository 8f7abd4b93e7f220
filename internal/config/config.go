package config

import (
	"strings"
	"time"

	"github.com/pqlammy/Gennerweb-sub000/internal/logger"
	"github.com/spf13/viper"
)

type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Security     SecurityConfig     `mapstructure:"security"`
	Auth         AuthConfig         `mapstructure:"auth"`
	Contribution ContributionConfig `mapstructure:"contribution"`
	Log          LogConfig          `mapstructure:"log"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// SecurityConfig carries the encryption secret and the login throttle knobs.
type SecurityConfig struct {
	EncryptionKey        string `mapstructure:"encryption_key"` // 32 ASCII chars or 64 hex chars
	LoginMaxAttempts     int    `mapstructure:"login_max_attempts"`
	LoginWindowMinutes   int    `mapstructure:"login_window_minutes"`
	LockoutMinutes       int    `mapstructure:"lockout_minutes"`
	SweepIntervalMinutes int    `mapstructure:"sweep_interval_minutes"`
}

func (s SecurityConfig) LoginWindow() time.Duration {
	return time.Duration(s.LoginWindowMinutes) * time.Minute
}

func (s SecurityConfig) LockoutDuration() time.Duration {
	return time.Duration(s.LockoutMinutes) * time.Minute
}

func (s SecurityConfig) SweepInterval() time.Duration {
	return time.Duration(s.SweepIntervalMinutes) * time.Minute
}

type AuthConfig struct {
	JWTSecret        string `mapstructure:"jwt_secret"`
	TokenExpiryHours int    `mapstructure:"token_expiry_hours"`
}

func (a AuthConfig) TokenExpiry() time.Duration {
	return time.Duration(a.TokenExpiryHours) * time.Hour
}

// FieldMode controls whether a contribution form field is collected.
type FieldMode string

const (
	FieldRequired FieldMode = "required"
	FieldOptional FieldMode = "optional"
	FieldHidden   FieldMode = "hidden"
)

// ParseFieldMode maps a config string to a FieldMode, defaulting to optional.
func ParseFieldMode(s string) FieldMode {
	switch FieldMode(strings.ToLower(strings.TrimSpace(s))) {
	case FieldRequired:
		return FieldRequired
	case FieldHidden:
		return FieldHidden
	default:
		return FieldOptional
	}
}

// FieldPolicy is the per-deployment visibility of the optional PII fields.
// First and last name are always required and not part of the policy.
type FieldPolicy struct {
	Email      FieldMode `mapstructure:"email"`
	Address    FieldMode `mapstructure:"address"`
	City       FieldMode `mapstructure:"city"`
	PostalCode FieldMode `mapstructure:"postal_code"`
	Phone      FieldMode `mapstructure:"phone"`
}

// AmountPresets are the suggested donation amounts shown on the form.
type AmountPresets struct {
	Values []float64 `mapstructure:"values"`
}

type ContributionConfig struct {
	Fields        FieldPolicy   `mapstructure:"fields"`
	AmountPresets AmountPresets `mapstructure:"amount_presets"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Output string `mapstructure:"output"` // stdout, stderr, file
	File   string `mapstructure:"file"`
}

func Load() *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/gennerweb")

	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "")
	viper.SetDefault("database.dbname", "gennerweb")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("security.encryption_key", "")
	viper.SetDefault("security.login_max_attempts", 5)
	viper.SetDefault("security.login_window_minutes", 15)
	viper.SetDefault("security.lockout_minutes", 15)
	viper.SetDefault("security.sweep_interval_minutes", 5)
	viper.SetDefault("auth.jwt_secret", "")
	viper.SetDefault("auth.token_expiry_hours", 24)
	viper.SetDefault("contribution.fields.email", string(FieldRequired))
	viper.SetDefault("contribution.fields.address", string(FieldOptional))
	viper.SetDefault("contribution.fields.city", string(FieldOptional))
	viper.SetDefault("contribution.fields.postal_code", string(FieldOptional))
	viper.SetDefault("contribution.fields.phone", string(FieldOptional))
	viper.SetDefault("contribution.amount_presets.values", []float64{5, 10, 20, 50, 100})

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		logger.Warn("Warning: Could not read config file: %v", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		logger.Fatal("Unable to decode config into struct: %v", err)
	}

	// normalize field modes so typos degrade to optional instead of misvalidating
	config.Contribution.Fields = FieldPolicy{
		Email:      ParseFieldMode(string(config.Contribution.Fields.Email)),
		Address:    ParseFieldMode(string(config.Contribution.Fields.Address)),
		City:       ParseFieldMode(string(config.Contribution.Fields.City)),
		PostalCode: ParseFieldMode(string(config.Contribution.Fields.PostalCode)),
		Phone:      ParseFieldMode(string(config.Contribution.Fields.Phone)),
	}

	return &config
}
