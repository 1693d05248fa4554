package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// JWTConfig holds token signing settings.
type JWTConfig struct {
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// KafkaConfig holds broker settings.
type KafkaConfig struct {
	Brokers     []string
	GroupPrefix string
}

// AdmissionConfig bounds lock waits and retries for tour-scoped units of work.
type AdmissionConfig struct {
	LockTimeout          time.Duration
	MaxRetries           int
	RetryInitialInterval time.Duration
	RetryMaxInterval     time.Duration
}

// StaffConfig names the staff account created at startup. Empty email disables it.
type StaffConfig struct {
	Email    string
	Password string
}

// Load builds a viper instance reading <PREFIX>_* environment variables and an
// optional config.yaml in the working directory.
func Load(prefix string) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(prefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return v, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("SERVICE_PORT", "8080")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_SSLMODE", "disable")

	v.SetDefault("JWT_SECRET", "change-me-in-production")
	v.SetDefault("JWT_ACCESS_TTL", "15m")
	v.SetDefault("JWT_REFRESH_TTL", "168h")

	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("KAFKA_GROUP_PREFIX", "")

	v.SetDefault("ADMISSION_LOCK_TIMEOUT", "2s")
	v.SetDefault("ADMISSION_MAX_RETRIES", 3)
	v.SetDefault("ADMISSION_RETRY_INITIAL_INTERVAL", "50ms")
	v.SetDefault("ADMISSION_RETRY_MAX_INTERVAL", "1s")

	v.SetDefault("STAFF_EMAIL", "")
	v.SetDefault("STAFF_PASSWORD", "")
}

// GetServicePort returns the listen address for the given key, e.g. ":8080".
func GetServicePort(v *viper.Viper, key string) string {
	port := v.GetString(key)
	if port == "" {
		port = "8080"
	}
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}
	return port
}

// GetAppEnv returns the deployment environment (development, staging, production).
func GetAppEnv(v *viper.Viper) string {
	return strings.ToLower(v.GetString("APP_ENV"))
}

// LoadDatabaseConfig reads database settings; dbNameKey selects the database name variable.
func LoadDatabaseConfig(v *viper.Viper, dbNameKey string) DatabaseConfig {
	v.SetDefault(dbNameKey, "tours")
	return DatabaseConfig{
		Host:     v.GetString("DB_HOST"),
		Port:     v.GetString("DB_PORT"),
		User:     v.GetString("DB_USER"),
		Password: v.GetString("DB_PASSWORD"),
		DBName:   v.GetString(dbNameKey),
		SSLMode:  v.GetString("DB_SSLMODE"),
	}
}

// LoadJWTConfig reads token settings.
func LoadJWTConfig(v *viper.Viper) JWTConfig {
	return JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		AccessTTL:  v.GetDuration("JWT_ACCESS_TTL"),
		RefreshTTL: v.GetDuration("JWT_REFRESH_TTL"),
	}
}

// LoadKafkaConfig reads broker settings. KAFKA_BROKERS is a comma-separated list.
func LoadKafkaConfig(v *viper.Viper) KafkaConfig {
	var brokers []string
	for _, b := range strings.Split(v.GetString("KAFKA_BROKERS"), ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return KafkaConfig{
		Brokers:     brokers,
		GroupPrefix: v.GetString("KAFKA_GROUP_PREFIX"),
	}
}

// LoadAdmissionConfig reads lock and retry bounds for booking admission.
func LoadAdmissionConfig(v *viper.Viper) AdmissionConfig {
	return AdmissionConfig{
		LockTimeout:          v.GetDuration("ADMISSION_LOCK_TIMEOUT"),
		MaxRetries:           v.GetInt("ADMISSION_MAX_RETRIES"),
		RetryInitialInterval: v.GetDuration("ADMISSION_RETRY_INITIAL_INTERVAL"),
		RetryMaxInterval:     v.GetDuration("ADMISSION_RETRY_MAX_INTERVAL"),
	}
}

// LoadStaffConfig reads the bootstrap staff credentials.
func LoadStaffConfig(v *viper.Viper) StaffConfig {
	return StaffConfig{
		Email:    v.GetString("STAFF_EMAIL"),
		Password: v.GetString("STAFF_PASSWORD"),
	}
}
