package config

import (
	"github.com/tourhub/service-booking/internal/platform/config"
	"github.com/tourhub/service-booking/internal/platform/database"
)

// ServiceConfig holds all configuration for the booking service.
type ServiceConfig struct {
	Port            string
	AppEnv          string
	DBConfig        database.PostgresConfig
	JWTConfig       config.JWTConfig
	KafkaConfig     config.KafkaConfig
	AdmissionConfig config.AdmissionConfig
	StaffConfig     config.StaffConfig
}

// Load reads configuration from TOURS_* environment variables.
func Load() (*ServiceConfig, error) {
	v, err := config.Load("TOURS")
	if err != nil {
		return nil, err
	}

	db := config.LoadDatabaseConfig(v, "DB_NAME")
	return &ServiceConfig{
		Port:   config.GetServicePort(v, "SERVICE_PORT"),
		AppEnv: config.GetAppEnv(v),
		DBConfig: database.PostgresConfig{
			Host:     db.Host,
			Port:     db.Port,
			User:     db.User,
			Password: db.Password,
			DBName:   db.DBName,
			SSLMode:  db.SSLMode,
		},
		JWTConfig:       config.LoadJWTConfig(v),
		KafkaConfig:     config.LoadKafkaConfig(v),
		AdmissionConfig: config.LoadAdmissionConfig(v),
		StaffConfig:     config.LoadStaffConfig(v),
	}, nil
}
