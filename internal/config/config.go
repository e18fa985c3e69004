package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Database struct {
		URL string
	}
	Server struct {
		Port        int
		CORSOrigins string // comma-separated; empty means allow all
	}
	Retention struct {
		ReadingDays int
	}
}

// LoadConfig reads config.yaml and the environment. Environment
// variables (optionally from a .env file) override file values.
func LoadConfig() *Config {
	_ = godotenv.Load()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	viper.SetDefault("database.url", "data/aquahealth.db")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.corsorigins", "")
	viper.SetDefault("retention.readingdays", 14)

	_ = viper.BindEnv("database.url", "DATABASE_URL")
	_ = viper.BindEnv("server.port", "PORT")
	_ = viper.BindEnv("server.corsorigins", "CORS_ORIGINS")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Printf("Error reading config file: %v\n", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		fmt.Printf("Error unmarshaling config: %v\n", err)
	}

	return &config
}
