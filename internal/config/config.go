package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

var DefaultEnvConfig *envConfig

type envConfig struct {
	// server config
	APP_PORT int
	// parser config
	WORK_DIR   string
	OUTPUT_DIR string
	SCAN_ROWS  int
	// logger config
	LOG_FILE_PATH string
}

// LoadEnvConfig populates DefaultEnvConfig from the environment. A missing
// .env file is fine; explicit environment variables always apply.
func LoadEnvConfig() error {
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		return err
	}

	DefaultEnvConfig = &envConfig{
		APP_PORT:      getEnvInt("APP_PORT", 8080),
		WORK_DIR:      getEnvString("WORK_DIR", "."),
		OUTPUT_DIR:    getEnvString("OUTPUT_DIR", ""),
		SCAN_ROWS:     getEnvInt("SCAN_ROWS", 0),
		LOG_FILE_PATH: getEnvString("LOG_FILE_PATH", ""),
	}
	return nil
}

func getEnvString(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}
