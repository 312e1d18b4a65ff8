package config

import (
	"strconv"

	"github.com/joho/godotenv"
)

// BeaconConfig configures the command line beacon.
type BeaconConfig struct {
	AppEnv   string
	LogLevel string

	// Storage is "file" or "redis".
	Storage       string
	StorePath     string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string

	ExpectedHost string
	Page         string
}

func LoadBeacon() *BeaconConfig {
	_ = godotenv.Load()

	db, _ := strconv.Atoi(getEnv("BEACON_REDIS_DB", "0"))
	return &BeaconConfig{
		AppEnv:        getEnv("APP_ENV", "local"),
		LogLevel:      getEnv("LOG_LEVEL", "warn"),
		Storage:       getEnv("BEACON_STORAGE", "file"),
		StorePath:     getEnv("BEACON_STORE_PATH", ""),
		RedisAddr:     getEnv("BEACON_REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("BEACON_REDIS_PASSWORD", ""),
		RedisDB:       db,
		RedisPrefix:   getEnv("BEACON_REDIS_PREFIX", "beacon"),
		ExpectedHost:  getEnv("BEACON_EXPECTED_HOST", ""),
		Page:          getEnv("BEACON_PAGE", "/"),
	}
}
