package app

import (
	"github.com/looplearn/looplearn-backend/internal/logger"
	"github.com/looplearn/looplearn-backend/internal/utils"
)

type Config struct {
	Port        string
	MetricsAddr string
	RedisAddr   string
	Environment string
	Version     string
}

func LoadConfig(log *logger.Logger) Config {
	return Config{
		Port:        utils.GetEnv("PORT", "8080", log),
		MetricsAddr: utils.GetEnv("METRICS_ADDR", ":9090", log),
		RedisAddr:   utils.GetEnv("REDIS_ADDR", "", log),
		Environment: utils.GetEnv("APP_ENV", "development", log),
		Version:     utils.GetEnv("APP_VERSION", "dev", log),
	}
}
