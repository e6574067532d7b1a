package utils

import (
	"os"
	"strconv"
	"strings"

	"github.com/lessonloop/scenario-backend/internal/logger"
)

func GetEnv(name, def string, log *logger.Logger) string {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		if log != nil {
			log.Debug("env var unset, using default", "name", name, "default", def)
		}
		return def
	}
	return v
}

func GetEnvAsInt(name string, def int, log *logger.Logger) int {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		if log != nil {
			log.Warn("env var not an int, using default", "name", name, "value", v, "default", def)
		}
		return def
	}
	return i
}
