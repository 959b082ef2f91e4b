package utils

import (
	"os"
	"strconv"

	"github.com/clarkli86/descartes/logging"
)

// GetenvInt returns the value of the environment variable `key` parsed as an int, or `def` when
// it is unset or malformed.
func GetenvInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		logging.Global().Warnw("invalid integer environment variable, using default", "key", key, "value", s, "default", def)
		return def
	}
	return v
}

// GetenvFloat returns the value of the environment variable `key` parsed as a float64, or `def`
// when it is unset or malformed.
func GetenvFloat(key string, def float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		logging.Global().Warnw("invalid float environment variable, using default", "key", key, "value", s, "default", def)
		return def
	}
	return v
}
