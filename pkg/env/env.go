package env

import (
	"os"
	"strconv"
	"strings"
)

// Prefix namespaces the variables this backend reads.
const Prefix = "PPEKEEPER_"

func lookup(key string) (string, bool) {
	for _, name := range []string{Prefix + key, key} {
		if val, ok := os.LookupEnv(name); ok && strings.TrimSpace(val) != "" {
			return strings.TrimSpace(val), true
		}
	}
	return "", false
}

// Get returns PPEKEEPER_<key>, then <key>, then fallback.
func Get(key, fallback string) string {
	if val, ok := lookup(key); ok {
		return val
	}
	return fallback
}

// Bool is Get for flags. Unparseable values yield fallback.
func Bool(key string, fallback bool) bool {
	val, ok := lookup(key)
	if !ok {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
