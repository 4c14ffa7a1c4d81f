package env

import "os"

// Get reads an environment variable, falling back when unset or empty.
// Exists for the few reads that happen before config.Load (log format).
func Get(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
