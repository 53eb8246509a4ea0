// Package env reads process environment variables with fallbacks for
// values needed before config parsing runs.
package env

import "os"

// Get returns the value of key, or fallback when unset or empty.
func Get(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
