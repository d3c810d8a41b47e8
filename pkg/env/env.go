// Package env reads process configuration from the environment, optionally
// seeded from a .env file.
package env

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Load seeds the environment from a .env file in the working directory.
// A missing file is fine; real environment variables always win.
func Load() {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found")
	}
}

// RequiredStringVariable returns the value of an environment variable or
// panics if it is not set.
func RequiredStringVariable(name string) string {
	value := os.Getenv(name)
	if value == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", name))
	}
	return value
}

// StringVariable returns the value of an environment variable or a default
// value when unset.
func StringVariable(name, defaultValue string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return defaultValue
}
