package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// LoadEnv searches for a .env file starting from the current directory
// and walking up the directory tree. It loads the first .env file found
// and returns its path, or "" when there is none.
//
// Variables already present in the environment are not overridden.
func LoadEnv() string {
	dir, err := os.Getwd()
	if err != nil {
		// Silently continue - will use system env vars
		return ""
	}
	return loadEnvFrom(dir)
}

func loadEnvFrom(dir string) string {
	// Walk up directory tree looking for .env
	for {
		envPath := filepath.Join(dir, ".env")
		if info, err := os.Stat(envPath); err == nil && !info.IsDir() {
			if err := godotenv.Load(envPath); err != nil {
				return ""
			}
			return envPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root, stop
			return ""
		}
		dir = parent
	}
}
