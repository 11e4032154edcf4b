package config

import (
	"os"

	"github.com/joho/godotenv"
)

// LoadDotenv loads credentials from a .env file before config is read.
// NO_DOTENV=1 disables it, ENV_FILE picks the file and DOTENV_OVERLOAD=1 lets
// the file override variables already set in the environment. A missing file
// is not an error.
func LoadDotenv() {
	if os.Getenv("NO_DOTENV") == "1" {
		return
	}
	path := ".env"
	if v := os.Getenv("ENV_FILE"); v != "" {
		path = v
	}
	if os.Getenv("DOTENV_OVERLOAD") == "1" {
		_ = godotenv.Overload(path)
		return
	}
	_ = godotenv.Load(path)
}
