package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/spigell/coldmail/cmd"
)

func main() {
	// A missing .env file is fine, keys may come from the environment or key files.
	_ = godotenv.Load()

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
