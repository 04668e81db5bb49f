package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/lolahq/lola/internal/cli"
)

func main() {
	// Optional local overrides; absence is not an error.
	_ = godotenv.Load()

	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
