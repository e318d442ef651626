// Command sercha-voice answers spoken or typed questions about a
// directory of procedure documents.
package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/sercha-voice/internal/adapters/driving/cli"
	"github.com/custodia-labs/sercha-voice/internal/runtime"
)

var version = "dev"

func main() {
	// A missing .env is not an error; values may come from the environment.
	_ = godotenv.Load()

	cli.SetVersion(version)
	cli.SetServiceFactory(func(configPath string) (cli.Services, error) {
		return runtime.New(configPath)
	})

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
