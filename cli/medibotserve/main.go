package main

import (
	"fmt"
	"os"

	_ "github.com/joho/godotenv/autoload"

	servecmder "github.com/papercomputeco/medibot/cmd/medibot/serve"
)

func main() {
	cmd := servecmder.NewServeCmd()

	cmd.Use = "medibotserve"
	cmd.SilenceUsage = true
	cmd.PersistentFlags().BoolP("debug", "D", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override path to .medibot/ config directory")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
