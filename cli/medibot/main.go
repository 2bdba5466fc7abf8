package main

import (
	"fmt"
	"os"

	medibotcmder "github.com/papercomputeco/medibot/cmd/medibot"
)

func main() {
	cmd := medibotcmder.NewMedibotCmd()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
