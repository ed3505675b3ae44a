package main

import (
	"os"

	"passport-portal/cmd/portal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
