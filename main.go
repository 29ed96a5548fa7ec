package main

import (
	"os"

	"github.com/kalike-app/kalike/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
