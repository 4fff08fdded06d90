package main

import (
	"os"

	"github.com/Brownie44l1/plant-disease-api/internal/cli"
)

func main() {
	if err := cli.RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
