package main

import (
	"os"

	"github.com/gateswong/wowplaybook/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
