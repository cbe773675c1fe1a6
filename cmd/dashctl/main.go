package main

import (
	"os"

	"github.com/fillipgms/admin-playfiver-sub001/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
