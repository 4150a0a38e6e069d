// Package main is the entry point for the testbridge CLI.
package main

import (
	"os"

	"github.com/AndreyAkinshin/testbridge/internal/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:]))
}
