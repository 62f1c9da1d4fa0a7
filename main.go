package main

import (
	"os"

	"github.com/temirov/ingit/cmd/cli"
)

// main executes the ingit command-line application.
func main() {
	os.Exit(cli.Run(os.Args, os.Stdin, os.Stdout, os.Stderr))
}
