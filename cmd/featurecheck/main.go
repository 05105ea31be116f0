package main

import (
	"os"

	"github.com/ariel-frischer/featurecheck/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
