package main

import (
	"os"

	"github.com/custodia-labs/outcal/internal/adapters/driving/cli"
)

var version = "dev"

func main() {
	cli.SetVersion(version)
	os.Exit(cli.Execute())
}
