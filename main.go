package main

import (
	"os"

	"github.com/matt-g-everett/ledtimeline/cli"
)

func main() {
	os.Exit(cli.Execute())
}
