package main

import (
	"os"

	"github.com/VitaminC1989/SpecMaster/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
