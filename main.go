package main

import (
	"os"

	"jobmatch-features/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
