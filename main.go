package main

import (
	"os"

	"github.com/resonman/ai-102-prep/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
