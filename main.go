package main

import (
	"os"

	"github.com/dslh/cadscript-mcp/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
