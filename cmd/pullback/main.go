package main

import (
	"os"

	"github.com/wonny/pullback/cmd/pullback/commands"
)

// main is the entry point for the pullback CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/pullback [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
