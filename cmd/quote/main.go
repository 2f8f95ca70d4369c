package main

import (
	"os"

	"github.com/wonny/georepute/backend/cmd/quote/commands"
)

// main is the entry point for the Quote Builder CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/quote [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
