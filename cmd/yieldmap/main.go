package main

import (
	"os"

	"github.com/wonny/yieldmap/cmd/yieldmap/commands"
)

// main is the entry point for the yieldmap CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/yieldmap [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
