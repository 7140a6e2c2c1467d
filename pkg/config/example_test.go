package config_test

import (
	"fmt"

	"github.com/wonny/yieldmap/pkg/config"
)

// Example demonstrates how to use the config package
func Example() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		return
	}

	fmt.Printf("Environment: %s\n", cfg.Env)
	fmt.Printf("DB Max Connections: %d\n", cfg.Database.MaxConns)
	fmt.Printf("Score schedule: %s\n", cfg.ScoreSchedule)
	fmt.Printf("Vintage cache TTL: %v\n", cfg.VintageCacheTTL)
}
