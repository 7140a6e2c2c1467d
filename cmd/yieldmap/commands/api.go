package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/yieldmap/internal/api"
	"github.com/wonny/yieldmap/internal/api/handlers"
	"github.com/wonny/yieldmap/internal/data/repos"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the read-only API server",
	Long: `Serve the output tables over HTTP.

Endpoints:
  GET /health               - health check (pings the database)
  GET /metrics              - Prometheus metrics
  GET /api/scores           - ZIP scores (zip, state, bedroom, year, latest, sufficient)
  GET /api/scores/rollups   - city/county/state rollups (level, geo_key, state, bedroom, year, latest)
  GET /api/yield-movers     - yield movers (level, state, bedroom, year, sort, order)

Example:
  go run ./cmd/yieldmap api
  go run ./cmd/yieldmap api --port 8080`,
	RunE: runAPIServer,
}

var apiPort string

func init() {
	rootCmd.AddCommand(apiCmd)
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API port (default: PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if apiPort != "" {
		a.cfg.Port = apiPort
	}

	router := api.NewRouter(
		handlers.NewScoreHandler(repos.NewScoreRepository(nil, a.db.Pool), a.log),
		handlers.NewYieldMoverHandler(repos.NewYieldMoverRepository(nil, a.db.Pool), a.log),
		a.db,
		a.metrics.Handler(),
		a.log,
	)

	PrintInfo(fmt.Sprintf("API listening on :%s", a.cfg.Port))
	return api.New(a.cfg, a.log, router).Run(cmd.Context())
}
