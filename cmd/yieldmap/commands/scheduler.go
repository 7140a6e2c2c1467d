package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wonny/yieldmap/internal/s0_data"
	"github.com/wonny/yieldmap/internal/scheduler"
	"github.com/wonny/yieldmap/internal/scheduler/jobs"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Scheduled batch management",
	Long: `Start the scheduler or manage its jobs.

Subcommands:
  start   - run the scheduler until Ctrl+C
  list    - registered jobs
  run     - run one job now

Registered jobs:
- score_pipeline: SCORE_SCHEDULE (default daily 03:00 UTC)
- vintage_check:  every 6 hours

Example:
  go run ./cmd/yieldmap scheduler start
  go run ./cmd/yieldmap scheduler run score_pipeline`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "Start the scheduler",
		RunE:  runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "List registered jobs",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "Run one job now",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd, schedulerListCmd, schedulerRunCmd)
}

func newScheduler(a *app) (*scheduler.Scheduler, error) {
	s := scheduler.New(a.log)

	if err := s.AddJob(jobs.NewScorePipelineJob(a.orchestrator(), a.cfg.ScoreSchedule, a.log)); err != nil {
		return nil, err
	}

	resolver := a.resolver(s0_data.NewRepository(a.db.Pool))
	if err := s.AddJob(jobs.NewVintageCheckJob(resolver, a.scoring.Geography.Bedrooms(), a.log)); err != nil {
		return nil, err
	}

	return s, nil
}

func runScheduler(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	s, err := newScheduler(a)
	if err != nil {
		return err
	}

	s.Start()
	PrintSuccess("Scheduler started (Ctrl+C to stop)")

	<-cmd.Context().Done()
	s.Stop()
	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	s, err := newScheduler(a)
	if err != nil {
		return err
	}

	stats := s.GetJobStats()
	widths := []int{16, 16}
	PrintTableHeader([]string{"Job", "Schedule"}, widths)
	for _, name := range s.GetAllJobs() {
		PrintTableRow([]string{name, stats[name].Schedule}, widths)
	}
	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	s, err := newScheduler(a)
	if err != nil {
		return err
	}

	result, err := s.RunJob(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(result)

	if !result.Success {
		return fmt.Errorf("job %s failed: %s", result.JobName, result.Error)
	}
	return nil
}
