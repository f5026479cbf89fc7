package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"rplog/internal/harness"
	"rplog/internal/report"
	"rplog/internal/service"
)

const (
	version = "v1.0.0"

	defaultConfigPath = "config.yml"
	defaultLogPath    = "logs/rplog.log"
)

var (
	configPath string
	logPath    string
)

var rootCmd = &cobra.Command{
	Use:   "rplog",
	Short: "rplog - reporting backend logging examples",
	Long: `rplog runs a suite of logging examples against a reporting backend.
Every example is reported as a test item of one launch: file attachments,
log levels, logging under a timeout and logging from a poller.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var runCmd = &cobra.Command{
	Use:     "run",
	Short:   "Run the logging examples as one launch",
	Example: "  rplog run -c /path/to/config.yml -l /path/to/rplog.log",
	RunE:    runExamples,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("rplog %s\n", version)
		fmt.Println("Logging examples for a reporting backend")
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfigPath, "Config file path")
	rootCmd.PersistentFlags().StringVarP(&logPath, "log", "l", defaultLogPath, "Log file path")

	rootCmd.AddCommand(runCmd, versionCmd)
}

func runExamples(cmd *cobra.Command, args []string) error {
	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return fmt.Errorf("config file does not exist: %s", configPath)
	}

	// Ensure log directory exists
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	svc, err := service.New(configPath, logPath)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}
	defer svc.Close()

	// Setup signal handling
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	results, err := svc.Run(ctx)
	if err != nil {
		return err
	}

	for _, r := range results {
		if r.Passed() {
			fmt.Printf("  ✅ %-20s %s\n", r.Name, r.Duration)
		} else {
			fmt.Printf("  ❌ %-20s %s: %v\n", r.Name, r.Status, r.Err)
		}
	}

	if ctx.Err() != nil {
		return fmt.Errorf("interrupted, %d of %d cases skipped",
			harness.Count(results, report.StatusSkipped), len(results))
	}
	if failed := harness.Failed(results); failed > 0 {
		return fmt.Errorf("%d of %d cases failed", failed, len(results))
	}
	return nil
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
