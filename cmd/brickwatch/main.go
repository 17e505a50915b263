// cmd/brickwatch/main.go - CLI entry point for the catalog price monitor
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/bkaplan/brickwatch/internal/analysis"
	"github.com/bkaplan/brickwatch/internal/config"
	"github.com/bkaplan/brickwatch/internal/fetch"
	"github.com/bkaplan/brickwatch/internal/history"
	"github.com/bkaplan/brickwatch/internal/monitor"
	"github.com/bkaplan/brickwatch/internal/monitoring"
	"github.com/bkaplan/brickwatch/internal/output"
	"github.com/bkaplan/brickwatch/internal/server"
	"github.com/bkaplan/brickwatch/internal/utils"
)

// Version information (set by build flags)
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

// runOnce executes a single monitoring pass over every category.
func runOnce(configFile string) {
	cfg, logger, err := loadConfig(configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	runner, store, err := buildRunner(ctx, cfg, logger, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	if err := runner.RunAll(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	for _, name := range runner.Categories() {
		if report, ok := runner.LatestReport(name); ok {
			fmt.Println(output.ConsoleSummary(report))
		}
	}
}

// runWatch runs the scheduler and optional status server until
// interrupted.
func runWatch(configFile string) {
	cfg, logger, err := loadConfig(configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	metrics := monitoring.New()
	runner, store, err := buildRunner(ctx, cfg, logger, metrics)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	scheduler := monitor.NewScheduler(runner, cfg.ScrapeIntervalHours, logger)
	if err := scheduler.Start(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var statusServer *server.Server
	if cfg.Server.Enabled {
		statusServer = server.New(cfg.Server.Address, runner, metrics.Handler(), logger)
		go func() {
			if err := statusServer.Start(); err != nil {
				logger.WithField("error", err.Error()).Error("status server failed")
				cancel()
			}
		}()
	}

	<-ctx.Done()
	logger.Info("shutting down")
	scheduler.Stop()
	if statusServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		statusServer.Shutdown(shutdownCtx)
	}
}

// validateConfig checks the configuration file and prints the result.
func validateConfig(configFile string) {
	cfg, err := config.LoadFromFile(configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✓ Configuration file '%s' is valid\n", configFile)
}

// generateTemplate renders a starter configuration as YAML.
func generateTemplate(args []string) (string, error) {
	templateType := "basic"
	if len(args) > 0 && args[0] == "--type" && len(args) > 1 {
		templateType = args[1]
	}

	template := config.GenerateTemplate(templateType)
	yamlData, err := yaml.Marshal(template)
	if err != nil {
		return "", fmt.Errorf("failed to marshal template to YAML: %w", err)
	}
	return string(yamlData), nil
}

// diffFiles compares two snapshot JSON files directly, without
// touching the network or history store.
func diffFiles(currentPath, historicalPath string, thresholdPct float64) {
	currentDoc, err := os.ReadFile(currentPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	historicalDoc, err := os.ReadFile(historicalPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	report, err := analysis.DiffJSON(currentDoc, historicalDoc, thresholdPct)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Print(output.ConsoleSummary(report))
}

func loadConfig(configFile string) (*config.Config, utils.Logger, error) {
	cfg, err := config.LoadFromFile(configFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	level := utils.ParseLevel(cfg.LogLevel)
	if hasFlag("-v") || hasFlag("--verbose") {
		level = utils.DebugLevel
	}
	logger := utils.NewLoggerWithLevel(level)
	return cfg, logger, nil
}

func buildRunner(ctx context.Context, cfg *config.Config, logger utils.Logger, metrics *monitoring.Metrics) (*monitor.Runner, history.Store, error) {
	store, err := history.Open(ctx, cfg.History)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open history store: %w", err)
	}

	outputs, err := output.NewManager(cfg.Output, logger)
	if err != nil {
		store.Close()
		return nil, nil, err
	}

	fetcher := fetch.New(cfg.Fetch, logger)
	return monitor.NewRunner(cfg, fetcher, store, outputs, metrics, logger), store, nil
}

// hasFlag checks if a flag is present in command line arguments
func hasFlag(flag string) bool {
	for _, arg := range os.Args {
		if arg == flag {
			return true
		}
	}
	return false
}

// main function handles CLI arguments and routes to appropriate functions
func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "run":
		if len(os.Args) < 3 {
			fmt.Fprintf(os.Stderr, "Error: config file required\n")
			fmt.Fprintf(os.Stderr, "Usage: brickwatch run <config.yaml>\n")
			os.Exit(1)
		}
		runOnce(os.Args[2])

	case "watch":
		if len(os.Args) < 3 {
			fmt.Fprintf(os.Stderr, "Error: config file required\n")
			fmt.Fprintf(os.Stderr, "Usage: brickwatch watch <config.yaml>\n")
			os.Exit(1)
		}
		runWatch(os.Args[2])

	case "validate":
		if len(os.Args) < 3 {
			fmt.Fprintf(os.Stderr, "Error: config file required\n")
			fmt.Fprintf(os.Stderr, "Usage: brickwatch validate <config.yaml>\n")
			os.Exit(1)
		}
		validateConfig(os.Args[2])

	case "template":
		template, err := generateTemplate(os.Args[2:])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Print(template)

	case "diff":
		if len(os.Args) < 4 {
			fmt.Fprintf(os.Stderr, "Error: two snapshot files required\n")
			fmt.Fprintf(os.Stderr, "Usage: brickwatch diff <current.json> <historical.json> [threshold]\n")
			os.Exit(1)
		}
		threshold := 0.0
		if len(os.Args) > 4 {
			if _, err := fmt.Sscanf(os.Args[4], "%f", &threshold); err != nil {
				fmt.Fprintf(os.Stderr, "Error: invalid threshold '%s'\n", os.Args[4])
				os.Exit(1)
			}
		}
		diffFiles(os.Args[2], os.Args[3], threshold)

	case "version", "--version":
		printVersion()

	case "help", "--help", "-h":
		printUsage()

	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command '%s'\n", command)
		printUsage()
		os.Exit(1)
	}
}

// printUsage displays help information
func printUsage() {
	fmt.Println("BrickWatch - Product Catalog Price Monitor")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  brickwatch run <config.yaml>                      Run one monitoring pass")
	fmt.Println("  brickwatch watch <config.yaml>                    Run on a schedule with status server")
	fmt.Println("  brickwatch validate <config.yaml>                 Validate configuration file")
	fmt.Println("  brickwatch template [--type <type>]               Generate configuration template")
	fmt.Println("  brickwatch diff <current> <historical> [pct]      Diff two snapshot JSON files")
	fmt.Println("  brickwatch version                                Show version information")
	fmt.Println("  brickwatch help                                   Show this help message")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  -v, --verbose                                     Enable verbose output")
	fmt.Println()
	fmt.Println("Template types:")
	fmt.Println("  basic   Single category template (default)")
	fmt.Println("  multi   Multi category template")
}

// printVersion displays version information
func printVersion() {
	fmt.Printf("BrickWatch %s\n", version)
	fmt.Printf("Build time: %s\n", buildTime)
	fmt.Printf("Git commit: %s\n", gitCommit)
}
