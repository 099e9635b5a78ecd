package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/wczubal1/GreenAgentWitty/internal/cache"
	"github.com/wczubal1/GreenAgentWitty/internal/config"
	"github.com/wczubal1/GreenAgentWitty/internal/httpapi"
	"github.com/wczubal1/GreenAgentWitty/internal/metrics"
	"github.com/wczubal1/GreenAgentWitty/internal/persistence/postgres"
	"github.com/wczubal1/GreenAgentWitty/internal/runner"
	"github.com/wczubal1/GreenAgentWitty/internal/transport"
)

// assessCmd runs a full grading pass against the candidate agent
var assessCmd = &cobra.Command{
	Use:   "assess",
	Short: "Run an assessment against the candidate agent",
	Long: `Run an assessment: build cases (from a YAML cases file or by sampling
symbols from a CSV universe), send each case to the candidate agent,
grade the answers, and write verdict artifacts.

Examples:
  greenagent assess --purple-url http://127.0.0.1:9010
  greenagent assess --cases config/cases.yaml --output out/assess
  greenagent assess --symbols AAPL,MSFT,GOOG --settlement-date 2025-06-13
  greenagent assess --symbols-csv data/symbols.csv --sample-size 10 --random-seed 42`,
	RunE: runAssess,
}

var (
	assessConfigFile     string
	assessPurpleURL      string
	assessCasesFile      string
	assessSymbols        []string
	assessSymbolsCSV     string
	assessSampleSize     int
	assessSettlementDate string
	assessTargetMonth    int
	assessRandomSeed     int64
	assessMinAttempts    int
	assessWorkers        int
	assessTimeout        time.Duration
	assessOutputDir      string
	assessServe          bool
	assessProgress       = progressMode("auto")
)

// progressMode is the --progress flag value: auto, plain or json.
type progressMode string

var _ pflag.Value = (*progressMode)(nil)

func (p *progressMode) String() string { return string(*p) }
func (p *progressMode) Type() string   { return "mode" }

func (p *progressMode) Set(value string) error {
	switch value {
	case "auto", "plain", "json":
		*p = progressMode(value)
		return nil
	default:
		return fmt.Errorf("must be one of auto, plain, json")
	}
}

func init() {
	rootCmd.AddCommand(assessCmd)

	assessCmd.Flags().StringVar(&assessConfigFile, "config", "", "Path to YAML configuration file")
	assessCmd.Flags().StringVar(&assessPurpleURL, "purple-url", "", "Candidate agent base URL")
	assessCmd.Flags().StringVar(&assessCasesFile, "cases", "", "YAML cases file (overrides symbol sampling)")
	assessCmd.Flags().StringSliceVar(&assessSymbols, "symbols", nil, "Explicit symbol list (comma-separated)")
	assessCmd.Flags().StringVar(&assessSymbolsCSV, "symbols-csv", "", "CSV universe to sample symbols from")
	assessCmd.Flags().IntVar(&assessSampleSize, "sample-size", 0, "Number of symbols to sample from the universe")
	assessCmd.Flags().StringVar(&assessSettlementDate, "settlement-date", "", "Requested settlement date (YYYY-MM-DD or MM/DD/YYYY)")
	assessCmd.Flags().IntVar(&assessTargetMonth, "target-month", 0, "Month (1-12) to pick a random settlement date in")
	assessCmd.Flags().Int64Var(&assessRandomSeed, "random-seed", 0, "Seed for date and symbol sampling (0 = random)")
	assessCmd.Flags().IntVar(&assessMinAttempts, "min-attempts", 0, "Minimum data-fetch attempts required per case")
	assessCmd.Flags().IntVar(&assessWorkers, "workers", 0, "Concurrent case workers")
	assessCmd.Flags().DurationVar(&assessTimeout, "timeout", 0, "Per-question candidate timeout")
	assessCmd.Flags().StringVar(&assessOutputDir, "output", "", "Output directory for verdict artifacts")
	assessCmd.Flags().BoolVar(&assessServe, "serve", false, "Keep the health/metrics HTTP server running after the assessment")
	assessCmd.Flags().Var(&assessProgress, "progress", "Progress output mode (auto|plain|json)")
}

func runAssess(cmd *cobra.Command, args []string) error {
	cfg, err := loadAssessConfig()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	clientConfig := transport.DefaultConfig(cfg.Purple.URL)
	if cfg.Purple.TimeoutSeconds > 0 {
		clientConfig.AskTimeout = time.Duration(cfg.Purple.TimeoutSeconds) * time.Second
	}
	if cfg.Purple.RequestsPerSec > 0 {
		clientConfig.RequestsPerSec = cfg.Purple.RequestsPerSec
	}
	if cfg.Purple.Burst > 0 {
		clientConfig.Burst = cfg.Purple.Burst
	}
	client := transport.NewClient(clientConfig)

	reg := metrics.NewRegistry()

	opts := []runner.Option{}
	if cfg.Cache.Addr != "" {
		opts = append(opts, runner.WithAnswerCache(cache.NewRedisCache(cfg.Cache.Addr, cfg.Cache.CacheTTL())))
		log.Info().Str("addr", cfg.Cache.Addr).Msg("Answer cache enabled")
	}
	if cfg.Database.DSN != "" {
		db, err := postgres.Connect(cfg.Database.DSN)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()
		opts = append(opts, runner.WithPersistence(
			postgres.NewRunsRepo(db, cfg.Database.Timeout()),
			postgres.NewOutcomesRepo(db, cfg.Database.Timeout()),
		))
		log.Info().Msg("Run persistence enabled")
	}

	serverConfig := httpapi.DefaultConfig()
	serverConfig.Host = cfg.HTTP.Host
	serverConfig.Port = cfg.HTTP.Port
	server := httpapi.NewServer(serverConfig, reg, client.BreakerState)
	go func() {
		if err := server.Start(); err != nil {
			log.Warn().Err(err).Msg("HTTP server stopped")
		}
	}()
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		server.Shutdown(shutdownCtx)
	}()

	r := runner.New(cfg, client, reg, opts...)

	result, err := r.Run(ctx)
	if err != nil {
		return fmt.Errorf("assessment failed: %w", err)
	}
	server.SetLatest(result)

	if cfg.Artifacts.OutputDir != "" {
		if err := runner.WriteArtifacts(cfg.Artifacts.OutputDir, result); err != nil {
			return err
		}
		log.Info().Str("dir", cfg.Artifacts.OutputDir).Msg("Artifacts written")
	}

	printSummary(result)

	if assessServe {
		log.Info().Str("host", cfg.HTTP.Host).Int("port", cfg.HTTP.Port).Msg("Serving results; Ctrl-C to exit")
		<-ctx.Done()
	}

	if !result.Summary.OverallPass {
		os.Exit(1)
	}
	return nil
}

// loadAssessConfig layers command-line flags over file config over defaults.
func loadAssessConfig() (config.Config, error) {
	cfg := config.Default()
	if assessConfigFile != "" {
		loaded, err := config.Load(assessConfigFile)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}

	if assessPurpleURL != "" {
		cfg.Purple.URL = assessPurpleURL
	}
	if assessTimeout > 0 {
		cfg.Purple.TimeoutSeconds = int(assessTimeout / time.Second)
	}
	if assessCasesFile != "" {
		cfg.Assessment.CasesFile = assessCasesFile
	}
	if len(assessSymbols) > 0 {
		cfg.Assessment.Symbols = assessSymbols
		cfg.Assessment.SymbolsCSV = ""
	}
	if assessSymbolsCSV != "" {
		cfg.Assessment.SymbolsCSV = assessSymbolsCSV
		cfg.Assessment.Symbols = nil
	}
	if assessSampleSize > 0 {
		cfg.Assessment.SampleSize = assessSampleSize
	}
	if assessSettlementDate != "" {
		cfg.Assessment.SettlementDate = assessSettlementDate
		cfg.Assessment.TargetMonth = 0
	}
	if assessTargetMonth > 0 {
		cfg.Assessment.TargetMonth = assessTargetMonth
		cfg.Assessment.SettlementDate = ""
	}
	if assessRandomSeed != 0 {
		seed := assessRandomSeed
		cfg.Assessment.RandomSeed = &seed
	}
	if assessMinAttempts > 0 {
		cfg.Assessment.MinAttempts = assessMinAttempts
	}
	if assessWorkers > 0 {
		cfg.Assessment.Workers = assessWorkers
	}
	if assessOutputDir != "" {
		cfg.Artifacts.OutputDir = assessOutputDir
	}

	if err := cfg.ApplyEnv(); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// printSummary writes the human-facing verdict. On a TTY (and in auto
// mode) it prints a per-case table; otherwise a single line per mode.
func printSummary(result *runner.RunResult) {
	mode := string(assessProgress)
	if mode == "auto" {
		if term.IsTerminal(int(os.Stdout.Fd())) {
			mode = "plain"
		} else {
			mode = "json"
		}
	}

	switch mode {
	case "json":
		fmt.Printf(`{"run_id":%q,"passed":%d,"total":%d,"overall_pass":%t}`+"\n",
			result.RunID, result.Summary.Passed, result.Summary.Total, result.Summary.OverallPass)
	default:
		fmt.Printf("\nRun %s\n", result.RunID)
		for _, c := range result.Cases {
			status := "PASS"
			if !c.Passed {
				status = "FAIL"
			}
			fmt.Printf("  %-12s %-28s %s\n", c.CaseID, c.Dataset, status)
			for _, reason := range c.FailureReasons {
				fmt.Printf("    - %s\n", reason)
			}
		}
		verdict := "PASS"
		if !result.Summary.OverallPass {
			verdict = "FAIL"
		}
		fmt.Printf("\nOverall: %s (%d/%d)\n", verdict, result.Summary.Passed, result.Summary.Total)
	}
}
