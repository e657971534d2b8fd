// Package main provides the analyst-service command line tool.
// Uses Cobra for command parsing.
//
// Run with: go run ./cmd/cli analyze 宁德时代
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nexusdash/analyst-service/internal/config"
	"github.com/nexusdash/analyst-service/internal/model"
	"github.com/nexusdash/analyst-service/internal/progress"
	"github.com/nexusdash/analyst-service/internal/search"
	"github.com/nexusdash/analyst-service/internal/service"
	"github.com/nexusdash/analyst-service/internal/storage"
	"github.com/nexusdash/analyst-service/internal/validation"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "analyst-cli",
		Short: "Financial analysis report CLI",
	}

	root.AddCommand(analyzeCmd())
	root.AddCommand(providersCmd())
	return root
}

func analyzeCmd() *cobra.Command {
	var (
		provider string
		apiKey   string
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "analyze <company or ticker>",
		Short: "Generate a financial analysis report",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(strings.Join(args, " "), provider, apiKey, asJSON)
		},
	}

	cmd.Flags().StringVar(&provider, "provider", "", "Provider to use (default from config)")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "Provider API key override")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw report JSON")
	return cmd
}

func providersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List supported providers",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, p := range model.AllProviders {
				fmt.Println(p)
			}
			return nil
		},
	}
}

func runAnalyze(query, provider, apiKey string, asJSON bool) error {
	if provider != "" && !model.ValidProvider(provider) {
		return fmt.Errorf("unknown provider: %s", provider)
	}

	configPath := os.Getenv("ANALYST_CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// CLI logs go to stderr so stdout stays clean for the report.
	logger, err := zap.NewDevelopment()
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	// The call ledger is optional for one-off CLI runs: skip it when the
	// database cannot be opened rather than failing the analysis.
	var calls storage.AnalysisCallRepository
	if err := os.MkdirAll(filepath.Dir(cfg.Storage.DatabasePath), 0755); err == nil {
		if db, dbErr := storage.NewDatabase(cfg.Storage.DatabasePath); dbErr == nil {
			defer db.Close()
			calls = storage.NewAnalysisCallRepository(db)
		} else {
			logger.Warn("database unavailable, skipping call recording", zap.Error(dbErr))
		}
	}

	var searchOpts []search.Option
	if cfg.Search.BaseURL != "" {
		searchOpts = append(searchOpts, search.WithBaseURL(cfg.Search.BaseURL))
	}
	if cfg.Search.Simulate {
		searchOpts = append(searchOpts, search.WithSimulation())
	}
	searchSvc := search.NewService(cfg.Search.APIKey, cfg.Search.SecretKey, logger, searchOpts...)

	validator := validation.NewEngine(validation.StaticReference{}, logger)
	analysisSvc := service.NewAnalysisService(cfg, searchSvc, validator, calls, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	// The progress animation plays on stderr while the pipeline runs.
	runner := progress.NewRunner(printSteps)
	runner.Start()

	outcome := analysisSvc.Analyze(ctx, model.AnalysisRequest{
		Query:    query,
		APIKey:   apiKey,
		Provider: model.ProviderID(provider),
	})

	if outcome.Report.QuotaExceeded {
		runner.Fail(outcome.Report.ErrorMessage)
	} else {
		runner.Finish()
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(outcome.Report)
	}

	printReport(outcome)
	return nil
}

// printSteps renders the current progress state as one line per agent.
func printSteps(steps []progress.Step) {
	marks := map[progress.Status]string{
		progress.StatusPending:  " ",
		progress.StatusActive:   ">",
		progress.StatusComplete: "✓",
		progress.StatusFailed:   "✗",
	}
	for _, s := range steps {
		fmt.Fprintf(os.Stderr, "[%s] %-12s %s\n", marks[s.Status], s.AgentName, s.Label)
	}
	fmt.Fprintln(os.Stderr)
}

func printReport(outcome *service.Outcome) {
	rpt := outcome.Report

	fmt.Println()
	fmt.Printf("%s（%s）\n", rpt.Title, rpt.Ticker)
	fmt.Printf("评级：%s（%d/100）\n", rpt.Rating, rpt.RatingScore)
	if rpt.ConfidenceScore != nil {
		fmt.Printf("数据可信度：%d/100\n", *rpt.ConfidenceScore)
	}
	if rpt.IsMock {
		fmt.Println("（演示数据）")
	}
	if rpt.ErrorMessage != "" {
		fmt.Printf("提示：%s\n", rpt.ErrorMessage)
	}

	fmt.Println()
	fmt.Println(rpt.Summary)

	for _, section := range rpt.Sections {
		fmt.Println()
		fmt.Println("## " + section.Heading)
		fmt.Println(section.Content)
	}

	if len(rpt.KeyMetrics) > 0 {
		fmt.Println()
		fmt.Println("## 关键指标")
		for _, m := range rpt.KeyMetrics {
			fmt.Printf("  %s: %s (%s)\n", m.Label, m.Value, m.Trend)
		}
	}

	if len(rpt.Sources) > 0 {
		fmt.Println()
		fmt.Println("## 数据来源")
		for _, s := range rpt.Sources {
			fmt.Printf("  %s: %s\n", s.Title, s.URI)
		}
	}

	if len(outcome.Validation) > 0 {
		fmt.Println()
		fmt.Println(validation.FormatResults(outcome.Validation, rpt.Ticker))
	}
}
