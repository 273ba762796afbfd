// Package handlers implements the business logic for CLI commands.
//
// Handler functions are called by the command definitions in the
// commands package. They are framework-agnostic and can be tested
// independently of the CLI framework.
package handlers

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/charmbracelet/log"

	"iprangesync/internal/config"
	"iprangesync/internal/platform/awsauth"
	"iprangesync/internal/platform/awsec2"
	"iprangesync/internal/platform/awswaf"
	"iprangesync/internal/ranges"
	"iprangesync/internal/reconcile"
)

// SyncOptions carries the sync command's flag values.
type SyncOptions struct {
	ConfigPath string
	FeedURL    string
	FeedMD5    string
	Region     string
	AccessKey  string
	SecretKey  string
}

// Runner interface for testing - matches reconcile.Runner.
type Runner interface {
	Run(ctx context.Context, doc *ranges.Document) (*reconcile.Result, error)
}

// Factory function variables - can be replaced in tests for dependency injection.
var (
	// loadConfig loads the services configuration file.
	loadConfig = config.Load

	// fetchFeed downloads and integrity-checks the feed document.
	fetchFeed = func(ctx context.Context, url, md5 string) (*ranges.Document, error) {
		return ranges.NewFetcher().Fetch(ctx, url, md5)
	}

	// loadAWSConfig resolves AWS credentials and region.
	loadAWSConfig = awsauth.LoadConfig

	// newRunner creates the reconciliation runner.
	newRunner = func(cfg *config.Config, awsCfg aws.Config) Runner {
		return reconcile.NewRunner(cfg, awsec2.NewClient(awsCfg), awswaf.NewClient(awsCfg))
	}
)

// Sync runs one reconciliation pass: load configuration, fetch and verify
// the feed, then converge the configured WAF IP sets and managed prefix
// lists onto the extracted ranges. Per-resource failures are logged inside
// the run and reflected only by their absence from the summary; a failure
// before reconciliation starts aborts the whole run.
func Sync(ctx context.Context, opts SyncOptions) error {
	configureLogging()

	cfg, err := loadConfig(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	log.Info("Loaded configuration", "path", opts.ConfigPath, "services", len(cfg.Services))

	doc, err := fetchFeed(ctx, opts.FeedURL, opts.FeedMD5)
	if err != nil {
		return err
	}

	awsCfg, err := loadAWSConfig(ctx, opts.Region, opts.AccessKey, opts.SecretKey)
	if err != nil {
		return fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	result, err := newRunner(cfg, awsCfg).Run(ctx, doc)
	if err != nil {
		return err
	}

	printSummary(result)
	return nil
}

// configureLogging sets the log level from the LOG_LEVEL environment
// variable; an unknown or empty value keeps the default.
func configureLogging() {
	raw := os.Getenv("LOG_LEVEL")
	if raw == "" {
		return
	}
	level, err := log.ParseLevel(raw)
	if err != nil {
		log.Warn("Unknown LOG_LEVEL, keeping default", "value", raw)
		return
	}
	log.SetLevel(level)
}

// printSummary outputs the run's outcome per resource kind.
func printSummary(result *reconcile.Result) {
	log.Info("Reconciliation complete",
		"prefixListsCreated", len(result.PrefixList.Created),
		"prefixListsUpdated", len(result.PrefixList.Updated),
		"ipSetsCreated", len(result.WafIPSet.Created),
		"ipSetsUpdated", len(result.WafIPSet.Updated))

	for _, name := range result.PrefixList.Created {
		fmt.Printf("created prefix list %s\n", name)
	}
	for _, name := range result.PrefixList.Updated {
		fmt.Printf("updated prefix list %s\n", name)
	}
	for _, name := range result.WafIPSet.Created {
		fmt.Printf("created IP set %s\n", name)
	}
	for _, name := range result.WafIPSet.Updated {
		fmt.Printf("updated IP set %s\n", name)
	}
}
