package commands

import (
	"github.com/spf13/cobra"

	"iprangesync/cmd/iprangesync/handlers"
	"iprangesync/internal/ranges"
)

// Sync returns the command for running one reconciliation pass.
//
// Optional flags:
//
//	--config, -c: Path to the services configuration file (default: services.yaml)
//	--url:        Feed URL to fetch
//	--md5:        Expected MD5 hex digest of the feed body; empty skips verification
//	--region:     AWS region override
//
// Environment variables:
//
//	LOG_LEVEL: log verbosity (debug, info, warn, error; default info)
//	AWS credentials resolve through the default provider chain unless
//	--access-key and --secret-key are given.
func Sync() *cobra.Command {
	var opts handlers.SyncOptions

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Reconcile WAF IP sets and prefix lists against the feed",
		Long: `Fetch the published IP ranges feed and converge the configured WAF
IP sets and VPC managed prefix lists onto it.

The feed's MD5 digest changes with every publication; pass the digest of
the revision you intend to apply with --md5 so a feed updated mid-flight
is rejected instead of silently applied.

Examples:
  # Reconcile using services.yaml in the current directory
  iprangesync sync --md5 2e967e943cf98ae998efeec05d4f351c

  # Use a specific config file and region
  iprangesync sync -c production.yaml --region eu-west-1 --md5 2e967e943cf98ae998efeec05d4f351c`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Sync(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "services.yaml", "Path to the services configuration file")
	cmd.Flags().StringVar(&opts.FeedURL, "url", ranges.DefaultFeedURL, "Feed URL to fetch")
	cmd.Flags().StringVar(&opts.FeedMD5, "md5", "", "Expected MD5 hex digest of the feed body")
	cmd.Flags().StringVar(&opts.Region, "region", "", "AWS region override")
	cmd.Flags().StringVar(&opts.AccessKey, "access-key", "", "Static AWS access key ID")
	cmd.Flags().StringVar(&opts.SecretKey, "secret-key", "", "Static AWS secret access key")

	return cmd
}
