// Package main is the entry point for the iprangesync CLI.
//
// iprangesync reconciles the published AWS IP ranges feed against WAF
// IP sets and VPC managed prefix lists. Each run fetches the feed,
// verifies its integrity, extracts the CIDR ranges of the configured
// services and converges the managed resources onto them.
//
// For detailed usage information, run:
//
//	iprangesync --help
package main

import (
	"fmt"
	"os"

	"iprangesync/cmd/iprangesync/commands"
)

// Version information set by goreleaser at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)
	if err := commands.Root().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
