package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for altscan.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "altscan",
		Short: "Audit the alt text of every image on a website",
		Long: `altscan crawls a website from a seed URL and reports which images
have alternative text and which do not.

The crawl stays on the seed's origin, honors robots.txt and waits between
requests. Fetches can go through a CORS relay or a SOCKS5 proxy.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("log-json", false, "Write logs as JSON")

	cmd.AddCommand(NewScanCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
