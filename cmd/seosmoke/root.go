package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for seosmoke.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seosmoke",
		Short: "SEO smoke checks for live web pages",
		Long: `seosmoke fetches a web page with a Googlebot user agent and checks the
parts of its HTML that search engines rely on:

- the page title
- the first h1 heading
- the meta description
- the canonical link, which must point at the checked URL
- the robots meta tag, which must not be "noindex"

Results are printed as pass/fail lines followed by a table of the
extracted values. Every run is stored locally so later runs can be compared.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(NewCheckCmd())
	cmd.AddCommand(NewCompareCmd())
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
