package main

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Release builds set these with -ldflags "-X main.version=...".
var (
	version = ""
	commit  = ""
	date    = ""
)

// shortCommitLen is the number of revision characters shown.
const shortCommitLen = 7

// buildDetails describes the running seosmoke binary.
type buildDetails struct {
	Version   string
	Commit    string
	Date      string
	GoVersion string
}

// readBuildDetails fills in whatever ldflags left empty from the module
// and VCS data embedded by the Go toolchain.
func readBuildDetails() buildDetails {
	d := buildDetails{
		Version:   version,
		Commit:    commit,
		Date:      date,
		GoVersion: runtime.Version(),
	}

	if info, ok := debug.ReadBuildInfo(); ok {
		if d.Version == "" {
			d.Version = info.Main.Version
		}
		for _, s := range info.Settings {
			switch {
			case s.Key == "vcs.revision" && d.Commit == "":
				d.Commit = s.Value
			case s.Key == "vcs.time" && d.Date == "":
				d.Date = s.Value
			}
		}
	}

	if d.Version == "" {
		d.Version = "(devel)"
	}
	if len(d.Commit) > shortCommitLen {
		d.Commit = d.Commit[:shortCommitLen]
	}
	if d.Commit == "" {
		d.Commit = "unknown"
	}
	if d.Date == "" {
		d.Date = "unknown"
	}
	return d
}

// getVersion returns the version recorded in reports and --version output.
func getVersion() string {
	return readBuildDetails().Version
}

// NewVersionCmd creates the version command.
func NewVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long: `Print the seosmoke version, commit, build date and Go version.

Use --short to print only the version, e.g. for CI logs.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			short, err := cmd.Flags().GetBool("short")
			if err != nil {
				return err
			}

			d := readBuildDetails()
			out := cmd.OutOrStdout()
			if short {
				fmt.Fprintln(out, d.Version)
				return nil
			}
			fmt.Fprintf(out, "seosmoke version %s\n", d.Version)
			fmt.Fprintf(out, "  commit: %s\n", d.Commit)
			fmt.Fprintf(out, "  built:  %s\n", d.Date)
			fmt.Fprintf(out, "  go:     %s\n", d.GoVersion)
			return nil
		},
	}

	cmd.Flags().BoolP("short", "s", false, "Print only the version number")
	return cmd
}
