// Command genvm-lint validates GenVM contracts against a versioned SDK:
// it parses the contract's dependency header, activates the matching rule
// set, and resolves the declared SDK to a local source tree for the type
// checker.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/genlayerlabs/genvm-lint/pkg/config"
)

func main() {
	os.Exit(Run(os.Args, os.Stdout, os.Stderr))
}

// Run is the entrypoint, split from main for testing.
func Run(args []string, stdout, stderr io.Writer) int {
	cfg := config.Load()
	setupLogging(stderr, cfg.LogLevel)

	if len(args) < 2 {
		usage(stderr)
		return 2
	}

	switch args[1] {
	case "check":
		return runCheckCmd(cfg, args[2:], stdout, stderr)
	case "setup":
		return runSetupCmd(cfg, args[2:], stdout, stderr)
	case "download":
		return runDownloadCmd(cfg, args[2:], stdout, stderr)
	case "cache":
		if len(args) < 3 {
			_, _ = fmt.Fprintln(stderr, "Usage: genvm-lint cache <list|clean>")
			return 2
		}
		return runCacheCmd(cfg, args[2:], stdout, stderr)
	case "version":
		_, _ = fmt.Fprintln(stdout, "genvm-lint "+buildVersion)
		return 0
	case "help", "-h", "--help":
		usage(stdout)
		return 0
	default:
		_, _ = fmt.Fprintf(stderr, "unknown command: %s\n", args[1])
		usage(stderr)
		return 2
	}
}

const buildVersion = "1.0.0"

func usage(w io.Writer) {
	_, _ = fmt.Fprintln(w, `Usage: genvm-lint <command> [flags]

Commands:
  check <contract>     validate a contract against its declared SDK rules
  setup <contract>     resolve the declared SDK and print its source tree
  download [-version]  pre-fetch a release archive for offline use
  cache list           list cached releases and runners
  cache clean          remove all cached artifacts
  version              print the linter version`)
}

func setupLogging(w io.Writer, level string) {
	var lvl slog.Level
	switch strings.ToUpper(level) {
	case "DEBUG":
		lvl = slog.LevelDebug
	case "WARN":
		lvl = slog.LevelWarn
	case "ERROR":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})))
}
