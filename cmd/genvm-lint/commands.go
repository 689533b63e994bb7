package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/genlayerlabs/genvm-lint/pkg/artifacts"
	"github.com/genlayerlabs/genvm-lint/pkg/cache"
	"github.com/genlayerlabs/genvm-lint/pkg/config"
	"github.com/genlayerlabs/genvm-lint/pkg/header"
	"github.com/genlayerlabs/genvm-lint/pkg/rules"
)

func runCheckCmd(cfg *config.Config, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	fs.SetOutput(stderr)
	asJSON := fs.Bool("json", false, "emit the report as JSON")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		_, _ = fmt.Fprintln(stderr, "Usage: genvm-lint check [-json] <contract>")
		return 2
	}
	path := fs.Arg(0)

	source, err := os.ReadFile(path)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "read contract: %v\n", err)
		return 1
	}

	registry, err := buildRegistry(cfg)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "load rules: %v\n", err)
		return 1
	}

	report, err := rules.NewLinter(registry).LintSource(path, string(source))
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "check: %v\n", err)
		return 1
	}

	if *asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			_, _ = fmt.Fprintf(stderr, "encode report: %v\n", err)
			return 1
		}
	} else {
		printReport(stdout, report)
	}
	if !report.OK() {
		return 1
	}
	return 0
}

func printReport(w io.Writer, report *rules.Report) {
	_, _ = fmt.Fprintf(w, "%s: SDK %s, %d rules active\n",
		report.Path, report.Version, len(report.ActiveRules))
	for _, d := range report.Diagnostics {
		loc := ""
		if d.Line > 0 {
			loc = fmt.Sprintf("%d:%d: ", d.Line, d.Column)
		}
		_, _ = fmt.Fprintf(w, "  %s%s: %s [%s]\n", loc, d.Severity, d.Message, d.RuleID)
		if d.Suggestion != "" {
			_, _ = fmt.Fprintf(w, "    suggestion: %s\n", d.Suggestion)
		}
	}
	if report.OK() {
		_, _ = fmt.Fprintln(w, "OK")
	}
}

func runSetupCmd(cfg *config.Config, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("setup", flag.ContinueOnError)
	fs.SetOutput(stderr)
	asJSON := fs.Bool("json", false, "emit the resolution record as JSON")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		_, _ = fmt.Fprintln(stderr, "Usage: genvm-lint setup [-json] <contract>")
		return 2
	}
	path := fs.Arg(0)

	source, err := os.ReadFile(path)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "read contract: %v\n", err)
		return 1
	}
	decl, err := header.Parse(string(source))
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "setup: %v\n", err)
		return 1
	}

	resolver, _, err := buildResolver(cfg)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "setup: %v\n", err)
		return 1
	}
	record, err := resolver.Resolve(context.Background(), decl)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "setup: %v\n", err)
		return 1
	}

	if *asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(record); err != nil {
			_, _ = fmt.Fprintf(stderr, "encode record: %v\n", err)
			return 1
		}
		return 0
	}
	_, _ = fmt.Fprintf(stdout, "release %s resolved in %d hops\n", record.ReleaseTag, len(record.Chain))
	_, _ = fmt.Fprintln(stdout, record.RootPath)
	return 0
}

func runDownloadCmd(cfg *config.Config, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("download", flag.ContinueOnError)
	fs.SetOutput(stderr)
	ver := fs.String("version", "", "release version to fetch (default: latest)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 0 {
		_, _ = fmt.Fprintln(stderr, "Usage: genvm-lint download [-version X.Y.Z]")
		return 2
	}

	var decl header.Declaration
	if *ver != "" {
		decl = header.Declaration{{Package: artifacts.DefaultRunner, Value: *ver}}
	}

	resolver, _, err := buildResolver(cfg)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "download: %v\n", err)
		return 1
	}
	record, err := resolver.Resolve(context.Background(), decl)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "download: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintf(stdout, "release %s cached at %s\n", record.ReleaseTag, record.RootPath)
	return 0
}

func runCacheCmd(cfg *config.Config, args []string, stdout, stderr io.Writer) int {
	store, err := cache.New(cfg.CacheDir, cache.WithOpTimeout(cfg.OpTimeout))
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "cache: %v\n", err)
		return 1
	}

	switch args[0] {
	case "list":
		total := 0
		for _, prefix := range []string{"releases", "runners"} {
			keys, err := store.Keys(prefix)
			if err != nil {
				_, _ = fmt.Fprintf(stderr, "cache list: %v\n", err)
				return 1
			}
			for _, k := range keys {
				_, _ = fmt.Fprintln(stdout, k)
			}
			total += len(keys)
		}
		if total == 0 {
			_, _ = fmt.Fprintln(stdout, "cache is empty")
		}
		return 0
	case "clean":
		removed := 0
		for _, prefix := range []string{"releases", "runners"} {
			keys, err := store.Keys(prefix)
			if err != nil {
				_, _ = fmt.Fprintf(stderr, "cache clean: %v\n", err)
				return 1
			}
			for _, k := range keys {
				if err := store.Invalidate(k); err != nil {
					_, _ = fmt.Fprintf(stderr, "cache clean: %v\n", err)
					return 1
				}
				removed++
			}
		}
		_, _ = fmt.Fprintf(stdout, "removed %d entries\n", removed)
		return 0
	default:
		_, _ = fmt.Fprintf(stderr, "unknown cache command: %s\n", args[0])
		return 2
	}
}

func buildRegistry(cfg *config.Config) (*rules.Registry, error) {
	registry := rules.DefaultRegistry()
	if cfg.RuleBundle != "" {
		bundle, err := rules.LoadBundle(cfg.RuleBundle)
		if err != nil {
			return nil, err
		}
		if err := registry.ApplyBundle(bundle); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

func buildResolver(cfg *config.Config) (*artifacts.Resolver, *cache.Store, error) {
	store, err := cache.New(cfg.CacheDir, cache.WithOpTimeout(cfg.OpTimeout))
	if err != nil {
		return nil, nil, err
	}
	fetcher := artifacts.NewHTTPFetcher(cfg.ReleasesURL,
		artifacts.WithMaxTries(cfg.MaxRetries),
		artifacts.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}))
	resolver := artifacts.NewResolver(fetcher, store, artifacts.WithMaxDepth(cfg.MaxDepth))
	return resolver, store, nil
}
