package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/digimosa/gdpr-scan/internal/config"
	"github.com/digimosa/gdpr-scan/internal/enrich"
	"github.com/digimosa/gdpr-scan/internal/reporting"
	"github.com/digimosa/gdpr-scan/internal/scanner"
	"github.com/digimosa/gdpr-scan/internal/source"
	"github.com/digimosa/gdpr-scan/internal/storage"
	"github.com/digimosa/gdpr-scan/internal/suppress"
)

func main() {
	// Parse CLI flags
	rootPath := flag.String("path", ".", "Root directory to scan")
	scan := flag.Bool("scan", false, "Execute scan immediately (CLI mode)")
	workers := flag.Int("workers", 0, "Number of concurrent workers (default: auto)")
	verbose := flag.Bool("verbose", false, "Enable verbose logging")
	configPath := flag.String("config", "", "Config file (yaml, json or toml)")
	region := flag.String("region", "", regionUsage())
	ruleFiles := flag.String("rules", "", "Comma separated custom rule files")
	ignoreFile := flag.String("ignore", "", "Ignore rule file")
	baselineFile := flag.String("baseline", "", "Baseline file used to suppress accepted findings")
	writeBaseline := flag.String("write-baseline", "", "Write a baseline of this scan's findings to the given file")
	jsonOut := flag.String("out", "scan_report.json", "JSON report file (empty to skip)")
	sarifOut := flag.String("sarif", "", "SARIF report file")
	schemaOut := flag.String("schema", "", "Write the JSON schema of the report to the given file and exit")
	dbPath := flag.String("db", "", "SQLite database for scan history (empty to skip)")
	timeout := flag.Duration("timeout", 0, "Per-artifact timeout")
	gitleaks := flag.Bool("gitleaks", false, "Add the gitleaks provider signatures")
	blame := flag.Bool("blame", false, "Attach git commit info to findings")
	allow := flag.String("allow", "", "Add a value to the whitelist file and exit")
	history := flag.Bool("history", false, "List stored scans and exit")
	flag.Parse()

	if *verbose {
		log.SetLevel(log.DebugLevel)
	}

	if *schemaOut != "" {
		if err := reporting.SaveSchema(*schemaOut); err != nil {
			log.Fatalf("Error saving JSON schema: %v", err)
		}
		fmt.Printf("JSON schema saved to: %s\n", *schemaOut)
		return
	}

	// Setup configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "path":
			cfg.RootPath = *rootPath
		case "verbose":
			cfg.Verbose = *verbose
		case "region":
			cfg.Region = strings.ToUpper(*region)
		case "rules":
			cfg.Rules.Files = append(cfg.Rules.Files, splitList(*ruleFiles)...)
		case "ignore":
			cfg.IgnoreFile = *ignoreFile
		case "baseline":
			cfg.BaselineFile = *baselineFile
		case "db":
			cfg.DBPath = *dbPath
		case "timeout":
			cfg.ArtifactTimeout = *timeout
		case "gitleaks":
			cfg.Rules.Gitleaks = *gitleaks
		case "blame":
			cfg.Blame = *blame
		}
	})
	if *workers > 0 {
		cfg.Workers = *workers
	}
	if cfg.Verbose {
		log.SetLevel(log.DebugLevel)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if *allow != "" {
		wl, err := suppress.NewAllowlist(cfg.WhitelistPath)
		if err != nil {
			log.Fatalf("Failed to load whitelist: %v", err)
		}
		if err := wl.Add(*allow); err != nil {
			log.Fatalf("Failed to update whitelist: %v", err)
		}
		fmt.Printf("Added value to %s\n", cfg.WhitelistPath)
		return
	}

	var store *storage.Store
	if cfg.DBPath != "" && (*scan || *history) {
		fmt.Printf("Initializing database at: %s\n", cfg.DBPath)
		store, err = storage.Open(cfg.DBPath)
		if err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		defer store.Close()
	}

	if *history {
		printHistory(store)
		return
	}

	if !*scan {
		// No action specified
		fmt.Println("No action specified.")
		fmt.Println("Use -scan to run a CLI scan immediately.")
		flag.PrintDefaults()
		return
	}

	src := source.NewLocal(cfg.RootPath)
	if cfg.Blame {
		b, err := source.NewGitBlamer(cfg.RootPath)
		if err != nil {
			log.Warnf("(main) blame disabled: %v", err)
		} else {
			src.Blamer = b
		}
	}

	var opts []scanner.Option
	if store != nil && cfg.BaselineFile == "" {
		b, err := store.LatestBaseline(src.Name())
		switch {
		case errors.Is(err, storage.ErrNoScans):
			log.Debugf("(main) no stored scan of %s to baseline against", src.Name())
		case err != nil:
			log.Warnf("(main) could not read stored baseline: %v", err)
		default:
			opts = append(opts, scanner.WithBaseline(b))
		}
	}

	fmt.Printf("Starting GDPR Scan on: %s\n", cfg.RootPath)
	fmt.Printf("Workers: %d, region: %s\n", cfg.Workers, cfg.Region)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s := scanner.New(cfg, opts...)
	start := time.Now()
	res, err := s.Run(ctx, src)
	if err != nil {
		log.Fatalf("Scan failed: %v", err)
	}
	fmt.Printf("\nScan complete in %s\n\n", time.Since(start).Round(time.Millisecond))

	reporting.PrintSummary(os.Stdout, res)

	// Save Reports
	if *jsonOut != "" {
		if err := reporting.SaveJSON(*jsonOut, res); err != nil {
			fmt.Printf("Error saving JSON report: %v\n", err)
		} else {
			fmt.Printf("JSON report saved to: %s\n", *jsonOut)
		}
	}
	if *sarifOut != "" {
		if err := reporting.SaveSARIF(*sarifOut, res, s.Registry()); err != nil {
			fmt.Printf("Error saving SARIF report: %v\n", err)
		} else {
			fmt.Printf("SARIF report saved to: %s\n", *sarifOut)
		}
	}
	if *writeBaseline != "" {
		if err := suppress.BaselineFromResult(res).Save(*writeBaseline); err != nil {
			fmt.Printf("Error saving baseline: %v\n", err)
		} else {
			fmt.Printf("Baseline saved to: %s\n", *writeBaseline)
		}
	}
	if store != nil {
		if _, err := store.SaveScan(res); err != nil {
			fmt.Printf("Error storing scan: %v\n", err)
		}
	}
}

func printHistory(store *storage.Store) {
	if store == nil {
		fmt.Println("No database configured.")
		return
	}
	scans, err := store.GetAllScans()
	if err != nil {
		log.Fatalf("Failed to read scan history: %v", err)
	}
	for _, sc := range scans {
		fmt.Printf("%s  %s  %-9s %-4s findings %-4d high %-4d score %.2f  %s\n",
			sc.Timestamp.Format(time.RFC3339), sc.ScanID, sc.Status, sc.Region,
			sc.TotalFindings, sc.HighRiskCount, sc.ComplianceScore, sc.Scope)
	}
}

func regionUsage() string {
	return "Region profile: " + strings.Join(enrich.Regions(), ", ")
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
