package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/pagetrawl/pagetrawl/internal/checkpoint"
	"github.com/pagetrawl/pagetrawl/internal/config"
	"github.com/pagetrawl/pagetrawl/internal/dedup"
	"github.com/pagetrawl/pagetrawl/internal/extract"
	"github.com/pagetrawl/pagetrawl/internal/fetch"
	"github.com/pagetrawl/pagetrawl/internal/frontier"
	"github.com/pagetrawl/pagetrawl/internal/identity"
	"github.com/pagetrawl/pagetrawl/internal/log"
	"github.com/pagetrawl/pagetrawl/internal/report"
	"github.com/pagetrawl/pagetrawl/internal/robots"
	"github.com/pagetrawl/pagetrawl/internal/search"
	"github.com/pagetrawl/pagetrawl/internal/session"
	"github.com/pagetrawl/pagetrawl/internal/store"
	"github.com/pagetrawl/pagetrawl/internal/throttle"
	"github.com/pagetrawl/pagetrawl/internal/tor"
	"github.com/spf13/cobra"
)

// NewRunCmd creates the run command.
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [seed-url...]",
		Short: "Harvest pages starting from the given seed URLs",
		Long: `Run starts a harvest session from one or more seed URLs.

Each domain is paced independently: consecutive successes shrink the
inter-request delay toward the floor, blocking responses (429, 503, 403)
double it and rotate the outbound fingerprint. Discovered same-domain
links are crawled breadth-first up to the configured depth, and every
accepted page passes URL, exact-content, and near-duplicate checks
before it is stored.

Progress is checkpointed continuously; an interrupted session restarts
from where it left off with --resume.

Examples:
  # Harvest two sites with defaults
  pagetrawl run https://example.com/news https://example.org/blog

  # Resume an interrupted session
  pagetrawl run --seeds-file seeds.txt --resume

  # Route through an external Tor daemon with circuit renewal
  pagetrawl run --tor --tor-control 127.0.0.1:9051 https://example.com

  # Low-profile harvesting with a Markdown report
  pagetrawl run --stealth --markdown -o report.md https://example.com`,
		Args: cobra.ArbitraryArgs,
		RunE: runRunCmd,
	}

	// Seed and scope flags
	cmd.Flags().StringP("seeds-file", "f", "",
		"File of seed URLs, one per line ('#' comments allowed)")
	cmd.Flags().String("exclude-file", "",
		"File of domains never to crawl, one per line")
	cmd.Flags().Bool("no-follow", false,
		"Fetch only the seed pages, never follow links")
	cmd.Flags().IntP("depth", "d", config.DefaultMaxDepth,
		"Maximum crawl depth from each seed (0 = seeds only)")
	cmd.Flags().Int("max-pages-per-domain", config.DefaultMaxPagesPerDomain,
		"Maximum pages admitted per domain")
	cmd.Flags().Int("max-pages-per-depth", config.DefaultMaxPagesPerDepth,
		"Maximum pages admitted per depth level")
	cmd.Flags().Int("max-pages", config.DefaultMaxPagesTotal,
		"Maximum pages admitted for the whole session")

	// Pacing flags
	cmd.Flags().Int("concurrency", config.DefaultMaxConcurrentTotal,
		"Maximum concurrent fetches across all domains")
	cmd.Flags().Int("per-domain", config.DefaultMaxConcurrentPerDomain,
		"Maximum concurrent fetches per domain")
	cmd.Flags().Duration("delay-floor", config.DefaultDelayFloor,
		"Minimum (and initial) delay between requests to one domain")
	cmd.Flags().Duration("delay-ceiling", config.DefaultDelayCeiling,
		"Maximum delay between requests to one domain")
	cmd.Flags().Bool("stealth", false,
		"Reduce concurrency and raise the delay floor for low-profile harvesting")

	// Fetch flags
	cmd.Flags().DurationP("timeout", "t", config.DefaultFetchTimeout,
		"Timeout for a single fetch attempt")
	cmd.Flags().Int("retries", config.DefaultMaxRetriesPerTarget,
		"Re-dispatches of a failed target before giving up")
	cmd.Flags().Int64("max-body-size", config.DefaultMaxBodySize,
		"Maximum response body bytes read per fetch")
	cmd.Flags().Bool("no-robots", false,
		"Skip robots.txt checks")

	// Content flags
	cmd.Flags().Int("min-words", config.DefaultMinWordCount,
		"Drop pages whose extracted text has fewer words")
	cmd.Flags().Bool("no-fuzzy-dedup", false,
		"Disable MinHash near-duplicate detection (exact dedup still applies)")
	cmd.Flags().Float64("fuzzy-threshold", config.DefaultFuzzyThreshold,
		"Similarity above which pages are treated as near-duplicates")
	cmd.Flags().Int("permutations", config.DefaultNumPermutations,
		"MinHash signature width")
	cmd.Flags().Int("shingle-size", config.DefaultShingleSize,
		"Word n-gram size for near-duplicate shingling")

	// Identity flags
	cmd.Flags().Int("identity-pool", 0,
		"Number of fingerprint profiles to rotate through (0 = all built-in)")
	cmd.Flags().Int("renew-interval", config.DefaultRenewInterval,
		"Completed targets between Tor circuit renewals (0 = never)")

	// Tor flags
	cmd.Flags().Bool("tor", false,
		"Route fetches through a Tor SOCKS5 proxy")
	cmd.Flags().String("tor-proxy", config.DefaultTorProxyAddress,
		"External Tor SOCKS5 proxy address")
	cmd.Flags().String("tor-control", "",
		"Tor control port address for circuit renewal (e.g. 127.0.0.1:9051)")
	cmd.Flags().String("tor-control-password", "",
		"Password for the Tor control port")
	cmd.Flags().Bool("embedded-tor", false,
		"Start an embedded Tor daemon instead of using an external one")
	cmd.Flags().DurationP("tor-timeout", "T", config.DefaultTorStartupTimeout,
		"Timeout for embedded Tor startup")

	// Session flags
	cmd.Flags().BoolP("resume", "r", false,
		"Continue from the existing checkpoint")
	cmd.Flags().Bool("reset", false,
		"Discard the checkpoint entirely before starting")
	cmd.Flags().Bool("reset-partial", false,
		"Clear completed targets and counters but keep dedup state and failure history")
	cmd.Flags().String("checkpoint", "",
		"Checkpoint file path (default: XDG data dir)")
	cmd.Flags().String("data-dir", "",
		"Directory for the record database (default: XDG data dir)")
	cmd.Flags().Duration("deadline", 0,
		"Abort the session after this duration (0 = no deadline)")

	// Output flags
	cmd.Flags().String("jsonl", "",
		"Also append accepted records to this JSON-lines file")
	cmd.Flags().StringP("output", "o", "",
		"Write the session report to a file instead of stdout")
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")

	// Configuration file
	cmd.Flags().StringP("sites", "c", "",
		"Sites file path (default: .pagetrawl.yaml in current dir or XDG config dir)")

	return cmd
}

// runRunCmd executes the run command.
func runRunCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	cfg = config.ApplyStealth(cfg)

	logger := log.NewLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, checkpointing and stopping...")
		cancel()
	}()

	if cfg.SessionDeadline > 0 {
		var deadlineCancel context.CancelFunc
		ctx, deadlineCancel = context.WithTimeout(ctx, cfg.SessionDeadline)
		defer deadlineCancel()
	}

	return runHarvest(ctx, cfg, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error

	cfg.SeedsFile, err = flags.GetString("seeds-file")
	if err != nil {
		return nil, err
	}
	cfg.ExcludeFile, err = flags.GetString("exclude-file")
	if err != nil {
		return nil, err
	}

	noFollow, err := flags.GetBool("no-follow")
	if err != nil {
		return nil, err
	}
	cfg.FollowLinks = !noFollow

	cfg.MaxDepth, err = flags.GetInt("depth")
	if err != nil {
		return nil, err
	}
	cfg.MaxPagesPerDomain, err = flags.GetInt("max-pages-per-domain")
	if err != nil {
		return nil, err
	}
	cfg.MaxPagesPerDepth, err = flags.GetInt("max-pages-per-depth")
	if err != nil {
		return nil, err
	}
	cfg.MaxPagesTotal, err = flags.GetInt("max-pages")
	if err != nil {
		return nil, err
	}

	cfg.MaxConcurrentTotal, err = flags.GetInt("concurrency")
	if err != nil {
		return nil, err
	}
	cfg.MaxConcurrentPerDomain, err = flags.GetInt("per-domain")
	if err != nil {
		return nil, err
	}
	cfg.DelayFloor, err = flags.GetDuration("delay-floor")
	if err != nil {
		return nil, err
	}
	cfg.DelayCeiling, err = flags.GetDuration("delay-ceiling")
	if err != nil {
		return nil, err
	}
	cfg.Stealth, err = flags.GetBool("stealth")
	if err != nil {
		return nil, err
	}

	cfg.FetchTimeout, err = flags.GetDuration("timeout")
	if err != nil {
		return nil, err
	}
	cfg.MaxRetriesPerTarget, err = flags.GetInt("retries")
	if err != nil {
		return nil, err
	}
	cfg.MaxBodySize, err = flags.GetInt64("max-body-size")
	if err != nil {
		return nil, err
	}

	noRobots, err := flags.GetBool("no-robots")
	if err != nil {
		return nil, err
	}
	cfg.RespectRobots = !noRobots

	cfg.MinWordCount, err = flags.GetInt("min-words")
	if err != nil {
		return nil, err
	}

	noFuzzy, err := flags.GetBool("no-fuzzy-dedup")
	if err != nil {
		return nil, err
	}
	cfg.FuzzyDedup = !noFuzzy

	cfg.FuzzyThreshold, err = flags.GetFloat64("fuzzy-threshold")
	if err != nil {
		return nil, err
	}
	cfg.NumPermutations, err = flags.GetInt("permutations")
	if err != nil {
		return nil, err
	}
	cfg.ShingleSize, err = flags.GetInt("shingle-size")
	if err != nil {
		return nil, err
	}

	cfg.IdentityPoolSize, err = flags.GetInt("identity-pool")
	if err != nil {
		return nil, err
	}
	cfg.RenewInterval, err = flags.GetInt("renew-interval")
	if err != nil {
		return nil, err
	}

	cfg.UseTor, err = flags.GetBool("tor")
	if err != nil {
		return nil, err
	}
	cfg.TorProxyAddress, err = flags.GetString("tor-proxy")
	if err != nil {
		return nil, err
	}
	cfg.TorControlAddress, err = flags.GetString("tor-control")
	if err != nil {
		return nil, err
	}
	cfg.TorControlPassword, err = flags.GetString("tor-control-password")
	if err != nil {
		return nil, err
	}
	cfg.UseEmbeddedTor, err = flags.GetBool("embedded-tor")
	if err != nil {
		return nil, err
	}
	if cfg.UseEmbeddedTor {
		cfg.UseTor = true
	}
	cfg.TorStartupTimeout, err = flags.GetDuration("tor-timeout")
	if err != nil {
		return nil, err
	}

	cfg.Resume, err = flags.GetBool("resume")
	if err != nil {
		return nil, err
	}
	cfg.ResetFull, err = flags.GetBool("reset")
	if err != nil {
		return nil, err
	}
	cfg.ResetPartial, err = flags.GetBool("reset-partial")
	if err != nil {
		return nil, err
	}

	checkpointPath, err := flags.GetString("checkpoint")
	if err != nil {
		return nil, err
	}
	if checkpointPath != "" {
		cfg.CheckpointPath = checkpointPath
	}
	dataDir, err := flags.GetString("data-dir")
	if err != nil {
		return nil, err
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}

	cfg.SessionDeadline, err = flags.GetDuration("deadline")
	if err != nil {
		return nil, err
	}

	cfg.JSONLPath, err = flags.GetString("jsonl")
	if err != nil {
		return nil, err
	}
	cfg.ReportFile, err = flags.GetString("output")
	if err != nil {
		return nil, err
	}
	cfg.JSONReport, err = flags.GetBool("json")
	if err != nil {
		return nil, err
	}
	cfg.MarkdownReport, err = flags.GetBool("markdown")
	if err != nil {
		return nil, err
	}

	cfg.Verbose = getVerboseFlag(cmd)

	// Load site-specific overrides. An explicitly given path that does not
	// exist is an error; a missing default file is not.
	cfg.SitesFilePath, err = flags.GetString("sites")
	if err != nil {
		return nil, err
	}
	sitesPath := config.FindSitesFile(cfg.SitesFilePath)
	if sitesPath != "" {
		cfg.Sites, err = config.LoadSitesFile(sitesPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load sites file %s: %w", sitesPath, err)
		}
	} else if cfg.SitesFilePath != "" {
		return nil, fmt.Errorf("sites file not found: %s", cfg.SitesFilePath)
	} else {
		cfg.Sites = &config.SitesFile{Sites: make(map[string]config.SiteConfig)}
	}

	// Positional arguments are seed URLs; a seeds file adds more.
	cfg.Seeds = args
	if cfg.SeedsFile != "" {
		seeds, err := config.LoadLines(cfg.SeedsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load seeds file %s: %w", cfg.SeedsFile, err)
		}
		cfg.Seeds = append(cfg.Seeds, seeds...)
	}

	return cfg, nil
}

// runHarvest wires the session components and runs the harvest.
func runHarvest(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("starting harvest",
		"seeds", len(cfg.Seeds),
		"depth", cfg.MaxDepth,
		"concurrency", cfg.MaxConcurrentTotal,
		"tor", cfg.UseTor,
		"resume", cfg.Resume,
	)

	manager := checkpoint.NewManager(cfg.CheckpointPath, checkpoint.WithLogger(logger))
	switch {
	case cfg.ResetFull:
		if err := manager.ResetFull(); err != nil {
			return fmt.Errorf("failed to reset checkpoint: %w", err)
		}
	case cfg.ResetPartial:
		if err := manager.ResetPartial(); err != nil {
			return fmt.Errorf("failed to partially reset checkpoint: %w", err)
		}
	case !cfg.Resume:
		// Resuming is opt-in. A fresh session must not silently inherit
		// the previous session's progress.
		if err := manager.ResetFull(); err != nil {
			return fmt.Errorf("failed to clear stale checkpoint: %w", err)
		}
	}

	httpClient, renewer, cleanup, err := setupEgress(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	var excluded map[string]bool
	if cfg.ExcludeFile != "" {
		domains, err := config.LoadExcludedDomains(cfg.ExcludeFile)
		if err != nil {
			return fmt.Errorf("failed to load exclusion file %s: %w", cfg.ExcludeFile, err)
		}
		excluded = make(map[string]bool, len(domains))
		for d := range domains {
			excluded[d] = true
		}
	}

	siteFloors, siteHeaders, siteLimits, ignorePatterns := siteOverrides(cfg.Sites)

	th := throttle.New(
		throttle.WithDelayBounds(cfg.DelayFloor, cfg.DelayCeiling),
		throttle.WithPerDomainLimit(cfg.MaxConcurrentPerDomain),
		throttle.WithGlobalLimit(cfg.MaxConcurrentTotal),
		throttle.WithSiteFloors(siteFloors),
	)
	pool := identity.NewPool(identity.WithPoolSize(cfg.IdentityPoolSize))
	transport := fetch.NewHTTPTransport(httpClient,
		fetch.WithMaxBodySize(cfg.MaxBodySize),
		fetch.WithSiteHeaders(siteHeaders),
	)
	scheduler := fetch.NewScheduler(transport, pool, th,
		fetch.WithTimeout(cfg.FetchTimeout),
		fetch.WithLogger(logger),
	)

	fr := frontier.New(
		frontier.WithMaxDepth(cfg.MaxDepth),
		frontier.WithDomainCap(cfg.MaxPagesPerDomain),
		frontier.WithDepthCap(cfg.MaxPagesPerDepth),
		frontier.WithTotalCap(cfg.MaxPagesTotal),
		frontier.WithFollowLinks(cfg.FollowLinks),
		frontier.WithExcludedDomains(excluded),
		frontier.WithSitePageLimits(siteLimits),
		frontier.WithIgnorePatterns(ignorePatterns),
	)

	dd := dedup.New(
		dedup.WithFuzzy(cfg.FuzzyDedup),
		dedup.WithThreshold(cfg.FuzzyThreshold),
		dedup.WithPermutations(cfg.NumPermutations),
		dedup.WithShingleSize(cfg.ShingleSize),
	)

	sqlStore, err := store.OpenSQLite(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("failed to open record database: %w", err)
	}
	writers := []store.Writer{sqlStore}
	if cfg.JSONLPath != "" {
		jsonl, err := store.OpenJSONL(cfg.JSONLPath)
		if err != nil {
			sqlStore.Close() //nolint:errcheck // Best effort cleanup
			return fmt.Errorf("failed to open JSONL output: %w", err)
		}
		writers = append(writers, jsonl)
	}
	writer := store.NewMultiWriter(writers...)
	defer func() {
		if err := writer.Close(); err != nil {
			logger.Error("failed to close record writers", "error", err)
		}
	}()

	opts := []session.Option{
		session.WithConcurrency(cfg.MaxConcurrentTotal),
		session.WithMaxRetries(cfg.MaxRetriesPerTarget),
		session.WithRenewInterval(cfg.RenewInterval),
		session.WithMinWordCount(cfg.MinWordCount),
		session.WithThrottle(th),
		session.WithTorEnabled(cfg.UseTor),
		session.WithLogger(logger),
	}
	if cfg.RespectRobots {
		opts = append(opts, session.WithPermissionOracle(
			robots.NewOracle(httpClient, robots.WithAgent(config.AppName)),
		))
	}
	if renewer != nil {
		opts = append(opts, session.WithRenewer(renewer))
	}

	orch, err := session.New(fr, scheduler, extract.Extract, dd, writer, manager, opts...)
	if err != nil {
		return fmt.Errorf("failed to restore session: %w", err)
	}

	if err := orch.Seed(ctx, search.NewDirectProvider(), cfg.Seeds); err != nil {
		return err
	}

	summary, runErr := orch.Run(ctx)
	if summary != nil {
		if err := writeReport(cfg, summary); err != nil {
			logger.Error("failed to write session report", "error", err)
		}
	}
	return runErr
}

// setupEgress builds the HTTP client for fetching, optionally through Tor,
// plus a circuit renewer when a control port is reachable. The returned
// cleanup stops the embedded daemon if one was started.
func setupEgress(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*http.Client, *tor.Renewer, func(), error) {
	noop := func() {}

	if cfg.UseEmbeddedTor {
		fmt.Println("Starting embedded Tor daemon...")
		fmt.Printf("This may take 1-3 minutes while Tor bootstraps and connects to the network.\n\n")

		embedded := tor.NewEmbeddedTor(tor.WithStartupTimeout(cfg.TorStartupTimeout))
		if err := embedded.Start(ctx); err != nil {
			return nil, nil, noop, fmt.Errorf("failed to start embedded Tor: %w", err)
		}
		cleanup := func() {
			logger.Info("stopping embedded Tor daemon...")
			if err := embedded.Stop(); err != nil {
				logger.Error("failed to stop embedded Tor", "error", err)
			}
		}

		client, err := tor.NewClient(embedded.SocksAddr(), cfg.FetchTimeout)
		if err != nil {
			cleanup()
			return nil, nil, noop, fmt.Errorf("failed to create Tor client: %w", err)
		}
		if err := client.CheckConnection(ctx); err != nil {
			cleanup()
			return nil, nil, noop, fmt.Errorf("embedded Tor proxy check failed: %w", err)
		}

		logger.Info("embedded Tor daemon started",
			"socksAddr", embedded.SocksAddr(),
			"controlAddr", embedded.ControlAddr(),
		)
		renewer := tor.NewRenewer(embedded.ControlAddr(), tor.WithRenewLogger(logger))
		return client.NewHTTPClient(), renewer, cleanup, nil
	}

	if cfg.UseTor {
		client, err := tor.NewClient(cfg.TorProxyAddress, cfg.FetchTimeout)
		if err != nil {
			return nil, nil, noop, fmt.Errorf("failed to create Tor client: %w", err)
		}
		if err := client.CheckConnection(ctx); err != nil {
			return nil, nil, noop, fmt.Errorf("tor proxy check failed (make sure Tor is running at %s): %w",
				cfg.TorProxyAddress, err)
		}
		logger.Info("Tor proxy connection verified", "address", cfg.TorProxyAddress)

		var renewer *tor.Renewer
		if cfg.TorControlAddress != "" {
			renewer = tor.NewRenewer(cfg.TorControlAddress,
				tor.WithControlPassword(cfg.TorControlPassword),
				tor.WithRenewLogger(logger),
			)
		}
		return client.NewHTTPClient(), renewer, noop, nil
	}

	return &http.Client{Timeout: cfg.FetchTimeout}, nil, noop, nil
}

// siteOverrides flattens the sites file into the per-domain maps the
// throttle, transport, and frontier consume.
func siteOverrides(sites *config.SitesFile) (
	floors map[string]time.Duration,
	headers map[string]map[string]string,
	limits map[string]int,
	ignore map[string][]string,
) {
	if sites == nil || len(sites.Sites) == 0 {
		return nil, nil, nil, nil
	}

	floors = make(map[string]time.Duration)
	headers = make(map[string]map[string]string)
	limits = make(map[string]int)
	ignore = make(map[string][]string)

	for domain := range sites.Sites {
		sc := sites.ForDomain(domain)
		if sc.DelayFloor > 0 {
			floors[domain] = sc.DelayFloor
		}
		if sc.MaxPages > 0 {
			limits[domain] = sc.MaxPages
		}
		if len(sc.Headers) > 0 {
			headers[domain] = sc.Headers
		}
		if len(sc.IgnorePatterns) > 0 {
			ignore[domain] = sc.IgnorePatterns
		}
	}
	return floors, headers, limits, ignore
}

// writeReport writes the session report in the requested format.
func writeReport(cfg *config.Config, summary *report.Summary) error {
	var output *os.File
	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create report directory: %w", err)
			}
		}
		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create report file: %w", err)
		}
		defer f.Close() //nolint:errcheck // Write errors surface through the writer
		output = f
	} else {
		output = os.Stdout
	}

	var w report.Writer
	switch {
	case cfg.JSONReport:
		w = report.NewJSONWriter(output, report.WithPrettyPrint())
	case cfg.MarkdownReport:
		w = report.NewMarkdownWriter(output)
	default:
		w = report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
	}
	_, err := w.Write(summary)
	return err
}
