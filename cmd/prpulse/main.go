package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	"github.com/ericfisherdev/prpulse/internal/adapter/driven/csvreport"
	githubadapter "github.com/ericfisherdev/prpulse/internal/adapter/driven/github"
	"github.com/ericfisherdev/prpulse/internal/application"
	"github.com/ericfisherdev/prpulse/internal/config"
	"github.com/ericfisherdev/prpulse/internal/domain/model"
)

type cliFlags struct {
	repository        string
	months            int
	output            string
	mode              string
	reviewerThreshold int
	includeTeams      bool
	org               string
	batchSize         int
	batchDelay        time.Duration
	checkRateLimit    bool
	getUsername       int64
	verbose           bool
	quiet             bool
}

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	flags := parseFlags()

	logger := newLogger(flags.verbose, flags.quiet)
	slog.SetDefault(logger)

	// 1. Load configuration (env-provided credential and pacing knobs).
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if !cfg.HasGitHubToken() {
		return &model.AuthError{Reason: "GITHUB_TOKEN environment variable is not set"}
	}
	if flags.batchSize > 0 {
		cfg.BatchSize = flags.batchSize
	}
	if flags.batchDelay > 0 {
		cfg.BatchDelay = flags.batchDelay
	}

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Create GitHub client.
	ghClient, err := githubadapter.NewClient(cfg.GitHubToken, logger,
		githubadapter.WithRetryPolicy(cfg.MaxRetries, cfg.BaseDelay))
	if err != nil {
		return err
	}

	// Utility paths that exit before any analysis.
	if flags.checkRateLimit {
		return printRateLimit(ctx, ghClient)
	}
	if flags.getUsername > 0 {
		login, err := ghClient.FetchUserLogin(ctx, flags.getUsername)
		if err != nil {
			return err
		}
		fmt.Printf("User ID %d: %s\n", flags.getUsername, login)
		return nil
	}

	if flags.repository == "" {
		return &model.ValidationError{Field: "repository", Reason: "owner/repo argument is required"}
	}

	// 4. Validate credential and repository access, then compute the
	// lookback window before fetching.
	if err := ghClient.ValidateToken(ctx); err != nil {
		return err
	}
	repoInfo, err := ghClient.FetchRepositoryInfo(ctx, flags.repository)
	if err != nil {
		return err
	}
	logger.Debug("repository accessible", "repo", repoInfo.FullName, "private", repoInfo.Private)

	since, err := application.LookbackStart(time.Now(), flags.months)
	if err != nil {
		return err
	}

	logger.Info("fetching pull requests",
		"repo", flags.repository,
		"months", flags.months,
		"since", since.Format(time.RFC3339),
	)
	prs, err := ghClient.FetchPullRequests(ctx, flags.repository, since)
	if err != nil {
		return err
	}
	logger.Info("pull requests fetched", "count", len(prs))

	// 5. Wire services and run the selected analysis.
	collector := application.NewCollectService(ghClient, logger, cfg.BatchSize, cfg.BatchDelay)
	reporter := csvreport.NewWriter(logger)

	switch flags.mode {
	case "lifecycle":
		bundles, err := collector.Collect(ctx, prs)
		if err != nil {
			return err
		}

		lifecycle := application.NewLifecycleService(logger)
		report, err := lifecycle.Analyze(bundles, flags.repository)
		if err != nil {
			return err
		}

		path, err := reporter.WriteLifecycleReport(flags.output, report)
		if err != nil {
			return err
		}
		fmt.Printf("Lifecycle analysis complete: %d PRs analyzed, report written to %s\n",
			report.Summary.TotalAnalyzed, path)

	case "reviewers":
		workload := application.NewWorkloadService(collector, logger, flags.reviewerThreshold)
		summary := workload.Summary(ctx, prs, flags.reviewerThreshold, flags.includeTeams, flags.org, flags.repository)

		path, err := reporter.WriteWorkloadReport(flags.output, summary)
		if err != nil {
			return err
		}
		fmt.Printf("Reviewer workload analysis complete: %d reviewers across %d PRs, report written to %s\n",
			summary.Statistics.TotalReviewers, summary.Metadata.TotalPRs, path)

	default:
		return &model.ValidationError{Field: "mode", Reason: fmt.Sprintf("%q is not one of lifecycle, reviewers", flags.mode)}
	}

	return nil
}

func parseFlags() cliFlags {
	var flags cliFlags

	flag.IntVar(&flags.months, "months", 1, "number of months to look back")
	flag.StringVar(&flags.output, "output", "pr_analysis.csv", "output CSV file path")
	flag.StringVar(&flags.mode, "mode", "lifecycle", "analysis mode: lifecycle or reviewers")
	flag.IntVar(&flags.reviewerThreshold, "reviewer-threshold", application.DefaultOverloadThreshold,
		"request count threshold for detecting overloaded reviewers")
	flag.BoolVar(&flags.includeTeams, "include-teams", false, "expand team review requests to individual members")
	flag.StringVar(&flags.org, "org", "", "organization name for team member expansion")
	flag.IntVar(&flags.batchSize, "batch-size", 0, "PRs fetched per batch (0 uses PRPULSE_BATCH_SIZE or 10)")
	flag.DurationVar(&flags.batchDelay, "batch-delay", 0, "pause between batches (0 uses PRPULSE_BATCH_DELAY or 100ms)")
	flag.BoolVar(&flags.checkRateLimit, "check-rate-limit", false, "print current GitHub API rate limit status and exit")
	flag.Int64Var(&flags.getUsername, "get-username", 0, "translate a GitHub user ID to a username and exit")
	flag.BoolVar(&flags.verbose, "verbose", false, "enable debug logging")
	flag.BoolVar(&flags.quiet, "quiet", false, "suppress all output except errors")
	flag.Parse()

	flags.repository = flag.Arg(0)
	return flags
}

func newLogger(verbose, quiet bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	if quiet {
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func printRateLimit(ctx context.Context, client *githubadapter.Client) error {
	status, err := client.RateLimitStatus(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("GitHub API rate limit: %d/%d used, %d remaining, resets at %s\n",
		status.Used, status.Limit, status.Remaining, status.Reset.Format(time.RFC3339))
	return nil
}
