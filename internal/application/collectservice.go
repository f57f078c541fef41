// Package application contains use-case orchestration services.
package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ericfisherdev/prpulse/internal/domain/model"
	"github.com/ericfisherdev/prpulse/internal/domain/port/driven"
)

const (
	defaultBatchSize  = 10
	defaultBatchDelay = 100 * time.Millisecond
)

// CollectService orchestrates per-PR sub-resource fetches into one aggregate
// bundle per PR. Each of the five sub-fetches is isolated: a failure leaves
// that field empty and records a warning, and the PR is still emitted with
// whatever data succeeded.
type CollectService struct {
	ghClient   driven.GitHubClient
	logger     *slog.Logger
	batchSize  int
	batchDelay time.Duration
}

// NewCollectService creates a CollectService. batchSize and batchDelay pace
// the sequential fetches to stay under informal API courtesy limits; zero
// values select the defaults (10 PRs per batch, 100ms between batches).
func NewCollectService(ghClient driven.GitHubClient, logger *slog.Logger, batchSize int, batchDelay time.Duration) *CollectService {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	if batchDelay < 0 {
		batchDelay = defaultBatchDelay
	}
	return &CollectService{
		ghClient:   ghClient,
		logger:     logger,
		batchSize:  batchSize,
		batchDelay: batchDelay,
	}
}

// Collect fetches reviews, review comments, timeline events, merge info, and
// commits for every PR, sequentially and in batches. A fatal error (auth,
// rate limit) aborts the run; any other per-PR failure skips that PR and the
// run continues.
func (s *CollectService) Collect(ctx context.Context, prs []model.PullRequest) ([]model.PRBundle, error) {
	bundles := make([]model.PRBundle, 0, len(prs))

	totalBatches := (len(prs) + s.batchSize - 1) / s.batchSize
	for i := 0; i < len(prs); i += s.batchSize {
		end := i + s.batchSize
		if end > len(prs) {
			end = len(prs)
		}
		batch := prs[i:end]
		s.logger.Info("collecting batch",
			"batch", i/s.batchSize+1,
			"total_batches", totalBatches,
			"prs", len(batch),
		)

		for _, pr := range batch {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}

			bundle, err := s.collectOne(ctx, pr)
			if err != nil {
				if isFatal(err) {
					return nil, err
				}
				s.logger.Error("failed to collect pull request, skipping", "pr", pr.Number, "error", err)
				continue
			}
			bundles = append(bundles, bundle)
		}

		if end < len(prs) && s.batchDelay > 0 {
			s.logger.Debug("pacing between batches", "delay", s.batchDelay)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(s.batchDelay):
			}
		}
	}

	return bundles, nil
}

// collectOne fetches the five sub-resources for a single PR. Sub-fetch
// failures degrade to empty data unless they are fatal.
func (s *CollectService) collectOne(ctx context.Context, pr model.PullRequest) (model.PRBundle, error) {
	bundle := model.PRBundle{
		PR:             pr,
		Reviews:        []model.Review{},
		ReviewComments: []model.ReviewComment{},
		Timeline:       []model.TimelineEvent{},
		Commits:        []model.Commit{},
	}
	repo := pr.RepoFullName

	reviews, err := s.ghClient.FetchReviews(ctx, repo, pr.Number)
	if err != nil {
		if isFatal(err) {
			return model.PRBundle{}, err
		}
		s.warn(&bundle, "reviews", pr.Number, err)
	} else {
		bundle.Reviews = reviews
	}

	comments, err := s.ghClient.FetchReviewComments(ctx, repo, pr.Number)
	if err != nil {
		if isFatal(err) {
			return model.PRBundle{}, err
		}
		s.warn(&bundle, "review comments", pr.Number, err)
	} else {
		bundle.ReviewComments = comments
	}

	timeline, err := s.ghClient.FetchTimeline(ctx, repo, pr.Number)
	if err != nil {
		if isFatal(err) {
			return model.PRBundle{}, err
		}
		s.warn(&bundle, "timeline", pr.Number, err)
	} else {
		bundle.Timeline = timeline
	}

	mergeInfo, err := s.ghClient.FetchMergeInfo(ctx, repo, pr.Number)
	if err != nil {
		if isFatal(err) {
			return model.PRBundle{}, err
		}
		s.warn(&bundle, "merge info", pr.Number, err)
	} else {
		bundle.Merge = mergeInfo
	}

	commits, err := s.ghClient.FetchCommits(ctx, repo, pr.Number)
	if err != nil {
		if isFatal(err) {
			return model.PRBundle{}, err
		}
		s.warn(&bundle, "commits", pr.Number, err)
	} else {
		bundle.Commits = commits
	}

	return bundle, nil
}

func (s *CollectService) warn(bundle *model.PRBundle, what string, prNumber int, err error) {
	s.logger.Warn("sub-fetch failed, continuing with empty data",
		"resource", what, "pr", prNumber, "error", err)
	bundle.Warnings = append(bundle.Warnings, fmt.Sprintf("%s: %v", what, err))
}

// ExpandTeams resolves each requested team on a PR to its members,
// deduplicated across teams by login (the first team to reference a member
// keeps the tag). A team lookup failure logs a warning and skips that team;
// expansion is best-effort.
func (s *CollectService) ExpandTeams(ctx context.Context, teams []model.Team, org string) []model.TeamMember {
	if len(teams) == 0 {
		return nil
	}
	if org == "" {
		s.logger.Warn("no organization provided for team expansion, skipping")
		return nil
	}

	seen := make(map[string]bool)
	var members []model.TeamMember

	for _, team := range teams {
		if team.Slug == "" {
			s.logger.Warn("team missing slug, skipping", "team", team.Name)
			continue
		}
		teamName := team.Name
		if teamName == "" {
			teamName = team.Slug
		}

		teamMembers, err := s.ghClient.FetchTeamMembers(ctx, org, team.Slug)
		if err != nil {
			s.logger.Warn("failed to expand team", "org", org, "team", team.Slug, "error", err)
			continue
		}

		added := 0
		for _, m := range teamMembers {
			if m.Login == "" || seen[m.Login] {
				continue
			}
			seen[m.Login] = true
			members = append(members, model.TeamMember{Login: m.Login, TeamName: teamName})
			added++
		}
		s.logger.Debug("expanded team", "team", team.Slug, "members", added)
	}

	return members
}

// isFatal reports whether the error is one of the run-aborting kinds:
// authentication failure or rate-limit exhaustion.
func isFatal(err error) bool {
	var authErr *model.AuthError
	var rateErr *model.RateLimitError
	return errors.As(err, &authErr) || errors.As(err, &rateErr)
}
