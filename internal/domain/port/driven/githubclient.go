package driven

import (
	"context"
	"time"

	"github.com/ericfisherdev/prpulse/internal/domain/model"
)

// RateLimitStatus is a snapshot of the core API rate limit.
type RateLimitStatus struct {
	Limit     int
	Remaining int
	Used      int
	Reset     time.Time
}

// GitHubClient defines the driven port for the GitHub REST API surface the
// analyzers consume. All methods are read-only.
type GitHubClient interface {
	// ValidateToken verifies the configured credential against GET /user.
	ValidateToken(ctx context.Context) error

	// FetchRepositoryInfo verifies the repository exists and is accessible.
	FetchRepositoryInfo(ctx context.Context, repoFullName string) (model.Repository, error)

	// FetchPullRequests lists PRs created on or after since, newest first.
	// Pagination stops early once a PR older than since is encountered.
	FetchPullRequests(ctx context.Context, repoFullName string, since time.Time) ([]model.PullRequest, error)

	FetchReviews(ctx context.Context, repoFullName string, prNumber int) ([]model.Review, error)
	FetchReviewComments(ctx context.Context, repoFullName string, prNumber int) ([]model.ReviewComment, error)
	FetchTimeline(ctx context.Context, repoFullName string, prNumber int) ([]model.TimelineEvent, error)
	FetchCommits(ctx context.Context, repoFullName string, prNumber int) ([]model.Commit, error)

	// FetchMergeInfo returns nil, nil when the PR has not been merged.
	FetchMergeInfo(ctx context.Context, repoFullName string, prNumber int) (*model.MergeInfo, error)

	// FetchRequestedReviewers returns the current requested users and teams.
	FetchRequestedReviewers(ctx context.Context, repoFullName string, prNumber int) ([]model.Reviewer, []model.Team, error)

	// FetchTeamMembers resolves a team to its member logins. A missing or
	// inaccessible team yields an empty list, not an error.
	FetchTeamMembers(ctx context.Context, org string, teamSlug string) ([]model.Reviewer, error)

	// FetchUserLogin translates a numeric GitHub user ID to a login.
	FetchUserLogin(ctx context.Context, userID int64) (string, error)

	// RateLimitStatus queries the current core rate limit budget.
	RateLimitStatus(ctx context.Context) (RateLimitStatus, error)
}
