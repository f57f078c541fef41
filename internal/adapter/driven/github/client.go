// Package github implements the GitHubClient port using the go-github library.
package github

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v82/github"
	"github.com/gregjones/httpcache"

	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit"

	"github.com/ericfisherdev/prpulse/internal/domain/model"
	"github.com/ericfisherdev/prpulse/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.GitHubClient = (*Client)(nil)

const (
	defaultMaxRetries = 3
	defaultBaseDelay  = time.Second
	perPage           = 100
)

// Client implements the driven.GitHubClient port using the go-github library.
type Client struct {
	gh         *gh.Client
	logger     *slog.Logger
	maxRetries int
	baseDelay  time.Duration
}

// Option configures optional Client parameters.
type Option func(*Client)

// WithRetryPolicy overrides the retry count and backoff base delay.
func WithRetryPolicy(maxRetries int, baseDelay time.Duration) Option {
	return func(c *Client) {
		c.maxRetries = maxRetries
		c.baseDelay = baseDelay
	}
}

// NewClient creates a new GitHub API client with the following transport stack:
//  1. httpcache (ETag-based conditional request caching)
//  2. go-github-ratelimit (secondary rate limit middleware, sleeps on 429)
//  3. go-github (GitHub REST API client with PAT auth)
//
// An empty token is rejected up front with an AuthError.
func NewClient(token string, logger *slog.Logger, opts ...Option) (*Client, error) {
	if token == "" {
		return nil, &model.AuthError{Reason: "token is required"}
	}

	cacheTransport := httpcache.NewMemoryCacheTransport()
	rateLimitClient := github_ratelimit.NewClient(cacheTransport)
	client := gh.NewClient(rateLimitClient).WithAuthToken(token)

	c := &Client{
		gh:         client,
		logger:     logger,
		maxRetries: defaultMaxRetries,
		baseDelay:  defaultBaseDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// NewClientWithHTTPClient creates a Client with a custom http.Client and base URL.
// This constructor is intended for testing, allowing injection of an httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL string, logger *slog.Logger, opts ...Option) (*Client, error) {
	client := gh.NewClient(httpClient)

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	client.BaseURL = u

	c := &Client{
		gh:         client,
		logger:     logger,
		maxRetries: defaultMaxRetries,
		baseDelay:  defaultBaseDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ValidateToken verifies the credential against the authenticated-user endpoint.
func (c *Client) ValidateToken(ctx context.Context) error {
	return c.withRetry(ctx, "authenticated user", func() error {
		_, resp, err := c.gh.Users.Get(ctx, "")
		if err != nil {
			return err
		}
		c.logRateLimit(resp, "user", 0, 1)
		return nil
	})
}

// FetchRepositoryInfo verifies the repository exists and is accessible with
// the configured credential. A 404 here means the repo is missing or the
// token cannot see it; either way the run cannot proceed.
func (c *Client) FetchRepositoryInfo(ctx context.Context, repoFullName string) (model.Repository, error) {
	owner, repo, err := splitRepo(repoFullName)
	if err != nil {
		return model.Repository{}, err
	}

	var r *gh.Repository
	err = c.withRetry(ctx, fmt.Sprintf("repository %s", repoFullName), func() error {
		var ghErr error
		var resp *gh.Response
		r, resp, ghErr = c.gh.Repositories.Get(ctx, owner, repo)
		if ghErr == nil {
			c.logRateLimit(resp, repoFullName, 0, 1)
		}
		return ghErr
	})
	if err != nil {
		return model.Repository{}, err
	}

	return model.Repository{
		FullName:      r.GetFullName(),
		Private:       r.GetPrivate(),
		DefaultBranch: r.GetDefaultBranch(),
	}, nil
}

// FetchPullRequests lists pull requests created on or after since, all states,
// sorted by creation date descending. Because results arrive newest first,
// pagination stops as soon as a PR older than since appears: every PR on the
// remaining pages is guaranteed older.
func (c *Client) FetchPullRequests(ctx context.Context, repoFullName string, since time.Time) ([]model.PullRequest, error) {
	owner, repo, err := splitRepo(repoFullName)
	if err != nil {
		return nil, err
	}

	opts := &gh.PullRequestListOptions{
		State:     "all",
		Sort:      "created",
		Direction: "desc",
		ListOptions: gh.ListOptions{
			PerPage: perPage,
		},
	}

	allPRs := []model.PullRequest{}

	for {
		var prs []*gh.PullRequest
		var resp *gh.Response
		err := c.withRetry(ctx, fmt.Sprintf("pull requests for %s", repoFullName), func() error {
			var ghErr error
			prs, resp, ghErr = c.gh.PullRequests.List(ctx, owner, repo, opts)
			return ghErr
		})
		if err != nil {
			return nil, err
		}

		c.logRateLimit(resp, repoFullName, opts.Page, len(prs))

		for _, pr := range prs {
			if pr.GetCreatedAt().Time.Before(since) {
				c.logger.Debug("reached pull requests older than window, stopping pagination",
					"repo", repoFullName, "since", since, "pr", pr.GetNumber())
				return allPRs, nil
			}
			allPRs = append(allPRs, mapPullRequest(pr, repoFullName))
		}

		if resp.NextPage == 0 || len(prs) < perPage {
			break
		}
		opts.Page = resp.NextPage
	}

	return allPRs, nil
}

// FetchReviews retrieves all submitted reviews for a pull request.
// A 404 is recovered as an empty list since PRs can be deleted mid-run.
func (c *Client) FetchReviews(ctx context.Context, repoFullName string, prNumber int) ([]model.Review, error) {
	owner, repo, err := splitRepo(repoFullName)
	if err != nil {
		return nil, err
	}

	opts := &gh.ListOptions{PerPage: perPage}
	allReviews := []model.Review{}

	for {
		var reviews []*gh.PullRequestReview
		var resp *gh.Response
		err := c.withRetry(ctx, fmt.Sprintf("reviews for %s#%d", repoFullName, prNumber), func() error {
			var ghErr error
			reviews, resp, ghErr = c.gh.PullRequests.ListReviews(ctx, owner, repo, prNumber, opts)
			return ghErr
		})
		if err != nil {
			if recovered, ok := recoverNotFound[model.Review](err, c.logger, repoFullName, prNumber); ok {
				return recovered, nil
			}
			return nil, err
		}

		for _, r := range reviews {
			allReviews = append(allReviews, model.Review{
				ReviewerLogin: r.GetUser().GetLogin(),
				State:         model.ReviewState(strings.ToUpper(r.GetState())),
				SubmittedAt:   r.GetSubmittedAt().Time,
			})
		}

		if resp.NextPage == 0 || len(reviews) < perPage {
			break
		}
		opts.Page = resp.NextPage
	}

	return allReviews, nil
}

// FetchReviewComments retrieves all inline review comments for a pull request.
// A 404 is recovered as an empty list.
func (c *Client) FetchReviewComments(ctx context.Context, repoFullName string, prNumber int) ([]model.ReviewComment, error) {
	owner, repo, err := splitRepo(repoFullName)
	if err != nil {
		return nil, err
	}

	opts := &gh.PullRequestListCommentsOptions{
		ListOptions: gh.ListOptions{PerPage: perPage},
	}
	allComments := []model.ReviewComment{}

	for {
		var comments []*gh.PullRequestComment
		var resp *gh.Response
		err := c.withRetry(ctx, fmt.Sprintf("review comments for %s#%d", repoFullName, prNumber), func() error {
			var ghErr error
			comments, resp, ghErr = c.gh.PullRequests.ListComments(ctx, owner, repo, prNumber, opts)
			return ghErr
		})
		if err != nil {
			if recovered, ok := recoverNotFound[model.ReviewComment](err, c.logger, repoFullName, prNumber); ok {
				return recovered, nil
			}
			return nil, err
		}

		for _, comment := range comments {
			allComments = append(allComments, model.ReviewComment{
				Author:    comment.GetUser().GetLogin(),
				CreatedAt: comment.GetCreatedAt().Time,
			})
		}

		if resp.NextPage == 0 || len(comments) < perPage {
			break
		}
		opts.Page = resp.NextPage
	}

	return allComments, nil
}

// FetchTimeline retrieves the issue timeline events for a pull request.
// go-github sends the preview accept header the timeline API requires.
// A 404 is recovered as an empty list.
func (c *Client) FetchTimeline(ctx context.Context, repoFullName string, prNumber int) ([]model.TimelineEvent, error) {
	owner, repo, err := splitRepo(repoFullName)
	if err != nil {
		return nil, err
	}

	opts := &gh.ListOptions{PerPage: perPage}
	allEvents := []model.TimelineEvent{}

	for {
		var events []*gh.Timeline
		var resp *gh.Response
		err := c.withRetry(ctx, fmt.Sprintf("timeline for %s#%d", repoFullName, prNumber), func() error {
			var ghErr error
			events, resp, ghErr = c.gh.Issues.ListIssueTimeline(ctx, owner, repo, prNumber, opts)
			return ghErr
		})
		if err != nil {
			if recovered, ok := recoverNotFound[model.TimelineEvent](err, c.logger, repoFullName, prNumber); ok {
				return recovered, nil
			}
			return nil, err
		}

		for _, ev := range events {
			allEvents = append(allEvents, model.TimelineEvent{
				Event:     ev.GetEvent(),
				CreatedAt: ev.GetCreatedAt().Time,
			})
		}

		if resp.NextPage == 0 || len(events) < perPage {
			break
		}
		opts.Page = resp.NextPage
	}

	return allEvents, nil
}

// FetchCommits retrieves all commits in a pull request with their author and
// committer timestamps. A 404 is recovered as an empty list.
func (c *Client) FetchCommits(ctx context.Context, repoFullName string, prNumber int) ([]model.Commit, error) {
	owner, repo, err := splitRepo(repoFullName)
	if err != nil {
		return nil, err
	}

	opts := &gh.ListOptions{PerPage: perPage}
	allCommits := []model.Commit{}

	for {
		var commits []*gh.RepositoryCommit
		var resp *gh.Response
		err := c.withRetry(ctx, fmt.Sprintf("commits for %s#%d", repoFullName, prNumber), func() error {
			var ghErr error
			commits, resp, ghErr = c.gh.PullRequests.ListCommits(ctx, owner, repo, prNumber, opts)
			return ghErr
		})
		if err != nil {
			if recovered, ok := recoverNotFound[model.Commit](err, c.logger, repoFullName, prNumber); ok {
				return recovered, nil
			}
			return nil, err
		}

		for _, rc := range commits {
			allCommits = append(allCommits, mapCommit(rc))
		}

		if resp.NextPage == 0 || len(commits) < perPage {
			break
		}
		opts.Page = resp.NextPage
	}

	return allCommits, nil
}

// FetchMergeInfo returns merge details for a merged PR, or nil, nil when the
// PR has not been merged.
func (c *Client) FetchMergeInfo(ctx context.Context, repoFullName string, prNumber int) (*model.MergeInfo, error) {
	owner, repo, err := splitRepo(repoFullName)
	if err != nil {
		return nil, err
	}

	var pr *gh.PullRequest
	err = c.withRetry(ctx, fmt.Sprintf("merge info for %s#%d", repoFullName, prNumber), func() error {
		var ghErr error
		var resp *gh.Response
		pr, resp, ghErr = c.gh.PullRequests.Get(ctx, owner, repo, prNumber)
		if ghErr == nil {
			c.logRateLimit(resp, repoFullName+"/merge-info", 0, 1)
		}
		return ghErr
	})
	if err != nil {
		return nil, err
	}

	if pr.GetMergedAt().IsZero() {
		return nil, nil
	}

	return &model.MergeInfo{
		MergedAt:       pr.GetMergedAt().Time,
		MergedBy:       pr.GetMergedBy().GetLogin(),
		MergeCommitSHA: pr.GetMergeCommitSHA(),
	}, nil
}

// FetchRequestedReviewers returns the currently requested users and teams for
// a pull request. A 404 is recovered as empty lists.
func (c *Client) FetchRequestedReviewers(ctx context.Context, repoFullName string, prNumber int) ([]model.Reviewer, []model.Team, error) {
	owner, repo, err := splitRepo(repoFullName)
	if err != nil {
		return nil, nil, err
	}

	var reviewers *gh.Reviewers
	err = c.withRetry(ctx, fmt.Sprintf("requested reviewers for %s#%d", repoFullName, prNumber), func() error {
		var ghErr error
		reviewers, _, ghErr = c.gh.PullRequests.ListReviewers(ctx, owner, repo, prNumber, nil)
		return ghErr
	})
	if err != nil {
		if isNotFound(err) {
			c.logger.Debug("no requested reviewers found", "repo", repoFullName, "pr", prNumber)
			return []model.Reviewer{}, []model.Team{}, nil
		}
		return nil, nil, err
	}

	users := make([]model.Reviewer, 0, len(reviewers.Users))
	for _, u := range reviewers.Users {
		users = append(users, model.Reviewer{Login: u.GetLogin()})
	}
	teams := make([]model.Team, 0, len(reviewers.Teams))
	for _, t := range reviewers.Teams {
		teams = append(teams, model.Team{Slug: t.GetSlug(), Name: t.GetName()})
	}
	return users, teams, nil
}

// FetchTeamMembers resolves a team to its member logins. A missing or
// inaccessible team yields an empty list so partial team expansion can continue.
func (c *Client) FetchTeamMembers(ctx context.Context, org string, teamSlug string) ([]model.Reviewer, error) {
	if org == "" || teamSlug == "" {
		return nil, &model.ValidationError{Field: "team", Reason: "organization name and team slug are required"}
	}

	opts := &gh.TeamListTeamMembersOptions{
		ListOptions: gh.ListOptions{PerPage: perPage},
	}
	members := []model.Reviewer{}

	for {
		var users []*gh.User
		var resp *gh.Response
		err := c.withRetry(ctx, fmt.Sprintf("members of team %s/%s", org, teamSlug), func() error {
			var ghErr error
			users, resp, ghErr = c.gh.Teams.ListTeamMembersBySlug(ctx, org, teamSlug, opts)
			return ghErr
		})
		if err != nil {
			if isNotFound(err) {
				c.logger.Warn("team not found or not accessible", "org", org, "team", teamSlug)
				return []model.Reviewer{}, nil
			}
			return nil, err
		}

		for _, u := range users {
			members = append(members, model.Reviewer{Login: u.GetLogin()})
		}

		if resp.NextPage == 0 || len(users) < perPage {
			break
		}
		opts.Page = resp.NextPage
	}

	return members, nil
}

// FetchUserLogin translates a numeric GitHub user ID to a login.
func (c *Client) FetchUserLogin(ctx context.Context, userID int64) (string, error) {
	if userID <= 0 {
		return "", &model.ValidationError{Field: "user ID", Reason: fmt.Sprintf("must be positive, got %d", userID)}
	}

	var user *gh.User
	err := c.withRetry(ctx, fmt.Sprintf("user %d", userID), func() error {
		var ghErr error
		user, _, ghErr = c.gh.Users.GetByID(ctx, userID)
		return ghErr
	})
	if err != nil {
		return "", err
	}
	return user.GetLogin(), nil
}

// RateLimitStatus queries the core API rate limit without retry wrapping;
// the call itself costs no application rate budget.
func (c *Client) RateLimitStatus(ctx context.Context) (driven.RateLimitStatus, error) {
	limits, _, err := c.gh.RateLimit.Get(ctx)
	if err != nil {
		return driven.RateLimitStatus{}, classify(err, "rate limit")
	}

	core := limits.GetCore()
	return driven.RateLimitStatus{
		Limit:     core.Limit,
		Remaining: core.Remaining,
		Used:      core.Limit - core.Remaining,
		Reset:     core.Reset.Time,
	}, nil
}

// mapPullRequest converts a go-github PullRequest to a domain model PullRequest.
// It uses GetXxx() helper methods exclusively to avoid nil pointer panics.
func mapPullRequest(pr *gh.PullRequest, repoFullName string) model.PullRequest {
	var mergedAt *time.Time
	if !pr.GetMergedAt().IsZero() {
		t := pr.GetMergedAt().Time
		mergedAt = &t
	}

	var creator *model.Account
	if pr.User != nil {
		creator = &model.Account{
			ID:    pr.GetUser().GetID(),
			Login: pr.GetUser().GetLogin(),
		}
	}

	reviewers := make([]model.Reviewer, 0, len(pr.RequestedReviewers))
	for _, r := range pr.RequestedReviewers {
		reviewers = append(reviewers, model.Reviewer{Login: r.GetLogin()})
	}

	teams := make([]model.Team, 0, len(pr.RequestedTeams))
	for _, t := range pr.RequestedTeams {
		teams = append(teams, model.Team{Slug: t.GetSlug(), Name: t.GetName()})
	}

	return model.PullRequest{
		Number:             pr.GetNumber(),
		RepoFullName:       repoFullName,
		Title:              pr.GetTitle(),
		State:              model.PRState(pr.GetState()),
		CreatedAt:          pr.GetCreatedAt().Time,
		MergedAt:           mergedAt,
		Creator:            creator,
		RequestedReviewers: reviewers,
		RequestedTeams:     teams,
	}
}

// mapCommit converts a go-github RepositoryCommit to a domain model Commit.
func mapCommit(rc *gh.RepositoryCommit) model.Commit {
	c := model.Commit{SHA: rc.GetSHA()}
	if d := rc.GetCommit().GetAuthor().GetDate(); !d.IsZero() {
		t := d.Time
		c.AuthorDate = &t
	}
	if d := rc.GetCommit().GetCommitter().GetDate(); !d.IsZero() {
		t := d.Time
		c.CommitterDate = &t
	}
	return c
}

// isNotFound reports whether the classified error is a NotFoundError.
func isNotFound(err error) bool {
	var nfe *model.NotFoundError
	return errors.As(err, &nfe)
}

// recoverNotFound converts a 404 on a per-PR sub-resource into an empty
// result. PRs can be deleted while a run is in flight.
func recoverNotFound[T any](err error, logger *slog.Logger, repoFullName string, prNumber int) ([]T, bool) {
	if !isNotFound(err) {
		return nil, false
	}
	logger.Warn("pull request not found, treating as empty", "repo", repoFullName, "pr", prNumber)
	return []T{}, true
}

// logRateLimit logs the GitHub API rate limit status after each call.
func (c *Client) logRateLimit(resp *gh.Response, endpoint string, page, count int) {
	if resp == nil {
		return
	}

	c.logger.Debug("github api call",
		"endpoint", endpoint,
		"page", page,
		"count", count,
		"rate_remaining", resp.Rate.Remaining,
		"rate_limit", resp.Rate.Limit,
	)

	if resp.Rate.Limit > 0 && resp.Rate.Remaining < 100 {
		c.logger.Warn("github rate limit low",
			"remaining", resp.Rate.Remaining,
			"reset_in", time.Until(resp.Rate.Reset.Time).Round(time.Second),
		)
	}
}

// splitRepo splits a "owner/repo" string into its two components.
func splitRepo(fullName string) (string, string, error) {
	parts := strings.SplitN(fullName, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", &model.ValidationError{Field: "repository", Reason: fmt.Sprintf("%q is not in owner/repo form", fullName)}
	}
	return parts[0], parts[1], nil
}
