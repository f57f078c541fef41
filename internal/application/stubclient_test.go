package application_test

import (
	"context"
	"time"

	"github.com/ericfisherdev/prpulse/internal/domain/model"
	"github.com/ericfisherdev/prpulse/internal/domain/port/driven"
)

// stubGitHubClient implements driven.GitHubClient with overridable function
// fields. Unset fields return empty data so each test only wires the calls
// it cares about.
type stubGitHubClient struct {
	reviewsFn        func(repo string, pr int) ([]model.Review, error)
	reviewCommentsFn func(repo string, pr int) ([]model.ReviewComment, error)
	timelineFn       func(repo string, pr int) ([]model.TimelineEvent, error)
	commitsFn        func(repo string, pr int) ([]model.Commit, error)
	mergeInfoFn      func(repo string, pr int) (*model.MergeInfo, error)
	teamMembersFn    func(org, slug string) ([]model.Reviewer, error)
}

var _ driven.GitHubClient = (*stubGitHubClient)(nil)

func (s *stubGitHubClient) ValidateToken(ctx context.Context) error { return nil }

func (s *stubGitHubClient) FetchRepositoryInfo(ctx context.Context, repo string) (model.Repository, error) {
	return model.Repository{FullName: repo}, nil
}

func (s *stubGitHubClient) FetchPullRequests(ctx context.Context, repo string, since time.Time) ([]model.PullRequest, error) {
	return nil, nil
}

func (s *stubGitHubClient) FetchReviews(ctx context.Context, repo string, pr int) ([]model.Review, error) {
	if s.reviewsFn != nil {
		return s.reviewsFn(repo, pr)
	}
	return []model.Review{}, nil
}

func (s *stubGitHubClient) FetchReviewComments(ctx context.Context, repo string, pr int) ([]model.ReviewComment, error) {
	if s.reviewCommentsFn != nil {
		return s.reviewCommentsFn(repo, pr)
	}
	return []model.ReviewComment{}, nil
}

func (s *stubGitHubClient) FetchTimeline(ctx context.Context, repo string, pr int) ([]model.TimelineEvent, error) {
	if s.timelineFn != nil {
		return s.timelineFn(repo, pr)
	}
	return []model.TimelineEvent{}, nil
}

func (s *stubGitHubClient) FetchCommits(ctx context.Context, repo string, pr int) ([]model.Commit, error) {
	if s.commitsFn != nil {
		return s.commitsFn(repo, pr)
	}
	return []model.Commit{}, nil
}

func (s *stubGitHubClient) FetchMergeInfo(ctx context.Context, repo string, pr int) (*model.MergeInfo, error) {
	if s.mergeInfoFn != nil {
		return s.mergeInfoFn(repo, pr)
	}
	return nil, nil
}

func (s *stubGitHubClient) FetchRequestedReviewers(ctx context.Context, repo string, pr int) ([]model.Reviewer, []model.Team, error) {
	return []model.Reviewer{}, []model.Team{}, nil
}

func (s *stubGitHubClient) FetchTeamMembers(ctx context.Context, org, slug string) ([]model.Reviewer, error) {
	if s.teamMembersFn != nil {
		return s.teamMembersFn(org, slug)
	}
	return []model.Reviewer{}, nil
}

func (s *stubGitHubClient) FetchUserLogin(ctx context.Context, userID int64) (string, error) {
	return "", nil
}

func (s *stubGitHubClient) RateLimitStatus(ctx context.Context) (driven.RateLimitStatus, error) {
	return driven.RateLimitStatus{}, nil
}
