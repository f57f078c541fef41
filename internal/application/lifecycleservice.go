package application

import (
	"log/slog"
	"math"
	"strconv"
	"time"

	"github.com/ericfisherdev/prpulse/internal/domain/model"
)

// LifecycleService computes per-PR lifecycle timing metrics and the run-level
// summary. It is stateless across PRs: each bundle is analyzed independently
// and only the final aggregation sees them together.
type LifecycleService struct {
	logger *slog.Logger
}

// NewLifecycleService creates a LifecycleService.
func NewLifecycleService(logger *slog.Logger) *LifecycleService {
	return &LifecycleService{logger: logger}
}

// LookbackStart returns the start of an N-calendar-month lookback window
// ending at now.
func LookbackStart(now time.Time, monthsBack int) (time.Time, error) {
	if monthsBack < 1 {
		return time.Time{}, &model.ValidationError{Field: "months", Reason: "must be at least 1"}
	}
	return now.AddDate(0, -monthsBack, 0), nil
}

// Analyze computes the three timing metrics for every collected PR and
// aggregates them into a report. Malformed entries (missing PR number) are
// skipped and counted; the call only fails for an empty repository name.
func (s *LifecycleService) Analyze(bundles []model.PRBundle, repoFullName string) (model.LifecycleReport, error) {
	if repoFullName == "" {
		return model.LifecycleReport{}, &model.ValidationError{Field: "repository", Reason: "name is required"}
	}

	results := make([]model.LifecycleResult, 0, len(bundles))
	skipped := 0

	for _, b := range bundles {
		if b.PR.Number <= 0 {
			s.logger.Warn("pull request missing number, skipping")
			skipped++
			continue
		}

		results = append(results, s.analyzeOne(b, repoFullName))
	}

	s.logger.Info("lifecycle analysis complete",
		"repo", repoFullName,
		"analyzed", len(results),
		"skipped", skipped,
	)

	report := model.LifecycleReport{
		Summary: summarize(results, repoFullName, skipped),
		Results: results,
	}
	return report, nil
}

// analyzeOne derives the full result record for a single PR bundle. It never
// fails: missing data leaves the corresponding metric absent.
func (s *LifecycleService) analyzeOne(b model.PRBundle, repoFullName string) model.LifecycleResult {
	pr := b.PR

	var mergedAt *time.Time
	if b.Merge != nil {
		t := b.Merge.MergedAt
		mergedAt = &t
	}

	creatorID, creatorLogin := s.creatorData(pr)

	return model.LifecycleResult{
		PRNumber:             pr.Number,
		Title:                pr.Title,
		State:                pr.State,
		CreatedAt:            pr.CreatedAt,
		MergedAt:             mergedAt,
		RepositoryName:       repoFullName,
		CreatorID:            creatorID,
		CreatorLogin:         creatorLogin,
		TimeToFirstReviewHrs: s.timeToFirstReview(pr, b.Activities()),
		TimeToMergeHrs:       s.timeToMerge(pr, b.Merge),
		CommitLeadTimeHrs:    s.commitLeadTime(pr, b.Commits, b.Merge),
		HasReviews:           len(b.Reviews) > 0,
		ReviewCount:          len(b.Reviews),
		ReviewCommentCount:   len(b.ReviewComments),
		CommitCount:          len(b.Commits),
		IsMerged:             b.Merge != nil,
	}
}

// timeToFirstReview returns the hours from PR creation to the earliest
// qualifying review activity, or nil when no activity qualifies or the PR
// creation time is missing. Timestamps with different zone suffixes compare
// as instants, so "Z" and explicit offsets agree.
func (s *LifecycleService) timeToFirstReview(pr model.PullRequest, activities []model.ReviewActivity) *float64 {
	if pr.CreatedAt.IsZero() {
		return nil
	}

	first, ok := model.FirstReviewActivity(activities)
	if !ok {
		s.logger.Debug("no review activity found", "pr", pr.Number)
		return nil
	}

	return roundHours(first.OccurredAt.Sub(pr.CreatedAt))
}

// timeToMerge returns the hours from PR creation to merge, or nil when the
// PR was not merged or the creation time is missing.
func (s *LifecycleService) timeToMerge(pr model.PullRequest, merge *model.MergeInfo) *float64 {
	if merge == nil || merge.MergedAt.IsZero() {
		return nil
	}
	if pr.CreatedAt.IsZero() {
		return nil
	}
	return roundHours(merge.MergedAt.Sub(pr.CreatedAt))
}

// commitLeadTime returns the hours from the first commit to merge, or nil
// when the PR was not merged or no commit carries a usable date. The first
// commit is the minimum across all commits, preferring author dates over
// committer dates.
func (s *LifecycleService) commitLeadTime(pr model.PullRequest, commits []model.Commit, merge *model.MergeInfo) *float64 {
	if merge == nil || merge.MergedAt.IsZero() {
		return nil
	}

	firstCommit, ok := model.FirstCommitDate(commits)
	if !ok {
		if len(commits) > 0 {
			s.logger.Warn("no commit with a parseable date", "pr", pr.Number)
		}
		return nil
	}

	return roundHours(merge.MergedAt.Sub(firstCommit))
}

// creatorData extracts the creator's GitHub ID and login, each independently
// defaulting to empty when absent or invalid. It never fails; the specific
// reason for partial data is logged.
func (s *LifecycleService) creatorData(pr model.PullRequest) (string, string) {
	if pr.Creator == nil {
		s.logger.Warn("pull request has no user data, possibly a deleted account", "pr", pr.Number)
		return "", ""
	}

	id := ""
	if pr.Creator.ID > 0 {
		id = strconv.FormatInt(pr.Creator.ID, 10)
	} else if pr.Creator.ID < 0 {
		s.logger.Warn("pull request creator has non-positive GitHub ID", "pr", pr.Number, "id", pr.Creator.ID)
	} else {
		s.logger.Info("pull request creator missing GitHub ID", "pr", pr.Number)
	}

	login := pr.Creator.Login
	if login == "" {
		s.logger.Info("pull request creator missing login", "pr", pr.Number)
	}

	return id, login
}

// summarize aggregates per-PR results into the run summary. Each average is
// computed only over PRs where that metric is present; absent values are
// excluded from both numerator and denominator.
func summarize(results []model.LifecycleResult, repoFullName string, skipped int) model.LifecycleSummary {
	summary := model.LifecycleSummary{
		RepositoryName: repoFullName,
		TotalAnalyzed:  len(results),
		SkippedCount:   skipped,
	}

	var reviewTimes, mergeTimes, leadTimes []float64
	for _, r := range results {
		if r.IsMerged {
			summary.MergedCount++
		}
		if r.HasReviews {
			summary.ReviewedCount++
		}
		if r.TimeToFirstReviewHrs != nil {
			reviewTimes = append(reviewTimes, *r.TimeToFirstReviewHrs)
		}
		if r.TimeToMergeHrs != nil {
			mergeTimes = append(mergeTimes, *r.TimeToMergeHrs)
		}
		if r.CommitLeadTimeHrs != nil {
			leadTimes = append(leadTimes, *r.CommitLeadTimeHrs)
		}
	}

	summary.AvgTimeToFirstReview = meanOf(reviewTimes)
	summary.AvgTimeToMerge = meanOf(mergeTimes)
	summary.AvgCommitLeadTime = meanOf(leadTimes)
	return summary
}

func meanOf(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	m := math.Round(sum/float64(len(values))*100) / 100
	return &m
}

// roundHours converts a duration to hours rounded to two decimals.
func roundHours(d time.Duration) *float64 {
	h := math.Round(d.Hours()*100) / 100
	return &h
}
