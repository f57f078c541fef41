package model

import "time"

// LifecycleResult holds the per-PR timing metrics. The three hour metrics
// are nil when the underlying data was absent (never coerced to zero).
type LifecycleResult struct {
	PRNumber              int
	Title                 string
	State                 PRState
	CreatedAt             time.Time
	MergedAt              *time.Time
	RepositoryName        string
	CreatorID             string // numeric GitHub ID as string, "" when unavailable
	CreatorLogin          string // "" when unavailable
	TimeToFirstReviewHrs  *float64
	TimeToMergeHrs        *float64
	CommitLeadTimeHrs     *float64
	HasReviews            bool
	ReviewCount           int
	ReviewCommentCount    int
	CommitCount           int
	IsMerged              bool
}

// LifecycleSummary aggregates a run of lifecycle results. Averages are
// computed only over PRs with a present value for each metric.
type LifecycleSummary struct {
	RepositoryName       string
	TotalAnalyzed        int
	MergedCount          int
	ReviewedCount        int
	SkippedCount         int // malformed entries dropped during analysis
	AvgTimeToFirstReview *float64
	AvgTimeToMerge       *float64
	AvgCommitLeadTime    *float64
}

// LifecycleReport bundles the summary with the per-PR details.
type LifecycleReport struct {
	Summary LifecycleSummary
	Results []LifecycleResult
}
