package application_test

import (
	"testing"
	"time"

	"github.com/ericfisherdev/prpulse/internal/application"
	"github.com/ericfisherdev/prpulse/internal/domain/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookbackStart(t *testing.T) {
	now := time.Date(2024, 12, 15, 10, 0, 0, 0, time.UTC)

	since, err := application.LookbackStart(now, 1)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 11, 15, 10, 0, 0, 0, time.UTC), since)

	since, err = application.LookbackStart(now, 6)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC), since)
}

func TestLookbackStart_InvalidMonths(t *testing.T) {
	for _, months := range []int{0, -1} {
		_, err := application.LookbackStart(time.Now(), months)
		require.Error(t, err)
		var verr *model.ValidationError
		assert.ErrorAs(t, err, &verr)
	}
}

// fullBundle builds a merged, reviewed PR with known timings:
// created 2024-12-01T10:00, first review 4h later, merged 28h after
// creation, first commit 22h before creation (lead time 50h to merge).
func fullBundle() model.PRBundle {
	created := time.Date(2024, 12, 1, 10, 0, 0, 0, time.UTC)
	reviewAt := created.Add(4 * time.Hour)
	mergedAt := created.Add(28 * time.Hour)
	firstCommit := created.Add(-22 * time.Hour)

	return model.PRBundle{
		PR: model.PullRequest{
			Number:       42,
			RepoFullName: "owner/repo",
			Title:        "Add feature",
			State:        model.PRStateClosed,
			CreatedAt:    created,
			Creator:      &model.Account{ID: 7, Login: "alice"},
		},
		Reviews: []model.Review{
			{ReviewerLogin: "bob", State: model.ReviewApproved, SubmittedAt: reviewAt},
		},
		ReviewComments: []model.ReviewComment{},
		Timeline:       []model.TimelineEvent{},
		Merge:          &model.MergeInfo{MergedAt: mergedAt, MergedBy: "carol", MergeCommitSHA: "abc"},
		Commits: []model.Commit{
			{SHA: "abc", AuthorDate: &firstCommit},
		},
	}
}

func TestAnalyze_TimingMetrics(t *testing.T) {
	svc := application.NewLifecycleService(testLogger())
	report, err := svc.Analyze([]model.PRBundle{fullBundle()}, "owner/repo")

	require.NoError(t, err)
	require.Len(t, report.Results, 1)

	r := report.Results[0]
	assert.Equal(t, 42, r.PRNumber)
	assert.Equal(t, "owner/repo", r.RepositoryName)
	assert.Equal(t, "7", r.CreatorID)
	assert.Equal(t, "alice", r.CreatorLogin)

	require.NotNil(t, r.TimeToFirstReviewHrs)
	assert.Equal(t, 4.0, *r.TimeToFirstReviewHrs)
	require.NotNil(t, r.TimeToMergeHrs)
	assert.Equal(t, 28.0, *r.TimeToMergeHrs)
	require.NotNil(t, r.CommitLeadTimeHrs)
	assert.Equal(t, 50.0, *r.CommitLeadTimeHrs)

	assert.True(t, r.HasReviews)
	assert.Equal(t, 1, r.ReviewCount)
	assert.Equal(t, 1, r.CommitCount)
	assert.True(t, r.IsMerged)
}

func TestAnalyze_HoursRoundedToTwoDecimals(t *testing.T) {
	b := fullBundle()
	// 90 minutes and 20 seconds: 1.5055... hours rounds to 1.51.
	reviewAt := b.PR.CreatedAt.Add(90*time.Minute + 20*time.Second)
	b.Reviews = []model.Review{{ReviewerLogin: "bob", State: model.ReviewCommented, SubmittedAt: reviewAt}}

	svc := application.NewLifecycleService(testLogger())
	report, err := svc.Analyze([]model.PRBundle{b}, "owner/repo")

	require.NoError(t, err)
	require.NotNil(t, report.Results[0].TimeToFirstReviewHrs)
	assert.Equal(t, 1.51, *report.Results[0].TimeToFirstReviewHrs)
}

func TestAnalyze_UnmergedPR(t *testing.T) {
	b := fullBundle()
	b.Merge = nil

	svc := application.NewLifecycleService(testLogger())
	report, err := svc.Analyze([]model.PRBundle{b}, "owner/repo")

	require.NoError(t, err)
	r := report.Results[0]
	assert.Nil(t, r.TimeToMergeHrs)
	assert.Nil(t, r.CommitLeadTimeHrs, "lead time requires a merge")
	assert.NotNil(t, r.TimeToFirstReviewHrs, "review timing is independent of merge state")
	assert.False(t, r.IsMerged)
}

func TestAnalyze_NoQualifyingReviewActivity(t *testing.T) {
	b := fullBundle()
	// Dismissed reviews and non-review timeline events do not count.
	b.Reviews = []model.Review{
		{ReviewerLogin: "bob", State: model.ReviewDismissed, SubmittedAt: b.PR.CreatedAt.Add(time.Hour)},
	}
	b.Timeline = []model.TimelineEvent{
		{Event: "labeled", CreatedAt: b.PR.CreatedAt.Add(time.Minute)},
	}

	svc := application.NewLifecycleService(testLogger())
	report, err := svc.Analyze([]model.PRBundle{b}, "owner/repo")

	require.NoError(t, err)
	assert.Nil(t, report.Results[0].TimeToFirstReviewHrs)
}

func TestAnalyze_ReviewCommentQualifies(t *testing.T) {
	b := fullBundle()
	b.Reviews = []model.Review{}
	b.ReviewComments = []model.ReviewComment{
		{Author: "bob", CreatedAt: b.PR.CreatedAt.Add(2 * time.Hour)},
	}

	svc := application.NewLifecycleService(testLogger())
	report, err := svc.Analyze([]model.PRBundle{b}, "owner/repo")

	require.NoError(t, err)
	r := report.Results[0]
	require.NotNil(t, r.TimeToFirstReviewHrs)
	assert.Equal(t, 2.0, *r.TimeToFirstReviewHrs)
	assert.False(t, r.HasReviews, "inline comments do not count as formal reviews")
}

func TestAnalyze_EarliestActivityWins(t *testing.T) {
	b := fullBundle()
	// A qualifying timeline event precedes the formal review.
	b.Timeline = []model.TimelineEvent{
		{Event: "commented", CreatedAt: b.PR.CreatedAt.Add(time.Hour)},
	}

	svc := application.NewLifecycleService(testLogger())
	report, err := svc.Analyze([]model.PRBundle{b}, "owner/repo")

	require.NoError(t, err)
	require.NotNil(t, report.Results[0].TimeToFirstReviewHrs)
	assert.Equal(t, 1.0, *report.Results[0].TimeToFirstReviewHrs)
}

func TestAnalyze_CreatorMissingData(t *testing.T) {
	tests := []struct {
		name      string
		creator   *model.Account
		wantID    string
		wantLogin string
	}{
		{name: "deleted account", creator: nil, wantID: "", wantLogin: ""},
		{name: "missing id", creator: &model.Account{Login: "alice"}, wantID: "", wantLogin: "alice"},
		{name: "missing login", creator: &model.Account{ID: 7}, wantID: "7", wantLogin: ""},
	}

	svc := application.NewLifecycleService(testLogger())
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			b := fullBundle()
			b.PR.Creator = tc.creator

			report, err := svc.Analyze([]model.PRBundle{b}, "owner/repo")
			require.NoError(t, err)
			assert.Equal(t, tc.wantID, report.Results[0].CreatorID)
			assert.Equal(t, tc.wantLogin, report.Results[0].CreatorLogin)
		})
	}
}

func TestAnalyze_SkipsMalformedEntries(t *testing.T) {
	bad := model.PRBundle{PR: model.PullRequest{Number: 0}}

	svc := application.NewLifecycleService(testLogger())
	report, err := svc.Analyze([]model.PRBundle{fullBundle(), bad}, "owner/repo")

	require.NoError(t, err)
	assert.Len(t, report.Results, 1)
	assert.Equal(t, 1, report.Summary.TotalAnalyzed)
	assert.Equal(t, 1, report.Summary.SkippedCount)
}

func TestAnalyze_EmptyRepositoryName(t *testing.T) {
	svc := application.NewLifecycleService(testLogger())
	_, err := svc.Analyze([]model.PRBundle{fullBundle()}, "")

	require.Error(t, err)
	var verr *model.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestAnalyze_AveragesExcludeAbsentMetrics(t *testing.T) {
	merged := fullBundle()

	unmerged := fullBundle()
	unmerged.PR.Number = 43
	unmerged.Merge = nil
	unmerged.Reviews = []model.Review{}

	svc := application.NewLifecycleService(testLogger())
	report, err := svc.Analyze([]model.PRBundle{merged, unmerged}, "owner/repo")

	require.NoError(t, err)
	s := report.Summary
	assert.Equal(t, 2, s.TotalAnalyzed)
	assert.Equal(t, 1, s.MergedCount)
	assert.Equal(t, 1, s.ReviewedCount)

	// Only the merged PR contributes; the unmerged one is excluded from both
	// numerator and denominator.
	require.NotNil(t, s.AvgTimeToMerge)
	assert.Equal(t, 28.0, *s.AvgTimeToMerge)
	require.NotNil(t, s.AvgTimeToFirstReview)
	assert.Equal(t, 4.0, *s.AvgTimeToFirstReview)
}

func TestAnalyze_NoMetricsYieldsNilAverages(t *testing.T) {
	b := fullBundle()
	b.Merge = nil
	b.Reviews = []model.Review{}

	svc := application.NewLifecycleService(testLogger())
	report, err := svc.Analyze([]model.PRBundle{b}, "owner/repo")

	require.NoError(t, err)
	assert.Nil(t, report.Summary.AvgTimeToFirstReview)
	assert.Nil(t, report.Summary.AvgTimeToMerge)
	assert.Nil(t, report.Summary.AvgCommitLeadTime)
}
