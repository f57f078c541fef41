package model_test

import (
	"testing"
	"time"

	"github.com/ericfisherdev/prpulse/internal/domain/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var activityTime = time.Date(2024, 12, 1, 12, 0, 0, 0, time.UTC)

func TestQualifiesAsReview_Reviews(t *testing.T) {
	tests := []struct {
		state model.ReviewState
		want  bool
	}{
		{model.ReviewApproved, true},
		{model.ReviewChangesRequested, true},
		{model.ReviewCommented, true},
		{model.ReviewDismissed, false},
		{model.ReviewPending, false},
	}

	for _, tc := range tests {
		t.Run(string(tc.state), func(t *testing.T) {
			a := model.Review{State: tc.state, SubmittedAt: activityTime}.Activity()
			assert.Equal(t, tc.want, a.QualifiesAsReview())
		})
	}
}

func TestQualifiesAsReview_TimelineEvents(t *testing.T) {
	tests := []struct {
		event string
		want  bool
	}{
		{"approved", true},
		{"changes-requested", true},
		{"commented", true},
		{"reviewed", true},
		{"labeled", false},
		{"assigned", false},
	}

	for _, tc := range tests {
		t.Run(tc.event, func(t *testing.T) {
			a := model.TimelineEvent{Event: tc.event, CreatedAt: activityTime}.Activity()
			assert.Equal(t, tc.want, a.QualifiesAsReview())
		})
	}
}

func TestQualifiesAsReview_ReviewCommentAlwaysQualifies(t *testing.T) {
	a := model.ReviewComment{Author: "alice", CreatedAt: activityTime}.Activity()
	assert.True(t, a.QualifiesAsReview())
}

func TestQualifiesAsReview_ZeroTimestampDisqualifies(t *testing.T) {
	a := model.Review{State: model.ReviewApproved}.Activity()
	assert.False(t, a.QualifiesAsReview())
}

func TestFirstReviewActivity(t *testing.T) {
	activities := []model.ReviewActivity{
		model.Review{State: model.ReviewApproved, SubmittedAt: activityTime.Add(2 * time.Hour)}.Activity(),
		model.ReviewComment{CreatedAt: activityTime}.Activity(),
		model.TimelineEvent{Event: "commented", CreatedAt: activityTime.Add(time.Hour)}.Activity(),
		// Earlier but non-qualifying: must be ignored.
		model.TimelineEvent{Event: "labeled", CreatedAt: activityTime.Add(-time.Hour)}.Activity(),
	}

	first, ok := model.FirstReviewActivity(activities)
	require.True(t, ok)
	assert.Equal(t, activityTime, first.OccurredAt)
	assert.Equal(t, model.ActivityReviewComment, first.Kind)
}

func TestFirstReviewActivity_NoneQualifies(t *testing.T) {
	activities := []model.ReviewActivity{
		model.TimelineEvent{Event: "labeled", CreatedAt: activityTime}.Activity(),
		model.Review{State: model.ReviewPending, SubmittedAt: activityTime}.Activity(),
	}

	_, ok := model.FirstReviewActivity(activities)
	assert.False(t, ok)
}

func TestCommitDate_PrefersAuthorDate(t *testing.T) {
	author := activityTime
	committer := activityTime.Add(time.Hour)

	c := model.Commit{SHA: "abc", AuthorDate: &author, CommitterDate: &committer}
	d, ok := c.Date()
	require.True(t, ok)
	assert.Equal(t, author, d)

	c = model.Commit{SHA: "abc", CommitterDate: &committer}
	d, ok = c.Date()
	require.True(t, ok)
	assert.Equal(t, committer, d)

	_, ok = model.Commit{SHA: "abc"}.Date()
	assert.False(t, ok)
}

func TestFirstCommitDate(t *testing.T) {
	early := activityTime.Add(-48 * time.Hour)
	late := activityTime

	commits := []model.Commit{
		{SHA: "b", AuthorDate: &late},
		{SHA: "a", AuthorDate: &early},
		{SHA: "c"}, // no usable date
	}

	d, ok := model.FirstCommitDate(commits)
	require.True(t, ok)
	assert.Equal(t, early, d)

	_, ok = model.FirstCommitDate([]model.Commit{{SHA: "c"}})
	assert.False(t, ok)
}

func TestReviewerRecord_IsTeam(t *testing.T) {
	assert.True(t, model.ReviewerRecord{Login: "team:Backend"}.IsTeam())
	assert.False(t, model.ReviewerRecord{Login: "alice"}.IsTeam())
	assert.False(t, model.ReviewerRecord{Login: "team:"}.IsTeam())
}

func TestOverloadAnalysis_TierFor(t *testing.T) {
	analysis := model.OverloadAnalysis{
		Overloaded: []string{"ada"},
		High:       []string{"bea"},
		Normal:     []string{"cam"},
	}

	assert.Equal(t, model.TierOverloaded, analysis.TierFor("ada"))
	assert.Equal(t, model.TierHigh, analysis.TierFor("bea"))
	assert.Equal(t, model.TierNormal, analysis.TierFor("cam"))
	assert.Equal(t, model.TierNormal, analysis.TierFor("unknown"))
}
