package model

import "time"

// ReviewState is a review's verdict as reported by GitHub (upper-cased).
type ReviewState string

const (
	ReviewApproved         ReviewState = "APPROVED"
	ReviewChangesRequested ReviewState = "CHANGES_REQUESTED"
	ReviewCommented        ReviewState = "COMMENTED"
	ReviewDismissed        ReviewState = "DISMISSED"
	ReviewPending          ReviewState = "PENDING"
)

// Review is a submitted pull request review.
type Review struct {
	ReviewerLogin string
	State         ReviewState
	SubmittedAt   time.Time
}

// ReviewComment is an inline code comment on a pull request diff.
type ReviewComment struct {
	Author    string
	CreatedAt time.Time
}

// TimelineEvent is a single event from the issue timeline API.
type TimelineEvent struct {
	Event     string
	CreatedAt time.Time
}

// ActivityKind discriminates the review-activity union.
type ActivityKind int

const (
	ActivityReview ActivityKind = iota
	ActivityReviewComment
	ActivityTimelineEvent
)

// ReviewActivity is the tagged union over reviews, review comments, and
// timeline events. Each activity carries exactly one timestamp, used for
// ordering when locating the first review activity on a PR.
type ReviewActivity struct {
	Kind       ActivityKind
	State      ReviewState // set for Kind == ActivityReview
	Event      string      // set for Kind == ActivityTimelineEvent
	OccurredAt time.Time
}

// Activity converts the review into its union representation.
func (r Review) Activity() ReviewActivity {
	return ReviewActivity{Kind: ActivityReview, State: r.State, OccurredAt: r.SubmittedAt}
}

// Activity converts the review comment into its union representation.
func (c ReviewComment) Activity() ReviewActivity {
	return ReviewActivity{Kind: ActivityReviewComment, OccurredAt: c.CreatedAt}
}

// Activity converts the timeline event into its union representation.
func (e TimelineEvent) Activity() ReviewActivity {
	return ReviewActivity{Kind: ActivityTimelineEvent, Event: e.Event, OccurredAt: e.CreatedAt}
}

// QualifiesAsReview reports whether the activity counts toward
// time-to-first-review. Review comments always qualify; reviews qualify for
// approved/changes-requested/commented verdicts; timeline events qualify for
// the review-shaped event kinds.
func (a ReviewActivity) QualifiesAsReview() bool {
	if a.OccurredAt.IsZero() {
		return false
	}
	switch a.Kind {
	case ActivityReviewComment:
		return true
	case ActivityReview:
		switch a.State {
		case ReviewApproved, ReviewChangesRequested, ReviewCommented:
			return true
		}
		return false
	case ActivityTimelineEvent:
		switch a.Event {
		case "approved", "changes-requested", "commented", "reviewed":
			return true
		}
		return false
	}
	return false
}

// FirstReviewActivity returns the qualifying activity with the minimum
// timestamp, or ok=false when none qualifies.
func FirstReviewActivity(activities []ReviewActivity) (ReviewActivity, bool) {
	var first ReviewActivity
	var found bool
	for _, a := range activities {
		if !a.QualifiesAsReview() {
			continue
		}
		if !found || a.OccurredAt.Before(first.OccurredAt) {
			first = a
			found = true
		}
	}
	return first, found
}
