package model

import "time"

// PRState is the open/closed state of a pull request as reported by GitHub.
type PRState string

const (
	PRStateOpen   PRState = "open"
	PRStateClosed PRState = "closed"
)

// Account identifies a GitHub user. Either field may be empty when the
// source account was deleted or the API omitted it.
type Account struct {
	ID    int64
	Login string
}

// Reviewer is an individually requested reviewer on a pull request.
type Reviewer struct {
	Login string
}

// Team is a requested reviewer team on a pull request.
type Team struct {
	Slug string
	Name string
}

// TeamMember is an individual member produced by expanding a requested team.
type TeamMember struct {
	Login    string
	TeamName string
}

// Repository is the minimal repository record used for access validation
// before a run starts.
type Repository struct {
	FullName      string
	Private       bool
	DefaultBranch string
}

// PullRequest represents a GitHub pull request as returned by the list
// endpoint. Records are immutable after fetch and live only for one run.
type PullRequest struct {
	Number             int
	RepoFullName       string
	Title              string
	State              PRState
	CreatedAt          time.Time
	MergedAt           *time.Time // nil when not merged
	Creator            *Account   // nil when the user object was absent
	RequestedReviewers []Reviewer
	RequestedTeams     []Team
}

// IsMerged reports whether the list payload carried a merge timestamp.
// The authoritative merge record is MergeInfo, fetched per PR.
func (pr PullRequest) IsMerged() bool {
	return pr.MergedAt != nil && !pr.MergedAt.IsZero()
}

// MergeInfo holds merge details for a merged pull request. Present iff the
// PR has a non-null merged_at.
type MergeInfo struct {
	MergedAt       time.Time
	MergedBy       string
	MergeCommitSHA string
}

// Commit is a single commit in a pull request. AuthorDate is preferred over
// CommitterDate when both are present.
type Commit struct {
	SHA           string
	AuthorDate    *time.Time
	CommitterDate *time.Time
}

// Date returns the commit's preferred timestamp: author date when it parsed,
// committer date otherwise. ok is false when neither is available.
func (c Commit) Date() (time.Time, bool) {
	if c.AuthorDate != nil && !c.AuthorDate.IsZero() {
		return *c.AuthorDate, true
	}
	if c.CommitterDate != nil && !c.CommitterDate.IsZero() {
		return *c.CommitterDate, true
	}
	return time.Time{}, false
}

// FirstCommitDate returns the minimum preferred date across commits.
// ok is false when no commit has a usable date.
func FirstCommitDate(commits []Commit) (time.Time, bool) {
	var first time.Time
	var found bool
	for _, c := range commits {
		d, ok := c.Date()
		if !ok {
			continue
		}
		if !found || d.Before(first) {
			first = d
			found = true
		}
	}
	return first, found
}

// PRBundle aggregates a pull request with all its collected sub-resources.
// A sub-resource that failed to fetch is left empty/nil; Warnings records
// which fetches were degraded.
type PRBundle struct {
	PR             PullRequest
	Reviews        []Review
	ReviewComments []ReviewComment
	Timeline       []TimelineEvent
	Merge          *MergeInfo
	Commits        []Commit
	Warnings       []string
}

// Activities flattens the bundle's reviews, review comments, and timeline
// events into the review-activity union used for first-review detection.
func (b PRBundle) Activities() []ReviewActivity {
	out := make([]ReviewActivity, 0, len(b.Reviews)+len(b.ReviewComments)+len(b.Timeline))
	for _, r := range b.Reviews {
		out = append(out, r.Activity())
	}
	for _, c := range b.ReviewComments {
		out = append(out, c.Activity())
	}
	for _, e := range b.Timeline {
		out = append(out, e.Activity())
	}
	return out
}
