package model

import "time"

// SourceIndividual tags a review request made directly to a user.
// Team-originated requests are tagged "team:<team name>".
const SourceIndividual = "individual"

// ReviewerRecord accumulates review-request data for one reviewer, keyed by
// login (or a "team:<slug>" pseudo-login when team expansion is disabled).
// Records are mutated while PRs are folded in and frozen afterwards.
type ReviewerRecord struct {
	Login            string
	DisplayName      string
	TotalRequests    int   // not deduplicated across duplicate PR references
	PRNumbers        []int // deduplicated, ascending
	RequestSources   []string
	FirstRequestDate *time.Time
	LastRequestDate  *time.Time
}

// IsTeam reports whether the record is a team pseudo-entry rather than an
// individual reviewer.
func (r ReviewerRecord) IsTeam() bool {
	return len(r.Login) > 5 && r.Login[:5] == "team:"
}

// OverloadTier classifies a reviewer's workload against the threshold.
type OverloadTier string

const (
	TierOverloaded OverloadTier = "OVERLOADED"
	TierHigh       OverloadTier = "HIGH"
	TierNormal     OverloadTier = "NORMAL"
)

// OverloadAnalysis partitions every reviewer login into exactly one tier.
type OverloadAnalysis struct {
	Overloaded []string
	High       []string
	Normal     []string
}

// TierFor returns the tier a login was placed in. Unknown logins report
// NORMAL, mirroring the reporter's fallback.
func (o OverloadAnalysis) TierFor(login string) OverloadTier {
	for _, l := range o.Overloaded {
		if l == login {
			return TierOverloaded
		}
	}
	for _, l := range o.High {
		if l == login {
			return TierHigh
		}
	}
	return TierNormal
}

// WorkloadStatistics are the distribution statistics over per-reviewer
// request counts.
type WorkloadStatistics struct {
	TotalReviewers int
	TotalRequests  int
	Mean           float64
	Median         float64
	StdDev         float64 // population stddev over >=2 reviewers, else 0
	Min            int
	Max            int
	Percentile75   float64
	Percentile90   float64
	Percentile95   float64
}

// RankedReviewer is a reviewer with its share of total requests, used for
// the top-reviewer and underutilized lists.
type RankedReviewer struct {
	Login             string
	DisplayName       string
	TotalRequests     int
	PercentageOfTotal float64
}

// DistributionAnalysis is the derived, read-only snapshot of request
// distribution patterns.
type DistributionAnalysis struct {
	ConcentrationRatio float64 // share of requests held by the top 20% of reviewers
	GiniCoefficient    float64 // 0 = equal, 1 = maximal inequality
	TopReviewers       []RankedReviewer
	Underutilized      []RankedReviewer
	DiversityScore     float64
}

// WorkloadMetadata records the run parameters alongside the results.
type WorkloadMetadata struct {
	AnalysisDate   time.Time
	TotalPRs       int
	IncludeTeams   bool
	Threshold      int
	OrgName        string
	RepositoryName string
}

// WorkloadSummary is the complete reviewer-workload result bundle.
type WorkloadSummary struct {
	Metadata     WorkloadMetadata
	ReviewerData map[string]*ReviewerRecord
	Statistics   WorkloadStatistics
	Overload     OverloadAnalysis
	Distribution DistributionAnalysis
}
