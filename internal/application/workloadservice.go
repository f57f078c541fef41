package application

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/ericfisherdev/prpulse/internal/domain/model"
)

// DefaultOverloadThreshold is the request count at which a reviewer is
// considered overloaded.
const DefaultOverloadThreshold = 10

// TeamExpander resolves requested teams into individual members. Implemented
// by CollectService; a nil expander disables expansion and teams are tallied
// under "team:<name>" pseudo-logins instead.
type TeamExpander interface {
	ExpandTeams(ctx context.Context, teams []model.Team, org string) []model.TeamMember
}

// WorkloadService aggregates reviewer-request data across pull requests and
// derives distribution statistics, overload tiers, and inequality measures.
type WorkloadService struct {
	expander  TeamExpander
	logger    *slog.Logger
	threshold int
}

// NewWorkloadService creates a WorkloadService. threshold <= 0 selects the
// default of 10 requests.
func NewWorkloadService(expander TeamExpander, logger *slog.Logger, threshold int) *WorkloadService {
	if threshold <= 0 {
		threshold = DefaultOverloadThreshold
	}
	return &WorkloadService{expander: expander, logger: logger, threshold: threshold}
}

// Aggregate folds each PR's requested reviewers into per-reviewer records.
// Individual requests are tagged "individual". When includeTeams is set,
// team requests are expanded to members (tagged "team:<name>") if an
// expander and organization are available, and tallied as "team:<name>"
// pseudo-logins otherwise. TotalRequests counts every reference; PRNumbers
// is deduplicated.
func (s *WorkloadService) Aggregate(ctx context.Context, prs []model.PullRequest, includeTeams bool, orgName string) map[string]*model.ReviewerRecord {
	records := make(map[string]*model.ReviewerRecord)
	if len(prs) == 0 {
		s.logger.Warn("no pull requests provided for reviewer aggregation")
		return records
	}

	s.logger.Info("aggregating reviewer requests", "prs", len(prs), "include_teams", includeTeams)

	for _, pr := range prs {
		if pr.Number <= 0 {
			s.logger.Warn("pull request missing number, skipping")
			continue
		}

		for _, reviewer := range pr.RequestedReviewers {
			if reviewer.Login == "" {
				continue
			}
			s.fold(records, reviewer.Login, reviewer.Login, model.SourceIndividual, pr)
		}

		if !includeTeams || len(pr.RequestedTeams) == 0 {
			continue
		}

		if s.expander != nil && orgName != "" {
			for _, member := range s.expander.ExpandTeams(ctx, pr.RequestedTeams, orgName) {
				s.fold(records, member.Login, member.Login, "team:"+member.TeamName, pr)
			}
			continue
		}

		// No expansion available: tally the team itself under a pseudo-login.
		for _, team := range pr.RequestedTeams {
			name := team.Name
			if name == "" {
				name = team.Slug
			}
			if name == "" {
				continue
			}
			s.fold(records, "team:"+name, "Team: "+name, "team:"+name, pr)
		}
	}

	for _, rec := range records {
		rec.PRNumbers = dedupeSorted(rec.PRNumbers)
	}

	s.logger.Info("reviewer aggregation complete", "reviewers", len(records))
	return records
}

// fold adds one request reference to a reviewer's running record.
func (s *WorkloadService) fold(records map[string]*model.ReviewerRecord, login, displayName, source string, pr model.PullRequest) {
	rec, ok := records[login]
	if !ok {
		rec = &model.ReviewerRecord{Login: login, DisplayName: displayName}
		records[login] = rec
	}

	rec.TotalRequests++
	rec.PRNumbers = append(rec.PRNumbers, pr.Number)
	rec.RequestSources = append(rec.RequestSources, source)

	if !pr.CreatedAt.IsZero() {
		created := pr.CreatedAt
		if rec.FirstRequestDate == nil || created.Before(*rec.FirstRequestDate) {
			rec.FirstRequestDate = &created
		}
		if rec.LastRequestDate == nil || created.After(*rec.LastRequestDate) {
			rec.LastRequestDate = &created
		}
	}
}

// DetectOverload partitions every login into exactly one tier. OVERLOADED is
// requests >= threshold, HIGH is requests >= int(0.75 * threshold), NORMAL
// is everything below. The integer truncation of the HIGH boundary is kept
// as-is. Logins within each tier are sorted for deterministic output.
func (s *WorkloadService) DetectOverload(records map[string]*model.ReviewerRecord, threshold int) model.OverloadAnalysis {
	analysis := model.OverloadAnalysis{
		Overloaded: []string{},
		High:       []string{},
		Normal:     []string{},
	}
	if len(records) == 0 {
		return analysis
	}

	if threshold <= 0 {
		threshold = s.threshold
	}
	highThreshold := threshold * 3 / 4

	for login, rec := range records {
		switch {
		case rec.TotalRequests >= threshold:
			analysis.Overloaded = append(analysis.Overloaded, login)
		case rec.TotalRequests >= highThreshold:
			analysis.High = append(analysis.High, login)
		default:
			analysis.Normal = append(analysis.Normal, login)
		}
	}

	sort.Strings(analysis.Overloaded)
	sort.Strings(analysis.High)
	sort.Strings(analysis.Normal)

	s.logger.Info("overload detection complete",
		"threshold", threshold,
		"overloaded", len(analysis.Overloaded),
		"high", len(analysis.High),
		"normal", len(analysis.Normal),
	)
	return analysis
}

// Statistics computes the distribution statistics over per-reviewer request
// counts. Standard deviation is the population form and is 0 for fewer than
// two reviewers; percentiles use linear interpolation between order
// statistics (the R-7 method).
func (s *WorkloadService) Statistics(records map[string]*model.ReviewerRecord) model.WorkloadStatistics {
	if len(records) == 0 {
		return model.WorkloadStatistics{}
	}

	counts := requestCounts(records)
	total := 0
	for _, c := range counts {
		total += int(c)
	}

	stats := model.WorkloadStatistics{
		TotalReviewers: len(counts),
		TotalRequests:  total,
		Mean:           float64(total) / float64(len(counts)),
		Median:         Percentile(counts, 50),
		Min:            int(counts[0]),
		Max:            int(counts[len(counts)-1]),
		Percentile75:   Percentile(counts, 75),
		Percentile90:   Percentile(counts, 90),
		Percentile95:   Percentile(counts, 95),
	}

	if len(counts) > 1 {
		var sumSq float64
		for _, c := range counts {
			d := c - stats.Mean
			sumSq += d * d
		}
		stats.StdDev = math.Sqrt(sumSq / float64(len(counts)))
	}

	return stats
}

// Distribution derives the concentration, inequality, and utilization view
// of the request distribution.
func (s *WorkloadService) Distribution(records map[string]*model.ReviewerRecord) model.DistributionAnalysis {
	analysis := model.DistributionAnalysis{
		TopReviewers:  []model.RankedReviewer{},
		Underutilized: []model.RankedReviewer{},
	}
	if len(records) == 0 {
		return analysis
	}

	ranked := rankedByRequests(records)
	total := 0
	for _, r := range ranked {
		total += r.TotalRequests
	}

	// Share of requests held by the top 20% of reviewers, ceil(n/5), min 1.
	topCount := (len(ranked) + 4) / 5
	if topCount < 1 {
		topCount = 1
	}
	topRequests := 0
	for _, r := range ranked[:topCount] {
		topRequests += r.TotalRequests
	}
	if total > 0 {
		analysis.ConcentrationRatio = round3(float64(topRequests) / float64(total))
	}

	analysis.GiniCoefficient = round3(Gini(requestCounts(records)))
	analysis.DiversityScore = round3(math.Min(1, 1-analysis.GiniCoefficient))

	for i, r := range ranked {
		if i >= 10 {
			break
		}
		if total > 0 {
			r.PercentageOfTotal = math.Round(float64(r.TotalRequests)/float64(total)*100*100) / 100
		}
		analysis.TopReviewers = append(analysis.TopReviewers, r)
	}

	mean := float64(total) / float64(len(ranked))
	underutilizedThreshold := math.Max(2, mean*0.25)
	for _, r := range ranked {
		if float64(r.TotalRequests) <= underutilizedThreshold {
			analysis.Underutilized = append(analysis.Underutilized, r)
		}
	}

	s.logger.Info("distribution analysis complete",
		"concentration_ratio", analysis.ConcentrationRatio,
		"gini", analysis.GiniCoefficient,
		"underutilized", len(analysis.Underutilized),
	)
	return analysis
}

// Summary composes aggregation, statistics, overload detection, and
// distribution analysis into one result bundle with run metadata.
func (s *WorkloadService) Summary(ctx context.Context, prs []model.PullRequest, threshold int, includeTeams bool, orgName, repoFullName string) model.WorkloadSummary {
	if threshold <= 0 {
		threshold = s.threshold
	}

	records := s.Aggregate(ctx, prs, includeTeams, orgName)

	return model.WorkloadSummary{
		Metadata: model.WorkloadMetadata{
			AnalysisDate:   time.Now(),
			TotalPRs:       len(prs),
			IncludeTeams:   includeTeams,
			Threshold:      threshold,
			OrgName:        orgName,
			RepositoryName: repoFullName,
		},
		ReviewerData: records,
		Statistics:   s.Statistics(records),
		Overload:     s.DetectOverload(records, threshold),
		Distribution: s.Distribution(records),
	}
}

// Percentile computes percentile p over data using linear interpolation
// between order statistics: h = (p/100)*(n-1), interpolating between the
// floor(h) and ceil(h) ranked values. data need not be sorted.
func Percentile(data []float64, p float64) float64 {
	if len(data) == 0 {
		return 0
	}

	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)
	n := len(sorted)

	if p >= 100 {
		return sorted[n-1]
	}

	h := (p / 100) * float64(n-1)
	if h <= 0 {
		return sorted[0]
	}
	if h >= float64(n-1) {
		return sorted[n-1]
	}

	lower := int(h)
	weight := h - float64(lower)
	return sorted[lower]*(1-weight) + sorted[lower+1]*weight
}

// Gini computes the Gini coefficient over non-negative values:
// G = (2*Σ(i*x_i))/(n*Σx_i) - (n+1)/n with ascending-sorted x and 1-based
// rank i. Empty and single-element inputs yield 0; the result is clamped to
// [0, 1] to absorb floating-point drift.
func Gini(values []float64) float64 {
	if len(values) <= 1 {
		return 0
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	n := float64(len(sorted))
	var total, weighted float64
	for i, v := range sorted {
		total += v
		weighted += float64(i+1) * v
	}
	if total == 0 {
		return 0
	}

	g := (2*weighted)/(n*total) - (n+1)/n
	return math.Max(0, math.Min(1, g))
}

// requestCounts extracts the per-reviewer request counts in ascending order.
func requestCounts(records map[string]*model.ReviewerRecord) []float64 {
	counts := make([]float64, 0, len(records))
	for _, rec := range records {
		counts = append(counts, float64(rec.TotalRequests))
	}
	sort.Float64s(counts)
	return counts
}

// rankedByRequests returns reviewers sorted by request count descending,
// ties broken by login so repeated runs produce identical output.
func rankedByRequests(records map[string]*model.ReviewerRecord) []model.RankedReviewer {
	ranked := make([]model.RankedReviewer, 0, len(records))
	for _, rec := range records {
		ranked = append(ranked, model.RankedReviewer{
			Login:         rec.Login,
			DisplayName:   rec.DisplayName,
			TotalRequests: rec.TotalRequests,
		})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].TotalRequests != ranked[j].TotalRequests {
			return ranked[i].TotalRequests > ranked[j].TotalRequests
		}
		return ranked[i].Login < ranked[j].Login
	})
	return ranked
}

func dedupeSorted(nums []int) []int {
	if len(nums) == 0 {
		return nums
	}
	sort.Ints(nums)
	out := nums[:1]
	for _, n := range nums[1:] {
		if n != out[len(out)-1] {
			out = append(out, n)
		}
	}
	return out
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
