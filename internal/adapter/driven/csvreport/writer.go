// Package csvreport renders analysis results to CSV files with a
// "#"-commented summary block ahead of the column headers.
package csvreport

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ericfisherdev/prpulse/internal/domain/model"
)

const timeLayout = "2006-01-02 15:04:05"

// Writer renders lifecycle and reviewer-workload reports to CSV.
type Writer struct {
	logger *slog.Logger
}

// NewWriter creates a CSV report writer.
func NewWriter(logger *slog.Logger) *Writer {
	return &Writer{logger: logger}
}

var lifecycleHeaders = []string{
	"pr_number",
	"title",
	"state",
	"created_at",
	"merged_at",
	"repository_name",
	"pr_creator_github_id",
	"pr_creator_username",
	"time_to_first_review_hours",
	"time_to_merge_hours",
	"commit_lead_time_hours",
	"has_reviews",
	"review_count",
	"comment_count",
	"commit_count",
	"is_merged",
}

var reviewerHeaders = []string{
	"reviewer_login",
	"reviewer_name",
	"reviewer_type",
	"total_requests",
	"pr_numbers",
	"request_sources",
	"first_request_date",
	"last_request_date",
	"percentage_of_total",
	"workload_status",
	"workload_category",
}

// ValidateLifecycleReport checks the invariants the reporter relies on:
// every record carries a PR number and repository name. Creator fields may
// be empty strings but are always present on the typed record.
func ValidateLifecycleReport(report model.LifecycleReport) error {
	for i, r := range report.Results {
		if r.PRNumber <= 0 {
			return &model.ValidationError{Field: "lifecycle report", Reason: fmt.Sprintf("record %d missing pr_number", i)}
		}
		if r.RepositoryName == "" {
			return &model.ValidationError{Field: "lifecycle report", Reason: fmt.Sprintf("record for PR #%d missing repository_name", r.PRNumber)}
		}
	}
	return nil
}

// ValidateWorkloadSummary checks that all four result sections are present
// and that the overload analysis carries exactly the three tier lists.
func ValidateWorkloadSummary(summary model.WorkloadSummary) error {
	if summary.ReviewerData == nil {
		return &model.ValidationError{Field: "reviewer summary", Reason: "missing reviewer_data section"}
	}
	if summary.Metadata.AnalysisDate.IsZero() {
		return &model.ValidationError{Field: "reviewer summary", Reason: "missing metadata section"}
	}
	if summary.Overload.Overloaded == nil || summary.Overload.High == nil || summary.Overload.Normal == nil {
		return &model.ValidationError{Field: "reviewer summary", Reason: "overload_analysis must carry all three tiers"}
	}
	return nil
}

// WriteLifecycleReport writes the lifecycle analysis to path and returns the
// output path.
func (w *Writer) WriteLifecycleReport(path string, report model.LifecycleReport) (string, error) {
	if err := ValidateLifecycleReport(report); err != nil {
		return "", err
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating report file: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	w.writeLifecycleSummary(cw, report.Summary)
	if err := cw.Write(lifecycleHeaders); err != nil {
		return "", fmt.Errorf("writing headers: %w", err)
	}

	for _, r := range report.Results {
		row := []string{
			strconv.Itoa(r.PRNumber),
			sanitize(r.Title),
			string(r.State),
			formatTime(&r.CreatedAt),
			formatTime(r.MergedAt),
			r.RepositoryName,
			r.CreatorID,
			r.CreatorLogin,
			formatHours(r.TimeToFirstReviewHrs),
			formatHours(r.TimeToMergeHrs),
			formatHours(r.CommitLeadTimeHrs),
			strconv.FormatBool(r.HasReviews),
			strconv.Itoa(r.ReviewCount),
			strconv.Itoa(r.ReviewCommentCount),
			strconv.Itoa(r.CommitCount),
			strconv.FormatBool(r.IsMerged),
		}
		if err := cw.Write(row); err != nil {
			return "", fmt.Errorf("writing row for PR #%d: %w", r.PRNumber, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return "", fmt.Errorf("flushing report: %w", err)
	}

	w.logger.Info("lifecycle report written", "path", path, "prs", len(report.Results))
	return path, nil
}

// writeLifecycleSummary emits the commented summary block above the headers.
func (w *Writer) writeLifecycleSummary(cw *csv.Writer, s model.LifecycleSummary) {
	comment(cw, "GitHub PR Lifecycle Analysis Report - Generated "+time.Now().Format(time.RFC3339))
	if s.RepositoryName != "" {
		comment(cw, "Repository: "+s.RepositoryName)
	}
	comment(cw, fmt.Sprintf("Total PRs Analyzed: %d", s.TotalAnalyzed))
	comment(cw, fmt.Sprintf("Merged PRs: %d", s.MergedCount))
	comment(cw, fmt.Sprintf("Reviewed PRs: %d", s.ReviewedCount))
	if s.AvgTimeToFirstReview != nil {
		comment(cw, fmt.Sprintf("Average Time to First Review: %.2f hours", *s.AvgTimeToFirstReview))
	}
	if s.AvgTimeToMerge != nil {
		comment(cw, fmt.Sprintf("Average Time to Merge: %.2f hours", *s.AvgTimeToMerge))
	}
	if s.AvgCommitLeadTime != nil {
		comment(cw, fmt.Sprintf("Average Commit Lead Time: %.2f hours", *s.AvgCommitLeadTime))
	}
	cw.Write([]string{})
}

// WriteWorkloadReport writes the reviewer-workload analysis to path, rows
// sorted by total requests descending, and returns the output path.
func (w *Writer) WriteWorkloadReport(path string, summary model.WorkloadSummary) (string, error) {
	if err := ValidateWorkloadSummary(summary); err != nil {
		return "", err
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating report file: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	w.writeWorkloadSummaryHeader(cw, summary)
	if err := cw.Write(reviewerHeaders); err != nil {
		return "", fmt.Errorf("writing headers: %w", err)
	}

	records := make([]*model.ReviewerRecord, 0, len(summary.ReviewerData))
	for _, rec := range summary.ReviewerData {
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].TotalRequests != records[j].TotalRequests {
			return records[i].TotalRequests > records[j].TotalRequests
		}
		return records[i].Login < records[j].Login
	})

	for _, rec := range records {
		tier := summary.Overload.TierFor(rec.Login)

		reviewerType := "user"
		if rec.IsTeam() {
			reviewerType = "team"
		}

		percentage := 0.0
		if summary.Statistics.TotalRequests > 0 {
			percentage = float64(rec.TotalRequests) / float64(summary.Statistics.TotalRequests) * 100
		}

		row := []string{
			rec.Login,
			sanitize(rec.DisplayName),
			reviewerType,
			strconv.Itoa(rec.TotalRequests),
			joinInts(rec.PRNumbers),
			strings.Join(rec.RequestSources, ", "),
			formatTime(rec.FirstRequestDate),
			formatTime(rec.LastRequestDate),
			fmt.Sprintf("%.2f", percentage),
			string(tier),
			tierCategory(tier),
		}
		if err := cw.Write(row); err != nil {
			return "", fmt.Errorf("writing row for reviewer %s: %w", rec.Login, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return "", fmt.Errorf("flushing report: %w", err)
	}

	w.logger.Info("reviewer workload report written", "path", path, "reviewers", len(records))
	return path, nil
}

// writeWorkloadSummaryHeader emits the commented summary block above the headers.
func (w *Writer) writeWorkloadSummaryHeader(cw *csv.Writer, s model.WorkloadSummary) {
	comment(cw, "GitHub PR Reviewer Workload Analysis Report - Generated "+s.Metadata.AnalysisDate.Format(time.RFC3339))
	if s.Metadata.RepositoryName != "" {
		comment(cw, "Repository: "+s.Metadata.RepositoryName)
	}
	comment(cw, fmt.Sprintf("Total PRs Analyzed: %d", s.Metadata.TotalPRs))
	comment(cw, fmt.Sprintf("Overload Threshold: %d requests", s.Metadata.Threshold))
	comment(cw, fmt.Sprintf("Team Analysis Enabled: %t", s.Metadata.IncludeTeams))
	if s.Metadata.OrgName != "" {
		comment(cw, "Organization: "+s.Metadata.OrgName)
	}
	comment(cw, fmt.Sprintf("Total Reviewers: %d", s.Statistics.TotalReviewers))
	comment(cw, fmt.Sprintf("Total Review Requests: %d", s.Statistics.TotalRequests))
	comment(cw, fmt.Sprintf("Average Requests per Reviewer: %.2f", s.Statistics.Mean))
	comment(cw, fmt.Sprintf("Median Requests per Reviewer: %.2f", s.Statistics.Median))
	comment(cw, fmt.Sprintf("Top 20%% Reviewers Handle: %.1f%% of requests", s.Distribution.ConcentrationRatio*100))
	comment(cw, fmt.Sprintf("Gini Coefficient (inequality): %.3f", s.Distribution.GiniCoefficient))
	comment(cw, fmt.Sprintf("Diversity Score: %.3f", s.Distribution.DiversityScore))
	cw.Write([]string{})
}

func comment(cw *csv.Writer, text string) {
	cw.Write([]string{"# " + text})
}

// sanitize strips control characters and normalizes embedded newlines so a
// title cannot break the CSV structure.
func sanitize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", " ")
	text = strings.ReplaceAll(text, "\n", " ")
	text = strings.ReplaceAll(text, "\r", " ")
	return strings.TrimSpace(text)
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func formatHours(h *float64) string {
	if h == nil {
		return ""
	}
	return fmt.Sprintf("%.2f", *h)
}

func joinInts(nums []int) string {
	parts := make([]string, len(nums))
	for i, n := range nums {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ", ")
}

func tierCategory(tier model.OverloadTier) string {
	switch tier {
	case model.TierOverloaded:
		return "Overloaded"
	case model.TierHigh:
		return "High Load"
	default:
		return "Normal Load"
	}
}
