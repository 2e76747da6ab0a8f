package models

// Audit and PDF job statuses share the same forward-only shape.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Competitor statuses.
const (
	CompetitorPending    = "pending"
	CompetitorInProgress = "in_progress"
	CompetitorCompleted  = "completed"
	CompetitorFailed     = "failed"
)

// Subscription tiers.
const (
	TierFree   = "free"
	TierPro    = "pro"
	TierAgency = "agency"
)

// Crawl frequencies accepted on a project.
const (
	FrequencyDaily   = "daily"
	FrequencyWeekly  = "weekly"
	FrequencyMonthly = "monthly"
)

// Feature names used by the usage limit checker. audits, pdf_reports and
// ai_generations are monthly quotas; projects and competitors are live
// counts (deleting a row frees a slot).
const (
	FeatureProjects      = "projects"
	FeatureAudits        = "audits"
	FeatureCompetitors   = "competitors"
	FeaturePdfReports    = "pdf_reports"
	FeatureAIGenerations = "ai_generations"
)

// jobRank orders job/audit statuses for forward-only checks. failed is
// reachable from any non-terminal state, so it is handled separately.
var jobRank = map[string]int{
	StatusPending:    0,
	StatusProcessing: 1,
	StatusCompleted:  2,
	StatusFailed:     2,
}

// ValidStatus reports whether s is a known job/audit status.
func ValidStatus(s string) bool {
	_, ok := jobRank[s]
	return ok
}

// CanTransition reports whether a job/audit may move from one status to
// another. Terminal states (completed, failed) accept no further moves;
// failed is reachable from any non-terminal state.
func CanTransition(from, to string) bool {
	fromRank, ok := jobRank[from]
	if !ok {
		return false
	}
	if !ValidStatus(to) {
		return false
	}
	if from == StatusCompleted || from == StatusFailed {
		return false
	}
	if to == StatusFailed {
		return true
	}
	return jobRank[to] > fromRank || to == from
}
