package domain

// IssueKind classifies a per-row or per-campaign problem found during a
// run. Issues are reported and aggregated; they never abort the run.
type IssueKind string

const (
	// IssueValidation marks a malformed spreadsheet row.
	IssueValidation IssueKind = "validation"
	// IssueConfiguration marks a bad campaign or condition setting.
	IssueConfiguration IssueKind = "configuration"
	// IssueCollaborator marks an external API failure after retries.
	IssueCollaborator IssueKind = "collaborator"
)

// Issue is one reported problem.
type Issue struct {
	Kind     IssueKind
	Campaign CampaignRef
	// RowIndex is the offending sheet row, zero when not row-scoped.
	RowIndex int
	Msg      string
}

// ReconciliationDelta is the add/remove set computed for one campaign.
// It is recomputed every run and never persisted; the spreadsheet and
// the ad platform remain the sources of truth.
type ReconciliationDelta struct {
	ToAdd    []CreativeRequest
	ToRemove []LiveCreative
}

// Empty reports whether the delta carries no mutations.
func (d ReconciliationDelta) Empty() bool {
	return len(d.ToAdd) == 0 && len(d.ToRemove) == 0
}
