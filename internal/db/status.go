package db

// Article lifecycle statuses. One vocabulary for every write site; the
// legacy author-facing values are accepted only through NormalizeStatus.
const (
	StatusDraft            = "draft"
	StatusPendingReview    = "pending_review"
	StatusTechnicalReview  = "technical_review"
	StatusEditorialReview  = "editorial_review"
	StatusFinalReview      = "final_review"
	StatusChangesRequested = "changes_requested"
	StatusApproved         = "approved"
	StatusRejected         = "rejected"
	StatusArchived         = "archived"
)

var articleStatuses = map[string]struct{}{
	StatusDraft:            {},
	StatusPendingReview:    {},
	StatusTechnicalReview:  {},
	StatusEditorialReview:  {},
	StatusFinalReview:      {},
	StatusChangesRequested: {},
	StatusApproved:         {},
	StatusRejected:         {},
	StatusArchived:         {},
}

// legacyStatuses maps the retired author-facing vocabulary onto the
// canonical one.
var legacyStatuses = map[string]string{
	"pending":   StatusPendingReview,
	"in review": StatusTechnicalReview,
	"approved":  StatusApproved,
	"denied":    StatusRejected,
	"reported":  StatusChangesRequested,
}

// NormalizeStatus resolves a raw status value, canonical or legacy, to its
// canonical form. ok is false for anything outside both vocabularies.
func NormalizeStatus(raw string) (string, bool) {
	if _, known := articleStatuses[raw]; known {
		return raw, true
	}
	if mapped, known := legacyStatuses[raw]; known {
		return mapped, true
	}
	return "", false
}
