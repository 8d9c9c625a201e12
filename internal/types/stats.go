package types

// RecruiterCalls is one per-recruiter entry of an aggregate result.
// Name is empty when the recruiter ID has no resolvable metadata.
type RecruiterCalls struct {
	RecruiterID string `json:"recruiterId"`
	Name        string `json:"recruiterName"`
	Calls       int    `json:"calls"`
}

// ClientCalls is one per-client entry of an aggregate result
type ClientCalls struct {
	Client string `json:"client"`
	Calls  int    `json:"calls"`
}

// AggregateResult is the dashboard summary for one filter.
// TotalSelected is always <= TotalCalls. ClientCalls is sorted by
// calls descending; RecruiterCalls keeps first-seen order.
type AggregateResult struct {
	TotalCalls     int              `json:"totalCalls"`
	TotalSelected  int              `json:"totalSelected"`
	RecruiterCalls []RecruiterCalls `json:"recruiterCalls"`
	ClientCalls    []ClientCalls    `json:"clientCalls"`
}
