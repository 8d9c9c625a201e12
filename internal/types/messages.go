package types

// StatsRequest is the inbound requestStats message on the live channel
type StatsRequest struct {
	Type        string `json:"type"`
	RecruiterID string `json:"recruiterId,omitempty"`
	Date        string `json:"date,omitempty"`
	Seq         int64  `json:"seq,omitempty"`
}

// FilterEcho mirrors the request parameters back on every update so
// clients can match responses to requests and drop stale ones.
type FilterEcho struct {
	RecruiterID string `json:"recruiterId,omitempty"`
	Date        string `json:"date"`
}

// StatsUpdate is the outbound statsUpdate message on the live channel.
// Either Stats or Error is set, never both.
type StatsUpdate struct {
	Type      string           `json:"type"`
	Filter    FilterEcho       `json:"filter"`
	Seq       int64            `json:"seq,omitempty"`
	Timestamp string           `json:"timestamp"`
	Stats     *AggregateResult `json:"stats,omitempty"`
	Error     string           `json:"error,omitempty"`
}
