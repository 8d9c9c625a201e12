package types

// HRStatus is the hiring decision recorded on a candidate
type HRStatus string

const (
	StatusPending HRStatus = "Pending"
	StatusSelect  HRStatus = "Select"
	StatusReject  HRStatus = "Reject"
	StatusHold    HRStatus = "Hold"
)

// CandidateRecord represents a candidate entry for DynamoDB persistence
type CandidateRecord struct {
	DateKey       string   `json:"dateKey" dynamodbav:"DateKey"`   // YYYY-MM-DD (partition key)
	RecordID      string   `json:"recordId" dynamodbav:"RecordID"` // sort key
	CandidateName string   `json:"candidateName" dynamodbav:"CandidateName"`
	Client        string   `json:"client" dynamodbav:"Client"`
	HRStatus      HRStatus `json:"hrStatus" dynamodbav:"HRStatus"`
	CreatedBy     string   `json:"createdBy" dynamodbav:"CreatedBy"` // recruiter ID
	CreatedAt     string   `json:"createdAt" dynamodbav:"CreatedAt"` // RFC3339
}

// Recruiter holds display metadata for a recruiter
type Recruiter struct {
	RecruiterID string `json:"recruiterId" dynamodbav:"RecruiterID"` // partition key
	Name        string `json:"name" dynamodbav:"Name"`
	Email       string `json:"email" dynamodbav:"Email"`
}
