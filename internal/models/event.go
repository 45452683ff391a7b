package models

// Event types pushed over the complaint event feed.
const (
	EventComplaintFiled   = "complaint_filed"
	EventComplaintUpdated = "complaint_updated"
)

// ComplaintEvent carries a server-confirmed complaint record to subscribers.
type ComplaintEvent struct {
	Type      string    `json:"type"`
	Complaint Complaint `json:"complaint"`
}
