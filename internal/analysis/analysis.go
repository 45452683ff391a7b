// Package analysis computes the counts shown on the admin dashboard.
package analysis

import "complaintportal/backend/internal/models"

// Summary is a count of complaints by status and by type.
type Summary struct {
	Total    int                   `json:"total"`
	ByStatus map[models.Status]int `json:"byStatus"`
	ByType   map[string]int        `json:"byType"`
	// Unassigned counts open complaints waiting for triage.
	Unassigned int `json:"unassigned"`
}

// Summarize counts cs. Every known status is present in ByStatus, even at zero.
func Summarize(cs []models.Complaint) Summary {
	s := Summary{
		ByStatus: map[models.Status]int{
			models.StatusOpen:       0,
			models.StatusAssigned:   0,
			models.StatusProcessing: 0,
			models.StatusResolved:   0,
			models.StatusRejected:   0,
		},
		ByType: make(map[string]int),
	}

	for _, c := range cs {
		s.Total++
		s.ByStatus[c.Status]++
		if c.ComplaintType != "" {
			s.ByType[c.ComplaintType]++
		}
		if c.Status == models.StatusOpen && c.AssignedTo == nil {
			s.Unassigned++
		}
	}
	return s
}

// Pending is the number of complaints that still need work.
func (s Summary) Pending() int {
	return s.ByStatus[models.StatusOpen] + s.ByStatus[models.StatusAssigned] + s.ByStatus[models.StatusProcessing]
}
