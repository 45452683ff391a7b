package complaint

import (
	"complaintportal/backend/internal/models"
	"fmt"
)

// BulkFailure reports a member excluded from a bulk request and why.
type BulkFailure struct {
	ID  string
	Err error
}

// BulkResult splits a batch into the records that will be sent and the ones that won't.
type BulkResult struct {
	Accepted []models.Complaint
	Excluded []BulkFailure
}

// IDs returns the ids of the accepted members, in input order.
func (r BulkResult) IDs() []string {
	ids := make([]string, 0, len(r.Accepted))
	for _, c := range r.Accepted {
		ids = append(ids, c.ID)
	}
	return ids
}

// ApplyBulkTransition applies the single-transition rule to every member independently.
// Missing feedback fails the whole batch since it applies to all members alike.
// Duplicate ids are excluded after their first occurrence.
func ApplyBulkTransition(cs []models.Complaint, role models.Role, target models.Status, p Payload) (BulkResult, error) {
	var res BulkResult
	if !target.Valid() {
		return res, fmt.Errorf("target: %w: %q", ErrUnknownStatus, target)
	}
	if err := validateFeedback(target, p); err != nil {
		return res, err
	}

	seen := make(map[string]bool, len(cs))
	for _, c := range cs {
		if seen[c.ID] {
			res.Excluded = append(res.Excluded, BulkFailure{ID: c.ID, Err: fmt.Errorf("duplicate id %s", c.ID)})
			continue
		}
		seen[c.ID] = true

		next, err := ApplyTransition(c, role, target, p)
		if err != nil {
			res.Excluded = append(res.Excluded, BulkFailure{ID: c.ID, Err: err})
			continue
		}
		res.Accepted = append(res.Accepted, next)
	}
	return res, nil
}
