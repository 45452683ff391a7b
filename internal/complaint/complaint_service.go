// Package complaint holds the complaint lifecycle: the transition table, its
// bulk form, and the Service that runs a transition against the portal API.
package complaint

import (
	"complaintportal/backend/internal/cache"
	"complaintportal/backend/internal/config"
	"complaintportal/backend/internal/models"
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
)

// ErrBatchTooLarge is returned when a bulk request names more ids than the server accepts.
var ErrBatchTooLarge = errors.New("too many complaints in one bulk request")

// ErrUnconfirmed is returned when the server accepts a transition without
// echoing the updated record.
var ErrUnconfirmed = errors.New("server did not return the updated complaint")

// API is the remote side of a transition. Admin transitions and triage
// transitions go to different endpoints.
type API interface {
	UpdateStatus(ctx context.Context, u models.StatusUpdate) (*models.Complaint, error)
	Triage(ctx context.Context, u models.StatusUpdate) (*models.Complaint, error)
	BulkUpdateStatus(ctx context.Context, u models.BulkStatusUpdate) (*models.BulkAck, error)
	BulkTriage(ctx context.Context, u models.BulkStatusUpdate) (*models.BulkAck, error)
}

// Service validates transitions locally, sends them, and folds the
// server-confirmed record back into the cache. Nothing is changed locally
// before the server answers.
type Service struct {
	API   API
	Cache *cache.Cache
}

// NewService creates a new complaint service.
func NewService(api API, c *cache.Cache) *Service {
	return &Service{API: api, Cache: c}
}

// Transition moves the cached complaint id to target on behalf of role.
func (s *Service) Transition(ctx context.Context, role models.Role, id string, target models.Status, p Payload) (*models.Complaint, error) {
	current, err := s.Cache.SelectByID(id)
	if err != nil {
		return nil, err
	}

	next, err := ApplyTransition(current, role, target, p)
	if err != nil {
		return nil, err
	}

	u := models.StatusUpdate{
		ComplaintID: id,
		Status:      target,
		Feedback:    strings.TrimSpace(p.Feedback),
	}

	var rec *models.Complaint
	if role == models.RoleIntermediate {
		u.AdminID = next.Assignee()
		rec, err = s.API.Triage(ctx, u)
	} else {
		rec, err = s.API.UpdateStatus(ctx, u)
	}
	if err != nil {
		return nil, fmt.Errorf("update %s to %s: %w", current.ComplaintNumber, target, err)
	}
	if rec == nil {
		return nil, fmt.Errorf("update %s to %s: %w", current.ComplaintNumber, target, ErrUnconfirmed)
	}

	if !s.Cache.Reconcile(*rec) {
		log.Printf("INFO: complaint %s left the current view after update", rec.ID)
	}
	return rec, nil
}

// Assign routes an open complaint to adminID.
func (s *Service) Assign(ctx context.Context, id, adminID string) (*models.Complaint, error) {
	return s.Transition(ctx, models.RoleIntermediate, id, models.StatusAssigned, Payload{AdminID: adminID})
}

// Reject closes an open complaint with the triage reason.
func (s *Service) Reject(ctx context.Context, id, feedback string) (*models.Complaint, error) {
	return s.Transition(ctx, models.RoleIntermediate, id, models.StatusRejected, Payload{Feedback: feedback})
}

// BulkOutcome reports the records the server confirmed and every member left out,
// locally or by the server.
type BulkOutcome struct {
	Updated  []models.Complaint
	Excluded []BulkFailure
}

// BulkTransition sends one aggregate request for the members that pass local
// validation. Ids absent from the cache are excluded with cache.ErrNotFound.
func (s *Service) BulkTransition(ctx context.Context, role models.Role, ids []string, target models.Status, p Payload) (*BulkOutcome, error) {
	if len(ids) > config.MaxBulkSize {
		return nil, fmt.Errorf("%w: %d > %d", ErrBatchTooLarge, len(ids), config.MaxBulkSize)
	}

	out := &BulkOutcome{}
	members := make([]models.Complaint, 0, len(ids))
	for _, id := range ids {
		c, err := s.Cache.SelectByID(id)
		if err != nil {
			out.Excluded = append(out.Excluded, BulkFailure{ID: id, Err: err})
			continue
		}
		members = append(members, c)
	}

	res, err := ApplyBulkTransition(members, role, target, p)
	if err != nil {
		return nil, err
	}
	out.Excluded = append(out.Excluded, res.Excluded...)
	if len(res.Accepted) == 0 {
		return out, nil
	}

	u := models.BulkStatusUpdate{
		ComplaintIDs: res.IDs(),
		Status:       target,
		Feedback:     strings.TrimSpace(p.Feedback),
	}

	var ack *models.BulkAck
	if role == models.RoleIntermediate {
		u.AdminID = strings.TrimSpace(p.AdminID)
		ack, err = s.API.BulkTriage(ctx, u)
	} else {
		ack, err = s.API.BulkUpdateStatus(ctx, u)
	}
	if err != nil {
		return nil, fmt.Errorf("bulk update %d complaints to %s: %w", len(u.ComplaintIDs), target, err)
	}

	for _, rec := range ack.Updated {
		s.Cache.Reconcile(rec)
		out.Updated = append(out.Updated, rec)
	}
	for _, f := range ack.Failed {
		out.Excluded = append(out.Excluded, BulkFailure{ID: f.ID, Err: errors.New(f.Error)})
	}
	return out, nil
}
