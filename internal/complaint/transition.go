package complaint

import (
	"complaintportal/backend/internal/config"
	"complaintportal/backend/internal/models"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Local validation errors. None of them ever reach the network.
var (
	ErrIllegalTransition = errors.New("illegal status transition")
	ErrMissingFeedback   = errors.New("feedback is required for this transition")
	ErrMissingAssignee   = errors.New("an admin id is required for this transition")
	ErrFeedbackTooLong   = fmt.Errorf("feedback is longer than %d characters", config.MaxFeedbackLength)
	ErrUnknownStatus     = models.ErrUnknownStatus
)

// TransitionError describes which edge was refused.
type TransitionError struct {
	From models.Status
	To   models.Status
	Role models.Role
	Err  error
	// Allowed is what Role could have moved From to instead.
	Allowed []models.Status
}

func (e *TransitionError) Error() string {
	msg := fmt.Sprintf("%s -> %s as %s: %v", e.From, e.To, e.Role, e.Err)
	if !errors.Is(e.Err, ErrIllegalTransition) {
		return msg
	}
	if len(e.Allowed) == 0 {
		return msg + " (no transitions allowed)"
	}
	allowed := make([]string, len(e.Allowed))
	for i, s := range e.Allowed {
		allowed[i] = string(s)
	}
	return msg + " (allowed: " + strings.Join(allowed, ", ") + ")"
}

func (e *TransitionError) Unwrap() error { return e.Err }

type edge struct {
	role     models.Role
	from, to models.Status
}

// legalEdges is the complete transition table. Anything absent is illegal.
var legalEdges = map[edge]bool{
	{models.RoleIntermediate, models.StatusOpen, models.StatusAssigned}: true,
	{models.RoleIntermediate, models.StatusOpen, models.StatusRejected}: true,
	{models.RoleAdmin, models.StatusAssigned, models.StatusProcessing}:  true,
	{models.RoleAdmin, models.StatusOpen, models.StatusResolved}:        true,
	{models.RoleAdmin, models.StatusAssigned, models.StatusResolved}:    true,
	{models.RoleAdmin, models.StatusProcessing, models.StatusResolved}:  true,
	{models.RoleAdmin, models.StatusResolved, models.StatusOpen}:        true,
}

// feedbackRequired lists the targets that cannot be reached without text.
var feedbackRequired = map[models.Status]bool{
	models.StatusProcessing: true,
	models.StatusResolved:   true,
	models.StatusRejected:   true,
}

// Payload carries the user-supplied inputs of a transition.
type Payload struct {
	// Feedback is mandatory for processing, resolved and rejected.
	Feedback string
	// AdminID is the assignee when the target is assigned.
	AdminID string
	// ActorID is the acting admin; it becomes the assignee when an admin
	// resolves a complaint that was never assigned.
	ActorID string
}

// CanTransition reports whether role may move a complaint from one status to another.
func CanTransition(from, to models.Status, role models.Role) bool {
	return legalEdges[edge{role: role, from: from, to: to}]
}

// Targets returns the statuses role may move a complaint in status from to.
func Targets(from models.Status, role models.Role) []models.Status {
	var out []models.Status
	for _, to := range []models.Status{
		models.StatusOpen, models.StatusAssigned, models.StatusProcessing,
		models.StatusResolved, models.StatusRejected,
	} {
		if CanTransition(from, to, role) {
			out = append(out, to)
		}
	}
	return out
}

// RequiresFeedback reports whether a transition into target needs feedback text.
func RequiresFeedback(target models.Status) bool {
	return feedbackRequired[target]
}

// Validate checks a transition without producing a record.
func Validate(c models.Complaint, role models.Role, target models.Status, p Payload) error {
	if !c.Status.Valid() {
		return fmt.Errorf("complaint %s: %w: %q", c.ID, ErrUnknownStatus, c.Status)
	}
	if !target.Valid() {
		return fmt.Errorf("target: %w: %q", ErrUnknownStatus, target)
	}
	if !CanTransition(c.Status, target, role) {
		return &TransitionError{From: c.Status, To: target, Role: role, Err: ErrIllegalTransition, Allowed: Targets(c.Status, role)}
	}
	if err := validateFeedback(target, p); err != nil {
		return err
	}
	if assigneeFor(c, target, p) == "" && needsAssignee(target) {
		return &TransitionError{From: c.Status, To: target, Role: role, Err: ErrMissingAssignee}
	}
	return nil
}

// ApplyTransition validates the edge and returns the resulting record.
// The input complaint is never mutated.
func ApplyTransition(c models.Complaint, role models.Role, target models.Status, p Payload) (models.Complaint, error) {
	if err := Validate(c, role, target, p); err != nil {
		return c, err
	}

	out := c.Clone()
	feedback := strings.TrimSpace(p.Feedback)

	switch target {
	case models.StatusAssigned, models.StatusProcessing, models.StatusResolved:
		admin := assigneeFor(c, target, p)
		out.AssignedTo = &admin
	case models.StatusOpen, models.StatusRejected:
		out.AssignedTo = nil
	}

	switch target {
	case models.StatusProcessing:
		out.ProcessingFeedback = AmendFeedback(out.ProcessingFeedback, feedback)
	case models.StatusResolved:
		out.ResolvingFeedback = AmendFeedback(out.ResolvingFeedback, feedback)
	case models.StatusRejected:
		out.RejectingFeedback = AmendFeedback(out.RejectingFeedback, feedback)
	case models.StatusOpen:
		out.ReopeningFeedback = AmendFeedback(out.ReopeningFeedback, feedback)
	}

	out.Status = target
	return out, nil
}

// AmendFeedback appends entry to existing without erasing earlier text.
func AmendFeedback(existing, entry string) string {
	entry = strings.TrimSpace(entry)
	switch {
	case entry == "":
		return existing
	case existing == "":
		return entry
	default:
		return existing + config.FeedbackSeparator + entry
	}
}

func validateFeedback(target models.Status, p Payload) error {
	if RequiresFeedback(target) && strings.TrimSpace(p.Feedback) == "" {
		return fmt.Errorf("%s: %w", target, ErrMissingFeedback)
	}
	if utf8.RuneCountInString(strings.TrimSpace(p.Feedback)) > config.MaxFeedbackLength {
		return fmt.Errorf("%s: %w", target, ErrFeedbackTooLong)
	}
	return nil
}

func needsAssignee(target models.Status) bool {
	switch target {
	case models.StatusAssigned, models.StatusProcessing, models.StatusResolved:
		return true
	default:
		return false
	}
}

// assigneeFor resolves who the record will be assigned to after the transition.
func assigneeFor(c models.Complaint, target models.Status, p Payload) string {
	switch target {
	case models.StatusAssigned:
		return strings.TrimSpace(p.AdminID)
	case models.StatusProcessing, models.StatusResolved:
		if a := c.Assignee(); a != "" {
			return a
		}
		return strings.TrimSpace(p.ActorID)
	default:
		return ""
	}
}
