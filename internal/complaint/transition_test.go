package complaint_test

import (
	"complaintportal/backend/internal/complaint"
	"complaintportal/backend/internal/config"
	"complaintportal/backend/internal/models"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allStatuses = []models.Status{
	models.StatusOpen,
	models.StatusAssigned,
	models.StatusProcessing,
	models.StatusResolved,
	models.StatusRejected,
}

func record(id string, status models.Status) models.Complaint {
	return models.Complaint{ID: id, ComplaintNumber: "CMP-20250314-" + id, Status: status}
}

func assigned(c models.Complaint, admin string) models.Complaint {
	c.AssignedTo = &admin
	return c
}

func TestCanTransition_ExactTable(t *testing.T) {
	legal := map[[3]string]bool{
		{"intermediate", "open", "assigned"}: true,
		{"intermediate", "open", "rejected"}: true,
		{"admin", "assigned", "processing"}:  true,
		{"admin", "open", "resolved"}:        true,
		{"admin", "assigned", "resolved"}:    true,
		{"admin", "processing", "resolved"}:  true,
		{"admin", "resolved", "open"}:        true,
	}

	count := 0
	for _, role := range models.AllRoles {
		for _, from := range allStatuses {
			for _, to := range allStatuses {
				want := legal[[3]string{string(role), string(from), string(to)}]
				got := complaint.CanTransition(from, to, role)
				assert.Equal(t, want, got, "%s: %s -> %s", role, from, to)
				if got {
					count++
				}
			}
		}
	}
	assert.Equal(t, len(legal), count)
}

func TestCanTransition_RejectedIsTerminal(t *testing.T) {
	for _, role := range models.AllRoles {
		assert.Empty(t, complaint.Targets(models.StatusRejected, role), role)
	}
}

func TestCanTransition_UnknownValues(t *testing.T) {
	assert.False(t, complaint.CanTransition(models.Status("closed"), models.StatusOpen, models.RoleAdmin))
	assert.False(t, complaint.CanTransition(models.StatusOpen, models.StatusResolved, models.Role("root")))
}

func TestTargets(t *testing.T) {
	assert.Equal(t,
		[]models.Status{models.StatusAssigned, models.StatusRejected},
		complaint.Targets(models.StatusOpen, models.RoleIntermediate))
	assert.Equal(t,
		[]models.Status{models.StatusProcessing, models.StatusResolved},
		complaint.Targets(models.StatusAssigned, models.RoleAdmin))
	assert.Empty(t, complaint.Targets(models.StatusOpen, models.RoleStudent))
}

// Triage assigns an open complaint.
func TestApplyTransition_Assign(t *testing.T) {
	in := record("1", models.StatusOpen)

	out, err := complaint.ApplyTransition(in, models.RoleIntermediate, models.StatusAssigned, complaint.Payload{AdminID: "A1"})

	require.NoError(t, err)
	assert.Equal(t, models.StatusAssigned, out.Status)
	require.NotNil(t, out.AssignedTo)
	assert.Equal(t, "A1", *out.AssignedTo)
	assert.Equal(t, models.StatusOpen, in.Status, "input must not be mutated")
	assert.Nil(t, in.AssignedTo)
}

func TestApplyTransition_AssignWithoutAdmin(t *testing.T) {
	_, err := complaint.ApplyTransition(record("1", models.StatusOpen), models.RoleIntermediate, models.StatusAssigned, complaint.Payload{AdminID: "  "})

	assert.ErrorIs(t, err, complaint.ErrMissingAssignee)
}

// Empty feedback blocks a resolve.
func TestApplyTransition_ResolveWithoutFeedback(t *testing.T) {
	in := assigned(record("1", models.StatusAssigned), "A1")

	for _, fb := range []string{"", "   ", "\n\t"} {
		_, err := complaint.ApplyTransition(in, models.RoleAdmin, models.StatusResolved, complaint.Payload{Feedback: fb})
		assert.ErrorIs(t, err, complaint.ErrMissingFeedback, "%q", fb)
	}
}

func TestApplyTransition_FeedbackTooLong(t *testing.T) {
	in := assigned(record("1", models.StatusAssigned), "A1")
	long := strings.Repeat("ж", config.MaxFeedbackLength+1)

	_, err := complaint.ApplyTransition(in, models.RoleAdmin, models.StatusProcessing, complaint.Payload{Feedback: long})
	assert.ErrorIs(t, err, complaint.ErrFeedbackTooLong)

	out, err := complaint.ApplyTransition(in, models.RoleAdmin, models.StatusProcessing, complaint.Payload{Feedback: long[:len(long)-len("ж")]})
	require.NoError(t, err)
	assert.Equal(t, models.StatusProcessing, out.Status)
}

func TestApplyTransition_FeedbackRequiredTargets(t *testing.T) {
	tests := []struct {
		name   string
		in     models.Complaint
		role   models.Role
		target models.Status
	}{
		{"processing", assigned(record("1", models.StatusAssigned), "A1"), models.RoleAdmin, models.StatusProcessing},
		{"resolved", assigned(record("1", models.StatusProcessing), "A1"), models.RoleAdmin, models.StatusResolved},
		{"rejected", record("1", models.StatusOpen), models.RoleIntermediate, models.StatusRejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := complaint.ApplyTransition(tt.in, tt.role, tt.target, complaint.Payload{})
			assert.ErrorIs(t, err, complaint.ErrMissingFeedback)
			assert.True(t, complaint.RequiresFeedback(tt.target))
		})
	}
	assert.False(t, complaint.RequiresFeedback(models.StatusAssigned))
	assert.False(t, complaint.RequiresFeedback(models.StatusOpen))
}

// Only admins reopen.
func TestApplyTransition_Reopen(t *testing.T) {
	in := assigned(record("1", models.StatusResolved), "A1")
	in.ResolvingFeedback = "fixed the tap"

	out, err := complaint.ApplyTransition(in, models.RoleAdmin, models.StatusOpen, complaint.Payload{})
	require.NoError(t, err)
	assert.Equal(t, models.StatusOpen, out.Status)
	assert.Nil(t, out.AssignedTo, "reopened complaints go back to triage")
	assert.Equal(t, "fixed the tap", out.ResolvingFeedback)

	_, err = complaint.ApplyTransition(in, models.RoleIntermediate, models.StatusOpen, complaint.Payload{})
	assert.ErrorIs(t, err, complaint.ErrIllegalTransition)

	var terr *complaint.TransitionError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, models.StatusResolved, terr.From)
	assert.Equal(t, models.StatusOpen, terr.To)
	assert.Equal(t, models.RoleIntermediate, terr.Role)
	assert.Empty(t, terr.Allowed)
	assert.Contains(t, err.Error(), "no transitions allowed")

	_, err = complaint.ApplyTransition(in, models.RoleAdmin, models.StatusProcessing, complaint.Payload{Feedback: "again"})
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, []models.Status{models.StatusOpen}, terr.Allowed)
	assert.Contains(t, err.Error(), "(allowed: open)")
}

func TestApplyTransition_IllegalCheckedBeforeFeedback(t *testing.T) {
	_, err := complaint.ApplyTransition(record("1", models.StatusRejected), models.RoleAdmin, models.StatusResolved, complaint.Payload{})

	assert.ErrorIs(t, err, complaint.ErrIllegalTransition)
	assert.NotErrorIs(t, err, complaint.ErrMissingFeedback)
}

func TestApplyTransition_UnknownStatus(t *testing.T) {
	_, err := complaint.ApplyTransition(record("1", models.Status("closed")), models.RoleAdmin, models.StatusResolved, complaint.Payload{Feedback: "x"})
	assert.ErrorIs(t, err, complaint.ErrUnknownStatus)

	_, err = complaint.ApplyTransition(record("1", models.StatusOpen), models.RoleAdmin, models.Status("closed"), complaint.Payload{Feedback: "x"})
	assert.ErrorIs(t, err, complaint.ErrUnknownStatus)
}

func TestApplyTransition_AssigneeInvariant(t *testing.T) {
	type step struct {
		role    models.Role
		target  models.Status
		payload complaint.Payload
	}
	steps := []step{
		{models.RoleIntermediate, models.StatusAssigned, complaint.Payload{AdminID: "A1"}},
		{models.RoleAdmin, models.StatusProcessing, complaint.Payload{Feedback: "plumber booked", ActorID: "A2"}},
		{models.RoleAdmin, models.StatusResolved, complaint.Payload{Feedback: "done", ActorID: "A2"}},
		{models.RoleAdmin, models.StatusOpen, complaint.Payload{Feedback: "still leaking"}},
		{models.RoleIntermediate, models.StatusRejected, complaint.Payload{Feedback: "duplicate"}},
	}

	c := record("1", models.StatusOpen)
	for _, s := range steps {
		var err error
		c, err = complaint.ApplyTransition(c, s.role, s.target, s.payload)
		require.NoError(t, err, "%s -> %s", s.role, s.target)

		switch c.Status {
		case models.StatusAssigned, models.StatusProcessing, models.StatusResolved:
			require.NotNil(t, c.AssignedTo, c.Status)
			assert.Equal(t, "A1", *c.AssignedTo, "the existing assignee is kept")
		default:
			assert.Nil(t, c.AssignedTo, c.Status)
		}
	}
	assert.Equal(t, "still leaking", c.ReopeningFeedback)
	assert.Equal(t, "duplicate", c.RejectingFeedback)
}

func TestApplyTransition_ResolveFromOpenAssignsActor(t *testing.T) {
	out, err := complaint.ApplyTransition(record("1", models.StatusOpen), models.RoleAdmin, models.StatusResolved, complaint.Payload{Feedback: "done", ActorID: "A9"})
	require.NoError(t, err)
	require.NotNil(t, out.AssignedTo)
	assert.Equal(t, "A9", *out.AssignedTo)

	_, err = complaint.ApplyTransition(record("1", models.StatusOpen), models.RoleAdmin, models.StatusResolved, complaint.Payload{Feedback: "done"})
	assert.ErrorIs(t, err, complaint.ErrMissingAssignee)
}

func TestApplyTransition_FeedbackIsAmended(t *testing.T) {
	c := assigned(record("1", models.StatusAssigned), "A1")

	c, err := complaint.ApplyTransition(c, models.RoleAdmin, models.StatusProcessing, complaint.Payload{Feedback: "first look"})
	require.NoError(t, err)
	c, err = complaint.ApplyTransition(c, models.RoleAdmin, models.StatusResolved, complaint.Payload{Feedback: "fixed"})
	require.NoError(t, err)
	c, err = complaint.ApplyTransition(c, models.RoleAdmin, models.StatusOpen, complaint.Payload{})
	require.NoError(t, err)
	c, err = complaint.ApplyTransition(c, models.RoleAdmin, models.StatusResolved, complaint.Payload{Feedback: "  fixed again  ", ActorID: "A1"})
	require.NoError(t, err)

	assert.Equal(t, "first look", c.ProcessingFeedback)
	assert.Equal(t, "fixed\n\nfixed again", c.ResolvingFeedback)
}

func TestAmendFeedback(t *testing.T) {
	assert.Equal(t, "", complaint.AmendFeedback("", ""))
	assert.Equal(t, "a", complaint.AmendFeedback("", " a "))
	assert.Equal(t, "a", complaint.AmendFeedback("a", "   "))
	assert.Equal(t, "a\n\nb", complaint.AmendFeedback("a", "b"))
}

func TestValidate_DoesNotProduceRecord(t *testing.T) {
	c := record("1", models.StatusOpen)

	assert.NoError(t, complaint.Validate(c, models.RoleIntermediate, models.StatusAssigned, complaint.Payload{AdminID: "A1"}))
	assert.ErrorIs(t, complaint.Validate(c, models.RoleStudent, models.StatusAssigned, complaint.Payload{AdminID: "A1"}), complaint.ErrIllegalTransition)
	assert.Equal(t, models.StatusOpen, c.Status)
}
