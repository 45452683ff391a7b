package handler

import (
	"complaintportal/backend/internal/complaint"
	"complaintportal/backend/internal/config"
	"complaintportal/backend/internal/models"
	"complaintportal/backend/internal/storage"
	"errors"
	"log"
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
)

// engineStatus maps a Transition Engine error to an HTTP status.
func engineStatus(err error) int {
	switch {
	case errors.Is(err, complaint.ErrUnknownStatus):
		return http.StatusBadRequest
	case errors.Is(err, complaint.ErrIllegalTransition):
		return http.StatusConflict
	case errors.Is(err, complaint.ErrMissingFeedback), errors.Is(err, complaint.ErrMissingAssignee),
		errors.Is(err, complaint.ErrFeedbackTooLong):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) list(c *gin.Context, f storage.ComplaintFilter) {
	cs, err := h.Storage.ListComplaints(f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load complaints"})
		return
	}
	if cs == nil {
		cs = []models.Complaint{}
	}
	c.JSON(http.StatusOK, gin.H{"data": cs})
}

// ListAll handles GET /complaint/get/all.
func (h *Handler) ListAll(c *gin.Context) {
	h.list(c, storage.ComplaintFilter{})
}

// ListAssigned handles GET /complaint/get/assigned?adminId=. Admins only see their own queue.
func (h *Handler) ListAssigned(c *gin.Context) {
	self, _ := currentUser(c)
	adminID := c.DefaultQuery("adminId", self)
	if adminID != self {
		c.JSON(http.StatusForbidden, gin.H{"error": "admins can only list their own complaints"})
		return
	}
	h.list(c, storage.ComplaintFilter{AssignedTo: adminID})
}

// ListOpen handles GET /complaint/get/open.
func (h *Handler) ListOpen(c *gin.Context) {
	h.list(c, storage.ComplaintFilter{Status: models.StatusOpen})
}

// ListByStudent handles GET /complaint/get?studentId=.
func (h *Handler) ListByStudent(c *gin.Context) {
	self, _ := currentUser(c)
	studentID := c.DefaultQuery("studentId", self)
	if studentID != self {
		c.JSON(http.StatusForbidden, gin.H{"error": "students can only list their own complaints"})
		return
	}
	h.list(c, storage.ComplaintFilter{StudentID: studentID})
}

// GetComplaint handles GET /complaint/getById?complaintId=&studentId=.
func (h *Handler) GetComplaint(c *gin.Context) {
	self, _ := currentUser(c)
	id := c.Query("complaintId")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "complaintId is required"})
		return
	}
	if sid := c.Query("studentId"); sid != "" && sid != self {
		c.JSON(http.StatusForbidden, gin.H{"error": "students can only read their own complaints"})
		return
	}

	rec, err := h.Storage.GetComplaint(id)
	if errors.Is(err, storage.ErrNotFound) || (err == nil && rec.StudentID != self) {
		c.JSON(http.StatusNotFound, gin.H{"error": "complaint not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load complaint"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rec})
}

// FileComplaint handles POST /complaint/post?studentId=.
func (h *Handler) FileComplaint(c *gin.Context) {
	self, _ := currentUser(c)
	if sid := c.Query("studentId"); sid != "" && sid != self {
		c.JSON(http.StatusForbidden, gin.H{"error": "students can only file their own complaints"})
		return
	}

	var in models.NewComplaint
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid complaint body"})
		return
	}
	in.Description = strings.TrimSpace(in.Description)
	if err := h.Validate.Struct(in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !slices.Contains(config.ComplaintTypes, in.ComplaintType) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown complaint type"})
		return
	}

	rec := &models.Complaint{
		ComplaintType:    in.ComplaintType,
		ComplaintSubType: in.ComplaintSubType,
		Description:      in.Description,
		StudentName:      in.StudentName,
		StudentID:        self,
		HostelNumber:     in.HostelNumber,
		RoomNumber:       in.RoomNumber,
		Attachments:      in.Attachments,
		Status:           models.StatusOpen,
		DateReported:     h.Now(),
	}
	if err := h.Storage.SaveComplaint(rec); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save complaint"})
		return
	}

	log.Printf("INFO: complaint %s filed by %s", rec.ComplaintNumber, self)
	h.publish(models.EventComplaintFiled, *rec)
	c.JSON(http.StatusCreated, gin.H{"data": rec})
}

// UpdateStatus handles PATCH /complaint/admin/status.
func (h *Handler) UpdateStatus(c *gin.Context) {
	h.transition(c, models.RoleAdmin)
}

// TriageStatus handles PATCH /complaint/intermediate/status.
func (h *Handler) TriageStatus(c *gin.Context) {
	h.transition(c, models.RoleIntermediate)
}

func (h *Handler) transition(c *gin.Context, role models.Role) {
	actor, _ := currentUser(c)

	var req models.StatusUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status update body"})
		return
	}
	if err := h.Validate.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	target, err := models.ParseStatus(string(req.Status))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	current, err := h.Storage.GetComplaint(req.ComplaintID)
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "complaint not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load complaint"})
		return
	}
	if role == models.RoleAdmin && !ownedBy(*current, actor) {
		c.JSON(http.StatusForbidden, gin.H{"error": "complaint is assigned to another admin"})
		return
	}

	next, err := complaint.ApplyTransition(*current, role, target, complaint.Payload{
		Feedback: req.Feedback,
		AdminID:  req.AdminID,
		ActorID:  actor,
	})
	if err != nil {
		c.JSON(engineStatus(err), gin.H{"error": err.Error()})
		return
	}
	if target == models.StatusAssigned && !h.assignable(c, next.Assignee()) {
		return
	}

	err = h.Storage.UpdateComplaint(storage.StatusChange{Complaint: next, From: current.Status})
	if errors.Is(err, storage.ErrConflict) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		log.Printf("ERROR: Failed to update complaint %s: %v", current.ComplaintNumber, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update complaint"})
		return
	}

	transitionsTotal.WithLabelValues(string(role), string(target)).Inc()
	log.Printf("INFO: complaint %s %s -> %s by %s %s", next.ComplaintNumber, current.Status, target, role, actor)
	h.publish(models.EventComplaintUpdated, next)
	c.JSON(http.StatusOK, gin.H{"data": next})
}

// BulkUpdateStatus handles PATCH /complaint/admin/status/bulk.
func (h *Handler) BulkUpdateStatus(c *gin.Context) {
	h.bulkTransition(c, models.RoleAdmin)
}

// BulkTriageStatus handles PATCH /complaint/intermediate/status/bulk.
func (h *Handler) BulkTriageStatus(c *gin.Context) {
	h.bulkTransition(c, models.RoleIntermediate)
}

// bulkTransition applies one transition to many complaints. Members that fail
// validation or changed underneath are reported in "failed"; the rest are
// written in a single transaction.
func (h *Handler) bulkTransition(c *gin.Context, role models.Role) {
	actor, _ := currentUser(c)

	var req models.BulkStatusUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid bulk update body"})
		return
	}
	if err := h.Validate.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	target, err := models.ParseStatus(string(req.Status))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	stored, err := h.Storage.GetComplaints(req.ComplaintIDs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load complaints"})
		return
	}
	byID := make(map[string]models.Complaint, len(stored))
	for _, s := range stored {
		byID[s.ID] = s
	}

	ack := models.BulkAck{Updated: []models.Complaint{}}
	members := make([]models.Complaint, 0, len(req.ComplaintIDs))
	for _, id := range req.ComplaintIDs {
		rec, ok := byID[id]
		switch {
		case !ok:
			ack.Failed = append(ack.Failed, models.BulkRejection{ID: id, Error: "complaint not found"})
		case role == models.RoleAdmin && !ownedBy(rec, actor):
			ack.Failed = append(ack.Failed, models.BulkRejection{ID: id, Error: "complaint is assigned to another admin"})
		default:
			members = append(members, rec)
		}
	}

	res, err := complaint.ApplyBulkTransition(members, role, target, complaint.Payload{
		Feedback: req.Feedback,
		AdminID:  req.AdminID,
		ActorID:  actor,
	})
	if err != nil {
		c.JSON(engineStatus(err), gin.H{"error": err.Error()})
		return
	}
	if target == models.StatusAssigned && len(res.Accepted) > 0 && !h.assignable(c, req.AdminID) {
		return
	}
	for _, f := range res.Excluded {
		ack.Failed = append(ack.Failed, models.BulkRejection{ID: f.ID, Error: f.Err.Error()})
	}

	changes := make([]storage.StatusChange, 0, len(res.Accepted))
	for _, next := range res.Accepted {
		changes = append(changes, storage.StatusChange{Complaint: next, From: byID[next.ID].Status})
	}
	conflicts, err := h.Storage.UpdateComplaints(changes)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update complaints"})
		return
	}
	for _, id := range conflicts {
		ack.Failed = append(ack.Failed, models.BulkRejection{ID: id, Error: storage.ErrConflict.Error()})
	}

	for _, next := range res.Accepted {
		if slices.Contains(conflicts, next.ID) {
			continue
		}
		ack.Updated = append(ack.Updated, next)
		h.publish(models.EventComplaintUpdated, next)
	}
	transitionsTotal.WithLabelValues(string(role), string(target)).Add(float64(len(ack.Updated)))

	log.Printf("INFO: bulk -> %s by %s %s: %d updated, %d failed", target, role, actor, len(ack.Updated), len(ack.Failed))
	c.JSON(http.StatusOK, ack)
}

// assignable writes a 422 and returns false when adminID is not an active admin.
func (h *Handler) assignable(c *gin.Context, adminID string) bool {
	if strings.TrimSpace(adminID) == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": complaint.ErrMissingAssignee.Error()})
		return false
	}
	a, err := h.Storage.GetAdmin(adminID)
	if errors.Is(err, storage.ErrNotFound) || (err == nil && !a.Assignable()) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "admin does not exist or is inactive"})
		return false
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load admin"})
		return false
	}
	return true
}

// ownedBy reports whether admin may act on c: it is unassigned or assigned to them.
func ownedBy(c models.Complaint, admin string) bool {
	a := c.Assignee()
	return a == "" || a == admin
}
