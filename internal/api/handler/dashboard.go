package handler

import (
	"complaintportal/backend/internal/analysis"
	"complaintportal/backend/internal/models"
	"complaintportal/backend/internal/storage"
	"net/http"

	"github.com/gin-gonic/gin"
)

// DashboardSummary handles GET /admin/dashboard/summary. Admins get their own
// queue, the super-admin gets every complaint.
func (h *Handler) DashboardSummary(c *gin.Context) {
	userID, role := currentUser(c)

	var f storage.ComplaintFilter
	if role == models.RoleAdmin {
		f.AssignedTo = userID
	}
	cs, err := h.Storage.ListComplaints(f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load complaints"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": analysis.Summarize(cs)})
}
