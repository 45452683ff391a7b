// Package handler is the portal's HTTP API: logins, complaint queries and
// transitions, admin management and the event feed.
package handler

import (
	"complaintportal/backend/internal/config"
	"complaintportal/backend/internal/eventhub"
	"complaintportal/backend/internal/models"
	"complaintportal/backend/internal/notify"
	"complaintportal/backend/internal/storage"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler holds the dependencies of every route.
type Handler struct {
	Storage  storage.Storage
	Hub      *eventhub.Hub
	Notifier notify.Notifier
	Secret   []byte
	// Accounts are the static logins per role. Admins log in against storage.
	Accounts map[models.Role]map[string]string
	Validate *validator.Validate
	Now      func() time.Time
}

func NewHandler(s storage.Storage, hub *eventhub.Hub, n notify.Notifier, cfg *config.Config) *Handler {
	if n == nil {
		n = notify.Nop{}
	}
	return &Handler{
		Storage:  s,
		Hub:      hub,
		Notifier: n,
		Secret:   []byte(cfg.JWTSecret),
		Accounts: map[models.Role]map[string]string{
			models.RoleStudent:      config.ParseAccounts(cfg.DemoStudents),
			models.RoleIntermediate: config.ParseAccounts(cfg.TriageAccounts),
			models.RoleSuperAdmin:   config.ParseAccounts(cfg.SuperAdminAccounts),
		},
		Validate: validator.New(),
		Now:      time.Now,
	}
}

// Router registers every route on a new gin engine.
func (h *Handler) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), Metrics())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	for _, role := range models.AllRoles {
		r.POST("/"+string(role)+"/login", h.Login(role))
	}

	authed := r.Group("/", h.AuthMiddleware())
	authed.POST("/logout", h.Logout)
	authed.GET("/ws", h.ServeWebSocket)

	staff := RequireRole(models.RoleAdmin, models.RoleIntermediate)
	admin := RequireRole(models.RoleAdmin)
	triage := RequireRole(models.RoleIntermediate)
	student := RequireRole(models.RoleStudent)
	super := RequireRole(models.RoleSuperAdmin)

	c := authed.Group("/complaint")
	c.GET("/get/all", staff, h.ListAll)
	c.GET("/get/assigned", admin, h.ListAssigned)
	c.GET("/get/open", triage, h.ListOpen)
	c.GET("/get", student, h.ListByStudent)
	c.GET("/getById", student, h.GetComplaint)
	c.POST("/post", student, h.FileComplaint)
	c.PATCH("/admin/status", admin, h.UpdateStatus)
	c.PATCH("/admin/status/bulk", admin, h.BulkUpdateStatus)
	c.PATCH("/intermediate/status", triage, h.TriageStatus)
	c.PATCH("/intermediate/status/bulk", triage, h.BulkTriageStatus)

	authed.GET("/admin/dashboard/summary", RequireRole(models.RoleAdmin, models.RoleSuperAdmin), h.DashboardSummary)
	authed.GET("/intermediate/admins", triage, h.ListActiveAdmins)

	sa := authed.Group("/superadmin/admins", super)
	sa.GET("", h.ListAdmins)
	sa.POST("", h.CreateAdmin)
	sa.PUT("/:id", h.UpdateAdmin)
	sa.DELETE("/:id", h.DeleteAdmin)

	return r
}

// publish fans a confirmed change out to the event feed and the notifier.
func (h *Handler) publish(eventType string, c models.Complaint) {
	ev := models.ComplaintEvent{Type: eventType, Complaint: c}
	if err := h.Storage.PublishEvent(ev); err != nil {
		log.Printf("ERROR: Failed to publish %s for %s: %v", eventType, c.ComplaintNumber, err)
	}
	h.Notifier.Notify(ev)
}
