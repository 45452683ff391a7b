package handler

import (
	"complaintportal/backend/internal/models"
	"complaintportal/backend/internal/storage"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

func (h *Handler) listAdmins(c *gin.Context, activeOnly bool) {
	admins, err := h.Storage.ListAdmins(activeOnly)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load admins"})
		return
	}
	if admins == nil {
		admins = []models.Admin{}
	}
	c.JSON(http.StatusOK, gin.H{"data": admins})
}

// ListAdmins handles GET /superadmin/admins.
func (h *Handler) ListAdmins(c *gin.Context) {
	h.listAdmins(c, false)
}

// ListActiveAdmins handles GET /intermediate/admins, the assignee picker.
func (h *Handler) ListActiveAdmins(c *gin.Context) {
	h.listAdmins(c, true)
}

// CreateAdmin handles POST /superadmin/admins.
func (h *Handler) CreateAdmin(c *gin.Context) {
	var in models.AdminInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid admin body"})
		return
	}
	if err := h.Validate.Struct(in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if in.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "password is required"})
		return
	}

	a := &models.Admin{
		Username:      strings.TrimSpace(in.Username),
		FullName:      in.FullName,
		Role:          in.Role,
		Department:    in.Department,
		Email:         in.Email,
		ContactNumber: in.ContactNumber,
		IsActive:      true,
	}
	if in.IsActive != nil {
		a.IsActive = *in.IsActive
	}
	if err := h.Validate.Struct(a); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if _, err := h.Storage.GetAdminByUsername(a.Username); err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "username already exists"})
		return
	} else if !errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check username"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}
	a.PasswordHash = string(hash)

	if err := h.Storage.SaveAdmin(a); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save admin"})
		return
	}
	log.Printf("INFO: admin %s created", a.Username)
	c.JSON(http.StatusCreated, gin.H{"data": a})
}

// UpdateAdmin handles PUT /superadmin/admins/:id. Empty fields are left unchanged.
func (h *Handler) UpdateAdmin(c *gin.Context) {
	var in models.AdminInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid admin body"})
		return
	}
	if err := h.Validate.Struct(in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	a, err := h.Storage.GetAdmin(c.Param("id"))
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "admin not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load admin"})
		return
	}

	setIfPresent(&a.FullName, in.FullName)
	setIfPresent(&a.Role, in.Role)
	setIfPresent(&a.Department, in.Department)
	setIfPresent(&a.Email, in.Email)
	setIfPresent(&a.ContactNumber, in.ContactNumber)
	if in.IsActive != nil {
		a.IsActive = *in.IsActive
	}
	if in.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
			return
		}
		a.PasswordHash = string(hash)
	}
	if err := h.Validate.Struct(a); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.Storage.UpdateAdmin(a); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update admin"})
		return
	}
	log.Printf("INFO: admin %s updated (active=%t)", a.Username, a.IsActive)
	c.JSON(http.StatusOK, gin.H{"data": a})
}

// DeleteAdmin handles DELETE /superadmin/admins/:id.
func (h *Handler) DeleteAdmin(c *gin.Context) {
	id := c.Param("id")
	err := h.Storage.DeleteAdmin(id)
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "admin not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete admin"})
		return
	}
	log.Printf("INFO: admin %s deleted", id)
	c.JSON(http.StatusOK, gin.H{"message": "admin deleted"})
}

func setIfPresent(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}
