package models

import "encoding/json"

// LoginRequest is the body of POST /{role}/login.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse is returned by a successful login.
type LoginResponse struct {
	Token    string          `json:"token"`
	Role     Role            `json:"role"`
	UserData json.RawMessage `json:"userData"`
}

// NewComplaint is the body of POST /complaint/post.
type NewComplaint struct {
	ComplaintType    string   `json:"complaintType" validate:"required"`
	ComplaintSubType string   `json:"complaintSubType,omitempty"`
	Description      string   `json:"description" validate:"required,max=2000"`
	StudentName      string   `json:"studentName" validate:"required"`
	HostelNumber     string   `json:"hostelNumber,omitempty"`
	RoomNumber       string   `json:"roomNumber,omitempty"`
	Attachments      []string `json:"attachments,omitempty" validate:"omitempty,max=5,dive,url"`
}

// StatusUpdate is the body of the single-complaint status PATCH endpoints.
type StatusUpdate struct {
	ComplaintID string `json:"complaintId" validate:"required"`
	Status      Status `json:"status" validate:"required"`
	Feedback    string `json:"feedback,omitempty" validate:"max=2000"`
	AdminID     string `json:"adminId,omitempty"`
}

// BulkStatusUpdate applies one transition to many complaints in a single request.
type BulkStatusUpdate struct {
	ComplaintIDs []string `json:"complaintIds" validate:"required,min=1,max=200,dive,required"`
	Status       Status   `json:"status" validate:"required"`
	Feedback     string   `json:"feedback,omitempty" validate:"max=2000"`
	AdminID      string   `json:"adminId,omitempty"`
}

// BulkRejection names a member the server refused and why.
type BulkRejection struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

// BulkAck is the server's answer to a bulk update.
type BulkAck struct {
	Updated []Complaint     `json:"data"`
	Failed  []BulkRejection `json:"failed,omitempty"`
}

// AdminInput creates or edits an admin account. On update, empty fields are left unchanged.
type AdminInput struct {
	Username      string `json:"username,omitempty" validate:"omitempty,min=3,max=64"`
	Password      string `json:"password,omitempty" validate:"omitempty,min=8"`
	FullName      string `json:"fullName,omitempty"`
	Role          string `json:"role,omitempty"`
	Department    string `json:"department,omitempty"`
	Email         string `json:"email,omitempty" validate:"omitempty,email"`
	ContactNumber string `json:"contactNumber,omitempty"`
	IsActive      *bool  `json:"isActive,omitempty"`
}
