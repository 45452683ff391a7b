package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Status is the lifecycle state of a complaint.
type Status string

const (
	StatusOpen       Status = "open"
	StatusAssigned   Status = "assigned"
	StatusProcessing Status = "processing"
	StatusResolved   Status = "resolved"
	StatusRejected   Status = "rejected"
)

// ErrUnknownStatus is returned for any status string outside the enumerated set.
var ErrUnknownStatus = errors.New("unknown complaint status")

var validStatuses = map[Status]bool{
	StatusOpen:       true,
	StatusAssigned:   true,
	StatusProcessing: true,
	StatusResolved:   true,
	StatusRejected:   true,
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	return validStatuses[s]
}

// ParseStatus normalises and validates a status received from the wire.
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, raw)
	}
	return s, nil
}

// Complaint is a student-filed issue tracked through the status lifecycle.
// JSON keys follow the portal API (`_id`, camelCase attributes).
type Complaint struct {
	// ID is assigned by the server on creation.
	ID string `gorm:"primaryKey;type:uuid" json:"_id"`
	// ComplaintNumber is the human readable number, unique and immutable once issued.
	ComplaintNumber string `gorm:"uniqueIndex;not null" json:"complaintNumber"`
	Status          Status `gorm:"type:varchar(32);index;not null" json:"status"`

	ComplaintType    string `gorm:"index" json:"complaintType"`
	ComplaintSubType string `json:"complaintSubType,omitempty"`
	Description      string `gorm:"type:text" json:"description"`

	StudentName  string `json:"studentName"`
	StudentID    string `gorm:"index" json:"studentId"`
	HostelNumber string `json:"hostelNumber,omitempty"`
	RoomNumber   string `json:"roomNumber,omitempty"`

	Attachments pq.StringArray `gorm:"type:text[]" json:"attachments,omitempty"`

	DateReported time.Time `json:"dateReported"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`

	// AssignedTo references an Admin id. Set only while assigned, processing or resolved.
	AssignedTo *string `gorm:"type:uuid;index" json:"assignedTo"`

	ProcessingFeedback string `gorm:"type:text" json:"processingFeedback,omitempty"`
	ResolvingFeedback  string `gorm:"type:text" json:"resolvingFeedback,omitempty"`
	RejectingFeedback  string `gorm:"type:text" json:"rejectingFeedback,omitempty"`
	ReopeningFeedback  string `gorm:"type:text" json:"reopeningFeedback,omitempty"`
}

// BeforeCreate issues the id, the complaint number and the initial status.
func (c *Complaint) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.Status == "" {
		c.Status = StatusOpen
	}
	if c.DateReported.IsZero() {
		c.DateReported = time.Now()
	}
	if c.ComplaintNumber == "" {
		c.ComplaintNumber = NewComplaintNumber(c.DateReported, c.ID)
	}
	return
}

// NewComplaintNumber builds "CMP-YYYYMMDD-XXXXXX" from the report date and the id.
func NewComplaintNumber(reported time.Time, id string) string {
	suffix := strings.ToUpper(strings.ReplaceAll(id, "-", ""))
	if len(suffix) > 6 {
		suffix = suffix[:6]
	}
	return fmt.Sprintf("CMP-%s-%s", reported.Format("20060102"), suffix)
}

// Assignee returns the assigned admin id or "".
func (c *Complaint) Assignee() string {
	if c.AssignedTo == nil {
		return ""
	}
	return *c.AssignedTo
}

// Clone returns a deep copy so callers can derive new records without aliasing.
func (c Complaint) Clone() Complaint {
	out := c
	if c.AssignedTo != nil {
		id := *c.AssignedTo
		out.AssignedTo = &id
	}
	if c.Attachments != nil {
		out.Attachments = append(pq.StringArray(nil), c.Attachments...)
	}
	return out
}
