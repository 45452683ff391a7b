// Package portalapi speaks the complaint portal's HTTP contract on top of a
// transport.Transport. List endpoints answer {"data": [...]}.
package portalapi

import (
	"complaintportal/backend/internal/analysis"
	"complaintportal/backend/internal/cache"
	"complaintportal/backend/internal/models"
	"complaintportal/backend/internal/transport"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// ErrEmptyData is returned when a success response carries no record.
var ErrEmptyData = errors.New("response carried no data")

// Client is the typed portal API.
type Client struct {
	T transport.Transport
}

// New wraps t.
func New(t transport.Transport) *Client {
	return &Client{T: t}
}

type envelope[T any] struct {
	Data T `json:"data"`
}

func do[T any](ctx context.Context, c *Client, method, path string, body any) (T, error) {
	var zero T
	resp, err := c.T.Request(ctx, method, path, transport.Options{Body: body})
	if err != nil {
		return zero, err
	}
	var env envelope[T]
	if err := resp.Decode(&env); err != nil {
		return zero, fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return env.Data, nil
}

// record is do for endpoints that answer with a single complaint.
func record(ctx context.Context, c *Client, method, path string, body any) (*models.Complaint, error) {
	rec, err := do[*models.Complaint](ctx, c, method, path, body)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, ErrEmptyData)
	}
	return rec, nil
}

func withQuery(path string, kv ...string) string {
	q := url.Values{}
	for i := 0; i+1 < len(kv); i += 2 {
		q.Set(kv[i], kv[i+1])
	}
	return path + "?" + q.Encode()
}

// ListAll returns every complaint (admin, triage).
func (c *Client) ListAll(ctx context.Context) ([]models.Complaint, error) {
	return do[[]models.Complaint](ctx, c, http.MethodGet, "/complaint/get/all", nil)
}

// ListAssigned returns the complaints assigned to adminID.
func (c *Client) ListAssigned(ctx context.Context, adminID string) ([]models.Complaint, error) {
	return do[[]models.Complaint](ctx, c, http.MethodGet, withQuery("/complaint/get/assigned", "adminId", adminID), nil)
}

// ListOpen returns the complaints waiting for triage.
func (c *Client) ListOpen(ctx context.Context) ([]models.Complaint, error) {
	return do[[]models.Complaint](ctx, c, http.MethodGet, "/complaint/get/open", nil)
}

// ListByStudent returns the complaints filed by studentID.
func (c *Client) ListByStudent(ctx context.Context, studentID string) ([]models.Complaint, error) {
	return do[[]models.Complaint](ctx, c, http.MethodGet, withQuery("/complaint/get", "studentId", studentID), nil)
}

// Get returns one of the student's complaints.
func (c *Client) Get(ctx context.Context, complaintID, studentID string) (*models.Complaint, error) {
	return record(ctx, c, http.MethodGet,
		withQuery("/complaint/getById", "complaintId", complaintID, "studentId", studentID), nil)
}

// File submits a new complaint for studentID.
func (c *Client) File(ctx context.Context, studentID string, in models.NewComplaint) (*models.Complaint, error) {
	return record(ctx, c, http.MethodPost, withQuery("/complaint/post", "studentId", studentID), in)
}

// UpdateStatus sends an admin transition.
func (c *Client) UpdateStatus(ctx context.Context, u models.StatusUpdate) (*models.Complaint, error) {
	return record(ctx, c, http.MethodPatch, "/complaint/admin/status", u)
}

// Triage sends a triage transition (assign or reject).
func (c *Client) Triage(ctx context.Context, u models.StatusUpdate) (*models.Complaint, error) {
	return record(ctx, c, http.MethodPatch, "/complaint/intermediate/status", u)
}

// Assign routes a complaint to adminID.
func (c *Client) Assign(ctx context.Context, complaintID, adminID string) (*models.Complaint, error) {
	return c.Triage(ctx, models.StatusUpdate{ComplaintID: complaintID, Status: models.StatusAssigned, AdminID: adminID})
}

// Reject closes a complaint with the triage reason.
func (c *Client) Reject(ctx context.Context, complaintID, feedback string) (*models.Complaint, error) {
	return c.Triage(ctx, models.StatusUpdate{ComplaintID: complaintID, Status: models.StatusRejected, Feedback: feedback})
}

// BulkUpdateStatus sends one admin transition for many complaints.
func (c *Client) BulkUpdateStatus(ctx context.Context, u models.BulkStatusUpdate) (*models.BulkAck, error) {
	return c.bulk(ctx, "/complaint/admin/status/bulk", u)
}

// BulkTriage sends one triage transition for many complaints.
func (c *Client) BulkTriage(ctx context.Context, u models.BulkStatusUpdate) (*models.BulkAck, error) {
	return c.bulk(ctx, "/complaint/intermediate/status/bulk", u)
}

// BulkAssign routes every id to adminID in one request.
func (c *Client) BulkAssign(ctx context.Context, ids []string, adminID string) (*models.BulkAck, error) {
	return c.BulkTriage(ctx, models.BulkStatusUpdate{ComplaintIDs: ids, Status: models.StatusAssigned, AdminID: adminID})
}

func (c *Client) bulk(ctx context.Context, path string, u models.BulkStatusUpdate) (*models.BulkAck, error) {
	resp, err := c.T.Request(ctx, http.MethodPatch, path, transport.Options{Body: u})
	if err != nil {
		return nil, err
	}
	var ack models.BulkAck
	if err := resp.Decode(&ack); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return &ack, nil
}

// DashboardSummary returns the admin dashboard counts.
func (c *Client) DashboardSummary(ctx context.Context) (*analysis.Summary, error) {
	return do[*analysis.Summary](ctx, c, http.MethodGet, "/admin/dashboard/summary", nil)
}

// ListAdmins returns every admin account (super-admin).
func (c *Client) ListAdmins(ctx context.Context) ([]models.Admin, error) {
	return do[[]models.Admin](ctx, c, http.MethodGet, "/superadmin/admins", nil)
}

// ListActiveAdmins returns the admins a complaint may be assigned to (triage).
func (c *Client) ListActiveAdmins(ctx context.Context) ([]models.Admin, error) {
	return do[[]models.Admin](ctx, c, http.MethodGet, "/intermediate/admins", nil)
}

// CreateAdmin creates an admin account.
func (c *Client) CreateAdmin(ctx context.Context, in models.AdminInput) (*models.Admin, error) {
	return do[*models.Admin](ctx, c, http.MethodPost, "/superadmin/admins", in)
}

// UpdateAdmin edits an admin account.
func (c *Client) UpdateAdmin(ctx context.Context, id string, in models.AdminInput) (*models.Admin, error) {
	return do[*models.Admin](ctx, c, http.MethodPut, "/superadmin/admins/"+url.PathEscape(id), in)
}

// SetAdminActive enables or disables an admin account.
func (c *Client) SetAdminActive(ctx context.Context, id string, active bool) (*models.Admin, error) {
	return c.UpdateAdmin(ctx, id, models.AdminInput{IsActive: &active})
}

// DeleteAdmin removes an admin account.
func (c *Client) DeleteAdmin(ctx context.Context, id string) error {
	_, err := c.T.Request(ctx, http.MethodDelete, "/superadmin/admins/"+url.PathEscape(id), transport.Options{})
	return err
}

// Login authenticates against /{role}/login. It implements session.Authenticator.
func (c *Client) Login(ctx context.Context, role models.Role, username, password string) (*models.Principal, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: %q", models.ErrUnknownRole, role)
	}
	resp, err := c.T.Request(ctx, http.MethodPost, "/"+string(role)+"/login", transport.Options{
		Body: models.LoginRequest{Username: strings.TrimSpace(username), Password: password},
	})
	if err != nil {
		return nil, err
	}

	var out models.LoginResponse
	if err := resp.Decode(&out); err != nil {
		return nil, fmt.Errorf("decode login: %w", err)
	}
	if out.Token == "" {
		return nil, fmt.Errorf("login as %s: empty token", role)
	}
	if out.Role == "" {
		out.Role = role
	}
	return &models.Principal{Role: out.Role, Token: out.Token, UserData: out.UserData}, nil
}

// Logout revokes the current token on the server.
func (c *Client) Logout(ctx context.Context) error {
	_, err := c.T.Request(ctx, http.MethodPost, "/logout", transport.Options{})
	return err
}

// Fetch implements cache.Fetcher.
func (c *Client) Fetch(ctx context.Context, scope cache.Scope) ([]models.Complaint, error) {
	switch scope.Kind {
	case cache.KindAll:
		return c.ListAll(ctx)
	case cache.KindAssignedTo:
		return c.ListAssigned(ctx, scope.ID)
	case cache.KindOpen:
		return c.ListOpen(ctx)
	case cache.KindFiledBy:
		return c.ListByStudent(ctx, scope.ID)
	default:
		return nil, fmt.Errorf("unsupported scope %q", scope.Kind)
	}
}
