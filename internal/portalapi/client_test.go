package portalapi_test

import (
	"complaintportal/backend/internal/cache"
	"complaintportal/backend/internal/complaint"
	"complaintportal/backend/internal/models"
	"complaintportal/backend/internal/portalapi"
	"complaintportal/backend/internal/session"
	"complaintportal/backend/internal/transport"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The client is the core's remote collaborator.
var (
	_ session.Authenticator = (*portalapi.Client)(nil)
	_ cache.Fetcher         = (*portalapi.Client)(nil)
	_ complaint.API         = (*portalapi.Client)(nil)
)

type recorded struct {
	Method string
	URI    string
	Auth   string
	Body   string
}

func newServer(t *testing.T, status int, reply string) (*portalapi.Client, *[]recorded) {
	t.Helper()
	var calls []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		calls = append(calls, recorded{Method: r.Method, URI: r.URL.RequestURI(), Auth: r.Header.Get("Authorization"), Body: string(body)})
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)
	return portalapi.New(transport.NewHTTPTransport(srv.URL, func() string { return "tok" })), &calls
}

func TestClient_FetchScopes(t *testing.T) {
	tests := []struct {
		scope cache.Scope
		uri   string
	}{
		{cache.All(), "/complaint/get/all"},
		{cache.AssignedTo("a 1"), "/complaint/get/assigned?adminId=a+1"},
		{cache.OpenForTriage(), "/complaint/get/open"},
		{cache.FiledBy("s1"), "/complaint/get?studentId=s1"},
	}

	for _, tt := range tests {
		t.Run(tt.scope.String(), func(t *testing.T) {
			client, calls := newServer(t, http.StatusOK, `{"data":[{"_id":"c1","status":"open"},{"_id":"c2","status":"assigned"}]}`)

			got, err := client.Fetch(context.Background(), tt.scope)

			require.NoError(t, err)
			require.Len(t, got, 2)
			assert.Equal(t, "c1", got[0].ID)
			assert.Equal(t, models.StatusAssigned, got[1].Status)
			require.Len(t, *calls, 1)
			assert.Equal(t, http.MethodGet, (*calls)[0].Method)
			assert.Equal(t, tt.uri, (*calls)[0].URI)
			assert.Equal(t, "Bearer tok", (*calls)[0].Auth)
		})
	}
}

func TestClient_FetchUnauthorized(t *testing.T) {
	client, _ := newServer(t, http.StatusUnauthorized, `{"error":"token revoked"}`)

	_, err := client.Fetch(context.Background(), cache.All())

	require.Error(t, err)
	assert.True(t, transport.IsUnauthorized(err))
	assert.Contains(t, err.Error(), "token revoked")
}

func TestClient_UpdateStatus(t *testing.T) {
	client, calls := newServer(t, http.StatusOK, `{"data":{"_id":"c1","status":"processing","assignedTo":"a1","processingFeedback":"on it"}}`)

	got, err := client.UpdateStatus(context.Background(), models.StatusUpdate{ComplaintID: "c1", Status: models.StatusProcessing, Feedback: "on it"})

	require.NoError(t, err)
	assert.Equal(t, "a1", got.Assignee())
	call := (*calls)[0]
	assert.Equal(t, http.MethodPatch, call.Method)
	assert.Equal(t, "/complaint/admin/status", call.URI)
	assert.JSONEq(t, `{"complaintId":"c1","status":"processing","feedback":"on it"}`, call.Body)
}

func TestClient_UpdateStatusWithoutData(t *testing.T) {
	client, _ := newServer(t, http.StatusOK, `{"message":"Status updated"}`)

	got, err := client.UpdateStatus(context.Background(), models.StatusUpdate{ComplaintID: "c1", Status: models.StatusProcessing, Feedback: "on it"})

	assert.ErrorIs(t, err, portalapi.ErrEmptyData)
	assert.Nil(t, got)
}

func TestClient_AssignAndReject(t *testing.T) {
	client, calls := newServer(t, http.StatusOK, `{"data":{"_id":"c1","status":"assigned","assignedTo":"a1"}}`)

	_, err := client.Assign(context.Background(), "c1", "a1")
	require.NoError(t, err)
	_, err = client.Reject(context.Background(), "c1", "spam")
	require.NoError(t, err)

	require.Len(t, *calls, 2)
	assert.Equal(t, "/complaint/intermediate/status", (*calls)[0].URI)
	assert.JSONEq(t, `{"complaintId":"c1","status":"assigned","adminId":"a1"}`, (*calls)[0].Body)
	assert.JSONEq(t, `{"complaintId":"c1","status":"rejected","feedback":"spam"}`, (*calls)[1].Body)
}

func TestClient_BulkAssign(t *testing.T) {
	client, calls := newServer(t, http.StatusOK, `{"data":[{"_id":"c1","status":"assigned","assignedTo":"a1"}],"failed":[{"id":"c2","error":"not open"}]}`)

	ack, err := client.BulkAssign(context.Background(), []string{"c1", "c2"}, "a1")

	require.NoError(t, err)
	require.Len(t, ack.Updated, 1)
	require.Len(t, ack.Failed, 1)
	assert.Equal(t, "c2", ack.Failed[0].ID)
	assert.Equal(t, "/complaint/intermediate/status/bulk", (*calls)[0].URI)
	assert.JSONEq(t, `{"complaintIds":["c1","c2"],"status":"assigned","adminId":"a1"}`, (*calls)[0].Body)
}

func TestClient_File(t *testing.T) {
	client, calls := newServer(t, http.StatusCreated, `{"data":{"_id":"c9","complaintNumber":"CMP-20250314-ABCDEF","status":"open"}}`)

	got, err := client.File(context.Background(), "s1", models.NewComplaint{ComplaintType: "Hostel", Description: "No water", StudentName: "Asha"})

	require.NoError(t, err)
	assert.Equal(t, "CMP-20250314-ABCDEF", got.ComplaintNumber)
	assert.Equal(t, http.MethodPost, (*calls)[0].Method)
	assert.Equal(t, "/complaint/post?studentId=s1", (*calls)[0].URI)
}

func TestClient_Login(t *testing.T) {
	client, calls := newServer(t, http.StatusOK, `{"token":"jwt","role":"admin","userData":{"id":"a1","username":"warden"}}`)

	p, err := client.Login(context.Background(), models.RoleAdmin, " warden ", "secret")

	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, p.Role)
	assert.Equal(t, "jwt", p.Token)
	assert.Equal(t, "a1", p.Profile().ID)
	assert.Equal(t, "/admin/login", (*calls)[0].URI)

	var body models.LoginRequest
	require.NoError(t, json.Unmarshal([]byte((*calls)[0].Body), &body))
	assert.Equal(t, "warden", body.Username)
}

func TestClient_LoginRejected(t *testing.T) {
	client, _ := newServer(t, http.StatusUnauthorized, `{"error":"invalid credentials"}`)

	_, err := client.Login(context.Background(), models.RoleAdmin, "warden", "nope")
	assert.True(t, transport.IsUnauthorized(err))

	_, err = client.Login(context.Background(), models.Role("guest"), "x", "y")
	assert.ErrorIs(t, err, models.ErrUnknownRole)
}

func TestClient_AdminCRUD(t *testing.T) {
	client, calls := newServer(t, http.StatusOK, `{"data":{"_id":"a1","username":"warden","isActive":false}}`)

	got, err := client.SetAdminActive(context.Background(), "a1", false)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
	assert.Equal(t, http.MethodPut, (*calls)[0].Method)
	assert.Equal(t, "/superadmin/admins/a1", (*calls)[0].URI)
	assert.JSONEq(t, `{"isActive":false}`, (*calls)[0].Body)

	require.NoError(t, client.DeleteAdmin(context.Background(), "a1"))
	assert.Equal(t, http.MethodDelete, (*calls)[1].Method)
}

func TestClient_DashboardSummary(t *testing.T) {
	client, _ := newServer(t, http.StatusOK, `{"data":{"total":3,"byStatus":{"open":2,"resolved":1},"byType":{"Hostel":3},"unassigned":2}}`)

	s, err := client.DashboardSummary(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 2, s.ByStatus[models.StatusOpen])
}
