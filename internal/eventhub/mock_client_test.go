package eventhub_test

import (
	"complaintportal/backend/internal/models"
	"sync"
)

type MockClient struct {
	userID      string
	role        models.Role
	RecvChannel chan models.ComplaintEvent

	mu     sync.Mutex
	closed bool
}

func newMockClient(userID string, role models.Role, buffer int) *MockClient {
	return &MockClient{
		userID:      userID,
		role:        role,
		RecvChannel: make(chan models.ComplaintEvent, buffer),
	}
}

func (c *MockClient) GetUserID() string                            { return c.userID }
func (c *MockClient) GetRole() models.Role                         { return c.role }
func (c *MockClient) GetSendChannel() chan<- models.ComplaintEvent { return c.RecvChannel }

func (c *MockClient) Run() {
	// Not needed for testing
}

func (c *MockClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *MockClient) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
