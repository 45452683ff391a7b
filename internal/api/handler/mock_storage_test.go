package handler_test

import (
	"complaintportal/backend/internal/models"
	"complaintportal/backend/internal/storage"
	"time"

	"github.com/stretchr/testify/mock"
)

type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) SaveComplaint(c *models.Complaint) error {
	args := m.Called(c)
	return args.Error(0)
}

func (m *MockStorage) GetComplaint(id string) (*models.Complaint, error) {
	args := m.Called(id)
	c, _ := args.Get(0).(*models.Complaint)
	return c, args.Error(1)
}

func (m *MockStorage) GetComplaints(ids []string) ([]models.Complaint, error) {
	args := m.Called(ids)
	cs, _ := args.Get(0).([]models.Complaint)
	return cs, args.Error(1)
}

func (m *MockStorage) ListComplaints(f storage.ComplaintFilter) ([]models.Complaint, error) {
	args := m.Called(f)
	cs, _ := args.Get(0).([]models.Complaint)
	return cs, args.Error(1)
}

func (m *MockStorage) UpdateComplaint(ch storage.StatusChange) error {
	args := m.Called(ch)
	return args.Error(0)
}

func (m *MockStorage) UpdateComplaints(chs []storage.StatusChange) ([]string, error) {
	args := m.Called(chs)
	ids, _ := args.Get(0).([]string)
	return ids, args.Error(1)
}

func (m *MockStorage) SaveAdmin(a *models.Admin) error {
	args := m.Called(a)
	return args.Error(0)
}

func (m *MockStorage) GetAdmin(id string) (*models.Admin, error) {
	args := m.Called(id)
	a, _ := args.Get(0).(*models.Admin)
	return a, args.Error(1)
}

func (m *MockStorage) GetAdminByUsername(username string) (*models.Admin, error) {
	args := m.Called(username)
	a, _ := args.Get(0).(*models.Admin)
	return a, args.Error(1)
}

func (m *MockStorage) ListAdmins(activeOnly bool) ([]models.Admin, error) {
	args := m.Called(activeOnly)
	as, _ := args.Get(0).([]models.Admin)
	return as, args.Error(1)
}

func (m *MockStorage) UpdateAdmin(a *models.Admin) error {
	args := m.Called(a)
	return args.Error(0)
}

func (m *MockStorage) DeleteAdmin(id string) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *MockStorage) RevokeToken(jti string, ttl time.Duration) error {
	args := m.Called(jti, ttl)
	return args.Error(0)
}

func (m *MockStorage) IsTokenRevoked(jti string) (bool, error) {
	args := m.Called(jti)
	return args.Bool(0), args.Error(1)
}

func (m *MockStorage) PublishEvent(ev models.ComplaintEvent) error {
	args := m.Called(ev)
	return args.Error(0)
}

var _ storage.Storage = (*MockStorage)(nil)
