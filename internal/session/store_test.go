package session_test

import (
	"complaintportal/backend/internal/config"
	"complaintportal/backend/internal/models"
	"complaintportal/backend/internal/session"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockAuthenticator struct {
	mock.Mock
}

func (m *MockAuthenticator) Login(ctx context.Context, role models.Role, username, password string) (*models.Principal, error) {
	args := m.Called(role, username, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Principal), args.Error(1)
}

func adminPrincipal() *models.Principal {
	return &models.Principal{
		Role:     models.RoleAdmin,
		Token:    "admin-token",
		UserData: json.RawMessage(`{"id":"a1","username":"admin","name":"Admin User"}`),
	}
}

func TestStore_LoginPersistsBothKeys(t *testing.T) {
	// Arrange
	kv := session.NewMemoryKV()
	store := session.NewStore(kv)
	auth := new(MockAuthenticator)
	auth.On("Login", models.RoleAdmin, "admin", "123").Return(adminPrincipal(), nil)

	// Act
	p, err := store.Login(context.Background(), auth, models.RoleAdmin, "admin", "123")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, p.Role)
	assert.Equal(t, "admin-token", store.Token())
	assert.False(t, store.IsLoading())

	token, err := kv.Get(context.Background(), config.SessionTokenKey)
	require.NoError(t, err)
	assert.Equal(t, "admin-token", token)

	raw, err := kv.Get(context.Background(), config.SessionAuthKey)
	require.NoError(t, err)
	assert.Contains(t, raw, `"role":"admin"`)
}

func TestStore_LoadSurvivesRestart(t *testing.T) {
	kv := session.NewMemoryKV()
	first := session.NewStore(kv)
	auth := new(MockAuthenticator)
	auth.On("Login", models.RoleAdmin, "admin", "123").Return(adminPrincipal(), nil)
	_, err := first.Login(context.Background(), auth, models.RoleAdmin, "admin", "123")
	require.NoError(t, err)

	second := session.NewStore(kv)
	assert.True(t, second.IsLoading(), "a fresh store is loading until Load returns")
	require.NoError(t, second.Load(context.Background()))

	assert.False(t, second.IsLoading())
	require.NotNil(t, second.Current())
	assert.Equal(t, "a1", second.Current().Profile().ID)
}

func TestStore_LoadEmpty(t *testing.T) {
	store := session.NewStore(session.NewMemoryKV())

	require.NoError(t, store.Load(context.Background()))

	assert.Nil(t, store.Current())
	assert.Empty(t, store.Token())
}

func TestStore_LoadUnknownRoleClears(t *testing.T) {
	kv := session.NewMemoryKV()
	require.NoError(t, kv.Set(context.Background(), map[string]string{
		config.SessionAuthKey:  `{"role":"root","token":"x"}`,
		config.SessionTokenKey: "x",
	}))
	store := session.NewStore(kv)

	require.NoError(t, store.Load(context.Background()))

	assert.Nil(t, store.Current(), "an unrecognised role must never grant access")
	_, err := kv.Get(context.Background(), config.SessionTokenKey)
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestStore_LoadCorruptClears(t *testing.T) {
	kv := session.NewMemoryKV()
	require.NoError(t, kv.Set(context.Background(), map[string]string{config.SessionAuthKey: "{not json"}))
	store := session.NewStore(kv)

	require.NoError(t, store.Load(context.Background()))

	assert.Nil(t, store.Current())
	_, err := kv.Get(context.Background(), config.SessionAuthKey)
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestStore_LogoutClearsEverything(t *testing.T) {
	kv := session.NewMemoryKV()
	store := session.NewStore(kv)
	auth := new(MockAuthenticator)
	auth.On("Login", models.RoleAdmin, "admin", "123").Return(adminPrincipal(), nil)
	_, err := store.Login(context.Background(), auth, models.RoleAdmin, "admin", "123")
	require.NoError(t, err)

	var notified []*models.Principal
	store.OnChange(func(p *models.Principal) { notified = append(notified, p) })

	require.NoError(t, store.Logout(context.Background()))

	assert.Nil(t, store.Current())
	assert.Empty(t, store.Token())
	_, err = kv.Get(context.Background(), config.SessionAuthKey)
	assert.ErrorIs(t, err, session.ErrNotFound)
	_, err = kv.Get(context.Background(), config.SessionTokenKey)
	assert.ErrorIs(t, err, session.ErrNotFound)
	require.Len(t, notified, 1)
	assert.Nil(t, notified[0])
}

func TestStore_FailedLoginClearsSession(t *testing.T) {
	store := session.NewStore(session.NewMemoryKV())
	auth := new(MockAuthenticator)
	auth.On("Login", models.RoleAdmin, "admin", "123").Return(adminPrincipal(), nil).Once()
	auth.On("Login", models.RoleAdmin, "admin", "bad").Return(nil, errors.New("Authentication failed")).Once()

	_, err := store.Login(context.Background(), auth, models.RoleAdmin, "admin", "123")
	require.NoError(t, err)

	_, err = store.Login(context.Background(), auth, models.RoleAdmin, "admin", "bad")

	assert.Error(t, err)
	assert.Nil(t, store.Current())
}

func TestStore_LoginRoleMismatchRejected(t *testing.T) {
	store := session.NewStore(session.NewMemoryKV())
	auth := new(MockAuthenticator)
	auth.On("Login", models.RoleSuperAdmin, "admin", "123").Return(adminPrincipal(), nil)

	_, err := store.Login(context.Background(), auth, models.RoleSuperAdmin, "admin", "123")

	assert.Error(t, err)
	assert.Nil(t, store.Current())
}

func TestStore_LoginUnknownRole(t *testing.T) {
	store := session.NewStore(session.NewMemoryKV())
	auth := new(MockAuthenticator)

	_, err := store.Login(context.Background(), auth, models.Role("guest"), "x", "y")

	assert.ErrorIs(t, err, models.ErrUnknownRole)
	auth.AssertNotCalled(t, "Login", mock.Anything, mock.Anything, mock.Anything)
}

func TestStore_CurrentIsACopy(t *testing.T) {
	store := session.NewStore(session.NewMemoryKV())
	auth := new(MockAuthenticator)
	auth.On("Login", models.RoleAdmin, "admin", "123").Return(adminPrincipal(), nil)
	_, err := store.Login(context.Background(), auth, models.RoleAdmin, "admin", "123")
	require.NoError(t, err)

	p := store.Current()
	p.Role = models.RoleSuperAdmin

	assert.Equal(t, models.RoleAdmin, store.Current().Role)
}
