package storage

import (
	"complaintportal/backend/internal/config"
	"complaintportal/backend/internal/models"
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when a complaint or admin does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a complaint changed status since it was read.
	ErrConflict = errors.New("complaint was modified concurrently")
)

// ComplaintFilter narrows ListComplaints. Zero fields match everything.
type ComplaintFilter struct {
	Status     models.Status
	AssignedTo string
	StudentID  string
}

// StatusChange is a complaint record to persist, guarded by the status it was read in.
type StatusChange struct {
	Complaint models.Complaint
	From      models.Status
}

type Storage interface {
	SaveComplaint(c *models.Complaint) error
	GetComplaint(id string) (*models.Complaint, error)
	GetComplaints(ids []string) ([]models.Complaint, error)
	ListComplaints(f ComplaintFilter) ([]models.Complaint, error)
	UpdateComplaint(ch StatusChange) error
	UpdateComplaints(chs []StatusChange) (conflicts []string, err error)

	SaveAdmin(a *models.Admin) error
	GetAdmin(id string) (*models.Admin, error)
	GetAdminByUsername(username string) (*models.Admin, error)
	ListAdmins(activeOnly bool) ([]models.Admin, error)
	UpdateAdmin(a *models.Admin) error
	DeleteAdmin(id string) error

	RevokeToken(jti string, ttl time.Duration) error
	IsTokenRevoked(jti string) (bool, error)

	PublishEvent(ev models.ComplaintEvent) error
}

type Service struct {
	DB    *gorm.DB
	Redis *redis.Client
	Ctx   context.Context
}

// NewStorageService Constructor
func NewStorageService(db *gorm.DB, rdb *redis.Client) *Service {
	return &Service{
		DB:    db,
		Redis: rdb,
		Ctx:   context.Background(),
	}
}

// Migrate creates or updates the complaint and admin tables.
func (s *Service) Migrate() error {
	return s.DB.AutoMigrate(&models.Complaint{}, &models.Admin{})
}

// RevokeToken blacklists a token id until it would have expired anyway.
func (s *Service) RevokeToken(jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return s.Redis.Set(s.Ctx, config.RevokedPrefix+jti, "1", ttl).Err()
}

// IsTokenRevoked checks the blacklist in Redis.
func (s *Service) IsTokenRevoked(jti string) (bool, error) {
	_, err := s.Redis.Get(s.Ctx, config.RevokedPrefix+jti).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// PublishEvent publishes a confirmed complaint change on the events channel.
func (s *Service) PublishEvent(ev models.ComplaintEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return s.Redis.Publish(s.Ctx, config.EventsChannel, string(payload)).Err()
}

// SubscribeToEvents subscribes to the events channel. The caller closes the subscription.
func (s *Service) SubscribeToEvents(ctx context.Context) *redis.PubSub {
	return s.Redis.Subscribe(ctx, config.EventsChannel)
}
