package storage

import (
	"complaintportal/backend/internal/models"
	"errors"
	"log"
	"time"

	"gorm.io/gorm"
)

// Columns written by a status transition. Everything else is immutable after filing.
var transitionColumns = []string{
	"status",
	"assigned_to",
	"processing_feedback",
	"resolving_feedback",
	"rejecting_feedback",
	"reopening_feedback",
	"updated_at",
}

func (s *Service) SaveComplaint(c *models.Complaint) error {
	if err := s.DB.Create(c).Error; err != nil {
		log.Printf("ERROR: Failed to save complaint for student %s: %v", c.StudentID, err)
		return err
	}
	return nil
}

func (s *Service) GetComplaint(id string) (*models.Complaint, error) {
	var c models.Complaint
	err := s.DB.Where("id = ?", id).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetComplaints loads every id that exists; missing ids are simply absent.
func (s *Service) GetComplaints(ids []string) ([]models.Complaint, error) {
	var cs []models.Complaint
	if len(ids) == 0 {
		return cs, nil
	}
	if err := s.DB.Where("id IN ?", ids).Find(&cs).Error; err != nil {
		log.Printf("ERROR: Failed to load %d complaints: %v", len(ids), err)
		return nil, err
	}
	return cs, nil
}

// ListComplaints returns complaints newest first.
func (s *Service) ListComplaints(f ComplaintFilter) ([]models.Complaint, error) {
	q := s.DB.Model(&models.Complaint{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.AssignedTo != "" {
		q = q.Where("assigned_to = ?", f.AssignedTo)
	}
	if f.StudentID != "" {
		q = q.Where("student_id = ?", f.StudentID)
	}

	var cs []models.Complaint
	if err := q.Order("date_reported desc").Find(&cs).Error; err != nil {
		log.Printf("ERROR: Failed to list complaints: %v", err)
		return nil, err
	}
	return cs, nil
}

// UpdateComplaint writes a transition only if the stored status is still ch.From.
func (s *Service) UpdateComplaint(ch StatusChange) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		return applyChange(tx, ch)
	})
}

// UpdateComplaints writes all changes in one transaction. Members whose status
// moved underneath are skipped and returned as conflicts; any other error rolls
// back the whole batch.
func (s *Service) UpdateComplaints(chs []StatusChange) ([]string, error) {
	var conflicts []string
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		conflicts = conflicts[:0]
		for _, ch := range chs {
			err := applyChange(tx, ch)
			if errors.Is(err, ErrConflict) {
				conflicts = append(conflicts, ch.Complaint.ID)
				continue
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Printf("ERROR: Bulk update of %d complaints rolled back: %v", len(chs), err)
		return nil, err
	}
	return conflicts, nil
}

func applyChange(tx *gorm.DB, ch StatusChange) error {
	c := ch.Complaint
	c.UpdatedAt = time.Now()
	res := tx.Model(&models.Complaint{}).
		Where("id = ? AND status = ?", c.ID, ch.From).
		Select(transitionColumns).
		Updates(&c)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}

func (s *Service) SaveAdmin(a *models.Admin) error {
	if err := s.DB.Create(a).Error; err != nil {
		log.Printf("ERROR: Failed to save admin %s: %v", a.Username, err)
		return err
	}
	return nil
}

func (s *Service) GetAdmin(id string) (*models.Admin, error) {
	var a models.Admin
	err := s.DB.Where("id = ?", id).First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *Service) GetAdminByUsername(username string) (*models.Admin, error) {
	var a models.Admin
	err := s.DB.Where("username = ?", username).First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *Service) ListAdmins(activeOnly bool) ([]models.Admin, error) {
	q := s.DB.Model(&models.Admin{})
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var admins []models.Admin
	if err := q.Order("full_name asc").Find(&admins).Error; err != nil {
		log.Printf("ERROR: Failed to list admins: %v", err)
		return nil, err
	}
	return admins, nil
}

// UpdateAdmin saves all fields, including IsActive=false.
func (s *Service) UpdateAdmin(a *models.Admin) error {
	return s.DB.Save(a).Error
}

func (s *Service) DeleteAdmin(id string) error {
	res := s.DB.Where("id = ?", id).Delete(&models.Admin{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
