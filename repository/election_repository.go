package repository

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/openelects/candidatesbackend/models"
)

// ElectionRepository handles database operations for elections and their
// CSV export bookkeeping
type ElectionRepository struct {
	DB *gorm.DB
}

// NewElectionRepository creates a new instance of ElectionRepository
func NewElectionRepository(db *gorm.DB) *ElectionRepository {
	return &ElectionRepository{DB: db}
}

// Create creates a new election record
func (r *ElectionRepository) Create(election *models.Election) error {
	if election.CSVStatus == "" {
		election.CSVStatus = "none"
	}
	if err := r.DB.Create(election).Error; err != nil {
		return fmt.Errorf("failed to create election %s: %w", election.Slug, err)
	}
	return nil
}

// GetBySlug retrieves an election by its slug
func (r *ElectionRepository) GetBySlug(slug string) (*models.Election, error) {
	var election models.Election
	err := r.DB.Where("slug = ?", slug).First(&election).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get election by slug %s: %w", slug, err)
	}
	return &election, nil
}

// ListAll retrieves all elections, current first then by slug
func (r *ElectionRepository) ListAll() ([]models.Election, error) {
	var elections []models.Election
	err := r.DB.Order("current DESC, slug ASC").Find(&elections).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list elections: %w", err)
	}
	return elections, nil
}

// MarkCSVRequested flags an election's candidate CSV for regeneration
func (r *ElectionRepository) MarkCSVRequested(electionID uint) error {
	now := time.Now().Unix()
	result := r.DB.Model(&models.Election{}).Where("id = ?", electionID).Updates(map[string]interface{}{
		"csv_status":       "pending",
		"csv_error":        nil,
		"csv_requested_at": now,
	})
	if result.Error != nil {
		return fmt.Errorf("failed to mark CSV requested for election %d: %w", electionID, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// MarkCSVProcessing flags an election's CSV generation as started
func (r *ElectionRepository) MarkCSVProcessing(electionID uint) error {
	result := r.DB.Model(&models.Election{}).Where("id = ?", electionID).
		Update("csv_status", "processing")
	if result.Error != nil {
		return fmt.Errorf("failed to mark CSV processing for election %d: %w", electionID, result.Error)
	}
	return nil
}

// SetCSVResult records the outcome of a CSV generation task
func (r *ElectionRepository) SetCSVResult(electionID uint, csvPath *string, taskErr error) error {
	now := time.Now().Unix()
	updates := map[string]interface{}{
		"csv_generated_at": now,
	}
	if taskErr != nil {
		errStr := taskErr.Error()
		updates["csv_status"] = "error"
		updates["csv_error"] = errStr
	} else {
		updates["csv_status"] = "done"
		updates["csv_error"] = nil
		updates["csv_path"] = csvPath
	}
	result := r.DB.Model(&models.Election{}).Where("id = ?", electionID).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to set CSV result for election %d: %w", electionID, result.Error)
	}
	return nil
}
