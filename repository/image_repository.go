package repository

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/openelects/candidatesbackend/models"
)

// ImageRepository handles database operations for person photos and the
// moderation queue
type ImageRepository struct {
	DB *gorm.DB
}

// NewImageRepository creates a new instance of ImageRepository
func NewImageRepository(db *gorm.DB) *ImageRepository {
	return &ImageRepository{DB: db}
}

// CreateQueuedImage adds an uploaded photo to the moderation queue
func (r *ImageRepository) CreateQueuedImage(queued *models.QueuedImage) error {
	if queued.CreatedAt == 0 {
		queued.CreatedAt = time.Now().Unix()
	}
	if queued.Decision == "" {
		queued.Decision = "undecided"
	}
	if err := r.DB.Create(queued).Error; err != nil {
		return fmt.Errorf("failed to queue image for person %d: %w", queued.PersonID, err)
	}
	return nil
}

// ListQueuedByPersonID retrieves the pending uploads for a person
func (r *ImageRepository) ListQueuedByPersonID(personID uint) ([]models.QueuedImage, error) {
	var queued []models.QueuedImage
	err := r.DB.Where("person_id = ?", personID).Order("created_at DESC").Find(&queued).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list queued images for person %d: %w", personID, err)
	}
	return queued, nil
}

// CreatePersonImage attaches an approved photo to a person
func (r *ImageRepository) CreatePersonImage(image *models.PersonImage) error {
	now := time.Now().Unix()
	if image.CreatedAt == 0 {
		image.CreatedAt = now
	}
	image.UpdatedAt = now
	if err := r.DB.Create(image).Error; err != nil {
		return fmt.Errorf("failed to create image for person %d: %w", image.PersonID, err)
	}
	return nil
}

// UpdateThumbnailPath records the generated thumbnail for a photo
func (r *ImageRepository) UpdateThumbnailPath(imageID uint, thumbnailPath *string) error {
	result := r.DB.Model(&models.PersonImage{}).Where("id = ?", imageID).Updates(map[string]interface{}{
		"thumbnail_path": thumbnailPath,
		"updated_at":     time.Now().Unix(),
	})
	if result.Error != nil {
		return fmt.Errorf("failed to update thumbnail for image %d: %w", imageID, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
