package models

// PersonImage represents a photo attached to a person. It corresponds to the
// 'person_images' table. At most one image per person is flagged primary; the
// primary image is the one shown on the person's page.
type PersonImage struct {
	ID        uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	PersonID  uint   `gorm:"not null;index" json:"person_id"`
	Path      string `gorm:"not null" json:"path"` // path relative to the photos storage root
	IsPrimary bool   `gorm:"not null;default:false" json:"is_primary"`

	MD5Sum    string `json:"md5sum,omitempty"`
	Copyright string `json:"copyright,omitempty"`
	Source    string `json:"source,omitempty"`
	UserNotes string `json:"user_notes,omitempty"`

	ThumbnailPath *string `json:"thumbnail_path,omitempty"` // Nullable
	TakenAt       *int64  `json:"taken_at,omitempty"`       // Nullable, Unix timestamp from EXIF

	UploadedByID *uint `json:"uploaded_by_id,omitempty"`
	CreatedAt    int64 `gorm:"not null" json:"created_at"`
	UpdatedAt    int64 `gorm:"not null" json:"updated_at"`
}

// TableName explicitly sets the table name for GORM.
func (PersonImage) TableName() string {
	return "person_images"
}

// QueuedImage is a photo upload awaiting moderation. The moderation flow
// itself lives elsewhere; this system only stores the queue entries and
// reassigns them when their person is merged away.
type QueuedImage struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	PersonID     uint   `gorm:"not null;index" json:"person_id"`
	Path         string `gorm:"not null" json:"path"`
	Justification string `json:"justification,omitempty"`
	TakenAt      *int64 `json:"taken_at,omitempty"` // Nullable, Unix timestamp from EXIF
	UploadedByID *uint  `json:"uploaded_by_id,omitempty"`
	Decision     string `gorm:"not null;default:undecided" json:"decision"`
	CreatedAt    int64  `gorm:"not null" json:"created_at"`
}

// TableName explicitly sets the table name for GORM.
func (QueuedImage) TableName() string {
	return "queued_images"
}
