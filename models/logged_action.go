package models

// Action type constants for LoggedAction.ActionType
const (
	ActionPersonCreate = "person-create"
	ActionPersonUpdate = "person-update"
	ActionPersonMerge  = "person-merge"
	ActionPhotoUpload  = "photo-upload"
)

// LoggedAction is an append-only audit trail entry recording who did what to
// which person and why. A merge appends exactly one ActionPersonMerge entry
// whose Source text embeds the discarded person's id; the versions package
// relies on that text when reconstructing the history of legacy merges.
type LoggedAction struct {
	ID         uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID     *uint   `json:"user_id,omitempty"`
	ActionType string  `gorm:"not null;index" json:"action_type"`
	PersonID   *uint   `gorm:"index" json:"person_id,omitempty"`
	BallotID   *uint   `json:"ballot_id,omitempty"`
	VersionID  string  `json:"version_id,omitempty"` // version record created by this action, if any
	Source     string  `json:"source,omitempty"`
	IPAddress  string  `json:"ip_address,omitempty"`
	CreatedAt  int64   `gorm:"not null" json:"created_at"`
}

// TableName explicitly sets the table name for GORM.
func (LoggedAction) TableName() string {
	return "logged_actions"
}

// PersonRedirect maps a merged-away person id to the id that survived the
// merge. Read paths consult it to answer stale bookmarks and external
// references with a permanent redirect. Rows are created once per merge and
// never changed.
type PersonRedirect struct {
	ID          uint  `gorm:"primaryKey;autoIncrement" json:"id"`
	OldPersonID uint  `gorm:"not null;uniqueIndex" json:"old_person_id"`
	NewPersonID uint  `gorm:"not null;index" json:"new_person_id"`
	CreatedAt   int64 `gorm:"not null" json:"created_at"`
}

// TableName explicitly sets the table name for GORM.
func (PersonRedirect) TableName() string {
	return "person_redirects"
}
