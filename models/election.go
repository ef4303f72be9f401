package models

// Election represents a single election, e.g. "parl.2015-05-07". It
// corresponds to the 'elections' table.
type Election struct {
	ID      uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Slug    string `gorm:"not null;uniqueIndex" json:"slug"`
	Name    string `gorm:"not null" json:"name"`
	Current bool   `gorm:"not null;default:false" json:"current"`

	ElectionDate string `json:"election_date,omitempty"`

	// CSV export bookkeeping, written by the export worker
	CSVPath        *string `json:"csv_path,omitempty"`
	CSVStatus      string  `gorm:"not null;default:none" json:"csv_status"`
	CSVError       *string `json:"csv_error,omitempty"`
	CSVGeneratedAt *int64  `json:"csv_generated_at,omitempty"`
	CSVRequestedAt *int64  `json:"csv_requested_at,omitempty"`
}

// TableName explicitly sets the table name for GORM.
func (Election) TableName() string {
	return "elections"
}

// Post represents an elected office that candidates stand for, e.g. a
// constituency or a ward. It corresponds to the 'posts' table.
type Post struct {
	ID    uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Slug  string `gorm:"not null;uniqueIndex" json:"slug"`
	Label string `gorm:"not null" json:"label"`
}

// TableName explicitly sets the table name for GORM.
func (Post) TableName() string {
	return "posts"
}

// Party represents a registered political party. It corresponds to the
// 'parties' table. ECID is the Electoral Commission identifier, e.g. "PP63".
type Party struct {
	ID   uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	ECID string `gorm:"column:ec_id;not null;uniqueIndex" json:"ec_id"`
	Name string `gorm:"not null" json:"name"`
}

// TableName explicitly sets the table name for GORM.
func (Party) TableName() string {
	return "parties"
}

// Ballot is a specific post contested at a specific election; candidacies
// attach to ballots. It corresponds to the 'ballots' table.
type Ballot struct {
	ID            uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	BallotPaperID string `gorm:"not null;uniqueIndex" json:"ballot_paper_id"`
	PostID        uint   `gorm:"not null;uniqueIndex:idx_post_election" json:"post_id"`
	ElectionID    uint   `gorm:"not null;uniqueIndex:idx_post_election" json:"election_id"`

	Post     Post     `gorm:"foreignKey:PostID" json:"post,omitempty"`
	Election Election `gorm:"foreignKey:ElectionID" json:"election,omitempty"`
}

// TableName explicitly sets the table name for GORM.
func (Ballot) TableName() string {
	return "ballots"
}
