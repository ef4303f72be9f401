package models

// Membership links one person to one ballot as a candidacy. At most one
// membership may exist per (person, ballot) pair, enforced by a unique index.
// Elected is a tri-state: nil means the outcome is not yet known.
type Membership struct {
	ID                uint  `gorm:"primaryKey;autoIncrement" json:"id"`
	PersonID          uint  `gorm:"not null;uniqueIndex:idx_person_ballot" json:"person_id"`
	BallotID          uint  `gorm:"not null;uniqueIndex:idx_person_ballot" json:"ballot_id"`
	PartyID           uint  `gorm:"not null" json:"party_id"`
	PartyListPosition *int  `json:"party_list_position,omitempty"`
	Elected           *bool `json:"elected,omitempty"`

	CreatedAt int64 `gorm:"not null" json:"created_at"`
	UpdatedAt int64 `gorm:"not null" json:"updated_at"`

	Ballot Ballot           `gorm:"foreignKey:BallotID" json:"ballot,omitempty"`
	Party  Party            `gorm:"foreignKey:PartyID" json:"party,omitempty"`
	Result *CandidateResult `gorm:"foreignKey:MembershipID" json:"result,omitempty"`
}

// TableName explicitly sets the table name for GORM.
func (Membership) TableName() string {
	return "memberships"
}

// CandidateResult records the ballot count a candidacy received. At most one
// per membership. Two memberships for the same ballot both carrying results
// cannot be reconciled automatically, so a merge meeting that state fails.
type CandidateResult struct {
	ID           uint  `gorm:"primaryKey;autoIncrement" json:"id"`
	MembershipID uint  `gorm:"not null;uniqueIndex" json:"membership_id"`
	NumBallots   int   `gorm:"not null" json:"num_ballots"`
	CreatedAt    int64 `gorm:"not null" json:"created_at"`
}

// TableName explicitly sets the table name for GORM.
func (CandidateResult) TableName() string {
	return "candidate_results"
}

// ResultEvent is an append-only log entry recording that a person won a
// ballot. Rows are never edited; a merge repoints the winner at the
// surviving person.
type ResultEvent struct {
	ID            uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	WinnerID      uint   `gorm:"not null;index" json:"winner_id"`
	BallotID      uint   `gorm:"not null" json:"ballot_id"`
	WinnerPartyID uint   `gorm:"not null" json:"winner_party_id"`
	Source        string `json:"source,omitempty"`
	CreatedAt     int64  `gorm:"not null" json:"created_at"`
}

// TableName explicitly sets the table name for GORM.
func (ResultEvent) TableName() string {
	return "result_events"
}
