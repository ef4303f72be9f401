package models

// Person represents a candidate (or potential candidate) in the database
// using GORM. It corresponds to the 'people' table.
//
// Versions holds the person's full edit history as a JSON-encoded list of
// version records, newest first. It is only ever manipulated through the
// versions package so the de-duplication and merge-recording rules are
// applied consistently.
type Person struct {
	ID               uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name             string `gorm:"not null" json:"name"`
	HonorificPrefix  string `json:"honorific_prefix,omitempty"`
	HonorificSuffix  string `json:"honorific_suffix,omitempty"`
	Gender           string `json:"gender,omitempty"`
	BirthDate        string `json:"birth_date,omitempty"`
	DeathDate        string `json:"death_date,omitempty"`
	Biography        string `json:"biography,omitempty"`
	Summary          string `json:"summary,omitempty"`
	FamilyName       string `json:"family_name,omitempty"`
	GivenName        string `json:"given_name,omitempty"`
	AdditionalName   string `json:"additional_name,omitempty"`
	PatronymicName   string `json:"patronymic_name,omitempty"`
	SortName         string `json:"sort_name,omitempty"`
	NationalIdentity string `json:"national_identity,omitempty"`
	FavouriteBiscuit string `json:"favourite_biscuit,omitempty"`

	Versions string `gorm:"type:text" json:"-"`

	CreatedAt int64 `gorm:"not null" json:"created_at"` // Unix timestamp
	UpdatedAt int64 `gorm:"not null" json:"updated_at"` // Unix timestamp

	// Relationships
	// omitempty will hide these if they are not preloaded or are empty
	OtherNames   []OtherName        `gorm:"foreignKey:PersonID" json:"other_names,omitempty"`
	Identifiers  []PersonIdentifier `gorm:"foreignKey:PersonID" json:"identifiers,omitempty"`
	Images       []PersonImage      `gorm:"foreignKey:PersonID" json:"images,omitempty"`
	Memberships  []Membership       `gorm:"foreignKey:PersonID" json:"memberships,omitempty"`
	NotStanding  []Election         `gorm:"many2many:person_not_standing;" json:"not_standing,omitempty"`
	QueuedImages []QueuedImage      `gorm:"foreignKey:PersonID" json:"-"`
	ResultEvents []ResultEvent      `gorm:"foreignKey:WinnerID" json:"-"`
	LoggedAction []LoggedAction     `gorm:"foreignKey:PersonID" json:"-"`
	GenderGuess  *GenderGuess       `gorm:"foreignKey:PersonID" json:"-"`
}

// TableName explicitly sets the table name for GORM.
func (Person) TableName() string {
	return "people"
}

// OtherName represents an alternative name for a person. It corresponds to
// the 'other_names' table. A person's displayed name never changes during a
// merge; the discarded person's name is preserved here instead.
type OtherName struct {
	ID       uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	PersonID uint   `gorm:"not null;uniqueIndex:idx_person_other_name" json:"person_id"`
	Name     string `gorm:"not null;uniqueIndex:idx_person_other_name" json:"name"`
	Note     string `json:"note,omitempty"`
}

// TableName explicitly sets the table name for GORM.
func (OtherName) TableName() string {
	return "other_names"
}

// PersonIdentifier is a typed external reference attached to a person, e.g.
// value_type "twitter_username" with value "@example". At most one identifier
// per value type per person, and at most one per value per person, both
// enforced by unique indexes.
//
// UpdatedAt doubles as the "last verified" time: when a merge finds the same
// value type on both people with different values, the more recently modified
// row wins.
type PersonIdentifier struct {
	ID        uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	PersonID  uint   `gorm:"not null;uniqueIndex:idx_person_id_value_type;uniqueIndex:idx_person_id_value" json:"person_id"`
	ValueType string `gorm:"not null;uniqueIndex:idx_person_id_value_type" json:"value_type"`
	Value     string `gorm:"not null;uniqueIndex:idx_person_id_value" json:"value"`
	CreatedAt int64  `gorm:"not null" json:"created_at"`
	UpdatedAt int64  `gorm:"not null" json:"updated_at"`
}

// TableName explicitly sets the table name for GORM.
func (PersonIdentifier) TableName() string {
	return "person_identifiers"
}

// GenderGuess holds a gender value derived automatically from a person's
// name. It is generated data, so it is simply discarded when its person is
// merged away.
type GenderGuess struct {
	ID       uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	PersonID uint   `gorm:"not null;uniqueIndex" json:"person_id"`
	Gender   string `gorm:"not null" json:"gender"`
}

// TableName explicitly sets the table name for GORM.
func (GenderGuess) TableName() string {
	return "gender_guesses"
}
