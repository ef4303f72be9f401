package repository

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/openelects/candidatesbackend/models"
	"github.com/openelects/candidatesbackend/versions"
)

// PersonRepository handles database operations for Person and related
// OtherName, PersonIdentifier and PersonRedirect entities
type PersonRepository struct {
	DB *gorm.DB
}

// NewPersonRepository creates a new instance of PersonRepository
func NewPersonRepository(db *gorm.DB) *PersonRepository {
	return &PersonRepository{DB: db}
}

// Create creates a new person record and its first version snapshot
func (r *PersonRepository) Create(person *models.Person, username, informationSource string) error {
	now := time.Now().Unix()
	if person.CreatedAt == 0 {
		person.CreatedAt = now
	}
	person.UpdatedAt = now

	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(person).Error; err != nil {
			return fmt.Errorf("failed to create person %s: %w", person.Name, err)
		}
		return recordVersion(tx, person, username, informationSource)
	})
}

// GetByID retrieves a person by their ID, preloading the relationships the
// person views render
func (r *PersonRepository) GetByID(id uint) (*models.Person, error) {
	var person models.Person
	err := r.DB.Preload("OtherNames").Preload("Identifiers").Preload("Images").
		Preload("Memberships").Preload("Memberships.Ballot").Preload("Memberships.Party").
		Preload("NotStanding").First(&person, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get person by ID %d: %w", id, err)
	}
	return &person, nil
}

// ListAll retrieves all people, ordered by name, preloading OtherNames
func (r *PersonRepository) ListAll() ([]models.Person, error) {
	var people []models.Person
	err := r.DB.Preload("OtherNames").Order("name ASC").Find(&people).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list people: %w", err)
	}
	return people, nil
}

// Update persists edits to a person's scalar fields and records a new
// version snapshot. Consecutive identical snapshots are de-duplicated.
func (r *PersonRepository) Update(person *models.Person, username, informationSource string) error {
	person.UpdatedAt = time.Now().Unix()
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := recordVersion(tx, person, username, informationSource); err != nil {
			return err
		}
		result := tx.Omit("OtherNames", "Identifiers", "Images", "Memberships", "NotStanding",
			"QueuedImages", "ResultEvents", "LoggedAction", "GenderGuess").Save(person)
		if result.Error != nil {
			return fmt.Errorf("failed to update person ID %d: %w", person.ID, result.Error)
		}
		return nil
	})
}

// recordVersion snapshots the person's current state onto its version
// history. Merge boundary versions are recorded by the merging package, not
// here, so de-duplication always applies.
func recordVersion(tx *gorm.DB, person *models.Person, username, informationSource string) error {
	store := &MergeStore{DB: tx}
	data, err := store.VersionData(person)
	if err != nil {
		return err
	}
	version := versions.NewVersion(username, informationSource)
	version.Data = data

	history, err := versions.Decode(person.Versions)
	if err != nil {
		return err
	}
	encoded, err := versions.Encode(versions.Record(history, version, false))
	if err != nil {
		return err
	}
	person.Versions = encoded
	return nil
}

// History decodes a person's full version history, newest first
func (r *PersonRepository) History(personID uint) ([]versions.Version, error) {
	var person models.Person
	if err := r.DB.Select("id", "versions").First(&person, personID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to load versions for person %d: %w", personID, err)
	}
	return versions.Decode(person.Versions)
}

// FollowRedirects resolves a possibly merged-away person id to the id that
// now holds the record, chasing redirect chains left by repeated merges.
// The second return value reports whether any redirect applied.
func (r *PersonRepository) FollowRedirects(id uint) (uint, bool, error) {
	redirected := false
	// a bound on chain length guards against a cyclic redirect row created
	// by hand; merges can never create a cycle
	for i := 0; i < 20; i++ {
		var redirect models.PersonRedirect
		err := r.DB.Where("old_person_id = ?", id).First(&redirect).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return id, redirected, nil
		}
		if err != nil {
			return 0, false, fmt.Errorf("failed to look up redirect for person %d: %w", id, err)
		}
		id = redirect.NewPersonID
		redirected = true
	}
	return 0, false, fmt.Errorf("redirect chain for person %d is too long", id)
}

// LogAction appends an audit trail entry
func (r *PersonRepository) LogAction(action *models.LoggedAction) error {
	if action.CreatedAt == 0 {
		action.CreatedAt = time.Now().Unix()
	}
	if err := r.DB.Create(action).Error; err != nil {
		return fmt.Errorf("failed to create logged action: %w", err)
	}
	return nil
}
