package repository

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/openelects/candidatesbackend/merging"
	"github.com/openelects/candidatesbackend/models"
	"github.com/openelects/candidatesbackend/versions"
)

// MergeStore is the GORM implementation of merging.Store. All methods run
// against the *gorm.DB it holds, which is the enclosing transaction handle
// inside Transaction.
type MergeStore struct {
	DB *gorm.DB
}

// NewMergeStore creates a new instance of MergeStore
func NewMergeStore(db *gorm.DB) *MergeStore {
	return &MergeStore{DB: db}
}

var _ merging.Store = (*MergeStore)(nil)

// Transaction runs fn against a store bound to a database transaction.
func (s *MergeStore) Transaction(fn func(tx merging.Store) error) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		return fn(&MergeStore{DB: tx})
	})
}

// SavePerson persists all of a person's scalar columns, including the
// encoded version history.
func (s *MergeStore) SavePerson(person *models.Person) error {
	person.UpdatedAt = time.Now().Unix()
	if err := s.DB.Omit("OtherNames", "Identifiers", "Images", "Memberships", "NotStanding",
		"QueuedImages", "ResultEvents", "LoggedAction", "GenderGuess").Save(person).Error; err != nil {
		return fmt.Errorf("failed to save person %d: %w", person.ID, err)
	}
	return nil
}

// VersionData builds the reduced snapshot of a person: scalars from the
// model as given, relationships read from the database.
func (s *MergeStore) VersionData(person *models.Person) (versions.PersonData, error) {
	data := versions.PersonData{
		ID:               fmt.Sprint(person.ID),
		Name:             person.Name,
		HonorificPrefix:  person.HonorificPrefix,
		HonorificSuffix:  person.HonorificSuffix,
		Gender:           person.Gender,
		BirthDate:        person.BirthDate,
		DeathDate:        person.DeathDate,
		Biography:        person.Biography,
		Summary:          person.Summary,
		FamilyName:       person.FamilyName,
		GivenName:        person.GivenName,
		AdditionalName:   person.AdditionalName,
		PatronymicName:   person.PatronymicName,
		SortName:         person.SortName,
		NationalIdentity: person.NationalIdentity,
		FavouriteBiscuit: person.FavouriteBiscuit,
		Identifiers:      map[string]string{},
		OtherNames:       []string{},
		Candidacies:      map[string]*versions.Candidacy{},
	}

	identifiers, err := s.Identifiers(person.ID)
	if err != nil {
		return versions.PersonData{}, err
	}
	for _, identifier := range identifiers {
		data.Identifiers[identifier.ValueType] = identifier.Value
	}

	otherNames, err := s.OtherNames(person.ID)
	if err != nil {
		return versions.PersonData{}, err
	}
	for _, otherName := range otherNames {
		data.OtherNames = append(data.OtherNames, otherName.Name)
	}
	sort.Strings(data.OtherNames)

	var memberships []models.Membership
	err = s.DB.Preload("Ballot").Preload("Ballot.Election").Preload("Ballot.Post").Preload("Party").
		Where("person_id = ?", person.ID).Find(&memberships).Error
	if err != nil {
		return versions.PersonData{}, fmt.Errorf("failed to load memberships for person %d: %w", person.ID, err)
	}
	for _, membership := range memberships {
		data.Candidacies[membership.Ballot.Election.Slug] = &versions.Candidacy{
			BallotPaperID:     membership.Ballot.BallotPaperID,
			PostSlug:          membership.Ballot.Post.Slug,
			Party:             membership.Party.ECID,
			Elected:           membership.Elected,
			PartyListPosition: membership.PartyListPosition,
		}
	}

	notStanding, err := s.NotStanding(person.ID)
	if err != nil {
		return versions.PersonData{}, err
	}
	for _, election := range notStanding {
		data.Candidacies[election.Slug] = nil
	}

	return data, nil
}

func (s *MergeStore) OtherNames(personID uint) ([]models.OtherName, error) {
	var otherNames []models.OtherName
	err := s.DB.Where("person_id = ?", personID).Order("name ASC").Find(&otherNames).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list other names for person %d: %w", personID, err)
	}
	return otherNames, nil
}

// EnsureOtherName creates the (person, name) row if it doesn't exist yet.
func (s *MergeStore) EnsureOtherName(personID uint, name string) error {
	otherName := models.OtherName{PersonID: personID, Name: name}
	err := s.DB.Where(models.OtherName{PersonID: personID, Name: name}).FirstOrCreate(&otherName).Error
	if err != nil {
		return fmt.Errorf("failed to ensure other name %q for person %d: %w", name, personID, err)
	}
	return nil
}

func (s *MergeStore) DeleteOtherName(id uint) error {
	if err := s.DB.Delete(&models.OtherName{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete other name %d: %w", id, err)
	}
	return nil
}

func (s *MergeStore) Identifiers(personID uint) ([]models.PersonIdentifier, error) {
	var identifiers []models.PersonIdentifier
	err := s.DB.Where("person_id = ?", personID).Order("value_type ASC").Find(&identifiers).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list identifiers for person %d: %w", personID, err)
	}
	return identifiers, nil
}

func (s *MergeStore) IdentifierOfType(personID uint, valueType string) (*models.PersonIdentifier, error) {
	var identifier models.PersonIdentifier
	err := s.DB.Where("person_id = ? AND value_type = ?", personID, valueType).First(&identifier).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s identifier for person %d: %w", valueType, personID, err)
	}
	return &identifier, nil
}

func (s *MergeStore) IdentifierWithValue(personID uint, value string) (*models.PersonIdentifier, error) {
	var identifier models.PersonIdentifier
	err := s.DB.Where("person_id = ? AND value = ?", personID, value).First(&identifier).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get identifier with value %q for person %d: %w", value, personID, err)
	}
	return &identifier, nil
}

func (s *MergeStore) SaveIdentifier(identifier *models.PersonIdentifier) error {
	if err := s.DB.Save(identifier).Error; err != nil {
		return fmt.Errorf("failed to save identifier %d: %w", identifier.ID, err)
	}
	return nil
}

func (s *MergeStore) HasPrimaryImage(personID uint) (bool, error) {
	var count int64
	err := s.DB.Model(&models.PersonImage{}).
		Where("person_id = ? AND is_primary = ?", personID, true).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to count primary images for person %d: %w", personID, err)
	}
	return count > 0, nil
}

func (s *MergeStore) DemotePrimaryImages(personID uint) error {
	err := s.DB.Model(&models.PersonImage{}).
		Where("person_id = ?", personID).Update("is_primary", false).Error
	if err != nil {
		return fmt.Errorf("failed to demote primary images for person %d: %w", personID, err)
	}
	return nil
}

func (s *MergeStore) ReassignImages(fromPersonID, toPersonID uint) error {
	err := s.DB.Model(&models.PersonImage{}).
		Where("person_id = ?", fromPersonID).Update("person_id", toPersonID).Error
	if err != nil {
		return fmt.Errorf("failed to reassign images from person %d to %d: %w", fromPersonID, toPersonID, err)
	}
	return nil
}

// Memberships lists a person's candidacies with their ballots and results
// preloaded, which is what the merge reconciliation needs to see.
func (s *MergeStore) Memberships(personID uint) ([]models.Membership, error) {
	var memberships []models.Membership
	err := s.DB.Preload("Ballot").Preload("Ballot.Election").Preload("Result").
		Where("person_id = ?", personID).Find(&memberships).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships for person %d: %w", personID, err)
	}
	return memberships, nil
}

func (s *MergeStore) MembershipForBallot(personID, ballotID uint) (*models.Membership, error) {
	var membership models.Membership
	err := s.DB.Preload("Result").
		Where("person_id = ? AND ballot_id = ?", personID, ballotID).First(&membership).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get membership of person %d on ballot %d: %w", personID, ballotID, err)
	}
	return &membership, nil
}

func (s *MergeStore) SaveMembership(membership *models.Membership) error {
	membership.UpdatedAt = time.Now().Unix()
	err := s.DB.Omit("Ballot", "Party", "Result").Save(membership).Error
	if err != nil {
		return fmt.Errorf("failed to save membership %d: %w", membership.ID, err)
	}
	return nil
}

func (s *MergeStore) ReassignResult(resultID, toMembershipID uint) error {
	err := s.DB.Model(&models.CandidateResult{}).
		Where("id = ?", resultID).Update("membership_id", toMembershipID).Error
	if err != nil {
		return fmt.Errorf("failed to reassign result %d to membership %d: %w", resultID, toMembershipID, err)
	}
	return nil
}

func (s *MergeStore) HasMembershipInElection(personID, electionID uint) (bool, error) {
	var count int64
	err := s.DB.Model(&models.Membership{}).
		Joins("JOIN ballots ON ballots.id = memberships.ballot_id").
		Where("memberships.person_id = ? AND ballots.election_id = ?", personID, electionID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check memberships of person %d in election %d: %w", personID, electionID, err)
	}
	return count > 0, nil
}

func (s *MergeStore) NotStanding(personID uint) ([]models.Election, error) {
	var elections []models.Election
	err := s.DB.Model(&models.Person{ID: personID}).Association("NotStanding").Find(&elections)
	if err != nil {
		return nil, fmt.Errorf("failed to list not-standing elections for person %d: %w", personID, err)
	}
	return elections, nil
}

// IsNotStanding reports whether the person has declared they are not standing
// in the given election.
func (s *MergeStore) IsNotStanding(personID, electionID uint) (bool, error) {
	var count int64
	err := s.DB.Table("person_not_standing").
		Where("person_id = ? AND election_id = ?", personID, electionID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check not-standing of person %d in election %d: %w", personID, electionID, err)
	}
	return count > 0, nil
}

func (s *MergeStore) AddNotStanding(personID, electionID uint) error {
	err := s.DB.Model(&models.Person{ID: personID}).Association("NotStanding").
		Append(&models.Election{ID: electionID})
	if err != nil {
		return fmt.Errorf("failed to add not-standing election %d for person %d: %w", electionID, personID, err)
	}
	return nil
}

func (s *MergeStore) RemoveNotStanding(personID, electionID uint) error {
	err := s.DB.Model(&models.Person{ID: personID}).Association("NotStanding").
		Delete(&models.Election{ID: electionID})
	if err != nil {
		return fmt.Errorf("failed to remove not-standing election %d for person %d: %w", electionID, personID, err)
	}
	return nil
}

func (s *MergeStore) ReassignLoggedActions(fromPersonID, toPersonID uint) error {
	err := s.DB.Model(&models.LoggedAction{}).
		Where("person_id = ?", fromPersonID).Update("person_id", toPersonID).Error
	if err != nil {
		return fmt.Errorf("failed to reassign logged actions from person %d to %d: %w", fromPersonID, toPersonID, err)
	}
	return nil
}

func (s *MergeStore) CreateLoggedAction(action *models.LoggedAction) error {
	if action.CreatedAt == 0 {
		action.CreatedAt = time.Now().Unix()
	}
	if err := s.DB.Create(action).Error; err != nil {
		return fmt.Errorf("failed to create logged action: %w", err)
	}
	return nil
}

func (s *MergeStore) ReassignQueuedImages(fromPersonID, toPersonID uint) error {
	err := s.DB.Model(&models.QueuedImage{}).
		Where("person_id = ?", fromPersonID).Update("person_id", toPersonID).Error
	if err != nil {
		return fmt.Errorf("failed to reassign queued images from person %d to %d: %w", fromPersonID, toPersonID, err)
	}
	return nil
}

func (s *MergeStore) ReassignResultEvents(fromPersonID, toPersonID uint) error {
	err := s.DB.Model(&models.ResultEvent{}).
		Where("winner_id = ?", fromPersonID).Update("winner_id", toPersonID).Error
	if err != nil {
		return fmt.Errorf("failed to reassign result events from person %d to %d: %w", fromPersonID, toPersonID, err)
	}
	return nil
}

func (s *MergeStore) DeleteGenderGuess(personID uint) error {
	err := s.DB.Where("person_id = ?", personID).Delete(&models.GenderGuess{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete gender guess for person %d: %w", personID, err)
	}
	return nil
}

func (s *MergeStore) CreateRedirect(redirect *models.PersonRedirect) error {
	if redirect.CreatedAt == 0 {
		redirect.CreatedAt = time.Now().Unix()
	}
	if err := s.DB.Create(redirect).Error; err != nil {
		return fmt.Errorf("failed to create redirect %d -> %d: %w", redirect.OldPersonID, redirect.NewPersonID, err)
	}
	return nil
}

// Delete removes a single row. Callers are expected to have run
// CollectRelated first; see merging.SafeDelete.
func (s *MergeStore) Delete(model any) error {
	if err := s.DB.Delete(model).Error; err != nil {
		return fmt.Errorf("failed to delete %T: %w", model, err)
	}
	return nil
}
