package merging

import (
	"github.com/openelects/candidatesbackend/models"
	"github.com/openelects/candidatesbackend/versions"
)

// Store is the persistence surface the merge subsystem runs against. The
// repository package provides the GORM implementation; the merger itself
// never touches the database directly, so all of its invariants can be
// exercised against any conforming store.
type Store interface {
	// Transaction runs fn against a transactional view of the store. An
	// error from fn rolls every write back.
	Transaction(fn func(tx Store) error) error

	SavePerson(person *models.Person) error
	// VersionData builds the reduced snapshot of a person: scalar fields
	// from the given (possibly unsaved) model, relationships from storage.
	VersionData(person *models.Person) (versions.PersonData, error)

	OtherNames(personID uint) ([]models.OtherName, error)
	EnsureOtherName(personID uint, name string) error
	DeleteOtherName(id uint) error

	Identifiers(personID uint) ([]models.PersonIdentifier, error)
	IdentifierOfType(personID uint, valueType string) (*models.PersonIdentifier, error)
	IdentifierWithValue(personID uint, value string) (*models.PersonIdentifier, error)
	SaveIdentifier(identifier *models.PersonIdentifier) error

	HasPrimaryImage(personID uint) (bool, error)
	DemotePrimaryImages(personID uint) error
	ReassignImages(fromPersonID, toPersonID uint) error

	Memberships(personID uint) ([]models.Membership, error)
	MembershipForBallot(personID, ballotID uint) (*models.Membership, error)
	SaveMembership(membership *models.Membership) error
	ReassignResult(resultID, toMembershipID uint) error
	HasMembershipInElection(personID, electionID uint) (bool, error)

	NotStanding(personID uint) ([]models.Election, error)
	IsNotStanding(personID, electionID uint) (bool, error)
	AddNotStanding(personID, electionID uint) error
	RemoveNotStanding(personID, electionID uint) error

	ReassignLoggedActions(fromPersonID, toPersonID uint) error
	CreateLoggedAction(action *models.LoggedAction) error
	ReassignQueuedImages(fromPersonID, toPersonID uint) error
	ReassignResultEvents(fromPersonID, toPersonID uint) error
	DeleteGenderGuess(personID uint) error
	CreateRedirect(redirect *models.PersonRedirect) error

	// CollectRelated previews the cascade for deleting model: one entry per
	// related table that still holds rows pointing at it.
	CollectRelated(model any) ([]string, error)
	Delete(model any) error
}
