// Package merging combines two duplicate person records into one without
// losing data, inside a single transaction.
package merging

import (
	"fmt"

	"github.com/openelects/candidatesbackend/models"
	"github.com/openelects/candidatesbackend/versions"
)

// PersonMerger merges two people, ensuring that no data is lost.
//
// Higher ids are always merged into lower ids: merging person 3 and person 4
// moves everything on person 4 to person 3 and deletes person 4, whichever
// order the two were passed in. Lower ids have existed for longer, so the
// chance that someone holds a bookmark or an external dataset reference to
// one is higher; they must be the ids that survive.
//
// Where a property exists on both people:
//
//  1. Name: dest keeps its displayed name and the source name becomes an
//     OtherName on dest. All of source's other names move across too.
//  2. Images: a primary image on source takes over as dest's primary; every
//     source image is reassigned to dest.
//  3. Identifiers: identifiers missing from dest are moved over. Where a
//     value type exists on both, the more recently modified row wins.
type PersonMerger struct {
	store Store

	Dest   *models.Person
	Source *models.Person

	actor *models.User
}

// NewPersonMerger assigns dest and source roles by id, regardless of the
// order the two people are given in. The actor is optional and only used
// for audit attribution.
func NewPersonMerger(store Store, personA, personB *models.Person, actor *models.User) *PersonMerger {
	dest, source := personA, personB
	if source.ID < dest.ID {
		dest, source = source, dest
	}
	return &PersonMerger{store: store, Dest: dest, Source: source, actor: actor}
}

// Merge does everything needed to merge the two people, in one transaction.
// At the end the source person has no related objects left and, unless
// deleteSource is false, has been deleted via SafeDelete. The surviving
// person is returned.
//
// Any InvalidMergeError or UnsafeToDeleteError from the steps below rolls
// the whole transaction back, leaving both original records untouched.
func (m *PersonMerger) Merge(deleteSource bool) (*models.Person, error) {
	if m.Dest.ID == m.Source.ID {
		return nil, &InvalidMergeError{Reason: fmt.Sprintf("can't merge person %d with themselves", m.Dest.ID)}
	}
	err := m.store.Transaction(func(tx Store) error {
		return m.mergeInTx(tx, deleteSource)
	})
	if err != nil {
		return nil, err
	}
	return m.Dest, nil
}

func (m *PersonMerger) mergeInTx(tx Store, deleteSource bool) error {
	if err := m.mergePersonAttrs(tx); err != nil {
		return err
	}
	combined, err := m.mergeVersionHistories()
	if err != nil {
		return err
	}
	if err := m.mergeIdentifiers(tx); err != nil {
		return err
	}
	if err := m.mergeImages(tx); err != nil {
		return err
	}
	if err := tx.ReassignLoggedActions(m.Source.ID, m.Dest.ID); err != nil {
		return err
	}
	if err := m.mergeMemberships(tx); err != nil {
		return err
	}
	if err := tx.ReassignQueuedImages(m.Source.ID, m.Dest.ID); err != nil {
		return err
	}
	if err := m.mergeNotStanding(tx); err != nil {
		return err
	}
	if err := tx.ReassignResultEvents(m.Source.ID, m.Dest.ID); err != nil {
		return err
	}
	// the gender guess is derived from the name, not volunteered data, so
	// the source person's guess is simply dropped
	if err := tx.DeleteGenderGuess(m.Source.ID); err != nil {
		return err
	}

	mergeVersion, err := m.recordMergeVersion(tx, combined)
	if err != nil {
		return err
	}

	if m.actor != nil {
		if err := tx.CreateLoggedAction(&models.LoggedAction{
			UserID:     &m.actor.ID,
			ActionType: models.ActionPersonMerge,
			PersonID:   &m.Dest.ID,
			VersionID:  mergeVersion.VersionID,
			Source:     mergeVersion.InformationSource,
		}); err != nil {
			return err
		}
	}

	if err := tx.CreateRedirect(&models.PersonRedirect{
		OldPersonID: m.Source.ID,
		NewPersonID: m.Dest.ID,
	}); err != nil {
		return err
	}

	if deleteSource {
		return SafeDelete(tx, m.Source)
	}
	return nil
}

// mergePersonAttrs resolves every scalar field by its declared policy, then
// copies source's other names across (collapsing duplicates) and removes the
// originals.
func (m *PersonMerger) mergePersonAttrs(tx Store) error {
	for _, field := range personFields {
		sourceValue := field.get(m.Source)
		if sourceValue == "" {
			continue
		}
		switch field.policy {
		case StickyName:
			if sourceValue != field.get(m.Dest) {
				if err := tx.EnsureOtherName(m.Dest.ID, sourceValue); err != nil {
					return err
				}
			}
		case SourceWins:
			field.set(m.Dest, sourceValue)
		}
	}

	otherNames, err := tx.OtherNames(m.Source.ID)
	if err != nil {
		return err
	}
	for _, otherName := range otherNames {
		if err := tx.EnsureOtherName(m.Dest.ID, otherName.Name); err != nil {
			return err
		}
		if err := tx.DeleteOtherName(otherName.ID); err != nil {
			return err
		}
	}
	return nil
}

// mergeVersionHistories concatenates the two histories, dest's first so it
// stays the primary line. The merge boundary version is prepended later by
// recordMergeVersion, once every other step has settled the data it
// snapshots.
func (m *PersonMerger) mergeVersionHistories() ([]versions.Version, error) {
	destHistory, err := versions.Decode(m.Dest.Versions)
	if err != nil {
		return nil, err
	}
	sourceHistory, err := versions.Decode(m.Source.Versions)
	if err != nil {
		return nil, err
	}
	return append(destHistory, sourceHistory...), nil
}

// resolveDuplicateIdentifiers keeps whichever of the two rows was modified
// more recently, deletes the other, and reassigns the survivor to dest. On
// equal timestamps destIdentifier (always the dest person's row) wins.
func (m *PersonMerger) resolveDuplicateIdentifiers(tx Store, destIdentifier, sourceIdentifier *models.PersonIdentifier) error {
	keep, drop := destIdentifier, sourceIdentifier
	if sourceIdentifier.UpdatedAt > destIdentifier.UpdatedAt {
		keep, drop = sourceIdentifier, destIdentifier
	}
	if err := SafeDelete(tx, drop); err != nil {
		return err
	}
	keep.PersonID = m.Dest.ID
	return tx.SaveIdentifier(keep)
}

// mergeIdentifiers reconciles typed identifiers. Identifiers carry a
// modified timestamp, so whenever both people hold one of the same type the
// latest row simply wins.
//
// A first pass resolves rows sharing the same value across different types:
// the (person, value) unique index would otherwise fail when the source row
// is reassigned.
func (m *PersonMerger) mergeIdentifiers(tx Store) error {
	sourceIdentifiers, err := tx.Identifiers(m.Source.ID)
	if err != nil {
		return err
	}
	for i := range sourceIdentifiers {
		identifier := sourceIdentifiers[i]
		existing, err := tx.IdentifierWithValue(m.Dest.ID, identifier.Value)
		if err != nil {
			return err
		}
		if existing != nil {
			if err := m.resolveDuplicateIdentifiers(tx, existing, &identifier); err != nil {
				return err
			}
		}
	}

	// refetch: the pass above may have deleted or moved rows
	sourceIdentifiers, err = tx.Identifiers(m.Source.ID)
	if err != nil {
		return err
	}
	for i := range sourceIdentifiers {
		identifier := sourceIdentifiers[i]
		existing, err := tx.IdentifierOfType(m.Dest.ID, identifier.ValueType)
		if err != nil {
			return err
		}
		if existing != nil {
			if err := m.resolveDuplicateIdentifiers(tx, existing, &identifier); err != nil {
				return err
			}
		} else {
			identifier.PersonID = m.Dest.ID
			if err := tx.SaveIdentifier(&identifier); err != nil {
				return err
			}
		}
	}
	return nil
}

// mergeImages points the source person's images at dest. A primary image on
// source takes over from dest's: the source person was the one being
// actively edited, so its curation is trusted.
func (m *PersonMerger) mergeImages(tx Store) error {
	sourceHasPrimary, err := tx.HasPrimaryImage(m.Source.ID)
	if err != nil {
		return err
	}
	if sourceHasPrimary {
		if err := tx.DemotePrimaryImages(m.Dest.ID); err != nil {
			return err
		}
	}
	return tx.ReassignImages(m.Source.ID, m.Dest.ID)
}

// deepMergeMemberships reconciles two memberships for the exact same ballot,
// which only happens when the same person was added to one ballot under both
// duplicate records. Related rows move from the source membership onto
// dest's, then the source membership is safe-deleted. Two results for one
// ballot cannot be reconciled automatically and fail the merge.
func (m *PersonMerger) deepMergeMemberships(tx Store, sourceMembership, destMembership *models.Membership) error {
	if sourceMembership.Result != nil {
		if destMembership.Result != nil {
			return &InvalidMergeError{Reason: "trying to merge two memberships with results"}
		}
		if err := tx.ReassignResult(sourceMembership.Result.ID, destMembership.ID); err != nil {
			return err
		}
		sourceMembership.Result = nil
	}
	return SafeDelete(tx, sourceMembership)
}

func (m *PersonMerger) mergeMemberships(tx Store) error {
	memberships, err := tx.Memberships(m.Source.ID)
	if err != nil {
		return err
	}
	for i := range memberships {
		membership := memberships[i]
		existing, err := tx.MembershipForBallot(m.Dest.ID, membership.BallotID)
		if err != nil {
			return err
		}
		if existing != nil {
			if err := m.deepMergeMemberships(tx, &membership, existing); err != nil {
				return err
			}
		} else {
			// no membership may land in an election dest has declared
			// not_standing for. The opposite direction, source declaring
			// not_standing where dest stands, is resolved quietly by
			// mergeNotStanding; here the declaration belongs to the record
			// that survives, so the conflict has to fail the merge.
			declared, err := tx.IsNotStanding(m.Dest.ID, membership.Ballot.ElectionID)
			if err != nil {
				return err
			}
			if declared {
				return &InvalidMergeError{Reason: fmt.Sprintf(
					"trying to add a membership in election %q, but that election is in person %d's not_standing list",
					membership.Ballot.Election.Slug, m.Dest.ID)}
			}
			membership.PersonID = m.Dest.ID
			if err := tx.SaveMembership(&membership); err != nil {
				return err
			}
		}
	}

	// No election may hold more than one of dest's memberships. The unique
	// index only covers (person, ballot); this spans three tables, so it
	// has to be checked here.
	destMemberships, err := tx.Memberships(m.Dest.ID)
	if err != nil {
		return err
	}
	elections := map[uint]struct{}{}
	for _, membership := range destMemberships {
		elections[membership.Ballot.ElectionID] = struct{}{}
	}
	if len(elections) != len(destMemberships) {
		return &InvalidMergeError{Reason: "merging would cause this person to be standing more than once in the same election"}
	}
	return nil
}

// mergeNotStanding carries source's not-standing declarations over, except
// for elections dest is actually standing in: a person cannot be both
// standing and known-not-standing in one election, and the membership is the
// stronger claim. Source's declarations are cleared either way.
func (m *PersonMerger) mergeNotStanding(tx Store) error {
	notStanding, err := tx.NotStanding(m.Source.ID)
	if err != nil {
		return err
	}
	for _, election := range notStanding {
		standing, err := tx.HasMembershipInElection(m.Dest.ID, election.ID)
		if err != nil {
			return err
		}
		if !standing {
			if err := tx.AddNotStanding(m.Dest.ID, election.ID); err != nil {
				return err
			}
		}
		if err := tx.RemoveNotStanding(m.Source.ID, election.ID); err != nil {
			return err
		}
	}
	return nil
}

// recordMergeVersion snapshots the merged person and prepends it to the
// combined history. De-duplication is suppressed: even a merge that changed
// no field must stay visible in the log.
func (m *PersonMerger) recordMergeVersion(tx Store, combined []versions.Version) (versions.Version, error) {
	username := ""
	if m.actor != nil {
		username = m.actor.Username
	}
	mergeVersion := versions.NewVersion(username, versions.MergeSource(m.Source.ID))
	mergeVersion.MergedFrom = fmt.Sprint(m.Source.ID)

	data, err := tx.VersionData(m.Dest)
	if err != nil {
		return versions.Version{}, err
	}
	mergeVersion.Data = data

	encoded, err := versions.Encode(versions.Record(combined, mergeVersion, true))
	if err != nil {
		return versions.Version{}, err
	}
	m.Dest.Versions = encoded
	if err := tx.SavePerson(m.Dest); err != nil {
		return versions.Version{}, err
	}
	return mergeVersion, nil
}

// SafeDelete deletes model only if nothing else would go down with it. Any
// related rows still attached mean some merge step failed to detach them, or
// that a new related model exists that the merger doesn't know about yet.
// Either way the deletion is refused rather than cascading silently.
func SafeDelete(tx Store, model any) error {
	related, err := tx.CollectRelated(model)
	if err != nil {
		return err
	}
	if len(related) > 0 {
		return &UnsafeToDeleteError{Model: fmt.Sprintf("%T", model), Related: related}
	}
	return tx.Delete(model)
}
