package merging_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/openelects/candidatesbackend/database"
	"github.com/openelects/candidatesbackend/merging"
	"github.com/openelects/candidatesbackend/models"
	"github.com/openelects/candidatesbackend/repository"
	"github.com/openelects/candidatesbackend/versions"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// a single connection keeps the shared in-memory database alive for the
	// whole test
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.AutoMigrateModels(db))
	return db
}

func newTestStore(t *testing.T) (*gorm.DB, *repository.MergeStore) {
	db := newTestDB(t)
	return db, repository.NewMergeStore(db)
}

func makePerson(t *testing.T, db *gorm.DB, name string, mutate func(*models.Person)) *models.Person {
	t.Helper()
	person := &models.Person{Name: name}
	if mutate != nil {
		mutate(person)
	}
	require.NoError(t, db.Create(person).Error)
	return person
}

func makeElection(t *testing.T, db *gorm.DB, slug string) *models.Election {
	t.Helper()
	election := &models.Election{Slug: slug, Name: slug, CSVStatus: "none"}
	require.NoError(t, db.Create(election).Error)
	return election
}

func makeBallot(t *testing.T, db *gorm.DB, election *models.Election, postSlug string) *models.Ballot {
	t.Helper()
	post := &models.Post{Slug: postSlug, Label: "Post " + postSlug}
	require.NoError(t, db.Create(post).Error)
	ballot := &models.Ballot{
		BallotPaperID: fmt.Sprintf("%s.%s", election.Slug, postSlug),
		PostID:        post.ID,
		ElectionID:    election.ID,
	}
	require.NoError(t, db.Create(ballot).Error)
	return ballot
}

func makeParty(t *testing.T, db *gorm.DB, ecID string) *models.Party {
	t.Helper()
	party := &models.Party{ECID: ecID, Name: "Party " + ecID}
	require.NoError(t, db.Create(party).Error)
	return party
}

func makeMembership(t *testing.T, db *gorm.DB, person *models.Person, ballot *models.Ballot, party *models.Party) *models.Membership {
	t.Helper()
	membership := &models.Membership{PersonID: person.ID, BallotID: ballot.ID, PartyID: party.ID}
	require.NoError(t, db.Create(membership).Error)
	return membership
}

func mergePeople(t *testing.T, store *repository.MergeStore, a, b *models.Person, actor *models.User) (*models.Person, error) {
	t.Helper()
	return merging.NewPersonMerger(store, a, b, actor).Merge(true)
}

func TestMergeAssignsRolesByID(t *testing.T) {
	db, store := newTestStore(t)
	older := makePerson(t, db, "John Smith", nil)
	newer := makePerson(t, db, "John T Smith", nil)

	// passing the people in either order must give the same outcome
	survivor, err := mergePeople(t, store, newer, older, nil)
	require.NoError(t, err)
	assert.Equal(t, older.ID, survivor.ID)

	var gone models.Person
	err = db.First(&gone, newer.ID).Error
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound), "source person should be deleted")

	var redirect models.PersonRedirect
	require.NoError(t, db.Where("old_person_id = ?", newer.ID).First(&redirect).Error)
	assert.Equal(t, older.ID, redirect.NewPersonID)
}

func TestMergeSelfFails(t *testing.T) {
	db, store := newTestStore(t)
	person := makePerson(t, db, "John Smith", nil)

	_, err := mergePeople(t, store, person, person, nil)
	var invalidErr *merging.InvalidMergeError
	require.ErrorAs(t, err, &invalidErr)
}

func TestMergeSourcePropertiesWin(t *testing.T) {
	db, store := newTestStore(t)
	dest := makePerson(t, db, "Tessa Jowell", func(p *models.Person) {
		p.Gender = "male"
	})
	source := makePerson(t, db, "Tessa Palmer", func(p *models.Person) {
		p.Gender = "female"
		p.BirthDate = "1947-09-17"
	})

	survivor, err := mergePeople(t, store, dest, source, nil)
	require.NoError(t, err)

	var merged models.Person
	require.NoError(t, db.First(&merged, survivor.ID).Error)
	assert.Equal(t, "Tessa Jowell", merged.Name, "the displayed name never changes in a merge")
	assert.Equal(t, "female", merged.Gender, "a set source value beats the dest value")
	assert.Equal(t, "1947-09-17", merged.BirthDate, "a source value fills an empty dest field")

	var otherNames []models.OtherName
	require.NoError(t, db.Where("person_id = ?", survivor.ID).Find(&otherNames).Error)
	require.Len(t, otherNames, 1)
	assert.Equal(t, "Tessa Palmer", otherNames[0].Name)
}

func TestMergeMovesOtherNamesWithoutDuplicates(t *testing.T) {
	db, store := newTestStore(t)
	dest := makePerson(t, db, "John Smith", nil)
	source := makePerson(t, db, "John Smith", nil)
	require.NoError(t, db.Create(&models.OtherName{PersonID: dest.ID, Name: "Johnny Smith"}).Error)
	require.NoError(t, db.Create(&models.OtherName{PersonID: source.ID, Name: "Johnny Smith"}).Error)
	require.NoError(t, db.Create(&models.OtherName{PersonID: source.ID, Name: "J Smith"}).Error)

	survivor, err := mergePeople(t, store, dest, source, nil)
	require.NoError(t, err)

	names, err := store.OtherNames(survivor.ID)
	require.NoError(t, err)
	require.Len(t, names, 2)
	assert.Equal(t, "J Smith", names[0].Name)
	assert.Equal(t, "Johnny Smith", names[1].Name)
}

func TestMergeIdentifiersNewestWins(t *testing.T) {
	db, store := newTestStore(t)
	dest := makePerson(t, db, "John Smith", nil)
	source := makePerson(t, db, "John Smith", nil)
	require.NoError(t, db.Create(&models.PersonIdentifier{
		PersonID: dest.ID, ValueType: "twitter_username", Value: "old_account",
		CreatedAt: 1000, UpdatedAt: 1000,
	}).Error)
	require.NoError(t, db.Create(&models.PersonIdentifier{
		PersonID: source.ID, ValueType: "twitter_username", Value: "new_account",
		CreatedAt: 2000, UpdatedAt: 2000,
	}).Error)
	require.NoError(t, db.Create(&models.PersonIdentifier{
		PersonID: source.ID, ValueType: "wikidata_id", Value: "Q1234",
		CreatedAt: 2000, UpdatedAt: 2000,
	}).Error)

	survivor, err := mergePeople(t, store, dest, source, nil)
	require.NoError(t, err)

	identifiers, err := store.Identifiers(survivor.ID)
	require.NoError(t, err)
	require.Len(t, identifiers, 2)
	assert.Equal(t, "new_account", identifiers[0].Value, "the more recently modified identifier wins")
	assert.Equal(t, "Q1234", identifiers[1].Value, "identifiers missing from dest move over")
}

func TestMergeIdentifiersDestWinsWhenNewer(t *testing.T) {
	db, store := newTestStore(t)
	dest := makePerson(t, db, "John Smith", nil)
	source := makePerson(t, db, "John Smith", nil)
	require.NoError(t, db.Create(&models.PersonIdentifier{
		PersonID: dest.ID, ValueType: "twitter_username", Value: "current_account",
		CreatedAt: 3000, UpdatedAt: 3000,
	}).Error)
	require.NoError(t, db.Create(&models.PersonIdentifier{
		PersonID: source.ID, ValueType: "twitter_username", Value: "stale_account",
		CreatedAt: 1000, UpdatedAt: 1000,
	}).Error)

	survivor, err := mergePeople(t, store, dest, source, nil)
	require.NoError(t, err)

	identifiers, err := store.Identifiers(survivor.ID)
	require.NoError(t, err)
	require.Len(t, identifiers, 1)
	assert.Equal(t, "current_account", identifiers[0].Value)
}

func TestMergeIdentifiersSameValueDifferentType(t *testing.T) {
	db, store := newTestStore(t)
	dest := makePerson(t, db, "John Smith", nil)
	source := makePerson(t, db, "John Smith", nil)
	// the same value filed under two different types used to collide with
	// the (person, value) unique index during reassignment
	require.NoError(t, db.Create(&models.PersonIdentifier{
		PersonID: dest.ID, ValueType: "twitter_username", Value: "shared_handle",
		CreatedAt: 1000, UpdatedAt: 1000,
	}).Error)
	require.NoError(t, db.Create(&models.PersonIdentifier{
		PersonID: source.ID, ValueType: "instagram_username", Value: "shared_handle",
		CreatedAt: 2000, UpdatedAt: 2000,
	}).Error)

	survivor, err := mergePeople(t, store, dest, source, nil)
	require.NoError(t, err)

	identifiers, err := store.Identifiers(survivor.ID)
	require.NoError(t, err)
	require.Len(t, identifiers, 1)
	assert.Equal(t, "instagram_username", identifiers[0].ValueType, "the newer row wins")
	assert.Equal(t, "shared_handle", identifiers[0].Value)
}

func TestMergeImagesPrimaryTakeover(t *testing.T) {
	db, store := newTestStore(t)
	dest := makePerson(t, db, "John Smith", nil)
	source := makePerson(t, db, "John Smith", nil)
	require.NoError(t, db.Create(&models.PersonImage{
		PersonID: dest.ID, Path: "photos/1/old.jpg", IsPrimary: true,
	}).Error)
	require.NoError(t, db.Create(&models.PersonImage{
		PersonID: source.ID, Path: "photos/2/new.jpg", IsPrimary: true,
	}).Error)

	survivor, err := mergePeople(t, store, dest, source, nil)
	require.NoError(t, err)

	var images []models.PersonImage
	require.NoError(t, db.Where("person_id = ?", survivor.ID).Order("path ASC").Find(&images).Error)
	require.Len(t, images, 2)
	assert.False(t, images[0].IsPrimary, "dest's primary gets demoted")
	assert.True(t, images[1].IsPrimary, "source's primary takes over")
}

func TestMergeImagesKeepsDestPrimaryWhenSourceHasNone(t *testing.T) {
	db, store := newTestStore(t)
	dest := makePerson(t, db, "John Smith", nil)
	source := makePerson(t, db, "John Smith", nil)
	require.NoError(t, db.Create(&models.PersonImage{
		PersonID: dest.ID, Path: "photos/1/old.jpg", IsPrimary: true,
	}).Error)
	require.NoError(t, db.Create(&models.PersonImage{
		PersonID: source.ID, Path: "photos/2/extra.jpg", IsPrimary: false,
	}).Error)

	survivor, err := mergePeople(t, store, dest, source, nil)
	require.NoError(t, err)

	var primaries []models.PersonImage
	require.NoError(t, db.Where("person_id = ? AND is_primary = ?", survivor.ID, true).Find(&primaries).Error)
	require.Len(t, primaries, 1)
	assert.Equal(t, "photos/1/old.jpg", primaries[0].Path)
}

func TestMergeMovesMemberships(t *testing.T) {
	db, store := newTestStore(t)
	dest := makePerson(t, db, "John Smith", nil)
	source := makePerson(t, db, "John Smith", nil)
	election := makeElection(t, db, "parl.2015-05-07")
	ballot := makeBallot(t, db, election, "dulwich")
	party := makeParty(t, db, "PP53")
	makeMembership(t, db, source, ballot, party)

	survivor, err := mergePeople(t, store, dest, source, nil)
	require.NoError(t, err)

	memberships, err := store.Memberships(survivor.ID)
	require.NoError(t, err)
	require.Len(t, memberships, 1)
	assert.Equal(t, ballot.ID, memberships[0].BallotID)
}

func TestMergeSameBallotDeepMergesResult(t *testing.T) {
	db, store := newTestStore(t)
	dest := makePerson(t, db, "John Smith", nil)
	source := makePerson(t, db, "John Smith", nil)
	election := makeElection(t, db, "parl.2015-05-07")
	ballot := makeBallot(t, db, election, "dulwich")
	party := makeParty(t, db, "PP53")
	destMembership := makeMembership(t, db, dest, ballot, party)
	sourceMembership := makeMembership(t, db, source, ballot, party)
	require.NoError(t, db.Create(&models.CandidateResult{
		MembershipID: sourceMembership.ID, NumBallots: 32614,
	}).Error)

	survivor, err := mergePeople(t, store, dest, source, nil)
	require.NoError(t, err)

	memberships, err := store.Memberships(survivor.ID)
	require.NoError(t, err)
	require.Len(t, memberships, 1)
	assert.Equal(t, destMembership.ID, memberships[0].ID)
	require.NotNil(t, memberships[0].Result, "the result moves onto the surviving membership")
	assert.Equal(t, 32614, memberships[0].Result.NumBallots)

	var count int64
	require.NoError(t, db.Model(&models.Membership{}).Count(&count).Error)
	assert.EqualValues(t, 1, count, "the source membership is deleted")
}

func TestMergeBothResultsFailsAndRollsBack(t *testing.T) {
	db, store := newTestStore(t)
	dest := makePerson(t, db, "John Smith", nil)
	source := makePerson(t, db, "John Smith", func(p *models.Person) { p.Gender = "male" })
	election := makeElection(t, db, "parl.2015-05-07")
	ballot := makeBallot(t, db, election, "dulwich")
	party := makeParty(t, db, "PP53")
	destMembership := makeMembership(t, db, dest, ballot, party)
	sourceMembership := makeMembership(t, db, source, ballot, party)
	require.NoError(t, db.Create(&models.CandidateResult{MembershipID: destMembership.ID, NumBallots: 100}).Error)
	require.NoError(t, db.Create(&models.CandidateResult{MembershipID: sourceMembership.ID, NumBallots: 200}).Error)

	_, err := mergePeople(t, store, dest, source, nil)
	var invalidErr *merging.InvalidMergeError
	require.ErrorAs(t, err, &invalidErr)
	assert.Equal(t, "trying to merge two memberships with results", invalidErr.Reason)

	// nothing may have been committed
	var people int64
	require.NoError(t, db.Model(&models.Person{}).Count(&people).Error)
	assert.EqualValues(t, 2, people)
	var sourceReloaded models.Person
	require.NoError(t, db.First(&sourceReloaded, source.ID).Error)
	var sourceMemberships []models.Membership
	require.NoError(t, db.Where("person_id = ?", source.ID).Find(&sourceMemberships).Error)
	assert.Len(t, sourceMemberships, 1)
	var redirects int64
	require.NoError(t, db.Model(&models.PersonRedirect{}).Count(&redirects).Error)
	assert.EqualValues(t, 0, redirects)
}

func TestMergeStandingTwiceInOneElectionFails(t *testing.T) {
	db, store := newTestStore(t)
	dest := makePerson(t, db, "John Smith", nil)
	source := makePerson(t, db, "John Smith", nil)
	election := makeElection(t, db, "local.2016-05-05")
	ballotA := makeBallot(t, db, election, "ward-a")
	ballotB := makeBallot(t, db, election, "ward-b")
	party := makeParty(t, db, "PP53")
	makeMembership(t, db, dest, ballotA, party)
	makeMembership(t, db, source, ballotB, party)

	_, err := mergePeople(t, store, dest, source, nil)
	var invalidErr *merging.InvalidMergeError
	require.ErrorAs(t, err, &invalidErr)
	assert.Equal(t, "merging would cause this person to be standing more than once in the same election", invalidErr.Reason)

	var people int64
	require.NoError(t, db.Model(&models.Person{}).Count(&people).Error)
	assert.EqualValues(t, 2, people)
}

func TestMergeNotStanding(t *testing.T) {
	db, store := newTestStore(t)
	dest := makePerson(t, db, "John Smith", nil)
	source := makePerson(t, db, "John Smith", nil)
	contested := makeElection(t, db, "parl.2017-06-08")
	skipped := makeElection(t, db, "parl.2019-12-12")
	ballot := makeBallot(t, db, contested, "dulwich")
	party := makeParty(t, db, "PP53")
	makeMembership(t, db, dest, ballot, party)
	require.NoError(t, store.AddNotStanding(source.ID, contested.ID))
	require.NoError(t, store.AddNotStanding(source.ID, skipped.ID))

	survivor, err := mergePeople(t, store, dest, source, nil)
	require.NoError(t, err)

	notStanding, err := store.NotStanding(survivor.ID)
	require.NoError(t, err)
	require.Len(t, notStanding, 1, "a membership beats a not-standing declaration")
	assert.Equal(t, skipped.ID, notStanding[0].ID)
}

func TestMergeRecordsMergeVersion(t *testing.T) {
	db, store := newTestStore(t)
	personRepo := repository.NewPersonRepository(db)

	dest := &models.Person{Name: "Tessa Jowell"}
	require.NoError(t, personRepo.Create(dest, "alice", "seed import"))
	source := &models.Person{Name: "Tessa Palmer"}
	require.NoError(t, personRepo.Create(source, "bob", "seed import"))

	actor := &models.User{Username: "moderator"}
	require.NoError(t, actor.SetPassword("secret"))
	require.NoError(t, db.Create(actor).Error)

	survivor, err := mergePeople(t, store, dest, source, actor)
	require.NoError(t, err)

	var merged models.Person
	require.NoError(t, db.First(&merged, survivor.ID).Error)
	history, err := versions.Decode(merged.Versions)
	require.NoError(t, err)
	require.Len(t, history, 3, "both histories plus the merge boundary version")

	boundary := history[0]
	assert.Equal(t, fmt.Sprint(source.ID), boundary.MergedFromID())
	assert.Equal(t, versions.MergeSource(source.ID), boundary.InformationSource)
	assert.Equal(t, "moderator", boundary.Username)
	assert.Equal(t, "Tessa Jowell", boundary.Data.Name)
	assert.Contains(t, boundary.Data.OtherNames, "Tessa Palmer")

	// dest's own history comes before the source's
	assert.Equal(t, fmt.Sprint(dest.ID), history[1].Data.ID)
	assert.Equal(t, fmt.Sprint(source.ID), history[2].Data.ID)

	// the combined history must reconstruct into a parent map without
	// tripping the corruption check
	parents, err := versions.ParentMap(history)
	require.NoError(t, err)
	assert.Len(t, parents[boundary.VersionID], 2)
}

func TestMergeWithActorWritesAuditLog(t *testing.T) {
	db, store := newTestStore(t)
	dest := makePerson(t, db, "John Smith", nil)
	source := makePerson(t, db, "John Smith", nil)
	actor := &models.User{Username: "moderator"}
	require.NoError(t, actor.SetPassword("secret"))
	require.NoError(t, db.Create(actor).Error)

	survivor, err := mergePeople(t, store, dest, source, actor)
	require.NoError(t, err)

	var action models.LoggedAction
	require.NoError(t, db.Where("action_type = ?", models.ActionPersonMerge).First(&action).Error)
	require.NotNil(t, action.PersonID)
	assert.Equal(t, survivor.ID, *action.PersonID)
	require.NotNil(t, action.UserID)
	assert.Equal(t, actor.ID, *action.UserID)
	assert.NotEmpty(t, action.VersionID)
}

func TestMergeReassignsAncillaryRows(t *testing.T) {
	db, store := newTestStore(t)
	dest := makePerson(t, db, "John Smith", nil)
	source := makePerson(t, db, "John Smith", nil)
	election := makeElection(t, db, "parl.2015-05-07")
	ballot := makeBallot(t, db, election, "dulwich")
	party := makeParty(t, db, "PP53")
	require.NoError(t, db.Create(&models.QueuedImage{PersonID: source.ID, Path: "photos/q.jpg"}).Error)
	require.NoError(t, db.Create(&models.ResultEvent{
		WinnerID: source.ID, BallotID: ballot.ID, WinnerPartyID: party.ID,
	}).Error)
	require.NoError(t, db.Create(&models.GenderGuess{PersonID: source.ID, Gender: "male"}).Error)
	require.NoError(t, db.Create(&models.LoggedAction{
		ActionType: models.ActionPersonUpdate, PersonID: &source.ID, CreatedAt: 1,
	}).Error)

	survivor, err := mergePeople(t, store, dest, source, nil)
	require.NoError(t, err)

	var queued models.QueuedImage
	require.NoError(t, db.First(&queued).Error)
	assert.Equal(t, survivor.ID, queued.PersonID)

	var event models.ResultEvent
	require.NoError(t, db.First(&event).Error)
	assert.Equal(t, survivor.ID, event.WinnerID)

	var guesses int64
	require.NoError(t, db.Model(&models.GenderGuess{}).Count(&guesses).Error)
	assert.EqualValues(t, 0, guesses, "derived gender guesses are dropped, not moved")

	var action models.LoggedAction
	require.NoError(t, db.First(&action).Error)
	assert.Equal(t, survivor.ID, *action.PersonID)
}

func TestMergeCanKeepSource(t *testing.T) {
	db, store := newTestStore(t)
	dest := makePerson(t, db, "John Smith", nil)
	source := makePerson(t, db, "John Smith", nil)

	_, err := merging.NewPersonMerger(store, dest, source, nil).Merge(false)
	require.NoError(t, err)

	var kept models.Person
	require.NoError(t, db.First(&kept, source.ID).Error)
}

func TestSafeDeleteRefusesWithRelatedRows(t *testing.T) {
	db, store := newTestStore(t)
	person := makePerson(t, db, "John Smith", nil)
	election := makeElection(t, db, "parl.2015-05-07")
	ballot := makeBallot(t, db, election, "dulwich")
	party := makeParty(t, db, "PP53")
	makeMembership(t, db, person, ballot, party)

	err := merging.SafeDelete(store, person)
	var unsafeErr *merging.UnsafeToDeleteError
	require.ErrorAs(t, err, &unsafeErr)
	assert.Contains(t, unsafeErr.Related, "memberships (1)")

	var still models.Person
	require.NoError(t, db.First(&still, person.ID).Error)
}

func TestSafeDeleteRemovesLeafRecords(t *testing.T) {
	db, store := newTestStore(t)
	person := makePerson(t, db, "John Smith", nil)

	require.NoError(t, merging.SafeDelete(store, person))

	var gone models.Person
	err := db.First(&gone, person.ID).Error
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestMergeRejectsMembershipIntoNotStandingElection(t *testing.T) {
	db, store := newTestStore(t)
	dest := makePerson(t, db, "John Smith", nil)
	source := makePerson(t, db, "John T Smith", nil)
	election := makeElection(t, db, "parl.2015-05-07")
	ballot := makeBallot(t, db, election, "dulwich")
	party := makeParty(t, db, "PP53")
	makeMembership(t, db, source, ballot, party)
	require.NoError(t, store.AddNotStanding(dest.ID, election.ID))

	_, err := mergePeople(t, store, dest, source, nil)
	var invalidErr *merging.InvalidMergeError
	require.ErrorAs(t, err, &invalidErr)
	assert.Contains(t, invalidErr.Reason, "not_standing")

	// rolled back: the candidacy still belongs to the source person and the
	// declaration still stands
	var sourceMemberships int64
	require.NoError(t, db.Model(&models.Membership{}).Where("person_id = ?", source.ID).Count(&sourceMemberships).Error)
	assert.EqualValues(t, 1, sourceMemberships)
	declared, err := store.IsNotStanding(dest.ID, election.ID)
	require.NoError(t, err)
	assert.True(t, declared)
	var people int64
	require.NoError(t, db.Model(&models.Person{}).Count(&people).Error)
	assert.EqualValues(t, 2, people)
}

// The worked example from the original data: two records for the same
// candidate on the same 2010 ballot under different parties, the later record
// also standing in 2015, each record carrying a photo.
func TestMergeFullScenario(t *testing.T) {
	db, store := newTestStore(t)
	personRepo := repository.NewPersonRepository(db)

	dest := &models.Person{Name: "Tessa Jowell"}
	require.NoError(t, personRepo.Create(dest, "alice", "seed import"))
	source := &models.Person{Name: "Shane Collins"}
	require.NoError(t, personRepo.Create(source, "bob", "seed import"))

	election2010 := makeElection(t, db, "parl.2010-05-06")
	election2015 := makeElection(t, db, "parl.2015-05-07")
	sharedBallot := makeBallot(t, db, election2010, "dulwich-and-west-norwood-2010")
	laterBallot := makeBallot(t, db, election2015, "dulwich-and-west-norwood-2015")
	labour := makeParty(t, db, "PP53")
	green := makeParty(t, db, "PP63")
	makeMembership(t, db, dest, sharedBallot, labour)
	makeMembership(t, db, source, sharedBallot, green)
	makeMembership(t, db, source, laterBallot, green)
	require.NoError(t, db.Create(&models.PersonImage{PersonID: dest.ID, Path: "photos/aa/one.jpg"}).Error)
	require.NoError(t, db.Create(&models.PersonImage{PersonID: source.ID, Path: "photos/bb/two.jpg"}).Error)

	survivor, err := mergePeople(t, store, dest, source, nil)
	require.NoError(t, err)
	assert.Equal(t, dest.ID, survivor.ID)

	memberships, err := store.Memberships(survivor.ID)
	require.NoError(t, err)
	require.Len(t, memberships, 2, "one candidacy per election survives")
	electionIDs := map[uint]bool{}
	for _, membership := range memberships {
		electionIDs[membership.Ballot.ElectionID] = true
	}
	assert.True(t, electionIDs[election2010.ID])
	assert.True(t, electionIDs[election2015.ID])

	var otherNames []models.OtherName
	require.NoError(t, db.Where("person_id = ?", survivor.ID).Find(&otherNames).Error)
	require.Len(t, otherNames, 1)
	assert.Equal(t, "Shane Collins", otherNames[0].Name)

	var images int64
	require.NoError(t, db.Model(&models.PersonImage{}).Where("person_id = ?", survivor.ID).Count(&images).Error)
	assert.EqualValues(t, 2, images)

	var gone models.Person
	err = db.First(&gone, source.ID).Error
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound), "the source row is gone")

	finalID, redirected, err := personRepo.FollowRedirects(source.ID)
	require.NoError(t, err)
	assert.True(t, redirected)
	assert.Equal(t, survivor.ID, finalID)
}
