package merging

import "github.com/openelects/candidatesbackend/models"

// FieldPolicy says how a scalar person field is resolved during a merge.
type FieldPolicy int

const (
	// SourceWins keeps the source person's value whenever it is non-empty.
	// The source has the higher id, so it is the more recently created
	// record and its data is assumed fresher.
	SourceWins FieldPolicy = iota
	// StickyName keeps the dest person's displayed name and preserves a
	// differing source name as an OtherName instead. Renaming someone as a
	// side effect of a merge would be surprising.
	StickyName
)

type personField struct {
	name   string
	policy FieldPolicy
	get    func(*models.Person) string
	set    func(*models.Person, string)
}

// personFields is the full list of mergeable scalar fields with their
// policies. Adding a field to models.Person means adding it here; the
// coverage test in this package fails until that happens.
var personFields = []personField{
	{"name", StickyName,
		func(p *models.Person) string { return p.Name },
		func(p *models.Person, v string) { p.Name = v }},
	{"honorific_prefix", SourceWins,
		func(p *models.Person) string { return p.HonorificPrefix },
		func(p *models.Person, v string) { p.HonorificPrefix = v }},
	{"honorific_suffix", SourceWins,
		func(p *models.Person) string { return p.HonorificSuffix },
		func(p *models.Person, v string) { p.HonorificSuffix = v }},
	{"gender", SourceWins,
		func(p *models.Person) string { return p.Gender },
		func(p *models.Person, v string) { p.Gender = v }},
	{"birth_date", SourceWins,
		func(p *models.Person) string { return p.BirthDate },
		func(p *models.Person, v string) { p.BirthDate = v }},
	{"death_date", SourceWins,
		func(p *models.Person) string { return p.DeathDate },
		func(p *models.Person, v string) { p.DeathDate = v }},
	{"biography", SourceWins,
		func(p *models.Person) string { return p.Biography },
		func(p *models.Person, v string) { p.Biography = v }},
	{"summary", SourceWins,
		func(p *models.Person) string { return p.Summary },
		func(p *models.Person, v string) { p.Summary = v }},
	{"family_name", SourceWins,
		func(p *models.Person) string { return p.FamilyName },
		func(p *models.Person, v string) { p.FamilyName = v }},
	{"given_name", SourceWins,
		func(p *models.Person) string { return p.GivenName },
		func(p *models.Person, v string) { p.GivenName = v }},
	{"additional_name", SourceWins,
		func(p *models.Person) string { return p.AdditionalName },
		func(p *models.Person, v string) { p.AdditionalName = v }},
	{"patronymic_name", SourceWins,
		func(p *models.Person) string { return p.PatronymicName },
		func(p *models.Person, v string) { p.PatronymicName = v }},
	{"sort_name", SourceWins,
		func(p *models.Person) string { return p.SortName },
		func(p *models.Person, v string) { p.SortName = v }},
	{"national_identity", SourceWins,
		func(p *models.Person) string { return p.NationalIdentity },
		func(p *models.Person, v string) { p.NationalIdentity = v }},
	{"favourite_biscuit", SourceWins,
		func(p *models.Person) string { return p.FavouriteBiscuit },
		func(p *models.Person, v string) { p.FavouriteBiscuit = v }},
}
