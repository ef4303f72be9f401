// Package versions implements the JSON version history attached to every
// person: an ordered list of immutable snapshots, newest first, with enough
// structure to rebuild the edit graph across historical merges.
package versions

import (
	"encoding/json"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TimestampLayout is the format version timestamps are stored in. It matches
// the microsecond-precision timestamps in pre-existing history data.
const TimestampLayout = "2006-01-02T15:04:05.000000"

// Candidacy is the reduced representation of one membership inside a version
// snapshot, keyed by election slug in PersonData.Candidacies. A nil Candidacy
// value under an election slug means the person is known not to be standing
// in that election.
type Candidacy struct {
	BallotPaperID     string `json:"ballot_paper_id,omitempty"`
	PostSlug          string `json:"post_id,omitempty"`
	Party             string `json:"party"`
	Elected           *bool  `json:"elected,omitempty"`
	PartyListPosition *int   `json:"party_list_position,omitempty"`
}

// PersonData is the reduced representation of a person at the moment a
// version was recorded.
type PersonData struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	HonorificPrefix  string `json:"honorific_prefix"`
	HonorificSuffix  string `json:"honorific_suffix"`
	Gender           string `json:"gender"`
	BirthDate        string `json:"birth_date"`
	DeathDate        string `json:"death_date"`
	Biography        string `json:"biography"`
	Summary          string `json:"summary"`
	FamilyName       string `json:"family_name"`
	GivenName        string `json:"given_name"`
	AdditionalName   string `json:"additional_name"`
	PatronymicName   string `json:"patronymic_name"`
	SortName         string `json:"sort_name"`
	NationalIdentity string `json:"national_identity"`
	FavouriteBiscuit string `json:"favourite_biscuit"`

	Identifiers map[string]string     `json:"identifiers"`
	OtherNames  []string              `json:"other_names"`
	Candidacies map[string]*Candidacy `json:"candidacies"`
}

// Equal reports whether two snapshots carry identical data. Used for
// de-duplicating consecutive versions.
func (d PersonData) Equal(other PersonData) bool {
	return reflect.DeepEqual(d, other)
}

// Version is one immutable entry in a person's history.
//
// MergedFrom is the structured marker recording that this version was
// created by merging the named person id away. Older data carries the same
// fact only as the "After merging person <id>" information source text;
// MergedFromID understands both forms.
type Version struct {
	VersionID         string     `json:"version_id"`
	Timestamp         string     `json:"timestamp"`
	Username          string     `json:"username,omitempty"`
	InformationSource string     `json:"information_source"`
	MergedFrom        string     `json:"merged_from,omitempty"`
	Data              PersonData `json:"data"`
}

var mergeSourceRe = regexp.MustCompile(`^After merging person (\d+)`)

// MergeSource builds the information source text recorded on the version
// created by a merge. The exact wording is load-bearing: legacy histories
// carry no structured merged_from field, so this text is what identifies
// their merge points.
func MergeSource(sourceID uint) string {
	return fmt.Sprintf("After merging person %d", sourceID)
}

// MergedFromID returns the person id this version merged away, or "" if the
// version does not represent a merge. The structured field wins; the legacy
// information source text is the fallback.
func (v Version) MergedFromID() string {
	if v.MergedFrom != "" {
		return v.MergedFrom
	}
	if m := mergeSourceRe.FindStringSubmatch(v.InformationSource); m != nil {
		return m[1]
	}
	return ""
}

// Time parses the version's timestamp.
func (v Version) Time() (time.Time, error) {
	t, err := time.Parse(TimestampLayout, v.Timestamp)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse timestamp %q of version %s: %w", v.Timestamp, v.VersionID, err)
	}
	return t, nil
}

// NewVersionID returns a fresh 16 character hex version id.
func NewVersionID() string {
	id := uuid.New()
	return strings.ReplaceAll(id.String(), "-", "")[:16]
}

// NewVersion builds the metadata for a fresh version record. Data is filled
// in by the caller before the version is recorded.
func NewVersion(username, informationSource string) Version {
	return Version{
		VersionID:         NewVersionID(),
		Timestamp:         time.Now().UTC().Format(TimestampLayout),
		Username:          username,
		InformationSource: informationSource,
	}
}

// Decode parses a person's raw versions column. An empty string decodes to
// an empty history.
func Decode(raw string) ([]Version, error) {
	if raw == "" {
		return nil, nil
	}
	var history []Version
	if err := json.Unmarshal([]byte(raw), &history); err != nil {
		return nil, fmt.Errorf("failed to decode version history: %w", err)
	}
	return history, nil
}

// Encode serialises a history back to its stored JSON form.
func Encode(history []Version) (string, error) {
	if history == nil {
		history = []Version{}
	}
	out, err := json.Marshal(history)
	if err != nil {
		return "", fmt.Errorf("failed to encode version history: %w", err)
	}
	return string(out), nil
}

// Record prepends v to history. If the newest existing version carries
// identical data the new version is dropped to keep the history compact,
// unless isMerge is set: a merge must always leave a version behind, even
// when no field changed, so the merge event itself stays visible in the log.
func Record(history []Version, v Version, isMerge bool) []Version {
	if !isMerge && len(history) > 0 && history[0].Data.Equal(v.Data) {
		return history
	}
	return append([]Version{v}, history...)
}
