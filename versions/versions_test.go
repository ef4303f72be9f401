package versions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewVersionID(t *testing.T) {
	id := NewVersionID()
	assert.Len(t, id, 16)
	assert.NotEqual(t, id, NewVersionID())
}

func TestMergedFromID(t *testing.T) {
	tests := []struct {
		name    string
		version Version
		want    string
	}{
		{
			name:    "structured field",
			version: Version{MergedFrom: "2501", InformationSource: "After merging person 9999"},
			want:    "2501",
		},
		{
			name:    "legacy text",
			version: Version{InformationSource: "After merging person 2501"},
			want:    "2501",
		},
		{
			name:    "ordinary edit",
			version: Version{InformationSource: "http://example.com/article"},
			want:    "",
		},
		{
			name:    "merge text not at start",
			version: Version{InformationSource: "Not After merging person 2501"},
			want:    "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.version.MergedFromID())
		})
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	elected := true
	history := []Version{
		{
			VersionID:         "5aa6418325c1a096",
			Timestamp:         "2019-01-28T16:08:53.112792",
			Username:          "alice",
			InformationSource: "Manual correction",
			Data: PersonData{
				ID:          "2009",
				Name:        "Tessa Jowell",
				Identifiers: map[string]string{"twitter_username": "jowellt"},
				OtherNames:  []string{"Tessa Palmer"},
				Candidacies: map[string]*Candidacy{
					"parl.2015-05-07": {
						BallotPaperID: "parl.dulwich-and-west-norwood.2015-05-07",
						PostSlug:      "65808",
						Party:         "PP53",
						Elected:       &elected,
					},
					"parl.2017-06-08": nil,
				},
			},
		},
	}

	encoded, err := Encode(history)
	require.NoError(t, err)
	decoded, err := Decode(encoded)
	require.NoError(t, err)
	require.Len(t, decoded, 1)
	assert.True(t, decoded[0].Data.Equal(history[0].Data))

	// a not-standing marker survives the round trip as an explicit null
	require.Contains(t, decoded[0].Data.Candidacies, "parl.2017-06-08")
	assert.Nil(t, decoded[0].Data.Candidacies["parl.2017-06-08"])
}

func TestDecodeEmpty(t *testing.T) {
	history, err := Decode("")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestRecordDeduplicatesIdenticalData(t *testing.T) {
	base := NewVersion("alice", "first source")
	base.Data = PersonData{ID: "1", Name: "John Smith"}
	history := Record(nil, base, false)
	require.Len(t, history, 1)

	duplicate := NewVersion("bob", "second source")
	duplicate.Data = PersonData{ID: "1", Name: "John Smith"}
	history = Record(history, duplicate, false)
	assert.Len(t, history, 1, "identical consecutive snapshots should collapse")

	changed := NewVersion("bob", "third source")
	changed.Data = PersonData{ID: "1", Name: "John T Smith"}
	history = Record(history, changed, false)
	require.Len(t, history, 2)
	assert.Equal(t, "John T Smith", history[0].Data.Name, "newest version goes first")
}

func TestRecordAlwaysKeepsMergeVersions(t *testing.T) {
	base := NewVersion("alice", "first source")
	base.Data = PersonData{ID: "1", Name: "John Smith"}
	history := Record(nil, base, false)

	merge := NewVersion("alice", MergeSource(42))
	merge.MergedFrom = "42"
	merge.Data = PersonData{ID: "1", Name: "John Smith"}
	history = Record(history, merge, true)
	require.Len(t, history, 2, "a merge must leave a version even with identical data")
	assert.Equal(t, "42", history[0].MergedFromID())
}

func TestVersionTime(t *testing.T) {
	v := Version{VersionID: "abc", Timestamp: "2019-01-28T16:08:53.112792"}
	parsed, err := v.Time()
	require.NoError(t, err)
	assert.Equal(t, 2019, parsed.Year())

	v.Timestamp = "not a timestamp"
	_, err = v.Time()
	assert.Error(t, err)
}
