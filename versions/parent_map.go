package versions

import (
	"fmt"
	"sort"
)

// CorruptHistoryError is raised when the merge markers found in a history do
// not account for the number of distinct person ids it contains. That means
// either the data was damaged, or an edit's information source text was
// crafted to look like a merge without one having happened. Neither may be
// guessed past: the parent map would be wrong either way.
type CorruptHistoryError struct {
	PersonID  string
	Merges    int
	PersonIDs int
}

func (e *CorruptHistoryError) Error() string {
	return fmt.Sprintf(
		"version history of person %s looks corrupt: found %d merge versions but %d person ids",
		e.PersonID, e.Merges, e.PersonIDs,
	)
}

// ParentMap reconstructs which version each version descends from, for diff
// display. The returned map has one entry per version id; roots map to an
// empty slice and merge versions map to two parents (their own chain plus
// the last version of the merged-away person).
//
// The history may span several person ids, because merges concatenate the
// histories of both people. Versions are grouped by the person id embedded
// in their data, ordered by timestamp, and chained within each group. Merge
// versions then gain an extra edge to the final version of the person they
// merged away.
func ParentMap(history []Version) (map[string][]string, error) {
	parents := map[string][]string{}
	if len(history) == 0 {
		return parents, nil
	}
	canonicalPersonID := history[0].Data.ID

	ordered := make([]Version, len(history))
	copy(ordered, history)
	var parseErr error
	sort.SliceStable(ordered, func(i, j int) bool {
		ti, err := ordered[i].Time()
		if err != nil && parseErr == nil {
			parseErr = err
		}
		tj, err := ordered[j].Time()
		if err != nil && parseErr == nil {
			parseErr = err
		}
		return ti.Before(tj)
	})
	if parseErr != nil {
		return nil, parseErr
	}

	// chain versions person-by-person in timestamp order
	versionsByPersonID := map[string][]Version{}
	for _, v := range ordered {
		chain := versionsByPersonID[v.Data.ID]
		if len(chain) > 0 {
			parents[v.VersionID] = []string{chain[len(chain)-1].VersionID}
		} else {
			parents[v.VersionID] = []string{}
		}
		versionsByPersonID[v.Data.ID] = append(chain, v)
	}

	// add the second parent edge for each merge version, and count the
	// merges so we can cross-check them against the person ids seen
	numberOfMerges := 0
	for _, v := range ordered {
		mergedFrom := v.MergedFromID()
		if mergedFrom == "" {
			continue
		}
		otherChain, ok := versionsByPersonID[mergedFrom]
		if !ok {
			// old histories exist where the merged person's versions were
			// never carried over; treat those like any other version
			continue
		}
		numberOfMerges++
		lastOfOther := otherChain[len(otherChain)-1].VersionID
		parents[v.VersionID] = append(parents[v.VersionID], lastOfOther)
	}

	if numberOfMerges+1 != len(versionsByPersonID) {
		return nil, &CorruptHistoryError{
			PersonID:  canonicalPersonID,
			Merges:    numberOfMerges,
			PersonIDs: len(versionsByPersonID),
		}
	}
	return parents, nil
}
