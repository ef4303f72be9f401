package versions

import (
	"encoding/json"
	"fmt"

	"github.com/pmezard/go-difflib/difflib"
)

// Diff describes how one version differs from one of its parents as a
// unified diff over the pretty-printed snapshot data. A version with two
// parents (a merge) produces two Diff entries.
type Diff struct {
	VersionID       string `json:"version_id"`
	ParentVersionID string `json:"parent_version_id,omitempty"`
	Diff            string `json:"diff"`
}

func snapshotLines(d PersonData) ([]string, error) {
	out, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to render snapshot data: %w", err)
	}
	return difflib.SplitLines(string(out) + "\n"), nil
}

// Diffs computes, for every version in the history, unified diffs against
// each of its parents as determined by ParentMap. Roots diff against the
// empty snapshot. Results are returned in history order (newest first).
func Diffs(history []Version) ([]Diff, error) {
	parents, err := ParentMap(history)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]Version, len(history))
	for _, v := range history {
		byID[v.VersionID] = v
	}

	var diffs []Diff
	for _, v := range history {
		lines, err := snapshotLines(v.Data)
		if err != nil {
			return nil, err
		}
		parentIDs := parents[v.VersionID]
		if len(parentIDs) == 0 {
			text, err := unifiedDiff(nil, lines, "", v.VersionID)
			if err != nil {
				return nil, err
			}
			diffs = append(diffs, Diff{VersionID: v.VersionID, Diff: text})
			continue
		}
		for _, parentID := range parentIDs {
			parent, ok := byID[parentID]
			if !ok {
				return nil, fmt.Errorf("parent version %s of %s missing from history", parentID, v.VersionID)
			}
			parentLines, err := snapshotLines(parent.Data)
			if err != nil {
				return nil, err
			}
			text, err := unifiedDiff(parentLines, lines, parentID, v.VersionID)
			if err != nil {
				return nil, err
			}
			diffs = append(diffs, Diff{VersionID: v.VersionID, ParentVersionID: parentID, Diff: text})
		}
	}
	return diffs, nil
}

func unifiedDiff(a, b []string, fromID, toID string) (string, error) {
	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        a,
		B:        b,
		FromFile: fromID,
		ToFile:   toID,
		Context:  3,
	})
	if err != nil {
		return "", fmt.Errorf("failed to build unified diff for version %s: %w", toID, err)
	}
	return text, nil
}
