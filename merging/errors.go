package merging

import (
	"fmt"
	"strings"
)

// InvalidMergeError is returned when merging two people would produce
// structurally invalid data: the ids are malformed or identical, the merged
// person would stand more than once in one election, or two memberships for
// the same ballot both carry results. The enclosing transaction is always
// rolled back, so nothing is ever partially applied.
type InvalidMergeError struct {
	Reason string
}

func (e *InvalidMergeError) Error() string {
	return e.Reason
}

// UnsafeToDeleteError is returned when a record slated for deletion still
// has related rows attached. During a merge this means a related model was
// added without teaching the merger about it, a defect that must surface
// loudly rather than silently cascade-delete data.
type UnsafeToDeleteError struct {
	Model   string
	Related []string
}

func (e *UnsafeToDeleteError) Error() string {
	return fmt.Sprintf("can't delete %s with related objects: %s", e.Model, strings.Join(e.Related, ", "))
}
