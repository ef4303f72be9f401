package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"gorm.io/gorm"

	"github.com/openelects/candidatesbackend/merging"
	"github.com/openelects/candidatesbackend/models"
	"github.com/openelects/candidatesbackend/repository"
)

// MergeHandler serves the person merge endpoint
type MergeHandler struct {
	PersonRepo repository.PersonRepositoryInterface
	MergeStore merging.Store
}

func NewMergeHandler(personRepo repository.PersonRepositoryInterface, mergeStore merging.Store) *MergeHandler {
	return &MergeHandler{PersonRepo: personRepo, MergeStore: mergeStore}
}

type MergePayload struct {
	PersonA uint `json:"person_a"`
	PersonB uint `json:"person_b"`
}

// MergePeople merges two duplicate person records. Whichever order the two
// ids are given in, the lower id survives. The authenticated user is recorded
// as the merge actor on the audit trail and the merge version.
func (h *MergeHandler) MergePeople(w http.ResponseWriter, r *http.Request) {
	var payload MergePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_merge", "Malformed merge request: "+err.Error())
		return
	}
	if payload.PersonA == 0 || payload.PersonB == 0 {
		WriteAPIError(w, http.StatusBadRequest, "invalid_merge", "Both person_a and person_b are required")
		return
	}
	if payload.PersonA == payload.PersonB {
		WriteAPIError(w, http.StatusBadRequest, "invalid_merge", "A person cannot be merged with themselves")
		return
	}

	personA, ok := h.loadPerson(w, payload.PersonA)
	if !ok {
		return
	}
	personB, ok := h.loadPerson(w, payload.PersonB)
	if !ok {
		return
	}

	var actor *models.User
	if user, ok := r.Context().Value(UserContextKey).(*models.User); ok {
		actor = user
	}

	merger := merging.NewPersonMerger(h.MergeStore, personA, personB, actor)
	survivor, err := merger.Merge(true)
	if err != nil {
		var invalidErr *merging.InvalidMergeError
		if errors.As(err, &invalidErr) {
			WriteAPIError(w, http.StatusBadRequest, "invalid_merge", invalidErr.Reason)
			return
		}
		var unsafeErr *merging.UnsafeToDeleteError
		if errors.As(err, &unsafeErr) {
			WriteAPIError(w, http.StatusConflict, "unsafe_to_delete", unsafeErr.Error())
			return
		}
		log.Printf("Error merging people %d and %d: %v", payload.PersonA, payload.PersonB, err)
		WriteAPIError(w, http.StatusInternalServerError, "merge_failed", "Failed to merge people")
		return
	}

	// reload so the response shows the merged relations, not the stale
	// in-memory copies
	merged, err := h.PersonRepo.GetByID(survivor.ID)
	if err != nil {
		log.Printf("Error reloading merged person %d: %v", survivor.ID, err)
		writeJSON(w, http.StatusOK, survivor)
		return
	}
	writeJSON(w, http.StatusOK, merged)
}

func (h *MergeHandler) loadPerson(w http.ResponseWriter, id uint) (*models.Person, bool) {
	person, err := h.PersonRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			WriteAPIError(w, http.StatusBadRequest, "invalid_merge",
				"One of the people to merge does not exist")
			return nil, false
		}
		WriteAPIError(w, http.StatusInternalServerError, "merge_failed", "Failed to load person")
		return nil, false
	}
	return person, true
}
