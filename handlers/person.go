package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"gorm.io/gorm"

	"github.com/openelects/candidatesbackend/merging"
	"github.com/openelects/candidatesbackend/models"
	"github.com/openelects/candidatesbackend/repository"
	"github.com/openelects/candidatesbackend/versions"
)

// PersonHandler serves the person CRUD and version history endpoints
type PersonHandler struct {
	PersonRepo repository.PersonRepositoryInterface
	MergeStore merging.Store
}

func NewPersonHandler(personRepo repository.PersonRepositoryInterface, mergeStore merging.Store) *PersonHandler {
	return &PersonHandler{PersonRepo: personRepo, MergeStore: mergeStore}
}

// PersonPayload carries the editable scalar fields of a person. Pointers
// distinguish "leave unchanged" from "set to empty".
type PersonPayload struct {
	Name             *string `json:"name"`
	HonorificPrefix  *string `json:"honorific_prefix"`
	HonorificSuffix  *string `json:"honorific_suffix"`
	Gender           *string `json:"gender"`
	BirthDate        *string `json:"birth_date"`
	DeathDate        *string `json:"death_date"`
	Biography        *string `json:"biography"`
	Summary          *string `json:"summary"`
	FamilyName       *string `json:"family_name"`
	GivenName        *string `json:"given_name"`
	AdditionalName   *string `json:"additional_name"`
	PatronymicName   *string `json:"patronymic_name"`
	SortName         *string `json:"sort_name"`
	NationalIdentity *string `json:"national_identity"`
	FavouriteBiscuit *string `json:"favourite_biscuit"`

	InformationSource string `json:"information_source"`
}

func applyString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func (p *PersonPayload) applyTo(person *models.Person) {
	applyString(&person.Name, p.Name)
	applyString(&person.HonorificPrefix, p.HonorificPrefix)
	applyString(&person.HonorificSuffix, p.HonorificSuffix)
	applyString(&person.Gender, p.Gender)
	applyString(&person.BirthDate, p.BirthDate)
	applyString(&person.DeathDate, p.DeathDate)
	applyString(&person.Biography, p.Biography)
	applyString(&person.Summary, p.Summary)
	applyString(&person.FamilyName, p.FamilyName)
	applyString(&person.GivenName, p.GivenName)
	applyString(&person.AdditionalName, p.AdditionalName)
	applyString(&person.PatronymicName, p.PatronymicName)
	applyString(&person.SortName, p.SortName)
	applyString(&person.NationalIdentity, p.NationalIdentity)
	applyString(&person.FavouriteBiscuit, p.FavouriteBiscuit)
}

func requestUsername(r *http.Request) string {
	if user, ok := r.Context().Value(UserContextKey).(*models.User); ok && user != nil {
		return user.Username
	}
	return ""
}

func (h *PersonHandler) ListPeople(w http.ResponseWriter, r *http.Request) {
	people, err := h.PersonRepo.ListAll()
	if err != nil {
		WriteAPIError(w, http.StatusInternalServerError, "list_failed", "Failed to list people")
		return
	}
	writeJSON(w, http.StatusOK, people)
}

func (h *PersonHandler) CreatePerson(w http.ResponseWriter, r *http.Request) {
	var payload PersonPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_payload", "Invalid request body: "+err.Error())
		return
	}
	if payload.Name == nil || *payload.Name == "" {
		WriteAPIError(w, http.StatusBadRequest, "missing_name", "A person needs a name")
		return
	}
	if payload.InformationSource == "" {
		WriteAPIError(w, http.StatusBadRequest, "missing_source", "information_source is required")
		return
	}

	var person models.Person
	payload.applyTo(&person)

	if err := h.PersonRepo.Create(&person, requestUsername(r), payload.InformationSource); err != nil {
		WriteAPIError(w, http.StatusInternalServerError, "create_failed", "Failed to create person")
		return
	}
	writeJSON(w, http.StatusCreated, person)
}

// resolvePersonID parses the person id in the URL and follows any redirect
// chain left behind by merges. When a redirect applied it writes the 301
// itself and reports done=true.
func (h *PersonHandler) resolvePersonID(w http.ResponseWriter, r *http.Request, suffix string) (uint, bool) {
	id, err := uintURLParam(r, "personID")
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_id", "Invalid person id")
		return 0, true
	}
	finalID, redirected, err := h.PersonRepo.FollowRedirects(id)
	if err != nil {
		WriteAPIError(w, http.StatusInternalServerError, "redirect_failed", "Failed to resolve person id")
		return 0, true
	}
	if redirected {
		http.Redirect(w, r, fmt.Sprintf("/api/people/%d%s", finalID, suffix), http.StatusMovedPermanently)
		return 0, true
	}
	return finalID, false
}

func (h *PersonHandler) GetPerson(w http.ResponseWriter, r *http.Request) {
	id, done := h.resolvePersonID(w, r, "")
	if done {
		return
	}
	person, err := h.PersonRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			WriteAPIError(w, http.StatusNotFound, "not_found", "Person not found")
			return
		}
		WriteAPIError(w, http.StatusInternalServerError, "get_failed", "Failed to load person")
		return
	}
	writeJSON(w, http.StatusOK, person)
}

func (h *PersonHandler) UpdatePerson(w http.ResponseWriter, r *http.Request) {
	id, done := h.resolvePersonID(w, r, "")
	if done {
		return
	}

	var payload PersonPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_payload", "Invalid request body: "+err.Error())
		return
	}
	if payload.InformationSource == "" {
		WriteAPIError(w, http.StatusBadRequest, "missing_source", "information_source is required")
		return
	}

	person, err := h.PersonRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			WriteAPIError(w, http.StatusNotFound, "not_found", "Person not found")
			return
		}
		WriteAPIError(w, http.StatusInternalServerError, "get_failed", "Failed to load person")
		return
	}

	payload.applyTo(person)
	if err := h.PersonRepo.Update(person, requestUsername(r), payload.InformationSource); err != nil {
		WriteAPIError(w, http.StatusInternalServerError, "update_failed", "Failed to update person")
		return
	}
	writeJSON(w, http.StatusOK, person)
}

// DeletePerson removes a person, refusing when related rows would go down
// with them. Moderator only.
func (h *PersonHandler) DeletePerson(w http.ResponseWriter, r *http.Request) {
	id, done := h.resolvePersonID(w, r, "")
	if done {
		return
	}
	person, err := h.PersonRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			WriteAPIError(w, http.StatusNotFound, "not_found", "Person not found")
			return
		}
		WriteAPIError(w, http.StatusInternalServerError, "get_failed", "Failed to load person")
		return
	}

	err = h.MergeStore.Transaction(func(tx merging.Store) error {
		return merging.SafeDelete(tx, person)
	})
	if err != nil {
		var unsafeErr *merging.UnsafeToDeleteError
		if errors.As(err, &unsafeErr) {
			WriteAPIError(w, http.StatusConflict, "unsafe_to_delete",
				fmt.Sprintf("Person %d still has related data: %v", id, unsafeErr.Related))
			return
		}
		WriteAPIError(w, http.StatusInternalServerError, "delete_failed", "Failed to delete person")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// VersionsResponse bundles everything the version history view needs: the
// raw snapshots, the reconstructed parent edges and per-version diffs.
type VersionsResponse struct {
	Versions  []versions.Version  `json:"versions"`
	ParentMap map[string][]string `json:"parent_map"`
	Diffs     []versions.Diff     `json:"diffs"`
}

func (h *PersonHandler) GetVersions(w http.ResponseWriter, r *http.Request) {
	id, done := h.resolvePersonID(w, r, "/versions")
	if done {
		return
	}
	history, err := h.PersonRepo.History(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			WriteAPIError(w, http.StatusNotFound, "not_found", "Person not found")
			return
		}
		WriteAPIError(w, http.StatusInternalServerError, "history_failed", "Failed to load version history")
		return
	}

	parentMap, err := versions.ParentMap(history)
	if err != nil {
		var corrupt *versions.CorruptHistoryError
		if errors.As(err, &corrupt) {
			WriteAPIError(w, http.StatusInternalServerError, "corrupt_history", corrupt.Error())
			return
		}
		WriteAPIError(w, http.StatusInternalServerError, "history_failed", "Failed to reconstruct version graph")
		return
	}
	diffs, err := versions.Diffs(history)
	if err != nil {
		WriteAPIError(w, http.StatusInternalServerError, "history_failed", "Failed to compute version diffs")
		return
	}

	writeJSON(w, http.StatusOK, VersionsResponse{
		Versions:  history,
		ParentMap: parentMap,
		Diffs:     diffs,
	})
}
