package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"

	"github.com/openelects/candidatesbackend/media"
	"github.com/openelects/candidatesbackend/models"
	"github.com/openelects/candidatesbackend/repository"
	"github.com/openelects/candidatesbackend/workers"
)

// ExportHandler serves per-election candidate CSV exports. Files are built in
// the background by the export worker pool; requests for a missing or stale
// file queue a build and answer 202.
type ExportHandler struct {
	ElectionRepo repository.ElectionRepositoryInterface
	ExportGen    *workers.ExportGenerator
	Store        media.Store
}

func NewExportHandler(electionRepo repository.ElectionRepositoryInterface, exportGen *workers.ExportGenerator, store media.Store) *ExportHandler {
	return &ExportHandler{ElectionRepo: electionRepo, ExportGen: exportGen, Store: store}
}

func (h *ExportHandler) ListElections(w http.ResponseWriter, r *http.Request) {
	elections, err := h.ElectionRepo.ListAll()
	if err != nil {
		WriteAPIError(w, http.StatusInternalServerError, "list_failed", "Failed to list elections")
		return
	}
	writeJSON(w, http.StatusOK, elections)
}

// GetCandidatesCSV serves an election's candidates CSV when a build exists,
// otherwise queues a build. ?refresh=true forces a rebuild even when a file
// is already available.
func (h *ExportHandler) GetCandidatesCSV(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "electionSlug")
	election, err := h.ElectionRepo.GetBySlug(slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			WriteAPIError(w, http.StatusNotFound, "not_found", "Election not found")
			return
		}
		WriteAPIError(w, http.StatusInternalServerError, "export_failed", "Failed to load election")
		return
	}

	refresh := r.URL.Query().Get("refresh") == "true"
	if !refresh && election.CSVStatus == "done" && election.CSVPath != nil {
		h.serveCSV(w, r, election)
		return
	}

	if election.CSVStatus != "pending" && election.CSVStatus != "processing" {
		if err := h.ElectionRepo.MarkCSVRequested(election.ID); err != nil {
			log.Printf("Error marking CSV requested for election %s: %v", slug, err)
			WriteAPIError(w, http.StatusInternalServerError, "export_failed", "Failed to request CSV build")
			return
		}
		h.ExportGen.QueueJob(workers.ExportJob{ElectionID: election.ID, ElectionSlug: election.Slug})
	}

	writeJSON(w, http.StatusAccepted, map[string]string{
		"status": "pending",
		"detail": fmt.Sprintf("Candidates CSV for %s is being generated", slug),
	})
}

func (h *ExportHandler) serveCSV(w http.ResponseWriter, r *http.Request, election *models.Election) {
	fullPath, err := h.Store.AbsolutePath(*election.CSVPath)
	if err != nil {
		log.Printf("Error resolving CSV path %q for election %s: %v", *election.CSVPath, election.Slug, err)
		WriteAPIError(w, http.StatusInternalServerError, "export_failed", "Failed to resolve CSV file")
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", election.Slug+"-candidates.csv"))
	http.ServeFile(w, r, fullPath)
}
