package handlers

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/openelects/candidatesbackend/config"
	"github.com/openelects/candidatesbackend/media"
	"github.com/openelects/candidatesbackend/models"
	"github.com/openelects/candidatesbackend/repository"
)

const maxPhotoUploadBytes = 20 << 20 // 20 MiB

// PhotoHandler serves candidate photo uploads. Uploads by ordinary users land
// in the moderation queue; uploads by moderators are attached to the person
// directly, with a thumbnail generated inline.
type PhotoHandler struct {
	ImageRepo  repository.ImageRepositoryInterface
	PersonRepo repository.PersonRepositoryInterface
	Processor  *media.Processor
	Cfg        config.Config
}

func NewPhotoHandler(imageRepo repository.ImageRepositoryInterface, personRepo repository.PersonRepositoryInterface, processor *media.Processor, cfg config.Config) *PhotoHandler {
	return &PhotoHandler{ImageRepo: imageRepo, PersonRepo: personRepo, Processor: processor, Cfg: cfg}
}

func (h *PhotoHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	personID, err := uintURLParam(r, "personID")
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_id", "Invalid person id")
		return
	}
	if _, err := h.PersonRepo.GetByID(personID); err != nil {
		WriteAPIError(w, http.StatusNotFound, "not_found", "Person not found")
		return
	}

	if err := r.ParseMultipartForm(maxPhotoUploadBytes); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_upload", "Invalid multipart form: "+err.Error())
		return
	}
	file, header, err := r.FormFile("photo")
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_upload", "A 'photo' file field is required")
		return
	}
	defer file.Close()

	if !media.IsRasterImage(header.Filename) {
		WriteAPIError(w, http.StatusBadRequest, "invalid_upload",
			fmt.Sprintf("Unsupported photo file type: %s", header.Filename))
		return
	}

	raw, err := io.ReadAll(file)
	if err != nil {
		WriteAPIError(w, http.StatusInternalServerError, "upload_failed", "Failed to read upload")
		return
	}
	meta := media.ExtractPhotoMetadata(raw)

	savedRelPath, img, md5sum, err := h.Processor.SavePhoto(bytes.NewReader(raw))
	if err != nil {
		log.Printf("Error storing photo for person %d: %v", personID, err)
		WriteAPIError(w, http.StatusInternalServerError, "upload_failed", "Failed to store photo")
		return
	}

	user, _ := r.Context().Value(UserContextKey).(*models.User)
	var uploadedByID *uint
	if user != nil {
		uploadedByID = &user.ID
	}

	if user == nil || !user.IsModerator {
		queued := &models.QueuedImage{
			PersonID:      personID,
			Path:          savedRelPath,
			Justification: r.FormValue("justification"),
			TakenAt:       meta.TakenAt,
			UploadedByID:  uploadedByID,
		}
		if err := h.ImageRepo.CreateQueuedImage(queued); err != nil {
			log.Printf("Error queueing photo for person %d: %v", personID, err)
			WriteAPIError(w, http.StatusInternalServerError, "upload_failed", "Failed to queue photo")
			return
		}
		writeJSON(w, http.StatusAccepted, queued)
		return
	}

	image := &models.PersonImage{
		PersonID:     personID,
		Path:         savedRelPath,
		IsPrimary:    r.FormValue("is_primary") == "true",
		MD5Sum:       md5sum,
		Copyright:    r.FormValue("copyright"),
		Source:       r.FormValue("source"),
		UserNotes:    r.FormValue("user_notes"),
		TakenAt:      meta.TakenAt,
		UploadedByID: uploadedByID,
	}
	if err := h.ImageRepo.CreatePersonImage(image); err != nil {
		log.Printf("Error attaching photo to person %d: %v", personID, err)
		WriteAPIError(w, http.StatusInternalServerError, "upload_failed", "Failed to attach photo")
		return
	}

	thumbRelPath, err := h.Processor.GenerateThumbnail(img, h.Cfg.ThumbnailMaxSize)
	if err != nil {
		// the photo itself is already stored; a missing thumbnail is
		// recoverable so the upload still succeeds
		log.Printf("Error generating thumbnail for image %d: %v", image.ID, err)
	} else if err := h.ImageRepo.UpdateThumbnailPath(image.ID, &thumbRelPath); err != nil {
		log.Printf("Error recording thumbnail for image %d: %v", image.ID, err)
	} else {
		image.ThumbnailPath = &thumbRelPath
	}

	if user != nil {
		if err := h.PersonRepo.LogAction(&models.LoggedAction{
			UserID:     &user.ID,
			ActionType: models.ActionPhotoUpload,
			PersonID:   &personID,
			Source:     image.Source,
		}); err != nil {
			log.Printf("Error logging photo upload for person %d: %v", personID, err)
		}
	}

	writeJSON(w, http.StatusCreated, image)
}
