package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cherryfit/cherryfit/internal/ctxkeys"
	"github.com/cherryfit/cherryfit/internal/model"
	"github.com/cherryfit/cherryfit/internal/service"
	"github.com/cherryfit/cherryfit/internal/validation"
)

type PhotoHandler struct {
	photoService *service.PhotoService
}

func NewPhotoHandler(photoService *service.PhotoService) *PhotoHandler {
	return &PhotoHandler{
		photoService: photoService,
	}
}

// Upload stores a meal photo from the "photo" form field and returns the
// reference to put in a food log's photo_url.
func (h *PhotoHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ownerID := ctxkeys.OwnerID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, validation.PhotoConstraints.MaxSize+(1<<20))
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("photo")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing photo field")
		return
	}
	defer func() { _ = file.Close() }()

	contentType, err := validation.ValidateFile(header, validation.PhotoConstraints)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	url, err := h.photoService.Upload(r.Context(), ownerID, header.Filename, contentType, file)
	if errors.Is(err, service.ErrStorageNotConfigured) {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	if err != nil {
		slog.Error("failed to upload photo", "error", err, "owner_id", ownerID)
		writeError(w, http.StatusInternalServerError, "failed to upload photo")
		return
	}

	writeJSON(w, http.StatusCreated, model.PhotoUploadResponse{PhotoURL: url})
}
